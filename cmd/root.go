// Package cmd implements the gpf command line tool, a thin host around the
// framework for inspecting and exercising plugins.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/grpc-plugin-framework/pkg/api"
	"github.com/example/grpc-plugin-framework/pkg/framework"
)

var (
	pluginPaths []string
	depsPath    string
	dataPath    string
	verbose     bool
	console     bool
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gpf",
		Short: "Inspect and exercise framework plugins",
		Long:  "gpf hosts the plugin framework from the command line: discover plugins, show what the host machine supports, and call plugin interfaces directly.",
	}

	root.PersistentFlags().StringSliceVarP(&pluginPaths, "plugins", "p", []string{"."}, "directories to search for plugins")
	root.PersistentFlags().StringVar(&depsPath, "deps", "", "shared dependencies directory")
	root.PersistentFlags().StringVar(&dataPath, "data", os.TempDir(), "directory for logs and crash data")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	root.PersistentFlags().BoolVar(&console, "console", false, "log to stderr")

	root.AddCommand(NewDiscoverCmd())
	root.AddCommand(NewDescribeCmd())
	root.AddCommand(NewCallCmd())
	return root
}

// initHost brings a framework instance up from the persistent flags. The
// caller owns shutdown.
func initHost() (*framework.Framework, error) {
	prefs := api.Preferences{
		PathsToPlugins:     pluginPaths,
		PathToDependencies: depsPath,
		PathToLogsAndData:  dataPath,
	}
	if verbose {
		prefs.LogLevel = api.LogLevelVerbose
	}
	if console {
		prefs.Flags |= api.PreferenceShowConsole
	}

	fw, res := framework.Init(prefs, api.PackSDKVersion(framework.SDKVersion), framework.Options{})
	if res.Failed() {
		return nil, fmt.Errorf("framework init failed: %s", res)
	}
	return fw, nil
}
