package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/grpc-plugin-framework/pkg/api"
	"github.com/example/grpc-plugin-framework/pkg/ui"
)

func NewDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe [plugin-uuid]",
		Short: "Show what discovery recorded for one plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := api.ParsePluginID(args[0])
			if err != nil {
				return err
			}

			fw, err := initHost()
			if err != nil {
				return err
			}
			defer fw.Shutdown()

			spec := fw.Report().FindPlugin(id)
			if spec == nil {
				return fmt.Errorf("plugin %s was not discovered in %v", id, pluginPaths)
			}
			ui.DisplayPluginSpec(cmd.OutOrStdout(), spec)
			return nil
		},
	}
}
