//go:build !production

// Package override loads the developer configuration file that adjusts
// framework behavior without touching host code. The production build tag
// compiles the mechanism out entirely.
package override

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FileName is looked up next to the host executable first, then in the
// working directory.
const FileName = "gpf.framework.json"

// Settings mirrors the override file. Pointer fields distinguish "absent"
// from an explicit false/zero.
type Settings struct {
	ShowConsole *bool  `json:"showConsole,omitempty"`
	LogLevel    *int   `json:"logLevel,omitempty"`
	LogPath     string `json:"logPath,omitempty"`

	PathToPlugins      []string `json:"pathToPlugins,omitempty"`
	PathToDependencies string   `json:"pathToDependencies,omitempty"`

	// RegisterPlugins lists plugin UUIDs to register eagerly during Init.
	RegisterPlugins []string `json:"registerPlugins,omitempty"`

	ValidateLibraries *bool `json:"validateLibraries,omitempty"`

	ForceAdapter      string `json:"forceAdapter,omitempty"`
	ForceArchitecture uint32 `json:"forceArchitecture,omitempty"`
	ForceNoAdapters   *bool  `json:"forceNoAdapters,omitempty"`

	WaitForDebugger *bool  `json:"waitForDebugger,omitempty"`
	DumpPath        string `json:"dumpPath,omitempty"`
}

// Load reads the override file if one exists, looking next to the executable
// and then in the working directory. A missing file is normal and returns
// nil; a malformed file is reported and ignored.
func Load(log *logrus.Logger) *Settings {
	return LoadFrom(searchDirs(), log)
}

// LoadFrom searches the given directories in order for the override file.
func LoadFrom(dirs []string, log *logrus.Logger) *Settings {
	for _, dir := range dirs {
		path := filepath.Join(dir, FileName)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var s Settings
		if err := json.Unmarshal(data, &s); err != nil {
			log.WithError(err).WithField("path", path).Warn("ignoring malformed override file")
			return nil
		}
		log.WithField("path", path).Info("developer overrides loaded")
		return &s
	}
	return nil
}

func searchDirs() []string {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	return dirs
}
