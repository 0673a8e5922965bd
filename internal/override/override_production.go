//go:build production

// Package override is compiled out in production builds: no file is read and
// no override surface exists for shipped hosts.
package override

import "github.com/sirupsen/logrus"

// Settings matches the development build's shape so callers compile
// unchanged. No production code path ever produces a non-nil value.
type Settings struct {
	ShowConsole *bool
	LogLevel    *int
	LogPath     string

	PathToPlugins      []string
	PathToDependencies string
	RegisterPlugins    []string

	ValidateLibraries *bool

	ForceAdapter      string
	ForceArchitecture uint32
	ForceNoAdapters   *bool

	WaitForDebugger *bool
	DumpPath        string
}

func Load(log *logrus.Logger) *Settings { return nil }
