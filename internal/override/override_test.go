//go:build !production

package override

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func writeOverride(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	if s := LoadFrom([]string{t.TempDir()}, discardLogger()); s != nil {
		t.Errorf("got %+v from empty directory, want nil", s)
	}
}

func TestLoadFromParsesSettings(t *testing.T) {
	dir := t.TempDir()
	writeOverride(t, dir, `{
		"showConsole": true,
		"logLevel": 2,
		"pathToPlugins": ["/opt/plugins"],
		"registerPlugins": ["b70a0623-2b71-43e6-aa46-a8d9bb6ee5e2"],
		"forceAdapter": "nvidia",
		"forceArchitecture": 400,
		"forceNoAdapters": true
	}`)

	s := LoadFrom([]string{dir}, discardLogger())
	if s == nil {
		t.Fatal("override file not loaded")
	}
	if s.ShowConsole == nil || !*s.ShowConsole {
		t.Error("showConsole not parsed")
	}
	if s.LogLevel == nil || *s.LogLevel != 2 {
		t.Error("logLevel not parsed")
	}
	if len(s.PathToPlugins) != 1 || s.PathToPlugins[0] != "/opt/plugins" {
		t.Errorf("pathToPlugins = %v", s.PathToPlugins)
	}
	if len(s.RegisterPlugins) != 1 {
		t.Errorf("registerPlugins = %v", s.RegisterPlugins)
	}
	if s.ForceAdapter != "nvidia" || s.ForceArchitecture != 400 {
		t.Errorf("force settings = %q/%d", s.ForceAdapter, s.ForceArchitecture)
	}
	if s.ForceNoAdapters == nil || !*s.ForceNoAdapters {
		t.Error("forceNoAdapters not parsed")
	}
	if s.ValidateLibraries != nil {
		t.Error("absent key should stay nil")
	}
}

func TestLoadFromMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeOverride(t, dir, "{not json")

	if s := LoadFrom([]string{dir}, discardLogger()); s != nil {
		t.Errorf("malformed file produced settings: %+v", s)
	}
}

func TestLoadFromFirstDirectoryWins(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	writeOverride(t, first, `{"logPath": "/tmp/first"}`)
	writeOverride(t, second, `{"logPath": "/tmp/second"}`)

	s := LoadFrom([]string{first, second}, discardLogger())
	if s == nil || s.LogPath != "/tmp/first" {
		t.Errorf("got %+v, want first directory's settings", s)
	}
}
