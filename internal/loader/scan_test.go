package loader

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestLoader(t *testing.T) *ProcessLoader {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	l, err := New(Config{Log: log, ProbeCacheSize: 4})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func touch(t *testing.T, dir, name string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), mode); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScanFiltersCandidates(t *testing.T) {
	dir := t.TempDir()

	want := touch(t, dir, "gpf-plugin-echo", 0o755)
	touch(t, dir, "gpf-plugin-noexec", 0o644)
	touch(t, dir, "unrelated-binary", 0o755)
	touch(t, dir, "README.md", 0o644)
	if err := os.Mkdir(filepath.Join(dir, "gpf-plugin-dir"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := newTestLoader(t).Scan(dir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(got) != 1 || got[0] != want {
		t.Errorf("Scan = %v, want [%s]", got, want)
	}
}

func TestScanMissingDirectory(t *testing.T) {
	got, err := newTestLoader(t).Scan(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("Scan of a missing directory failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Scan of a missing directory = %v, want empty", got)
	}
}

func TestScanSortsOutput(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "gpf-plugin-zeta", 0o755)
	touch(t, dir, "gpf-plugin-alpha", 0o755)

	got, err := newTestLoader(t).Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || !strings.HasSuffix(got[0], "alpha") {
		t.Errorf("Scan order = %v", got)
	}
}

func TestSharedLibraries(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "libfoo.so", 0o644)
	touch(t, dir, "libbar.so.1.2", 0o644)
	touch(t, dir, "notes.txt", 0o644)

	got, err := newTestLoader(t).SharedLibraries(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "libbar.so.1.2" || got[1] != "libfoo.so" {
		t.Errorf("SharedLibraries = %v", got)
	}
}

func TestDuplicateLibraries(t *testing.T) {
	l := newTestLoader(t)
	a, b, c := t.TempDir(), t.TempDir(), t.TempDir()
	touch(t, a, "libshared.so", 0o644)
	touch(t, b, "libshared.so", 0o644)
	touch(t, b, "libonlyb.so", 0o644)
	touch(t, c, "libonlyc.so", 0o644)

	dupes := DuplicateLibraries([]string{a, b, c}, l.SharedLibraries)
	if len(dupes) != 1 {
		t.Fatalf("dupes = %v, want one entry", dupes)
	}
	if where := dupes["libshared.so"]; len(where) != 2 {
		t.Errorf("libshared.so found in %v", where)
	}
}

func TestPluginEnvPrependsDepsPath(t *testing.T) {
	t.Setenv("LD_LIBRARY_PATH", "/existing")

	env := pluginEnv("/deps")
	var got string
	for _, kv := range env {
		if strings.HasPrefix(kv, "LD_LIBRARY_PATH=") {
			got = kv
		}
	}
	if got != "LD_LIBRARY_PATH=/deps:/existing" {
		t.Errorf("LD_LIBRARY_PATH = %q", got)
	}
}

func TestPluginEnvWithoutExistingPath(t *testing.T) {
	t.Setenv("LD_LIBRARY_PATH", "") // registers restoration
	os.Unsetenv("LD_LIBRARY_PATH")

	env := pluginEnv("/deps")
	found := false
	for _, kv := range env {
		if kv == "LD_LIBRARY_PATH=/deps" {
			found = true
		}
	}
	if !found {
		t.Error("deps path not added to a clean environment")
	}
}

func TestIsSharedLibrary(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"libfoo.so", true},
		{"libfoo.so.1", true},
		{"libfoo.so.1.2.3", true},
		{"foo.song", false},
		{"binary", false},
	}
	for _, tt := range tests {
		if got := isSharedLibrary(tt.name); got != tt.want {
			t.Errorf("isSharedLibrary(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
