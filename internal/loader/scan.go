package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Scan lists plugin executables directly inside dir. Subdirectories are not
// descended into; each search path stands on its own.
func (l *ProcessLoader) Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), Prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if info.Mode().Perm()&0o111 == 0 {
			l.cfg.Log.WithField("file", e.Name()).Debug("skipping non-executable plugin candidate")
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// SharedLibraries lists library files directly inside dir.
func (l *ProcessLoader) SharedLibraries(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var libs []string
	for _, e := range entries {
		if !e.IsDir() && isSharedLibrary(e.Name()) {
			libs = append(libs, e.Name())
		}
	}
	sort.Strings(libs)
	return libs, nil
}

// isSharedLibrary matches "libfoo.so" and versioned forms like
// "libfoo.so.1.2".
func isSharedLibrary(name string) bool {
	return strings.HasSuffix(name, ".so") || strings.Contains(name, ".so.")
}

// DuplicateLibraries finds shared library basenames present in more than one
// of the given directories. Which copy the dynamic linker would pick depends
// on search order, so the configuration is rejected rather than guessed at.
func DuplicateLibraries(dirs []string, list func(dir string) ([]string, error)) map[string][]string {
	seen := make(map[string][]string)
	for _, dir := range dirs {
		libs, err := list(dir)
		if err != nil {
			continue
		}
		for _, lib := range libs {
			seen[lib] = append(seen[lib], dir)
		}
	}

	dupes := make(map[string][]string)
	for lib, where := range seen {
		if len(where) > 1 {
			dupes[lib] = where
		}
	}
	return dupes
}
