//go:build linux

package loader

import (
	"debug/elf"
	"os"
	"path/filepath"
)

// systemLibraryDirs are consulted after the configured search directories,
// matching where the dynamic linker looks by default.
var systemLibraryDirs = []string{
	"/lib",
	"/lib64",
	"/usr/lib",
	"/usr/lib64",
	"/lib/x86_64-linux-gnu",
	"/usr/lib/x86_64-linux-gnu",
}

// MissingDependencies walks the DT_NEEDED closure of the plugin binary and
// reports every library that resolves nowhere. Libraries found in searchDirs
// are themselves opened and their dependencies followed.
func (l *ProcessLoader) MissingDependencies(path string, searchDirs []string) ([]string, error) {
	visited := make(map[string]bool)
	var missing []string

	var walk func(binPath string) error
	walk = func(binPath string) error {
		f, err := elf.Open(binPath)
		if err != nil {
			// Not an ELF object; nothing to validate.
			return nil
		}
		needed, err := f.ImportedLibraries()
		f.Close()
		if err != nil {
			return err
		}

		for _, lib := range needed {
			if visited[lib] {
				continue
			}
			visited[lib] = true

			found := ""
			for _, dir := range append(append([]string{}, searchDirs...), systemLibraryDirs...) {
				candidate := filepath.Join(dir, lib)
				if fi, err := os.Stat(candidate); err == nil && fi.Mode().IsRegular() {
					found = candidate
					break
				}
			}
			if found == "" {
				missing = append(missing, lib)
				continue
			}
			// Only follow libraries from the configured directories; the
			// system linker vouches for its own.
			if inDirs(found, searchDirs) {
				if err := walk(found); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(path); err != nil {
		return nil, err
	}
	return missing, nil
}

func inDirs(path string, dirs []string) bool {
	dir := filepath.Dir(path)
	for _, d := range dirs {
		if d == dir {
			return true
		}
	}
	return false
}
