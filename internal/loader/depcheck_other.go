//go:build !linux

package loader

// MissingDependencies is a no-op where ELF inspection does not apply.
func (l *ProcessLoader) MissingDependencies(path string, searchDirs []string) ([]string, error) {
	return nil, nil
}
