// Package fileutil provides file system utilities.
package fileutil

import (
	"os"
	"path/filepath"
)

// Exists checks if a path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsFile checks if a path is a regular file.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ResolveDir returns the directory containing the target of path,
// following symbolic links. Falls back to the literal parent directory
// when resolution fails.
func ResolveDir(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	return filepath.Dir(resolved)
}
