// Package filex contains small directory helpers used by the blob store and
// the configuration layer.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates base/rel (and any missing parents) and returns the
// resulting path. An empty rel ensures base itself.
func EnsureDir(base, rel string) (string, error) {
	dir := filepath.Join(base, filepath.FromSlash(rel))

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// EnsureParent creates the directory that will contain path.
func EnsureParent(path string) error {
	_, err := EnsureDir(filepath.Dir(path), "")
	return err
}

// Exists reports whether path exists. Errors other than "not exist" are returned.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}
