// Package filex holds filesystem helpers for scratch and download directories.
package filex

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EnsureSubdDir creates dirName under base (the working directory when base
// is empty) and returns its absolute path.
func EnsureSubdDir(base, dirName string) (string, error) {
	if base == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		base = cwd
	}

	dir, err := filepath.Abs(filepath.Join(base, dirName))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}

// WriteFileAtomic copies r into dir/name through a temp file in the same
// directory, so readers never see a half-written file. It returns the final
// path and the number of bytes written.
func WriteFileAtomic(dir, name string, r io.Reader) (string, int64, error) {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", 0, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", 0, err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return "", 0, fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, err
	}

	final := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", 0, fmt.Errorf("rename %s: %w", name, err)
	}
	return final, n, nil
}
