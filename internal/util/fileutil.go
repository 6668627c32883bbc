package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// AtomicWrite streams r into a sibling temp file and renames it over dst, so
// an interrupted write never leaves a truncated dst behind.
func AtomicWrite(dst string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, fmt.Errorf("failed to create parent dir: %w", err)
	}

	tmp := dst + ".ftpsched.tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		_ = RemoveIfExists(tmp)
		return n, fmt.Errorf("failed to write: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = RemoveIfExists(tmp)
		return n, fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		_ = RemoveIfExists(tmp)
		return n, fmt.Errorf("failed to rename: %w", err)
	}

	return n, nil
}

// EnsureDir creates dir and any missing parents. Calling it on an existing
// directory is a no-op.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	return nil
}

func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return nil
}
