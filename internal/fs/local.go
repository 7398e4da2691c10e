package fs

import (
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
)

// LocalFS implements FileSystem using the host filesystem.
type LocalFS struct{}

// NewLocalFS creates a LocalFS.
func NewLocalFS() *LocalFS {
	return &LocalFS{}
}

// Lstat returns metadata for the path, not following a final symlink.
func (l *LocalFS) Lstat(path string) (iofs.FileInfo, error) {
	return os.Lstat(path)
}

// ReadDir lists the children of the directory at path. Unlike os.ReadDir the
// result is not sorted.
func (l *LocalFS) ReadDir(path string, n int) ([]iofs.DirEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	entries, err := f.ReadDir(n)
	if err != nil {
		// An empty directory read with n > 0 reports io.EOF.
		if n > 0 && errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return entries, nil
}

// Canonicalize makes path absolute and resolves every symlink in it.
func (l *LocalFS) Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
