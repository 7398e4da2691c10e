// Package fs provides the read-only filesystem abstraction used by the explorer and indexer.
package fs

import iofs "io/fs"

// FileSystem abstracts the metadata queries dirscope issues so callers can
// work against the host filesystem or a test double that fails chosen paths.
type FileSystem interface {
	// Lstat returns metadata for path without following a final symlink.
	Lstat(path string) (iofs.FileInfo, error)

	// ReadDir lists the children of the directory at path in the order the
	// directory yields them. n > 0 reads at most n children; n <= 0 reads all.
	ReadDir(path string, n int) ([]iofs.DirEntry, error)

	// Canonicalize returns the absolute path with all symlinks resolved.
	Canonicalize(path string) (string, error)
}
