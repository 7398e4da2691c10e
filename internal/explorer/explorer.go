// Package explorer implements a navigable view of one directory's children.
package explorer

import (
	"path/filepath"

	"github.com/CageChen/dirscope/internal/entry"
	mfs "github.com/CageChen/dirscope/internal/fs"
	"go.uber.org/zap"
)

// Explorer holds a current directory and the entries listed from it. The
// (path, entries) pair only changes together, after a successful listing.
//
// An Explorer is not safe for concurrent use.
type Explorer struct {
	fsys    mfs.FileSystem
	log     *zap.Logger
	path    string
	entries []entry.Entry
	skipped int
}

// Option configures an Explorer.
type Option func(*Explorer)

// WithFileSystem sets the filesystem the explorer reads from.
func WithFileSystem(fsys mfs.FileSystem) Option {
	return func(x *Explorer) { x.fsys = fsys }
}

// WithLogger sets the logger used to report skipped children.
func WithLogger(log *zap.Logger) Option {
	return func(x *Explorer) { x.log = log }
}

// New creates an Explorer viewing path.
func New(path string, opts ...Option) (*Explorer, error) {
	x := &Explorer{
		fsys: mfs.NewLocalFS(),
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(x)
	}

	if err := x.SetPath(path); err != nil {
		return nil, err
	}
	return x, nil
}

// Path returns the current directory.
func (x *Explorer) Path() string {
	return x.path
}

// Entries returns the children of the current directory in listing order.
func (x *Explorer) Entries() []entry.Entry {
	out := make([]entry.Entry, len(x.entries))
	copy(out, x.entries)
	return out
}

// Skipped returns how many children the last listing could not read.
func (x *Explorer) Skipped() int {
	return x.skipped
}

// SetPath moves the explorer to path. On error the previous path and
// entries are kept.
func (x *Explorer) SetPath(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return &entry.PathError{Op: "explore", Path: path, Kind: entry.ErrIO, Err: err}
	}

	entries, skipped, err := x.list(abs)
	if err != nil {
		return err
	}

	x.path = abs
	x.entries = entries
	x.skipped = skipped
	return nil
}

// AddPath descends into rel, which is joined onto the current directory.
// Typically rel is an entry's RelativePath.
func (x *Explorer) AddPath(rel string) error {
	return x.SetPath(filepath.Join(x.path, rel))
}

// SetToParent moves to the canonical parent of the current directory. At a
// filesystem root it does nothing.
func (x *Explorer) SetToParent() error {
	parent := filepath.Dir(x.path)
	if parent == x.path {
		return nil
	}

	canonical, err := x.fsys.Canonicalize(parent)
	if err != nil {
		return &entry.PathError{Op: "parent", Path: parent, Kind: entry.ErrIO, Err: err}
	}
	return x.SetPath(canonical)
}

// Refresh re-lists the current directory.
func (x *Explorer) Refresh() error {
	return x.SetPath(x.path)
}

func (x *Explorer) list(dir string) ([]entry.Entry, int, error) {
	children, err := x.fsys.ReadDir(dir, -1)
	if err != nil {
		return nil, 0, entry.WrapPathError("explore", dir, err)
	}

	entries := make([]entry.Entry, 0, len(children))
	skipped := 0
	for _, child := range children {
		childPath := filepath.Join(dir, child.Name())
		e, err := entry.NewWithFS(x.fsys, childPath)
		if err != nil {
			skipped++
			x.log.Debug("skipping entry", zap.String("path", childPath), zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}

	if skipped > 0 {
		x.log.Info("listed directory with unreadable entries",
			zap.String("path", dir),
			zap.Int("entries", len(entries)),
			zap.Int("skipped", skipped),
		)
	}
	return entries, skipped, nil
}
