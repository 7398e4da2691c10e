// Package entry models filesystem nodes as immutable, classified snapshots.
package entry

import (
	"fmt"
	iofs "io/fs"
	"path/filepath"

	mfs "github.com/CageChen/dirscope/internal/fs"
)

// Entry is a point-in-time snapshot of one filesystem node. It is never
// refreshed; re-list the parent to observe changes.
type Entry struct {
	typ         Type
	name        string
	path        string
	hasChildren bool
}

// Record is the serialisable form of an Entry.
type Record struct {
	Type        string `json:"type" yaml:"type"`
	Name        string `json:"name" yaml:"name"`
	Path        string `json:"path" yaml:"path"`
	HasChildren bool   `json:"hasChildren" yaml:"has_children"`
}

// New builds an Entry for path on the host filesystem.
func New(path string) (Entry, error) {
	return NewWithFS(mfs.NewLocalFS(), path)
}

// NewWithFS builds an Entry for path using fsys.
//
// The path must exist and have a final name component. For directories one
// child is read to decide HasChildren; a failed read is an ErrIO error, not
// an empty directory.
func NewWithFS(fsys mfs.FileSystem, path string) (Entry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Entry{}, &PathError{Op: "entry", Path: path, Kind: ErrIO, Err: err}
	}

	info, err := fsys.Lstat(abs)
	if err != nil {
		return Entry{}, WrapPathError("entry", abs, err)
	}

	name, err := finalComponent(abs)
	if err != nil {
		return Entry{}, err
	}

	typ := ClassifyMode(info.Mode())

	hasChildren := false
	if typ == Directory {
		children, err := fsys.ReadDir(abs, 1)
		if err != nil {
			return Entry{}, &PathError{Op: "entry", Path: abs, Kind: ErrIO, Err: err}
		}
		hasChildren = len(children) > 0
	}

	return Entry{
		typ:         typ,
		name:        name,
		path:        abs,
		hasChildren: hasChildren,
	}, nil
}

// FromListing builds an Entry from data a directory walk already holds: the
// mode bits reported by the listing and the number of children the walker
// read for it. path must be absolute.
func FromListing(path string, mode iofs.FileMode, childCount int) (Entry, error) {
	path = filepath.Clean(path)
	name, err := finalComponent(path)
	if err != nil {
		return Entry{}, err
	}
	typ := ClassifyMode(mode)
	return Entry{
		typ:         typ,
		name:        name,
		path:        path,
		hasChildren: typ == Directory && childCount > 0,
	}, nil
}

func finalComponent(path string) (string, error) {
	if filepath.Dir(path) == path {
		return "", &PathError{Op: "entry", Path: path, Kind: ErrFaultyName}
	}
	return filepath.Base(path), nil
}

// Type returns the entry's classification.
func (e Entry) Type() Type { return e.typ }

// Name returns the final path component.
func (e Entry) Name() string { return e.name }

// Path returns the absolute path.
func (e Entry) Path() string { return e.path }

// HasChildren reports whether the entry was a non-empty directory when it
// was built. Always false for non-directories.
func (e Entry) HasChildren() bool { return e.hasChildren }

// RelativePath returns the entry's path relative to its parent, i.e. just
// its name. Explorer.AddPath accepts it to descend into the entry.
func (e Entry) RelativePath() string { return e.name }

// Require returns an error unless the entry has type t.
func (e Entry) Require(t Type) error {
	if e.typ == t {
		return nil
	}
	switch t {
	case Directory:
		return &PathError{Op: "require", Path: e.path, Kind: ErrNotADirectory}
	case File:
		return &PathError{Op: "require", Path: e.path, Kind: ErrNotAFile}
	default:
		return &PathError{Op: "require", Path: e.path, Kind: fmt.Errorf("not a %s", t)}
	}
}

// Record returns the serialisable form of e.
func (e Entry) Record() Record {
	return Record{
		Type:        e.typ.String(),
		Name:        e.name,
		Path:        e.path,
		HasChildren: e.hasChildren,
	}
}

// Records converts entries to records, preserving order.
func Records(entries []Entry) []Record {
	out := make([]Record, len(entries))
	for i, e := range entries {
		out[i] = e.Record()
	}
	return out
}
