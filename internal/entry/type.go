package entry

import (
	iofs "io/fs"

	mfs "github.com/CageChen/dirscope/internal/fs"
)

// Type is the classification of a filesystem node.
type Type int

// Entry types, in the order the classifier tests them.
const (
	Directory Type = iota
	File
	Link
	Unknown
)

func (t Type) String() string {
	switch t {
	case Directory:
		return "directory"
	case File:
		return "file"
	case Link:
		return "link"
	default:
		return "unknown"
	}
}

// Label returns the capitalised form used for display, e.g. "Directory".
func (t Type) Label() string {
	switch t {
	case Directory:
		return "Directory"
	case File:
		return "File"
	case Link:
		return "Link"
	default:
		return "Unknown"
	}
}

// ClassifyMode maps file mode bits to a Type. Modes come from Lstat, so a
// symlink is always Link whatever it points to.
func ClassifyMode(mode iofs.FileMode) Type {
	switch {
	case mode.IsDir():
		return Directory
	case mode.IsRegular():
		return File
	case mode&iofs.ModeSymlink != 0:
		return Link
	default:
		return Unknown
	}
}

// Classify reports the Type of path on the host filesystem.
func Classify(path string) Type {
	return ClassifyWithFS(mfs.NewLocalFS(), path)
}

// ClassifyWithFS reports the Type of path using fsys. Paths whose metadata
// cannot be read are Unknown.
func ClassifyWithFS(fsys mfs.FileSystem, path string) Type {
	info, err := fsys.Lstat(path)
	if err != nil {
		return Unknown
	}
	return ClassifyMode(info.Mode())
}
