package entry

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"testing"

	mfs "github.com/CageChen/dirscope/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingFS fails ReadDir for the listed paths.
type failingFS struct {
	*mfs.LocalFS
	fail map[string]bool
}

func (f failingFS) ReadDir(path string, n int) ([]iofs.DirEntry, error) {
	if f.fail[path] {
		return nil, &iofs.PathError{Op: "readdirent", Path: path, Err: iofs.ErrPermission}
	}
	return f.LocalFS.ReadDir(path, n)
}

func setupTree(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "empty"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "full", "inner"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(dir, "note.txt"), filepath.Join(dir, "file-link")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "full"), filepath.Join(dir, "dir-link")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "broken-link")))
	return dir
}

func TestClassify(t *testing.T) {
	dir := setupTree(t)

	tests := []struct {
		name string
		want Type
	}{
		{"empty", Directory},
		{"full", Directory},
		{"note.txt", File},
		{"file-link", Link},
		{"dir-link", Link},
		{"broken-link", Link},
		{"does-not-exist", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(filepath.Join(dir, tt.name)))
		})
	}
}

func TestClassifyMode(t *testing.T) {
	assert.Equal(t, Directory, ClassifyMode(iofs.ModeDir|0o755))
	assert.Equal(t, File, ClassifyMode(0o644))
	assert.Equal(t, Link, ClassifyMode(iofs.ModeSymlink|0o777))
	assert.Equal(t, Unknown, ClassifyMode(iofs.ModeNamedPipe))
	assert.Equal(t, Unknown, ClassifyMode(iofs.ModeSocket))
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "directory", Directory.String())
	assert.Equal(t, "link", Link.String())
	assert.Equal(t, "Unknown", Unknown.Label())
	assert.Equal(t, "unknown", Type(42).String())
}

func TestNew_HasChildren(t *testing.T) {
	dir := setupTree(t)

	full, err := New(filepath.Join(dir, "full"))
	require.NoError(t, err)
	assert.Equal(t, Directory, full.Type())
	assert.True(t, full.HasChildren())

	empty, err := New(filepath.Join(dir, "empty"))
	require.NoError(t, err)
	assert.Equal(t, Directory, empty.Type())
	assert.False(t, empty.HasChildren())

	file, err := New(filepath.Join(dir, "note.txt"))
	require.NoError(t, err)
	assert.Equal(t, File, file.Type())
	assert.False(t, file.HasChildren())

	link, err := New(filepath.Join(dir, "dir-link"))
	require.NoError(t, err)
	assert.Equal(t, Link, link.Type())
	assert.False(t, link.HasChildren(), "links are never treated as directories")
}

func TestNew_HasChildrenIsSnapshot(t *testing.T) {
	dir := setupTree(t)
	emptyPath := filepath.Join(dir, "empty")

	e, err := New(emptyPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(emptyPath, "late.txt"), nil, 0o644))

	assert.False(t, e.HasChildren())
}

func TestNew_Fields(t *testing.T) {
	dir := setupTree(t)
	path := filepath.Join(dir, "note.txt")

	e, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, "note.txt", e.Name())
	assert.Equal(t, path, e.Path())
	assert.Equal(t, "note.txt", e.RelativePath())
	assert.Equal(t, Record{Type: "file", Name: "note.txt", Path: path}, e.Record())
}

func TestNew_RelativeInputBecomesAbsolute(t *testing.T) {
	dir := setupTree(t)
	t.Chdir(dir)

	e, err := New("note.txt")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(e.Path()))
	assert.Equal(t, "note.txt", e.Name())
}

func TestNew_NotExist(t *testing.T) {
	dir := t.TempDir()

	_, err := New(filepath.Join(dir, "nope"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPathDoesNotExist)
	assert.ErrorIs(t, err, iofs.ErrNotExist)

	var pe *PathError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, filepath.Join(dir, "nope"), pe.Path)
}

func TestNew_RootHasNoName(t *testing.T) {
	_, err := New("/")
	assert.ErrorIs(t, err, ErrFaultyName)
}

func TestNew_ListingFailureIsIOError(t *testing.T) {
	dir := setupTree(t)
	full := filepath.Join(dir, "full")
	fsys := failingFS{LocalFS: mfs.NewLocalFS(), fail: map[string]bool{full: true}}

	_, err := NewWithFS(fsys, full)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, iofs.ErrPermission)
}

func TestFromListing(t *testing.T) {
	e, err := FromListing("/data/photos/", iofs.ModeDir, 3)
	require.NoError(t, err)
	assert.Equal(t, Directory, e.Type())
	assert.Equal(t, "photos", e.Name())
	assert.Equal(t, "/data/photos", e.Path())
	assert.True(t, e.HasChildren())

	f, err := FromListing("/data/a.txt", 0, 5)
	require.NoError(t, err)
	assert.False(t, f.HasChildren())

	_, err = FromListing("/", iofs.ModeDir, 1)
	assert.ErrorIs(t, err, ErrFaultyName)
}

func TestRequire(t *testing.T) {
	dir := setupTree(t)

	file, err := New(filepath.Join(dir, "note.txt"))
	require.NoError(t, err)
	assert.NoError(t, file.Require(File))
	assert.ErrorIs(t, file.Require(Directory), ErrNotADirectory)

	d, err := New(filepath.Join(dir, "full"))
	require.NoError(t, err)
	assert.ErrorIs(t, d.Require(File), ErrNotAFile)
	assert.Error(t, d.Require(Link))
}

func TestWrapPathError(t *testing.T) {
	assert.NoError(t, WrapPathError("op", "/x", nil))

	_, statErr := os.Stat("/definitely/not/here")
	err := WrapPathError("op", "/definitely/not/here", statErr)
	assert.ErrorIs(t, err, ErrPathDoesNotExist)

	dir := setupTree(t)
	_, openErr := mfs.NewLocalFS().ReadDir(filepath.Join(dir, "note.txt"), -1)
	require.Error(t, openErr)
	assert.ErrorIs(t, WrapPathError("op", "note.txt", openErr), ErrNotADirectory)

	other := WrapPathError("op", "/x", iofs.ErrPermission)
	assert.ErrorIs(t, other, ErrIO)

	assert.Same(t, other, WrapPathError("again", "/x", other))
}
