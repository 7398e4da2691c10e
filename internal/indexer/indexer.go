// Package indexer walks a directory tree and partitions every node by type.
package indexer

import (
	iofs "io/fs"
	"path/filepath"

	"github.com/CageChen/dirscope/internal/entry"
	mfs "github.com/CageChen/dirscope/internal/fs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Index is the result of one full traversal. Each partition is in
// depth-first pre-order, siblings in listing order.
type Index struct {
	Root        string
	Directories []entry.Entry
	Files       []entry.Entry
	Links       []entry.Entry
	Unknown     []entry.Entry

	// Skipped counts descendants left out because they could not be read.
	Skipped int
}

// Len returns the number of indexed entries across all partitions.
func (idx *Index) Len() int {
	return len(idx.Directories) + len(idx.Files) + len(idx.Links) + len(idx.Unknown)
}

func (idx *Index) add(e entry.Entry) {
	switch e.Type() {
	case entry.Directory:
		idx.Directories = append(idx.Directories, e)
	case entry.File:
		idx.Files = append(idx.Files, e)
	case entry.Link:
		idx.Links = append(idx.Links, e)
	default:
		idx.Unknown = append(idx.Unknown, e)
	}
}

func (idx *Index) merge(other *Index) {
	idx.Directories = append(idx.Directories, other.Directories...)
	idx.Files = append(idx.Files, other.Files...)
	idx.Links = append(idx.Links, other.Links...)
	idx.Unknown = append(idx.Unknown, other.Unknown...)
	idx.Skipped += other.Skipped
}

// Indexer walks the tree under a fixed root. It keeps no state between
// calls; every call is a fresh traversal.
type Indexer struct {
	root    string
	fsys    mfs.FileSystem
	log     *zap.Logger
	workers int
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithFileSystem sets the filesystem the indexer reads from.
func WithFileSystem(fsys mfs.FileSystem) Option {
	return func(ix *Indexer) { ix.fsys = fsys }
}

// WithLogger sets the logger used to report skipped descendants.
func WithLogger(log *zap.Logger) Option {
	return func(ix *Indexer) { ix.log = log }
}

// WithWorkers walks up to n top-level subtrees concurrently. Output is
// the same as a sequential walk.
func WithWorkers(n int) Option {
	return func(ix *Indexer) { ix.workers = n }
}

// New creates an Indexer for root.
func New(root string, opts ...Option) *Indexer {
	ix := &Indexer{
		root:    root,
		fsys:    mfs.NewLocalFS(),
		log:     zap.NewNop(),
		workers: 1,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Root returns the root the indexer was created with.
func (ix *Indexer) Root() string {
	return ix.root
}

// Index walks the whole tree once and returns every descendant of the root,
// partitioned by type. Only a failure to read the root itself is an error.
// Symlinks are recorded as links and not followed.
func (ix *Indexer) Index() (*Index, error) {
	root, err := filepath.Abs(ix.root)
	if err != nil {
		return nil, &entry.PathError{Op: "index", Path: ix.root, Kind: entry.ErrIO, Err: err}
	}

	children, err := ix.fsys.ReadDir(root, -1)
	if err != nil {
		return nil, entry.WrapPathError("index", root, err)
	}

	idx := &Index{Root: root}
	if ix.workers <= 1 || len(children) < 2 {
		for _, child := range children {
			ix.visit(idx, root, child)
		}
	} else {
		parts := make([]*Index, len(children))
		var g errgroup.Group
		g.SetLimit(ix.workers)
		for i, child := range children {
			g.Go(func() error {
				part := &Index{}
				ix.visit(part, root, child)
				parts[i] = part
				return nil
			})
		}
		_ = g.Wait()
		for _, part := range parts {
			idx.merge(part)
		}
	}

	ix.log.Debug("indexed tree",
		zap.String("root", root),
		zap.Int("directories", len(idx.Directories)),
		zap.Int("files", len(idx.Files)),
		zap.Int("links", len(idx.Links)),
		zap.Int("unknown", len(idx.Unknown)),
		zap.Int("skipped", idx.Skipped),
	)
	return idx, nil
}

// IndexDirectories returns every directory under the root.
func (ix *Indexer) IndexDirectories() ([]entry.Entry, error) {
	idx, err := ix.Index()
	if err != nil {
		return nil, err
	}
	return idx.Directories, nil
}

// IndexFiles returns every regular file under the root.
func (ix *Indexer) IndexFiles() ([]entry.Entry, error) {
	idx, err := ix.Index()
	if err != nil {
		return nil, err
	}
	return idx.Files, nil
}

// IndexLinks returns every symlink under the root.
func (ix *Indexer) IndexLinks() ([]entry.Entry, error) {
	idx, err := ix.Index()
	if err != nil {
		return nil, err
	}
	return idx.Links, nil
}

// visit records child and, for directories, its subtree. A directory that
// cannot be listed is skipped along with everything below it.
func (ix *Indexer) visit(idx *Index, dir string, child iofs.DirEntry) {
	path := filepath.Join(dir, child.Name())
	mode := child.Type()

	var grandchildren []iofs.DirEntry
	if mode.IsDir() {
		var err error
		grandchildren, err = ix.fsys.ReadDir(path, -1)
		if err != nil {
			idx.Skipped++
			ix.log.Debug("skipping unreadable directory", zap.String("path", path), zap.Error(err))
			return
		}
	}

	e, err := entry.FromListing(path, mode, len(grandchildren))
	if err != nil {
		idx.Skipped++
		ix.log.Debug("skipping entry", zap.String("path", path), zap.Error(err))
		return
	}
	idx.add(e)

	for _, gc := range grandchildren {
		ix.visit(idx, path, gc)
	}
}
