package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
)

// GitFS implements FileSystem over the tree of a git ref (branch, tag, or
// commit). Paths are host paths under the repository directory; a path
// such as <repo>/docs names the docs tree at ref, whatever the working
// copy holds. Submodules have irregular mode and so classify as unknown.
type GitFS struct {
	repoPath string
	ref      string

	// aliases are non-canonical spellings of repoPath seen in callers' paths
	mu      sync.RWMutex
	aliases []string
}

var _ FileSystem = (*GitFS)(nil)

// NewGitFS creates a GitFS that reads the tree of ref in the repository
// containing dir. The ref must resolve to a commit or tree.
func NewGitFS(dir, ref string) (*GitFS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	g := &GitFS{repoPath: abs, ref: ref}
	top, err := g.git("rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("find repository for %s: %w", dir, err)
	}
	g.repoPath = strings.TrimSpace(top)
	if canonical, err := filepath.EvalSymlinks(g.repoPath); err == nil {
		g.repoPath = canonical
	}

	if _, err := g.git("rev-parse", "--verify", "--quiet", ref+"^{tree}"); err != nil {
		return nil, fmt.Errorf("resolve ref %q: %w", ref, os.ErrNotExist)
	}
	return g, nil
}

// Root returns the repository directory paths are resolved against.
func (g *GitFS) Root() string {
	return g.repoPath
}

// Ref returns the ref being read.
func (g *GitFS) Ref() string {
	return g.ref
}

func (g *GitFS) git(args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", g.repoPath}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			lower := strings.ToLower(stderr)
			if strings.Contains(lower, "not a valid object name") ||
				strings.Contains(lower, "does not exist") ||
				strings.Contains(lower, "no such file or directory") ||
				strings.Contains(lower, "not a git repository") ||
				strings.Contains(lower, "needed a single revision") {
				return "", fmt.Errorf("git %s: %s: %w", args[0], stderr, os.ErrNotExist)
			}
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), stderr)
		}
		return "", err
	}
	return string(out), nil
}

// rel maps a host path to a slash-separated path inside the ref. The
// repository root maps to ".". Paths that reach the repository through a
// symlinked ancestor are accepted; components inside the repository are
// never resolved, since the working copy may disagree with the ref.
func (g *GitFS) rel(p string) (string, error) {
	p = filepath.Clean(p)
	if r, ok := relUnder(g.repoPath, p); ok {
		return r, nil
	}

	g.mu.RLock()
	for _, alias := range g.aliases {
		if r, ok := relUnder(alias, p); ok {
			g.mu.RUnlock()
			return r, nil
		}
	}
	g.mu.RUnlock()

	// Find the nearest ancestor that resolves to the repository root.
	for dir := p; ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil && resolved == g.repoPath {
			g.mu.Lock()
			g.aliases = append(g.aliases, dir)
			g.mu.Unlock()
			r, _ := relUnder(dir, p)
			return r, nil
		}
		if filepath.Dir(dir) == dir {
			return "", os.ErrNotExist
		}
	}
}

func relUnder(root, p string) (string, bool) {
	r, err := filepath.Rel(root, p)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(r), true
}

// Lstat returns metadata for the tree entry at p. Symlinks are reported as
// symlinks and never resolved.
func (g *GitFS) Lstat(p string) (iofs.FileInfo, error) {
	r, err := g.rel(p)
	if err != nil {
		return nil, &os.PathError{Op: "lstat", Path: p, Err: err}
	}
	if r == "." {
		return gitInfo{name: filepath.Base(g.repoPath), mode: iofs.ModeDir | 0o755}, nil
	}

	out, err := g.git("ls-tree", "-z", "-l", g.ref, "--", r)
	if err != nil {
		return nil, &os.PathError{Op: "lstat", Path: p, Err: err}
	}
	records := parseTree(out)
	if len(records) == 0 {
		return nil, &os.PathError{Op: "lstat", Path: p, Err: os.ErrNotExist}
	}
	return records[0].info(), nil
}

// ReadDir lists the children of the tree at p in git's tree order.
func (g *GitFS) ReadDir(p string, n int) ([]iofs.DirEntry, error) {
	r, err := g.rel(p)
	if err != nil {
		return nil, &os.PathError{Op: "readdir", Path: p, Err: err}
	}

	args := []string{"ls-tree", "-z", "-l", g.ref}
	if r != "." {
		info, err := g.Lstat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, &os.PathError{Op: "readdir", Path: p, Err: syscall.ENOTDIR}
		}
		args = append(args, "--", r+"/")
	}

	out, err := g.git(args...)
	if err != nil {
		return nil, &os.PathError{Op: "readdir", Path: p, Err: err}
	}

	records := parseTree(out)
	if n > 0 && len(records) > n {
		records = records[:n]
	}
	entries := make([]iofs.DirEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, rec)
	}
	return entries, nil
}

// Canonicalize makes p absolute and clean. Symlinks stored in the ref are
// not resolved.
func (g *GitFS) Canonicalize(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if _, err := g.rel(abs); err != nil {
		return "", &os.PathError{Op: "canonicalize", Path: p, Err: err}
	}
	return abs, nil
}

// treeRecord is one line of `git ls-tree -l` output.
type treeRecord struct {
	name string
	mode iofs.FileMode
	size int64
}

func (t treeRecord) Name() string { return t.name }
func (t treeRecord) IsDir() bool { return t.mode.IsDir() }
func (t treeRecord) Type() iofs.FileMode { return t.mode.Type() }
func (t treeRecord) Info() (iofs.FileInfo, error) { return t.info(), nil }

func (t treeRecord) info() gitInfo {
	return gitInfo{name: t.name, mode: t.mode, size: t.size}
}

// parseTree parses NUL-terminated ls-tree records of the form
// "<mode> <type> <object> <size>\t<path>".
func parseTree(out string) []treeRecord {
	var records []treeRecord
	for _, line := range strings.Split(out, "\x00") {
		meta, name, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		fields := strings.Fields(meta)
		if len(fields) < 3 {
			continue
		}

		rec := treeRecord{
			name: path.Base(name),
			mode: gitMode(fields[0]),
		}
		if len(fields) >= 4 {
			rec.size, _ = strconv.ParseInt(fields[3], 10, 64)
		}
		records = append(records, rec)
	}
	return records
}

// gitMode converts a git object mode to file mode bits.
func gitMode(s string) iofs.FileMode {
	m, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return iofs.ModeIrregular
	}
	switch m & 0o170000 {
	case 0o040000:
		return iofs.ModeDir | 0o755
	case 0o120000:
		return iofs.ModeSymlink | 0o777
	case 0o100000:
		return iofs.FileMode(m & 0o777)
	default:
		// 160000 is a gitlink (submodule commit)
		return iofs.ModeIrregular
	}
}

// gitInfo implements io/fs.FileInfo for a tree entry.
type gitInfo struct {
	name string
	mode iofs.FileMode
	size int64
}

func (i gitInfo) Name() string { return i.name }
func (i gitInfo) Size() int64 { return i.size }
func (i gitInfo) Mode() iofs.FileMode { return i.mode }
func (i gitInfo) ModTime() time.Time { return time.Time{} }
func (i gitInfo) IsDir() bool { return i.mode.IsDir() }
func (i gitInfo) Sys() interface{} { return nil }
