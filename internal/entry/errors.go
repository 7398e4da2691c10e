package entry

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"syscall"
)

// Error kinds shared by the explorer and indexer.
var (
	ErrPathDoesNotExist = errors.New("path does not exist")
	ErrFaultyName       = errors.New("path has no final name component")
	ErrIO               = errors.New("i/o error")
	ErrNotADirectory    = errors.New("not a directory")
	ErrNotAFile         = errors.New("not a file")
)

// PathError records a failed operation on a path. Kind is one of the Err*
// sentinels; Err, if set, is the underlying OS error.
type PathError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *PathError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *PathError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WrapPathError maps an OS error to a PathError of the matching kind. A nil
// err yields nil, and an err that is already a PathError is returned as is.
func WrapPathError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PathError
	if errors.As(err, &pe) {
		return err
	}

	kind := ErrIO
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		kind = ErrPathDoesNotExist
	case errors.Is(err, syscall.ENOTDIR):
		kind = ErrNotADirectory
	}
	return &PathError{Op: op, Path: path, Kind: kind, Err: err}
}
