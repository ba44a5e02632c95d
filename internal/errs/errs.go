// Package errs defines the error taxonomy shared by the merge components.
//
// Every fatal condition wraps exactly one of the sentinels below, so callers
// classify failures with errors.Is regardless of how much context was added
// on the way up.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrOutputExists         = errors.New("output exists")
	ErrEmptyTileSet         = errors.New("empty tile set")
	ErrMissingTile          = errors.New("missing tile")
	ErrMalformedBounds      = errors.New("malformed bounds")
	ErrSchemaConflict       = errors.New("schema conflict")
	ErrBoundsOverflow       = errors.New("bounds overflow")
	ErrIO                   = errors.New("i/o failure")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// IOError records a failed read or write on a tile or the output.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both ErrIO and the underlying cause.
func (e *IOError) Unwrap() []error {
	return []error{ErrIO, e.Err}
}

// IO wraps err as an IOError, or returns nil when err is nil. Errors that
// already carry a sentinel from this package are returned unchanged.
func IO(op, path string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return &IOError{Op: op, Path: path, Err: err}
}

// Classified reports whether err wraps one of the sentinels above.
func Classified(err error) bool {
	for _, s := range []error{
		ErrOutputExists, ErrEmptyTileSet, ErrMissingTile, ErrMalformedBounds,
		ErrSchemaConflict, ErrBoundsOverflow, ErrIO, ErrInvalidConfiguration,
	} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
