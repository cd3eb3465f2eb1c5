package gisdb

import (
	"errors"
	"fmt"

	"github.com/hupe1980/gisdb/blobstore"
	"github.com/hupe1980/gisdb/cache"
)

var (
	// ErrNotFound is returned when a record or backing store does not exist.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned by operations on a closed DB.
	ErrClosed = errors.New("db closed")

	// ErrReadOnly is returned when writing to a read-only backend.
	ErrReadOnly = errors.New("db is read-only")

	// ErrNoWorld is returned by spatial operations before SetWorld.
	ErrNoWorld = errors.New("world boundary not set")

	// ErrOutsideWorld reports a record located outside the world boundary.
	ErrOutsideWorld = errors.New("outside world boundary")
)

// ErrMalformedRecord indicates an input line that could not be parsed.
//
// The underlying parse error can be accessed via errors.Unwrap.
type ErrMalformedRecord struct {
	// Line is the 1-based line number in the import source.
	Line   int
	Reason error
}

func (e *ErrMalformedRecord) Error() string {
	return fmt.Sprintf("malformed record on line %d: %v", e.Line, e.Reason)
}

func (e *ErrMalformedRecord) Unwrap() error { return e.Reason }

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, cache.ErrNotFound) || errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
