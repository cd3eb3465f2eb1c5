package cache

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the Source cannot produce a line at the
// requested offset.
var ErrNotFound = errors.New("cache: record not found")

// ErrMalformedEntry is returned by Put for entries not of the form
// "offset:\tpayload".
type ErrMalformedEntry struct {
	Entry string
}

func (e *ErrMalformedEntry) Error() string {
	return fmt.Sprintf("cache: malformed entry %q", e.Entry)
}
