package resource

import (
	"context"
	"io"
)

// RateLimitedReader throttles an io.Reader with a Controller's read limit.
type RateLimitedReader struct {
	ctx context.Context
	r   io.Reader
	rc  *Controller
}

// NewRateLimitedReader creates a new RateLimitedReader.
func NewRateLimitedReader(ctx context.Context, r io.Reader, rc *Controller) *RateLimitedReader {
	return &RateLimitedReader{ctx: ctx, r: r, rc: rc}
}

// Read reads into p and then charges the bytes actually read.
func (r *RateLimitedReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		if werr := r.rc.WaitRead(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
