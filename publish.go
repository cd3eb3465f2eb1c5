package gisdb

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/gisdb/blobstore"
	"github.com/hupe1980/gisdb/resource"
)

// Publish copies the backing store to name in dst. Reads are throttled by
// the resource controller given to Open, if any.
func (db *DB) Publish(ctx context.Context, dst blobstore.BlobStore, name string) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return 0, ErrClosed
	}
	if db.writer != nil {
		if err := db.writer.Sync(); err != nil {
			return 0, fmt.Errorf("gisdb: publish %s: %w", name, err)
		}
	}

	n, err := blobstore.Copy(ctx, dst, name, &throttledBlob{Blob: db.blob, rc: db.opts.rc})
	if err != nil {
		return n, fmt.Errorf("gisdb: publish %s: %w", name, err)
	}
	db.logger.InfoContext(ctx, "published backing store", "destination", name, "bytes", n)
	return n, nil
}

type throttledBlob struct {
	blobstore.Blob
	rc *resource.Controller
}

func (b *throttledBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	rc, err := b.Blob.ReadRange(ctx, off, length)
	if err != nil {
		return nil, err
	}
	return struct {
		io.Reader
		io.Closer
	}{resource.NewRateLimitedReader(ctx, rc, b.rc), rc}, nil
}
