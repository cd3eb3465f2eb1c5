package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations return an error satisfying errors.Is(err, ErrNotFound).
var ErrNotFound = os.ErrNotExist

// BlobStore stores named blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create creates or truncates a blob for writing. The blob becomes
	// visible when the returned writer is closed.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a whole blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of blobs starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Appender is implemented by stores that can extend an existing blob in place.
type Appender interface {
	// Append opens name for appending, creating it if necessary. Bytes
	// written are visible to readers after Sync.
	Append(ctx context.Context, name string) (WritableBlob, error)
}

// Blob is a read handle to a blob.
type Blob interface {
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange streams length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Size returns the current size of the blob in bytes.
	Size() int64
	Close() error
}

// WritableBlob is a write handle to a blob.
type WritableBlob interface {
	io.Writer
	// Sync flushes written bytes to durable storage where supported.
	Sync() error
	Close() error
}

// Copy streams the blob src in dst under name and returns the bytes written.
func Copy(ctx context.Context, dst BlobStore, name string, src Blob) (int64, error) {
	r, err := src.ReadRange(ctx, 0, src.Size())
	if err != nil {
		return 0, fmt.Errorf("blobstore: read source: %w", err)
	}
	defer r.Close()

	w, err := dst.Create(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("blobstore: create %s: %w", name, err)
	}

	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return n, fmt.Errorf("blobstore: copy %s: %w", name, err)
	}

	if err := w.Close(); err != nil {
		return n, fmt.Errorf("blobstore: commit %s: %w", name, err)
	}
	return n, nil
}

type readerAt interface {
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
}

// sectionReader streams a blob range through ReadAt.
type sectionReader struct {
	ctx   context.Context
	blob  readerAt
	off   int64
	limit int64
}

func newSectionReader(ctx context.Context, b readerAt, off, length int64) io.ReadCloser {
	return io.NopCloser(&sectionReader{ctx: ctx, blob: b, off: off, limit: off + length})
}

func (r *sectionReader) Read(p []byte) (int, error) {
	if r.off >= r.limit {
		return 0, io.EOF
	}
	if remaining := r.limit - r.off; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}
