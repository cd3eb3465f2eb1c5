package blobstore

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory BlobStore. Open handles observe later appends
// to the same name, matching LocalStore.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Open opens a blob for reading.
func (m *MemoryStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.blobs[name]; !ok {
		return nil, ErrNotFound
	}
	return &memoryBlob{store: m, name: name}, nil
}

// Create returns a writer whose content replaces name on Close.
func (m *MemoryStore) Create(_ context.Context, name string) (WritableBlob, error) {
	return &memoryWriter{store: m, name: name}, nil
}

// Append returns a writer that extends name on every Write.
func (m *MemoryStore) Append(_ context.Context, name string) (WritableBlob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blobs[name]; !ok {
		m.blobs[name] = nil
	}
	return &memoryAppender{store: m, name: name}, nil
}

// Put writes a blob atomically.
func (m *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[name] = bytes.Clone(data)
	return nil
}

// Delete removes a blob.
func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, name)
	return nil
}

// List returns the sorted names of blobs matching prefix.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

type memoryBlob struct {
	store *MemoryStore
	name  string
}

func (b *memoryBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()

	data, ok := b.store.blobs[b.name]
	if !ok {
		return 0, ErrNotFound
	}
	if off < 0 || off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *memoryBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	return newSectionReader(ctx, b, off, length), nil
}

func (b *memoryBlob) Size() int64 {
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()
	return int64(len(b.store.blobs[b.name]))
}

func (b *memoryBlob) Close() error { return nil }

type memoryWriter struct {
	store *MemoryStore
	name  string
	buf   bytes.Buffer
}

func (w *memoryWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *memoryWriter) Sync() error { return nil }

func (w *memoryWriter) Close() error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()

	w.store.blobs[w.name] = bytes.Clone(w.buf.Bytes())
	return nil
}

type memoryAppender struct {
	store *MemoryStore
	name  string
}

func (w *memoryAppender) Write(p []byte) (int, error) {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()

	w.store.blobs[w.name] = append(w.store.blobs[w.name], p...)
	return len(p), nil
}

func (w *memoryAppender) Sync() error  { return nil }
func (w *memoryAppender) Close() error { return nil }
