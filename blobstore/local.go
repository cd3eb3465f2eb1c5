package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/gisdb/internal/fs"
	"github.com/hupe1980/gisdb/internal/mmap"
)

const tmpSuffix = ".tmp"

// LocalStore implements BlobStore on a directory of the local file system.
type LocalStore struct {
	root string
	fs   fs.FileSystem
	mmap bool
}

// LocalOption configures a LocalStore.
type LocalOption func(*LocalStore)

// WithFileSystem replaces the file system used for all operations.
func WithFileSystem(fsys fs.FileSystem) LocalOption {
	return func(s *LocalStore) {
		if fsys != nil {
			s.fs = fsys
		}
	}
}

// WithMmap serves reads from a memory mapping that is refreshed when the
// blob grows. Mapped reads go straight to the operating system.
func WithMmap() LocalOption {
	return func(s *LocalStore) {
		s.mmap = true
	}
}

// NewLocalStore creates a LocalStore rooted at the given directory.
func NewLocalStore(root string, opts ...LocalOption) *LocalStore {
	s := &LocalStore{root: root, fs: fs.Default}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the store's directory.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open opens a blob for reading. Reads observe bytes appended after Open.
func (s *LocalStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := s.path(name)
	if s.mmap {
		m, err := mmap.Open(p)
		if err != nil {
			return nil, err
		}
		return &mappedBlob{m: m}, nil
	}

	f, err := fs.Open(s.fs, p)
	if err != nil {
		return nil, err
	}
	return &fileBlob{f: f}, nil
}

// Create creates a blob that replaces name atomically on Close.
func (s *LocalStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := s.path(name)
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}

	f, err := s.fs.OpenFile(p+tmpSuffix, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &atomicFile{f: f, fs: s.fs, tmp: p + tmpSuffix, dst: p}, nil
}

// Append opens name for appending, creating it if necessary.
func (s *LocalStore) Append(ctx context.Context, name string) (WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := fs.OpenAppend(s.fs, s.path(name))
	if err != nil {
		return nil, err
	}
	return &appendFile{f: f}, nil
}

// Put writes a blob atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.(*atomicFile).abort()
		return err
	}
	return w.Close()
}

// Delete removes a blob.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fs.Remove(s.path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List returns blobs below the root whose slash-separated name has prefix.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	var walk func(dir, rel string) error
	walk = func(dir, rel string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		entries, err := s.fs.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		for _, e := range entries {
			name := path.Join(rel, e.Name())
			if e.IsDir() {
				if err := walk(filepath.Join(dir, e.Name()), name); err != nil {
					return err
				}
				continue
			}
			if strings.HasSuffix(name, tmpSuffix) || !strings.HasPrefix(name, prefix) {
				continue
			}
			names = append(names, name)
		}
		return nil
	}

	if err := walk(s.root, ""); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

type fileBlob struct {
	f fs.File
}

func (b *fileBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, io.EOF
	}
	return b.f.ReadAt(p, off)
}

func (b *fileBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	return newSectionReader(ctx, b, off, length), nil
}

func (b *fileBlob) Size() int64 {
	fi, err := b.f.Stat()
	if err != nil {
		return 0
	}
	return fi.Size()
}

func (b *fileBlob) Close() error { return b.f.Close() }

// mappedBlob reads through a mapping that follows appends to the file.
type mappedBlob struct {
	m *mmap.File
}

func (b *mappedBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, io.EOF
	}
	return b.m.ReadAt(p, off)
}

func (b *mappedBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	return newSectionReader(ctx, b, off, length), nil
}

func (b *mappedBlob) Size() int64 {
	_, _ = b.m.Grow()
	return b.m.Len()
}

func (b *mappedBlob) Close() error { return b.m.Close() }

// atomicFile writes to a temporary file and renames it into place on Close.
type atomicFile struct {
	f    fs.File
	fs   fs.FileSystem
	tmp  string
	dst  string
	done bool
}

func (w *atomicFile) Write(p []byte) (int, error) { return w.f.Write(p) }

func (w *atomicFile) Sync() error { return w.f.Sync() }

func (w *atomicFile) Close() error {
	if w.done {
		return os.ErrClosed
	}
	w.done = true

	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		_ = w.fs.Remove(w.tmp)
		return err
	}
	if err := w.f.Close(); err != nil {
		_ = w.fs.Remove(w.tmp)
		return err
	}
	return w.fs.Rename(w.tmp, w.dst)
}

func (w *atomicFile) abort() error {
	if w.done {
		return nil
	}
	w.done = true
	_ = w.f.Close()
	return w.fs.Remove(w.tmp)
}

type appendFile struct {
	f fs.File
}

func (w *appendFile) Write(p []byte) (int, error) { return w.f.Write(p) }
func (w *appendFile) Sync() error                 { return w.f.Sync() }
func (w *appendFile) Close() error                { return w.f.Close() }
