package mmap

import (
	"errors"
	"io"
	"os"
	"sync"
)

var (
	// ErrClosed is returned when reading a closed File.
	ErrClosed = errors.New("mmap: file is closed")
	// ErrTooLarge is returned for files that do not fit the address space.
	ErrTooLarge = errors.New("mmap: file too large to map")
	// ErrInvalidOffset is returned for negative offsets.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)

// File is a read-only mapping of a file that is only ever appended to.
// A read past the mapped length remaps the file first.
type File struct {
	path string

	mu     sync.RWMutex
	data   []byte
	unmap  func([]byte) error
	closed bool
}

// Open maps the file at path into memory.
func Open(path string) (*File, error) {
	f := &File{path: path}
	if err := f.remap(); err != nil {
		return nil, err
	}
	return f, nil
}

// Len returns the mapped length in bytes.
func (f *File) Len() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return int64(len(f.data))
}

// Grow remaps the file if it has become longer than the mapping and reports
// whether it did.
func (f *File) Grow() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false, ErrClosed
	}
	fi, err := os.Stat(f.path)
	if err != nil {
		return false, err
	}
	if fi.Size() <= int64(len(f.data)) {
		return false, nil
	}
	return true, f.remap()
}

// remap replaces the mapping with one covering the whole file. The caller
// holds mu or is the only user of f.
func (f *File) remap() error {
	fh, err := os.Open(f.path)
	if err != nil {
		return err
	}
	defer fh.Close()

	fi, err := fh.Stat()
	if err != nil {
		return err
	}
	size := fi.Size()
	if int64(int(size)) != size {
		return ErrTooLarge
	}

	var (
		data  []byte
		unmap func([]byte) error
	)
	if size > 0 {
		if data, unmap, err = osMap(fh, int(size)); err != nil {
			return err
		}
	}

	old, oldUnmap := f.data, f.unmap
	f.data, f.unmap = data, unmap
	if oldUnmap != nil && old != nil {
		return oldUnmap(old)
	}
	return nil
}

// ReadAt implements io.ReaderAt.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrInvalidOffset
	}

	f.mu.RLock()
	short := !f.closed && off+int64(len(p)) > int64(len(f.data))
	f.mu.RUnlock()
	if short {
		if _, err := f.Grow(); err != nil {
			return 0, err
		}
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return 0, ErrClosed
	}
	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close unmaps the file. It is idempotent.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	data, unmap := f.data, f.unmap
	f.data, f.unmap = nil, nil
	if unmap != nil && data != nil {
		return unmap(data)
	}
	return nil
}
