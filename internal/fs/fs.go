package fs

import (
	"io"
	"os"
	"path/filepath"
)

// File is an open backing store or import source.
type File interface {
	io.ReadWriteCloser
	io.ReaderAt
	Sync() error
	Stat() (os.FileInfo, error)
}

// FileSystem is the part of the os package used by local stores and imports.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	MkdirAll(path string, perm os.FileMode) error
	ReadDir(name string) ([]os.DirEntry, error)
}

// OS is the host file system.
type OS struct{}

func (OS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(name, flag, perm)
}

func (OS) Remove(name string) error                     { return os.Remove(name) }
func (OS) Rename(oldpath, newpath string) error         { return os.Rename(oldpath, newpath) }
func (OS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }
func (OS) ReadDir(name string) ([]os.DirEntry, error)   { return os.ReadDir(name) }

// Default is used when no FileSystem is configured.
var Default FileSystem = OS{}

// Open opens name for reading.
func Open(fsys FileSystem, name string) (File, error) {
	return fsys.OpenFile(name, os.O_RDONLY, 0)
}

// OpenAppend opens name for appending. The file and its parent directory are
// created if missing.
func OpenAppend(fsys FileSystem, name string) (File, error) {
	if err := fsys.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return nil, err
	}
	return fsys.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
