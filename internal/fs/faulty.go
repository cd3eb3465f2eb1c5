package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrInjected is the error returned by a Fault without its own Err.
var ErrInjected = errors.New("fs: injected fault")

// Fault describes how operations on matching files fail.
type Fault struct {
	FailOnOpen bool
	// FailAfterBytes fails writes once this many bytes were written to the
	// file. Negative disables the limit.
	FailAfterBytes int64
	FailOnRead     bool
	FailOnSync     bool
	FailOnClose    bool
	Err            error
}

func (f Fault) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

// NoFault never fails.
var NoFault = Fault{FailAfterBytes: -1}

// FaultyFS wraps a FileSystem and injects errors for files whose path
// contains a rule's pattern.
type FaultyFS struct {
	fs    FileSystem
	mu    sync.Mutex
	rules map[string]Fault
}

// NewFaultyFS wraps fs, or Default if nil.
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{fs: fs, rules: make(map[string]Fault)}
}

// AddRule installs fault for paths containing pattern. Files opened before
// the call keep the fault they were opened with.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[pattern] = fault
}

// ClearRules removes every rule.
func (f *FaultyFS) ClearRules() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.rules)
}

func (f *FaultyFS) faultFor(name string) Fault {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Longest matching pattern wins.
	fault, best := NoFault, -1
	for pattern, rule := range f.rules {
		if strings.Contains(name, pattern) && len(pattern) > best {
			fault, best = rule, len(pattern)
		}
	}
	return fault
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	fault := f.faultFor(name)
	if fault.FailOnOpen {
		return nil, &os.PathError{Op: "open", Path: name, Err: fault.err()}
	}

	file, err := f.fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, fault: fault}, nil
}

func (f *FaultyFS) Remove(name string) error                     { return f.fs.Remove(name) }
func (f *FaultyFS) Rename(oldpath, newpath string) error         { return f.fs.Rename(oldpath, newpath) }
func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error { return f.fs.MkdirAll(path, perm) }
func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error)   { return f.fs.ReadDir(name) }

type faultyFile struct {
	File
	fault   Fault
	mu      sync.Mutex
	written int64
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if ff.fault.FailAfterBytes >= 0 && ff.written+int64(len(p)) > ff.fault.FailAfterBytes {
		return 0, ff.fault.err()
	}

	n, err := ff.File.Write(p)
	ff.written += int64(n)
	return n, err
}

func (ff *faultyFile) Read(p []byte) (int, error) {
	if ff.fault.FailOnRead {
		return 0, ff.fault.err()
	}
	return ff.File.Read(p)
}

func (ff *faultyFile) ReadAt(p []byte, off int64) (int, error) {
	if ff.fault.FailOnRead {
		return 0, ff.fault.err()
	}
	return ff.File.ReadAt(p, off)
}

func (ff *faultyFile) Sync() error {
	if ff.fault.FailOnSync {
		return ff.fault.err()
	}
	return ff.File.Sync()
}

func (ff *faultyFile) Close() error {
	if ff.fault.FailOnClose {
		_ = ff.File.Close()
		return ff.fault.err()
	}
	return ff.File.Close()
}
