package fs

import (
	"errors"
	"os"
	"sync"
)

// ErrInjected is the default error returned by injected faults.
var ErrInjected = errors.New("injected fault error")

// Fault defines specific failure behavior. Negative limits disable a fault.
type Fault struct {
	FailAfterBytes     int64 // Fail writes after this many bytes written to one file.
	FailAfterReadBytes int64 // Fail reads after this many bytes read from one file.
	FailOnSeek         bool
	FailOnClose        bool
	Err                error
}

// NoFault returns a Fault with every failure disabled.
func NoFault() Fault {
	return Fault{FailAfterBytes: -1, FailAfterReadBytes: -1}
}

// FaultyFS is a FileSystem wrapper that can inject errors into files it
// opens or creates.
type FaultyFS struct {
	FS    FileSystem
	mu    sync.Mutex
	fault Fault
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{FS: fs, fault: NoFault()}
}

// SetFault sets the fault applied to files opened from now on.
func (f *FaultyFS) SetFault(fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fault = fault
}

func (f *FaultyFS) current() Fault {
	f.mu.Lock()
	defer f.mu.Unlock()
	fault := f.fault
	if fault.Err == nil {
		fault.Err = ErrInjected
	}
	return fault
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, fs: f}, nil
}

func (f *FaultyFS) CreateTemp(dir, pattern string) (File, error) {
	file, err := f.FS.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, fs: f}, nil
}

func (f *FaultyFS) Remove(name string) error { return f.FS.Remove(name) }

func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	return f.FS.MkdirAll(path, perm)
}

// faultyFile consults the FaultyFS on every call, so faults set after the
// file was opened still apply.
type faultyFile struct {
	File
	fs      *FaultyFS
	written int64
	read    int64
}

func (ff *faultyFile) Unwrap() File { return ff.File }

func (ff *faultyFile) Write(p []byte) (int, error) {
	fault := ff.fs.current()
	if fault.FailAfterBytes >= 0 && ff.written+int64(len(p)) > fault.FailAfterBytes {
		return 0, fault.Err
	}
	n, err := ff.File.Write(p)
	ff.written += int64(n)
	return n, err
}

func (ff *faultyFile) Read(p []byte) (int, error) {
	fault := ff.fs.current()
	if fault.FailAfterReadBytes >= 0 && ff.read+int64(len(p)) > fault.FailAfterReadBytes {
		return 0, fault.Err
	}
	n, err := ff.File.Read(p)
	ff.read += int64(n)
	return n, err
}

func (ff *faultyFile) ReadAt(p []byte, off int64) (int, error) {
	fault := ff.fs.current()
	if fault.FailAfterReadBytes >= 0 && ff.read+int64(len(p)) > fault.FailAfterReadBytes {
		return 0, fault.Err
	}
	n, err := ff.File.ReadAt(p, off)
	ff.read += int64(n)
	return n, err
}

func (ff *faultyFile) Seek(offset int64, whence int) (int64, error) {
	if fault := ff.fs.current(); fault.FailOnSeek {
		return 0, fault.Err
	}
	return ff.File.Seek(offset, whence)
}

func (ff *faultyFile) Close() error {
	if fault := ff.fs.current(); fault.FailOnClose {
		_ = ff.File.Close()
		return fault.Err
	}
	return ff.File.Close()
}
