package fs

import (
	"io"
	"os"
)

// File represents an open file.
type File interface {
	io.ReadWriteCloser
	io.ReaderAt
	io.Seeker
	Name() string
	Sync() error
	Stat() (os.FileInfo, error)
}

// FileSystem abstracts file system operations for testability.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	CreateTemp(dir, pattern string) (File, error)
	Remove(name string) error
	MkdirAll(path string, perm os.FileMode) error
}

// LocalFS implements FileSystem using the local os package.
type LocalFS struct{}

func (LocalFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(name, flag, perm) //nolint:gosec // G304: path is caller-controlled
}

func (LocalFS) CreateTemp(dir, pattern string) (File, error) {
	return os.CreateTemp(dir, pattern)
}

func (LocalFS) Remove(name string) error { return os.Remove(name) }
func (LocalFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Default is the default local file system.
var Default FileSystem = LocalFS{}

// fder is implemented by *os.File.
type fder interface {
	Fd() uintptr
}

// AdviseSequential hints to the kernel that f will be read sequentially.
// It is a no-op for files without a descriptor and on platforms without
// fadvise. Errors are advisory and safe to ignore.
func AdviseSequential(f File) error {
	if ff, ok := unwrap(f).(fder); ok {
		return adviseSequential(ff.Fd())
	}
	return nil
}

// unwrap returns the innermost File of a wrapper chain.
func unwrap(f File) File {
	for {
		w, ok := f.(interface{ Unwrap() File })
		if !ok {
			return f
		}
		f = w.Unwrap()
	}
}
