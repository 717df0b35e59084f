package store

import (
	"io"
	"os"
	"time"
)

// File is the writable handle returned by CreateExclusive. Sync must
// flush file contents to stable storage before Close.
type File interface {
	io.Writer
	Sync() error
	Close() error
}

// Store abstracts the filesystem operations performed while relocating
// files, so failure paths (failed create, failed sync, vanished source)
// can be injected in tests without special privileges.
type Store interface {
	// Stat returns file metadata.
	Stat(path string) (os.FileInfo, error)

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string, perm os.FileMode) error

	// Open opens a file for reading.
	Open(path string) (io.ReadCloser, error)

	// CreateExclusive creates a new file, failing if the path already
	// exists. This is the collision guard: an existing destination is
	// never truncated or overwritten.
	CreateExclusive(path string, perm os.FileMode) (File, error)

	// Remove deletes a single file.
	Remove(path string) error

	// Chmod sets the file mode.
	Chmod(path string, mode os.FileMode) error

	// Chtimes sets access and modification times.
	Chtimes(path string, atime, mtime time.Time) error
}

// OS is the Store backed by the local filesystem.
type OS struct{}

// NewOS returns the real filesystem store.
func NewOS() *OS {
	return &OS{}
}

func (*OS) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func (*OS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (*OS) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (*OS) CreateExclusive(path string, perm os.FileMode) (File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
}

func (*OS) Remove(path string) error {
	return os.Remove(path)
}

func (*OS) Chmod(path string, mode os.FileMode) error {
	return os.Chmod(path, mode)
}

func (*OS) Chtimes(path string, atime, mtime time.Time) error {
	return os.Chtimes(path, atime, mtime)
}
