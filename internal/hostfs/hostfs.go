// Package hostfs models the host's file API. Reads and probes are synchronous.
// CreateDirectory and WriteAll only start an operation; its effect may become
// visible on a later poll, and no completion callback exists.
package hostfs

import (
	"errors"
	"io/fs"
	"os"
)

// ErrNotExist is matched (errors.Is) by ReadAll on a missing file.
var ErrNotExist = fs.ErrNotExist

// ErrClosed is returned by operations on a closed filesystem.
var ErrClosed = errors.New("filesystem closed")

// FileSystem is the set of host calls the store consumes.
type FileSystem interface {
	// ReadAll returns the full contents of path, or an error matching ErrNotExist.
	ReadAll(path string) ([]byte, error)
	// Exists reports whether a file or directory is visible at path.
	Exists(path string) bool
	// SizeOf returns the current size of the file at path, or -1 if there is none.
	SizeOf(path string) int64
	// CreateDirectory starts creating path and its parents.
	CreateDirectory(path string) error
	// WriteAll starts replacing the contents of path with data.
	WriteAll(path string, data []byte) error
}

// OS is the synchronous operating-system filesystem. Its starts complete
// before returning, which the polling logic treats as an immediate completion.
type OS struct{}

func (OS) ReadAll(path string) ([]byte, error) { return os.ReadFile(path) }

func (OS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OS) SizeOf(path string) int64 {
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return -1
	}
	return st.Size()
}

func (OS) CreateDirectory(path string) error { return os.MkdirAll(path, 0755) }

func (OS) WriteAll(path string, data []byte) error { return os.WriteFile(path, data, 0644) }
