package hostfs

import (
	"io/fs"
	"path/filepath"
	"sync"
)

// Memory is an in-memory filesystem whose operations complete immediately.
// Failure injection hooks make it usable for error-path tests.
type Memory struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool

	readErr  error
	writeErr error
	mkdirErr error
}

// NewMemory returns an empty filesystem containing only the root.
func NewMemory() *Memory {
	return &Memory{
		files: make(map[string][]byte),
		dirs:  map[string]bool{"/": true, ".": true},
	}
}

func clean(p string) string { return filepath.Clean(p) }

// Put seeds a file, creating its parent directories.
func (m *Memory) Put(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = clean(path)
	m.mkdirAllLocked(filepath.Dir(path))
	m.files[path] = append([]byte(nil), data...)
}

// File returns a copy of the file contents.
func (m *Memory) File(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[clean(path)]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// FailReads makes every ReadAll of an existing file return err.
func (m *Memory) FailReads(err error) { m.mu.Lock(); m.readErr = err; m.mu.Unlock() }

// FailWrites makes every WriteAll return err.
func (m *Memory) FailWrites(err error) { m.mu.Lock(); m.writeErr = err; m.mu.Unlock() }

// FailMkdir makes every CreateDirectory return err.
func (m *Memory) FailMkdir(err error) { m.mu.Lock(); m.mkdirErr = err; m.mu.Unlock() }

func (m *Memory) ReadAll(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[clean(path)]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
	}
	if m.readErr != nil {
		return nil, &fs.PathError{Op: "read", Path: path, Err: m.readErr}
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = clean(path)
	_, isFile := m.files[path]
	return isFile || m.dirs[path]
}

func (m *Memory) SizeOf(path string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[clean(path)]
	if !ok {
		return -1
	}
	return int64(len(data))
}

func (m *Memory) CreateDirectory(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mkdirErr != nil {
		return &fs.PathError{Op: "mkdir", Path: path, Err: m.mkdirErr}
	}
	m.mkdirAllLocked(clean(path))
	return nil
}

func (m *Memory) WriteAll(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return &fs.PathError{Op: "write", Path: path, Err: m.writeErr}
	}
	path = clean(path)
	if !m.dirs[filepath.Dir(path)] {
		return &fs.PathError{Op: "write", Path: path, Err: fs.ErrNotExist}
	}
	m.files[path] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) mkdirAllLocked(dir string) {
	for {
		m.dirs[dir] = true
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
