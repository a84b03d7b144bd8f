package hostfs

import "sync"

// Op names recorded by Recorder.
const (
	OpRead   = "read"
	OpExists = "exists"
	OpSize   = "size"
	OpMkdir  = "mkdir"
	OpWrite  = "write"
)

// Call is one recorded filesystem call.
type Call struct {
	Op   string
	Path string
}

// Recorder logs every call before delegating to the wrapped FileSystem.
type Recorder struct {
	FileSystem

	mu    sync.Mutex
	calls []Call
}

// NewRecorder wraps fs.
func NewRecorder(fs FileSystem) *Recorder { return &Recorder{FileSystem: fs} }

func (r *Recorder) record(op, path string) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Op: op, Path: path})
	r.mu.Unlock()
}

func (r *Recorder) ReadAll(path string) ([]byte, error) {
	r.record(OpRead, path)
	return r.FileSystem.ReadAll(path)
}

func (r *Recorder) Exists(path string) bool {
	r.record(OpExists, path)
	return r.FileSystem.Exists(path)
}

func (r *Recorder) SizeOf(path string) int64 {
	r.record(OpSize, path)
	return r.FileSystem.SizeOf(path)
}

func (r *Recorder) CreateDirectory(path string) error {
	r.record(OpMkdir, path)
	return r.FileSystem.CreateDirectory(path)
}

func (r *Recorder) WriteAll(path string, data []byte) error {
	r.record(OpWrite, path)
	return r.FileSystem.WriteAll(path, data)
}

// Calls returns a copy of the call log.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count returns how many calls of op were recorded.
func (r *Recorder) Count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Len returns the total number of recorded calls.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Reset clears the call log.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}
