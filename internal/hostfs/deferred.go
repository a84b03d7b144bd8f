package hostfs

// Deferred wraps a FileSystem so that CreateDirectory and WriteAll take effect
// only when Step is called, one stage at a time. With a positive chunk size a
// write becomes visible progressively: the file is truncated and regrown by
// chunk bytes per step, the way a slow host write is observed by a poller.
type Deferred struct {
	inner FileSystem
	chunk int
	queue []*deferredOp
}

type deferredOp struct {
	mkdir   bool
	path    string
	data    []byte
	written int
}

// NewDeferred wraps inner. chunk <= 0 applies each write in a single step.
func NewDeferred(inner FileSystem, chunk int) *Deferred {
	return &Deferred{inner: inner, chunk: chunk}
}

func (d *Deferred) ReadAll(path string) ([]byte, error) { return d.inner.ReadAll(path) }
func (d *Deferred) Exists(path string) bool             { return d.inner.Exists(path) }
func (d *Deferred) SizeOf(path string) int64            { return d.inner.SizeOf(path) }

func (d *Deferred) CreateDirectory(path string) error {
	d.queue = append(d.queue, &deferredOp{mkdir: true, path: path})
	return nil
}

func (d *Deferred) WriteAll(path string, data []byte) error {
	d.queue = append(d.queue, &deferredOp{path: path, data: append([]byte(nil), data...)})
	return nil
}

// Pending returns the number of operations not yet fully applied.
func (d *Deferred) Pending() int { return len(d.queue) }

// Step advances the oldest queued operation by one stage. It reports whether
// anything was applied.
func (d *Deferred) Step() (bool, error) {
	if len(d.queue) == 0 {
		return false, nil
	}
	op := d.queue[0]
	if op.mkdir {
		d.queue = d.queue[1:]
		return true, d.inner.CreateDirectory(op.path)
	}

	next := len(op.data)
	if d.chunk > 0 && op.written+d.chunk < next {
		next = op.written + d.chunk
	}
	op.written = next
	if op.written == len(op.data) {
		d.queue = d.queue[1:]
	}
	return true, d.inner.WriteAll(op.path, op.data[:next])
}

// Flush applies every queued operation completely.
func (d *Deferred) Flush() error {
	for {
		applied, err := d.Step()
		if err != nil {
			return err
		}
		if !applied {
			return nil
		}
	}
}
