package hostfs

import (
	"context"
	"fmt"
	"sync"

	"staticstore/internal/logging"

	"golang.org/x/sync/errgroup"
)

type asyncOp struct {
	mkdir bool
	path  string
	data  []byte
}

// Async performs directory creation and writes on a background worker so the
// caller never blocks on them. Probes and reads go straight to the OS.
//
// A background failure cannot reach the caller directly; it is returned by the
// next CreateDirectory or WriteAll call instead.
type Async struct {
	OS

	ops    chan asyncOp
	group  *errgroup.Group
	cancel context.CancelFunc
	done   <-chan struct{}

	sendMu sync.Mutex
	closed bool

	errMu sync.Mutex
	err   error
}

// NewAsync starts the background worker. Close must be called to stop it.
func NewAsync(ctx context.Context) *Async {
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	a := &Async{
		ops:    make(chan asyncOp, 8),
		group:  g,
		cancel: cancel,
		done:   gctx.Done(),
	}
	g.Go(func() error { return a.run(gctx) })
	return a
}

func (a *Async) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case op, ok := <-a.ops:
			if !ok {
				return nil
			}
			a.apply(op)
		}
	}
}

func (a *Async) apply(op asyncOp) {
	var err error
	if op.mkdir {
		err = a.OS.CreateDirectory(op.path)
	} else {
		err = a.OS.WriteAll(op.path, op.data)
	}
	if err == nil {
		return
	}
	logging.IOWarn("background operation on %s failed: %v", op.path, err)
	a.errMu.Lock()
	if a.err == nil {
		a.err = err
	}
	a.errMu.Unlock()
}

// Err returns the first background failure, if any.
func (a *Async) Err() error {
	a.errMu.Lock()
	defer a.errMu.Unlock()
	return a.err
}

func (a *Async) enqueue(op asyncOp) error {
	if err := a.Err(); err != nil {
		return fmt.Errorf("earlier background operation failed: %w", err)
	}
	a.sendMu.Lock()
	defer a.sendMu.Unlock()
	if a.closed {
		return ErrClosed
	}
	// A stopped worker would leave a buffered op unapplied.
	select {
	case <-a.done:
		return ErrClosed
	default:
	}
	select {
	case a.ops <- op:
		return nil
	case <-a.done:
		return ErrClosed
	}
}

func (a *Async) CreateDirectory(path string) error {
	return a.enqueue(asyncOp{mkdir: true, path: path})
}

// WriteAll queues a write of a private copy of data.
func (a *Async) WriteAll(path string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	return a.enqueue(asyncOp{path: path, data: buf})
}

// Close lets queued operations finish, then stops the worker.
func (a *Async) Close() error {
	a.sendMu.Lock()
	if a.closed {
		a.sendMu.Unlock()
		return nil
	}
	a.closed = true
	close(a.ops)
	a.sendMu.Unlock()

	err := a.group.Wait()
	a.cancel()
	if err != nil {
		return err
	}
	return a.Err()
}
