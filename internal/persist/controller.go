// Package persist drives the single slot file behind an in-memory store.
//
// The host offers no completion callbacks for directory creation or writes,
// so the Controller is a state machine advanced once per frame by Update. Each
// Update performs at most one filesystem action and otherwise polls observable
// state (existence, size, content) to learn whether the previous one finished.
package persist

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"staticstore/internal/hostfs"
	"staticstore/internal/logging"
	"staticstore/internal/store"
)

// State is the controller's position in the I/O cycle.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateWriting
	StateCreatingDirectory
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateReady:
		return "Ready"
	case StateWriting:
		return "Writing"
	case StateCreatingDirectory:
		return "CreatingDirectory"
	case StateFailed:
		return "Failed"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// Location names the slot file. The file lives at Dir/<Prefix><Slot>.json.
type Location struct {
	Dir    string
	Prefix string
	Slot   int
}

// Path returns the full path of the slot file.
func (l Location) Path() string {
	return filepath.Join(l.Dir, l.Prefix+strconv.Itoa(l.Slot)+".json")
}

// Stats counts controller activity since construction.
type Stats struct {
	SaveRequests   int   // RequestSave calls accepted
	Writes         int   // writes issued
	WritesFinished int   // writes observed complete
	DirCreations   int   // directory creations issued
	BytesWritten   int64 // sum of issued write sizes
	ContentPolls   int   // completion checks that had to compare content
}

// Option configures a Controller.
type Option func(*Controller)

// WithTransitionHook registers fn to be called on every state change.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(c *Controller) { c.onTransition = fn }
}

// WithDiagnostic sets the sink for the single diagnostic emitted on entering
// Failed. The default writes it to the io category logger, which is silent
// unless debug mode is on.
func WithDiagnostic(fn func(err error)) Option {
	return func(c *Controller) { c.diagnostic = fn }
}

// WithLogger replaces the io category logger, e.g. to scope it to an activation.
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// Controller owns one slot file and keeps exactly one operation in flight.
type Controller struct {
	fs    hostfs.FileSystem
	store *store.Store
	loc   Location
	path  string

	state        State
	pending      bool
	loadComplete bool
	err          error

	// In-flight write bookkeeping.
	written  []byte
	baseline int64
	timer    *logging.Timer

	stats        Stats
	onTransition func(from, to State)
	diagnostic   func(err error)
	log          *logging.Logger
}

// NewController binds a store to the slot file at loc. No I/O happens until
// the first Update.
func NewController(fs hostfs.FileSystem, st *store.Store, loc Location, opts ...Option) *Controller {
	c := &Controller{
		fs:    fs,
		store: st,
		loc:   loc,
		path:  loc.Path(),
		log:   logging.Get(logging.CategoryIO),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Path returns the slot file path.
func (c *Controller) Path() string { return c.path }

// IsFailed reports whether a fatal I/O or decode error stopped the controller.
func (c *Controller) IsFailed() bool { return c.state == StateFailed }

// Err returns the fatal error, or nil.
func (c *Controller) Err() error { return c.err }

// IsLoadComplete reports whether the initial read finished successfully.
func (c *Controller) IsLoadComplete() bool { return c.loadComplete }

// SavePending reports whether a save is waiting to be written.
func (c *Controller) SavePending() bool { return c.pending }

// Idle reports whether the controller is Ready with nothing left to write.
func (c *Controller) Idle() bool { return c.state == StateReady && !c.pending }

// Stats returns a copy of the activity counters.
func (c *Controller) Stats() Stats { return c.stats }

// RequestSave marks the store as needing a write. Repeated calls while a save
// is pending are absorbed. Ignored once Failed.
func (c *Controller) RequestSave() {
	if c.state == StateFailed {
		return
	}
	c.stats.SaveRequests++
	c.pending = true
}

// Update advances the state machine by one step.
func (c *Controller) Update() {
	switch c.state {
	case StateUninitialized:
		c.load()
	case StateReady:
		if c.pending {
			c.beginSave()
		}
	case StateCreatingDirectory:
		c.pollDirectory()
	case StateWriting:
		c.pollWrite()
	case StateFailed:
	}
}

func (c *Controller) transition(to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	c.log.Debug("state %s -> %s", from, to)
	if c.onTransition != nil {
		c.onTransition(from, to)
	}
}

// fail enters the terminal state. Failed is never left, so the diagnostic is
// emitted exactly once.
func (c *Controller) fail(err error) {
	c.err = err
	c.pending = false
	c.written = nil
	c.transition(StateFailed)
	if c.diagnostic != nil {
		c.diagnostic(err)
		return
	}
	c.log.Error("storage deactivated for %s: %v", c.path, err)
}

// backgroundErr reports a failure the filesystem observed after a start call
// already returned. Filesystems without background work never report one.
func (c *Controller) backgroundErr() error {
	if r, ok := c.fs.(interface{ Err() error }); ok {
		return r.Err()
	}
	return nil
}

func (c *Controller) load() {
	data, err := c.fs.ReadAll(c.path)
	if errors.Is(err, hostfs.ErrNotExist) {
		c.log.Info("no saved data at %s, starting empty", c.path)
		c.loadComplete = true
		c.transition(StateReady)
		return
	}
	if err != nil {
		c.fail(fmt.Errorf("read %s: %w", c.path, err))
		return
	}

	image, err := store.DecodeImage(data)
	if err != nil {
		c.fail(fmt.Errorf("load %s: %w", c.path, err))
		return
	}
	c.store.ReplaceAll(image)
	c.loadComplete = true
	c.log.Info("loaded %d entries from %s", len(image), c.path)
	c.transition(StateReady)
}

func (c *Controller) beginSave() {
	data, err := c.store.Serialize()
	if err != nil {
		c.fail(err)
		return
	}

	if !c.fs.Exists(c.loc.Dir) {
		c.baseline = c.fs.SizeOf(c.path)
		if err := c.fs.CreateDirectory(c.loc.Dir); err != nil {
			c.fail(fmt.Errorf("create directory %s: %w", c.loc.Dir, err))
			return
		}
		c.stats.DirCreations++
		c.log.Debug("creating directory %s", c.loc.Dir)
		c.transition(StateCreatingDirectory)
		return
	}

	c.baseline = c.fs.SizeOf(c.path)
	if err := c.fs.WriteAll(c.path, data); err != nil {
		c.fail(fmt.Errorf("write %s: %w", c.path, err))
		return
	}
	c.pending = false
	c.written = data
	c.stats.Writes++
	c.stats.BytesWritten += int64(len(data))
	c.timer = logging.StartTimer(logging.CategoryIO, "write "+c.path)
	c.log.Debug("writing %d bytes to %s (baseline %d)", len(data), c.path, c.baseline)
	c.transition(StateWriting)
}

func (c *Controller) pollDirectory() {
	if err := c.backgroundErr(); err != nil {
		c.fail(fmt.Errorf("create directory %s: %w", c.loc.Dir, err))
		return
	}
	if !c.fs.Exists(c.loc.Dir) {
		return
	}
	c.pending = true
	c.transition(StateReady)
}

func (c *Controller) pollWrite() {
	if err := c.backgroundErr(); err != nil {
		c.fail(fmt.Errorf("write %s: %w", c.path, err))
		return
	}
	if !c.writeComplete() {
		return
	}
	c.written = nil
	c.stats.WritesFinished++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.transition(StateReady)
}

// writeComplete applies the two-stage completion check. When the target
// length differs from the size seen before the write, size alone decides.
// Otherwise the content must match what was written.
func (c *Controller) writeComplete() bool {
	target := int64(len(c.written))
	if target != c.baseline {
		return c.fs.SizeOf(c.path) == target
	}
	c.stats.ContentPolls++
	current, err := c.fs.ReadAll(c.path)
	if err != nil {
		c.log.Debug("content poll of %s: %v", c.path, err)
		return false
	}
	return bytes.Equal(current, c.written)
}
