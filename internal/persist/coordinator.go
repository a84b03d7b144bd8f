package persist

import (
	"time"

	"staticstore/internal/logging"
)

// SaveSink receives coalesced save requests. *Controller implements it.
type SaveSink interface {
	RequestSave()
}

// Coordinator turns save requests from many call sites into controller
// requests. OnUpdate is called once per frame with the elapsed frame time.
type Coordinator interface {
	RequestSave()
	OnUpdate(dt time.Duration)
	// Holding reports whether a request has been accepted but not yet
	// forwarded to the sink.
	Holding() bool
}

// ImmediateCoordinator forwards a pending request on the next frame.
type ImmediateCoordinator struct {
	sink    SaveSink
	pending bool
}

// NewImmediateCoordinator returns a coordinator without a quiet interval.
func NewImmediateCoordinator(sink SaveSink) *ImmediateCoordinator {
	return &ImmediateCoordinator{sink: sink}
}

func (c *ImmediateCoordinator) RequestSave() { c.pending = true }

func (c *ImmediateCoordinator) OnUpdate(time.Duration) {
	if !c.pending {
		return
	}
	c.pending = false
	c.sink.RequestSave()
}

func (c *ImmediateCoordinator) Holding() bool { return c.pending }

// Debounce interval bounds.
const (
	MinDebounce = 50 * time.Millisecond
	MaxDebounce = 10 * time.Second
)

// ClampDebounce limits d to [MinDebounce, MaxDebounce].
func ClampDebounce(d time.Duration) time.Duration {
	if d < MinDebounce {
		return MinDebounce
	}
	if d > MaxDebounce {
		return MaxDebounce
	}
	return d
}

// DebouncedCoordinator forwards a request only after a quiet interval has
// passed with no new request, so a burst of saves becomes one write.
type DebouncedCoordinator struct {
	sink     SaveSink
	interval time.Duration

	armed     bool
	quiet     time.Duration
	coalesced int
}

// NewDebouncedCoordinator clamps interval into the supported range.
func NewDebouncedCoordinator(sink SaveSink, interval time.Duration) *DebouncedCoordinator {
	return &DebouncedCoordinator{sink: sink, interval: ClampDebounce(interval)}
}

// Interval returns the effective quiet interval.
func (c *DebouncedCoordinator) Interval() time.Duration { return c.interval }

// RequestSave restarts the quiet interval.
func (c *DebouncedCoordinator) RequestSave() {
	if c.armed {
		c.coalesced++
	}
	c.armed = true
	c.quiet = 0
}

func (c *DebouncedCoordinator) OnUpdate(dt time.Duration) {
	if !c.armed {
		return
	}
	c.quiet += dt
	if c.quiet < c.interval {
		return
	}
	if c.coalesced > 0 {
		logging.SaveDebug("flushing after %v quiet, %d requests coalesced", c.quiet, c.coalesced)
	}
	c.armed = false
	c.quiet = 0
	c.coalesced = 0
	c.sink.RequestSave()
}

func (c *DebouncedCoordinator) Holding() bool { return c.armed }
