// Package plugin is the surface the host's command layer calls: save and load
// individual accessors, tick once per frame, and query the activation's state.
package plugin

import (
	"errors"
	"fmt"
	"io"
	"time"

	"staticstore/internal/hostfs"
	"staticstore/internal/identity"
	"staticstore/internal/logging"
	"staticstore/internal/persist"
	"staticstore/internal/store"

	"github.com/google/uuid"
)

// Result is the outcome of a Save or Load call.
type Result int

const (
	// ResultApplied means the value was stored (Save) or written back (Load).
	ResultApplied Result = iota
	// ResultDeferred means the initial load has not finished; retry on a later frame.
	ResultDeferred
	// ResultNoSuchEntry means Load found nothing saved; the accessor is unchanged.
	ResultNoSuchEntry
	// ResultDeactivated means a fatal I/O error stopped this activation.
	ResultDeactivated
	// ResultRejected means the caller's input was invalid; see the returned error.
	ResultRejected
)

func (r Result) String() string {
	switch r {
	case ResultApplied:
		return "applied"
	case ResultDeferred:
		return "deferred"
	case ResultNoSuchEntry:
		return "no-such-entry"
	case ResultDeactivated:
		return "deactivated"
	case ResultRejected:
		return "rejected"
	}
	return fmt.Sprintf("result(%d)", int(r))
}

var (
	// ErrUnresolvedOwner is returned when a scope selector names no owner.
	ErrUnresolvedOwner = errors.New("scope did not resolve to an owner")
	// ErrValueKind is returned when a stored value does not fit the accessor.
	ErrValueKind = errors.New("stored value does not match accessor kind")
)

// Accessors reads and writes the host's variables and switches.
type Accessors interface {
	ReadAccessor(ref identity.Ref) (store.Value, error)
	WriteAccessor(ref identity.Ref, v store.Value) error
}

// Options configures a Storage activation.
type Options struct {
	FS        hostfs.FileSystem
	Location  persist.Location
	Accessors Accessors
	// Resolver is needed only for the scoped calls.
	Resolver OwnerResolver
	// Debounce > 0 selects the debounced coordinator; zero forwards requests
	// on the next frame.
	Debounce time.Duration
	// OnTransition observes controller state changes.
	OnTransition func(from, to persist.State)
	// OnFatal receives the one diagnostic emitted when the activation is
	// deactivated. When nil it goes to the io category log.
	OnFatal func(err error)
}

// Storage is one plugin activation bound to one slot.
type Storage struct {
	id        string
	fs        hostfs.FileSystem
	store     *store.Store
	ctrl      *persist.Controller
	coord     persist.Coordinator
	accessors Accessors
	resolver  OwnerResolver
	log       *logging.Logger
}

// New creates an activation. Nothing is read until the first OnFrameTick.
func New(opts Options) (*Storage, error) {
	if opts.FS == nil {
		return nil, errors.New("plugin: filesystem is required")
	}
	if opts.Accessors == nil {
		return nil, errors.New("plugin: accessors are required")
	}

	id := uuid.NewString()
	s := &Storage{
		id:        id,
		fs:        opts.FS,
		store:     store.New(),
		accessors: opts.Accessors,
		resolver:  opts.Resolver,
		log:       logging.WithActivation(logging.CategoryBoot, id),
	}

	ctrlOpts := []persist.Option{persist.WithLogger(logging.WithActivation(logging.CategoryIO, id))}
	if opts.OnTransition != nil {
		ctrlOpts = append(ctrlOpts, persist.WithTransitionHook(opts.OnTransition))
	}
	if opts.OnFatal != nil {
		ctrlOpts = append(ctrlOpts, persist.WithDiagnostic(opts.OnFatal))
	}
	s.ctrl = persist.NewController(opts.FS, s.store, opts.Location, ctrlOpts...)

	if opts.Debounce > 0 {
		s.coord = persist.NewDebouncedCoordinator(s.ctrl, opts.Debounce)
	} else {
		s.coord = persist.NewImmediateCoordinator(s.ctrl)
	}

	s.log.Info("activated slot %d at %s", opts.Location.Slot, s.ctrl.Path())
	return s, nil
}

// ID returns the activation id used in logs.
func (s *Storage) ID() string { return s.id }

// Path returns the slot file path.
func (s *Storage) Path() string { return s.ctrl.Path() }

// State returns the controller state.
func (s *Storage) State() persist.State { return s.ctrl.State() }

// Stats returns the controller's activity counters.
func (s *Storage) Stats() persist.Stats { return s.ctrl.Stats() }

// Err returns the fatal error once IsFailed is true.
func (s *Storage) Err() error { return s.ctrl.Err() }

// IsFailed reports whether the activation is deactivated.
func (s *Storage) IsFailed() bool { return s.ctrl.IsFailed() }

// IsLoadComplete reports whether loads can be served.
func (s *Storage) IsLoadComplete() bool { return s.ctrl.IsLoadComplete() }

// Idle reports whether every accepted save has reached the file.
func (s *Storage) Idle() bool {
	return s.ctrl.IsLoadComplete() && s.ctrl.Idle() && !s.coord.Holding()
}

// Entries returns a copy of the in-memory store.
func (s *Storage) Entries() map[identity.Key]store.Value { return s.store.Snapshot() }

// OnFrameTick advances the coordinator and the controller by one frame.
func (s *Storage) OnFrameTick(dt time.Duration) {
	if s.ctrl.IsFailed() {
		return
	}
	s.coord.OnUpdate(dt)
	s.ctrl.Update()
}

func validate(ref identity.Ref) error {
	if !ref.Kind.Valid() {
		return fmt.Errorf("invalid accessor kind %d", int(ref.Kind))
	}
	return identity.ValidateAccessorID(ref.ID)
}

// Save copies the accessor's current value into the store and requests a write.
// Saves are deferred until the initial load finished, since the load replaces
// the whole store.
func (s *Storage) Save(ref identity.Ref) (Result, error) {
	if s.ctrl.IsFailed() {
		return ResultDeactivated, nil
	}
	if err := validate(ref); err != nil {
		return ResultRejected, err
	}
	if !s.ctrl.IsLoadComplete() {
		return ResultDeferred, nil
	}

	v, err := s.accessors.ReadAccessor(ref)
	if err != nil {
		return ResultRejected, fmt.Errorf("read %s: %w", ref, err)
	}
	if !v.IsValid() {
		return ResultRejected, fmt.Errorf("%w: %s holds %s", ErrValueKind, ref, v)
	}
	s.store.Set(ref.Key(), v)
	s.coord.RequestSave()
	s.log.Debug("saved %s = %s", ref, v)
	return ResultApplied, nil
}

// Load writes the stored value back into the accessor. A key that was never
// saved leaves the accessor unchanged.
func (s *Storage) Load(ref identity.Ref) (Result, error) {
	if s.ctrl.IsFailed() {
		return ResultDeactivated, nil
	}
	if err := validate(ref); err != nil {
		return ResultRejected, err
	}
	if !s.ctrl.IsLoadComplete() {
		return ResultDeferred, nil
	}

	v, ok := s.store.Get(ref.Key())
	if !ok {
		return ResultNoSuchEntry, nil
	}
	if want := ExpectedValueKind(ref.Kind); v.Kind() != want {
		return ResultRejected, fmt.Errorf("%w: %s expects %s, stored %s", ErrValueKind, ref, want, v.Kind())
	}
	if err := s.accessors.WriteAccessor(ref, v); err != nil {
		return ResultRejected, fmt.Errorf("write %s: %w", ref, err)
	}
	s.log.Debug("loaded %s = %s", ref, v)
	return ResultApplied, nil
}

// SaveScoped resolves scope relative to caller, then saves.
func (s *Storage) SaveScoped(scope Scope, caller identity.OwnerID, kind identity.AccessorKind, id int) (Result, error) {
	ref, res, err := s.resolve(scope, caller, kind, id)
	if err != nil || res != ResultApplied {
		return res, err
	}
	return s.Save(ref)
}

// LoadScoped resolves scope relative to caller, then loads.
func (s *Storage) LoadScoped(scope Scope, caller identity.OwnerID, kind identity.AccessorKind, id int) (Result, error) {
	ref, res, err := s.resolve(scope, caller, kind, id)
	if err != nil || res != ResultApplied {
		return res, err
	}
	return s.Load(ref)
}

func (s *Storage) resolve(scope Scope, caller identity.OwnerID, kind identity.AccessorKind, id int) (identity.Ref, Result, error) {
	if s.ctrl.IsFailed() {
		return identity.Ref{}, ResultDeactivated, nil
	}
	if scope == ScopeGlobal {
		return identity.Ref{Owner: identity.GlobalOwner, Kind: kind, ID: id}, ResultApplied, nil
	}
	if s.resolver == nil {
		return identity.Ref{}, ResultRejected, fmt.Errorf("%w: no resolver for %s", ErrUnresolvedOwner, scope)
	}
	owner, ok := s.resolver.ResolveOwner(scope, caller)
	if !ok {
		return identity.Ref{}, ResultRejected, fmt.Errorf("%w: %s of instance %d", ErrUnresolvedOwner, scope, caller)
	}
	return identity.Ref{Owner: owner, Kind: kind, ID: id}, ResultApplied, nil
}

// ExpectedValueKind returns the value kind an accessor of kind k holds.
func ExpectedValueKind(k identity.AccessorKind) store.ValueKind {
	if k == identity.Switch {
		return store.KindBool
	}
	return store.KindNumber
}

// Close releases the filesystem if it holds resources. Pending saves are not
// flushed.
func (s *Storage) Close() error {
	if c, ok := s.fs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
