// Package host is an in-memory stand-in for the host application's variable
// and switch subsystem: a global scope plus object instances that may have a
// parent instance.
package host

import (
	"errors"
	"fmt"
	"sort"

	"staticstore/internal/identity"
	"staticstore/internal/logging"
	"staticstore/internal/plugin"
	"staticstore/internal/store"
)

var (
	// ErrUnknownOwner is returned for accessors of instances that do not exist.
	ErrUnknownOwner = errors.New("unknown owner")
	// ErrWrongKind is returned when a value does not fit the accessor.
	ErrWrongKind = errors.New("value kind does not fit accessor")
)

// World holds accessor values for the global scope and every live instance.
type World struct {
	values  map[identity.Ref]store.Value
	parents map[identity.OwnerID]identity.OwnerID
	nextID  identity.OwnerID
}

// NewWorld returns a world with only the global scope.
func NewWorld() *World {
	return &World{
		values:  make(map[identity.Ref]store.Value),
		parents: make(map[identity.OwnerID]identity.OwnerID),
		nextID:  1,
	}
}

// Spawn creates an instance. parent is GlobalOwner for top-level instances.
func (w *World) Spawn(parent identity.OwnerID) identity.OwnerID {
	id := w.nextID
	w.nextID++
	w.parents[id] = parent
	logging.HostDebug("spawned instance %d (parent %d)", id, parent)
	return id
}

// SpawnWithID registers an instance under a fixed id, e.g. to match a host's
// existing numbering. It returns an error if the id is taken or reserved.
func (w *World) SpawnWithID(id, parent identity.OwnerID) error {
	if id.IsGlobal() {
		return fmt.Errorf("instance id %d is reserved for the global scope", id)
	}
	if _, ok := w.parents[id]; ok {
		return fmt.Errorf("instance %d already exists", id)
	}
	w.parents[id] = parent
	if id >= w.nextID {
		w.nextID = id + 1
	}
	return nil
}

// Despawn removes an instance and its accessor values.
func (w *World) Despawn(id identity.OwnerID) {
	delete(w.parents, id)
	for ref := range w.values {
		if ref.Owner == id {
			delete(w.values, ref)
		}
	}
}

// Instances returns live instance ids in ascending order.
func (w *World) Instances() []identity.OwnerID {
	ids := make([]identity.OwnerID, 0, len(w.parents))
	for id := range w.parents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (w *World) exists(owner identity.OwnerID) bool {
	if owner.IsGlobal() {
		return true
	}
	_, ok := w.parents[owner]
	return ok
}

// ResolveOwner implements plugin.OwnerResolver.
func (w *World) ResolveOwner(scope plugin.Scope, caller identity.OwnerID) (identity.OwnerID, bool) {
	switch scope {
	case plugin.ScopeGlobal:
		return identity.GlobalOwner, true
	case plugin.ScopeSelf:
		if caller.IsGlobal() || !w.exists(caller) {
			return 0, false
		}
		return caller, true
	case plugin.ScopeParent:
		parent, ok := w.parents[caller]
		if !ok || parent.IsGlobal() || !w.exists(parent) {
			return 0, false
		}
		return parent, true
	}
	return 0, false
}

// ReadAccessor implements plugin.Accessors. Unset variables read as 0 and
// unset switches as false.
func (w *World) ReadAccessor(ref identity.Ref) (store.Value, error) {
	if !w.exists(ref.Owner) {
		return store.Value{}, fmt.Errorf("%w: %d", ErrUnknownOwner, ref.Owner)
	}
	if v, ok := w.values[ref]; ok {
		return v, nil
	}
	if ref.Kind == identity.Switch {
		return store.Bool(false), nil
	}
	return store.Number(0), nil
}

// WriteAccessor implements plugin.Accessors.
func (w *World) WriteAccessor(ref identity.Ref, v store.Value) error {
	if !w.exists(ref.Owner) {
		return fmt.Errorf("%w: %d", ErrUnknownOwner, ref.Owner)
	}
	if v.Kind() != plugin.ExpectedValueKind(ref.Kind) {
		return fmt.Errorf("%w: %s cannot hold %s", ErrWrongKind, ref, v.Kind())
	}
	w.values[ref] = v
	return nil
}

// SetVariable is a convenience for WriteAccessor on a variable.
func (w *World) SetVariable(owner identity.OwnerID, id int, n float64) error {
	return w.WriteAccessor(identity.Ref{Owner: owner, Kind: identity.Variable, ID: id}, store.Number(n))
}

// Variable returns a variable's current value.
func (w *World) Variable(owner identity.OwnerID, id int) float64 {
	v, _ := w.ReadAccessor(identity.Ref{Owner: owner, Kind: identity.Variable, ID: id})
	n, _ := v.AsNumber()
	return n
}

// SetSwitch is a convenience for WriteAccessor on a switch.
func (w *World) SetSwitch(owner identity.OwnerID, id int, on bool) error {
	return w.WriteAccessor(identity.Ref{Owner: owner, Kind: identity.Switch, ID: id}, store.Bool(on))
}

// Switch returns a switch's current value.
func (w *World) Switch(owner identity.OwnerID, id int) bool {
	v, _ := w.ReadAccessor(identity.Ref{Owner: owner, Kind: identity.Switch, ID: id})
	b, _ := v.AsBool()
	return b
}
