package host

import (
	"testing"

	"staticstore/internal/identity"
	"staticstore/internal/plugin"
	"staticstore/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorld_ResolveOwner(t *testing.T) {
	w := NewWorld()
	top := w.Spawn(identity.GlobalOwner)
	child := w.Spawn(top)

	owner, ok := w.ResolveOwner(plugin.ScopeGlobal, child)
	assert.True(t, ok)
	assert.Equal(t, identity.GlobalOwner, owner)

	owner, ok = w.ResolveOwner(plugin.ScopeSelf, child)
	assert.True(t, ok)
	assert.Equal(t, child, owner)

	owner, ok = w.ResolveOwner(plugin.ScopeParent, child)
	assert.True(t, ok)
	assert.Equal(t, top, owner)

	_, ok = w.ResolveOwner(plugin.ScopeParent, top)
	assert.False(t, ok, "top-level instances have no parent")

	_, ok = w.ResolveOwner(plugin.ScopeSelf, 999)
	assert.False(t, ok)

	_, ok = w.ResolveOwner(plugin.ScopeSelf, identity.GlobalOwner)
	assert.False(t, ok)
}

func TestWorld_Accessors(t *testing.T) {
	w := NewWorld()
	inst := w.Spawn(identity.GlobalOwner)

	assert.Equal(t, 0.0, w.Variable(identity.GlobalOwner, 1))
	assert.False(t, w.Switch(inst, 1))

	require.NoError(t, w.SetVariable(inst, 3, 7.5))
	require.NoError(t, w.SetSwitch(identity.GlobalOwner, 2, true))
	assert.Equal(t, 7.5, w.Variable(inst, 3))
	assert.Equal(t, 0.0, w.Variable(identity.GlobalOwner, 3), "instance and global scopes are separate")
	assert.True(t, w.Switch(identity.GlobalOwner, 2))

	err := w.WriteAccessor(identity.Ref{Owner: inst, Kind: identity.Switch, ID: 1}, store.Number(1))
	assert.ErrorIs(t, err, ErrWrongKind)

	_, err = w.ReadAccessor(identity.Ref{Owner: 42, Kind: identity.Variable, ID: 1})
	assert.ErrorIs(t, err, ErrUnknownOwner)

	w.Despawn(inst)
	assert.Empty(t, w.Instances())
	_, err = w.ReadAccessor(identity.Ref{Owner: inst, Kind: identity.Variable, ID: 3})
	assert.ErrorIs(t, err, ErrUnknownOwner)
}

func TestWorld_SpawnWithID(t *testing.T) {
	w := NewWorld()
	require.NoError(t, w.SpawnWithID(10, identity.GlobalOwner))
	assert.Error(t, w.SpawnWithID(10, identity.GlobalOwner))
	assert.Error(t, w.SpawnWithID(identity.GlobalOwner, identity.GlobalOwner))
	assert.Equal(t, identity.OwnerID(11), w.Spawn(identity.GlobalOwner))
	assert.Equal(t, []identity.OwnerID{10, 11}, w.Instances())
}
