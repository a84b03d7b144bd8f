package plugin

import (
	"fmt"

	"staticstore/internal/identity"
)

// Scope selects whose accessor a command targets, relative to the calling
// instance.
type Scope int

const (
	ScopeGlobal Scope = iota
	ScopeSelf
	ScopeParent
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeSelf:
		return "self"
	case ScopeParent:
		return "parent"
	}
	return fmt.Sprintf("scope(%d)", int(s))
}

// ParseScope accepts "global", "self" and "parent".
func ParseScope(s string) (Scope, error) {
	switch s {
	case "global", "common":
		return ScopeGlobal, nil
	case "self":
		return ScopeSelf, nil
	case "parent":
		return ScopeParent, nil
	}
	return 0, fmt.Errorf("unknown scope %q", s)
}

// OwnerResolver maps a scope selector and calling instance to a concrete owner.
// It reports false when the selector does not resolve (e.g. no parent).
type OwnerResolver interface {
	ResolveOwner(scope Scope, caller identity.OwnerID) (identity.OwnerID, bool)
}
