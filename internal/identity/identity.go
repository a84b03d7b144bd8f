// Package identity encodes accessor identities into comparable store keys.
//
// A key is the triple (owner, kind, accessor id) rendered as decimal integers
// joined by commas. Every field is an integer, so the comma can never appear
// inside a field and two distinct triples never produce the same key.
package identity

import (
	"errors"
	"fmt"
	"strconv"
)

// OwnerID identifies the scope that owns an accessor.
type OwnerID int64

// GlobalOwner is the reserved owner for common (non-instance) accessors.
const GlobalOwner OwnerID = 0

// IsGlobal reports whether the owner is the common scope.
func (o OwnerID) IsGlobal() bool { return o == GlobalOwner }

// AccessorKind distinguishes variables from switches.
type AccessorKind int

const (
	Variable AccessorKind = iota
	Switch
)

// String returns the lowercase name of the kind.
func (k AccessorKind) String() string {
	switch k {
	case Variable:
		return "variable"
	case Switch:
		return "switch"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Valid reports whether k is a known kind.
func (k AccessorKind) Valid() bool {
	return k == Variable || k == Switch
}

// ParseKind maps "variable"/"var"/"v" and "switch"/"sw"/"s" to a kind.
func ParseKind(s string) (AccessorKind, error) {
	switch s {
	case "variable", "var", "v":
		return Variable, nil
	case "switch", "sw", "s":
		return Switch, nil
	}
	return 0, fmt.Errorf("unknown accessor kind %q", s)
}

// ErrInvalidAccessorID is returned for non-positive accessor ids.
var ErrInvalidAccessorID = errors.New("accessor id must be positive")

// Key is the encoded identity of one accessor.
type Key string

// Encode builds the key for (owner, kind, id). It is a pure function and does
// not validate its input; callers reject bad ids with ValidateAccessorID first.
func Encode(owner OwnerID, kind AccessorKind, id int) Key {
	buf := make([]byte, 0, 24)
	buf = strconv.AppendInt(buf, int64(owner), 10)
	buf = append(buf, ',')
	buf = strconv.AppendInt(buf, int64(kind), 10)
	buf = append(buf, ',')
	buf = strconv.AppendInt(buf, int64(id), 10)
	return Key(buf)
}

// ValidateAccessorID rejects ids that cannot name a variable or switch.
func ValidateAccessorID(id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidAccessorID, id)
	}
	return nil
}

// Ref bundles the three parts of an identity.
type Ref struct {
	Owner OwnerID
	Kind  AccessorKind
	ID    int
}

// Key encodes the reference.
func (r Ref) Key() Key { return Encode(r.Owner, r.Kind, r.ID) }

func (r Ref) String() string {
	return fmt.Sprintf("%s %d (owner %d)", r.Kind, r.ID, r.Owner)
}
