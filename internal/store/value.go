package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ValueKind tags the dynamic type held by a Value.
type ValueKind uint8

const (
	KindNumber ValueKind = iota + 1
	KindBool
	// KindUnsupported marks a value read from a file that is neither a number
	// nor a boolean. It is kept verbatim and never fits an accessor.
	KindUnsupported
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindUnsupported:
		return "unsupported"
	default:
		return "invalid"
	}
}

// ErrNonFinite is returned when a number cannot be encoded (NaN, ±Inf).
var ErrNonFinite = errors.New("number is not finite")

// Value is a scalar stored for one accessor: a number or a boolean.
// The zero Value is invalid and never stored.
type Value struct {
	kind ValueKind
	num  float64
	flag bool
	raw  json.RawMessage
}

// Number wraps a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool wraps a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Kind returns the tag of the value.
func (v Value) Kind() ValueKind { return v.kind }

// IsValid reports whether the value can be stored and serialized.
func (v Value) IsValid() bool {
	switch v.kind {
	case KindNumber:
		return !math.IsNaN(v.num) && !math.IsInf(v.num, 0)
	case KindBool:
		return true
	}
	return false
}

// AsNumber returns the number and true if v holds a number.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsBool returns the boolean and true if v holds a boolean.
func (v Value) AsBool() (bool, bool) { return v.flag, v.kind == KindBool }

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindUnsupported:
		return string(v.raw)
	}
	return "<invalid>"
}

// MarshalJSON encodes the value as a bare JSON number or boolean.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if !v.IsValid() {
			return nil, fmt.Errorf("%w: %v", ErrNonFinite, v.num)
		}
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.flag)
	case KindUnsupported:
		return v.raw, nil
	}
	return nil, errors.New("cannot encode invalid value")
}

// UnmarshalJSON decodes a JSON number or boolean. Any other well-formed JSON
// value (string, null, array, object) becomes a KindUnsupported value so that
// one foreign entry does not invalidate the whole file.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty value", ErrDecode)
	}
	switch c := data[0]; {
	case c == 't' || c == 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("%w: %v", ErrDecode, err)
		}
		*v = Bool(b)
	case c == '-' || (c >= '0' && c <= '9'):
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("%w: %v", ErrDecode, err)
		}
		*v = Number(f)
	default:
		if !json.Valid(data) {
			return fmt.Errorf("%w: malformed value", ErrDecode)
		}
		*v = Value{kind: KindUnsupported, raw: append(json.RawMessage(nil), data...)}
	}
	return nil
}
