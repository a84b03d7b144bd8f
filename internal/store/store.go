// Package store holds the in-memory mapping from accessor keys to scalar
// values for one plugin activation, and its serialized image.
//
// The store is owned by a single logical actor (the frame loop) and is not
// safe for concurrent use.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"staticstore/internal/identity"
)

// ErrDecode marks a persisted image that cannot be turned back into a store.
var ErrDecode = errors.New("decode store image")

// Store maps identity keys to values.
type Store struct {
	entries map[identity.Key]Value
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[identity.Key]Value)}
}

// Get returns the stored value for key, or false if it was never saved.
func (s *Store) Get(key identity.Key) (Value, bool) {
	v, ok := s.entries[key]
	return v, ok
}

// Set inserts or overwrites the value for key. It does not persist anything.
func (s *Store) Set(key identity.Key, v Value) {
	s.entries[key] = v
}

// Delete removes key. It reports whether the key was present.
func (s *Store) Delete(key identity.Key) bool {
	_, ok := s.entries[key]
	delete(s.entries, key)
	return ok
}

// ReplaceAll swaps the whole mapping for image. The store keeps its own copy.
func (s *Store) ReplaceAll(image map[identity.Key]Value) {
	entries := make(map[identity.Key]Value, len(image))
	for k, v := range image {
		entries[k] = v
	}
	s.entries = entries
}

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Keys returns the keys in sorted order.
func (s *Store) Keys() []identity.Key {
	keys := make([]identity.Key, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Snapshot returns a copy of the mapping.
func (s *Store) Snapshot() map[identity.Key]Value {
	out := make(map[identity.Key]Value, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Serialize encodes the store as a JSON object. Keys are emitted in sorted
// order, so equal stores always produce identical bytes.
func (s *Store) Serialize() ([]byte, error) {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return nil, fmt.Errorf("serialize store: %w", err)
	}
	return data, nil
}

// Deserialize decodes a persisted image. The top level must be a JSON object.
// Values other than numbers and booleans are kept as KindUnsupported and are
// rejected only when loaded into an accessor.
func Deserialize(data []byte) (*Store, error) {
	image, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return &Store{entries: image}, nil
}

// DecodeImage decodes a persisted image into a plain map.
func DecodeImage(data []byte) (map[identity.Key]Value, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: top level is not an object", ErrDecode)
	}
	image := make(map[identity.Key]Value)
	if err := json.Unmarshal(trimmed, &image); err != nil {
		if errors.Is(err, ErrDecode) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return image, nil
}
