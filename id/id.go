// Package id defines TypeID-based identifiers for the values this module
// mints itself: batch-check correlation ids and synchronizer dispatch ids.
// Entity ids (users, classes, nodes) come from the relational layer and stay
// plain strings; only identifiers born here get a typed prefix.
//
// IDs are K-sortable (UUIDv7-based), globally unique, and URL-safe in the
// format "prefix_suffix".
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the kind of value encoded in a TypeID.
type Prefix string

// Prefix constants.
const (
	// PrefixCheck tags batch-check correlation ids.
	PrefixCheck Prefix = "chk"

	// PrefixDispatch tags synchronizer dispatch ids used to correlate log
	// lines of one entity-change fan-out.
	PrefixDispatch Prefix = "disp"

	// PrefixStore tags generated names for cloned relationship stores.
	PrefixStore Prefix = "store"
)

// ID wraps a TypeID providing a prefix-qualified, globally unique, sortable,
// URL-safe identifier in the format "prefix_suffix".
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "chk_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// NewCheckID generates a correlation id for one batch-check item.
func NewCheckID() ID { return New(PrefixCheck) }

// NewDispatchID generates a dispatch id for one entity-change fan-out.
func NewDispatchID() ID { return New(PrefixDispatch) }

// NewStoreName generates a unique name for a cloned store.
func NewStoreName() string { return New(PrefixStore).String() }

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}
