package repository

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
)

// Match is the result of FindByWhere. It serializes as null when nothing
// matched, as the row itself for a single match and as an array otherwise.
type Match[T any] struct {
	items []T
}

// NewMatch wraps items, keeping their order.
func NewMatch[T any](items []T) Match[T] {
	return Match[T]{items: items}
}

// Len returns the number of matched rows.
func (m Match[T]) Len() int { return len(m.items) }

// Empty reports whether nothing matched.
func (m Match[T]) Empty() bool { return len(m.items) == 0 }

// Items returns the matched rows in id order.
func (m Match[T]) Items() []T { return m.items }

// One returns the row of a single match.
func (m Match[T]) One() (*T, bool) {
	if len(m.items) != 1 {
		return nil, false
	}
	v := m.items[0]
	return &v, true
}

func (m Match[T]) MarshalJSON() ([]byte, error) {
	switch len(m.items) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(m.items[0])
	default:
		return json.Marshal(m.items)
	}
}

// MarshalCBOR applies the same shape rules for CBOR responses.
func (m Match[T]) MarshalCBOR() ([]byte, error) {
	switch len(m.items) {
	case 0:
		return cbor.Marshal(nil)
	case 1:
		return cbor.Marshal(m.items[0])
	default:
		return cbor.Marshal(m.items)
	}
}
