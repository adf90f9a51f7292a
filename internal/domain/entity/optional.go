package entity

import (
	"bytes"
	"encoding/json"
)

// Optional tracks presence of a field in a partial update.
// Zero value means "not supplied"; Null means "explicitly cleared".
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: v} }

func Null[T any]() Optional[T] { return Optional[T]{Set: true, Null: true} }

// IsZero reports an absent field, so `omitzero` drops it when encoding.
func (o Optional[T]) IsZero() bool { return !o.Set }

// Ptr returns nil when not set or null, else a pointer to a copy of the value.
func (o Optional[T]) Ptr() *T {
	if !o.Set || o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// UnmarshalJSON is only invoked for keys present in the payload, so absent keys stay unset.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(b, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
