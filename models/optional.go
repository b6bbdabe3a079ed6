package models

import "encoding/json"

// Optional is a tri-state JSON field: absent, explicit null, or a value.
// The zero value means "absent" and is skipped by json's omitzero.
type Optional[T any] struct {
	Present bool
	Value   *T
}

// Set returns an Optional carrying v.
func Set[T any](v T) Optional[T] {
	return Optional[T]{Present: true, Value: &v}
}

// Null returns an Optional carrying an explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{Present: true}
}

// IsZero reports whether the field was absent. Used by omitzero.
func (o Optional[T]) IsZero() bool { return !o.Present }

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Present = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}
