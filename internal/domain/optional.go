package domain

import (
	"bytes"
	"encoding/json"
)

// Optional carries a value together with an explicit presence flag.
// The zero value is absent and marshals to JSON null.
type Optional[T any] struct {
	value T
	valid bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, valid: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.valid
}

// Present reports whether the value is set.
func (o Optional[T]) Present() bool {
	return o.valid
}

// OrElse returns the value when present, fallback otherwise.
func (o Optional[T]) OrElse(fallback T) T {
	if o.valid {
		return o.value
	}
	return fallback
}

// IsZero lets encoding/json omit absent values under the omitzero tag.
func (o Optional[T]) IsZero() bool {
	return !o.valid
}

// MarshalJSON implements json.Marshaler
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	*o = Some(v)
	return nil
}
