package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Optional holds a field value that may be absent from the wire. An absent
// Optional is distinct from a present zero value: Some("") is present,
// Absent[string]() is not.
type Optional[T any] struct {
	value   T
	present bool
}

// Some returns a present Optional holding value.
func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, present: true}
}

// Absent returns an Optional with no value.
func Absent[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

// Present reports whether a value was provided.
func (o Optional[T]) Present() bool {
	return o.present
}

// OrElse returns the value if present, otherwise fallback.
func (o Optional[T]) OrElse(fallback T) T {
	if o.present {
		return o.value
	}

	return fallback
}

// IsZero lets encoding/json drop absent values from `omitzero` fields.
func (o Optional[T]) IsZero() bool {
	return !o.present
}

// String formats the value, or "<absent>".
func (o Optional[T]) String() string {
	if !o.present {
		return "<absent>"
	}

	return fmt.Sprint(o.value)
}

// MarshalJSON encodes the value, or null when absent.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}

	data, err := json.Marshal(o.value)
	if err != nil {
		return nil, fmt.Errorf("marshaling optional value: %w", err)
	}

	return data, nil
}

// UnmarshalJSON treats null as absent.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Optional[T]{}

		return nil
	}

	var value T

	err := json.Unmarshal(data, &value)
	if err != nil {
		return fmt.Errorf("unmarshaling optional value: %w", err)
	}

	*o = Some(value)

	return nil
}

// MarshalYAML encodes the value, or null when absent.
func (o Optional[T]) MarshalYAML() (interface{}, error) {
	if !o.present {
		return nil, nil
	}

	return o.value, nil
}

// optionalValue is implemented by every Optional instantiation so the codec
// can handle them without knowing T.
type optionalValue interface {
	optionalElem() reflect.Type
	optionalGet() (reflect.Value, bool)
}

type optionalSetter interface {
	optionalSet(value reflect.Value)
}

func (o Optional[T]) optionalElem() reflect.Type {
	return reflect.TypeFor[T]()
}

func (o Optional[T]) optionalGet() (reflect.Value, bool) {
	return reflect.ValueOf(&o.value).Elem(), o.present
}

func (o *Optional[T]) optionalSet(value reflect.Value) {
	o.value, _ = value.Interface().(T)
	o.present = true
}

var (
	optionalValueType  = reflect.TypeFor[optionalValue]()
	optionalSetterType = reflect.TypeFor[optionalSetter]()
)

// isOptionalType reports whether t is an Optional instantiation and returns
// its element type.
func isOptionalType(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Struct || !t.Implements(optionalValueType) || !reflect.PointerTo(t).Implements(optionalSetterType) {
		return nil, false
	}

	zero, _ := reflect.Zero(t).Interface().(optionalValue)

	return zero.optionalElem(), true
}
