package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

// Encode turns value into a generic tree using the default registry.
func Encode(value any) (any, error) {
	return Default.Encode(value)
}

// Marshal encodes value and renders it as JSON.
func Marshal(value any) ([]byte, error) {
	tree, err := Default.Encode(value)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("marshaling encoded tree: %w", err)
	}

	return data, nil
}

// Encode turns value into a generic tree. Structs become *Object with
// members in declaration order and absent Optional fields omitted; maps
// become *Object with sorted keys.
func (r *Registry) Encode(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	tree, _, err := r.encodeValue(reflect.ValueOf(value))

	return tree, err
}

// encodeValue returns the tree for v and whether v is present. Only absent
// Optional values report false.
//
//nolint:cyclop // One branch per supported kind.
func (r *Registry) encodeValue(v reflect.Value) (any, bool, error) {
	t := v.Type()

	if _, ok := isOptionalType(t); ok {
		optional, _ := v.Interface().(optionalValue)

		inner, present := optional.optionalGet()
		if !present {
			return nil, false, nil
		}

		tree, _, err := r.encodeValue(inner)

		return tree, true, err
	}

	if t == timeType {
		stamp, _ := v.Interface().(time.Time)

		return stamp.Format(time.RFC3339Nano), true, nil
	}

	switch known := v.Interface().(type) {
	case json.Number:
		return known, true, nil
	case *Object:
		if known == nil {
			return nil, true, nil
		}

		return known, true, nil
	}

	switch t.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil, true, nil
		}

		tree, _, err := r.encodeValue(v.Elem())

		return tree, true, err

	case reflect.Struct:
		s, err := r.ForType(t)
		if err != nil {
			return nil, false, err
		}

		tree, err := r.encodeStruct(s, v)

		return tree, true, err

	case reflect.Slice, reflect.Array:
		if t.Kind() == reflect.Slice && v.IsNil() {
			return nil, true, nil
		}

		out := make([]any, v.Len())

		for i := range v.Len() {
			element, _, err := r.encodeValue(v.Index(i))
			if err != nil {
				return nil, false, err
			}

			out[i] = element
		}

		return out, true, nil

	case reflect.Map:
		if v.IsNil() {
			return nil, true, nil
		}

		if t.Key().Kind() != reflect.String {
			return nil, false, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
		}

		members := make(map[string]reflect.Value, v.Len())

		iter := v.MapRange()
		for iter.Next() {
			members[iter.Key().String()] = iter.Value()
		}

		object := NewObject()

		for _, key := range sortedKeys(members) {
			member, _, err := r.encodeValue(members[key])
			if err != nil {
				return nil, false, err
			}

			object.Set(key, member)
		}

		return object, true, nil

	case reflect.String:
		return v.String(), true, nil

	case reflect.Bool:
		return v.Bool(), true, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), true, nil

	case reflect.Float32, reflect.Float64:
		return v.Float(), true, nil

	default:
		return nil, false, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}

func (r *Registry) encodeStruct(s *Schema, v reflect.Value) (*Object, error) {
	object := NewObject()

	for _, field := range s.Fields {
		member, present, err := r.encodeValue(v.FieldByIndex(field.index))
		if err != nil {
			return nil, fmt.Errorf("encoding field %q: %w", field.WireName, err)
		}

		if !present {
			continue
		}

		object.Set(field.WireName, member)
	}

	return object, nil
}
