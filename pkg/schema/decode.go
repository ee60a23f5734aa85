package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

// Decode decodes tree into out, which must be a non-nil pointer to a value
// of s.Type.
func Decode(s *Schema, tree any, out any) error {
	return Default.Decode(s, tree, out)
}

// DecodeAs decodes tree into a new T using the default registry. T may be a
// struct, a slice of structs, or any other supported type.
func DecodeAs[T any](tree any) (T, error) {
	var out T

	err := Default.DecodeValue(tree, &out)

	return out, err
}

// Unmarshal parses data and decodes it into out.
func Unmarshal(data []byte, out any) error {
	tree, err := Parse(data)
	if err != nil {
		return err
	}

	return Default.DecodeValue(tree, out)
}

// Decode decodes tree into out using s for the top level and the registry
// for nested structs.
func (r *Registry) Decode(s *Schema, tree any, out any) error {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return ErrInvalidDecodeTarget
	}

	elem := target.Elem()
	if elem.Type() != s.Type {
		return fmt.Errorf("%w: schema %s cannot decode into %s", ErrInvalidDecodeTarget, s.Type, elem.Type())
	}

	if !isObject(tree) {
		return typeMismatch("", "object", tree)
	}

	// Decode into a scratch value so a failure leaves out untouched.
	scratch := reflect.New(s.Type).Elem()

	err := r.decodeStruct("", s, tree, scratch)
	if err != nil {
		return err
	}

	elem.Set(scratch)

	return nil
}

// DecodeValue decodes tree into out, deriving schemas from out's type.
func (r *Registry) DecodeValue(tree any, out any) error {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return ErrInvalidDecodeTarget
	}

	scratch := reflect.New(target.Elem().Type()).Elem()

	err := r.decodeValue("", tree, scratch)
	if err != nil {
		return err
	}

	target.Elem().Set(scratch)

	return nil
}

func (r *Registry) decodeStruct(path string, s *Schema, tree any, dst reflect.Value) error {
	for _, field := range s.Fields {
		fieldPath := joinPath(path, field.WireName)

		value, ok := lookupMember(tree, field.WireName)
		if !ok || (value == nil && field.falseIfNo) {
			if field.Required {
				return missingField(fieldPath)
			}

			continue
		}

		err := r.decodeValue(fieldPath, value, dst.FieldByIndex(field.index))
		if err != nil {
			return err
		}
	}

	return nil
}

//nolint:cyclop,funlen // One branch per supported kind.
func (r *Registry) decodeValue(path string, tree any, dst reflect.Value) error {
	t := dst.Type()

	if elemType, ok := isOptionalType(t); ok {
		if tree == nil {
			return nil
		}

		elem := reflect.New(elemType).Elem()

		err := r.decodeValue(path, tree, elem)
		if err != nil {
			return err
		}

		setter, _ := dst.Addr().Interface().(optionalSetter)
		setter.optionalSet(elem)

		return nil
	}

	if t == timeType {
		text, ok := tree.(string)
		if !ok {
			return typeMismatch(path, "RFC 3339 timestamp", tree)
		}

		parsed, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			mismatch := typeMismatch(path, "RFC 3339 timestamp", tree)
			mismatch.Err = err

			return mismatch
		}

		dst.Set(reflect.ValueOf(parsed))

		return nil
	}

	switch t.Kind() {
	case reflect.Interface:
		if tree == nil {
			return nil
		}

		value := reflect.ValueOf(plain(tree))
		if !value.Type().AssignableTo(t) {
			return typeMismatch(path, t.String(), tree)
		}

		dst.Set(value)

		return nil

	case reflect.Pointer:
		if tree == nil {
			return nil
		}

		elem := reflect.New(t.Elem())

		err := r.decodeValue(path, tree, elem.Elem())
		if err != nil {
			return err
		}

		dst.Set(elem)

		return nil

	case reflect.Struct:
		if !isObject(tree) {
			return typeMismatch(path, "object", tree)
		}

		nested, err := r.ForType(t)
		if err != nil {
			return err
		}

		return r.decodeStruct(path, nested, tree, dst)

	case reflect.Slice:
		return r.decodeSlice(path, tree, dst)

	case reflect.Map:
		return r.decodeMap(path, tree, dst)

	case reflect.String:
		text, ok := tree.(string)
		if !ok {
			return typeMismatch(path, "string", tree)
		}

		dst.SetString(text)

		return nil

	case reflect.Bool:
		flag, ok := tree.(bool)
		if !ok {
			return typeMismatch(path, "bool", tree)
		}

		dst.SetBool(flag)

		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := toInt(tree)
		if !ok || dst.OverflowInt(n) {
			return typeMismatch(path, "integer", tree)
		}

		dst.SetInt(n)

		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := toInt(tree)
		if !ok || n < 0 || dst.OverflowUint(uint64(n)) {
			return typeMismatch(path, "unsigned integer", tree)
		}

		dst.SetUint(uint64(n))

		return nil

	case reflect.Float32, reflect.Float64:
		f, ok := toFloat(tree)
		if !ok || dst.OverflowFloat(f) {
			return typeMismatch(path, "number", tree)
		}

		dst.SetFloat(f)

		return nil

	default:
		return fmt.Errorf("%w: %s at %q", ErrUnsupportedType, t, path)
	}
}

func (r *Registry) decodeSlice(path string, tree any, dst reflect.Value) error {
	if tree == nil {
		return nil
	}

	elements, ok := tree.([]any)
	if !ok {
		return typeMismatch(path, "array", tree)
	}

	out := reflect.MakeSlice(dst.Type(), len(elements), len(elements))

	for i, element := range elements {
		err := r.decodeValue(fmt.Sprintf("%s[%d]", path, i), element, out.Index(i))
		if err != nil {
			return err
		}
	}

	dst.Set(out)

	return nil
}

func (r *Registry) decodeMap(path string, tree any, dst reflect.Value) error {
	if tree == nil {
		return nil
	}

	t := dst.Type()
	if t.Key().Kind() != reflect.String {
		return fmt.Errorf("%w: %s at %q", ErrUnsupportedType, t, path)
	}

	var keys []string

	switch object := tree.(type) {
	case map[string]any:
		keys = sortedKeys(object)
	case *Object:
		keys = object.Keys()
	default:
		return typeMismatch(path, "object", tree)
	}

	out := reflect.MakeMapWithSize(t, len(keys))

	for _, key := range keys {
		member, _ := lookupMember(tree, key)
		value := reflect.New(t.Elem()).Elem()

		err := r.decodeValue(joinPath(path, key), member, value)
		if err != nil {
			return err
		}

		out.SetMapIndex(reflect.ValueOf(key).Convert(t.Key()), value)
	}

	dst.Set(out)

	return nil
}

// toInt accepts integer and integral floating wire numbers.
func toInt(node any) (int64, bool) {
	switch n := node.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return i, true
		}

		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return 0, false
		}

		return floatToInt(f)
	case float64:
		return floatToInt(n)
	case float32:
		return floatToInt(float64(n))
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return uintToInt(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return uintToInt(n)
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f >= 0x1p63 || f < -0x1p63 {
		return 0, false
	}

	return int64(f), true
}

func uintToInt(n uint64) (int64, bool) {
	if n > math.MaxInt64 {
		return 0, false
	}

	return int64(n), true
}

func toFloat(node any) (float64, bool) {
	switch n := node.(type) {
	case json.Number:
		f, err := n.Float64()

		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		i, ok := toInt(node)

		return float64(i), ok
	}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}

	return parent + "." + name
}
