package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// Object is a JSON object that keeps member insertion order, so encoded
// request bodies are reproducible and follow field declaration order.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject creates an empty ordered object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Set stores value under key. A key keeps the position of its first Set.
func (o *Object) Set(key string, value any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}

	o.values[key] = value
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	value, ok := o.values[key]

	return value, ok
}

// Delete removes key.
func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}

	delete(o.values, key)

	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)

			break
		}
	}
}

// Keys returns member names in order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of members.
func (o *Object) Len() int {
	return len(o.keys)
}

// MarshalJSON writes members in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("encoding key %q: %w", key, err)
		}

		encodedValue, err := json.Marshal(o.values[key])
		if err != nil {
			return nil, fmt.Errorf("encoding member %q: %w", key, err)
		}

		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(encodedValue)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// Parse turns a JSON document into a generic tree made of map[string]any,
// []any, json.Number, string, bool and nil. An empty body yields nil.
func Parse(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var tree any

	err := decoder.Decode(&tree)
	if err != nil {
		return nil, fmt.Errorf("parsing JSON body: %w", err)
	}

	var trailing any

	err = decoder.Decode(&trailing)
	if !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}

	return tree, nil
}

// ErrTrailingData is returned by Parse when a body holds more than one
// JSON value.
var ErrTrailingData = errors.New("unexpected data after JSON value")

// lookupMember returns a member of an object-shaped tree node.
func lookupMember(node any, key string) (any, bool) {
	switch object := node.(type) {
	case map[string]any:
		value, ok := object[key]

		return value, ok
	case *Object:
		return object.Get(key)
	default:
		return nil, false
	}
}

func isObject(node any) bool {
	switch node.(type) {
	case map[string]any, *Object:
		return true
	default:
		return false
	}
}

// plain converts ordered objects back to maps so values stored in `any`
// fields look the same whether they came from Parse or Encode.
func plain(node any) any {
	switch value := node.(type) {
	case *Object:
		out := make(map[string]any, value.Len())
		for _, key := range value.keys {
			out[key] = plain(value.values[key])
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(value))
		for key, member := range value {
			out[key] = plain(member)
		}

		return out
	case []any:
		out := make([]any, len(value))
		for i, element := range value {
			out[i] = plain(element)
		}

		return out
	default:
		return node
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// describe names the JSON shape of a tree node for error messages.
func describe(node any) string {
	switch node.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "number"
	case []any:
		return "array"
	case map[string]any, *Object:
		return "object"
	default:
		return fmt.Sprintf("%T", node)
	}
}
