// Package schema decodes and encodes typed models from and to the generic
// JSON tree returned by the GitHub API.
//
// A Schema is an ordered list of field descriptors derived once from a Go
// struct type. Wire names come from the `json` tag. A field is optional when
// its type is Optional[T], when it is a plain bool (absent reads as false),
// or when tagged `schema:"optional"`; every other field is required and a
// missing value fails decoding with a MissingField error.
//
// Schemas are kept in a Registry keyed by a type identifier, so resource
// modules can register their models by name and the client core can look
// them up without knowing the concrete types.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrNotStruct           = errors.New("schema type must be a struct")
	ErrDuplicateWireName   = errors.New("duplicate wire name in schema")
	ErrSchemaNameConflict  = errors.New("schema name already registered for another type")
	ErrInvalidDecodeTarget = errors.New("decode target must be a non-nil pointer")
	ErrUnsupportedType     = errors.New("unsupported field type")
)

const (
	tagJSON   = "json"
	tagSchema = "schema"
)

var timeType = reflect.TypeFor[time.Time]()

// Field describes one field of a model.
type Field struct {
	// Name is the Go field name.
	Name string
	// WireName is the JSON member name.
	WireName string
	// Type is the Go type of the field.
	Type reflect.Type
	// Required fields fail decoding when missing from the wire.
	Required bool

	index     []int
	optional  bool
	falseIfNo bool
}

// Schema is the static description of a model type.
type Schema struct {
	Name   string
	Type   reflect.Type
	Fields []Field

	byWire map[string]int
}

// Field returns the field with the given wire name.
func (s *Schema) Field(wireName string) (Field, bool) {
	idx, ok := s.byWire[wireName]
	if !ok {
		return Field{}, false
	}

	return s.Fields[idx], true
}

// WireNames returns wire names in declaration order.
func (s *Schema) WireNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		names = append(names, field.WireName)
	}

	return names
}

// Build derives a schema from a struct type. Embedded structs without a json
// name are flattened into the parent, as encoding/json does.
func Build(t reflect.Type) (*Schema, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrNotStruct, t)
	}

	s := &Schema{
		Name:   t.Name(),
		Type:   t,
		byWire: make(map[string]int),
	}

	err := collectFields(s, t, nil)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func collectFields(s *Schema, t reflect.Type, parentIndex []int) error {
	for i := range t.NumField() {
		structField := t.Field(i)

		index := make([]int, 0, len(parentIndex)+1)
		index = append(index, parentIndex...)
		index = append(index, i)

		jsonTag := structField.Tag.Get(tagJSON)
		if jsonTag == "-" {
			continue
		}

		wireName, _, _ := strings.Cut(jsonTag, ",")

		if structField.Anonymous && wireName == "" && structField.Type.Kind() == reflect.Struct {
			if _, isOptional := isOptionalType(structField.Type); !isOptional {
				err := collectFields(s, structField.Type, index)
				if err != nil {
					return err
				}

				continue
			}
		}

		if !structField.IsExported() {
			continue
		}

		if wireName == "" {
			wireName = structField.Name
		}

		field := Field{
			Name:     structField.Name,
			WireName: wireName,
			Type:     structField.Type,
			index:    index,
		}

		_, field.optional = isOptionalType(structField.Type)

		switch structField.Tag.Get(tagSchema) {
		case "optional":
			field.Required = false
		case "required":
			field.Required = true
		default:
			field.Required = !field.optional && structField.Type.Kind() != reflect.Bool
		}

		field.falseIfNo = !field.Required && structField.Type.Kind() == reflect.Bool

		if _, dup := s.byWire[wireName]; dup {
			return fmt.Errorf("%w: %q in %s", ErrDuplicateWireName, wireName, s.Type)
		}

		s.byWire[wireName] = len(s.Fields)
		s.Fields = append(s.Fields, field)
	}

	return nil
}

// Registry maps type identifiers to schemas and caches derived schemas by
// Go type. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Schema
	byType map[reflect.Type]*Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Schema),
		byType: make(map[reflect.Type]*Schema),
	}
}

// Default is the registry used by the package-level helpers.
var Default = NewRegistry()

// Register binds name to s. Registering the same name twice for the same
// type is a no-op.
func (r *Registry) Register(name string, s *Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[name]; ok {
		if existing.Type != s.Type {
			return fmt.Errorf("%w: %q (%s, %s)", ErrSchemaNameConflict, name, existing.Type, s.Type)
		}

		return nil
	}

	r.byName[name] = s
	if _, ok := r.byType[s.Type]; !ok {
		r.byType[s.Type] = s
	}

	return nil
}

// Lookup returns the schema registered under name.
func (r *Registry) Lookup(name string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byName[name]

	return s, ok
}

// Names returns every registered type identifier.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}

	return names
}

// ForType returns the schema for t, deriving and caching it on first use.
func (r *Registry) ForType(t reflect.Type) (*Schema, error) {
	r.mu.RLock()
	s, ok := r.byType[t]
	r.mu.RUnlock()

	if ok {
		return s, nil
	}

	s, err := Build(t)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byType[t]; ok {
		return existing, nil
	}

	r.byType[t] = s

	return s, nil
}

// Of returns the schema for T from the default registry.
func Of[T any]() (*Schema, error) {
	return Default.ForType(reflect.TypeFor[T]())
}

// Register derives the schema for T and registers it under name in the
// default registry.
func Register[T any](name string) (*Schema, error) {
	s, err := Of[T]()
	if err != nil {
		return nil, err
	}

	err = Default.Register(name, s)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// MustRegister is Register for package initialisation; it panics on error.
func MustRegister[T any](name string) *Schema {
	s, err := Register[T](name)
	if err != nil {
		panic(err)
	}

	return s
}

// Lookup returns the schema registered under name in the default registry.
func Lookup(name string) (*Schema, bool) {
	return Default.Lookup(name)
}
