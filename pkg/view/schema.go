package view

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapview/pkg/core"
)

// Errors returned when a query refers to fields the schema cannot serve.
var (
	ErrUnknownField   = errors.New("unknown field")
	ErrNotFilterable  = errors.New("field is not filterable")
	ErrNotSortable    = errors.New("field is not sortable")
	ErrNotNumeric     = errors.New("field is not numeric")
	ErrNotDate        = errors.New("field is not a date")
	ErrDuplicateField = errors.New("duplicate field")
)

// Field describes one accessor over records of type T.
type Field[T any] struct {
	Name       string
	Label      string
	Kind       core.Kind
	Searchable bool
	Filterable bool
	Sortable   bool
	// Values lists the allowed values of an enum field, in display order.
	Values []string

	get func(T) core.Value
}

// Value extracts the field's value from rec.
func (f Field[T]) Value(rec T) core.Value {
	return f.get(rec)
}

// Search marks the field as part of the free-text search.
func (f Field[T]) Search() Field[T] {
	f.Searchable = true
	return f
}

// Filter marks the field as usable in equality filters.
func (f Field[T]) Filter() Field[T] {
	f.Filterable = true
	return f
}

// NoSort excludes the field from sorting.
func (f Field[T]) NoSort() Field[T] {
	f.Sortable = false
	return f
}

// Column returns the rendering description of the field.
func (f Field[T]) Column() core.Column {
	return core.Column{
		Name:       f.Name,
		Label:      f.Label,
		Kind:       f.Kind,
		Searchable: f.Searchable,
		Filterable: f.Filterable,
		Sortable:   f.Sortable,
		Values:     f.Values,
	}
}

// NewField builds a field from an arbitrary value accessor.
func NewField[T any](name, label string, kind core.Kind, get func(T) core.Value) Field[T] {
	return Field[T]{Name: name, Label: label, Kind: kind, Sortable: true, get: get}
}

// Text builds a text field.
func Text[T any](name, label string, get func(T) string) Field[T] {
	return NewField(name, label, core.KindText, func(rec T) core.Value {
		return core.Text(get(rec))
	})
}

// Number builds a numeric field.
func Number[T any](name, label string, get func(T) float64) Field[T] {
	return NewField(name, label, core.KindNumber, func(rec T) core.Value {
		return core.Number(get(rec))
	})
}

// OptionalNumber builds a numeric field whose value may be absent.
func OptionalNumber[T any](name, label string, get func(T) *float64) Field[T] {
	return NewField(name, label, core.KindNumber, func(rec T) core.Value {
		return core.OptionalNumber(get(rec))
	})
}

// Date builds a date field from a date string in ISO or display format.
// Strings that cannot be parsed yield a missing value.
func Date[T any](name, label string, get func(T) string) Field[T] {
	return NewField(name, label, core.KindDate, func(rec T) core.Value {
		return core.DateString(get(rec), nil)
	})
}

// Enum builds an enum field over a string-backed sum type.
func Enum[T any, E ~string](name, label string, get func(T) E, values ...E) Field[T] {
	f := NewField(name, label, core.KindEnum, func(rec T) core.Value {
		return core.Enum(string(get(rec)))
	})
	f.Values = make([]string, len(values))
	for i, v := range values {
		f.Values[i] = string(v)
	}
	return f
}

// Bool builds a boolean field.
func Bool[T any](name, label string, get func(T) bool) Field[T] {
	return NewField(name, label, core.KindBool, func(rec T) core.Value {
		return core.Bool(get(rec))
	})
}

// Schema is the ordered set of fields of a record type.
type Schema[T any] struct {
	fields []Field[T]
	index  map[string]int
}

// NewSchema builds a schema. Field names are matched case-insensitively and
// must be unique.
func NewSchema[T any](fields ...Field[T]) (*Schema[T], error) {
	s := &Schema[T]{
		fields: make([]Field[T], 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		key := strings.ToLower(f.Name)
		if _, dup := s.index[key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateField, f.Name)
		}
		if f.get == nil {
			return nil, fmt.Errorf("field %s has no accessor", f.Name)
		}
		if f.Label == "" {
			f.Label = f.Name
		}
		s.index[key] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. It is meant for
// package-level schema declarations.
func MustSchema[T any](fields ...Field[T]) *Schema[T] {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the schema's fields in declaration order.
func (s *Schema[T]) Fields() []Field[T] {
	return slices.Clone(s.fields)
}

// Lookup returns the named field.
func (s *Schema[T]) Lookup(name string) (Field[T], error) {
	i, ok := s.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Field[T]{}, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return s.fields[i], nil
}

// SearchFields returns the fields included in free-text search.
func (s *Schema[T]) SearchFields() []Field[T] {
	var out []Field[T]
	for _, f := range s.fields {
		if f.Searchable {
			out = append(out, f)
		}
	}
	return out
}

// WithSearch returns a copy of the schema in which exactly the named fields
// are searchable.
func (s *Schema[T]) WithSearch(names ...string) (*Schema[T], error) {
	out := &Schema[T]{fields: slices.Clone(s.fields), index: s.index}
	for i := range out.fields {
		out.fields[i].Searchable = false
	}
	for _, name := range names {
		f, err := s.Lookup(name)
		if err != nil {
			return nil, err
		}
		out.fields[s.index[strings.ToLower(f.Name)]].Searchable = true
	}
	return out, nil
}

// Columns returns the rendering description of every field.
func (s *Schema[T]) Columns() []core.Column {
	out := make([]core.Column, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Column()
	}
	return out
}

// Row extracts every field value of rec in schema order.
func (s *Schema[T]) Row(rec T) []core.Value {
	out := make([]core.Value, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.get(rec)
	}
	return out
}

// numeric looks up a field that must be numeric.
func (s *Schema[T]) numeric(name string) (Field[T], error) {
	f, err := s.Lookup(name)
	if err != nil {
		return f, err
	}
	if f.Kind != core.KindNumber {
		return f, fmt.Errorf("%w: %s is %s", ErrNotNumeric, f.Name, f.Kind)
	}
	return f, nil
}

// date looks up a field that must be a date.
func (s *Schema[T]) date(name string) (Field[T], error) {
	f, err := s.Lookup(name)
	if err != nil {
		return f, err
	}
	if f.Kind != core.KindDate {
		return f, fmt.Errorf("%w: %s is %s", ErrNotDate, f.Name, f.Kind)
	}
	return f, nil
}
