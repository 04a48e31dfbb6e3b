package stategraph

import (
	"errors"
	"fmt"
	"sort"
)

// Kind is the value type of a state field.
type Kind int

const (
	// KindScalar holds a single value. Default reducer: Replace.
	KindScalar Kind = iota
	// KindSequence holds an ordered []any. Default reducer: Append.
	KindSequence
	// KindMapping holds a map[string]any. Default reducer: Replace.
	KindMapping
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// ParseKind converts a kind name ("scalar", "sequence", "mapping") to a Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "scalar", "":
		return KindScalar, nil
	case "sequence", "list":
		return KindSequence, nil
	case "mapping", "map":
		return KindMapping, nil
	default:
		return KindScalar, fmt.Errorf("unknown field kind %q", name)
	}
}

// Field declares one state field: its kind, reducer and default.
type Field struct {
	Name    string
	Kind    Kind
	Reducer Reducer
	// Default builds the initial value. It is called once per run so
	// mutable defaults are never shared between runs.
	Default func() any
}

// Scalar declares a scalar field with the Replace reducer and a nil default.
func Scalar(name string) Field {
	return Field{Name: name, Kind: KindScalar, Reducer: Replace}
}

// Sequence declares a sequence field with the Append reducer and an empty default.
func Sequence(name string) Field {
	return Field{
		Name:    name,
		Kind:    KindSequence,
		Reducer: Append,
		Default: func() any { return []any{} },
	}
}

// Mapping declares a mapping field with the Replace reducer and an empty default.
func Mapping(name string) Field {
	return Field{
		Name:    name,
		Kind:    KindMapping,
		Reducer: Replace,
		Default: func() any { return map[string]any{} },
	}
}

// WithReducer returns a copy of the field using reducer.
func (f Field) WithReducer(reducer Reducer) Field {
	f.Reducer = reducer
	return f
}

// WithDefault returns a copy of the field whose default is v.
// Sequence and mapping defaults are copied for every run.
func (f Field) WithDefault(v any) Field {
	f.Default = func() any { return cloneValue(v) }
	return f
}

func (f Field) initial() any {
	if f.Default == nil {
		return nil
	}
	return f.Default()
}

// Schema is the static declaration of a run's state. It is immutable after
// NewSchema returns and may be shared by any number of graphs and runs.
type Schema struct {
	fields map[string]Field
	order  []string
}

// NewSchema validates the field declarations and builds a Schema.
// Fields without a reducer get their kind's default reducer.
//
// Example:
//
//	schema, err := stategraph.NewSchema(
//	    stategraph.Sequence("messages"),
//	    stategraph.Scalar("decision"),
//	    stategraph.Scalar("score"),
//	)
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{fields: make(map[string]Field, len(fields))}
	var errs []error

	for _, f := range fields {
		if f.Name == "" {
			errs = append(errs, &ConfigurationError{Op: "new_schema", Name: f.Name, Err: ErrEmptyName})
			continue
		}
		if _, exists := s.fields[f.Name]; exists {
			errs = append(errs, &ConfigurationError{Op: "new_schema", Name: f.Name, Err: ErrDuplicateField})
			continue
		}
		if f.Reducer == nil {
			if f.Kind == KindSequence {
				f.Reducer = Append
			} else {
				f.Reducer = Replace
			}
		}
		s.fields[f.Name] = f
		s.order = append(s.order, f.Name)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error.
// Intended for package-level schema declarations.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the field declarations in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.order))
	for i, name := range s.order {
		out[i] = s.fields[name]
	}
	return out
}

// Has reports whether the schema declares name.
func (s *Schema) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// Initialize builds the initial state for a run: every field takes its
// default, then overrides are merged in through each field's reducer.
// An override for an undeclared field is a ConfigurationError.
func (s *Schema) Initialize(overrides map[string]any) (State, error) {
	state := make(State, len(s.fields))
	for _, name := range s.order {
		state[name] = s.fields[name].initial()
	}

	for _, name := range sortedKeys(overrides) {
		if _, ok := s.fields[name]; !ok {
			return nil, &ConfigurationError{Op: "initialize", Name: name, Err: ErrUnknownField}
		}
	}

	return s.Merge(state, Update(overrides))
}

// Merge applies a partial update to current and returns the merged state.
// Fields absent from update are carried over unchanged. Neither argument is
// modified.
func (s *Schema) Merge(current State, update Update) (State, error) {
	out := make(State, len(current))
	for k, v := range current {
		out[k] = v
	}

	for _, name := range sortedKeys(update) {
		f, ok := s.fields[name]
		if !ok {
			return current, fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
		merged, err := f.Reducer(out[name], update[name])
		if err != nil {
			return current, &ReducerError{Field: name, Err: err}
		}
		out[name] = merged
	}

	return out, nil
}

// sortedKeys returns map keys in sorted order so merges and error
// reports are deterministic.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
