package stategraph

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// State is a snapshot of a run's shared state, keyed by field name.
//
// Nodes receive a State they may read freely. Writes never go through a
// State: nodes return an Update and the executor merges it through the
// schema's reducers.
type State map[string]any

// Update is the partial state a node returns: only the fields it changed.
type Update map[string]any

// Clone returns a copy of the state whose containers ([]any, map[string]any)
// are copied recursively. Leaf values are copied by assignment.
func (s State) Clone() State {
	if s == nil {
		return nil
	}
	out := make(State, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Decode copies the state into out, which must be a pointer to a struct or
// map. Struct fields match state keys through `state` tags or by
// case-insensitive name.
//
// Example:
//
//	var view struct {
//	    Question string `state:"question"`
//	    Score    string `state:"score"`
//	}
//	if err := s.Decode(&view); err != nil { ... }
func (s State) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "state",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	if err := dec.Decode(map[string]any(s)); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	return nil
}

// Get returns the value of key converted to T.
// The boolean is false if the key is missing or holds another type.
func Get[T any](s State, key string) (T, bool) {
	var zero T
	v, ok := s[key]
	if !ok || v == nil {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Items returns the elements of a sequence field that are of type T,
// in order. Elements of other types are skipped.
func Items[T any](s State, key string) []T {
	seq, ok := s[key].([]any)
	if !ok {
		return nil
	}
	out := make([]T, 0, len(seq))
	for _, item := range seq {
		if typed, ok := item.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

// Last returns the final element of a sequence field if it is of type T.
func Last[T any](s State, key string) (T, bool) {
	var zero T
	seq, ok := s[key].([]any)
	if !ok || len(seq) == 0 {
		return zero, false
	}
	typed, ok := seq[len(seq)-1].(T)
	return typed, ok
}

// toSequence converts any slice or array other than []byte into []any.
// A non-slice value becomes a one-element sequence; nil becomes empty.
func toSequence(v any) []any {
	if v == nil {
		return nil
	}
	if seq, ok := v.([]any); ok {
		return seq
	}
	// Raw bytes are one value, not a sequence of octets.
	if b, ok := v.([]byte); ok {
		return []any{b}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	default:
		return []any{v}
	}
}
