package stategraph

import (
	"fmt"
	"sort"
	"sync"
)

// Reducer merges a field's current value with an incoming update.
//
// Reducers must be pure: the same inputs always produce the same output and
// neither input is modified. The executor relies on this to hand nodes
// isolated snapshots and to make runs deterministic.
type Reducer func(current, update any) (any, error)

// Replace is the default reducer for scalar and mapping fields.
// The update overwrites the current value.
func Replace(_, update any) (any, error) {
	return update, nil
}

// Append is the default reducer for sequence fields. Elements of the update
// are appended after the current elements in arrival order. A slice update
// contributes each of its elements; any other non-nil update, including a
// []byte, is appended as a single element.
//
// Append is associative: merging [a] then [b] equals merging [a, b].
func Append(current, update any) (any, error) {
	cur := toSequence(current)
	add := toSequence(update)
	out := make([]any, 0, len(cur)+len(add))
	out = append(out, cur...)
	out = append(out, add...)
	return out, nil
}

// MergeMaps merges map updates key by key; keys in the update win.
// A nil update leaves the current map unchanged.
func MergeMaps(current, update any) (any, error) {
	if update == nil {
		return current, nil
	}
	upd, ok := update.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("merge maps: update is %T, want map[string]any", update)
	}
	out := make(map[string]any)
	if current != nil {
		cur, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("merge maps: current is %T, want map[string]any", current)
		}
		for k, v := range cur {
			out[k] = v
		}
	}
	for k, v := range upd {
		out[k] = v
	}
	return out, nil
}

// TypedReducer adapts a typed merge function into a Reducer.
// A nil current value is treated as the zero value of T.
//
// Example:
//
//	sum := stategraph.TypedReducer(func(cur, upd int) int { return cur + upd })
func TypedReducer[T any](fn func(current, update T) T) Reducer {
	return func(current, update any) (any, error) {
		var cur T
		if current != nil {
			typed, ok := current.(T)
			if !ok {
				return nil, fmt.Errorf("current value is %T, want %T", current, cur)
			}
			cur = typed
		}
		upd, ok := update.(T)
		if !ok {
			return nil, fmt.Errorf("update is %T, want %T", update, cur)
		}
		return fn(cur, upd), nil
	}
}

// ReducerRegistry resolves reducers by name, used when a schema is declared
// in configuration rather than in code. It is safe for concurrent use.
type ReducerRegistry struct {
	mu       sync.RWMutex
	reducers map[string]Reducer
}

// NewReducerRegistry returns a registry preloaded with "replace", "append"
// and "merge".
func NewReducerRegistry() *ReducerRegistry {
	return &ReducerRegistry{
		reducers: map[string]Reducer{
			"replace": Replace,
			"append":  Append,
			"merge":   MergeMaps,
		},
	}
}

// Register adds or replaces a named reducer.
func (r *ReducerRegistry) Register(name string, reducer Reducer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reducers[name] = reducer
}

// Lookup returns the reducer registered under name.
func (r *ReducerRegistry) Lookup(name string) (Reducer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reducer, ok := r.reducers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReducer, name)
	}
	return reducer, nil
}

// Names returns the registered reducer names in sorted order.
func (r *ReducerRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.reducers))
	for name := range r.reducers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
