package stategraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend(t *testing.T) {
	tests := []struct {
		name    string
		current any
		update  any
		want    []any
	}{
		{"nil current", nil, "a", []any{"a"}},
		{"single element", []any{"a"}, "b", []any{"a", "b"}},
		{"slice update", []any{"a"}, []any{"b", "c"}, []any{"a", "b", "c"}},
		{"typed slice update", []any{1}, []int{2, 3}, []any{1, 2, 3}},
		{"nil update", []any{"a"}, nil, []any{"a"}},
		{"byte slice update", []any{"a"}, []byte("ab"), []any{"a", []byte("ab")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Append(tt.current, tt.update)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppend_Associative(t *testing.T) {
	seq := []any{"x"}

	stepwise, err := Append(seq, []any{"a"})
	require.NoError(t, err)
	stepwise, err = Append(stepwise, []any{"b"})
	require.NoError(t, err)

	combined, err := Append(seq, []any{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, combined, stepwise)
}

func TestAppend_DoesNotModifyInputs(t *testing.T) {
	current := make([]any, 1, 10)
	current[0] = "a"

	out, err := Append(current, "b")
	require.NoError(t, err)

	out.([]any)[0] = "changed"
	assert.Equal(t, "a", current[0])
}

func TestReplace(t *testing.T) {
	got, err := Replace("old", "new")
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestMergeMaps(t *testing.T) {
	t.Run("keys in update win", func(t *testing.T) {
		current := map[string]any{"a": 1, "b": 2}
		got, err := MergeMaps(current, map[string]any{"b": 3, "c": 4})
		require.NoError(t, err)

		assert.Equal(t, map[string]any{"a": 1, "b": 3, "c": 4}, got)
		assert.Equal(t, map[string]any{"a": 1, "b": 2}, current)
	})

	t.Run("nil current", func(t *testing.T) {
		got, err := MergeMaps(nil, map[string]any{"a": 1})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 1}, got)
	})

	t.Run("nil update", func(t *testing.T) {
		got, err := MergeMaps(map[string]any{"a": 1}, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 1}, got)
	})

	t.Run("wrong types", func(t *testing.T) {
		_, err := MergeMaps(nil, "x")
		assert.Error(t, err)

		_, err = MergeMaps("x", map[string]any{})
		assert.Error(t, err)
	})
}

func TestTypedReducer(t *testing.T) {
	sum := TypedReducer(func(cur, upd int) int { return cur + upd })

	got, err := sum(nil, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	got, err = sum(2, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	_, err = sum("two", 3)
	assert.Error(t, err)

	_, err = sum(2, "three")
	assert.Error(t, err)
}

func TestReducerRegistry(t *testing.T) {
	reg := NewReducerRegistry()
	assert.Equal(t, []string{"append", "merge", "replace"}, reg.Names())

	reg.Register("sum", TypedReducer(func(cur, upd int) int { return cur + upd }))
	reducer, err := reg.Lookup("sum")
	require.NoError(t, err)

	got, err := reducer(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	_, err = reg.Lookup("missing")
	assert.ErrorIs(t, err, ErrUnknownReducer)
}
