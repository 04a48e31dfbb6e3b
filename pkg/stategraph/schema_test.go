package stategraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchema_DefaultReducers(t *testing.T) {
	schema, err := NewSchema(
		Field{Name: "list", Kind: KindSequence},
		Field{Name: "value"},
		Field{Name: "map", Kind: KindMapping},
	)
	require.NoError(t, err)

	merged, err := schema.Merge(State{"list": []any{"a"}, "value": 1, "map": map[string]any{"x": 1}},
		Update{"list": "b", "value": 2, "map": map[string]any{"y": 2}})
	require.NoError(t, err)

	assert.Equal(t, []any{"a", "b"}, merged["list"])
	assert.Equal(t, 2, merged["value"])
	assert.Equal(t, map[string]any{"y": 2}, merged["map"], "mapping fields replace by default")
}

func TestNewSchema_InvalidFields(t *testing.T) {
	_, err := NewSchema(Scalar("a"), Scalar(""), Scalar("a"))
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrEmptyName)
	assert.ErrorIs(t, err, ErrDuplicateField)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "new_schema", cfgErr.Op)
}

func TestMustSchema_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustSchema(Scalar("dup"), Scalar("dup"))
	})
}

func TestSchema_Fields(t *testing.T) {
	schema := MustSchema(Scalar("b"), Sequence("a"))

	fields := schema.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "b", fields[0].Name)
	assert.Equal(t, "a", fields[1].Name)
	assert.True(t, schema.Has("a"))
	assert.False(t, schema.Has("c"))
}

func TestSchema_Initialize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		state, err := testSchema().Initialize(nil)
		require.NoError(t, err)

		assert.Equal(t, []any{}, state["path"])
		assert.Nil(t, state["decision"])
		assert.Equal(t, map[string]any{}, state["meta"])
		assert.Len(t, state, 6)
	})

	t.Run("overrides merge through reducers", func(t *testing.T) {
		schema := MustSchema(
			Sequence("messages").WithDefault([]any{"system"}),
			Scalar("question"),
		)

		state, err := schema.Initialize(map[string]any{
			"messages": []string{"hello"},
			"question": "why?",
		})
		require.NoError(t, err)

		assert.Equal(t, []any{"system", "hello"}, state["messages"])
		assert.Equal(t, "why?", state["question"])
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := testSchema().Initialize(map[string]any{"nope": 1})

		var cfgErr *ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "initialize", cfgErr.Op)
		assert.Equal(t, "nope", cfgErr.Name)
		assert.ErrorIs(t, err, ErrUnknownField)
	})

	t.Run("mutable defaults are not shared between runs", func(t *testing.T) {
		schema := MustSchema(Mapping("meta").WithDefault(map[string]any{"k": "v"}))

		first, err := schema.Initialize(nil)
		require.NoError(t, err)
		first["meta"].(map[string]any)["k"] = "changed"

		second, err := schema.Initialize(nil)
		require.NoError(t, err)
		assert.Equal(t, "v", second["meta"].(map[string]any)["k"])
	})
}

func TestSchema_Merge(t *testing.T) {
	schema := testSchema()

	t.Run("absent fields untouched and inputs not modified", func(t *testing.T) {
		current := State{"path": []any{"a"}, "score": "no"}
		update := Update{"path": "b"}

		merged, err := schema.Merge(current, update)
		require.NoError(t, err)

		assert.Equal(t, []any{"a", "b"}, merged["path"])
		assert.Equal(t, "no", merged["score"])
		assert.Equal(t, []any{"a"}, current["path"])
		assert.Equal(t, Update{"path": "b"}, update)
	})

	t.Run("nil update", func(t *testing.T) {
		current := State{"score": "yes"}
		merged, err := schema.Merge(current, nil)
		require.NoError(t, err)
		assert.Equal(t, current, merged)
	})

	t.Run("unknown field", func(t *testing.T) {
		current := State{"score": "yes"}
		merged, err := schema.Merge(current, Update{"bogus": 1})
		assert.ErrorIs(t, err, ErrUnknownField)
		assert.Equal(t, current, merged)
	})

	t.Run("reducer failure", func(t *testing.T) {
		strict := MustSchema(Mapping("meta").WithReducer(MergeMaps))
		_, err := strict.Merge(State{"meta": map[string]any{}}, Update{"meta": "not a map"})

		var redErr *ReducerError
		require.True(t, errors.As(err, &redErr))
		assert.Equal(t, "meta", redErr.Field)
	})
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{"", KindScalar, false},
		{"scalar", KindScalar, false},
		{"sequence", KindSequence, false},
		{"list", KindSequence, false},
		{"mapping", KindMapping, false},
		{"map", KindMapping, false},
		{"tree", KindScalar, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKind(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "scalar", KindScalar.String())
	assert.Equal(t, "sequence", KindSequence.String())
	assert.Equal(t, "mapping", KindMapping.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
