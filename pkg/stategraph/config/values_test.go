package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValues_String(t *testing.T) {
	v := NewValues(map[string]any{"name": "grade", "count": 3})

	assert.Equal(t, "grade", v.String("name", "default"))
	assert.Equal(t, "default", v.String("count", "default"))
	assert.Equal(t, "default", v.String("missing", "default"))
}

func TestValues_Int(t *testing.T) {
	v := NewValues(map[string]any{
		"int":      5,
		"int64":    int64(6),
		"float":    7.0,
		"fraction": 7.5,
		"string":   "8",
	})

	tests := []struct {
		key  string
		want int
	}{
		{"int", 5},
		{"int64", 6},
		{"float", 7},
		{"fraction", -1},
		{"string", -1},
		{"missing", -1},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Int(tt.key, -1))
		})
	}
}

func TestValues_Bool(t *testing.T) {
	v := NewValues(map[string]any{"on": true, "text": "true"})

	assert.True(t, v.Bool("on", false))
	assert.False(t, v.Bool("text", false))
	assert.True(t, v.Bool("missing", true))
}

func TestValues_Duration(t *testing.T) {
	v := NewValues(map[string]any{
		"string":   "1m30s",
		"seconds":  2,
		"float":    1.5,
		"duration": 3 * time.Second,
		"invalid":  "later",
	})

	assert.Equal(t, 90*time.Second, v.Duration("string", 0))
	assert.Equal(t, 2*time.Second, v.Duration("seconds", 0))
	assert.Equal(t, 1500*time.Millisecond, v.Duration("float", 0))
	assert.Equal(t, 3*time.Second, v.Duration("duration", 0))
	assert.Equal(t, time.Minute, v.Duration("invalid", time.Minute))
}

func TestValues_StringSlice(t *testing.T) {
	v := NewValues(map[string]any{
		"typed":  []string{"a", "b"},
		"any":    []any{"c", "d"},
		"mixed":  []any{"e", 1},
		"scalar": "f",
	})

	def := []string{"default"}
	assert.Equal(t, []string{"a", "b"}, v.StringSlice("typed", def))
	assert.Equal(t, []string{"c", "d"}, v.StringSlice("any", def))
	assert.Equal(t, def, v.StringSlice("mixed", def))
	assert.Equal(t, def, v.StringSlice("scalar", def))
}

func TestValues_NilMap(t *testing.T) {
	v := NewValues(nil)
	assert.False(t, v.Has("anything"))
	assert.Equal(t, "x", v.String("anything", "x"))
}
