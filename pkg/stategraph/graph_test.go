package stategraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNode_InvalidDeclarations(t *testing.T) {
	noop := tracking("x", nil)

	tests := []struct {
		name    string
		id      string
		fn      NodeFunc
		wantErr error
	}{
		{"empty id", "", noop, ErrEmptyName},
		{"START sentinel", START, noop, ErrReservedName},
		{"END sentinel", END, noop, ErrReservedName},
		{"nil func", "node", nil, ErrNilFunc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph(testSchema()).AddNode(tt.id, tt.fn)

			err := g.Err()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, "add_node", cfgErr.Op)
			assert.Equal(t, tt.id, cfgErr.Name)
		})
	}
}

func TestAddNode_FreeFormNames(t *testing.T) {
	v := newVisits()
	g := NewGraph(testSchema()).
		AddNode("GPT 요청", tracking("GPT 요청", v)).
		AddNode("결과 종합", tracking("결과 종합", v)).
		AddNode("end", tracking("end", v)).
		AddNode("Start", tracking("Start", v)).
		AddEdge(START, "Start").
		AddEdge("Start", "GPT 요청").
		AddEdge("GPT 요청", "결과 종합").
		AddEdge("결과 종합", "end").
		AddEdge("end", END)
	require.NoError(t, g.Err())

	cg, err := g.Compile()
	require.NoError(t, err)

	res, err := cg.Run(testCtx(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Start", "GPT 요청", "결과 종합", "end"}, res.Path)
	assert.Equal(t, 4, v.total())
}

func TestAddNode_DuplicateDetectedWithoutCompile(t *testing.T) {
	g := NewGraph(testSchema()).
		AddNode("agent", tracking("agent", nil)).
		AddNode("agent", tracking("agent", nil))

	err := g.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateNode)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "agent", cfgErr.Name)
}

func TestGraph_ErrNilWhenValid(t *testing.T) {
	g := NewGraph(testSchema()).
		AddNode("a", tracking("a", nil)).
		AddEdge(START, "a")

	assert.NoError(t, g.Err())
}

func TestAddConditionalEdge_NilRouter(t *testing.T) {
	g := NewGraph(testSchema()).
		AddNode("a", tracking("a", nil)).
		AddConditionalEdge("a", nil, nil)

	assert.ErrorIs(t, g.Err(), ErrNilFunc)
}

func TestAddConditionalEdge_CopiesRoutes(t *testing.T) {
	routes := map[string]string{"yes": "b"}

	g := NewGraph(testSchema()).
		AddNode("a", tracking("a", nil)).
		AddNode("b", tracking("b", nil)).
		AddEdge(START, "a").
		AddConditionalEdge("a", byField("decision"), routes)

	routes["yes"] = "nowhere"

	cg, err := g.Compile()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"yes": "b"}, cg.Routes("a"))
}

func TestTypedRouter(t *testing.T) {
	type choice string

	router := TypedRouter(func(_ Context, s State) choice {
		if v, _ := Get[string](s, "decision"); v == "go" {
			return "left"
		}
		return "right"
	})

	assert.Equal(t, "left", router(testCtx(), State{"decision": "go"}))
	assert.Equal(t, "right", router(testCtx(), State{}))

	var nilFn func(Context, State) choice
	assert.Nil(t, TypedRouter(nilFn))

	assert.Equal(t, map[string]string{"left": "a"}, RoutesOf(map[choice]string{"left": "a"}))
}
