package stategraph

import (
	"errors"
	"sync"
)

// conditionalEdge is a routing function plus its optional route map.
type conditionalEdge struct {
	router RouterFunc
	routes map[string]string
}

// Graph is a mutable builder for creating execution graphs.
// Use NewGraph to create a new graph, then chain AddNode, AddEdge,
// AddConditionalEdge and SetEntry calls to define the workflow.
//
// Nodes and edges live in flat registries keyed by name, so cycles need no
// special handling. Invalid declarations are recorded as ConfigurationErrors
// as soon as they are made (see Err) and reported again by Compile.
//
// Graph is NOT thread-safe during building. Use a single goroutine
// to construct the graph, then call Compile() to create an immutable
// CompiledGraph that can be safely shared.
//
// Example:
//
//	graph := stategraph.NewGraph(schema).
//	    AddNode("agent", agent).
//	    AddNode("retrieve", retrieve).
//	    AddEdge(stategraph.START, "agent").
//	    AddConditionalEdge("agent", shouldRetrieve, nil).
//	    AddEdge("retrieve", stategraph.END)
//
//	compiled, err := graph.Compile()
type Graph struct {
	mu           sync.RWMutex
	name         string
	schema       *Schema
	nodes        map[string]NodeFunc
	nodeOrder    []string
	edges        map[string][]string
	conditionals map[string][]conditionalEdge
	fallbacks    map[string]string
	errorField   string
	configErrs   []error
}

// NewGraph creates a new graph builder over the given state schema.
func NewGraph(schema *Schema) *Graph {
	return &Graph{
		name:         "stategraph",
		schema:       schema,
		nodes:        make(map[string]NodeFunc),
		edges:        make(map[string][]string),
		conditionals: make(map[string][]conditionalEdge),
		fallbacks:    make(map[string]string),
	}
}

// SetName names the graph for logs, metrics and traces.
func (g *Graph) SetName(name string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	if name != "" {
		g.name = name
	}
	return g
}

// AddNode registers a named node.
// Returns the graph for method chaining.
//
// A ConfigurationError is recorded if:
//   - id is empty
//   - id is exactly START or END
//   - fn is nil
//   - id already exists in the graph
func (g *Graph) AddNode(id string, fn NodeFunc) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := validateNodeID(id); err != nil {
		g.configErrs = append(g.configErrs, &ConfigurationError{Op: "add_node", Name: id, Err: err})
		return g
	}
	if fn == nil {
		g.configErrs = append(g.configErrs, &ConfigurationError{Op: "add_node", Name: id, Err: ErrNilFunc})
		return g
	}
	if _, exists := g.nodes[id]; exists {
		g.configErrs = append(g.configErrs, &ConfigurationError{Op: "add_node", Name: id, Err: ErrDuplicateNode})
		return g
	}

	g.nodes[id] = fn
	g.nodeOrder = append(g.nodeOrder, id)
	return g
}

func validateNodeID(id string) error {
	if id == "" {
		return ErrEmptyName
	}
	if id == START || id == END {
		return ErrReservedName
	}
	return nil
}

// AddEdge adds a static edge from one node to another.
// Either end may be a sentinel: START as the source, END as the target.
// Returns the graph for method chaining.
//
// Edge validation happens at Compile() time, not here.
// This allows edges to be added in any order.
func (g *Graph) AddEdge(from, to string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges[from] = append(g.edges[from], to)
	return g
}

// SetEntry designates the entry node. It is shorthand for AddEdge(START, id).
func (g *Graph) SetEntry(id string) *Graph {
	return g.AddEdge(START, id)
}

// AddConditionalEdge adds an edge whose destination is computed at run time.
// Returns the graph for method chaining.
//
// If routes is nil the router returns destination names directly. Otherwise
// the router's key is looked up in routes; a key missing from routes that
// names a registered node is still accepted as a direct destination. END is
// always a valid destination. Any other key fails the run with a
// RoutingError.
func (g *Graph) AddConditionalEdge(from string, router RouterFunc, routes map[string]string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	if router == nil {
		g.configErrs = append(g.configErrs, &ConfigurationError{Op: "add_conditional_edge", Name: from, Err: ErrNilFunc})
		return g
	}

	var copied map[string]string
	if routes != nil {
		copied = make(map[string]string, len(routes))
		for k, v := range routes {
			copied[k] = v
		}
	}

	g.conditionals[from] = append(g.conditionals[from], conditionalEdge{router: router, routes: copied})
	return g
}

// SetFallback routes to fallback whenever node returns a recoverable error.
// Returns the graph for method chaining.
func (g *Graph) SetFallback(node, fallback string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.fallbacks[node] = fallback
	return g
}

// SetErrorField names the schema field that records recoverable node errors.
// The error text is merged through the field's reducer, so routers can react
// to failures as ordinary state.
// Returns the graph for method chaining.
func (g *Graph) SetErrorField(field string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.errorField = field
	return g
}

// Err returns the configuration errors recorded so far, joined, or nil.
// It lets callers detect invalid declarations without compiling.
func (g *Graph) Err() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return errors.Join(g.configErrs...)
}
