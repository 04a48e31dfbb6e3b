package stategraph

import "sort"

// CompiledGraph is an immutable, executable graph.
// It is created by calling Compile() on a Graph builder.
//
// CompiledGraph is thread-safe and can be used concurrently for multiple
// Run() calls. The graph structure cannot be modified after compilation.
//
// Use the introspection methods (NodeIDs, Successors, etc.) to examine
// the graph structure for debugging or visualization.
type CompiledGraph struct {
	name         string
	schema       *Schema
	nodes        map[string]NodeFunc
	nodeOrder    []string
	edges        map[string]string
	conditionals map[string]conditionalEdge
	fallbacks    map[string]string
	errorField   string
}

// Name returns the graph name used in logs, metrics and traces.
func (cg *CompiledGraph) Name() string {
	return cg.name
}

// Schema returns the state schema the graph merges updates through.
func (cg *CompiledGraph) Schema() *Schema {
	return cg.schema
}

// EntryPoint returns the static entry node ID, or "" when the graph is
// entered through a conditional edge from START.
func (cg *CompiledGraph) EntryPoint() string {
	return cg.edges[START]
}

// NodeIDs returns all node identifiers in registration order.
func (cg *CompiledGraph) NodeIDs() []string {
	ids := make([]string, len(cg.nodeOrder))
	copy(ids, cg.nodeOrder)
	return ids
}

// HasNode checks if a node exists in the graph.
func (cg *CompiledGraph) HasNode(id string) bool {
	_, exists := cg.nodes[id]
	return exists
}

// Successors returns the destinations that can follow id.
// For a static edge this is its single target. For a conditional edge with a
// route map it is the sorted, deduplicated route targets. A conditional edge
// without a route map may name any node, so every node plus END is returned.
// Returns nil for END or a source with no outgoing edge.
func (cg *CompiledGraph) Successors(id string) []string {
	if id == END {
		return nil
	}
	if to, ok := cg.edges[id]; ok {
		return []string{to}
	}
	cond, ok := cg.conditionals[id]
	if !ok {
		return nil
	}
	if cond.routes == nil {
		out := cg.NodeIDs()
		return append(out, END)
	}
	seen := make(map[string]struct{}, len(cond.routes))
	for _, to := range cond.routes {
		seen[to] = struct{}{}
	}
	return sortedKeys(seen)
}

// IsConditional returns true if the node has a conditional edge.
func (cg *CompiledGraph) IsConditional(id string) bool {
	_, ok := cg.conditionals[id]
	return ok
}

// Routes returns a copy of the route map of id's conditional edge.
// Returns nil if id has no conditional edge or routes destinations directly.
func (cg *CompiledGraph) Routes(id string) map[string]string {
	cond, ok := cg.conditionals[id]
	if !ok || cond.routes == nil {
		return nil
	}
	out := make(map[string]string, len(cond.routes))
	for k, v := range cond.routes {
		out[k] = v
	}
	return out
}

// Fallback returns the node that id routes to after a recoverable error.
func (cg *CompiledGraph) Fallback(id string) (string, bool) {
	fallback, ok := cg.fallbacks[id]
	return fallback, ok
}

// ErrorField returns the schema field that records recoverable errors,
// or "" if none is set.
func (cg *CompiledGraph) ErrorField() string {
	return cg.errorField
}

// routeKeys returns the route keys of id's conditional edge in sorted order.
func (cg *CompiledGraph) routeKeys(id string) []string {
	cond, ok := cg.conditionals[id]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(cond.routes))
	for k := range cond.routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
