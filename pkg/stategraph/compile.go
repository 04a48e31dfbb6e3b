package stategraph

import (
	"fmt"
	"log/slog"
)

// Compile validates the graph and creates an executable CompiledGraph.
// Every problem is collected; a failed compile returns a
// *GraphValidationError listing all of them, configuration errors recorded
// by AddNode and AddConditionalEdge included.
//
// Validation checks:
//  1. A state schema is present
//  2. At least one edge leaves START
//  3. Every edge endpoint is a registered node or a sentinel; no edge
//     leaves END and no edge enters START
//  4. Route map values name a registered node or END
//  5. No source has more than one static edge, both static and conditional
//     edges, or more than one conditional edge
//  6. Fallbacks connect registered nodes
//  7. The error field, if set, is declared by the schema
//
// Reaching END is not required: a graph that loops forever is valid and
// is stopped by the step budget. Unreachable nodes are logged as warnings
// but do not cause compilation to fail.
func (g *Graph) Compile() (*CompiledGraph, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	issues := make([]error, 0, len(g.configErrs))
	issues = append(issues, g.configErrs...)

	if g.schema == nil {
		issues = append(issues, ErrNoSchema)
	}

	if len(g.edges[START]) == 0 && len(g.conditionals[START]) == 0 {
		issues = append(issues, ErrNoEntryPoint)
	}

	issues = append(issues, g.validateEdges()...)
	issues = append(issues, g.validateFallbacks()...)

	if g.errorField != "" && g.schema != nil && !g.schema.Has(g.errorField) {
		issues = append(issues, fmt.Errorf("%w: error field %s", ErrUnknownField, g.errorField))
	}

	if len(issues) > 0 {
		return nil, &GraphValidationError{Issues: issues}
	}

	g.warnUnreachableNodes()

	return g.buildCompiledGraph(), nil
}

// validateEdges checks endpoints, route maps and per-source ambiguity.
// Sources are visited in sorted order so issue lists are stable.
func (g *Graph) validateEdges() []error {
	var issues []error

	sources := make(map[string]struct{}, len(g.edges)+len(g.conditionals))
	for from := range g.edges {
		sources[from] = struct{}{}
	}
	for from := range g.conditionals {
		sources[from] = struct{}{}
	}

	for _, from := range sortedKeys(sources) {
		static := g.edges[from]
		conds := g.conditionals[from]

		switch {
		case from == END:
			issues = append(issues, fmt.Errorf("%w: edge leaves %s", ErrInvalidEdge, END))
		case from != START && !g.isNode(from):
			issues = append(issues, fmt.Errorf("%w: edge source %s", ErrNodeNotFound, from))
		}

		for _, to := range static {
			switch {
			case to == START:
				issues = append(issues, fmt.Errorf("%w: edge %s -> %s enters %s", ErrInvalidEdge, from, to, START))
			case to != END && !g.isNode(to):
				issues = append(issues, fmt.Errorf("%w: edge target %s (from %s)", ErrNodeNotFound, to, from))
			}
		}

		for _, cond := range conds {
			for _, key := range sortedKeys(cond.routes) {
				target := cond.routes[key]
				if target != END && !g.isNode(target) {
					issues = append(issues, fmt.Errorf("%w: route %q from %s -> %s", ErrInvalidRoute, key, from, target))
				}
			}
		}

		switch {
		case len(static) > 1:
			issues = append(issues, fmt.Errorf("%w: %s has %d static edges", ErrAmbiguousEdges, from, len(static)))
		case len(static) > 0 && len(conds) > 0:
			issues = append(issues, fmt.Errorf("%w: %s has static and conditional edges", ErrAmbiguousEdges, from))
		}
		if len(conds) > 1 {
			issues = append(issues, fmt.Errorf("%w: %s has %d conditional edges", ErrAmbiguousEdges, from, len(conds)))
		}
	}

	return issues
}

func (g *Graph) validateFallbacks() []error {
	var issues []error
	for _, node := range sortedKeys(g.fallbacks) {
		fallback := g.fallbacks[node]
		if !g.isNode(node) {
			issues = append(issues, fmt.Errorf("%w: fallback source %s", ErrNodeNotFound, node))
		}
		if fallback != END && !g.isNode(fallback) {
			issues = append(issues, fmt.Errorf("%w: fallback target %s (from %s)", ErrNodeNotFound, fallback, node))
		}
	}
	return issues
}

func (g *Graph) isNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// warnUnreachableNodes logs warnings for nodes not reachable from START.
func (g *Graph) warnUnreachableNodes() {
	reachable := g.findReachableNodes()

	for _, nodeID := range g.nodeOrder {
		if !reachable[nodeID] {
			slog.Warn("node is unreachable from entry", "graph", g.name, "node_id", nodeID)
		}
	}
}

// findReachableNodes returns the set of nodes reachable from START.
func (g *Graph) findReachableNodes() map[string]bool {
	reachable := map[string]bool{START: true}
	queue := []string{START}

	visit := func(id string) {
		if id == END || reachable[id] {
			return
		}
		reachable[id] = true
		queue = append(queue, id)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, target := range g.edges[current] {
			visit(target)
		}

		for _, cond := range g.conditionals[current] {
			// Without a route map the router may name any node.
			if cond.routes == nil {
				for _, nodeID := range g.nodeOrder {
					visit(nodeID)
				}
				continue
			}
			for _, key := range sortedKeys(cond.routes) {
				visit(cond.routes[key])
				// Unmapped keys may still name a node directly.
				if g.isNode(key) {
					visit(key)
				}
			}
		}

		if fallback, ok := g.fallbacks[current]; ok {
			visit(fallback)
		}
	}

	return reachable
}

// buildCompiledGraph creates the immutable CompiledGraph from the builder state.
func (g *Graph) buildCompiledGraph() *CompiledGraph {
	nodes := make(map[string]NodeFunc, len(g.nodes))
	for id, fn := range g.nodes {
		nodes[id] = fn
	}

	nodeOrder := make([]string, len(g.nodeOrder))
	copy(nodeOrder, g.nodeOrder)

	edges := make(map[string]string, len(g.edges))
	for from, targets := range g.edges {
		edges[from] = targets[0]
	}

	conditionals := make(map[string]conditionalEdge, len(g.conditionals))
	for from, conds := range g.conditionals {
		conditionals[from] = conds[0]
	}

	fallbacks := make(map[string]string, len(g.fallbacks))
	for node, fallback := range g.fallbacks {
		fallbacks[node] = fallback
	}

	return &CompiledGraph{
		name:         g.name,
		schema:       g.schema,
		nodes:        nodes,
		nodeOrder:    nodeOrder,
		edges:        edges,
		conditionals: conditionals,
		fallbacks:    fallbacks,
		errorField:   g.errorField,
	}
}
