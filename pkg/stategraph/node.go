package stategraph

// START is the entry sentinel. Edges from START select the first node.
const START = "__start__"

// END is the terminal sentinel. Routing to END completes the run.
const END = "__end__"

// NodeFunc is the signature for all node functions.
// A node receives the execution context and a snapshot of the current state
// and returns only the fields it changed.
//
// The snapshot belongs to the node; changes to it are never seen by the
// executor. Return a nil or empty Update when nothing changed.
//
// Return Recoverable(err) for expected failures the graph should route
// around; any other error aborts the run.
//
// Example:
//
//	func grade(ctx stategraph.Context, s stategraph.State) (stategraph.Update, error) {
//	    docs, _ := stategraph.Get[string](s, "documents")
//	    if docs == "" {
//	        return stategraph.Update{"score": "no"}, nil
//	    }
//	    return stategraph.Update{"score": "yes"}, nil
//	}
type NodeFunc func(ctx Context, state State) (Update, error)

// RouterFunc picks the next destination of a conditional edge.
// It returns either a route key declared in the edge's route map or a
// destination name (a node ID or END).
//
// Routers must be pure: decide from state already written by earlier nodes
// and never perform I/O.
//
// Example:
//
//	func checkRelevance(ctx stategraph.Context, s stategraph.State) string {
//	    if score, _ := stategraph.Get[string](s, "score"); score == "yes" {
//	        return "yes"
//	    }
//	    return "no"
//	}
type RouterFunc func(ctx Context, state State) string

// TypedRouter adapts a router over a closed set of route keys.
//
// Example:
//
//	type Relevance string
//	const (
//	    Relevant   Relevance = "yes"
//	    Irrelevant Relevance = "no"
//	)
//	graph.AddConditionalEdge("grade",
//	    stategraph.TypedRouter(func(ctx stategraph.Context, s stategraph.State) Relevance { ... }),
//	    stategraph.RoutesOf(map[Relevance]string{Relevant: "generate", Irrelevant: "rewrite"}))
func TypedRouter[K ~string](fn func(ctx Context, state State) K) RouterFunc {
	if fn == nil {
		return nil
	}
	return func(ctx Context, state State) string {
		return string(fn(ctx, state))
	}
}

// RoutesOf converts a typed route map into the map AddConditionalEdge takes.
func RoutesOf[K ~string](routes map[K]string) map[string]string {
	out := make(map[string]string, len(routes))
	for k, v := range routes {
		out[string(k)] = v
	}
	return out
}
