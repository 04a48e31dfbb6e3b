/*
Package stategraph provides a graph-based workflow engine over shared,
mergeable state.

# Overview

stategraph runs directed graphs whose nodes are opaque units of work and
whose edges decide what runs next. Graphs may branch and loop. Nodes never
write state directly: each returns a partial Update and the executor merges
it through the reducer declared for every field, so concurrent writers to a
list append instead of overwriting each other.

The engine knows nothing about language models. A node that calls a model,
a retriever or any other service is just a NodeFunc.

# State and Reducers

A Schema declares the fields of a run's state, their kind and their reducer:

	schema := stategraph.MustSchema(
	    stategraph.Sequence("messages"),         // Append
	    stategraph.Scalar("score"),              // Replace
	    stategraph.Mapping("meta").WithReducer(stategraph.MergeMaps),
	)

Nodes read a snapshot and return only what they changed:

	func grade(ctx stategraph.Context, s stategraph.State) (stategraph.Update, error) {
	    return stategraph.Update{"score": "yes"}, nil
	}

# Building a Graph

	graph := stategraph.NewGraph(schema).
	    AddNode("agent", agent).
	    AddNode("retrieve", retrieve).
	    AddNode("grade", grade).
	    AddNode("generate", generate).
	    AddEdge(stategraph.START, "agent").
	    AddConditionalEdge("agent", shouldRetrieve, map[string]string{
	        "retrieve": "retrieve",
	        "end":      stategraph.END,
	    }).
	    AddEdge("retrieve", "grade").
	    AddConditionalEdge("grade", checkRelevance, map[string]string{
	        "yes": "generate",
	        "no":  "agent",
	    }).
	    AddEdge("generate", stategraph.END)

	compiled, err := graph.Compile()

Compile reports every problem at once in a *GraphValidationError. Invalid
declarations such as a duplicate node name are also visible through
Graph.Err before compiling.

A router returns either a key from its route map or a destination name.
With a nil route map it must return node names or END directly. A key that
is neither fails the run with a *RoutingError.

# Running

	ctx := stategraph.NewContext(context.Background())
	result, err := compiled.Run(ctx, map[string]any{"question": "..."},
	    stategraph.WithMaxSteps(50))

Run returns a *Result with the final state, status, step count and the path
of invoked nodes. On failure or cancellation the result still carries the
last fully merged state.

Cycles are legal and END need not be reachable. The step budget
(WithMaxSteps, default 1000) stops runaway loops with a *StepLimitError.
Cancelling ctx stops the run before the next node with a
*CancellationError.

Stream yields one StepEvent per node invocation and Batch runs independent
inputs concurrently.

# Error Handling

A node error aborts the run unless the node marks it with Recoverable and
the graph can represent it: SetErrorField records the error text in state
and SetFallback routes the failing node elsewhere. Panics are recovered
into *PanicError.

	if errors.Is(err, stategraph.ErrStepLimitExceeded) { ... }

	var nodeErr *stategraph.NodeError
	if errors.As(err, &nodeErr) {
	    log.Printf("node %s failed: %v", nodeErr.NodeID, nodeErr.Err)
	}

# Observability

Lifecycle logging, OpenTelemetry metrics and traces, and Prometheus metrics
are opt-in run options:

	result, err := compiled.Run(ctx, input,
	    stategraph.WithObservabilityLogger(logger),
	    stategraph.WithMetrics(true),
	    stategraph.WithTracing(true))

See the observability, config and retry subpackages.
*/
package stategraph
