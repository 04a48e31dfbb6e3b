package stategraph

import "iter"

// StepEvent describes one completed node invocation.
type StepEvent struct {
	// Step is the 1-based invocation number.
	Step int
	// Node is the node that ran.
	Node string
	// Update is the partial update the node returned.
	Update Update
	// State is a copy of the state after the update was merged.
	State State
	// Next is the destination chosen for the following step, possibly END.
	Next string
	// Err is the recoverable error the node returned, if any.
	Err error
}

// Stream executes the graph like Run and yields one event per node step.
// A run error is yielded last with a zero StepEvent. Breaking out of the
// loop stops the run before the next node is invoked.
//
// Example:
//
//	for event, err := range compiled.Stream(ctx, input) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Printf("%d %s -> %s\n", event.Step, event.Node, event.Next)
//	}
func (cg *CompiledGraph) Stream(ctx Context, input map[string]any, opts ...RunOption) iter.Seq2[StepEvent, error] {
	return func(yield func(StepEvent, error) bool) {
		stopped := false
		_, err := cg.run(ctx, input, newRunConfig(opts), func(event StepEvent) bool {
			if !yield(event, nil) {
				stopped = true
				return false
			}
			return true
		})
		if err != nil && !stopped {
			yield(StepEvent{}, err)
		}
	}
}
