package stategraph

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Batch runs the graph once per input, concurrently, and returns the
// results in input order.
//
// Runs are independent: each gets its own run ID and state, and a failing
// run never cancels the others. Use WithConcurrency to bound parallelism.
// The returned error joins every run's error, each prefixed with its input
// index; results[i] is nil only when input i was rejected before starting.
func (cg *CompiledGraph) Batch(ctx Context, inputs []map[string]any, opts ...RunOption) ([]*Result, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	cfg := newRunConfig(opts)
	results := make([]*Result, len(inputs))
	errs := make([]error, len(inputs))

	var g errgroup.Group
	if cfg.concurrency > 0 {
		g.SetLimit(cfg.concurrency)
	}

	for i, input := range inputs {
		runCfg := cfg
		if cfg.runID != "" {
			runCfg.runID = fmt.Sprintf("%s-%d", cfg.runID, i)
		} else {
			runCfg.runID = uuid.New().String()
		}

		g.Go(func() error {
			res, err := cg.run(ctx, input, runCfg, nil)
			results[i] = res
			if err != nil {
				errs[i] = fmt.Errorf("batch input %d: %w", i, err)
			}
			return nil
		})
	}

	_ = g.Wait()
	return results, errors.Join(errs...)
}
