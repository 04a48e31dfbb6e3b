package retry

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/stategraph/pkg/stategraph"
)

// Node wraps fn so transient failures are retried according to cfg.
//
// When retries run out on a transient failure the error is returned as
// stategraph.Recoverable, letting a graph with an error field or fallback
// continue. Permanent failures are returned unchanged and abort the run.
//
// Example:
//
//	graph.AddNode("retrieve", retry.Node(retrieve, retry.NewConfig(
//	    retry.WithMaxAttempts(4),
//	    retry.WithInitialBackoff(200*time.Millisecond))))
func Node(fn stategraph.NodeFunc, cfg Config) stategraph.NodeFunc {
	return func(ctx stategraph.Context, state stategraph.State) (stategraph.Update, error) {
		attempt := 0
		res := Do(ctx, cfg, func(_ context.Context) (stategraph.Update, error) {
			attempt++
			if attempt > 1 {
				ctx.Logger().Debug("retrying node", slog.Int("attempt", attempt))
			}
			return fn(ctx, state)
		})
		if res.Err == nil {
			return res.Value, nil
		}

		catErr, ok := res.Err.(*CategorizedError)
		if !ok {
			return nil, res.Err
		}
		if catErr.Category == CategoryTransient {
			return nil, stategraph.Recoverable(res.Err)
		}
		// Return the node's own error so markers like Recoverable survive.
		return nil, catErr.Err
	}
}
