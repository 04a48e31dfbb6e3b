package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Config controls how Do spaces and bounds its attempts.
type Config struct {
	MaxAttempts    int // total calls including the first; values below 1 mean one
	InitialBackoff time.Duration
	MaxBackoff     time.Duration // zero leaves the backoff uncapped
	BackoffFactor  float64
	Jitter         float64 // fraction of the backoff to randomise, 0 to 1

	// RetryableFunc replaces IsRetryable when set.
	RetryableFunc func(error) bool
}

// DefaultRetry makes three attempts starting at one second.
var DefaultRetry = Config{
	MaxAttempts:    3,
	InitialBackoff: time.Second,
	MaxBackoff:     30 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// NoRetry runs the operation once.
var NoRetry = Config{MaxAttempts: 1}

// Result is the outcome of Do.
type Result[T any] struct {
	Value    T
	Err      error // *CategorizedError when non-nil
	Attempts int
}

// Do calls fn until it succeeds, returns a non-retryable error, runs out of
// attempts or ctx ends. A failed Result always carries a *CategorizedError.
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) Result[T] {
	attempts := max(cfg.MaxAttempts, 1)
	retryable := cfg.RetryableFunc
	if retryable == nil {
		retryable = IsRetryable
	}
	fail := func(err error, cat Category, made int, op string) Result[T] {
		return Result[T]{
			Err:      &CategorizedError{Err: err, Category: cat, Attempts: made, Op: op},
			Attempts: made,
		}
	}

	wait := cfg.InitialBackoff
	var lastErr error
	for made := 0; made < attempts; made++ {
		if err := ctx.Err(); err != nil {
			return fail(err, CategoryPermanent, made, "context cancelled")
		}

		value, err := fn(ctx)
		if err == nil {
			return Result[T]{Value: value, Attempts: made + 1}
		}
		if !retryable(err) {
			return fail(err, CategoryPermanent, made+1, "")
		}
		lastErr = err

		if made == attempts-1 {
			break
		}
		timer := time.NewTimer(calculateBackoff(wait, cfg.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fail(ctx.Err(), CategoryPermanent, made+1, "context cancelled during backoff")
		case <-timer.C:
		}
		wait = nextBackoff(wait, cfg)
	}

	return fail(lastErr, CategoryTransient, attempts, "max retries exceeded")
}

// nextBackoff grows wait by BackoffFactor, capped at MaxBackoff when set.
func nextBackoff(wait time.Duration, cfg Config) time.Duration {
	next := time.Duration(float64(wait) * cfg.BackoffFactor)
	if cfg.MaxBackoff > 0 {
		next = min(next, cfg.MaxBackoff)
	}
	return next
}

// calculateBackoff spreads base uniformly over [base-base*jitter, base+base*jitter].
func calculateBackoff(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return base
	}
	spread := float64(base) * jitter
	return time.Duration(float64(base) + spread*(2*rand.Float64()-1))
}

// Option adjusts a Config built by NewConfig.
type Option func(*Config)

// WithMaxAttempts sets Config.MaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(cfg *Config) {
		cfg.MaxAttempts = n
	}
}

// WithInitialBackoff sets Config.InitialBackoff.
func WithInitialBackoff(d time.Duration) Option {
	return func(cfg *Config) {
		cfg.InitialBackoff = d
	}
}

// WithJitter sets Config.Jitter.
func WithJitter(j float64) Option {
	return func(cfg *Config) {
		cfg.Jitter = j
	}
}

// NewConfig applies opts on top of DefaultRetry.
func NewConfig(opts ...Option) Config {
	cfg := DefaultRetry
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
