package stategraph

import (
	"errors"
	"log/slog"

	"github.com/randalmurphal/stategraph/pkg/stategraph/config"
)

// RunOptionsFromConfig translates run settings into run options.
// logger, if non-nil, becomes the observability logger.
// Timeout is not a run option; apply it to the context passed to Run.
//
// Example:
//
//	cfg, err := config.FromFile("graph.yaml")
//	...
//	logger, _ := cfg.Run.Logger(os.Stderr)
//	result, err := compiled.Run(ctx, input, stategraph.RunOptionsFromConfig(cfg.Run, logger)...)
func RunOptionsFromConfig(rc config.RunConfig, logger *slog.Logger) []RunOption {
	opts := []RunOption{
		WithMaxSteps(rc.MaxSteps),
		WithConcurrency(rc.Concurrency),
	}
	if rc.GraphName != "" {
		opts = append(opts, WithGraphName(rc.GraphName))
	}
	if logger != nil {
		opts = append(opts, WithObservabilityLogger(logger))
	}
	if rc.Metrics {
		opts = append(opts, WithMetrics(true))
	}
	if rc.Tracing {
		opts = append(opts, WithTracing(true))
	}
	return opts
}

// SchemaFromConfig builds a schema from field declarations, resolving
// reducers by name in reg. A nil reg uses NewReducerRegistry.
// Every invalid field is reported.
func SchemaFromConfig(fields []config.FieldConfig, reg *ReducerRegistry) (*Schema, error) {
	if reg == nil {
		reg = NewReducerRegistry()
	}

	declared := make([]Field, 0, len(fields))
	var errs []error

	for _, fc := range fields {
		kind, err := ParseKind(fc.Kind)
		if err != nil {
			errs = append(errs, &ConfigurationError{Op: "schema_from_config", Name: fc.Name, Err: err})
			continue
		}

		var f Field
		switch kind {
		case KindSequence:
			f = Sequence(fc.Name)
		case KindMapping:
			f = Mapping(fc.Name)
		default:
			f = Scalar(fc.Name)
		}

		if fc.Reducer != "" {
			reducer, err := reg.Lookup(fc.Reducer)
			if err != nil {
				errs = append(errs, &ConfigurationError{Op: "schema_from_config", Name: fc.Name, Err: err})
				continue
			}
			f = f.WithReducer(reducer)
		}
		if fc.Default != nil {
			f = f.WithDefault(fc.Default)
		}

		declared = append(declared, f)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return NewSchema(declared...)
}
