package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Config is a decoded configuration document.
type Config struct {
	Run   RunConfig                 `mapstructure:"run"`
	State []FieldConfig             `mapstructure:"state"`
	Nodes map[string]map[string]any `mapstructure:"nodes"`
}

// RunConfig holds execution settings.
type RunConfig struct {
	// GraphName overrides the compiled graph's name in logs, metrics and traces.
	GraphName string `mapstructure:"graph_name"`
	// MaxSteps is the step budget. Zero keeps the engine default.
	MaxSteps int `mapstructure:"max_steps"`
	// Concurrency bounds parallel batch runs. Zero means no limit.
	Concurrency int `mapstructure:"concurrency"`
	// LogLevel is a slog level name: debug, info, warn or error.
	LogLevel string `mapstructure:"log_level"`
	// Metrics enables OpenTelemetry metrics.
	Metrics bool `mapstructure:"metrics"`
	// Tracing enables OpenTelemetry tracing.
	Tracing bool `mapstructure:"tracing"`
	// Timeout bounds a whole run. Zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout"`
}

// FieldConfig declares one state field.
type FieldConfig struct {
	Name string `mapstructure:"name"`
	// Kind is scalar (default), sequence or mapping.
	Kind string `mapstructure:"kind"`
	// Reducer names a registered reducer. Empty uses the kind's default.
	Reducer string `mapstructure:"reducer"`
	Default any    `mapstructure:"default"`
}

var validKinds = map[string]bool{
	"": true, "scalar": true,
	"sequence": true, "list": true,
	"mapping": true, "map": true,
}

// Validate reports every problem in the configuration, joined.
func (c Config) Validate() error {
	var errs []error

	if c.Run.MaxSteps < 0 {
		errs = append(errs, fmt.Errorf("run.max_steps must be >= 0, got %d", c.Run.MaxSteps))
	}
	if c.Run.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("run.concurrency must be >= 0, got %d", c.Run.Concurrency))
	}
	if c.Run.Timeout < 0 {
		errs = append(errs, fmt.Errorf("run.timeout must be >= 0, got %s", c.Run.Timeout))
	}
	if _, err := c.Run.Level(); err != nil {
		errs = append(errs, err)
	}

	seen := make(map[string]bool, len(c.State))
	for i, f := range c.State {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("state[%d]: name is required", i))
			continue
		}
		if seen[f.Name] {
			errs = append(errs, fmt.Errorf("state[%d]: duplicate field %q", i, f.Name))
		}
		seen[f.Name] = true
		if !validKinds[f.Kind] {
			errs = append(errs, fmt.Errorf("state[%d]: field %q has unknown kind %q", i, f.Name, f.Kind))
		}
	}

	return errors.Join(errs...)
}

// Level parses LogLevel. An empty level is info.
func (r RunConfig) Level() (slog.Level, error) {
	var level slog.Level
	if r.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(r.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("run.log_level: %w", err)
	}
	return level, nil
}

// Logger returns a text logger writing to w at the configured level.
// The "error" attribute key is shortened to "err".
func (r RunConfig) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := r.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	})), nil
}

// Node returns the settings of the named node section.
// A missing section yields empty Values.
func (c Config) Node(name string) Values {
	return NewValues(c.Nodes[name])
}
