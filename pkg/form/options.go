package form

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/goliatone/go-formflow/pkg/validation"
)

const (
	defaultAsyncValidationDelay = 300 * time.Millisecond
	defaultMaxEvaluationPasses  = 10
)

// SyncValidator checks the whole value bag without blocking.
type SyncValidator func(values Values) *validation.Status

// AsyncValidator checks the whole value bag and may call external services.
type AsyncValidator func(ctx context.Context, values Values) (*validation.Status, error)

// Option customises a Form.
type Option func(*config)

type config struct {
	title                string
	description          string
	logger               *slog.Logger
	onValidateSync       SyncValidator
	onValidateAsync      AsyncValidator
	validateOnChange     bool
	asyncValidationDelay time.Duration
	maxEvaluationPasses  int
}

func defaultConfig() config {
	return config{
		logger:               slog.New(slog.NewTextHandler(io.Discard, nil)),
		asyncValidationDelay: defaultAsyncValidationDelay,
		maxEvaluationPasses:  defaultMaxEvaluationPasses,
	}
}

// WithTitle sets the form title.
func WithTitle(title string) Option {
	return func(cfg *config) {
		cfg.title = title
	}
}

// WithDescription sets the form description.
func WithDescription(description string) Option {
	return func(cfg *config) {
		cfg.description = description
	}
}

// WithLogger routes form and parameter logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithOnValidateSync registers a form-level synchronous validator. It runs
// after every entry has been validated.
func WithOnValidateSync(fn SyncValidator) Option {
	return func(cfg *config) {
		cfg.onValidateSync = fn
	}
}

// WithOnValidateAsync registers a form-level asynchronous validator. It runs
// after every entry's async validation has resolved.
func WithOnValidateAsync(fn AsyncValidator) Option {
	return func(cfg *config) {
		cfg.onValidateAsync = fn
	}
}

// WithValidateOnChange makes every value change start a validation run. The
// sync phase completes before the change call returns; the async phase runs
// in the background.
func WithValidateOnChange(enabled bool) Option {
	return func(cfg *config) {
		cfg.validateOnChange = enabled
	}
}

// WithAsyncValidationDelay sets how long a non-forced run waits before its
// async phase when a previous run is still in flight.
func WithAsyncValidationDelay(delay time.Duration) Option {
	return func(cfg *config) {
		if delay >= 0 {
			cfg.asyncValidationDelay = delay
		}
	}
}

// WithMaxEvaluationPasses bounds how many times Evaluate re-runs dynamic
// properties before giving up on convergence.
func WithMaxEvaluationPasses(passes int) Option {
	return func(cfg *config) {
		if passes > 0 {
			cfg.maxEvaluationPasses = passes
		}
	}
}
