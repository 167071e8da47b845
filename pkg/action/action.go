package action

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/goliatone/go-formflow/pkg/binding"
	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/validation"
)

var (
	// ErrNotInitialized is returned by operations that need the form before
	// Initialize has built it.
	ErrNotInitialized = errors.New("action: not initialized")
	// ErrIncompleteSpec is returned by Initialize when BuildForm or Execute
	// is missing.
	ErrIncompleteSpec = errors.New("action: BuildForm and Execute are required")
)

// Result is the outcome of one Execute call.
type Result struct {
	Success          bool               `json:"success" yaml:"success"`
	Err              error              `json:"-" yaml:"-"`
	ValidationStatus *validation.Status `json:"validationStatus,omitempty" yaml:"validationStatus,omitempty"`
}

// Spec supplies the pieces of an action. BuildForm must pass opts on to
// form.New so the form-level validators and logger are wired.
type Spec struct {
	Initialize    func(ctx context.Context) (form.Values, error)
	BuildForm     func(initial form.Values, opts ...form.Option) (*form.Form, error)
	ValidateSync  form.SyncValidator
	ValidateAsync form.AsyncValidator
	Execute       func(ctx context.Context, values form.Values) (*Result, error)
	OnFormChange  func(newValues, oldValues form.Values)
}

// Option customises an Action.
type Option func(*Action)

// WithLogger sets the logger handed to the form and used for execution
// failures.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Action) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Action couples a form with an initialization step and an execute step.
type Action struct {
	name   string
	spec   Spec
	logger *slog.Logger

	mu           sync.Mutex
	form         *form.Form
	watcher      *binding.Watcher
	initializing chan struct{}
	executing    chan struct{}
	last         *Result
}

// New creates an action. Nothing runs until Initialize.
func New(name string, spec Spec, opts ...Option) *Action {
	a := &Action{
		name:   name,
		spec:   spec,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.logger = a.logger.With("action", name)
	return a
}

func (a *Action) Name() string { return a.name }

func (a *Action) Logger() *slog.Logger { return a.logger }

// Form returns the form built by Initialize.
func (a *Action) Form() (*form.Form, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.form == nil {
		return nil, ErrNotInitialized
	}
	return a.form, nil
}

// Initialized reports whether Initialize has succeeded.
func (a *Action) Initialized() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.form != nil
}

// Initialize loads the initial values and builds the form.
func (a *Action) Initialize(ctx context.Context) error {
	if a.spec.BuildForm == nil || a.spec.Execute == nil {
		return ErrIncompleteSpec
	}
	done := make(chan struct{})
	a.mu.Lock()
	a.initializing = done
	a.mu.Unlock()
	defer close(done)

	values := form.Values{}
	if a.spec.Initialize != nil {
		loaded, err := a.spec.Initialize(ctx)
		if err != nil {
			return fmt.Errorf("action: initialize %s: %w", a.name, err)
		}
		if loaded != nil {
			values = loaded
		}
	}

	f, err := a.spec.BuildForm(values,
		form.WithLogger(a.logger),
		form.WithOnValidateSync(a.validateSync),
		form.WithOnValidateAsync(a.validateAsync),
	)
	if err != nil {
		return fmt.Errorf("action: build form for %s: %w", a.name, err)
	}
	if f == nil {
		return fmt.Errorf("action: build form for %s: nil form", a.name)
	}

	var watcher *binding.Watcher
	if a.spec.OnFormChange != nil {
		watcher = binding.WatchForm(f, a.spec.OnFormChange)
	}

	a.mu.Lock()
	if a.watcher != nil {
		a.watcher.Close()
	}
	a.form = f
	a.watcher = watcher
	a.mu.Unlock()
	return nil
}

// WaitForInitialization blocks while Initialize is running.
func (a *Action) WaitForInitialization(ctx context.Context) error {
	a.mu.Lock()
	done := a.initializing
	a.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Action) validateSync(values form.Values) *validation.Status {
	if a.spec.ValidateSync != nil {
		return a.spec.ValidateSync(values)
	}
	return validation.OK()
}

func (a *Action) validateAsync(ctx context.Context, values form.Values) (*validation.Status, error) {
	if a.spec.ValidateAsync != nil {
		return a.spec.ValidateAsync(ctx, values)
	}
	return validation.OK(), nil
}

// Execute runs a forced validation and, when it passes, the Execute step
// with the values captured before validation began. A failed execution
// forces its status onto the form. The returned error is non-nil only when
// the action is not initialized or ctx ended during validation.
func (a *Action) Execute(ctx context.Context) (Result, error) {
	f, err := a.Form()
	if err != nil {
		return Result{}, err
	}

	done := make(chan struct{})
	a.mu.Lock()
	a.executing = done
	a.mu.Unlock()

	result := Result{ValidationStatus: validation.Error("Failed to execute action")}
	defer func() {
		a.mu.Lock()
		a.last = &result
		a.mu.Unlock()
		close(done)
	}()

	values := f.Values()
	snap, err := f.Validate(ctx, form.ValidateOptions{Force: true})
	if err != nil {
		result.Err = err
		return result, err
	}
	if snap.OverallStatus == nil {
		result.Err = errors.New("action: validation produced no overall status")
		return result, nil
	}
	result.ValidationStatus = snap.OverallStatus
	if snap.OverallStatus.IsError() {
		return result, nil
	}

	out, err := a.spec.Execute(ctx, values)
	switch {
	case err != nil:
		result.Err = err
		result.ValidationStatus = validation.Error(err.Error())
		a.logger.Warn("action failed to execute", "error", err)
	case out != nil:
		result = *out
	default:
		result.Success = true
	}

	if !result.Success {
		f.ForceValidationStatus(result.ValidationStatus)
	}
	return result, nil
}

// LastResult is the result of the most recent Execute.
func (a *Action) LastResult() (Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return Result{}, false
	}
	return *a.last, true
}

// WaitForExecution blocks while an Execute call is in flight and then
// returns LastResult.
func (a *Action) WaitForExecution(ctx context.Context) (Result, bool, error) {
	a.mu.Lock()
	done := a.executing
	a.mu.Unlock()
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return Result{}, false, ctx.Err()
		}
	}
	result, ok := a.LastResult()
	return result, ok, nil
}

// Close releases the form watcher.
func (a *Action) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.watcher != nil {
		a.watcher.Close()
		a.watcher = nil
	}
}
