package binding

import (
	"context"
	"reflect"
	"sync"

	"github.com/goliatone/go-formflow/pkg/events"
	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/loader"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// Options wires callbacks and an optional data load into a Field.
type Options[T any] struct {
	// Context bounds loads started by the field. Defaults to Background.
	Context            context.Context
	OnParameterChange  func(newValue, oldValue any)
	OnFormChange       func(newValues, oldValues form.Values)
	OnDependencyChange loader.DependencyChangeFunc
	// Load runs once on Bind and again whenever a dependency changes.
	Load loader.LoadFunc[T]
}

// Field is the control-facing view of a parameter. It tracks whether the
// user has touched the field and only exposes a validation error once the
// field is dirty or the run that produced it was forced.
type Field[T any] struct {
	param  form.Parameter
	loader *loader.Loader[T]
	opts   Options[T]

	mu        sync.Mutex
	dirty     bool
	status    *validation.Status
	errText   string
	errData   any
	revision  uint64
	changeSub events.Subscription
	validSub  events.Subscription
}

// Bind subscribes a Field to the parameter's form. Call Close to release
// the subscriptions.
func Bind[T any](param form.Parameter, opts Options[T]) *Field[T] {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	f := &Field[T]{param: param, opts: opts}
	f.changeSub = param.Form().On(form.EventChange, f.onChange)
	f.validSub = param.Form().On(form.EventValidate, f.onValidate)

	var loaderOpts []loader.Option
	if opts.OnDependencyChange != nil {
		loaderOpts = append(loaderOpts, loader.WithOnDependencyChange(f.dependencyChanged))
	}
	f.loader = loader.Attach(ctx, param, opts.Load, loaderOpts...)
	return f
}

func (f *Field[T]) onChange(evt form.Event) {
	if f.opts.OnFormChange != nil && !evt.NewValues.Equal(evt.OldValues) {
		f.opts.OnFormChange(evt.NewValues, evt.OldValues)
	}
	name := f.param.Name()
	next, prev := evt.NewValues[name], evt.OldValues[name]
	if reflect.DeepEqual(next, prev) {
		return
	}
	f.bump()
	if f.opts.OnParameterChange != nil {
		f.opts.OnParameterChange(next, prev)
	}
}

func (f *Field[T]) dependencyChanged(role, sibling string, next, prev any) {
	f.bump()
	f.opts.OnDependencyChange(role, sibling, next, prev)
}

func (f *Field[T]) onValidate(evt form.Event) {
	status := evt.Snapshot.EntryStatus[f.param.Name()]

	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	if !f.dirty && (status == nil || !status.Forced) {
		return
	}
	if status.IsError() {
		f.errText = status.Message
		f.errData = status.Data
	} else {
		f.errText = ""
		f.errData = nil
	}
	f.dirty = true
}

func (f *Field[T]) bump() {
	f.mu.Lock()
	f.revision++
	f.mu.Unlock()
}

// Param returns the bound parameter.
func (f *Field[T]) Param() form.Parameter {
	return f.param
}

// Value is the parameter's current value.
func (f *Field[T]) Value() any {
	return f.param.Value()
}

// Change records a user edit: the field becomes dirty and the value is
// assigned.
func (f *Field[T]) Change(value any) {
	f.SetDirty(true)
	f.param.SetValue(value)
}

func (f *Field[T]) Dirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty
}

func (f *Field[T]) SetDirty(dirty bool) {
	f.mu.Lock()
	f.dirty = dirty
	f.mu.Unlock()
}

// ValidationStatus is the latest status seen for the parameter, visible or not.
func (f *Field[T]) ValidationStatus() *validation.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status.Clone()
}

// ValidationError is the message a control should display, or "".
func (f *Field[T]) ValidationError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errText
}

// ValidationErrorData is the payload of the visible error, if any.
func (f *Field[T]) ValidationErrorData() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errData
}

// Revision increases every time the parameter or one of its dependencies
// changes. Renderers compare it to decide whether to redraw.
func (f *Field[T]) Revision() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revision
}

// Data is the latest loaded data.
func (f *Field[T]) Data() T {
	return f.loader.Data()
}

// LoadErr is the error of the latest load.
func (f *Field[T]) LoadErr() error {
	return f.loader.Err()
}

// Loading reports whether a load is in flight.
func (f *Field[T]) Loading() bool {
	return f.loader.Loading()
}

// Wait blocks for the latest load.
func (f *Field[T]) Wait(ctx context.Context) (T, error) {
	return f.loader.Wait(ctx)
}

// Close releases every subscription and cancels pending loads.
func (f *Field[T]) Close() {
	f.param.Form().Off(f.changeSub)
	f.param.Form().Off(f.validSub)
	f.loader.Close()
}
