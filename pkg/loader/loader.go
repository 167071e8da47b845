package loader

import (
	"context"
	"reflect"
	"slices"
	"sort"
	"sync"

	"github.com/goliatone/go-formflow/pkg/events"
	"github.com/goliatone/go-formflow/pkg/form"
)

// LoadFunc fetches data for a parameter. The context is canceled when a
// newer load supersedes this one or the loader is closed.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// DependencyChangeFunc observes a single dependency changing value.
type DependencyChangeFunc func(role, sibling string, newValue, oldValue any)

// Option customises a Loader.
type Option func(*options)

type options struct {
	onDependencyChange DependencyChangeFunc
}

// WithOnDependencyChange registers a callback fired once per changed role,
// before the load it triggers starts.
func WithOnDependencyChange(fn DependencyChangeFunc) Option {
	return func(o *options) {
		o.onDependencyChange = fn
	}
}

// Loader re-runs a LoadFunc whenever the parameter's declared dependencies
// change. Each invocation gets a generation number; only the latest
// generation may write Data, Err and Loading.
type Loader[T any] struct {
	param form.Parameter
	fn    LoadFunc[T]
	opts  options
	base  context.Context

	mu        sync.Mutex
	gen       uint64
	cancel    context.CancelFunc
	data      T
	err       error
	loading   bool
	settled   chan struct{}
	listeners []func(T, error)
	closed    bool

	sub        events.Subscription
	unregister func()
}

// Attach binds fn to param. A non-nil fn is invoked once immediately and
// again on every change event that alters one of param's dependencies.
func Attach[T any](ctx context.Context, param form.Parameter, fn LoadFunc[T], opts ...Option) *Loader[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	l := &Loader[T]{
		param: param,
		fn:    fn,
		base:  ctx,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&l.opts)
		}
	}
	l.unregister = param.RegisterLoader(l)
	l.sub = param.Form().On(form.EventChange, l.onChange)
	if fn != nil {
		l.start()
	}
	return l
}

func (l *Loader[T]) onChange(evt form.Event) {
	deps := l.param.Dependencies()
	roles := make([]string, 0, len(deps))
	for role := range deps {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	changed := false
	for _, role := range roles {
		sibling := deps[role]
		next, prev := evt.NewValues[sibling], evt.OldValues[sibling]
		if reflect.DeepEqual(next, prev) {
			continue
		}
		changed = true
		if l.opts.onDependencyChange != nil {
			l.opts.onDependencyChange(role, sibling, next, prev)
		}
	}
	if changed && l.fn != nil {
		l.start()
	}
}

// Reload starts a new invocation regardless of dependency changes.
func (l *Loader[T]) Reload() {
	if l.fn != nil {
		l.start()
	}
}

func (l *Loader[T]) start() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.gen++
	gen := l.gen
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(l.base)
	l.cancel = cancel
	if !l.loading {
		l.loading = true
		l.settled = make(chan struct{})
	}
	l.mu.Unlock()

	l.param.Logger().Debug("loading", "generation", gen)
	go l.run(ctx, cancel, gen)
}

func (l *Loader[T]) run(ctx context.Context, cancel context.CancelFunc, gen uint64) {
	defer cancel()
	data, err := l.fn(ctx)

	l.mu.Lock()
	if l.closed || gen != l.gen {
		l.mu.Unlock()
		l.param.Logger().Debug("dropping stale load", "generation", gen)
		return
	}
	l.data = data
	l.err = err
	l.loading = false
	close(l.settled)
	listeners := slices.Clone(l.listeners)
	l.mu.Unlock()

	if err != nil {
		l.param.Logger().Debug("load failed", "generation", gen, "error", err)
	}
	for _, fn := range listeners {
		fn(data, err)
	}
}

// Data is the result of the latest completed load.
func (l *Loader[T]) Data() T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data
}

// Err is the error of the latest completed load.
func (l *Loader[T]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Loading reports whether a load is in flight.
func (l *Loader[T]) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// OnLoaded registers fn to run after every load that is not superseded.
func (l *Loader[T]) OnLoaded(fn func(T, error)) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	l.mu.Unlock()
}

// WaitLoaded blocks until no load is in flight. It returns only context
// errors; load errors are read through Err.
func (l *Loader[T]) WaitLoaded(ctx context.Context) error {
	for {
		l.mu.Lock()
		if !l.loading {
			l.mu.Unlock()
			return nil
		}
		settled := l.settled
		l.mu.Unlock()

		select {
		case <-settled:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Wait blocks for the latest load and returns its result.
func (l *Loader[T]) Wait(ctx context.Context) (T, error) {
	if err := l.WaitLoaded(ctx); err != nil {
		var zero T
		return zero, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data, l.err
}

// Close unsubscribes from the form and cancels any in-flight load.
func (l *Loader[T]) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	if l.cancel != nil {
		l.cancel()
	}
	if l.loading {
		l.loading = false
		close(l.settled)
	}
	l.mu.Unlock()

	l.param.Form().Off(l.sub)
	l.unregister()
}
