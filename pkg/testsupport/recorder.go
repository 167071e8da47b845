package testsupport

import (
	"context"
	"sync"

	"github.com/goliatone/go-formflow/pkg/events"
	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// Recorder collects the events a form publishes.
type Recorder struct {
	mu     sync.Mutex
	events []form.Event
	notify chan struct{}
	subs   []events.Subscription
	form   *form.Form
}

// Record subscribes to change and validate events of f until Stop.
func Record(f *form.Form) *Recorder {
	r := &Recorder{form: f, notify: make(chan struct{}, 1)}
	for _, name := range []events.Name{form.EventChange, form.EventValidate} {
		r.subs = append(r.subs, f.On(name, r.handle))
	}
	return r
}

func (r *Recorder) handle(evt form.Event) {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Stop unsubscribes.
func (r *Recorder) Stop() {
	for _, sub := range r.subs {
		r.form.Off(sub)
	}
	r.subs = nil
}

// Events returns every recorded event in publish order.
func (r *Recorder) Events() []form.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]form.Event(nil), r.events...)
}

// Names returns the names of recorded events in publish order.
func (r *Recorder) Names() []events.Name {
	var out []events.Name
	for _, evt := range r.Events() {
		out = append(out, evt.Name)
	}
	return out
}

// Changes returns the new bag of every change event.
func (r *Recorder) Changes() []form.Values {
	var out []form.Values
	for _, evt := range r.Events() {
		if evt.Name == form.EventChange {
			out = append(out, evt.NewValues)
		}
	}
	return out
}

// Snapshots returns the snapshot of every validate event.
func (r *Recorder) Snapshots() []validation.Snapshot {
	var out []validation.Snapshot
	for _, evt := range r.Events() {
		if evt.Name == form.EventValidate {
			out = append(out, evt.Snapshot)
		}
	}
	return out
}

// WaitFor blocks until at least n events have been recorded.
func (r *Recorder) WaitFor(ctx context.Context, n int) error {
	for {
		r.mu.Lock()
		count := len(r.events)
		r.mu.Unlock()
		if count >= n {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.notify:
		}
	}
}
