package binding

import (
	"github.com/goliatone/go-formflow/pkg/events"
	"github.com/goliatone/go-formflow/pkg/form"
)

// Watcher forwards form changes to a callback after evaluating dynamic
// properties.
type Watcher struct {
	form *form.Form
	sub  events.Subscription
}

// WatchForm calls Evaluate on every change and forwards to onFormChange
// only for passes where evaluation changed nothing. A pass that rewrote
// derived state publishes its own change event, which is forwarded instead.
func WatchForm(f *form.Form, onFormChange func(newValues, oldValues form.Values)) *Watcher {
	w := &Watcher{form: f}
	w.sub = f.On(form.EventChange, func(evt form.Event) {
		if f.Evaluate() {
			return
		}
		if onFormChange != nil {
			onFormChange(evt.NewValues, evt.OldValues)
		}
	})
	return w
}

// Close stops watching.
func (w *Watcher) Close() {
	w.form.Off(w.sub)
}
