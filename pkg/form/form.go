package form

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-formflow/pkg/events"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// Form owns a value bag, the entries declared against it and the most
// recent validation snapshot. All mutation goes through SetValues and
// UpdateValue; handlers run without any form lock held and may mutate the
// form again.
type Form struct {
	id     string
	cfg    config
	logger *slog.Logger
	bus    *events.Bus[Event]

	mu       sync.RWMutex
	values   Values
	initial  Values
	all      []Entry
	byName   map[string]Entry
	children []Entry

	snapshot  *validation.Snapshot
	forced    *validation.Status
	state     ValidationState
	runCancel context.CancelFunc
	runForced bool
}

var _ Container = (*Form)(nil)

// New creates a form holding values. A deep copy of values is kept for Reset.
func New(values Values, opts ...Option) *Form {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if values == nil {
		values = Values{}
	}
	f := &Form{
		id:      uuid.NewString(),
		cfg:     cfg,
		bus:     events.New[Event](),
		values:  values.Clone(),
		initial: values.DeepClone(),
		byName:  make(map[string]Entry),
	}
	f.logger = cfg.logger.With("form", f.id)
	f.snapshot = validation.NewInitialSnapshot(f.values)
	return f
}

func (f *Form) target() (*Form, *Section) {
	return f, nil
}

// ID is a random identifier attached to log lines.
func (f *Form) ID() string {
	return f.id
}

func (f *Form) Title() string {
	return f.cfg.title
}

func (f *Form) Description() string {
	return f.cfg.description
}

// Logger returns the form's logger.
func (f *Form) Logger() *slog.Logger {
	return f.logger
}

// Values returns the current bag. The bag is replaced, never modified, so
// the result stays stable after later changes.
func (f *Form) Values() Values {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values
}

// Value returns a single field from the current bag.
func (f *Form) Value(name string) any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values[name]
}

// SetValues replaces the whole bag. Passing a bag equal to the current one
// is a no-op.
func (f *Form) SetValues(values Values) {
	next := values.Clone()
	f.mu.Lock()
	old := f.values
	if old.Equal(next) {
		f.mu.Unlock()
		return
	}
	f.values = next
	f.mu.Unlock()
	f.valuesChanged(next, old)
}

// UpdateValue replaces a single key. Assigning a value deep-equal to the
// current one is a no-op: no new bag is built and no event fires.
func (f *Form) UpdateValue(name string, value any) {
	f.mu.Lock()
	old := f.values
	if reflect.DeepEqual(old[name], value) {
		f.mu.Unlock()
		return
	}
	next := old.Clone()
	next[name] = value
	f.values = next
	f.mu.Unlock()
	f.valuesChanged(next, old)
}

// Reset restores the values the form was created with.
func (f *Form) Reset() {
	f.SetValues(f.initial.DeepClone())
}

func (f *Form) valuesChanged(next, old Values) {
	if evaluated, changed := f.evaluate(); changed {
		next = evaluated
	}
	f.bus.Publish(EventChange, Event{Name: EventChange, NewValues: next, OldValues: old})
	if f.cfg.validateOnChange {
		run := f.beginValidation(context.Background(), ValidateOptions{})
		go func() {
			if _, err := f.finishValidation(run); err != nil {
				f.logger.Debug("background validation stopped", "error", err)
			}
		}()
	}
}

// On registers a handler for a form event.
func (f *Form) On(name events.Name, handler EventHandler) events.Subscription {
	return f.bus.On(name, handler)
}

// Off removes a handler registered with On. Unknown subscriptions are ignored.
func (f *Form) Off(sub events.Subscription) {
	f.bus.Off(sub)
}

// OnChange is a typed shortcut for change events.
func (f *Form) OnChange(fn func(newValues, oldValues Values)) events.Subscription {
	if fn == nil {
		return events.Subscription{}
	}
	return f.bus.On(EventChange, func(evt Event) {
		fn(evt.NewValues, evt.OldValues)
	})
}

// OnValidate is a typed shortcut for validate events.
func (f *Form) OnValidate(fn func(validation.Snapshot)) events.Subscription {
	if fn == nil {
		return events.Subscription{}
	}
	return f.bus.On(EventValidate, func(evt Event) {
		fn(evt.Snapshot)
	})
}

func (f *Form) register(entry Entry, parent *Section) error {
	name := entry.Name()
	if name == "" {
		return ErrInvalidName
	}
	if parent != nil && parent.form != f {
		return fmt.Errorf("form: section %q belongs to another form", parent.name)
	}
	f.mu.Lock()
	if _, exists := f.byName[name]; exists {
		f.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateEntry, name)
	}
	f.byName[name] = entry
	f.all = append(f.all, entry)
	if parent == nil {
		f.children = append(f.children, entry)
	}
	f.mu.Unlock()
	if parent != nil {
		parent.addChild(entry)
	}
	return nil
}

// AllEntries returns every entry, nested ones included, in declaration
// order. Entries of child forms behind a SubForm are not included.
func (f *Form) AllEntries() []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Entry(nil), f.all...)
}

// ChildEntries returns the entries declared directly on the form.
func (f *Form) ChildEntries() []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Entry(nil), f.children...)
}

func (f *Form) AllEntriesCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.all)
}

func (f *Form) ChildEntriesCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.children)
}

// Entry looks up any entry by name.
func (f *Form) Entry(name string) (Entry, error) {
	name = strings.TrimSpace(name)
	f.mu.RLock()
	entry, ok := f.byName[name]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEntryNotFound, name)
	}
	return entry, nil
}

// Parameter looks up a parameter by name.
func (f *Form) Parameter(name string) (Parameter, error) {
	entry, err := f.Entry(name)
	if err != nil {
		return nil, err
	}
	param, ok := entry.(Parameter)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotParameter, name)
	}
	return param, nil
}

// Section looks up a section by name.
func (f *Form) Section(name string) (*Section, error) {
	entry, err := f.Entry(name)
	if err != nil {
		return nil, err
	}
	section, ok := entry.(*Section)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotSection, name)
	}
	return section, nil
}

// SubForm looks up a sub-form by name.
func (f *Form) SubForm(name string) (*SubForm, error) {
	entry, err := f.Entry(name)
	if err != nil {
		return nil, err
	}
	sub, ok := entry.(*SubForm)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotSubForm, name)
	}
	return sub, nil
}
