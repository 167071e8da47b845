package form

import (
	"reflect"
	"sync"
)

// Entry is anything registered on a form: parameters, sections, sub-forms
// and inert items. Entries are only created through this package.
type Entry interface {
	Name() string
	Form() *Form
	Parent() *Section
	Label() string
	Description() string
	Hidden() bool
	Disabled() bool

	// evaluate applies dynamic properties against values. When the entry
	// computes its own value, rewrite is true and value holds the result.
	evaluate(values Values) (value any, rewrite bool, changed bool)
}

// DynamicProperties recompute entry metadata from the current values bag.
// Unset functions leave the corresponding property alone. Functions run on
// every value change and must not mutate the form.
type DynamicProperties struct {
	Value       func(Values) any
	Label       func(Values) string
	Description func(Values) string
	Placeholder func(Values) string
	Hidden      func(Values) bool
	Disabled    func(Values) bool
	Required    func(Values) bool
	HideLabel   func(Values) bool
	Expanded    func(Values) bool
}

type entryBase struct {
	mu          sync.RWMutex
	name        string
	form        *Form
	parent      *Section
	label       string
	description string
	hidden      bool
	disabled    bool
	dynamic     DynamicProperties
}

func (e *entryBase) Name() string {
	return e.name
}

func (e *entryBase) Form() *Form {
	return e.form
}

func (e *entryBase) Parent() *Section {
	return e.parent
}

// Label defaults to the entry name.
func (e *entryBase) Label() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.label == "" {
		return e.name
	}
	return e.label
}

func (e *entryBase) SetLabel(label string) {
	e.mu.Lock()
	e.label = label
	e.mu.Unlock()
}

func (e *entryBase) Description() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.description
}

func (e *entryBase) SetDescription(description string) {
	e.mu.Lock()
	e.description = description
	e.mu.Unlock()
}

// Hidden is true when the entry or any enclosing section is hidden.
func (e *entryBase) Hidden() bool {
	e.mu.RLock()
	hidden := e.hidden
	e.mu.RUnlock()
	return hidden || (e.parent != nil && e.parent.Hidden())
}

func (e *entryBase) SetHidden(hidden bool) {
	e.mu.Lock()
	e.hidden = hidden
	e.mu.Unlock()
}

// Disabled is true when the entry or any enclosing section is disabled.
func (e *entryBase) Disabled() bool {
	e.mu.RLock()
	disabled := e.disabled
	e.mu.RUnlock()
	return disabled || (e.parent != nil && e.parent.Disabled())
}

func (e *entryBase) SetDisabled(disabled bool) {
	e.mu.Lock()
	e.disabled = disabled
	e.mu.Unlock()
}

func (e *entryBase) evaluate(values Values) (any, bool, bool) {
	return nil, false, e.evaluateCommon(values)
}

func (e *entryBase) evaluateCommon(values Values) bool {
	d := e.dynamic
	label := evalProp(d.Label, values)
	description := evalProp(d.Description, values)
	hidden := evalProp(d.Hidden, values)
	disabled := evalProp(d.Disabled, values)

	e.mu.Lock()
	defer e.mu.Unlock()
	changed := assign(&e.label, label)
	changed = assign(&e.description, description) || changed
	changed = assign(&e.hidden, hidden) || changed
	changed = assign(&e.disabled, disabled) || changed
	return changed
}

// evaluateValue runs a dynamic Value function and reports a rewrite only
// when the result differs from the stored value.
func (e *entryBase) evaluateValue(values Values) (any, bool) {
	if e.dynamic.Value == nil {
		return nil, false
	}
	next := e.dynamic.Value(values)
	if reflect.DeepEqual(values[e.name], next) {
		return nil, false
	}
	return next, true
}

func evalProp[T any](fn func(Values) T, values Values) *T {
	if fn == nil {
		return nil
	}
	v := fn(values)
	return &v
}

func assign[T comparable](dst *T, src *T) bool {
	if src == nil || *dst == *src {
		return false
	}
	*dst = *src
	return true
}
