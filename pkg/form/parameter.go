package form

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/goliatone/go-formflow/pkg/validation"
)

// Parameter is a named, valued field. Kinds embed *BaseParameter and may
// override ValidateSync or ValidateAsync; the form always dispatches through
// the value returned by the kind's constructor.
type Parameter interface {
	Entry
	Kind() string
	Value() any
	SetValue(value any)
	Placeholder() string
	Required() bool
	HideLabel() bool
	Dependencies() map[string]string
	DependencyValue(role string) any
	DependencyString(role string) string
	ValidateSync(ctx context.Context) *validation.Status
	ValidateAsync(ctx context.Context) (*validation.Status, error)
	ValidationStatus() *validation.Status
	WaitForLoad(ctx context.Context) error
	RegisterLoader(waiter LoadWaiter) (unregister func())
	Logger() *slog.Logger
}

// LoadWaiter is a pending data load attached to a parameter. Async
// validation waits on every registered waiter before validating.
type LoadWaiter interface {
	WaitLoaded(ctx context.Context) error
}

// ParamInit configures a parameter at declaration time.
type ParamInit struct {
	Label        string
	Description  string
	Placeholder  string
	Required     bool
	Disabled     bool
	Hidden       bool
	HideLabel    bool
	Value        any
	Dependencies map[string]string
	Dynamic      DynamicProperties

	OnValidateSync  func(value any) *validation.Status
	OnValidateAsync func(ctx context.Context, value any) (*validation.Status, error)
}

// BaseParameter implements Parameter. It is meant to be embedded.
type BaseParameter struct {
	entryBase
	placeholder  string
	required     bool
	hideLabel    bool
	dependencies map[string]string

	onValidateSync  func(value any) *validation.Status
	onValidateAsync func(ctx context.Context, value any) (*validation.Status, error)

	logger *slog.Logger

	waitersMu  sync.Mutex
	waiters    []registeredWaiter
	nextWaiter uint64
}

type registeredWaiter struct {
	id     uint64
	waiter LoadWaiter
}

// Param declares a parameter on c, which must be a *Form or a *Section. The
// value returned by ctor is what the form registers and validates. If
// registration fails and the value has a Close method, it is closed.
func Param[P Parameter](c Container, name string, ctor func(*BaseParameter) P, init ParamInit) (P, error) {
	var zero P
	if c == nil {
		return zero, ErrNilContainer
	}
	f, section := c.target()
	if f == nil {
		return zero, ErrNilContainer
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return zero, ErrInvalidName
	}
	if ctor == nil {
		return zero, fmt.Errorf("form: constructor required for parameter %q", name)
	}

	deps := make(map[string]string, len(init.Dependencies))
	for role, sibling := range init.Dependencies {
		deps[strings.TrimSpace(role)] = strings.TrimSpace(sibling)
	}
	base := &BaseParameter{
		entryBase: entryBase{
			name:        name,
			form:        f,
			parent:      section,
			label:       init.Label,
			description: init.Description,
			hidden:      init.Hidden,
			disabled:    init.Disabled,
			dynamic:     init.Dynamic,
		},
		placeholder:     init.Placeholder,
		required:        init.Required,
		hideLabel:       init.HideLabel,
		dependencies:    deps,
		onValidateSync:  init.OnValidateSync,
		onValidateAsync: init.OnValidateAsync,
		logger:          f.logger.With("parameter", name),
	}
	param := ctor(base)
	if err := f.register(param, section); err != nil {
		if closer, ok := any(param).(interface{ Close() }); ok {
			closer.Close()
		}
		return zero, err
	}
	if init.Value != nil {
		param.SetValue(init.Value)
	}
	return param, nil
}

// MustParam is Param that panics on error.
func MustParam[P Parameter](c Container, name string, ctor func(*BaseParameter) P, init ParamInit) P {
	param, err := Param(c, name, ctor, init)
	if err != nil {
		panic(err)
	}
	return param
}

// StandaloneName is the field name used by Standalone.
const StandaloneName = "value"

// Standalone wraps a single value in a private one-field form and returns
// the parameter bound to it.
func Standalone[P Parameter](ctor func(*BaseParameter) P, init ParamInit, opts ...Option) P {
	f := New(Values{StandaloneName: init.Value}, opts...)
	init.Value = nil
	return MustParam(f, StandaloneName, ctor, init)
}

// Kind names the parameter type. Kinds override it.
func (p *BaseParameter) Kind() string {
	return "parameter"
}

// Logger is scoped to the parameter name.
func (p *BaseParameter) Logger() *slog.Logger {
	return p.logger
}

// Value reads the parameter's key from the form's current bag.
func (p *BaseParameter) Value() any {
	return p.form.Value(p.name)
}

// SetValue assigns through the form. It never validates and never fails.
func (p *BaseParameter) SetValue(value any) {
	p.form.UpdateValue(p.name, value)
}

func (p *BaseParameter) Placeholder() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.placeholder
}

func (p *BaseParameter) SetPlaceholder(placeholder string) {
	p.mu.Lock()
	p.placeholder = placeholder
	p.mu.Unlock()
}

func (p *BaseParameter) Required() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.required
}

func (p *BaseParameter) SetRequired(required bool) {
	p.mu.Lock()
	p.required = required
	p.mu.Unlock()
}

func (p *BaseParameter) HideLabel() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.hideLabel
}

func (p *BaseParameter) SetHideLabel(hide bool) {
	p.mu.Lock()
	p.hideLabel = hide
	p.mu.Unlock()
}

// Dependencies maps dependency roles to sibling field names.
func (p *BaseParameter) Dependencies() map[string]string {
	out := make(map[string]string, len(p.dependencies))
	for role, sibling := range p.dependencies {
		out[role] = sibling
	}
	return out
}

// DependencyValue reads the sibling bound to role. An undeclared role is
// logged and yields nil; a declared role pointing at a missing sibling also
// yields nil.
func (p *BaseParameter) DependencyValue(role string) any {
	sibling, ok := p.dependencies[role]
	if !ok || sibling == "" {
		p.logger.Error("missing dependency", "role", role)
		return nil
	}
	return p.form.Value(sibling)
}

// DependencyString is DependencyValue as a string. Non-string values are
// converted and logged.
func (p *BaseParameter) DependencyString(role string) string {
	value := p.DependencyValue(role)
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	p.logger.Warn("dependency is not a string", "role", role)
	return fmt.Sprint(value)
}

// ValidateSync checks required-ness, then the OnValidateSync callback.
func (p *BaseParameter) ValidateSync(_ context.Context) *validation.Status {
	value := p.Value()
	if p.Required() && value == nil {
		return validation.Error(capitalizeFirst(p.Label()) + " is required").WithData("required")
	}
	if p.onValidateSync != nil {
		if status := p.onValidateSync(value); status != nil {
			return status
		}
	}
	return validation.OK()
}

// ValidateAsync runs the OnValidateAsync callback, if any.
func (p *BaseParameter) ValidateAsync(ctx context.Context) (*validation.Status, error) {
	if p.onValidateAsync == nil {
		return validation.OK(), nil
	}
	status, err := p.onValidateAsync(ctx, p.Value())
	if err != nil {
		return nil, err
	}
	if status == nil {
		return validation.OK(), nil
	}
	return status, nil
}

// ValidationStatus is the parameter's entry in the form's current snapshot.
func (p *BaseParameter) ValidationStatus() *validation.Status {
	return p.form.EntryValidationStatus(p.name)
}

// RegisterLoader attaches a pending-load source. The returned func detaches it.
func (p *BaseParameter) RegisterLoader(waiter LoadWaiter) func() {
	if waiter == nil {
		return func() {}
	}
	p.waitersMu.Lock()
	p.nextWaiter++
	id := p.nextWaiter
	p.waiters = append(p.waiters, registeredWaiter{id: id, waiter: waiter})
	p.waitersMu.Unlock()

	return func() {
		p.waitersMu.Lock()
		defer p.waitersMu.Unlock()
		for i, w := range p.waiters {
			if w.id == id {
				p.waiters = append(p.waiters[:i:i], p.waiters[i+1:]...)
				return
			}
		}
	}
}

// WaitForLoad blocks until every registered loader has settled.
func (p *BaseParameter) WaitForLoad(ctx context.Context) error {
	p.waitersMu.Lock()
	waiters := append([]registeredWaiter(nil), p.waiters...)
	p.waitersMu.Unlock()
	for _, w := range waiters {
		if err := w.waiter.WaitLoaded(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (p *BaseParameter) evaluate(values Values) (any, bool, bool) {
	changed := p.evaluateCommon(values)
	d := p.dynamic
	placeholder := evalProp(d.Placeholder, values)
	required := evalProp(d.Required, values)
	hideLabel := evalProp(d.HideLabel, values)

	p.mu.Lock()
	changed = assign(&p.placeholder, placeholder) || changed
	changed = assign(&p.required, required) || changed
	changed = assign(&p.hideLabel, hideLabel) || changed
	p.mu.Unlock()

	value, rewrite := p.evaluateValue(values)
	return value, rewrite, changed
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
