// Package resolver picks the control a renderer should draw for each
// parameter.
package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formflow/pkg/arm"
	"github.com/goliatone/go-formflow/pkg/form"
)

// Built-in control identifiers.
const (
	ControlText     = "text"
	ControlNumber   = "number"
	ControlToggle   = "toggle"
	ControlList     = "list"
	ControlDropdown = "dropdown"
	ControlComboBox = "combobox"
)

// ErrNoControl is returned when no matcher accepts a parameter.
var ErrNoControl = errors.New("resolver: no control for parameter")

// Matcher decides whether a control should render the parameter.
type Matcher func(param form.Parameter) bool

// Hinted parameters name their control explicitly.
type Hinted interface {
	Control() string
}

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Resolver selects controls from explicit hints or registered matchers.
// Higher priority wins; ties fall back to registration order.
type Resolver struct {
	mu    sync.RWMutex
	rules []rule
}

// New returns a resolver with the built-in matchers registered.
func New() *Resolver {
	r := &Resolver{}
	r.registerBuiltins()
	return r
}

// Register adds a matcher. Blank names and nil matchers are ignored.
func (r *Resolver) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the control name for param.
func (r *Resolver) Resolve(param form.Parameter) (string, error) {
	if param == nil {
		return "", fmt.Errorf("%w: nil parameter", ErrNoControl)
	}
	if hinted, ok := param.(Hinted); ok {
		if control := strings.TrimSpace(hinted.Control()); control != "" {
			return control, nil
		}
	}
	if r != nil {
		r.mu.RLock()
		rules := append([]rule(nil), r.rules...)
		r.mu.RUnlock()
		sort.SliceStable(rules, func(i, j int) bool {
			if rules[i].priority == rules[j].priority {
				return rules[i].order < rules[j].order
			}
			return rules[i].priority > rules[j].priority
		})
		for _, entry := range rules {
			if entry.match(param) {
				return entry.name, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q of kind %q", ErrNoControl, param.Name(), param.Kind())
}

// MustResolve is Resolve that panics on error.
func (r *Resolver) MustResolve(param form.Parameter) string {
	control, err := r.Resolve(param)
	if err != nil {
		panic(err)
	}
	return control
}

// Controls resolves every parameter of f, keyed by name.
func (r *Resolver) Controls(f *form.Form) (map[string]string, error) {
	out := make(map[string]string)
	for _, entry := range f.AllEntries() {
		param, ok := entry.(form.Parameter)
		if !ok {
			continue
		}
		control, err := r.Resolve(param)
		if err != nil {
			return nil, err
		}
		out[param.Name()] = control
	}
	return out, nil
}

func kindIs(kinds ...string) Matcher {
	return func(param form.Parameter) bool {
		for _, kind := range kinds {
			if param.Kind() == kind {
				return true
			}
		}
		return false
	}
}

func (r *Resolver) registerBuiltins() {
	r.Register(ControlToggle, 90, kindIs("boolean"))
	r.Register(ControlList, 80, kindIs("stringList"))
	r.Register(ControlDropdown, 70, kindIs(arm.KindSubscription, arm.KindStorageAccount))
	r.Register(ControlComboBox, 70, kindIs(arm.KindResourceGroup, arm.KindLocation))
	r.Register(ControlNumber, 60, kindIs("number"))
	r.Register(ControlText, 10, kindIs("string"))
}
