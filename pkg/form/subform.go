package form

import (
	"strings"

	"github.com/goliatone/go-formflow/pkg/events"
)

// SubFormInit configures a sub-form entry.
type SubFormInit struct {
	Title       string
	Description string
	Hidden      bool
	Disabled    bool
	Expanded    bool
	Dynamic     DynamicProperties
}

// SubForm nests a child form under one key of the parent bag. The parent's
// value for that key always mirrors the child's current values: child
// changes are pushed up through UpdateValue and parent assignments to the
// key are pushed down through SetValues.
type SubForm struct {
	entryBase
	child    *Form
	expanded bool

	childSub  events.Subscription
	parentSub events.Subscription
}

// AddSubForm nests child under name.
func (f *Form) AddSubForm(name string, child *Form, init SubFormInit) (*SubForm, error) {
	return addSubForm(f, nil, name, child, init)
}

// AddSubForm nests child under name inside the section.
func (s *Section) AddSubForm(name string, child *Form, init SubFormInit) (*SubForm, error) {
	return addSubForm(s.form, s, name, child, init)
}

func addSubForm(f *Form, parent *Section, name string, child *Form, init SubFormInit) (*SubForm, error) {
	if f == nil || child == nil {
		return nil, ErrNilContainer
	}
	sub := &SubForm{
		entryBase: entryBase{
			name:        strings.TrimSpace(name),
			form:        f,
			parent:      parent,
			label:       init.Title,
			description: init.Description,
			hidden:      init.Hidden,
			disabled:    init.Disabled,
			dynamic:     init.Dynamic,
		},
		child:    child,
		expanded: init.Expanded,
	}
	if err := f.register(sub, parent); err != nil {
		return nil, err
	}
	f.UpdateValue(sub.name, child.Values())

	sub.childSub = child.OnChange(func(newValues, _ Values) {
		f.UpdateValue(sub.name, newValues)
	})
	sub.parentSub = f.OnChange(func(newValues, _ Values) {
		next, ok := asValues(newValues[sub.name])
		if !ok || next.Equal(child.Values()) {
			return
		}
		child.SetValues(next)
	})
	return sub, nil
}

// Child returns the nested form.
func (s *SubForm) Child() *Form {
	return s.child
}

// Title is an alias for Label.
func (s *SubForm) Title() string {
	return s.Label()
}

// Value is the parent's copy of the child values.
func (s *SubForm) Value() Values {
	v, _ := asValues(s.form.Value(s.name))
	return v
}

// Values is the child's current bag.
func (s *SubForm) Values() Values {
	return s.child.Values()
}

func (s *SubForm) Expanded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expanded
}

func (s *SubForm) SetExpanded(expanded bool) {
	s.mu.Lock()
	s.expanded = expanded
	s.mu.Unlock()
}

func (s *SubForm) ChildEntriesCount() int {
	return s.child.ChildEntriesCount()
}

func (s *SubForm) AllEntriesCount() int {
	return s.child.AllEntriesCount()
}

// Detach stops mirroring values between the parent and child forms.
func (s *SubForm) Detach() {
	s.child.Off(s.childSub)
	s.form.Off(s.parentSub)
}

func (s *SubForm) evaluate(values Values) (any, bool, bool) {
	changed := s.evaluateCommon(values)
	expanded := evalProp(s.dynamic.Expanded, values)
	s.mu.Lock()
	changed = assign(&s.expanded, expanded) || changed
	s.mu.Unlock()
	value, rewrite := s.evaluateValue(values)
	return value, rewrite, changed
}

func asValues(value any) (Values, bool) {
	switch typed := value.(type) {
	case Values:
		return typed, true
	case map[string]any:
		return Values(typed), true
	default:
		return nil, false
	}
}
