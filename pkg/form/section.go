package form

import "strings"

// Container is where new entries are declared: a *Form or a *Section.
type Container interface {
	target() (*Form, *Section)
}

// SectionInit configures a section.
type SectionInit struct {
	Label       string
	Description string
	Hidden      bool
	Disabled    bool
	Expanded    bool
	Dynamic     DynamicProperties
}

// Section groups entries. Hidden and Disabled cascade to every nested entry;
// Expanded cascades to nested sections only.
type Section struct {
	entryBase
	expanded bool
	children []Entry
}

func (s *Section) target() (*Form, *Section) {
	if s == nil {
		return nil, nil
	}
	return s.form, s
}

// Expanded is true when the section or any enclosing section is expanded.
func (s *Section) Expanded() bool {
	s.mu.RLock()
	expanded := s.expanded
	s.mu.RUnlock()
	return expanded || (s.parent != nil && s.parent.Expanded())
}

func (s *Section) SetExpanded(expanded bool) {
	s.mu.Lock()
	s.expanded = expanded
	s.mu.Unlock()
}

// ChildEntries returns direct children in declaration order.
func (s *Section) ChildEntries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.children...)
}

func (s *Section) ChildEntriesCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.children)
}

// AddSection declares a nested section.
func (s *Section) AddSection(name string, init SectionInit) (*Section, error) {
	return addSection(s.form, s, name, init)
}

// AddSection declares a top-level section.
func (f *Form) AddSection(name string, init SectionInit) (*Section, error) {
	return addSection(f, nil, name, init)
}

func (s *Section) addChild(entry Entry) {
	s.mu.Lock()
	s.children = append(s.children, entry)
	s.mu.Unlock()
}

func (s *Section) evaluate(values Values) (any, bool, bool) {
	changed := s.evaluateCommon(values)
	expanded := evalProp(s.dynamic.Expanded, values)
	s.mu.Lock()
	changed = assign(&s.expanded, expanded) || changed
	s.mu.Unlock()
	return nil, false, changed
}

func addSection(f *Form, parent *Section, name string, init SectionInit) (*Section, error) {
	if f == nil {
		return nil, ErrNilContainer
	}
	section := &Section{
		entryBase: entryBase{
			name:        strings.TrimSpace(name),
			form:        f,
			parent:      parent,
			label:       init.Label,
			description: init.Description,
			hidden:      init.Hidden,
			disabled:    init.Disabled,
			dynamic:     init.Dynamic,
		},
		expanded: init.Expanded,
	}
	if err := f.register(section, parent); err != nil {
		return nil, err
	}
	return section, nil
}
