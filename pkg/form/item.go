package form

import "strings"

// ItemInit configures an inert entry such as a banner or a heading.
type ItemInit struct {
	Title       string
	Description string
	Hidden      bool
	Disabled    bool
	Dynamic     DynamicProperties
}

// Item is an entry without a value.
type Item struct {
	entryBase
}

// Title is an alias for Label.
func (i *Item) Title() string {
	return i.Label()
}

// AddItem registers an item directly on the form.
func (f *Form) AddItem(name string, init ItemInit) (*Item, error) {
	return addItem(f, nil, name, init)
}

// AddItem registers an item inside the section.
func (s *Section) AddItem(name string, init ItemInit) (*Item, error) {
	return addItem(s.form, s, name, init)
}

func addItem(f *Form, parent *Section, name string, init ItemInit) (*Item, error) {
	if f == nil {
		return nil, ErrNilContainer
	}
	item := &Item{entryBase: entryBase{
		name:        strings.TrimSpace(name),
		form:        f,
		parent:      parent,
		label:       init.Title,
		description: init.Description,
		hidden:      init.Hidden,
		disabled:    init.Disabled,
		dynamic:     init.Dynamic,
	}}
	if err := f.register(item, parent); err != nil {
		return nil, err
	}
	return item, nil
}
