package form

import "fmt"

// StringListParameter holds a []string and always presents exactly one
// trailing empty slot for the next item.
type StringListParameter struct {
	*BaseParameter
}

func NewStringList(base *BaseParameter) *StringListParameter {
	return &StringListParameter{BaseParameter: base}
}

func (p *StringListParameter) Kind() string { return "stringList" }

// Strings returns the stored items. A scalar value is read as a one-item
// list.
func (p *StringListParameter) Strings() []string {
	value := p.Value()
	switch value.(type) {
	case nil, []string, []any:
	default:
		p.Logger().Warn("string list holds a scalar value", "type", fmt.Sprintf("%T", value))
	}
	return ToStrings(value)
}

// Items returns the stored items followed by the empty trailing slot.
func (p *StringListParameter) Items() []string {
	return append(p.Strings(), "")
}

// EditItem replaces item i. Editing the trailing slot with non-empty text
// appends it, which opens a new trailing slot. Clearing the last stored item
// removes it, so only one empty slot ever trails the list.
func (p *StringListParameter) EditItem(i int, text string) error {
	items := p.Strings()
	switch {
	case i < 0 || i > len(items):
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	case i == len(items):
		if text == "" {
			return nil
		}
		items = append(items, text)
	default:
		items[i] = text
	}
	p.SetValue(trimTrailingEmpty(items))
	return nil
}

// DeleteItem removes item i. Deleting the trailing slot is a no-op.
func (p *StringListParameter) DeleteItem(i int) error {
	items := p.Strings()
	switch {
	case i < 0 || i > len(items):
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	case i == len(items):
		return nil
	}
	p.SetValue(append(items[:i:i], items[i+1:]...))
	return nil
}

func trimTrailingEmpty(items []string) []string {
	end := len(items)
	for end > 0 && items[end-1] == "" {
		end--
	}
	return items[:end]
}
