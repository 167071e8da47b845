package form

import "reflect"

// Values is a form's value bag keyed by field name. A form never mutates a
// bag it has published; every change builds a new bag and swaps it in, so a
// Values obtained from a form or an event can be read freely but must not be
// written to.
type Values map[string]any

// Get returns the value stored under name. A missing key reads as nil.
func (v Values) Get(name string) (any, bool) {
	if v == nil {
		return nil, false
	}
	value, ok := v[name]
	return value, ok
}

// String returns the value under name when it holds a string.
func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

// Clone copies the top-level map. Nested values are shared.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, value := range v {
		out[k] = value
	}
	return out
}

// DeepClone copies the bag along with any nested maps and slices.
func (v Values) DeepClone() Values {
	out := make(Values, len(v))
	for k, value := range v {
		out[k] = deepCopy(value)
	}
	return out
}

// Equal reports whether two bags hold deep-equal values.
func (v Values) Equal(other Values) bool {
	if len(v) != len(other) {
		return false
	}
	for k, value := range v {
		o, ok := other[k]
		if !ok || !reflect.DeepEqual(value, o) {
			return false
		}
	}
	return true
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case Values:
		return typed.DeepClone()
	case map[string]any:
		return map[string]any(Values(typed).DeepClone())
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = deepCopy(item)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	case []float64:
		return append([]float64(nil), typed...)
	case []int:
		return append([]int(nil), typed...)
	case map[string]string:
		out := make(map[string]string, len(typed))
		for k, item := range typed {
			out[k] = item
		}
		return out
	default:
		return value
	}
}
