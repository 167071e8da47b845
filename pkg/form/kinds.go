package form

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-formflow/pkg/validation"
)

// StringParameter holds free text.
type StringParameter struct {
	*BaseParameter
}

// NewString is the constructor passed to Param.
func NewString(base *BaseParameter) *StringParameter {
	return &StringParameter{BaseParameter: base}
}

func (p *StringParameter) Kind() string { return "string" }

// String returns the value, or "" when unset or not a string.
func (p *StringParameter) String() string {
	s, _ := p.Value().(string)
	return s
}

// NumberParameter holds a float64. Other numeric types are accepted and
// coerced on read.
type NumberParameter struct {
	*BaseParameter
}

func NewNumber(base *BaseParameter) *NumberParameter {
	return &NumberParameter{BaseParameter: base}
}

func (p *NumberParameter) Kind() string { return "number" }

// Number returns the coerced value and whether it was numeric.
func (p *NumberParameter) Number() (float64, bool) {
	return ToFloat(p.Value())
}

// ValidateSync adds a type check after the base checks.
func (p *NumberParameter) ValidateSync(ctx context.Context) *validation.Status {
	status := p.BaseParameter.ValidateSync(ctx)
	if !status.IsOK() {
		return status
	}
	if value := p.Value(); value != nil {
		if _, ok := ToFloat(value); !ok {
			return validation.Errorf("%s must be a number", capitalizeFirst(p.Label())).WithData("invalid")
		}
	}
	return status
}

// BooleanParameter holds a bool.
type BooleanParameter struct {
	*BaseParameter
}

func NewBoolean(base *BaseParameter) *BooleanParameter {
	return &BooleanParameter{BaseParameter: base}
}

func (p *BooleanParameter) Kind() string { return "boolean" }

// Checked returns the value, or false when unset.
func (p *BooleanParameter) Checked() bool {
	b, _ := p.Value().(bool)
	return b
}

// ToFloat coerces Go numeric types and json.Number to float64.
func ToFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ToStrings normalises list values decoded from JSON, YAML or TOML. A scalar
// becomes a one-item list.
func ToStrings(value any) []string {
	switch typed := value.(type) {
	case nil:
		return nil
	case []string:
		return append([]string(nil), typed...)
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	case string:
		return []string{typed}
	default:
		return []string{fmt.Sprint(typed)}
	}
}
