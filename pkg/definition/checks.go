package definition

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// ErrInvalidValidator is returned for unknown validator types and bad
// parameters.
var ErrInvalidValidator = errors.New("definition: invalid validator")

const (
	CheckPattern   = "pattern"
	CheckMinLength = "minLength"
	CheckMaxLength = "maxLength"
	CheckMin       = "min"
	CheckMax       = "max"
	CheckOneOf     = "oneOf"
)

var defaultMessages = map[string]string{
	CheckPattern:   "{{ label }} is not in the expected format",
	CheckMinLength: "{{ label }} must be at least {{ param }} characters",
	CheckMaxLength: "{{ label }} must be at most {{ param }} characters",
	CheckMin:       "{{ label }} must be at least {{ param }}",
	CheckMax:       "{{ label }} must be at most {{ param }}",
	CheckOneOf:     "{{ label }} must be one of {{ param }}",
}

type check struct {
	kind    string
	pattern *regexp.Regexp
	limit   float64
	options []string
	display string
	message *pongo2.Template
}

func compileCheck(v Validator) (check, error) {
	c := check{kind: v.Type}
	switch v.Type {
	case CheckPattern:
		raw, ok := v.Value.(string)
		if !ok || raw == "" {
			return check{}, fmt.Errorf("%w: pattern needs a string value", ErrInvalidValidator)
		}
		re, err := regexp.Compile(raw)
		if err != nil {
			return check{}, fmt.Errorf("%w: pattern %q: %v", ErrInvalidValidator, raw, err)
		}
		c.pattern = re
		c.display = raw
	case CheckMinLength, CheckMaxLength:
		n, ok := form.ToFloat(v.Value)
		if !ok || n < 0 || n != float64(int(n)) {
			return check{}, fmt.Errorf("%w: %s needs a non-negative integer", ErrInvalidValidator, v.Type)
		}
		c.limit = n
		c.display = formatNumber(n)
	case CheckMin, CheckMax:
		n, ok := form.ToFloat(v.Value)
		if !ok {
			return check{}, fmt.Errorf("%w: %s needs a number", ErrInvalidValidator, v.Type)
		}
		c.limit = n
		c.display = formatNumber(n)
	case CheckOneOf:
		options := form.ToStrings(v.Value)
		if len(options) == 0 {
			return check{}, fmt.Errorf("%w: oneOf needs a non-empty list", ErrInvalidValidator)
		}
		c.options = options
		c.display = strings.Join(options, ", ")
	default:
		return check{}, fmt.Errorf("%w: unknown type %q", ErrInvalidValidator, v.Type)
	}

	source := v.Message
	if strings.TrimSpace(source) == "" {
		source = defaultMessages[v.Type]
	}
	tpl, err := compileTemplate(source)
	if err != nil {
		return check{}, fmt.Errorf("%w: message: %v", ErrInvalidValidator, err)
	}
	c.message = tpl
	return c, nil
}

// apply returns nil when value passes. Unset values always pass.
func (c check) apply(label, name string, value any) *validation.Status {
	if value == nil {
		return nil
	}
	if c.passes(value) {
		return nil
	}
	message := render(c.message, pongo2.Context{
		"label": capitalizeFirst(label),
		"name":  name,
		"value": displayValue(value),
		"param": c.display,
	})
	if message == "" {
		message = capitalizeFirst(label) + " is invalid"
	}
	return validation.Error(message).WithData(c.kind)
}

func (c check) passes(value any) bool {
	switch c.kind {
	case CheckPattern:
		text := displayValue(value)
		return text == "" || c.pattern.MatchString(text)
	case CheckMinLength:
		return float64(length(value)) >= c.limit
	case CheckMaxLength:
		return float64(length(value)) <= c.limit
	case CheckMin, CheckMax:
		n, ok := number(value)
		if !ok {
			return true
		}
		if c.kind == CheckMin {
			return n >= c.limit
		}
		return n <= c.limit
	case CheckOneOf:
		text := displayValue(value)
		for _, option := range c.options {
			if option == text {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func length(value any) int {
	switch v := value.(type) {
	case string:
		return utf8.RuneCountInString(v)
	case []string:
		return len(v)
	case []any:
		return len(v)
	default:
		return utf8.RuneCountInString(fmt.Sprint(v))
	}
}

func number(value any) (float64, bool) {
	if s, ok := value.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return form.ToFloat(value)
}

func displayValue(value any) string {
	if f, ok := form.ToFloat(value); ok {
		return formatNumber(f)
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// compileTemplate parses a message or label template with autoescaping
// disabled; output is plain text, never HTML.
func compileTemplate(source string) (*pongo2.Template, error) {
	return pongo2.FromString("{% autoescape off %}" + source + "{% endautoescape %}")
}

func render(tpl *pongo2.Template, ctx pongo2.Context) string {
	if tpl == nil {
		return ""
	}
	out, err := tpl.Execute(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}
