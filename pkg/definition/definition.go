package definition

import (
	"fmt"
	"html"
	"os"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formflow/pkg/codec"
)

// Format names a definition encoding.
type Format = codec.Format

const (
	FormatYAML = codec.YAML
	FormatTOML = codec.TOML
	FormatJSON = codec.JSON
)

// ErrUnknownFormat is returned for encodings other than YAML, TOML and JSON.
var ErrUnknownFormat = codec.ErrUnknownFormat

// Definition is a declarative form.
type Definition struct {
	Title       string         `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Values      map[string]any `json:"values,omitempty" yaml:"values,omitempty" toml:"values,omitempty"`
	Fields      []Field        `json:"fields" yaml:"fields" toml:"fields"`
}

// Field declares one parameter.
type Field struct {
	Name        string            `json:"name" yaml:"name" toml:"name"`
	Kind        string            `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	Label       string            `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Placeholder string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty" toml:"placeholder,omitempty"`
	Required    bool              `json:"required,omitempty" yaml:"required,omitempty" toml:"required,omitempty"`
	Disabled    bool              `json:"disabled,omitempty" yaml:"disabled,omitempty" toml:"disabled,omitempty"`
	Hidden      bool              `json:"hidden,omitempty" yaml:"hidden,omitempty" toml:"hidden,omitempty"`
	HideLabel   bool              `json:"hideLabel,omitempty" yaml:"hideLabel,omitempty" toml:"hideLabel,omitempty"`
	Section     string            `json:"section,omitempty" yaml:"section,omitempty" toml:"section,omitempty"`
	Default     any               `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
	DependsOn   map[string]string `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty" toml:"dependsOn,omitempty"`
	Rules       Rules             `json:"rules,omitempty" yaml:"rules,omitempty" toml:"rules,omitempty"`
	Validate    []Validator       `json:"validate,omitempty" yaml:"validate,omitempty" toml:"validate,omitempty"`
}

// Rules are expressions over the form values. Hidden, Disabled and Required
// are boolean rules; Label is a message template.
type Rules struct {
	Hidden   string `json:"hidden,omitempty" yaml:"hidden,omitempty" toml:"hidden,omitempty"`
	Disabled string `json:"disabled,omitempty" yaml:"disabled,omitempty" toml:"disabled,omitempty"`
	Required string `json:"required,omitempty" yaml:"required,omitempty" toml:"required,omitempty"`
	Label    string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
}

// Validator is a declarative value check. Message is an optional template
// rendered with label, name, value and param.
type Validator struct {
	Type    string `json:"type" yaml:"type" toml:"type"`
	Value   any    `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty" toml:"message,omitempty"`
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return codec.FormatFromPath(path)
}

// LoadFile reads and parses a definition, inferring the format from the
// extension.
func LoadFile(path string) (*Definition, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("definition: read %s: %w", path, err)
	}
	def, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return def, nil
}

// Parse decodes data and normalises the result: names and kinds are
// trimmed, kinds default to "string" and display text is stripped of markup.
func Parse(data []byte, format Format) (*Definition, error) {
	format, err := codec.ParseFormat(string(format))
	if err != nil {
		return nil, err
	}
	var def Definition
	if err := codec.Unmarshal(data, format, &def); err != nil {
		return nil, err
	}
	def.normalize()
	return &def, nil
}

func (d *Definition) normalize() {
	d.Title = sanitize(d.Title)
	d.Description = sanitize(d.Description)
	if d.Values == nil {
		d.Values = map[string]any{}
	}
	for k, v := range d.Values {
		d.Values[k] = codec.Normalize(v)
	}
	for i := range d.Fields {
		f := &d.Fields[i]
		f.Name = strings.TrimSpace(f.Name)
		f.Kind = strings.TrimSpace(f.Kind)
		if f.Kind == "" {
			f.Kind = "string"
		}
		f.Label = sanitize(f.Label)
		f.Description = sanitize(f.Description)
		f.Placeholder = sanitize(f.Placeholder)
		f.Section = sanitize(f.Section)
		if len(f.DependsOn) > 0 {
			deps := make(map[string]string, len(f.DependsOn))
			for role, sibling := range f.DependsOn {
				deps[strings.TrimSpace(role)] = strings.TrimSpace(sibling)
			}
			f.DependsOn = deps
		}
		f.Default = codec.Normalize(f.Default)
		for j := range f.Validate {
			f.Validate[j].Type = strings.TrimSpace(f.Validate[j].Type)
			f.Validate[j].Value = codec.Normalize(f.Validate[j].Value)
		}
	}
}

// kind is the declared kind, "string" when blank.
func (f Field) kind() string {
	if kind := strings.TrimSpace(f.Kind); kind != "" {
		return kind
	}
	return "string"
}

// Field returns the field named name.
func (d *Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Sections lists section names in first-seen order.
func (d *Definition) Sections() []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range d.Fields {
		if f.Section == "" || seen[f.Section] {
			continue
		}
		seen[f.Section] = true
		out = append(out, f.Section)
	}
	return out
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// sanitize strips markup from display text, keeping entities readable.
func sanitize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(trimmed)))
}
