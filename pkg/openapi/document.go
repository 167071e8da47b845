package openapi

import (
	"errors"
	"fmt"
)

// Document is a raw OpenAPI payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument copies raw into a Document.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("openapi: source is required")
	}
	if len(raw) == 0 {
		return Document{}, errors.New("openapi: raw document is empty")
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// Source returns the origin of the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the origin's identifier.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Operation is the subset of an OpenAPI operation a form needs.
type Operation struct {
	ID          string
	Method      string
	Path        string
	Summary     string
	Description string
	RequestBody Schema
}

// Schema is a request-body schema node.
type Schema struct {
	Ref         string
	Type        string
	Format      string
	Title       string
	Description string
	Default     any
	Enum        []any
	Required    []string
	Properties  map[string]Schema
	Items       *Schema
	Minimum     *float64
	Maximum     *float64
	MinLength   *int
	MaxLength   *int
	Pattern     string
	Extension   Extension
}

// Extension is the decoded `x-formflow` object of a property.
type Extension struct {
	Kind        string
	Section     string
	Placeholder string
	Order       *float64
	DependsOn   map[string]string
	Rules       map[string]string
}

// IsRequired reports whether name is in the schema's required list.
func (s Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// DebugString summarises the schema for log lines.
func (s Schema) DebugString() string {
	summary := fmt.Sprintf("type=%s", s.Type)
	if s.Ref != "" {
		summary += fmt.Sprintf(",ref=%s", s.Ref)
	}
	if len(s.Required) > 0 {
		summary += fmt.Sprintf(",required=%d", len(s.Required))
	}
	if len(s.Properties) > 0 {
		summary += fmt.Sprintf(",properties=%d", len(s.Properties))
	}
	if s.Items != nil {
		summary += ",items=true"
	}
	return summary
}
