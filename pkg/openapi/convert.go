package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-formflow/pkg/definition"
)

var (
	// ErrOperationNotFound is returned when an operation id is unknown.
	ErrOperationNotFound = errors.New("openapi: operation not found")
	// ErrNoRequestBody is returned for operations without an object body.
	ErrNoRequestBody = errors.New("openapi: operation has no object request body")
	// ErrUnsupportedSchema is returned for properties no kind can hold.
	ErrUnsupportedSchema = errors.New("openapi: unsupported property schema")
)

// LoadDefinition loads src and converts the operation with the given id.
func LoadDefinition(ctx context.Context, loader *Loader, parser *Parser, src Source, operationID string) (*definition.Definition, error) {
	doc, err := loader.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	operations, err := parser.Operations(ctx, doc)
	if err != nil {
		return nil, err
	}
	op, ok := operations[operationID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}
	return DefinitionFromOperation(op)
}

// DefinitionFromOperation maps an operation's request body to a definition.
// Top-level properties become fields; object properties become sections
// holding their own properties. Fields are ordered by x-formflow order, then
// by name.
func DefinitionFromOperation(op Operation) (*definition.Definition, error) {
	body := op.RequestBody
	if body.Type != "object" || len(body.Properties) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoRequestBody, op.ID)
	}

	title := op.Summary
	if title == "" {
		title = op.ID
	}
	def := &definition.Definition{
		Title:       title,
		Description: op.Description,
		Values:      map[string]any{},
	}

	for _, name := range orderedProperties(body) {
		prop := body.Properties[name]
		if prop.Type == "object" {
			section := prop.Title
			if section == "" {
				section = name
			}
			for _, child := range orderedProperties(prop) {
				field, err := fieldFromSchema(child, prop.Properties[child], prop.IsRequired(child))
				if err != nil {
					return nil, err
				}
				if field.Section == "" {
					field.Section = section
				}
				def.Fields = append(def.Fields, field)
			}
			continue
		}
		field, err := fieldFromSchema(name, prop, body.IsRequired(name))
		if err != nil {
			return nil, err
		}
		def.Fields = append(def.Fields, field)
	}
	return def, nil
}

func orderedProperties(s Schema) []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		a, b := s.Properties[names[i]].Extension.Order, s.Properties[names[j]].Extension.Order
		switch {
		case a != nil && b != nil && *a != *b:
			return *a < *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return names[i] < names[j]
	})
	return names
}

func fieldFromSchema(name string, s Schema, required bool) (definition.Field, error) {
	kind, err := kindFor(s)
	if err != nil {
		return definition.Field{}, fmt.Errorf("%w: %q (%s)", err, name, s.DebugString())
	}
	field := definition.Field{
		Name:        name,
		Kind:        kind,
		Label:       s.Title,
		Description: s.Description,
		Placeholder: s.Extension.Placeholder,
		Required:    required,
		Section:     s.Extension.Section,
		Default:     s.Default,
		DependsOn:   s.Extension.DependsOn,
		Rules: definition.Rules{
			Hidden:   s.Extension.Rules["hidden"],
			Disabled: s.Extension.Rules["disabled"],
			Required: s.Extension.Rules["required"],
			Label:    s.Extension.Rules["label"],
		},
	}

	if s.Pattern != "" {
		field.Validate = append(field.Validate, definition.Validator{Type: definition.CheckPattern, Value: s.Pattern})
	}
	if s.MinLength != nil {
		field.Validate = append(field.Validate, definition.Validator{Type: definition.CheckMinLength, Value: float64(*s.MinLength)})
	}
	if s.MaxLength != nil {
		field.Validate = append(field.Validate, definition.Validator{Type: definition.CheckMaxLength, Value: float64(*s.MaxLength)})
	}
	if s.Minimum != nil {
		field.Validate = append(field.Validate, definition.Validator{Type: definition.CheckMin, Value: *s.Minimum})
	}
	if s.Maximum != nil {
		field.Validate = append(field.Validate, definition.Validator{Type: definition.CheckMax, Value: *s.Maximum})
	}
	if len(s.Enum) > 0 && kind == "string" {
		options := make([]string, 0, len(s.Enum))
		for _, v := range s.Enum {
			options = append(options, fmt.Sprint(v))
		}
		field.Validate = append(field.Validate, definition.Validator{Type: definition.CheckOneOf, Value: options})
	}
	return field, nil
}

func kindFor(s Schema) (string, error) {
	if s.Extension.Kind != "" {
		return s.Extension.Kind, nil
	}
	switch s.Type {
	case "string", "":
		return "string", nil
	case "integer", "number":
		return "number", nil
	case "boolean":
		return "boolean", nil
	case "array":
		if s.Items != nil && (s.Items.Type == "string" || s.Items.Type == "") {
			return "stringList", nil
		}
	}
	return "", ErrUnsupportedSchema
}
