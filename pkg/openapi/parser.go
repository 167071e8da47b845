package openapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formflow/pkg/form"
)

// ExtensionKey is the property extension read into Schema.Extension.
const ExtensionKey = "x-formflow"

// ParserOptions toggles parser behaviour.
type ParserOptions struct {
	// Validate runs kin-openapi document validation after loading.
	Validate bool
}

// ParserOption mutates ParserOptions.
type ParserOption func(*ParserOptions)

// WithValidation toggles document validation. It is on by default.
func WithValidation(enabled bool) ParserOption {
	return func(opts *ParserOptions) {
		opts.Validate = enabled
	}
}

// Parser extracts operations with kin-openapi.
type Parser struct {
	options ParserOptions
}

// NewParser applies options.
func NewParser(options ...ParserOption) *Parser {
	cfg := ParserOptions{Validate: true}
	for _, opt := range options {
		opt(&cfg)
	}
	return &Parser{options: cfg}
}

// Operations returns the document's operations keyed by operationId.
// Operations without an id are keyed "<method>:<path>".
func (p *Parser) Operations(ctx context.Context, doc Document) (map[string]Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return nil, errors.New("openapi parser: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if p.options.Validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi parser: validate: %w", err)
		}
	}
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return nil, errors.New("openapi parser: document does not contain any paths")
	}

	operations := make(map[string]Operation)
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, operation := range item.Operations() {
			if operation == nil {
				continue
			}
			id := operation.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			operations[id] = Operation{
				ID:          id,
				Method:      method,
				Path:        path,
				Summary:     operation.Summary,
				Description: operation.Description,
				RequestBody: requestSchema(operation.RequestBody),
			}
		}
	}
	if len(operations) == 0 {
		return nil, errors.New("openapi parser: no operations extracted")
	}
	return operations, nil
}

func requestSchema(body *openapi3.RequestBodyRef) Schema {
	if body == nil {
		return Schema{}
	}
	if body.Value == nil {
		return Schema{Ref: body.Ref}
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok {
			return convertSchema(mt.Schema)
		}
	}
	for _, mt := range content {
		return convertSchema(mt.Schema)
	}
	return Schema{}
}

func convertSchema(ref *openapi3.SchemaRef) Schema {
	if ref == nil {
		return Schema{}
	}
	if ref.Value == nil {
		return Schema{Ref: ref.Ref}
	}
	src := ref.Value
	schema := Schema{
		Ref:         ref.Ref,
		Type:        firstSchemaType(src.Type),
		Format:      src.Format,
		Title:       src.Title,
		Description: src.Description,
		Default:     src.Default,
		Pattern:     src.Pattern,
		Extension:   extractExtension(src.Extensions),
	}
	if len(src.Required) > 0 {
		schema.Required = append([]string(nil), src.Required...)
	}
	if len(src.Enum) > 0 {
		schema.Enum = append([]any(nil), src.Enum...)
	}
	if len(src.Properties) > 0 {
		schema.Properties = make(map[string]Schema, len(src.Properties))
		for name, property := range src.Properties {
			schema.Properties[name] = convertSchema(property)
		}
	}
	if src.Items != nil {
		items := convertSchema(src.Items)
		schema.Items = &items
	}
	if src.Min != nil {
		value := *src.Min
		schema.Minimum = &value
	}
	if src.Max != nil {
		value := *src.Max
		schema.Maximum = &value
	}
	if src.MinLength != 0 {
		value := int(src.MinLength)
		schema.MinLength = &value
	}
	if src.MaxLength != nil {
		value := int(*src.MaxLength)
		schema.MaxLength = &value
	}
	return schema
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func extractExtension(raw map[string]any) Extension {
	mapped, ok := raw[ExtensionKey].(map[string]any)
	if !ok {
		return Extension{}
	}
	ext := Extension{
		Kind:        stringAt(mapped, "kind"),
		Section:     stringAt(mapped, "section"),
		Placeholder: stringAt(mapped, "placeholder"),
		DependsOn:   stringMapAt(mapped, "dependsOn"),
		Rules:       stringMapAt(mapped, "rules"),
	}
	if order, ok := form.ToFloat(mapped["order"]); ok {
		ext.Order = &order
	}
	return ext
}

func stringAt(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func stringMapAt(m map[string]any, key string) map[string]string {
	raw, ok := m[key].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
