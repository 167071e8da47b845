package definition

import (
	"fmt"
	"log/slog"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/validation"
	"github.com/goliatone/go-formflow/pkg/visibility"
	"github.com/goliatone/go-formflow/pkg/visibility/expr"
)

// Build validates def and creates its form. Sections are created in the
// order they are first referenced. A field's Default applies only when the
// definition's values do not already hold its name. opts are passed to
// form.New after the title and description.
func Build(def *Definition, reg *Registry, opts ...form.Option) (*form.Form, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	if err := def.Validate(reg); err != nil {
		return nil, err
	}

	formOpts := append([]form.Option{
		form.WithTitle(def.Title),
		form.WithDescription(def.Description),
	}, opts...)
	f := form.New(form.Values(def.Values).DeepClone(), formOpts...)

	sections := make(map[string]*form.Section)
	for _, name := range def.Sections() {
		section, err := f.AddSection(name, form.SectionInit{Label: name})
		if err != nil {
			return nil, fmt.Errorf("definition: section %q: %w", name, err)
		}
		sections[name] = section
	}

	ev := expr.New()
	for _, field := range def.Fields {
		ctor, _ := reg.Lookup(field.kind())
		init, err := paramInit(field, def.Values, ev, f.Logger())
		if err != nil {
			return nil, err
		}
		var container form.Container = f
		if field.Section != "" {
			container = sections[field.Section]
		}
		if _, err := ctor(container, field.Name, init); err != nil {
			return nil, fmt.Errorf("definition: field %q: %w", field.Name, err)
		}
	}
	f.Evaluate()
	return f, nil
}

// MustBuild is Build that panics on error.
func MustBuild(def *Definition, reg *Registry, opts ...form.Option) *form.Form {
	f, err := Build(def, reg, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

func paramInit(field Field, values map[string]any, ev visibility.Evaluator, logger *slog.Logger) (form.ParamInit, error) {
	init := form.ParamInit{
		Label:        field.Label,
		Description:  field.Description,
		Placeholder:  field.Placeholder,
		Required:     field.Required,
		Disabled:     field.Disabled,
		Hidden:       field.Hidden,
		HideLabel:    field.HideLabel,
		Dependencies: field.DependsOn,
	}
	if _, set := values[field.Name]; !set {
		init.Value = field.Default
	}

	logger = logger.With("parameter", field.Name)
	if rule := field.Rules.Hidden; rule != "" {
		init.Dynamic.Hidden = visibility.Predicate(ev, rule, nil, field.Hidden, logger)
	}
	if rule := field.Rules.Disabled; rule != "" {
		init.Dynamic.Disabled = visibility.Predicate(ev, rule, nil, field.Disabled, logger)
	}
	if rule := field.Rules.Required; rule != "" {
		init.Dynamic.Required = visibility.Predicate(ev, rule, nil, field.Required, logger)
	}
	if source := field.Rules.Label; source != "" {
		tpl, err := compileTemplate(source)
		if err != nil {
			return form.ParamInit{}, fmt.Errorf("%w: field %q label: %v", ErrInvalidRule, field.Name, err)
		}
		static := field.Label
		if static == "" {
			static = field.Name
		}
		init.Dynamic.Label = func(values form.Values) string {
			out := render(tpl, pongo2.Context{"values": map[string]any(values), "name": field.Name, "label": static})
			if out == "" {
				return static
			}
			return out
		}
	}

	if len(field.Validate) > 0 {
		checks := make([]check, 0, len(field.Validate))
		for _, v := range field.Validate {
			c, err := compileCheck(v)
			if err != nil {
				return form.ParamInit{}, fmt.Errorf("field %q: %w", field.Name, err)
			}
			checks = append(checks, c)
		}
		label := field.Label
		if label == "" {
			label = field.Name
		}
		init.OnValidateSync = func(value any) *validation.Status {
			for _, c := range checks {
				if status := c.apply(label, field.Name, value); status != nil {
					return status
				}
			}
			return nil
		}
	}
	return init, nil
}
