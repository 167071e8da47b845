// Package tui prompts for a form's parameters in a terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/golobby/cast"

	"github.com/goliatone/go-formflow/pkg/arm"
	"github.com/goliatone/go-formflow/pkg/codec"
	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/resolver"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// Chooser is a parameter whose value is picked from loaded options.
type Chooser interface {
	Choices(ctx context.Context) ([]arm.Choice, error)
}

// Renderer walks a form's visible parameters and fills them through a
// PromptDriver.
type Renderer struct {
	driver   PromptDriver
	resolver *resolver.Resolver
	format   codec.Format
	theme    Theme
}

// New creates a renderer that defaults to the survey driver and JSON output.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		resolver: resolver.New(),
		format:   codec.JSON,
		theme:    Theme{ErrorPrefix: "✗ "},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver()
	}
	return r
}

// Prompt asks for every visible, enabled parameter in declaration order and
// returns the form's values once a forced validation reports no error.
// Visibility is re-read before each prompt so answers can reveal or hide
// later parameters.
func (r *Renderer) Prompt(ctx context.Context, f *form.Form) (form.Values, error) {
	if f == nil {
		return nil, errors.New("tui: form is nil")
	}
	if title := f.Title(); title != "" {
		if err := r.info(ctx, r.theme.InfoPrefix+title); err != nil {
			return nil, err
		}
	}

	for _, entry := range f.AllEntries() {
		param, ok := entry.(form.Parameter)
		if !ok || !visible(param) {
			continue
		}
		control, err := r.resolver.Resolve(param)
		if err != nil {
			return nil, err
		}
		if err := r.promptParameter(ctx, param, control); err != nil {
			return nil, fmt.Errorf("tui: %s: %w", param.Name(), err)
		}
	}

	snap, err := f.Validate(ctx, form.ValidateOptions{Force: true})
	if err != nil {
		return nil, err
	}
	if snap.OverallStatus.IsError() {
		for _, name := range failing(snap) {
			if err := r.info(ctx, r.theme.ErrorPrefix+snap.EntryStatus[name].Message); err != nil {
				return nil, err
			}
		}
		return f.Values(), fmt.Errorf("%w: %s", ErrInvalid, snap.OverallStatus.Message)
	}
	return f.Values(), nil
}

// Render prompts for f and encodes the collected values in the configured
// format.
func (r *Renderer) Render(ctx context.Context, f *form.Form) ([]byte, error) {
	values, err := r.Prompt(ctx, f)
	if err != nil {
		return nil, err
	}
	return codec.EncodeValues(values, r.format)
}

func (r *Renderer) promptParameter(ctx context.Context, param form.Parameter, control string) error {
	switch control {
	case resolver.ControlToggle:
		current, _ := param.Value().(bool)
		answer, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: message(param),
			Default: current,
			Help:    param.Description(),
		})
		if err != nil {
			return err
		}
		param.SetValue(answer)
		return nil
	case resolver.ControlList:
		list, ok := param.(*form.StringListParameter)
		if !ok {
			return fmt.Errorf("list control needs a string list, got %s", param.Kind())
		}
		return r.promptList(ctx, list)
	case resolver.ControlDropdown, resolver.ControlComboBox:
		chooser, ok := param.(Chooser)
		if !ok {
			return r.promptText(ctx, param, asString)
		}
		return r.promptChoice(ctx, param, chooser)
	case resolver.ControlNumber:
		return r.promptText(ctx, param, asNumber)
	default:
		return r.promptText(ctx, param, asString)
	}
}

// promptText asks until the parameter's own sync validation passes. An empty
// answer clears the value.
func (r *Renderer) promptText(ctx context.Context, param form.Parameter, convert func(string) (any, error)) error {
	for {
		text, err := r.driver.Input(ctx, InputConfig{
			Message: message(param),
			Default: textOf(param.Value()),
			Help:    help(param),
		})
		if err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			param.SetValue(nil)
		} else {
			value, err := convert(text)
			if err != nil {
				if err := r.info(ctx, r.theme.ErrorPrefix+err.Error()); err != nil {
					return err
				}
				continue
			}
			param.SetValue(value)
		}
		status := param.ValidateSync(ctx)
		if !status.IsError() {
			return nil
		}
		if err := r.info(ctx, r.theme.ErrorPrefix+status.Message); err != nil {
			return err
		}
	}
}

// promptList fills the trailing slot until an empty answer.
func (r *Renderer) promptList(ctx context.Context, list *form.StringListParameter) error {
	for {
		items := list.Items()
		text, err := r.driver.Input(ctx, InputConfig{
			Message: fmt.Sprintf("%s #%d", message(list), len(items)),
			Help:    "Leave empty to finish",
		})
		if err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil
		}
		if err := list.EditItem(len(items)-1, text); err != nil {
			return err
		}
	}
}

func (r *Renderer) promptChoice(ctx context.Context, param form.Parameter, chooser Chooser) error {
	choices, err := chooser.Choices(ctx)
	if err != nil {
		return err
	}
	if len(choices) == 0 {
		if param.Required() {
			return ErrNoChoices
		}
		return r.info(ctx, fmt.Sprintf("%sno options for %s", r.theme.InfoPrefix, param.Label()))
	}

	options := make([]string, len(choices))
	current := textOf(param.Value())
	defaultIndex := 0
	for i, choice := range choices {
		options[i] = choice.Label
		if choice.Value == current {
			defaultIndex = i
		}
	}
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      message(param),
		Options:      options,
		DefaultIndex: defaultIndex,
		Help:         param.Description(),
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(choices) {
		return fmt.Errorf("selection %d out of range", idx)
	}
	param.SetValue(choices[idx].Value)
	return nil
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, msg)
}

func visible(param form.Parameter) bool {
	if param.Hidden() || param.Disabled() {
		return false
	}
	for section := param.Parent(); section != nil; section = section.Parent() {
		if section.Hidden() || section.Disabled() {
			return false
		}
	}
	return true
}

func message(param form.Parameter) string {
	label := param.Label()
	if param.Required() {
		label += " *"
	}
	return label
}

func help(param form.Parameter) string {
	if placeholder := param.Placeholder(); placeholder != "" && param.Description() == "" {
		return "e.g. " + placeholder
	}
	return param.Description()
}

func textOf(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func asString(text string) (any, error) {
	return text, nil
}

func asNumber(text string) (any, error) {
	value, err := cast.FromType(text, reflect.TypeOf(float64(0)))
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", text)
	}
	return value, nil
}

func failing(snap validation.Snapshot) []string {
	var names []string
	for name, status := range snap.EntryStatus {
		if status.IsError() {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
