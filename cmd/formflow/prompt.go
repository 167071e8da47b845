package main

import (
	"context"
	"errors"

	"github.com/goliatone/go-formflow/pkg/codec"
	"github.com/goliatone/go-formflow/pkg/renderers/tui"
)

func (a *app) prompt(ctx context.Context, args []string) int {
	fs, level := a.newFlags("prompt")
	defPath := fs.StringP("definition", "d", "", "form definition (yaml, toml or json)")
	valuesPath := fs.StringP("values", "v", "", "initial values file")
	format := fs.String("format", string(codec.JSON), "output format: json, yaml or toml")
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}
	if err := a.configureLogger(*level); err != nil {
		return a.fail(err)
	}
	if *defPath == "" {
		return a.fail(errors.New("prompt: --definition is required"))
	}
	out, err := codec.ParseFormat(*format)
	if err != nil {
		return a.fail(err)
	}

	values, err := loadValues(*valuesPath)
	if err != nil {
		return a.fail(err)
	}
	f, err := a.buildForm(*defPath, values)
	if err != nil {
		return a.fail(err)
	}
	defer closeParameters(f)

	opts := []tui.Option{tui.WithOutputFormat(out)}
	if a.driver != nil {
		opts = append(opts, tui.WithPromptDriver(a.driver))
	}
	data, err := tui.New(opts...).Render(ctx, f)
	switch {
	case errors.Is(err, tui.ErrInvalid):
		a.logger.Warn("form is invalid", "error", err)
		return exitInvalid
	case err != nil:
		return a.fail(err)
	}
	if _, err := a.stdout.Write(data); err != nil {
		return a.fail(err)
	}
	return exitOK
}
