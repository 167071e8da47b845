// Command formflow validates, prompts for, and derives form definitions.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/goliatone/go-formflow/pkg/arm"
	"github.com/goliatone/go-formflow/pkg/arm/fake"
	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/renderers/tui"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitFailure = 2
)

const usage = `usage: formflow <command> [flags]

commands:
  validate  build a form from a definition and print its validation snapshot
  prompt    fill a form interactively and print its values
  openapi   derive a definition from an OpenAPI operation
`

type app struct {
	stdout io.Writer
	stderr io.Writer
	driver tui.PromptDriver
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(a.run(ctx, os.Args[1:]))
}

func (a *app) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.stderr, usage)
		return exitFailure
	}
	command, rest := args[0], args[1:]
	switch command {
	case "validate":
		return a.validate(ctx, rest)
	case "prompt":
		return a.prompt(ctx, rest)
	case "openapi":
		return a.openapi(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.stdout, usage)
		return exitOK
	default:
		fmt.Fprintf(a.stderr, "formflow: unknown command %q\n\n%s", command, usage)
		return exitFailure
	}
}

// newFlags returns a flag set carrying the shared --log-level flag.
func (a *app) newFlags(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	level := fs.String("log-level", "warn", "log level: debug, info, warn or error")
	return fs, level
}

func (a *app) configureLogger(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return fmt.Errorf("invalid --log-level %q", level)
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: lvl}))
	return nil
}

func (a *app) fail(err error) int {
	fmt.Fprintf(a.stderr, "formflow: %v\n", err)
	return exitFailure
}

// buildForm loads a definition, overlays values on top of its own, and
// builds the form with the arm kinds served by the in-memory fakes.
func (a *app) buildForm(defPath string, values form.Values) (*form.Form, error) {
	def, err := definition.LoadFile(defPath)
	if err != nil {
		return nil, err
	}
	if def.Values == nil {
		def.Values = map[string]any{}
	}
	for name, value := range values {
		def.Values[name] = value
	}

	reg := definition.NewRegistry()
	if err := arm.Register(reg, fake.New()); err != nil {
		return nil, err
	}
	return definition.Build(def, reg, form.WithLogger(a.logger))
}

func closeParameters(f *form.Form) {
	if f == nil {
		return
	}
	for _, entry := range f.AllEntries() {
		if closer, ok := entry.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}
