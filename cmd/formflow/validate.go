package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-formflow/pkg/codec"
	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/validation"
)

func (a *app) validate(ctx context.Context, args []string) int {
	fs, level := a.newFlags("validate")
	defPath := fs.StringP("definition", "d", "", "form definition (yaml, toml or json)")
	valuesPath := fs.StringP("values", "v", "", "values file (yaml, toml or json)")
	force := fs.Bool("force", false, "force validation so untouched fields report errors")
	watch := fs.Bool("watch", false, "re-validate whenever the definition or values file changes")
	format := fs.String("format", string(codec.JSON), "snapshot output format: json or yaml")
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}
	if err := a.configureLogger(*level); err != nil {
		return a.fail(err)
	}
	if *defPath == "" {
		return a.fail(errors.New("validate: --definition is required"))
	}
	out, err := codec.ParseFormat(*format)
	if err != nil {
		return a.fail(err)
	}

	once := func() int {
		code, err := a.validateOnce(ctx, *defPath, *valuesPath, *force, out)
		if err != nil {
			return a.fail(err)
		}
		return code
	}
	if !*watch {
		return once()
	}

	paths := []string{*defPath}
	if *valuesPath != "" {
		paths = append(paths, *valuesPath)
	}
	var code int
	err = watchFiles(ctx, paths, func(name string) {
		if name != "" {
			a.logger.Info("file changed, validating again", "file", name)
		}
		code = once()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return a.fail(err)
	}
	return code
}

func (a *app) validateOnce(ctx context.Context, defPath, valuesPath string, force bool, out codec.Format) (int, error) {
	values, err := loadValues(valuesPath)
	if err != nil {
		return exitFailure, err
	}
	f, err := a.buildForm(defPath, values)
	if err != nil {
		return exitFailure, err
	}
	defer closeParameters(f)

	snap, err := f.Validate(ctx, form.ValidateOptions{Force: force})
	if err != nil {
		return exitFailure, err
	}
	data, err := codec.Marshal(snap, out)
	if err != nil {
		return exitFailure, err
	}
	if _, err := a.stdout.Write(data); err != nil {
		return exitFailure, err
	}
	if snap.OverallStatus != nil && snap.OverallStatus.Level == validation.LevelError {
		return exitInvalid, nil
	}
	return exitOK, nil
}

func loadValues(path string) (form.Values, error) {
	if path == "" {
		return nil, nil
	}
	format, err := codec.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	return codec.DecodeValues(data, format)
}

// watchFiles calls onChange once with an empty name as soon as the watches
// are in place, then with each changed file until ctx ends. Directories are
// watched so editors that replace files by rename keep triggering.
func watchFiles(ctx context.Context, paths []string, onChange func(name string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		watched[abs] = true
		if err := w.Add(filepath.Dir(abs)); err != nil {
			return err
		}
	}

	onChange("")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !watched[event.Name] || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			onChange(event.Name)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
