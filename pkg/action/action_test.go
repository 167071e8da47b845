package action

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/validation"
)

func accountSpec(execute func(context.Context, form.Values) (*Result, error)) Spec {
	return Spec{
		Initialize: func(context.Context) (form.Values, error) {
			return form.Values{"accountName": "alpha"}, nil
		},
		BuildForm: func(initial form.Values, opts ...form.Option) (*form.Form, error) {
			f := form.New(initial, append(opts, form.WithTitle("Create Account"))...)
			if _, err := form.Param(f, "accountName", form.NewString, form.ParamInit{Label: "Account name", Required: true}); err != nil {
				return nil, err
			}
			return f, nil
		},
		Execute: execute,
	}
}

func TestExecuteBeforeInitialize(t *testing.T) {
	t.Parallel()

	a := New("CreateAccount", accountSpec(func(context.Context, form.Values) (*Result, error) { return nil, nil }))
	if _, err := a.Execute(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if _, err := a.Form(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized from Form, got %v", err)
	}
	if _, ok := a.LastResult(); ok {
		t.Fatalf("expected no result before execution")
	}
}

func TestInitializeRequiresBuildAndExecute(t *testing.T) {
	t.Parallel()

	if err := New("Empty", Spec{}).Initialize(context.Background()); !errors.Is(err, ErrIncompleteSpec) {
		t.Fatalf("expected ErrIncompleteSpec, got %v", err)
	}
}

func TestExecuteSucceeds(t *testing.T) {
	t.Parallel()

	var got form.Values
	a := New("CreateAccount", accountSpec(func(_ context.Context, values form.Values) (*Result, error) {
		got = values
		return nil, nil
	}))
	if err := a.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	f, err := a.Form()
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if f.Title() != "Create Account" {
		t.Fatalf("unexpected title %q", f.Title())
	}

	result, err := a.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Success || !result.ValidationStatus.IsOK() {
		t.Fatalf("expected success, got %+v", result)
	}
	if diff := cmp.Diff(form.Values{"accountName": "alpha"}, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	last, ok, err := a.WaitForExecution(context.Background())
	if err != nil || !ok || !last.Success {
		t.Fatalf("expected last result to be the success, got %+v %v %v", last, ok, err)
	}
}

func TestExecuteStopsOnValidationError(t *testing.T) {
	t.Parallel()

	called := false
	a := New("CreateAccount", accountSpec(func(context.Context, form.Values) (*Result, error) {
		called = true
		return nil, nil
	}))
	if err := a.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	f, _ := a.Form()
	f.UpdateValue("accountName", nil)

	result, err := a.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if called {
		t.Fatalf("expected execute step to be skipped")
	}
	if result.Success {
		t.Fatalf("expected failure")
	}
	want := &validation.Status{Level: validation.LevelError, Message: "Account name is required", Data: "required"}
	if diff := cmp.Diff(want, result.ValidationStatus); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestFormValidatorsAreWired(t *testing.T) {
	t.Parallel()

	spec := accountSpec(func(context.Context, form.Values) (*Result, error) { return nil, nil })
	spec.ValidateSync = func(values form.Values) *validation.Status {
		if values.String("accountName") == "alpha" {
			return validation.Error("alpha is reserved")
		}
		return nil
	}
	spec.ValidateAsync = func(_ context.Context, values form.Values) (*validation.Status, error) {
		if values.String("accountName") == "taken" {
			return validation.Error("An account named taken already exists"), nil
		}
		return validation.OK(), nil
	}
	a := New("CreateAccount", spec)
	if err := a.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	result, _ := a.Execute(context.Background())
	if result.Success || result.ValidationStatus.Message != "alpha is reserved" {
		t.Fatalf("expected sync validator to block, got %+v", result)
	}

	f, _ := a.Form()
	f.UpdateValue("accountName", "taken")
	result, _ = a.Execute(context.Background())
	if result.Success || result.ValidationStatus.Message != "An account named taken already exists" {
		t.Fatalf("expected async validator to block, got %+v", result)
	}
}

func TestExecuteFailureForcesFormStatus(t *testing.T) {
	t.Parallel()

	boom := errors.New("quota exceeded")
	a := New("CreateAccount", accountSpec(func(context.Context, form.Values) (*Result, error) {
		return nil, boom
	}))
	if err := a.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	result, err := a.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Success || !errors.Is(result.Err, boom) {
		t.Fatalf("expected execution error, got %+v", result)
	}
	f, _ := a.Form()
	if got := f.ValidationStatus(); !got.IsError() || got.Message != "quota exceeded" {
		t.Fatalf("expected forced form status, got %v", got)
	}
}

func TestExecuteUsesValuesCapturedBeforeValidation(t *testing.T) {
	t.Parallel()

	var a *Action
	var got form.Values
	spec := accountSpec(func(_ context.Context, values form.Values) (*Result, error) {
		got = values
		return &Result{Success: true, ValidationStatus: validation.OK()}, nil
	})
	spec.ValidateAsync = func(context.Context, form.Values) (*validation.Status, error) {
		f, _ := a.Form()
		f.UpdateValue("accountName", "changed during validation")
		return nil, nil
	}
	a = New("CreateAccount", spec)
	if err := a.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if _, err := a.Execute(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if diff := cmp.Diff(form.Values{"accountName": "alpha"}, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestWaitForExecution(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	a := New("CreateAccount", accountSpec(func(context.Context, form.Values) (*Result, error) {
		close(entered)
		<-release
		return nil, nil
	}))
	if err := a.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	go func() { _, _ = a.Execute(context.Background()) }()
	<-entered

	waited := make(chan Result, 1)
	go func() {
		result, _, _ := a.WaitForExecution(context.Background())
		waited <- result
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, _, err := a.WaitForExecution(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wait to block while executing, got %v", err)
	}

	close(release)
	select {
	case result := <-waited:
		if !result.Success {
			t.Fatalf("expected success, got %+v", result)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for execution")
	}
}

func TestOnFormChangeSeesEvaluatedValues(t *testing.T) {
	t.Parallel()

	spec := accountSpec(func(context.Context, form.Values) (*Result, error) { return nil, nil })
	var seen []string
	spec.OnFormChange = func(newValues, _ form.Values) {
		seen = append(seen, newValues.String("accountName"))
	}
	a := New("CreateAccount", spec)
	defer a.Close()
	if err := a.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	require.NoError(t, a.WaitForInitialization(context.Background()))

	f, _ := a.Form()
	f.UpdateValue("accountName", "beta")
	if diff := cmp.Diff([]string{"beta"}, seen); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}
}
