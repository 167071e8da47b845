package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/arm"
	"github.com/goliatone/go-formflow/pkg/arm/fake"
	"github.com/goliatone/go-formflow/pkg/codec"
	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/testsupport"
)

type stubDriver struct {
	inputs   []string
	confirms []bool
	selects  []int
	asked    []string
	infos    []string
	options  [][]string
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.asked = append(s.asked, cfg.Message)
	if len(s.inputs) == 0 {
		return "", fmt.Errorf("unexpected input prompt %q", cfg.Message)
	}
	out := s.inputs[0]
	s.inputs = s.inputs[1:]
	return out, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	s.asked = append(s.asked, cfg.Message)
	if len(s.confirms) == 0 {
		return false, fmt.Errorf("unexpected confirm prompt %q", cfg.Message)
	}
	out := s.confirms[0]
	s.confirms = s.confirms[1:]
	return out, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.asked = append(s.asked, cfg.Message)
	s.options = append(s.options, cfg.Options)
	if len(s.selects) == 0 {
		return 0, fmt.Errorf("unexpected select prompt %q", cfg.Message)
	}
	out := s.selects[0]
	s.selects = s.selects[1:]
	return out, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infos = append(s.infos, msg)
	return nil
}

func armRegistry(t *testing.T) *definition.Registry {
	t.Helper()
	reg := definition.NewRegistry()
	if err := arm.Register(reg, fake.New()); err != nil {
		t.Fatalf("register: %v", err)
	}
	return reg
}

func TestPromptFillsEveryControl(t *testing.T) {
	t.Parallel()

	f := testsupport.BuildForm(t, "testdata/pool.yaml", armRegistry(t))
	driver := &stubDriver{
		inputs:   []string{"ab", "pool-a", "many", "4", "x", "y", ""},
		confirms: []bool{true},
		selects:  []int{2, 1},
	}
	values, err := New(WithPromptDriver(driver)).Prompt(testsupport.Context(t), f)
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}

	want := form.Values{
		"name":             "pool-a",
		"nodes":            float64(4),
		"autoscale":        true,
		"tags":             []string{"x", "y"},
		"subId":            fake.Tanuki,
		"storageAccountId": "/subscriptions/tanuki-id/resourceGroups/supercomputing/providers/Microsoft.Storage/storageAccounts/storageB",
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	wantInfos := []string{"Pool", "✗ Name must be at least 3 characters", `✗ "many" is not a number`}
	if diff := cmp.Diff(wantInfos, driver.infos); diff != "" {
		t.Fatalf("infos mismatch (-want +got):\n%s", diff)
	}
	wantOptions := [][]string{
		{"Bad Subscription", "nekomata", "tanuki"},
		{"storageA", "storageB", "storageC"},
	}
	if diff := cmp.Diff(wantOptions, driver.options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestPromptSkipsHiddenParameters(t *testing.T) {
	t.Parallel()

	f := testsupport.BuildForm(t, "testdata/pool.yaml", armRegistry(t))
	driver := &stubDriver{
		inputs:   []string{"pool-b", ""},
		confirms: []bool{false},
		selects:  []int{1, 0},
	}
	values, err := New(WithPromptDriver(driver)).Prompt(testsupport.Context(t), f)
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	want := []string{"name *", "nodes", "autoscale", "Subscription", "Storage account"}
	if diff := cmp.Diff(want, driver.asked); diff != "" {
		t.Fatalf("prompts mismatch (-want +got):\n%s", diff)
	}
	if values["nodes"] != nil {
		t.Fatalf("empty number answer should clear the value, got %#v", values["nodes"])
	}
	if got := values["storageAccountId"]; got != "/subscriptions/nekomata-id/resourceGroups/staging/providers/Microsoft.Storage/storageAccounts/storageD" {
		t.Fatalf("unexpected storage account %#v", got)
	}
}

func TestPromptReportsInvalidForm(t *testing.T) {
	t.Parallel()

	f := testsupport.BuildForm(t, "testdata/secret.yaml", nil)
	driver := &stubDriver{inputs: []string{"me"}}
	values, err := New(WithPromptDriver(driver)).Prompt(context.Background(), f)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if values["name"] != "me" {
		t.Fatalf("expected collected values with the error, got %v", values)
	}
	if diff := cmp.Diff([]string{"Secret", "✗ Token is required"}, driver.infos); diff != "" {
		t.Fatalf("infos mismatch (-want +got):\n%s", diff)
	}
}

type abortingDriver struct{ stubDriver }

func (abortingDriver) Input(context.Context, InputConfig) (string, error) {
	return "", ErrAborted
}

func TestPromptAbort(t *testing.T) {
	t.Parallel()

	f := testsupport.BuildForm(t, "testdata/secret.yaml", nil)
	_, err := New(WithPromptDriver(&abortingDriver{})).Prompt(context.Background(), f)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestRenderEncodesValues(t *testing.T) {
	t.Parallel()

	f := testsupport.BuildForm(t, "testdata/secret.yaml", nil)
	token, err := f.Parameter("token")
	if err != nil {
		t.Fatalf("parameter: %v", err)
	}
	token.SetValue("s3cr3t")

	driver := &stubDriver{inputs: []string{"me"}}
	out, err := New(WithPromptDriver(driver), WithOutputFormat(codec.YAML)).Render(context.Background(), f)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	got, err := codec.DecodeValues(out, codec.YAML)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(form.Values{"name": "me", "token": "s3cr3t"}, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestTranslateSurveyErr(t *testing.T) {
	t.Parallel()

	other := errors.New("boom")
	if got := translateSurveyErr(other); got != other {
		t.Fatalf("unexpected translation %v", got)
	}
	if got := indexOf([]string{"a", "b"}, "b"); got != 1 {
		t.Fatalf("unexpected index %d", got)
	}
	if got := indexOf([]string{"a"}, "z"); got != -1 {
		t.Fatalf("unexpected index %d", got)
	}
}
