package resolver

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/arm"
	"github.com/goliatone/go-formflow/pkg/arm/fake"
	"github.com/goliatone/go-formflow/pkg/form"
)

type colourParameter struct {
	*form.BaseParameter
}

func (p *colourParameter) Kind() string { return "colour" }

type hintedParameter struct {
	*form.BaseParameter
}

func (p *hintedParameter) Control() string { return "slider" }

func TestResolveBuiltins(t *testing.T) {
	t.Parallel()

	svc := fake.New()
	f := form.New(form.Values{})
	form.MustParam(f, "name", form.NewString, form.ParamInit{})
	form.MustParam(f, "count", form.NewNumber, form.ParamInit{})
	form.MustParam(f, "enabled", form.NewBoolean, form.ParamInit{})
	form.MustParam(f, "tags", form.NewStringList, form.ParamInit{})
	sub := form.MustParam(f, "subId", arm.NewSubscription(svc), form.ParamInit{})
	t.Cleanup(sub.Close)
	loc := form.MustParam(f, "location", arm.NewLocation(svc), form.ParamInit{
		Dependencies: map[string]string{arm.RoleSubscriptionID: "subId"},
	})
	t.Cleanup(loc.Close)

	got, err := New().Controls(f)
	if err != nil {
		t.Fatalf("controls: %v", err)
	}
	want := map[string]string{
		"name":     ControlText,
		"count":    ControlNumber,
		"enabled":  ControlToggle,
		"tags":     ControlList,
		"subId":    ControlDropdown,
		"location": ControlComboBox,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("controls mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveUnknownKind(t *testing.T) {
	t.Parallel()

	f := form.New(form.Values{})
	colour := form.MustParam(f, "paint", func(b *form.BaseParameter) *colourParameter {
		return &colourParameter{b}
	}, form.ParamInit{})

	r := New()
	if _, err := r.Resolve(colour); !errors.Is(err, ErrNoControl) {
		t.Fatalf("expected ErrNoControl, got %v", err)
	}
	if _, err := r.Controls(f); !errors.Is(err, ErrNoControl) {
		t.Fatalf("expected ErrNoControl from Controls, got %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("MustResolve should panic")
		}
	}()
	r.MustResolve(colour)
}

func TestResolvePriorityAndHints(t *testing.T) {
	t.Parallel()

	f := form.New(form.Values{})
	enabled := form.MustParam(f, "enabled", form.NewBoolean, form.ParamInit{})
	hinted := form.MustParam(f, "volume", func(b *form.BaseParameter) *hintedParameter {
		return &hintedParameter{b}
	}, form.ParamInit{})

	r := New()
	if got := r.MustResolve(hinted); got != "slider" {
		t.Fatalf("hint should win, got %q", got)
	}

	r.Register("switch", 999, func(p form.Parameter) bool { return p.Kind() == "boolean" })
	if got := r.MustResolve(enabled); got != "switch" {
		t.Fatalf("higher priority should win, got %q", got)
	}
	r.Register("checkbox", 999, func(p form.Parameter) bool { return p.Kind() == "boolean" })
	if got := r.MustResolve(enabled); got != "switch" {
		t.Fatalf("ties should keep registration order, got %q", got)
	}
}
