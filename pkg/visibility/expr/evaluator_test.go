package expr

import (
	"testing"

	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

func TestEvaluator(t *testing.T) {
	t.Parallel()

	values := map[string]any{
		"enabled":      true,
		"enabledText":  "true",
		"disabled":     false,
		"role":         "admin",
		"count":        3,
		"squareMiles":  "1.5",
		"min":          2.0,
		"max":          8,
		"cta.headline": "Hello",
		"address":      map[string]any{"state": "CA"},
		"child":        form.Values{"name": "pets"},
		"tags":         []string{},
	}
	extras := map[string]any{"beta": true}

	cases := []struct {
		rule string
		want bool
	}{
		{rule: "", want: true},
		{rule: "enabled", want: true},
		{rule: "!disabled", want: true},
		{rule: "not enabled", want: false},
		{rule: "tags", want: false},
		{rule: "enabled == true", want: true},
		{rule: "enabledText == true", want: true},
		{rule: "disabled != false", want: false},
		{rule: `role == "admin"`, want: true},
		{rule: `role == 'admin'`, want: true},
		{rule: "role == admin", want: true},
		{rule: "role != user", want: true},
		{rule: "count == 3", want: true},
		{rule: "count > 2 && count <= 3", want: true},
		{rule: "count >= 4", want: false},
		{rule: "squareMiles < 2", want: true},
		{rule: "missing > 0", want: false},
		{rule: "min < max", want: true},
		{rule: "3 == count", want: true},
		{rule: "missing == null", want: true},
		{rule: "disabled != null", want: true},
		{rule: `cta.headline != ""`, want: true},
		{rule: `address.state == "CA"`, want: true},
		{rule: `child.name == "pets"`, want: true},
		{rule: "extras.beta", want: true},
		{rule: `disabled || (role == "admin" and count > 1)`, want: true},
		{rule: `enabled && role == "user"`, want: false},
	}

	eval := New()
	for _, tc := range cases {
		tc := tc
		t.Run(tc.rule, func(t *testing.T) {
			t.Parallel()
			got, err := eval.Eval(tc.rule, visibility.Context{Values: values, Extras: extras})
			if err != nil {
				t.Fatalf("Eval(%q) returned error: %v", tc.rule, err)
			}
			if got != tc.want {
				t.Fatalf("Eval(%q) = %v, want %v", tc.rule, got, tc.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	for _, rule := range []string{
		"a = 1",
		"a & b",
		"(a == 1",
		`a == "open`,
		"a ==",
		"a < true",
		`a >= "x"`,
		"1 == 2",
		"true",
		"a b",
	} {
		if _, err := Compile(rule); err == nil {
			t.Fatalf("expected Compile(%q) to fail", rule)
		}
	}
}

func TestEvaluatorCachesCompiledRules(t *testing.T) {
	t.Parallel()

	eval := New()
	for i := 0; i < 2; i++ {
		if _, err := eval.Eval("count > 1", visibility.Context{Values: map[string]any{"count": i}}); err != nil {
			t.Fatalf("Eval returned error: %v", err)
		}
	}
	if len(eval.rules) != 1 {
		t.Fatalf("expected one cached rule, got %d", len(eval.rules))
	}
	if _, err := eval.Eval("a ==", visibility.Context{}); err == nil {
		t.Fatalf("expected syntax error")
	}
	if len(eval.rules) != 1 {
		t.Fatalf("expected invalid rules not to be cached")
	}
}

func TestPredicateFallsBackOnError(t *testing.T) {
	t.Parallel()

	failing := visibility.EvaluatorFunc(func(string, visibility.Context) (bool, error) {
		return false, errBoom
	})
	hidden := visibility.Predicate(failing, "x", nil, true, nil)
	if !hidden(form.Values{}) {
		t.Fatalf("expected fallback value")
	}

	visible := visibility.Predicate(New(), "count > 1", nil, false, nil)
	if !visible(form.Values{"count": 2}) || visible(form.Values{"count": 1}) {
		t.Fatalf("unexpected predicate results")
	}
}

var errBoom = boomError("boom")

type boomError string

func (e boomError) Error() string { return string(e) }
