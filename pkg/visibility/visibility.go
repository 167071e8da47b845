package visibility

import (
	"log/slog"

	"github.com/goliatone/go-formflow/pkg/form"
)

// Evaluator decides a boolean rule against the current form values and
// optional extras such as feature flags.
type Evaluator interface {
	Eval(rule string, ctx Context) (bool, error)
}

// Context provides the inputs of one evaluation. Values is the form's bag;
// Extras is caller-supplied and reached through the `extras.` prefix.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(rule string, ctx Context) (bool, error) {
	return fn(rule, ctx)
}

// Predicate turns rule into a dynamic property hook. Evaluation errors are
// logged and yield fallback so a bad rule never blocks the form.
func Predicate(ev Evaluator, rule string, extras map[string]any, fallback bool, logger *slog.Logger) func(form.Values) bool {
	return func(values form.Values) bool {
		ok, err := ev.Eval(rule, Context{Values: values, Extras: extras})
		if err != nil {
			if logger != nil {
				logger.Warn("rule evaluation failed", "rule", rule, "error", err)
			}
			return fallback
		}
		return ok
	}
}
