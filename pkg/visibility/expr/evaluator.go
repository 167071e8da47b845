package expr

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// Evaluator is a small, dependency-free rule evaluator.
//
// Supported syntax:
// - boolean checks: `enabled`, `!enabled`
// - equality: `field == true`, `field != "value"`, `count == 3`, `a == b`
// - ordering on numbers: `count > 3`, `min <= max`
// - composition: `a && (b || c)`, also spelled `and`, `or`, `not`
//
// Values are read from visibility.Context.Values (with dot-path traversal)
// and visibility.Context.Extras (via the `extras.` prefix). Compiled rules
// are cached per evaluator.
type Evaluator struct {
	mu    sync.RWMutex
	rules map[string]*Rule
}

var _ visibility.Evaluator = (*Evaluator)(nil)

func New() *Evaluator {
	return &Evaluator{rules: make(map[string]*Rule)}
}

// Eval compiles rule on first use and evaluates it. An empty rule is true.
func (e *Evaluator) Eval(rule string, ctx visibility.Context) (bool, error) {
	compiled, err := e.compile(rule)
	if err != nil {
		return false, err
	}
	return compiled.Eval(ctx)
}

func (e *Evaluator) compile(rule string) (*Rule, error) {
	e.mu.RLock()
	compiled, ok := e.rules[rule]
	e.mu.RUnlock()
	if ok {
		return compiled, nil
	}
	compiled, err := Compile(rule)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.rules[rule] = compiled
	e.mu.Unlock()
	return compiled, nil
}

// Rule is a parsed expression.
type Rule struct {
	source string
	root   node
}

// Compile parses rule. Syntax errors are reported here rather than at
// evaluation time.
func Compile(rule string) (*Rule, error) {
	trimmed := strings.TrimSpace(rule)
	r := &Rule{source: trimmed}
	if trimmed == "" {
		return r, nil
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return r, nil
	}
	root, err := parse(tokens)
	if err != nil {
		return nil, fmt.Errorf("%w in %q", err, trimmed)
	}
	r.root = root
	return r, nil
}

// MustCompile is Compile that panics on error.
func MustCompile(rule string) *Rule {
	r, err := Compile(rule)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Rule) String() string { return r.source }

// Eval evaluates the rule against ctx.
func (r *Rule) Eval(ctx visibility.Context) (bool, error) {
	if r == nil || r.root == nil {
		return true, nil
	}
	return r.root.eval(scope(ctx))
}

type scope visibility.Context

func (s scope) lookup(key string) (any, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false
	}
	if strings.HasPrefix(strings.ToLower(key), "extras.") {
		return lookupMap(s.Extras, strings.TrimSpace(key[len("extras."):]))
	}
	return lookupMap(s.Values, key)
}

func lookupMap(values map[string]any, path string) (any, bool) {
	if len(values) == 0 || path == "" {
		return nil, false
	}
	// Exact match first so flattened keys like "cta.headline" resolve.
	if v, ok := values[path]; ok {
		return v, true
	}

	var current any = values
	for _, part := range strings.Split(path, ".") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, false
		}
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case form.Values:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, true
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		if n, ok := coerceNumber(value); ok {
			return n != 0
		}
		return true
	}
}

func coerceBool(value any) (bool, bool) {
	switch v := value.(type) {
	case nil:
		return false, false
	case bool:
		return v, true
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed, true
		}
		return strings.TrimSpace(v) != "", true
	default:
		return truthy(value), true
	}
}

func coerceNumber(value any) (float64, bool) {
	if v, ok := value.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return form.ToFloat(value)
}

func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(value)
	}
}
