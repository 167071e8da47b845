package definition

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/goliatone/go-formflow/pkg/visibility/expr"
)

var (
	ErrMissingName          = errors.New("definition: field has no name")
	ErrDuplicateField       = errors.New("definition: duplicate field")
	ErrUnknownKind          = errors.New("definition: unknown kind")
	ErrUndeclaredDependency = errors.New("definition: dependency on undeclared field")
	ErrDependencyCycle      = errors.New("definition: dependency cycle")
	ErrSectionConflict      = errors.New("definition: section name conflicts with a field")
	ErrInvalidRule          = errors.New("definition: invalid rule")
)

// Validate checks d against reg and returns every problem found, combined
// with multierr. A nil reg checks kinds against NewRegistry.
func (d *Definition) Validate(reg *Registry) error {
	if d == nil {
		return errors.New("definition: nil definition")
	}
	if reg == nil {
		reg = NewRegistry()
	}

	var errs error
	declared := make(map[string]bool, len(d.Fields))
	for i, f := range d.Fields {
		if f.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w (index %d)", ErrMissingName, i))
			continue
		}
		if declared[f.Name] {
			errs = multierr.Append(errs, fmt.Errorf("%w: %q", ErrDuplicateField, f.Name))
		}
		declared[f.Name] = true
		if _, ok := reg.Lookup(f.kind()); !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: field %q has kind %q", ErrUnknownKind, f.Name, f.kind()))
		}
	}

	for _, section := range d.Sections() {
		if declared[section] {
			errs = multierr.Append(errs, fmt.Errorf("%w: %q", ErrSectionConflict, section))
		}
	}

	for _, f := range d.Fields {
		if f.Name == "" {
			continue
		}
		for _, role := range sortedRoles(f.DependsOn) {
			sibling := f.DependsOn[role]
			if !declared[sibling] {
				errs = multierr.Append(errs, fmt.Errorf("%w: field %q role %q names %q", ErrUndeclaredDependency, f.Name, role, sibling))
			}
		}
		errs = multierr.Append(errs, validateRules(f))
		for _, v := range f.Validate {
			if _, err := compileCheck(v); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("field %q: %w", f.Name, err))
			}
		}
	}

	if cycle := findCycle(d.Fields); cycle != nil {
		errs = multierr.Append(errs, fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(cycle, " -> ")))
	}
	return errs
}

func validateRules(f Field) error {
	var errs error
	for _, rule := range []struct{ name, source string }{
		{"hidden", f.Rules.Hidden},
		{"disabled", f.Rules.Disabled},
		{"required", f.Rules.Required},
	} {
		if rule.source == "" {
			continue
		}
		if _, err := expr.Compile(rule.source); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%w: field %q %s: %v", ErrInvalidRule, f.Name, rule.name, err))
		}
	}
	if f.Rules.Label != "" {
		if _, err := compileTemplate(f.Rules.Label); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%w: field %q label: %v", ErrInvalidRule, f.Name, err))
		}
	}
	return errs
}

// findCycle returns the first dependency cycle, as a path that starts and
// ends with the same field, or nil.
func findCycle(fields []Field) []string {
	edges := make(map[string][]string, len(fields))
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			continue
		}
		if _, seen := edges[f.Name]; !seen {
			names = append(names, f.Name)
		}
		for _, role := range sortedRoles(f.DependsOn) {
			edges[f.Name] = append(edges[f.Name], f.DependsOn[role])
		}
		if edges[f.Name] == nil {
			edges[f.Name] = []string{}
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(names))
	var stack []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		switch state[name] {
		case visiting:
			for i, n := range stack {
				if n == name {
					cycle = append(append([]string(nil), stack[i:]...), name)
					return true
				}
			}
			return true
		case done:
			return false
		}
		state[name] = visiting
		stack = append(stack, name)
		for _, next := range edges[name] {
			if _, declared := edges[next]; !declared {
				continue
			}
			if visit(next) {
				return true
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return false
	}

	for _, name := range names {
		if visit(name) {
			return cycle
		}
	}
	return nil
}

func sortedRoles(deps map[string]string) []string {
	roles := make([]string, 0, len(deps))
	for role := range deps {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}
