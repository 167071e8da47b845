package definition

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formflow/pkg/form"
)

var (
	// ErrKindExists is returned when a kind name is registered twice.
	ErrKindExists = errors.New("definition: kind already registered")
	// ErrInvalidKind is returned for blank kind names or nil constructors.
	ErrInvalidKind = errors.New("definition: invalid kind registration")
)

// Constructor declares a parameter of one kind on c.
type Constructor func(c form.Container, name string, init form.ParamInit) (form.Parameter, error)

// Kind adapts a form.Param constructor to a Constructor.
func Kind[P form.Parameter](ctor func(*form.BaseParameter) P) Constructor {
	return func(c form.Container, name string, init form.ParamInit) (form.Parameter, error) {
		param, err := form.Param(c, name, ctor, init)
		if err != nil {
			return nil, err
		}
		return param, nil
	}
}

// Registry maps kind names to constructors.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]Constructor
}

// NewRegistry returns a registry holding the built-in kinds: string,
// number, boolean and stringList.
func NewRegistry() *Registry {
	r := &Registry{kinds: make(map[string]Constructor)}
	r.kinds["string"] = Kind(form.NewString)
	r.kinds["number"] = Kind(form.NewNumber)
	r.kinds["boolean"] = Kind(form.NewBoolean)
	r.kinds["stringList"] = Kind(form.NewStringList)
	return r
}

// Register adds a kind. Names are case-sensitive.
func (r *Registry) Register(kind string, ctor Constructor) error {
	if r == nil {
		return ErrInvalidKind
	}
	kind = strings.TrimSpace(kind)
	if kind == "" || ctor == nil {
		return ErrInvalidKind
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.kinds[kind]; exists {
		return fmt.Errorf("%w: %q", ErrKindExists, kind)
	}
	r.kinds[kind] = ctor
	return nil
}

// Lookup returns the constructor for kind.
func (r *Registry) Lookup(kind string) (Constructor, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.kinds[strings.TrimSpace(kind)]
	return ctor, ok
}

// Kinds lists registered kind names in sorted order.
func (r *Registry) Kinds() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.kinds))
	for kind := range r.kinds {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}
