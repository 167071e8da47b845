// Package testsupport holds helpers shared by package tests: fixture
// loading, golden files and form event recorders.
package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/form"
)

// DefaultTimeout bounds Context.
const DefaultTimeout = 2 * time.Second

// Context returns a context cancelled after DefaultTimeout or at cleanup.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	t.Cleanup(cancel)
	return ctx
}

// LoadDefinition reads a definition fixture.
func LoadDefinition(t *testing.T, path string) *definition.Definition {
	t.Helper()
	def, err := definition.LoadFile(path)
	if err != nil {
		t.Fatalf("load definition: %v", err)
	}
	return def
}

// BuildForm loads and builds a definition fixture. Parameters with a Close
// method are closed at cleanup.
func BuildForm(t *testing.T, path string, reg *definition.Registry, opts ...form.Option) *form.Form {
	t.Helper()
	f, err := definition.Build(LoadDefinition(t, path), reg, opts...)
	if err != nil {
		t.Fatalf("build form: %v", err)
	}
	CloseParameters(t, f)
	return f
}

// CloseParameters closes every parameter of f that has a Close method when
// the test ends.
func CloseParameters(t *testing.T, f *form.Form) {
	t.Helper()
	for _, entry := range f.AllEntries() {
		if closer, ok := entry.(interface{ Close() }); ok {
			t.Cleanup(closer.Close)
		}
	}
}

// MustReadGolden reads a golden file.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set and
// reports whether it did.
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}
