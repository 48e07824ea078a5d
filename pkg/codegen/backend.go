package codegen

import (
	"cowgolc/pkg/ast"
	"cowgolc/pkg/symtab"
)

// Backend is the interface a code generation target implements. The
// registry below exists so cmd/cowgolc can select a target by name the
// same way it selects everything else from a flag, even though only
// one backend — i8080 — ships today.
type Backend interface {
	// Name returns the target's short name, e.g. "i8080".
	Name() string

	// Generate lowers a fully type-checked program, resolved against
	// table, into the target's assembly text.
	Generate(program *ast.Program, table *symtab.SymbolTable) (string, error)

	// GetFileExtension returns the conventional output file suffix for
	// this target's assembly dialect.
	GetFileExtension() string

	// SupportsFeature reports whether this backend implements an
	// optional capability (see the Feature constants).
	SupportsFeature(feature string) bool
}

// Feature names a backend capability cmd/cowgolc or a test may probe
// for before relying on it.
const (
	FeatureIndirectCalls  = "indirect_calls"
	FeatureInlineAssembly = "inline_assembly"
	FeatureNestedSubs     = "nested_subroutines"
)

// BackendFactory constructs a Backend instance.
type BackendFactory func() Backend

var backends = make(map[string]BackendFactory)

// RegisterBackend adds a backend under name to the registry. Backends
// call this from an init() func, the same pattern the i8080 backend
// uses for itself and its aliases.
func RegisterBackend(name string, factory BackendFactory) {
	backends[name] = factory
}

// GetBackend returns a new instance of the named backend, or nil if no
// backend is registered under that name.
func GetBackend(name string) Backend {
	if factory, ok := backends[name]; ok {
		return factory()
	}
	return nil
}

// ListBackends returns the names of every registered backend.
func ListBackends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}
