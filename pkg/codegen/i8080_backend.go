package codegen

import (
	"cowgolc/pkg/ast"
	"cowgolc/pkg/symtab"
)

// I8080Backend is the code generator target for the Intel 8080. It
// holds no per-program state itself — each Generate call builds a
// fresh Generator — so one Backend value is safely reused across
// programs.
type I8080Backend struct{}

func (b *I8080Backend) Name() string { return "i8080" }

func (b *I8080Backend) Generate(program *ast.Program, table *symtab.SymbolTable) (string, error) {
	gen := NewGenerator(table)
	return gen.Generate(program)
}

func (b *I8080Backend) GetFileExtension() string { return ".asm" }

func (b *I8080Backend) SupportsFeature(feature string) bool {
	switch feature {
	case FeatureIndirectCalls, FeatureInlineAssembly, FeatureNestedSubs:
		return true
	default:
		return false
	}
}

func init() {
	RegisterBackend("i8080", func() Backend { return &I8080Backend{} })
	RegisterBackend("8080", func() Backend { return &I8080Backend{} })
	RegisterBackend("intel8080", func() Backend { return &I8080Backend{} })
}
