package codegen

import (
	"cowgolc/pkg/emit"
	"cowgolc/pkg/symtab"
)

// Dest names where an expression's lowered value must end up: the
// accumulator for 1-byte values, or HL for 2-byte values.
type Dest string

const (
	DestA  Dest = "A"
	DestHL Dest = "HL"
)

// allocatedVar is one data-segment slot the generator itself has
// handed out — the "map of declared variables to labels+size" spec.md
// §2 lists as lowering-engine state, kept separate from the symbol
// table's read-only resolution duty.
type allocatedVar struct {
	label string
	typ   symtab.Type
}

// Generator is the single long-lived value that owns every piece of
// mutable state a generation pass needs: the emitted output, the
// data-segment allocation table, label bookkeeping, and the
// break/continue stacks for the statement currently being lowered.
// Nothing here is package-level, so two Generators never interfere —
// the opposite of the one-shared-object design spec.md §9 flags.
type Generator struct {
	w      *emit.Writer
	table  *symtab.SymbolTable

	allocated map[string]*allocatedVar
	allocOrder []string

	currentSub string

	breakLabels    []string
	continueLabels []string
}

// NewGenerator returns a Generator ready to lower program against
// table, the symbol table a type checker has already populated.
func NewGenerator(table *symtab.SymbolTable) *Generator {
	return &Generator{
		w:         emit.New(),
		table:     table,
		allocated: make(map[string]*allocatedVar),
	}
}

// allocVar returns the mangled label for name, allocating a fresh
// data-segment slot the first time name is seen. Subsequent calls for
// the same name are no-ops that just return the existing label —
// spec.md §4.3's "allocate... if not already present".
func (g *Generator) allocVar(name string, typ symtab.Type) string {
	if v, ok := g.allocated[name]; ok {
		return v.label
	}
	label := emit.MangleVar(name)
	g.allocated[name] = &allocatedVar{label: label, typ: typ}
	g.allocOrder = append(g.allocOrder, name)
	return label
}

// lookupVar returns the allocated slot for name, if any.
func (g *Generator) lookupVar(name string) (*allocatedVar, bool) {
	v, ok := g.allocated[name]
	return v, ok
}

func widenAtoHL(w *emit.Writer) {
	w.Emit("\tMOV\tL,A")
	w.Emit("\tMVI\tH,0")
}

func narrowHLtoA(w *emit.Writer) {
	w.Emit("\tMOV\tA,L")
}
