package codegen

import (
	"strconv"
	"strings"

	"cowgolc/pkg/ast"
)

// Generate lowers a fully type-checked program into an 8080 assembly
// text stream (spec.md §4.5). It is the single entry point every
// caller — the i8080 Backend, and tests — uses.
func (g *Generator) Generate(program *ast.Program) (string, error) {
	g.w.Emit("; Generated by cowgolc")
	g.w.Emit("")
	g.w.Emit("\t.8080")
	g.w.Emit("")
	g.w.Emit("\tCSEG")
	g.w.Emit("")
	g.w.Emit("\tJMP\t_main")
	g.w.Emit("")
	g.w.Emit("\tINCLUDE\t'runtime.mac'")
	g.w.Emit("")

	// Pre-pass: every global variable gets a data-segment slot before
	// any subroutine is lowered, so a subroutine body can always find
	// one in scope regardless of declaration order.
	for _, stmt := range program.Globals {
		if v, ok := stmt.(*ast.VarDecl); ok {
			g.allocVar(v.Name, v.Type)
		}
	}
	if err := g.genStmts(program.Globals); err != nil {
		return "", err
	}

	for _, sub := range program.Subroutines {
		if err := g.genSub(sub); err != nil {
			return "", err
		}
	}

	g.w.Emit("")
	g.w.Emit("; Main program")
	g.w.EmitLabel("_main")
	if err := g.genStmts(program.TopLevel); err != nil {
		return "", err
	}
	g.w.Emit("\tJMP\t0")
	g.w.Emit("")

	g.w.Emit("; Data segment")
	g.w.EmitLabel("_data")
	for _, name := range g.allocOrder {
		v := g.allocated[name]
		g.w.Emit("%s:\tDS\t%d", v.label, g.typeSize(v.typ))
	}
	for _, s := range g.w.InternedStrings() {
		g.w.Emit("%s:\t%s", s.Label, byteDirective(s.Value))
	}

	g.w.Emit("")
	g.w.Emit("\tEND")

	return g.w.String(), nil
}

// byteDirective renders a string literal as a comma-separated DB list
// of byte ordinals terminated by a zero byte, per spec.md §3's string
// pool format.
func byteDirective(value string) string {
	if value == "" {
		return "DB\t0"
	}
	ordinals := make([]string, len(value))
	for i := 0; i < len(value); i++ {
		ordinals[i] = strconv.Itoa(int(value[i]))
	}
	return "DB\t" + strings.Join(ordinals, ",") + ",0"
}
