package codegen

import (
	"cowgolc/pkg/ast"
)

// genSub emits one subroutine: its label(s), a prologue that copies
// stack-passed arguments into their data-segment slots, the lowered
// body, and an epilogue that loads the first return slot into HL
// before RET. A forward declaration (Body == nil) generates nothing —
// it exists only so the symbol table already knows its signature.
func (g *Generator) genSub(decl *ast.SubDecl) error {
	if decl.Body == nil {
		return nil
	}

	sig, ok := g.table.Subroutine(decl.Name)
	if !ok {
		// The type checker is expected to have registered every
		// defined subroutine; absence here means upstream is
		// inconsistent with the AST it handed us, which is an
		// internal error rather than a user-facing one.
		return errUnknownStmt("subroutine " + decl.Name + " has no registered signature")
	}

	prevSub := g.currentSub
	g.currentSub = decl.Name
	defer func() { g.currentSub = prevSub }()

	g.w.Emit("")
	g.w.Emit("; Subroutine %s", decl.Name)
	if decl.ExternName != "" {
		g.w.Emit("\tPUBLIC\t%s", decl.ExternName)
		g.w.EmitLabel(decl.ExternName)
	}
	g.w.EmitLabel(g.subLabel(sig))

	for _, p := range sig.Params {
		g.allocVar(p.Name, p.Type)
	}
	for _, r := range sig.Returns {
		g.allocVar(r.Name, r.Type)
	}

	// Copy stack-passed arguments into their slots. Arguments were
	// pushed in reverse order at the call site, so the first
	// parameter sits at the lowest offset above the return address.
	offset := 2
	for _, p := range sig.Params {
		v, _ := g.lookupVar(p.Name)
		g.w.Emit("\tLXI\tH,%d", offset)
		g.w.Emit("\tDAD\tSP")
		if g.typeSize(p.Type) == 1 {
			g.w.Emit("\tMOV\tA,M")
			g.w.Emit("\tSTA\t%s", v.label)
		} else {
			g.w.Emit("\tMOV\tE,M")
			g.w.Emit("\tINX\tH")
			g.w.Emit("\tMOV\tD,M")
			g.w.Emit("\tXCHG")
			g.w.Emit("\tSHLD\t%s", v.label)
		}
		offset += 2
	}

	if err := g.genStmts(decl.Body); err != nil {
		return err
	}

	if len(sig.Returns) > 0 {
		ret := sig.Returns[0]
		v, _ := g.lookupVar(ret.Name)
		if g.typeSize(ret.Type) == 1 {
			g.w.Emit("\tLDA\t%s", v.label)
			widenAtoHL(g.w)
		} else {
			g.w.Emit("\tLHLD\t%s", v.label)
		}
	}
	g.w.Emit("\tRET")

	for _, nested := range decl.Nested {
		if err := g.genSub(nested); err != nil {
			return err
		}
	}
	return nil
}
