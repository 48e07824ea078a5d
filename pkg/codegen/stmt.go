package codegen

import (
	"fmt"

	"cowgolc/pkg/ast"
	"cowgolc/pkg/emit"
	"cowgolc/pkg/symtab"
)

func (g *Generator) genStmts(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := g.genStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) genStmt(s ast.Stmt) error {
	switch x := s.(type) {
	case *ast.VarDecl:
		return g.genVarDecl(x)
	case *ast.ConstDecl, *ast.RecordDecl, *ast.TypedefDecl:
		// No code generated for type/constant declarations.
	case *ast.Assignment:
		return g.genAssignment(x)
	case *ast.MultiAssignment:
		return g.genMultiAssignment(x)
	case *ast.IfStmt:
		return g.genIf(x)
	case *ast.WhileStmt:
		return g.genWhile(x)
	case *ast.LoopStmt:
		return g.genLoop(x)
	case *ast.BreakStmt:
		if len(g.breakLabels) > 0 {
			g.w.Emit("\tJMP\t%s", g.breakLabels[len(g.breakLabels)-1])
		}
	case *ast.ContinueStmt:
		if len(g.continueLabels) > 0 {
			g.w.Emit("\tJMP\t%s", g.continueLabels[len(g.continueLabels)-1])
		}
	case *ast.ReturnStmt:
		if sig, ok := g.table.Subroutine(g.currentSub); ok && len(sig.Returns) > 0 {
			ret := sig.Returns[0]
			if v, ok := g.lookupVar(ret.Name); ok {
				if g.typeSize(ret.Type) == 1 {
					g.w.Emit("\tLDA\t%s", v.label)
					widenAtoHL(g.w)
				} else {
					g.w.Emit("\tLHLD\t%s", v.label)
				}
			}
		}
		g.w.Emit("\tRET")
	case *ast.CaseStmt:
		return g.genCase(x)
	case *ast.ExprStmt:
		return g.genExpr(x.Expr, DestHL)
	case *ast.AsmStmt:
		g.genAsm(x)
	case *ast.SubDecl:
		return g.genSub(x)
	default:
		return errUnknownStmt(fmt.Sprintf("%T", s))
	}
	return nil
}

func (g *Generator) genVarDecl(v *ast.VarDecl) error {
	if _, already := g.lookupVar(v.Name); already {
		return nil
	}
	label := g.allocVar(v.Name, v.Type)
	if v.Init == nil {
		return nil
	}

	switch init := v.Init.(type) {
	case *ast.ArrayInit:
		return g.genArrayInit(v.Name, v.Type, init)
	case *ast.StringLiteral:
		strLabel := g.w.InternString(init.Value)
		g.w.Emit("\tLXI\tH,%s", strLabel)
		g.w.Emit("\tSHLD\t%s", label)
	default:
		if err := g.genExpr(v.Init, DestHL); err != nil {
			return err
		}
		if g.typeSize(v.Type) == 1 {
			g.w.Emit("\tMOV\tA,L")
			g.w.Emit("\tSTA\t%s", label)
		} else {
			g.w.Emit("\tSHLD\t%s", label)
		}
	}
	return nil
}

func (g *Generator) genArrayInit(name string, typ symtab.Type, init *ast.ArrayInit) error {
	mangled := emit.MangleVar(name)

	elemSize := 1
	if arr, ok := typ.(symtab.ArrayType); ok {
		elemSize = g.typeSize(arr.Elem)
	}

	offset := 0
	for _, elem := range init.Elements {
		if err := g.genExpr(elem, DestHL); err != nil {
			return err
		}
		if elemSize == 1 {
			g.w.Emit("\tMOV\tA,L")
			g.w.Emit("\tSTA\t%s+%d", mangled, offset)
		} else {
			g.w.Emit("\tSHLD\t%s+%d", mangled, offset)
		}
		offset += elemSize
	}
	return nil
}

func (g *Generator) genAssignment(a *ast.Assignment) error {
	if err := g.genExpr(a.Value, DestHL); err != nil {
		return err
	}
	return g.genStoreToTarget(a.Target)
}

// genStoreToTarget stores the value currently in HL to target,
// dispatching on the lvalue shape. Shared between plain and
// multi-target assignment.
func (g *Generator) genStoreToTarget(target ast.Expr) error {
	switch t := target.(type) {
	case *ast.Ident:
		v, ok := g.lookupVar(t.Name)
		if !ok {
			return nil
		}
		if g.typeSize(v.typ) == 1 {
			g.w.Emit("\tMOV\tA,L")
			g.w.Emit("\tSTA\t%s", v.label)
		} else {
			g.w.Emit("\tSHLD\t%s", v.label)
		}
		return nil

	case *ast.ArrayAccess:
		g.w.Emit("\tPUSH\tH")
		if err := g.genArrayAddress(t); err != nil {
			return err
		}
		g.w.Emit("\tXCHG")
		g.w.Emit("\tPOP\tH")
		return g.storeAtAddress(t.ResolvedType)

	case *ast.FieldAccess:
		g.w.Emit("\tPUSH\tH")
		if err := g.genFieldAddress(t); err != nil {
			return err
		}
		g.w.Emit("\tXCHG")
		g.w.Emit("\tPOP\tH")
		return g.storeAtAddress(t.ResolvedType)

	case *ast.Dereference:
		g.w.Emit("\tPUSH\tH")
		if err := g.genExpr(t.Pointer, DestHL); err != nil {
			return err
		}
		g.w.Emit("\tXCHG")
		g.w.Emit("\tPOP\tH")
		return g.storeAtAddress(t.ResolvedType)

	default:
		return errUnsupportedAddressOf(fmt.Sprintf("assignment target %T", target))
	}
}

// storeAtAddress stores HL (the value) to the address in DE, assuming
// the caller already did the PUSH H / compute-address / XCHG / POP H
// dance to get value-in-HL, address-in-DE.
func (g *Generator) storeAtAddress(typ symtab.Type) error {
	if g.typeSize(typ) == 1 {
		g.w.Emit("\tMOV\tA,L")
		g.w.Emit("\tSTAX\tD")
	} else {
		g.w.Emit("\tXCHG")
		g.w.Emit("\tMOV\tM,E")
		g.w.Emit("\tINX\tH")
		g.w.Emit("\tMOV\tM,D")
	}
	return nil
}

func (g *Generator) genMultiAssignment(m *ast.MultiAssignment) error {
	if err := g.genExpr(m.Value, DestHL); err != nil {
		return err
	}
	for i, target := range m.Targets {
		if i > 0 {
			g.w.Emit("\tPOP\tH")
		}
		if err := g.genStoreToTarget(target); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) genIf(ifs *ast.IfStmt) error {
	hasMore := len(ifs.ElseIfs) > 0 || ifs.ElseBody != nil
	elseLabel := g.w.NewLabel("ELSE")
	endLabel := g.w.NewLabel("ENDIF")

	if err := g.genExpr(ifs.Condition, DestA); err != nil {
		return err
	}
	g.w.Emit("\tORA\tA")
	if hasMore {
		g.w.Emit("\tJZ\t%s", elseLabel)
	} else {
		g.w.Emit("\tJZ\t%s", endLabel)
	}

	if err := g.genStmts(ifs.ThenBody); err != nil {
		return err
	}
	if hasMore {
		g.w.Emit("\tJMP\t%s", endLabel)
	}

	for i, ei := range ifs.ElseIfs {
		g.w.EmitLabel(elseLabel)
		var next string
		if i < len(ifs.ElseIfs)-1 || ifs.ElseBody != nil {
			next = g.w.NewLabel("ELIF")
		} else {
			next = endLabel
		}
		elseLabel = next

		if err := g.genExpr(ei.Condition, DestA); err != nil {
			return err
		}
		g.w.Emit("\tORA\tA")
		g.w.Emit("\tJZ\t%s", next)

		if err := g.genStmts(ei.Body); err != nil {
			return err
		}
		g.w.Emit("\tJMP\t%s", endLabel)
	}

	if ifs.ElseBody != nil {
		g.w.EmitLabel(elseLabel)
		if err := g.genStmts(ifs.ElseBody); err != nil {
			return err
		}
	}

	g.w.EmitLabel(endLabel)
	return nil
}

func (g *Generator) genWhile(w *ast.WhileStmt) error {
	loopLabel := g.w.NewLabel("WHILE")
	endLabel := g.w.NewLabel("ENDW")

	g.breakLabels = append(g.breakLabels, endLabel)
	g.continueLabels = append(g.continueLabels, loopLabel)
	defer func() {
		g.breakLabels = g.breakLabels[:len(g.breakLabels)-1]
		g.continueLabels = g.continueLabels[:len(g.continueLabels)-1]
	}()

	g.w.EmitLabel(loopLabel)
	if err := g.genExpr(w.Condition, DestA); err != nil {
		return err
	}
	g.w.Emit("\tORA\tA")
	g.w.Emit("\tJZ\t%s", endLabel)

	if err := g.genStmts(w.Body); err != nil {
		return err
	}
	g.w.Emit("\tJMP\t%s", loopLabel)
	g.w.EmitLabel(endLabel)
	return nil
}

func (g *Generator) genLoop(l *ast.LoopStmt) error {
	loopLabel := g.w.NewLabel("LOOP")
	endLabel := g.w.NewLabel("ENDL")

	g.breakLabels = append(g.breakLabels, endLabel)
	g.continueLabels = append(g.continueLabels, loopLabel)
	defer func() {
		g.breakLabels = g.breakLabels[:len(g.breakLabels)-1]
		g.continueLabels = g.continueLabels[:len(g.continueLabels)-1]
	}()

	g.w.EmitLabel(loopLabel)
	if err := g.genStmts(l.Body); err != nil {
		return err
	}
	g.w.Emit("\tJMP\t%s", loopLabel)
	g.w.EmitLabel(endLabel)
	return nil
}

func (g *Generator) genCase(c *ast.CaseStmt) error {
	endLabel := g.w.NewLabel("ENDC")

	if err := g.genExpr(c.Target, DestHL); err != nil {
		return err
	}
	g.w.Emit("\tPUSH\tH")

	for _, when := range c.Whens {
		nextWhen := g.w.NewLabel("WHEN")
		for _, val := range when.Values {
			g.w.Emit("\tPOP\tH")
			g.w.Emit("\tPUSH\tH")
			if err := g.genExpr(val, DestHL); err != nil {
				return err
			}
			g.w.Emit("\tXCHG")
			g.w.Emit("\tPOP\tH")
			g.w.Emit("\tPUSH\tH")

			g.w.Emit("\tMOV\tA,H")
			g.w.Emit("\tCMP\tD")
			g.w.Emit("\tJNZ\t%s", nextWhen)
			g.w.Emit("\tMOV\tA,L")
			g.w.Emit("\tCMP\tE")
			g.w.Emit("\tJNZ\t%s", nextWhen)
		}

		g.w.Emit("\tPOP\tH") // matched: clean the pushed scrutinee
		if err := g.genStmts(when.Body); err != nil {
			return err
		}
		g.w.Emit("\tJMP\t%s", endLabel)

		g.w.EmitLabel(nextWhen)
	}

	g.w.Emit("\tPOP\tH") // no arm matched: clean the pushed scrutinee
	if c.Else != nil {
		if err := g.genStmts(c.Else); err != nil {
			return err
		}
	}

	g.w.EmitLabel(endLabel)
	return nil
}

// genAsm joins an inline assembly statement's fragments, substituting
// each identifier part per spec.md §4.3, and emits the result as a
// single tab-indented line.
func (g *Generator) genAsm(a *ast.AsmStmt) {
	var parts []string
	for _, part := range a.Parts {
		if part.Ident == "" {
			parts = append(parts, part.Literal)
			continue
		}
		name := part.Ident
		res := g.table.Lookup(name)
		switch res.Kind {
		case symtab.KindConst:
			parts = append(parts, fmt.Sprintf("%d", res.ConstValue))
		case symtab.KindSubroutine:
			parts = append(parts, g.subLabel(res.Sub))
		default:
			if v, ok := g.lookupVar(name); ok {
				parts = append(parts, v.label)
			} else {
				parts = append(parts, emit.MangleVar(name))
			}
		}
	}

	line := ""
	for i, p := range parts {
		if i > 0 && p != "" && !isSpace(p[0]) && line != "" && !isSpace(line[len(line)-1]) {
			line += "\t"
		}
		line += p
	}
	g.w.Emit("\t%s", line)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}
