package codegen

import (
	"fmt"

	"cowgolc/pkg/ast"
	"cowgolc/pkg/emit"
	"cowgolc/pkg/symtab"
)

func (g *Generator) typeSize(t symtab.Type) int {
	if t == nil {
		return 2
	}
	return symtab.BytesOf(t, g.table)
}

// genExpr lowers e so its value occupies dest on exit. If dest is A,
// only the low byte is meaningful on return; if dest is HL, the full
// word is valid (zero-extended from a 1-byte source).
func (g *Generator) genExpr(e ast.Expr, dest Dest) error {
	switch x := e.(type) {
	case *ast.IntLiteral:
		g.genIntLiteral(x, dest)
	case *ast.StringLiteral:
		label := g.w.InternString(x.Value)
		g.w.Emit("\tLXI\tH,%s", label)
	case *ast.NilLiteral:
		if dest == DestA {
			g.w.Emit("\tXRA\tA")
		} else {
			g.w.Emit("\tLXI\tH,0")
		}
	case *ast.Ident:
		return g.genIdent(x, dest)
	case *ast.BinOp:
		return g.genBinOp(x, dest)
	case *ast.LogicalOp:
		if err := g.genLogical(x); err != nil {
			return err
		}
		if dest == DestHL {
			widenAtoHL(g.w)
		}
	case *ast.UnaryOp:
		return g.genUnaryOp(x, dest)
	case *ast.AddressOf:
		return g.genAddressOf(x)
	case *ast.Dereference:
		return g.genDereference(x, dest)
	case *ast.PtrStep:
		return g.genPtrStep(x)
	case *ast.ArrayAccess:
		return g.genArrayAccess(x, dest)
	case *ast.FieldAccess:
		return g.genFieldAccess(x, dest)
	case *ast.Call:
		return g.genCall(x, dest)
	case *ast.SizeOf:
		g.genSizeOf(x, dest)
	case *ast.BytesOf:
		g.genBytesOf(x, dest)
	case *ast.ArrayInit:
		// Only ever legal as a VarDecl initializer; genVarDecl handles
		// it directly and never calls genExpr on it.
	default:
		return errUnknownExpr(fmt.Sprintf("%T", e))
	}
	return nil
}

func (g *Generator) genIntLiteral(lit *ast.IntLiteral, dest Dest) {
	if dest == DestA {
		g.w.Emit("\tMVI\tA,%d", lit.Value&0xFF)
	} else {
		g.w.Emit("\tLXI\tH,%d", lit.Value&0xFFFF)
	}
}

func (g *Generator) genIdent(id *ast.Ident, dest Dest) error {
	if v, ok := g.lookupVar(id.Name); ok {
		if g.typeSize(v.typ) == 1 {
			g.w.Emit("\tLDA\t%s", v.label)
			if dest == DestHL {
				widenAtoHL(g.w)
			}
		} else {
			g.w.Emit("\tLHLD\t%s", v.label)
			if dest == DestA {
				narrowHLtoA(g.w)
			}
		}
		return nil
	}

	res := g.table.Lookup(id.Name)
	switch res.Kind {
	case symtab.KindConst:
		if dest == DestA {
			g.w.Emit("\tMVI\tA,%d", res.ConstValue&0xFF)
		} else {
			g.w.Emit("\tLXI\tH,%d", res.ConstValue&0xFFFF)
		}
	case symtab.KindSubroutine:
		g.w.Emit("\tLXI\tH,%s", g.subLabel(res.Sub))
	case symtab.KindExternSymbol:
		g.w.Emit("\tLXI\tH,%s", res.ExternName)
	default:
		// Unresolvable: fall back to the bare name as an external
		// symbol reference (spec.md §7 — a deliberate escape hatch).
		g.w.Emit("\tLXI\tH,%s", id.Name)
	}
	return nil
}

// subLabel is the label a direct call or address-of-subroutine should
// use: the extern alias if one is declared, else the mangled name.
func (g *Generator) subLabel(sig *symtab.SubroutineSig) string {
	if sig.ExternName != "" {
		return sig.ExternName
	}
	return emit.MangleSub(sig.Name)
}

func (g *Generator) genUnaryOp(u *ast.UnaryOp, dest Dest) error {
	if u.Op == ast.UnaryNot {
		if err := g.genExpr(u.Operand, DestA); err != nil {
			return err
		}
		g.w.Emit("\tORA\tA")
		g.w.Emit("\tMVI\tA,0")
		g.w.Emit("\tJNZ\t$+5")
		g.w.Emit("\tMVI\tA,1")
		if dest == DestHL {
			widenAtoHL(g.w)
		}
		return nil
	}

	if err := g.genExpr(u.Operand, dest); err != nil {
		return err
	}
	switch u.Op {
	case ast.UnaryNeg:
		if dest == DestA {
			g.w.Emit("\tCMA")
			g.w.Emit("\tINR\tA")
		} else {
			g.w.Emit("\tMOV\tA,L")
			g.w.Emit("\tCMA")
			g.w.Emit("\tMOV\tL,A")
			g.w.Emit("\tMOV\tA,H")
			g.w.Emit("\tCMA")
			g.w.Emit("\tMOV\tH,A")
			g.w.Emit("\tINX\tH")
		}
	case ast.UnaryBitNot:
		if dest == DestA {
			g.w.Emit("\tCMA")
		} else {
			g.w.Emit("\tMOV\tA,L")
			g.w.Emit("\tCMA")
			g.w.Emit("\tMOV\tL,A")
			g.w.Emit("\tMOV\tA,H")
			g.w.Emit("\tCMA")
			g.w.Emit("\tMOV\tH,A")
		}
	}
	return nil
}

func (g *Generator) genAddressOf(a *ast.AddressOf) error {
	switch op := a.Operand.(type) {
	case *ast.Ident:
		if v, ok := g.lookupVar(op.Name); ok {
			g.w.Emit("\tLXI\tH,%s", v.label)
			return nil
		}
		g.w.Emit("\tLXI\tH,%s", op.Name)
		return nil
	case *ast.FieldAccess:
		return g.genFieldAddress(op)
	case *ast.ArrayAccess:
		return g.genArrayAddress(op)
	default:
		return errUnsupportedAddressOf(fmt.Sprintf("%T", a.Operand))
	}
}

func (g *Generator) genDereference(d *ast.Dereference, dest Dest) error {
	if err := g.genExpr(d.Pointer, DestHL); err != nil {
		return err
	}
	if g.typeSize(d.ResolvedType) == 1 {
		g.w.Emit("\tMOV\tA,M")
		if dest == DestHL {
			widenAtoHL(g.w)
		}
	} else {
		g.w.Emit("\tMOV\tE,M")
		g.w.Emit("\tINX\tH")
		g.w.Emit("\tMOV\tD,M")
		g.w.Emit("\tXCHG")
		if dest == DestA {
			narrowHLtoA(g.w)
		}
	}
	return nil
}

func (g *Generator) genPtrStep(p *ast.PtrStep) error {
	if err := g.genExpr(p.Pointer, DestHL); err != nil {
		return err
	}
	elemSize := 1
	if ptr, ok := p.ResolvedType.(symtab.PointerType); ok {
		elemSize = g.typeSize(ptr.Elem)
	}
	if p.Forward {
		if elemSize == 1 {
			g.w.Emit("\tINX\tH")
		} else {
			g.w.Emit("\tLXI\tD,%d", elemSize)
			g.w.Emit("\tDAD\tD")
		}
	} else {
		if elemSize == 1 {
			g.w.Emit("\tDCX\tH")
		} else {
			g.w.Emit("\tLXI\tD,-%d", elemSize)
			g.w.Emit("\tDAD\tD")
		}
	}
	return nil
}

func (g *Generator) genSizeOf(s *ast.SizeOf, dest Dest) {
	count := symtab.SizeOf(exprType(s.Target))
	if dest == DestA {
		g.w.Emit("\tMVI\tA,%d", count&0xFF)
	} else {
		g.w.Emit("\tLXI\tH,%d", count)
	}
}

func (g *Generator) genBytesOf(b *ast.BytesOf, dest Dest) {
	size := g.typeSize(exprType(b.Target))
	if dest == DestA {
		g.w.Emit("\tMVI\tA,%d", size&0xFF)
	} else {
		g.w.Emit("\tLXI\tH,%d", size)
	}
}

// exprType extracts the ResolvedType an upstream type checker attached
// to e, or nil if e carries none (BytesOf/SizeOf targets are always
// typed expressions by construction).
func exprType(e ast.Expr) symtab.Type {
	switch x := e.(type) {
	case *ast.IntLiteral:
		return x.ResolvedType
	case *ast.NilLiteral:
		return x.ResolvedType
	case *ast.Ident:
		return x.ResolvedType
	case *ast.BinOp:
		return x.ResolvedType
	case *ast.UnaryOp:
		return x.ResolvedType
	case *ast.Dereference:
		return x.ResolvedType
	case *ast.PtrStep:
		return x.ResolvedType
	case *ast.ArrayAccess:
		return x.ResolvedType
	case *ast.FieldAccess:
		return x.ResolvedType
	case *ast.Call:
		return x.ResolvedType
	default:
		return nil
	}
}

func (g *Generator) genBinOp(b *ast.BinOp, dest Dest) error {
	if isComparison(b.Op) {
		if err := g.genComparison(b); err != nil {
			return err
		}
		if dest == DestHL {
			widenAtoHL(g.w)
		}
		return nil
	}

	if g.typeSize(b.ResolvedType) == 1 {
		return g.genBinOp8(b, dest)
	}
	return g.genBinOp16(b, dest)
}

func isComparison(op ast.BinOpKind) bool {
	switch op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		return true
	default:
		return false
	}
}

func (g *Generator) genBinOp8(b *ast.BinOp, dest Dest) error {
	if err := g.genExpr(b.Left, DestA); err != nil {
		return err
	}
	g.w.Emit("\tPUSH\tPSW")
	if err := g.genExpr(b.Right, DestA); err != nil {
		return err
	}
	g.w.Emit("\tMOV\tB,A")
	g.w.Emit("\tPOP\tPSW")

	switch b.Op {
	case ast.OpAdd:
		g.w.Emit("\tADD\tB")
	case ast.OpSub:
		g.w.Emit("\tSUB\tB")
	case ast.OpBitAnd:
		g.w.Emit("\tANA\tB")
	case ast.OpBitOr:
		g.w.Emit("\tORA\tB")
	case ast.OpBitXor:
		g.w.Emit("\tXRA\tB")
	case ast.OpMul:
		g.w.Emit("\tCALL\t_mul8")
	case ast.OpDiv:
		g.w.Emit("\tCALL\t_div8")
	case ast.OpMod:
		g.w.Emit("\tCALL\t_mod8")
	case ast.OpShl:
		g.genShift8(true)
	case ast.OpShr:
		g.genShift8(false)
	}

	if dest == DestHL {
		widenAtoHL(g.w)
	}
	return nil
}

// genShift8 open-codes a variable-count 1-byte shift as a counted
// loop: B holds the shift count, the value starts in A via C.
func (g *Generator) genShift8(left bool) {
	prefix, endPrefix := "SHL", "SHLE"
	if !left {
		prefix, endPrefix = "SHR", "SHRE"
	}
	loop := g.w.NewLabel(prefix)
	end := g.w.NewLabel(endPrefix)
	g.w.EmitLabel(loop)
	g.w.Emit("\tMOV\tC,A")
	g.w.Emit("\tMOV\tA,B")
	g.w.Emit("\tORA\tA")
	g.w.Emit("\tJZ\t%s", end)
	g.w.Emit("\tDCR\tB")
	g.w.Emit("\tMOV\tA,C")
	if left {
		g.w.Emit("\tADD\tA")
	} else {
		g.w.Emit("\tORA\tA")
		g.w.Emit("\tRAR")
	}
	g.w.Emit("\tJMP\t%s", loop)
	g.w.EmitLabel(end)
	g.w.Emit("\tMOV\tA,C")
}

func (g *Generator) genBinOp16(b *ast.BinOp, dest Dest) error {
	if err := g.genExpr(b.Left, DestHL); err != nil {
		return err
	}
	g.w.Emit("\tPUSH\tH")
	if err := g.genExpr(b.Right, DestHL); err != nil {
		return err
	}
	g.w.Emit("\tXCHG") // DE = right
	g.w.Emit("\tPOP\tH") // HL = left

	switch b.Op {
	case ast.OpAdd:
		g.w.Emit("\tDAD\tD")
	case ast.OpSub:
		g.w.Emit("\tMOV\tA,L")
		g.w.Emit("\tSUB\tE")
		g.w.Emit("\tMOV\tL,A")
		g.w.Emit("\tMOV\tA,H")
		g.w.Emit("\tSBB\tD")
		g.w.Emit("\tMOV\tH,A")
	case ast.OpBitAnd:
		g.w.Emit("\tMOV\tA,L")
		g.w.Emit("\tANA\tE")
		g.w.Emit("\tMOV\tL,A")
		g.w.Emit("\tMOV\tA,H")
		g.w.Emit("\tANA\tD")
		g.w.Emit("\tMOV\tH,A")
	case ast.OpBitOr:
		g.w.Emit("\tMOV\tA,L")
		g.w.Emit("\tORA\tE")
		g.w.Emit("\tMOV\tL,A")
		g.w.Emit("\tMOV\tA,H")
		g.w.Emit("\tORA\tD")
		g.w.Emit("\tMOV\tH,A")
	case ast.OpBitXor:
		g.w.Emit("\tMOV\tA,L")
		g.w.Emit("\tXRA\tE")
		g.w.Emit("\tMOV\tL,A")
		g.w.Emit("\tMOV\tA,H")
		g.w.Emit("\tXRA\tD")
		g.w.Emit("\tMOV\tH,A")
	case ast.OpMul:
		g.w.Emit("\tCALL\t_mul16")
	case ast.OpDiv:
		g.w.Emit("\tCALL\t_div16")
	case ast.OpMod:
		g.w.Emit("\tCALL\t_mod16")
	case ast.OpShl:
		g.w.Emit("\tCALL\t_shl16")
	case ast.OpShr:
		g.w.Emit("\tCALL\t_shr16")
	}

	if dest == DestA {
		narrowHLtoA(g.w)
	}
	return nil
}

// genComparison lowers b (a comparison op) into A as 0 or 1.
func (g *Generator) genComparison(b *ast.BinOp) error {
	if err := g.genExpr(b.Left, DestHL); err != nil {
		return err
	}
	g.w.Emit("\tPUSH\tH")
	if err := g.genExpr(b.Right, DestHL); err != nil {
		return err
	}
	g.w.Emit("\tXCHG")
	g.w.Emit("\tPOP\tH")

	g.w.Emit("\tMOV\tA,H")
	g.w.Emit("\tCMP\tD")
	g.w.Emit("\tJNZ\t$+5")
	g.w.Emit("\tMOV\tA,L")
	g.w.Emit("\tCMP\tE")

	trueLabel := g.w.NewLabel("TRUE")
	endLabel := g.w.NewLabel("END")
	falseLabel := g.w.NewLabel("FALSE")

	switch b.Op {
	case ast.OpEq:
		g.w.Emit("\tJZ\t%s", trueLabel)
	case ast.OpNe:
		g.w.Emit("\tJNZ\t%s", trueLabel)
	case ast.OpLt:
		g.w.Emit("\tJC\t%s", trueLabel)
	case ast.OpGe:
		g.w.Emit("\tJNC\t%s", trueLabel)
	case ast.OpGt:
		g.w.Emit("\tJZ\t%s", falseLabel)
		g.w.Emit("\tJNC\t%s", trueLabel)
	case ast.OpLe:
		g.w.Emit("\tJZ\t%s", trueLabel)
		g.w.Emit("\tJC\t%s", trueLabel)
	}

	g.w.EmitLabel(falseLabel)
	g.w.Emit("\tXRA\tA")
	g.w.Emit("\tJMP\t%s", endLabel)
	g.w.EmitLabel(trueLabel)
	g.w.Emit("\tMVI\tA,1")
	g.w.EmitLabel(endLabel)
	return nil
}

func (g *Generator) genLogical(l *ast.LogicalOp) error {
	switch l.Op {
	case ast.LogicalAnd:
		falseLabel := g.w.NewLabel("FALSE")
		endLabel := g.w.NewLabel("END")

		if err := g.genExpr(l.Left, DestA); err != nil {
			return err
		}
		g.w.Emit("\tORA\tA")
		g.w.Emit("\tJZ\t%s", falseLabel)

		if err := g.genExpr(l.Right, DestA); err != nil {
			return err
		}
		g.w.Emit("\tORA\tA")
		g.w.Emit("\tJZ\t%s", falseLabel)

		g.w.Emit("\tMVI\tA,1")
		g.w.Emit("\tJMP\t%s", endLabel)
		g.w.EmitLabel(falseLabel)
		g.w.Emit("\tXRA\tA")
		g.w.EmitLabel(endLabel)

	case ast.LogicalOr:
		trueLabel := g.w.NewLabel("TRUE")
		endLabel := g.w.NewLabel("END")

		if err := g.genExpr(l.Left, DestA); err != nil {
			return err
		}
		g.w.Emit("\tORA\tA")
		g.w.Emit("\tJNZ\t%s", trueLabel)

		if err := g.genExpr(l.Right, DestA); err != nil {
			return err
		}
		g.w.Emit("\tORA\tA")
		g.w.Emit("\tJNZ\t%s", trueLabel)

		g.w.Emit("\tXRA\tA")
		g.w.Emit("\tJMP\t%s", endLabel)
		g.w.EmitLabel(trueLabel)
		g.w.Emit("\tMVI\tA,1")
		g.w.EmitLabel(endLabel)
	}
	return nil
}

func (g *Generator) genArrayAccess(a *ast.ArrayAccess, dest Dest) error {
	if err := g.genArrayAddress(a); err != nil {
		return err
	}
	if g.typeSize(a.ResolvedType) == 1 {
		g.w.Emit("\tMOV\tA,M")
		if dest == DestHL {
			widenAtoHL(g.w)
		}
	} else {
		g.w.Emit("\tMOV\tE,M")
		g.w.Emit("\tINX\tH")
		g.w.Emit("\tMOV\tD,M")
		g.w.Emit("\tXCHG")
		if dest == DestA {
			narrowHLtoA(g.w)
		}
	}
	return nil
}

// genArrayAddress leaves the element address of a in HL.
func (g *Generator) genArrayAddress(a *ast.ArrayAccess) error {
	elemSize := 1
	switch t := exprType(a.Array).(type) {
	case symtab.ArrayType:
		elemSize = g.typeSize(t.Elem)
	case symtab.PointerType:
		elemSize = g.typeSize(t.Elem)
	}

	if err := g.genExpr(a.Index, DestHL); err != nil {
		return err
	}
	if elemSize > 1 {
		g.w.Emit("\tLXI\tD,%d", elemSize)
		g.w.Emit("\tCALL\t_mul16")
	}
	g.w.Emit("\tPUSH\tH")

	if id, ok := a.Array.(*ast.Ident); ok {
		if v, ok := g.lookupVar(id.Name); ok {
			g.w.Emit("\tLXI\tH,%s", v.label)
		} else {
			g.w.Emit("\tLXI\tH,%s", id.Name)
		}
	} else if err := g.genExpr(a.Array, DestHL); err != nil {
		return err
	}

	g.w.Emit("\tPOP\tD")
	g.w.Emit("\tDAD\tD")
	return nil
}

func (g *Generator) genFieldAccess(f *ast.FieldAccess, dest Dest) error {
	if err := g.genFieldAddress(f); err != nil {
		return err
	}
	if g.typeSize(f.ResolvedType) == 1 {
		g.w.Emit("\tMOV\tA,M")
		if dest == DestHL {
			widenAtoHL(g.w)
		}
	} else {
		g.w.Emit("\tMOV\tE,M")
		g.w.Emit("\tINX\tH")
		g.w.Emit("\tMOV\tD,M")
		g.w.Emit("\tXCHG")
		if dest == DestA {
			narrowHLtoA(g.w)
		}
	}
	return nil
}

// genFieldAddress leaves the address of record field f in HL.
func (g *Generator) genFieldAddress(f *ast.FieldAccess) error {
	recordType := exprType(f.Record)
	recordName := ""

	if ptr, ok := recordType.(symtab.PointerType); ok {
		if err := g.genExpr(f.Record, DestHL); err != nil {
			return err
		}
		if rec, ok := ptr.Elem.(symtab.RecordType); ok {
			recordName = rec.Name
		}
	} else {
		if id, ok := f.Record.(*ast.Ident); ok {
			if v, ok := g.lookupVar(id.Name); ok {
				g.w.Emit("\tLXI\tH,%s", v.label)
			} else {
				g.w.Emit("\tLXI\tH,%s", id.Name)
			}
		} else if err := g.genExpr(f.Record, DestHL); err != nil {
			return err
		}
		if rec, ok := recordType.(symtab.RecordType); ok {
			recordName = rec.Name
		}
	}

	if recordName != "" {
		if field, ok := g.table.Field(recordName, f.Field); ok && field.Offset > 0 {
			g.w.Emit("\tLXI\tD,%d", field.Offset)
			g.w.Emit("\tDAD\tD")
		}
	}
	return nil
}

func (g *Generator) genCall(c *ast.Call, dest Dest) error {
	for i := len(c.Args) - 1; i >= 0; i-- {
		if err := g.genExpr(c.Args[i], DestHL); err != nil {
			return err
		}
		g.w.Emit("\tPUSH\tH")
	}

	var sig *symtab.SubroutineSig
	if id, ok := c.Target.(*ast.Ident); ok {
		if s, isSub := g.table.Subroutine(id.Name); isSub {
			sig = s
			if g.currentSub == id.Name {
				return errDirectRecursion(id.Name)
			}
			g.w.Emit("\tCALL\t%s", g.subLabel(sig))
		} else if v, ok := g.lookupVar(id.Name); ok {
			g.w.Emit("\tLHLD\t%s", v.label)
			g.w.Emit("\tCALL\t_callhl")
		} else {
			g.w.Emit("\tLXI\tH,%s", id.Name)
			g.w.Emit("\tCALL\t_callhl")
		}
	} else {
		if err := g.genExpr(c.Target, DestHL); err != nil {
			return err
		}
		g.w.Emit("\tCALL\t_callhl")
	}

	if len(c.Args) > 0 {
		stackBytes := len(c.Args) * 2
		switch {
		case stackBytes <= 4:
			for n := 0; n < stackBytes/2; n++ {
				g.w.Emit("\tPOP\tD")
			}
		default:
			g.w.Emit("\tPUSH\tH")
			g.w.Emit("\tLXI\tH,%d", stackBytes+2)
			g.w.Emit("\tDAD\tSP")
			g.w.Emit("\tSPHL")
			g.w.Emit("\tPOP\tH")
		}
	}

	if dest == DestA && c.ResolvedType != nil && g.typeSize(c.ResolvedType) > 1 {
		narrowHLtoA(g.w)
	}
	return nil
}
