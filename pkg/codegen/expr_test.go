package codegen

import (
	"strings"
	"testing"

	"cowgolc/pkg/ast"
	"cowgolc/pkg/parser"
	"cowgolc/pkg/symtab"
)

// TestSizeOfVsBytesOfAsymmetry pins spec.md §9's note: SizeOf returns
// an array's element count, BytesOf its allocated byte size. The two
// must differ for a multi-byte element type.
func TestSizeOfVsBytesOfAsymmetry(t *testing.T) {
	arrType := symtab.ArrayType{Elem: symtab.UInt16, Count: 5}
	program := &ast.Program{
		Globals: []ast.Stmt{
			&ast.VarDecl{Name: "arr", Type: arrType},
			&ast.VarDecl{Name: "n", Type: symtab.UInt16},
			&ast.VarDecl{Name: "b", Type: symtab.UInt16},
		},
		TopLevel: []ast.Stmt{
			&ast.Assignment{
				Target: &ast.Ident{Name: "n", ResolvedType: symtab.UInt16},
				Value:  &ast.SizeOf{Target: &ast.Ident{Name: "arr", ResolvedType: arrType}},
			},
			&ast.Assignment{
				Target: &ast.Ident{Name: "b", ResolvedType: symtab.UInt16},
				Value:  &ast.BytesOf{Target: &ast.Ident{Name: "arr", ResolvedType: arrType}},
			},
		},
	}
	out := mustGenerate(t, symtab.New(), program)

	if !strings.Contains(out, "\tLXI\tH,5") {
		t.Errorf("expected SizeOf to emit the element count 5, got:\n%s", out)
	}
	if !strings.Contains(out, "\tLXI\tH,10") {
		t.Errorf("expected BytesOf to emit the byte size 10, got:\n%s", out)
	}
}

func TestFieldAccessSkipsOffsetAddWhenZero(t *testing.T) {
	table := symtab.New()
	table.DeclareRecord("Point", []symtab.RecordField{
		{Name: "x", Type: symtab.UInt16, Offset: 0},
		{Name: "y", Type: symtab.UInt16, Offset: 2},
	})
	recType := symtab.RecordType{Name: "Point"}
	program := &ast.Program{
		Globals: []ast.Stmt{
			&ast.VarDecl{Name: "p", Type: recType},
			&ast.VarDecl{Name: "out", Type: symtab.UInt16},
		},
		TopLevel: []ast.Stmt{
			&ast.Assignment{
				Target: &ast.Ident{Name: "out", ResolvedType: symtab.UInt16},
				Value: &ast.FieldAccess{
					Record:       &ast.Ident{Name: "p", ResolvedType: recType},
					Field:        "x",
					ResolvedType: symtab.UInt16,
				},
			},
		},
	}
	out := mustGenerate(t, table, program)
	if strings.Contains(out, "LXI\tD,0\n\tDAD\tD") {
		t.Errorf("expected no DAD D for a zero-offset field, got:\n%s", out)
	}
}

func TestFieldAccessEmitsOffsetAddWhenNonZero(t *testing.T) {
	table := symtab.New()
	table.DeclareRecord("Point", []symtab.RecordField{
		{Name: "x", Type: symtab.UInt16, Offset: 0},
		{Name: "y", Type: symtab.UInt16, Offset: 2},
	})
	recType := symtab.RecordType{Name: "Point"}
	program := &ast.Program{
		Globals: []ast.Stmt{
			&ast.VarDecl{Name: "p", Type: recType},
			&ast.VarDecl{Name: "out", Type: symtab.UInt16},
		},
		TopLevel: []ast.Stmt{
			&ast.Assignment{
				Target: &ast.Ident{Name: "out", ResolvedType: symtab.UInt16},
				Value: &ast.FieldAccess{
					Record:       &ast.Ident{Name: "p", ResolvedType: recType},
					Field:        "y",
					ResolvedType: symtab.UInt16,
				},
			},
		},
	}
	out := mustGenerate(t, table, program)
	if !strings.Contains(out, "\tDAD\tD") {
		t.Errorf("expected a DAD D for a non-zero-offset field, got:\n%s", out)
	}
}

// TestUnknownExprKindIsHardError pins spec.md §9's redesign flag: an
// expression kind genExpr has no lowering rule for is a typed error,
// never a silently-emitted "; TODO:" comment.
func TestUnknownExprKindIsHardError(t *testing.T) {
	err := NewGenerator(symtab.New()).genExpr(nil, DestHL)
	cgErr, ok := err.(*CodegenError)
	if !ok || cgErr.Kind != KindUnknownExpr {
		t.Fatalf("expected a KindUnknownExpr CodegenError, got %v", err)
	}
}

// TestAsmLiteralFragmentsUseSourceText pins down that a string or
// integer literal inside an asm block lowers to its own text, not the
// name of its token kind.
func TestAsmLiteralFragmentsUseSourceText(t *testing.T) {
	program, table, err := parser.Parse(`asm { "MVI A," 5 };`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out := mustGenerate(t, table, program)
	if strings.Contains(out, "STRING") || strings.Contains(out, "INT") {
		t.Fatalf("expected no raw token-kind names in output, got:\n%s", out)
	}
	if !strings.Contains(out, "MVI A,") || !strings.Contains(out, "\t5") {
		t.Errorf("expected the literal fragments' source text to be joined, got:\n%s", out)
	}
}
