package codegen

import (
	"strings"
	"testing"

	"cowgolc/pkg/ast"
	"cowgolc/pkg/symtab"
)

func mustGenerate(t *testing.T, table *symtab.SymbolTable, program *ast.Program) string {
	t.Helper()
	gen := NewGenerator(table)
	out, err := gen.Generate(program)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return out
}

func TestEmptyProgram(t *testing.T) {
	out := mustGenerate(t, symtab.New(), &ast.Program{})

	for _, want := range []string{"\tJMP\t_main", "_main:", "\tJMP\t0", "_data:", "\tEND"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\tDS\t") {
		t.Errorf("empty program should emit no DS lines:\n%s", out)
	}
	if strings.Contains(out, "\tDB\t") {
		t.Errorf("empty program should emit no DB lines:\n%s", out)
	}
}

func TestGlobalByteAssignment(t *testing.T) {
	program := &ast.Program{
		Globals: []ast.Stmt{
			&ast.VarDecl{Name: "x", Type: symtab.UInt8},
		},
		TopLevel: []ast.Stmt{
			&ast.Assignment{
				Target: &ast.Ident{Name: "x", ResolvedType: symtab.UInt8},
				Value:  &ast.IntLiteral{Value: 7, ResolvedType: symtab.UInt8},
			},
		},
	}
	out := mustGenerate(t, symtab.New(), program)

	if !strings.Contains(out, "v_x:\tDS\t1") {
		t.Errorf("expected v_x: DS 1, got:\n%s", out)
	}
	if !strings.Contains(out, "\tSTA\tv_x") {
		t.Errorf("expected a store to v_x, got:\n%s", out)
	}
}

func TestShortCircuitAnd(t *testing.T) {
	program := &ast.Program{
		Globals: []ast.Stmt{
			&ast.VarDecl{Name: "a", Type: symtab.UInt8},
			&ast.VarDecl{Name: "b", Type: symtab.UInt8},
		},
		TopLevel: []ast.Stmt{
			&ast.IfStmt{
				Condition: &ast.LogicalOp{
					Op:   ast.LogicalAnd,
					Left: &ast.Ident{Name: "a", ResolvedType: symtab.UInt8},
					Right: &ast.Ident{Name: "b", ResolvedType: symtab.UInt8},
				},
				ThenBody: nil,
			},
		},
	}
	out := mustGenerate(t, symtab.New(), program)

	if !strings.Contains(out, "\tLDA\tv_a") || !strings.Contains(out, "\tLDA\tv_b") {
		t.Fatalf("expected both operands loaded via LDA, got:\n%s", out)
	}
	if idx := strings.Index(out, "\tLDA\tv_a"); idx >= 0 {
		after := out[idx:]
		if !strings.Contains(after, "\tORA\tA") {
			t.Fatalf("expected a flag test right after loading a:\n%s", after)
		}
	}
}

func TestArrayElementStore(t *testing.T) {
	arrType := symtab.ArrayType{Elem: symtab.UInt16, Count: 4}
	program := &ast.Program{
		Globals: []ast.Stmt{
			&ast.VarDecl{Name: "arr", Type: arrType},
		},
		TopLevel: []ast.Stmt{
			&ast.Assignment{
				Target: &ast.ArrayAccess{
					Array:        &ast.Ident{Name: "arr", ResolvedType: arrType},
					Index:        &ast.IntLiteral{Value: 2, ResolvedType: symtab.UInt16},
					ResolvedType: symtab.UInt16,
				},
				Value: &ast.IntLiteral{Value: 0x1234, ResolvedType: symtab.UInt16},
			},
		},
	}
	out := mustGenerate(t, symtab.New(), program)

	if !strings.Contains(out, "v_arr:\tDS\t8") {
		t.Errorf("expected v_arr: DS 8, got:\n%s", out)
	}
	if !strings.Contains(out, "\tCALL\t_mul16") {
		t.Errorf("expected element-size multiply for a uint16 array index, got:\n%s", out)
	}
	if !strings.Contains(out, "\tMOV\tM,E") || !strings.Contains(out, "\tMOV\tM,D") {
		t.Errorf("expected a two-byte store through M, got:\n%s", out)
	}
}

func TestIndirectCallThroughInterfaceVar(t *testing.T) {
	program := &ast.Program{
		Globals: []ast.Stmt{
			&ast.VarDecl{Name: "f", Type: symtab.InterfaceType{}},
		},
		TopLevel: []ast.Stmt{
			&ast.ExprStmt{Expr: &ast.Call{Target: &ast.Ident{Name: "f"}}},
		},
	}
	out := mustGenerate(t, symtab.New(), program)

	if !strings.Contains(out, "\tLHLD\tv_f") {
		t.Errorf("expected LHLD v_f, got:\n%s", out)
	}
	if !strings.Contains(out, "\tCALL\t_callhl") {
		t.Errorf("expected CALL _callhl, got:\n%s", out)
	}
	if strings.Contains(out, "\tPUSH\tH\n\tLHLD") {
		t.Errorf("no-argument call should push nothing, got:\n%s", out)
	}
}

func TestTwoArgumentDirectCall(t *testing.T) {
	table := symtab.New()
	table.DeclareSubroutine(&symtab.SubroutineSig{
		Name:   "foo",
		Params: []symtab.Param{{Name: "p0", Type: symtab.UInt16}, {Name: "p1", Type: symtab.UInt16}},
	})
	program := &ast.Program{
		Globals: []ast.Stmt{
			&ast.VarDecl{Name: "a", Type: symtab.UInt16},
			&ast.VarDecl{Name: "b", Type: symtab.UInt16},
		},
		TopLevel: []ast.Stmt{
			&ast.ExprStmt{Expr: &ast.Call{
				Target: &ast.Ident{Name: "foo"},
				Args: []ast.Expr{
					&ast.Ident{Name: "a", ResolvedType: symtab.UInt16},
					&ast.Ident{Name: "b", ResolvedType: symtab.UInt16},
				},
			}},
		},
	}
	out := mustGenerate(t, table, program)

	if !strings.Contains(out, "\tCALL\tfoo") {
		t.Errorf("expected a direct CALL foo, got:\n%s", out)
	}
	// Two words pushed means two words popped, via the <=4-byte cleanup path.
	if count := strings.Count(out, "\tPOP\tD"); count != 2 {
		t.Errorf("expected 2 POP D for a 2-argument call, got %d:\n%s", count, out)
	}
}

func TestRecursionIsRejected(t *testing.T) {
	table := symtab.New()
	table.DeclareSubroutine(&symtab.SubroutineSig{Name: "loop"})
	program := &ast.Program{
		Subroutines: []*ast.SubDecl{
			{
				Name: "loop",
				Body: []ast.Stmt{
					&ast.ExprStmt{Expr: &ast.Call{Target: &ast.Ident{Name: "loop"}}},
				},
			},
		},
	}
	_, err := NewGenerator(table).Generate(program)
	if err == nil {
		t.Fatal("expected an error for direct recursion")
	}
	cgErr, ok := err.(*CodegenError)
	if !ok || cgErr.Kind != KindDirectRecursion {
		t.Fatalf("expected a KindDirectRecursion CodegenError, got %v", err)
	}
}

func TestDeterministicOutput(t *testing.T) {
	build := func() *ast.Program {
		return &ast.Program{
			Globals: []ast.Stmt{&ast.VarDecl{Name: "x", Type: symtab.UInt8}},
			TopLevel: []ast.Stmt{
				&ast.Assignment{
					Target: &ast.Ident{Name: "x", ResolvedType: symtab.UInt8},
					Value:  &ast.IntLiteral{Value: 1, ResolvedType: symtab.UInt8},
				},
			},
		}
	}
	out1 := mustGenerate(t, symtab.New(), build())
	out2 := mustGenerate(t, symtab.New(), build())
	if out1 != out2 {
		t.Fatal("generating the same program twice produced different output")
	}
}
