package parser

import (
	"testing"

	"cowgolc/pkg/ast"
	"cowgolc/pkg/symtab"
)

func TestParseGlobalByteAssignment(t *testing.T) {
	prog, table, err := Parse(`var x: uint8; x := 7;`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(prog.Globals) != 1 {
		t.Fatalf("expected 1 global, got %d", len(prog.Globals))
	}
	decl, ok := prog.Globals[0].(*ast.VarDecl)
	if !ok || decl.Name != "x" || decl.Type != symtab.UInt8 {
		t.Fatalf("unexpected global decl: %#v", prog.Globals[0])
	}
	if len(prog.TopLevel) != 1 {
		t.Fatalf("expected 1 top-level statement, got %d", len(prog.TopLevel))
	}
	assign, ok := prog.TopLevel[0].(*ast.Assignment)
	if !ok {
		t.Fatalf("expected an Assignment, got %#v", prog.TopLevel[0])
	}
	if lit, ok := assign.Value.(*ast.IntLiteral); !ok || lit.Value != 7 {
		t.Fatalf("unexpected assignment value: %#v", assign.Value)
	}
	if res := table.Lookup("x"); res.Kind != symtab.KindGlobalVar {
		t.Fatalf("expected x to resolve as a global var, got %v", res.Kind)
	}
}

func TestParseArrayDeclAndIndexedStore(t *testing.T) {
	prog, _, err := Parse(`var arr: uint16[4]; arr[2] := 0x1234;`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	decl := prog.Globals[0].(*ast.VarDecl)
	arrType, ok := decl.Type.(symtab.ArrayType)
	if !ok || arrType.Count != 4 || arrType.Elem != symtab.UInt16 {
		t.Fatalf("unexpected array type: %#v", decl.Type)
	}
	assign := prog.TopLevel[0].(*ast.Assignment)
	access, ok := assign.Target.(*ast.ArrayAccess)
	if !ok {
		t.Fatalf("expected an ArrayAccess target, got %#v", assign.Target)
	}
	if lit := access.Index.(*ast.IntLiteral); lit.Value != 2 {
		t.Fatalf("unexpected index: %#v", access.Index)
	}
	if lit := assign.Value.(*ast.IntLiteral); lit.Value != 0x1234 {
		t.Fatalf("unexpected value: %#v", assign.Value)
	}
}

func TestParseSubroutineWithReturnAndCall(t *testing.T) {
	src := `
sub add(a: uint16, b: uint16): uint16 is
	return;
end;

var total: uint16;
total := add(1, 2);
`
	prog, table, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(prog.Subroutines) != 1 || prog.Subroutines[0].Name != "add" {
		t.Fatalf("expected subroutine add, got %#v", prog.Subroutines)
	}
	sig, ok := table.Subroutine("add")
	if !ok || len(sig.Params) != 2 || len(sig.Returns) != 1 {
		t.Fatalf("unexpected signature: %#v", sig)
	}

	var assign *ast.Assignment
	for _, s := range prog.TopLevel {
		if a, ok := s.(*ast.Assignment); ok {
			assign = a
		}
	}
	if assign == nil {
		t.Fatal("expected an assignment in TopLevel")
	}
	call, ok := assign.Value.(*ast.Call)
	if !ok || len(call.Args) != 2 {
		t.Fatalf("expected a 2-arg call, got %#v", assign.Value)
	}
}

func TestParseIfWhileCaseAndLogicals(t *testing.T) {
	src := `
var a: uint8;
var b: uint8;
if a and b then
	a := 1;
elseif a or b then
	a := 2;
else
	a := 0;
end;

while a < 10 loop
	a := a + 1;
end;

case a
when 1, 2: a := 9;
else a := 8;
end;
`
	prog, _, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var sawIf, sawWhile, sawCase bool
	for _, s := range prog.TopLevel {
		switch v := s.(type) {
		case *ast.IfStmt:
			sawIf = true
			if _, ok := v.Condition.(*ast.LogicalOp); !ok {
				t.Fatalf("expected a LogicalOp condition, got %#v", v.Condition)
			}
			if len(v.ElseIfs) != 1 || v.ElseBody == nil {
				t.Fatalf("expected one elseif and an else body, got %#v", v)
			}
		case *ast.WhileStmt:
			sawWhile = true
		case *ast.CaseStmt:
			sawCase = true
			if len(v.Whens) != 1 || len(v.Whens[0].Values) != 2 || v.Else == nil {
				t.Fatalf("unexpected case shape: %#v", v)
			}
		}
	}
	if !sawIf || !sawWhile || !sawCase {
		t.Fatalf("missing a statement form: if=%v while=%v case=%v", sawIf, sawWhile, sawCase)
	}
}

func TestParseRecordFieldAccessAndPointer(t *testing.T) {
	src := `
record Point is
	x: uint16;
	y: uint16;
end;

var p: Point;
var pp: @Point;
p.x := 5;
`
	prog, table, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sz := table.RecordSize("Point"); sz != 4 {
		t.Fatalf("expected Point size 4, got %d", sz)
	}
	var assign *ast.Assignment
	for _, s := range prog.TopLevel {
		if a, ok := s.(*ast.Assignment); ok {
			assign = a
		}
	}
	if assign == nil {
		t.Fatal("expected a field assignment")
	}
	fa, ok := assign.Target.(*ast.FieldAccess)
	if !ok || fa.Field != "x" {
		t.Fatalf("expected FieldAccess to x, got %#v", assign.Target)
	}
}

func TestParseForwardDeclarationHasNilBody(t *testing.T) {
	prog, _, err := Parse(`sub helper(a: uint8);`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if prog.Subroutines[0].Body != nil {
		t.Fatalf("expected a nil body for a forward declaration, got %#v", prog.Subroutines[0].Body)
	}
}
