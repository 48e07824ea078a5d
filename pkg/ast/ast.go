// Package ast defines the typed program representation the code
// generator consumes. Lexing, parsing, preprocessing, and type
// checking all live upstream of this package and are expected to have
// already run: every node here carries whatever a type checker would
// have resolved (e.g. ResolvedType on expressions), and pkg/codegen
// treats values of these types as read-only input.
package ast

import "cowgolc/pkg/symtab"

// Expr is implemented by every node that produces a value.
type Expr interface {
	exprNode()
}

// IntLiteral is a compile-time integer constant, e.g. 10 or 0x1Fu.
type IntLiteral struct {
	Value        uint16
	ResolvedType symtab.Type
}

func (*IntLiteral) exprNode() {}

// StringLiteral is a string constant "...".
type StringLiteral struct {
	Value string
}

func (*StringLiteral) exprNode() {}

// NilLiteral is the pointer/interface zero value.
type NilLiteral struct {
	ResolvedType symtab.Type
}

func (*NilLiteral) exprNode() {}

// Ident is a reference to a variable, constant, or subroutine name.
// Which one it is gets resolved by Lookup against the symbol table at
// lowering time (ast itself does not know).
type Ident struct {
	Name         string
	ResolvedType symtab.Type
}

func (*Ident) exprNode() {}

// BinOp is one of Cowgol's binary operators: arithmetic, bitwise,
// shift, or comparison. Comparisons are BinOp nodes too (not a
// separate node kind) because the generator's lowering is identical
// up to the final flag test — see pkg/codegen.
type BinOp struct {
	Op           BinOpKind
	Left, Right  Expr
	ResolvedType symtab.Type
}

func (*BinOp) exprNode() {}

type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
)

// LogicalOp is Left and/or Right, kept distinct from BinOp so lowering
// can short-circuit the right operand.
type LogicalOp struct {
	Op          LogicalKind
	Left, Right Expr
}

func (*LogicalOp) exprNode() {}

type LogicalKind int

const (
	LogicalAnd LogicalKind = iota
	LogicalOr
)

// UnaryOp is -x, ~x, or (not x).
type UnaryOp struct {
	Op           UnaryKind
	Operand      Expr
	ResolvedType symtab.Type
}

func (*UnaryOp) exprNode() {}

type UnaryKind int

const (
	UnaryNeg UnaryKind = iota
	UnaryBitNot
	UnaryNot
)

// AddressOf is &operand. Only Ident, FieldAccess, and ArrayAccess are
// legal operands — anything else is a CodegenError of kind
// KindUnsupportedAddressOf.
type AddressOf struct {
	Operand Expr
}

func (*AddressOf) exprNode() {}

// Dereference is *pointer.
type Dereference struct {
	Pointer      Expr
	ResolvedType symtab.Type
}

func (*Dereference) exprNode() {}

// PtrStep is Cowgol's NEXT/PREV pointer-arithmetic primitive.
type PtrStep struct {
	Forward      bool // true: NEXT (pointer + elemsize), false: PREV
	Pointer      Expr
	ResolvedType symtab.Type
}

func (*PtrStep) exprNode() {}

// ArrayAccess is array[index] (or ptr[index] — pointer indexing decays
// to the same node).
type ArrayAccess struct {
	Array        Expr
	Index        Expr
	ResolvedType symtab.Type
}

func (*ArrayAccess) exprNode() {}

// FieldAccess is record.field (record may itself be a pointer, in
// which case lowering dereferences it first).
type FieldAccess struct {
	Record       Expr
	Field        string
	ResolvedType symtab.Type
}

func (*FieldAccess) exprNode() {}

// Call is target(args...). Target is usually an Ident naming a known
// subroutine (direct call) but may be any expression yielding an
// interface/pointer value (indirect call through _callhl).
type Call struct {
	Target       Expr
	Args         []Expr
	ResolvedType symtab.Type
}

func (*Call) exprNode() {}

// SizeOf is the element count of an array type (not its byte size —
// see BytesOf, and DESIGN.md's note on the asymmetry).
type SizeOf struct {
	Target Expr
}

func (*SizeOf) exprNode() {}

// BytesOf is the allocated byte size of a type or expression.
type BytesOf struct {
	Target Expr
}

func (*BytesOf) exprNode() {}

// ArrayInit is a { e0, e1, ... } initializer, legal only as the Init
// of a VarDecl for an array-typed variable.
type ArrayInit struct {
	Elements []Expr
}

func (*ArrayInit) exprNode() {}

// Stmt is implemented by every node that does not produce a value.
type Stmt interface {
	stmtNode()
}

// VarDecl declares a variable, optionally with an initializer.
type VarDecl struct {
	Name string
	Type symtab.Type
	Init Expr // nil if uninitialized
}

func (*VarDecl) stmtNode() {}

// ConstDecl declares a compile-time constant. No code is emitted for
// it; the symbol table records the value for later Ident resolution.
type ConstDecl struct {
	Name  string
	Value uint16
}

func (*ConstDecl) stmtNode() {}

// RecordDecl and TypedefDecl are type-only declarations; they do not
// generate code directly (the symbol table already has their layout
// by the time the generator sees them).
type RecordDecl struct {
	Name   string
	Fields []symtab.RecordField
}

func (*RecordDecl) stmtNode() {}

type TypedefDecl struct {
	Name string
	Type symtab.Type
}

func (*TypedefDecl) stmtNode() {}

// Assignment is target := value. Target must be an lvalue: Ident,
// ArrayAccess, FieldAccess, or Dereference.
type Assignment struct {
	Target Expr
	Value  Expr
}

func (*Assignment) stmtNode() {}

// MultiAssignment is the `a, b := f();` form: Value must be a Call
// whose subroutine declares more than one return.
type MultiAssignment struct {
	Targets []Expr
	Value   Expr
}

func (*MultiAssignment) stmtNode() {}

// ExprStmt evaluates an expression (almost always a Call) for effect.
type ExprStmt struct {
	Expr Expr
}

func (*ExprStmt) stmtNode() {}

// ReturnStmt returns from the enclosing subroutine. Cowgol returns are
// implicit: the return slots are just variables, set by ordinary
// assignment earlier in the body, and `return` itself loads the first
// return slot into HL (when the subroutine declares one) and transfers
// control.
type ReturnStmt struct{}

func (*ReturnStmt) stmtNode() {}

// IfStmt is if cond then ThenBody [elseif ...]* [else ElseBody].
type IfStmt struct {
	Condition Expr
	ThenBody  []Stmt
	ElseIfs   []ElseIf
	ElseBody  []Stmt // nil if no else
}

func (*IfStmt) stmtNode() {}

type ElseIf struct {
	Condition Expr
	Body      []Stmt
}

// WhileStmt is while cond loop Body end loop.
type WhileStmt struct {
	Condition Expr
	Body      []Stmt
}

func (*WhileStmt) stmtNode() {}

// LoopStmt is Cowgol's unconditional loop ... end loop.
type LoopStmt struct {
	Body []Stmt
}

func (*LoopStmt) stmtNode() {}

// BreakStmt and ContinueStmt act on the innermost enclosing While/Loop.
type BreakStmt struct{}

func (*BreakStmt) stmtNode() {}

type ContinueStmt struct{}

func (*ContinueStmt) stmtNode() {}

// CaseStmt is case expr { when v1, v2: body ... } [else body].
type CaseStmt struct {
	Target Expr
	Whens  []WhenClause
	Else   []Stmt // nil if no else
}

func (*CaseStmt) stmtNode() {}

type WhenClause struct {
	Values []Expr
	Body   []Stmt
}

// AsmStmt is an inline assembly statement: a sequence of literal
// fragments and identifier substitutions.
type AsmStmt struct {
	Parts []AsmPart
}

func (*AsmStmt) stmtNode() {}

// AsmPart is one fragment of an AsmStmt. Exactly one of Literal or
// Ident is set.
type AsmPart struct {
	Literal string
	Ident   string // substituted per §4.3: constant value, mangled sub, or mangled var
}

// SubDecl declares a subroutine. Body is nil for a forward declaration
// (no code is generated for it; it exists only so the symbol table
// records its signature).
type SubDecl struct {
	Name       string
	ExternName string // non-empty if declared with an extern alias
	Params     []Param
	Returns    []Param
	Body       []Stmt
	Nested     []*SubDecl // nested subroutine declarations found in Body
}

func (*SubDecl) stmtNode() {}

// Param is a subroutine parameter or return slot.
type Param struct {
	Name string
	Type symtab.Type
}

// Program is the root node: the fully type-checked compilation unit.
type Program struct {
	Globals      []Stmt // VarDecl / ConstDecl / RecordDecl / TypedefDecl, in source order
	Subroutines  []*SubDecl
	TopLevel     []Stmt // the implicit main program body
}
