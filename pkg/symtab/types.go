// Package symtab is the symbol & layout oracle: for any type it
// answers a byte size, and for any identifier it resolves to exactly
// one of {global variable, named constant, known subroutine, record
// type, external symbol}. It is built by the external type checker
// and is read-only from pkg/codegen's point of view — nothing in this
// package calls back into codegen.
package symtab

import "fmt"

// Type is the scalar/pointer/array/record/interface type universe
// described in spec.md §3. Every concrete type answers its own size so
// the generator never has to special-case a type kind to find out how
// many bytes a value occupies.
type Type interface {
	Size() int
	String() string
}

// IntType is a scalar integer of width 1 or 2 bytes, signed or
// unsigned. The generator only cares about Width; comparison lowering
// does not read Unsigned and always emits the unsigned 8080 CMP
// sequence (see DESIGN.md's Open Question decision).
type IntType struct {
	Width    int // 1 or 2
	Unsigned bool
}

func (t IntType) Size() int { return t.Width }
func (t IntType) String() string {
	sign := "int"
	if t.Unsigned {
		sign = "uint"
	}
	return fmt.Sprintf("%s%d", sign, t.Width*8)
}

var (
	Int8    = IntType{Width: 1, Unsigned: false}
	UInt8   = IntType{Width: 1, Unsigned: true}
	Int16   = IntType{Width: 2, Unsigned: false}
	UInt16  = IntType{Width: 2, Unsigned: true}
)

// PointerType is a 2-byte address carrying a referent element type.
type PointerType struct {
	Elem Type
}

func (PointerType) Size() int { return 2 }
func (t PointerType) String() string {
	return "*" + t.Elem.String()
}

// ArrayType is a fixed element count of a contiguous element type.
type ArrayType struct {
	Elem  Type
	Count int
}

func (t ArrayType) Size() int { return t.Elem.Size() * t.Count }
func (t ArrayType) String() string {
	return fmt.Sprintf("%s[%d]", t.Elem.String(), t.Count)
}

// RecordType names a record whose field layout lives in the owning
// SymbolTable's record registry (RecordType itself doesn't carry the
// field list, so two RecordType values naming the same record are
// always layout-identical).
type RecordType struct {
	Name string
}

func (t RecordType) Size() int {
	// Resolved via SymbolTable.RecordSize; a bare RecordType has no
	// table to consult, so this is only meaningful combined with a
	// SymbolTable lookup. Codegen always asks the table, never this.
	return 0
}
func (t RecordType) String() string { return "struct " + t.Name }

// InterfaceType is a 2-byte value holding a callable address.
type InterfaceType struct{}

func (InterfaceType) Size() int      { return 2 }
func (InterfaceType) String() string { return "intf" }

// RecordField is one named, offset field of a record type.
type RecordField struct {
	Name   string
	Type   Type
	Offset int
}
