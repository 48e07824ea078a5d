package symtab

import "fmt"

// Kind distinguishes what an identifier names once resolved.
type Kind int

const (
	KindUnknown Kind = iota
	KindGlobalVar
	KindConst
	KindSubroutine
	KindRecordType
	KindExternSymbol
)

// GlobalVar is a file-scope variable: it lives in the data segment and
// is addressed by its mangled name for the lifetime of the program.
type GlobalVar struct {
	Name string
	Type Type
}

// SubroutineSig is a subroutine's calling signature: parameter and
// return slots in declaration order, plus the Name and ExternName that
// callers derive the CALL label from (or load into HL for an indirect
// call).
type SubroutineSig struct {
	Name       string
	ExternName string // set if declared as extern "name"
	Params     []Param
	Returns    []Param
}

// Param names one parameter or return slot and its type.
type Param struct {
	Name string
	Type Type
}

// ParamsSize is the total byte width of a parameter/return list. The
// call-cleanup threshold does not use it: call lowering counts two
// stack bytes per argument regardless of parameter width.
func ParamsSize(params []Param) int {
	total := 0
	for _, p := range params {
		total += p.Type.Size()
	}
	return total
}

// Resolution is what Lookup returns for a resolved identifier: only the
// field matching Kind is set (Global, ConstValue, Sub, RecordName, or
// ExternName; none for KindUnknown).
type Resolution struct {
	Kind       Kind
	Global     *GlobalVar
	ConstValue uint16
	Sub        *SubroutineSig
	RecordName string
	ExternName string
}

// SymbolTable is the read-only oracle the generator consults for every
// name and type it did not invent itself. It is populated once, by the
// upstream type checker, before codegen ever touches it.
type SymbolTable struct {
	globals     map[string]*GlobalVar
	constants   map[string]uint16
	subroutines map[string]*SubroutineSig
	records     map[string][]RecordField
	externs     map[string]string
}

// New returns an empty table ready for the type checker to populate.
func New() *SymbolTable {
	return &SymbolTable{
		globals:     make(map[string]*GlobalVar),
		constants:   make(map[string]uint16),
		subroutines: make(map[string]*SubroutineSig),
		records:     make(map[string][]RecordField),
		externs:     make(map[string]string),
	}
}

// DeclareGlobal registers a file-scope variable.
func (t *SymbolTable) DeclareGlobal(name string, typ Type) {
	t.globals[name] = &GlobalVar{Name: name, Type: typ}
}

// DeclareConst registers a named compile-time constant.
func (t *SymbolTable) DeclareConst(name string, value uint16) {
	t.constants[name] = value
}

// DeclareSubroutine registers a subroutine's signature.
func (t *SymbolTable) DeclareSubroutine(sig *SubroutineSig) {
	t.subroutines[sig.Name] = sig
}

// DeclareRecord registers a record type's field layout.
func (t *SymbolTable) DeclareRecord(name string, fields []RecordField) {
	t.records[name] = fields
}

// DeclareExtern registers a bare name's linkage to an externally
// defined assembly symbol (e.g. a runtime.mac routine referenced by
// name, not by Call).
func (t *SymbolTable) DeclareExtern(name, externName string) {
	t.externs[name] = externName
}

// Lookup resolves a bare identifier to whichever kind of symbol it
// names. The zero Resolution (Kind == KindUnknown) means the name is
// unknown to the table — codegen then falls back to emitting the bare
// name as an external assembly symbol.
func (t *SymbolTable) Lookup(name string) Resolution {
	if g, ok := t.globals[name]; ok {
		return Resolution{Kind: KindGlobalVar, Global: g}
	}
	if v, ok := t.constants[name]; ok {
		return Resolution{Kind: KindConst, ConstValue: v}
	}
	if s, ok := t.subroutines[name]; ok {
		return Resolution{Kind: KindSubroutine, Sub: s}
	}
	if _, ok := t.records[name]; ok {
		return Resolution{Kind: KindRecordType, RecordName: name}
	}
	if ext, ok := t.externs[name]; ok {
		return Resolution{Kind: KindExternSymbol, ExternName: ext}
	}
	return Resolution{Kind: KindUnknown}
}

// Subroutine looks up a subroutine signature by name directly; ok is
// false if name does not name a known subroutine.
func (t *SymbolTable) Subroutine(name string) (*SubroutineSig, bool) {
	s, ok := t.subroutines[name]
	return s, ok
}

// RecordFields returns the field/offset layout of a record type, in
// declaration order.
func (t *SymbolTable) RecordFields(recordName string) ([]RecordField, bool) {
	f, ok := t.records[recordName]
	return f, ok
}

// RecordSize is the total byte size of a record type: the offset plus
// size of its last field. DeclareRecord stores the offsets it is given,
// so this assumes the declarer laid the fields out contiguously in
// declaration order (as the parser does).
func (t *SymbolTable) RecordSize(recordName string) int {
	fields, ok := t.records[recordName]
	if !ok || len(fields) == 0 {
		return 0
	}
	last := fields[len(fields)-1]
	return last.Offset + BytesOf(last.Type, t)
}

// Field looks up one named field of a record type.
func (t *SymbolTable) Field(recordName, fieldName string) (RecordField, bool) {
	for _, f := range t.records[recordName] {
		if f.Name == fieldName {
			return f, true
		}
	}
	return RecordField{}, false
}

// SizeOf returns a type's element count as Cowgol's SizeOf operator
// defines it: for an array, the element count; for anything else, 1.
func SizeOf(t Type) int {
	if arr, ok := t.(ArrayType); ok {
		return arr.Count
	}
	return 1
}

// BytesOf returns a type's total allocated byte size, resolving
// RecordType against the owning table since a bare RecordType does not
// know its own size.
func BytesOf(t Type, table *SymbolTable) int {
	if rec, ok := t.(RecordType); ok {
		return table.RecordSize(rec.Name)
	}
	if arr, ok := t.(ArrayType); ok {
		return BytesOf(arr.Elem, table) * arr.Count
	}
	return t.Size()
}

// Elem returns the element type one step inside a pointer or array
// type, or an error if t is neither (used by Dereference/ArrayAccess
// lowering to discover a result type).
func Elem(t Type) (Type, error) {
	switch v := t.(type) {
	case PointerType:
		return v.Elem, nil
	case ArrayType:
		return v.Elem, nil
	default:
		return nil, fmt.Errorf("type %s has no element type", t.String())
	}
}
