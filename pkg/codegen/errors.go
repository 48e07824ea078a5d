package codegen

import "fmt"

// CodegenErrorKind tags the narrow set of errors the generator itself
// can raise (everything else — lexing, parsing, type errors — is a
// collaborator's problem and never reaches this package).
type CodegenErrorKind int

const (
	// KindUnsupportedAddressOf: & applied to anything other than an
	// identifier, field access, or array access.
	KindUnsupportedAddressOf CodegenErrorKind = iota
	// KindUnknownExpr: an expression node this generator has no
	// lowering rule for.
	KindUnknownExpr
	// KindUnknownStmt: a statement node this generator has no
	// lowering rule for.
	KindUnknownStmt
	// KindDirectRecursion: a subroutine calls itself, which the
	// data-segment calling convention cannot support (spec.md §9).
	KindDirectRecursion
	// KindUnknownIdentifier: Lookup found nothing at all for a name
	// that isn't even an external-symbol candidate. No lowering path in
	// this package returns it: unresolved names fall back to verbatim
	// external symbols, and a call target with no name is lowered as an
	// expression.
	KindUnknownIdentifier
)

func (k CodegenErrorKind) String() string {
	switch k {
	case KindUnsupportedAddressOf:
		return "UnsupportedAddressOf"
	case KindUnknownExpr:
		return "UnknownExpr"
	case KindUnknownStmt:
		return "UnknownStmt"
	case KindDirectRecursion:
		return "DirectRecursion"
	case KindUnknownIdentifier:
		return "UnknownIdentifier"
	default:
		return "Unknown"
	}
}

// CodegenError is the error type every exported generator entry point
// returns on failure, so callers can switch on Kind instead of
// string-matching a message.
type CodegenError struct {
	Kind CodegenErrorKind
	Msg  string
}

func (e *CodegenError) Error() string {
	return fmt.Sprintf("codegen: %s: %s", e.Kind, e.Msg)
}

func errUnsupportedAddressOf(msg string) error {
	return &CodegenError{Kind: KindUnsupportedAddressOf, Msg: msg}
}

func errUnknownExpr(msg string) error {
	return &CodegenError{Kind: KindUnknownExpr, Msg: msg}
}

func errUnknownStmt(msg string) error {
	return &CodegenError{Kind: KindUnknownStmt, Msg: msg}
}

func errDirectRecursion(msg string) error {
	return &CodegenError{Kind: KindDirectRecursion, Msg: msg}
}
