// Package emit is the naming and output layer the lowering engine
// writes through: two growing text buffers (code, data), a single
// monotonic label counter shared by every prefix, and the name
// mangling and string interning rules that keep generated symbols
// collision-free against the 8080's own register mnemonics.
package emit

import (
	"fmt"
	"strings"
)

// reservedMnemonics are 8080 register/flag names a mangled identifier
// must never collide with verbatim, since the assembler would read a
// bare "A" or "M" operand position as the register, not a label.
var reservedMnemonics = map[string]bool{
	"A": true, "B": true, "C": true, "D": true, "E": true,
	"H": true, "L": true, "M": true, "SP": true, "PSW": true,
}

// Writer accumulates the two output streams a generated program has —
// code and data — plus the bookkeeping (label counter, string pool)
// needed to name things inside them.
type Writer struct {
	code strings.Builder
	data strings.Builder

	labelCounter int
	strings      []string       // interned string literals, in first-seen order
	stringLabels map[string]string
}

// New returns an empty Writer ready to accept emitted lines.
func New() *Writer {
	return &Writer{
		stringLabels: make(map[string]string),
	}
}

// Emit appends a formatted line (plus trailing newline) to the code
// stream. With no args, format is written verbatim so callers can pass
// lines that already contain literal '%' without escaping.
func (w *Writer) Emit(format string, args ...interface{}) {
	emitLine(&w.code, format, args)
}

// EmitLabel appends "name:" to the code stream.
func (w *Writer) EmitLabel(name string) {
	w.code.WriteString(name)
	w.code.WriteString(":\n")
}

// EmitData appends a formatted line to the data stream, same rules as
// Emit.
func (w *Writer) EmitData(format string, args ...interface{}) {
	emitLine(&w.data, format, args)
}

func emitLine(b *strings.Builder, format string, args []interface{}) {
	if len(args) > 0 {
		fmt.Fprintf(b, format, args...)
	} else {
		b.WriteString(format)
	}
	b.WriteByte('\n')
}

// NewLabel mints a fresh label under prefix, e.g. NewLabel("L") might
// return "L7". The counter is shared across every prefix so labels
// never collide with each other regardless of which prefix minted
// them; every label is the prefix followed directly by the counter
// (L3, ENDIF7, WHILE2).
func (w *Writer) NewLabel(prefix string) string {
	w.labelCounter++
	return fmt.Sprintf("%s%d", prefix, w.labelCounter)
}

// MangleVar maps a Cowgol variable name to its assembly symbol. The
// v_ prefix both documents intent and guarantees no mangled variable
// can ever equal a bare register mnemonic.
func MangleVar(name string) string {
	return "v_" + name
}

// MangleSub maps a Cowgol subroutine name to its assembly label. Most
// names pass through unmangled; only a name that would otherwise
// collide verbatim with an 8080 register/flag mnemonic gets the s_
// prefix (spec.md §4.1). A subroutine declared `extern "name"`
// bypasses mangling entirely — callers pass the extern name straight
// through instead of calling MangleSub.
func MangleSub(name string) string {
	if IsReservedMnemonic(name) {
		return "s_" + name
	}
	return name
}

// IsReservedMnemonic reports whether name collides with an 8080
// register/flag mnemonic if used unmangled — the rule MangleVar and
// MangleSub exist to satisfy.
func IsReservedMnemonic(name string) bool {
	return reservedMnemonics[strings.ToUpper(name)]
}

// InternString returns the data-segment label for value, minting a new
// "STR<n>" label and recording the literal the first time value is
// seen, or returning the label of an already-interned equal string on
// subsequent calls (spec.md §4.1: "a string pool... interning
// duplicate literals to one label").
func (w *Writer) InternString(value string) string {
	if label, ok := w.stringLabels[value]; ok {
		return label
	}
	label := w.NewLabel("STR")
	w.strings = append(w.strings, value)
	w.stringLabels[value] = label
	return label
}

// InternedStrings returns every interned literal and its label, in
// first-seen order, ready for the data segment pass to emit DB
// directives for.
func (w *Writer) InternedStrings() []InternedString {
	out := make([]InternedString, len(w.strings))
	for i, s := range w.strings {
		out[i] = InternedString{Label: w.stringLabels[s], Value: s}
	}
	return out
}

// InternedString names one interned literal.
type InternedString struct {
	Label string
	Value string
}

// Code returns the accumulated code stream.
func (w *Writer) Code() string { return w.code.String() }

// Data returns the accumulated data stream.
func (w *Writer) Data() string { return w.data.String() }

// String concatenates data then code, the layout the teacher's
// generator uses (data stream emitted before code stream). The codegen
// package's Generate writes its data segment into the code stream after
// the code, so there the data segment ends the output.
func (w *Writer) String() string {
	var out strings.Builder
	out.WriteString(w.data.String())
	out.WriteString(w.code.String())
	return out.String()
}
