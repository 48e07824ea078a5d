package emit

import "testing"

func TestNewLabelSharesCounterAcrossPrefixes(t *testing.T) {
	w := New()
	if got := w.NewLabel("IF"); got != "IF1" {
		t.Fatalf("first label = %q, want IF1", got)
	}
	if got := w.NewLabel("WHILE"); got != "WHILE2" {
		t.Fatalf("second label = %q, want WHILE2 (counter must not reset per-prefix)", got)
	}
	if got := w.NewLabel("IF"); got != "IF3" {
		t.Fatalf("third label = %q, want IF3", got)
	}
	if got := w.InternString("hi"); got != "STR4" {
		t.Fatalf("interned label = %q, want STR4 (InternString must draw from the same counter)", got)
	}
}

func TestMangleAvoidsReservedMnemonics(t *testing.T) {
	for _, name := range []string{"A", "b", "M", "sp"} {
		if !IsReservedMnemonic(name) {
			t.Fatalf("%q should be a reserved mnemonic", name)
		}
		mangled := MangleVar(name)
		if IsReservedMnemonic(mangled) {
			t.Fatalf("MangleVar(%q) = %q still collides with a mnemonic", name, mangled)
		}
	}
}

func TestInternStringDeduplicates(t *testing.T) {
	w := New()
	l1 := w.InternString("hello")
	l2 := w.InternString("world")
	l3 := w.InternString("hello")
	if l1 != l3 {
		t.Fatalf("interning the same literal twice gave different labels: %q vs %q", l1, l3)
	}
	if l1 == l2 {
		t.Fatalf("distinct literals got the same label %q", l1)
	}
	strs := w.InternedStrings()
	if len(strs) != 2 {
		t.Fatalf("expected 2 interned strings, got %d", len(strs))
	}
}

func TestEmitOrdersDataBeforeCode(t *testing.T) {
	w := New()
	w.Emit("CODE LINE")
	w.EmitData("DATA LINE")
	out := w.String()
	dataIdx := indexOf(out, "DATA LINE")
	codeIdx := indexOf(out, "CODE LINE")
	if dataIdx < 0 || codeIdx < 0 || dataIdx > codeIdx {
		t.Fatalf("expected data segment before code segment, got:\n%s", out)
	}
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
