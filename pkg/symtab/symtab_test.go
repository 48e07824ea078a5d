package symtab

import "testing"

func TestLookupResolvesEachKind(t *testing.T) {
	tab := New()
	tab.DeclareGlobal("counter", UInt16)
	tab.DeclareConst("MAX", 255)
	tab.DeclareSubroutine(&SubroutineSig{Name: "add", Params: []Param{{"a", UInt8}, {"b", UInt8}}, Returns: []Param{{"r", UInt8}}})
	tab.DeclareRecord("Point", []RecordField{{Name: "x", Type: UInt16, Offset: 0}, {Name: "y", Type: UInt16, Offset: 2}})
	tab.DeclareExtern("putchar", "_putchar")

	cases := []struct {
		name string
		kind Kind
	}{
		{"counter", KindGlobalVar},
		{"MAX", KindConst},
		{"add", KindSubroutine},
		{"Point", KindRecordType},
		{"putchar", KindExternSymbol},
		{"nope", KindUnknown},
	}
	for _, c := range cases {
		res := tab.Lookup(c.name)
		if res.Kind != c.kind {
			t.Errorf("Lookup(%q).Kind = %v, want %v", c.name, res.Kind, c.kind)
		}
	}
}

func TestRecordSizeSumsFieldLayout(t *testing.T) {
	tab := New()
	tab.DeclareRecord("Point", []RecordField{
		{Name: "x", Type: UInt16, Offset: 0},
		{Name: "y", Type: UInt8, Offset: 2},
	})
	if got := tab.RecordSize("Point"); got != 3 {
		t.Fatalf("RecordSize(Point) = %d, want 3", got)
	}
}

func TestSizeOfVsBytesOf(t *testing.T) {
	arr := ArrayType{Elem: UInt8, Count: 10}
	if got := SizeOf(arr); got != 10 {
		t.Fatalf("SizeOf(array of 10) = %d, want 10 (element count)", got)
	}
	if got := BytesOf(arr, New()); got != 10 {
		t.Fatalf("BytesOf(array of 10 bytes) = %d, want 10", got)
	}

	arr16 := ArrayType{Elem: UInt16, Count: 10}
	if got := SizeOf(arr16); got != 10 {
		t.Fatalf("SizeOf(array of 10 words) = %d, want 10 (count, not bytes)", got)
	}
	if got := BytesOf(arr16, New()); got != 20 {
		t.Fatalf("BytesOf(array of 10 words) = %d, want 20", got)
	}

	if got := SizeOf(UInt16); got != 1 {
		t.Fatalf("SizeOf(scalar) = %d, want 1", got)
	}
}

func TestElem(t *testing.T) {
	ptr := PointerType{Elem: UInt8}
	elem, err := Elem(ptr)
	if err != nil || elem != Type(UInt8) {
		t.Fatalf("Elem(ptr to uint8) = %v, %v", elem, err)
	}
	if _, err := Elem(UInt16); err == nil {
		t.Fatal("Elem(scalar) should error")
	}
}
