package lexer

import "testing"

func typesOf(t *testing.T, toks []Token) []TokenType {
	t.Helper()
	out := make([]TokenType, len(toks))
	for i, tok := range toks {
		out[i] = tok.Type
	}
	return out
}

func TestTokenizeKeywordsAndPunctuation(t *testing.T) {
	toks, err := Tokenize(`var x: uint8 := 7;`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []TokenType{VAR, IDENT, COLON, IDENT, ASSIGN, INT, SEMI, EOF}
	got := typesOf(t, toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTokenizeHexLiteral(t *testing.T) {
	toks, err := Tokenize(`0x1234`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if toks[0].Type != INT || toks[0].IntVal != 0x1234 {
		t.Fatalf("unexpected token: %#v", toks[0])
	}
}

func TestTokenizeUnsignedSuffixIsDropped(t *testing.T) {
	toks, err := Tokenize(`10u`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if toks[0].Type != INT || toks[0].IntVal != 10 {
		t.Fatalf("unexpected token: %#v", toks[0])
	}
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks, err := Tokenize(`"a\nb"`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if toks[0].Type != STRING || toks[0].Text != "a\nb" {
		t.Fatalf("unexpected token: %#v", toks[0])
	}
}

func TestTokenizeTwoCharOperators(t *testing.T) {
	toks, err := Tokenize(`<= >= == != << >> :=`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []TokenType{LE, GE, EQ, NE, SHL, SHR, ASSIGN, EOF}
	got := typesOf(t, toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTokenizeLineCommentSkipped(t *testing.T) {
	toks, err := Tokenize("var x -- comment\n: uint8;")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []TokenType{VAR, IDENT, COLON, IDENT, SEMI, EOF}
	got := typesOf(t, toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTokenizeUnterminatedStringErrors(t *testing.T) {
	if _, err := Tokenize(`"abc`); err == nil {
		t.Fatal("expected an error for an unterminated string literal")
	}
}
