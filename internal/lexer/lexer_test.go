package lexer

import (
	"testing"
)

func types(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestOperatorsLongestMatch(t *testing.T) {
	toks := All("a <<= b >> c->d ... ++e-- != !f && g &= h")
	want := []TokenType{
		IDENT, SHL_ASSIGN, IDENT, SHR, IDENT, ARROW, IDENT, ELLIPSIS,
		INC, IDENT, DEC, NEQ, BANG, IDENT, ANDAND, IDENT, AND_ASSIGN, IDENT, EOF,
	}
	got := types(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d (%q): got %v, want %v", i, toks[i].Lex, got[i], want[i])
		}
	}
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks := All("unsigned long int x_1; _Bool b; typedef struct S S;")
	want := []TokenType{
		KW_UNSIGNED, KW_LONG, KW_INT, IDENT, SEMI,
		KW_BOOL, IDENT, SEMI,
		KW_TYPEDEF, KW_STRUCT, IDENT, IDENT, SEMI, EOF,
	}
	got := types(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if toks[3].Lex != "x_1" {
		t.Errorf("identifier lexeme = %q", toks[3].Lex)
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		src  string
		typ  TokenType
		want string
	}{
		{"42", INT, "42"},
		{"0x1fUL", INT, "0x1fUL"},
		{"017", INT, "017"},
		{"10u", INT, "10u"},
		{"1.5", FLOAT, "1.5"},
		{".25f", FLOAT, ".25f"},
		{"3e-2", FLOAT, "3e-2"},
		{"2.0L", FLOAT, "2.0L"},
	}
	for _, tt := range tests {
		tok := New(tt.src).Next()
		if tok.Type != tt.typ || tok.Lex != tt.want {
			t.Errorf("%q: got %v %q, want %v %q", tt.src, tok.Type, tok.Lex, tt.typ, tt.want)
		}
	}
}

func TestQuoted(t *testing.T) {
	toks := All(`'a' '\n' "hi \"there\"" L"wide"`)
	want := []struct {
		typ TokenType
		lex string
	}{
		{CHAR, `'a'`},
		{CHAR, `'\n'`},
		{STRING, `"hi \"there\""`},
		{STRING, `L"wide"`},
		{EOF, ""},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Type != w.typ || toks[i].Lex != w.lex {
			t.Errorf("token %d: got %v %q, want %v %q", i, toks[i].Type, toks[i].Lex, w.typ, w.lex)
		}
	}
}

func TestUnterminatedString(t *testing.T) {
	toks := All("x = \"abc\n")
	last := toks[len(toks)-1]
	if last.Type != ILLEGAL {
		t.Fatalf("last token = %v %q, want ILLEGAL", last.Type, last.Lex)
	}
}

func TestCommentsAndDirectives(t *testing.T) {
	src := "#include <stdio.h>\n" +
		"  # define N \\\n 10\n" +
		"int /* block\n comment */ x; // line\n" +
		"#pragma once\n" +
		"y # z\n"
	toks := All(src)
	want := []TokenType{KW_INT, IDENT, SEMI, PRAGMA, IDENT, ILLEGAL}
	got := types(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if toks[3].Lex != "once" {
		t.Errorf("pragma text = %q, want %q", toks[3].Lex, "once")
	}
}

func TestPositions(t *testing.T) {
	toks := All("int\n  x = 1;")
	pos := [][2]int{{1, 1}, {2, 3}, {2, 5}, {2, 7}, {2, 8}}
	for i, p := range pos {
		if toks[i].Line != p[0] || toks[i].Col != p[1] {
			t.Errorf("token %d %q at %d:%d, want %d:%d", i, toks[i].Lex, toks[i].Line, toks[i].Col, p[0], p[1])
		}
	}
}

func TestTokenTypeString(t *testing.T) {
	for tt, want := range map[TokenType]string{
		SEMI:       "';'",
		KW_WHILE:   "'while'",
		SHL_ASSIGN: "'<<='",
		IDENT:      "identifier",
		EOF:        "end of file",
	} {
		if got := tt.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(tt), got, want)
		}
	}
}
