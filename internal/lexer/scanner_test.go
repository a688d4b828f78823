package lexer

import "testing"

func scan(t *testing.T, src string) []Token {
	t.Helper()
	s := NewScanner(src)
	toks := s.ScanTokens()
	if len(s.Errors()) > 0 {
		t.Fatalf("unexpected lex errors: %v", s.Errors())
	}
	return toks
}

func TestScanKeywordsAndSymbols(t *testing.T) {
	toks := scan(t, `function main()::Integer x::Integer=1 end`)
	want := []TokenType{
		TokenFunction, TokenMain, TokenLParen, TokenRParen, TokenDoubleColon,
		TokenTypeInteger, TokenIdent, TokenDoubleColon, TokenTypeInteger,
		TokenEqual, TokenIntNumber, TokenEnd, TokenEOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, tt)
		}
	}
}

func TestScanFloatVsInt(t *testing.T) {
	s := NewScanner(`1 2.5 3.`)
	toks := s.ScanTokens()
	if len(s.Errors()) != 1 {
		t.Fatalf("expected exactly one lex error for the trailing '.', got %v", s.Errors())
	}
	if toks[0].Type != TokenIntNumber || toks[0].Lexeme != "1" {
		t.Errorf("expected int literal, got %+v", toks[0])
	}
	if toks[1].Type != TokenFloatNumber || toks[1].Lexeme != "2.5" {
		t.Errorf("expected float literal, got %+v", toks[1])
	}
	// "3." has no digit after the dot, so only "3" is consumed as an int
	// and '.' is left as an unrecognized character.
	if toks[2].Type != TokenIntNumber || toks[2].Lexeme != "3" {
		t.Errorf("expected int literal 3, got %+v", toks[2])
	}
}

func TestScanStringLiteral(t *testing.T) {
	toks := scan(t, `"hello world"`)
	if toks[0].Type != TokenString || toks[0].Lexeme != "hello world" {
		t.Fatalf("unexpected token: %+v", toks[0])
	}
}

func TestScanUnterminatedString(t *testing.T) {
	s := NewScanner(`"oops`)
	s.ScanTokens()
	if len(s.Errors()) == 0 {
		t.Fatal("expected an unterminated-string error")
	}
}

func TestScanLineComment(t *testing.T) {
	toks := scan(t, "x :: Integer = 1 // trailing comment\ny :: Integer = 2")
	var idents int
	for _, tok := range toks {
		if tok.Type == TokenIdent {
			idents++
		}
	}
	if idents != 2 {
		t.Fatalf("expected 2 identifiers, got %d", idents)
	}
}

func TestScanOperators(t *testing.T) {
	toks := scan(t, `== != <= >= && || :: : = < > + - * / %`)
	want := []TokenType{
		TokenDoubleEqual, TokenNotEqual, TokenLessEqual, TokenGreaterEq,
		TokenDoubleAnd, TokenDoubleVBar, TokenDoubleColon, TokenColon,
		TokenEqual, TokenLess, TokenGreater, TokenPlus, TokenMinus,
		TokenStar, TokenSlash, TokenPercent, TokenEOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, tt)
		}
	}
}

func TestScanTracksLineAndColumn(t *testing.T) {
	toks := scan(t, "x\ny")
	if toks[0].Line != 1 {
		t.Errorf("expected x on line 1, got %d", toks[0].Line)
	}
	if toks[1].Line != 2 {
		t.Errorf("expected y on line 2, got %d", toks[1].Line)
	}
	if toks[0].Column != 1 || toks[1].Column != 1 {
		t.Errorf("expected x and y at column 1, got %d and %d", toks[0].Column, toks[1].Column)
	}
}
