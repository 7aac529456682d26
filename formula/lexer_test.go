package formula

import "testing"

func tokenTypes(src string) []TokenType {
	l := NewLexer(src)
	var out []TokenType
	for {
		tok := l.NextToken()
		out = append(out, tok.Type)
		if tok.Type == EOF {
			return out
		}
	}
}

func TestLexerBasicOperators(t *testing.T) {
	got := tokenTypes("1+2*3<=4<>5")
	want := []TokenType{NUMBER, PLUS, NUMBER, STAR, NUMBER, LE, NUMBER, NE, NUMBER, EOF}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestLexerCellRefVsSheetName(t *testing.T) {
	got := tokenTypes("Sheet1!A1")
	want := []TokenType{IDENT, BANG, CELL_REF, EOF}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestLexerQuotedSheetName(t *testing.T) {
	l := NewLexer("'Sheet 2'!A1")
	tok := l.NextToken()
	if tok.Type != QUOTED_IDENT || tok.Literal != "Sheet 2" {
		t.Fatalf("got %#v", tok)
	}
	if bang := l.NextToken(); bang.Type != BANG {
		t.Fatalf("got %#v", bang)
	}
	if ref := l.NextToken(); ref.Type != CELL_REF || ref.Literal != "A1" {
		t.Fatalf("got %#v", ref)
	}
}

func TestLexerErrorLiteral(t *testing.T) {
	tok := NewLexer("#DIV/0!").NextToken()
	if tok.Type != ERROR_LIT || tok.Literal != "#DIV/0!" {
		t.Fatalf("got %#v", tok)
	}
}

func TestLexerAbsoluteCellRef(t *testing.T) {
	tok := NewLexer("$A$1").NextToken()
	if tok.Type != CELL_REF || tok.Literal != "$A$1" {
		t.Fatalf("got %#v", tok)
	}
}

func TestLexerBoolLiteral(t *testing.T) {
	tok := NewLexer("TRUE").NextToken()
	if tok.Type != BOOL {
		t.Fatalf("got %#v", tok)
	}
}

func TestLexerStringEscape(t *testing.T) {
	tok := NewLexer(`"a\"b"`).NextToken()
	if tok.Type != STRING || tok.Literal != `a"b` {
		t.Fatalf("got %#v", tok)
	}
}
