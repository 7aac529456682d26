package formula

import (
	"strings"
	"testing"
)

func TestParseArithmeticPrecedence(t *testing.T) {
	node, err := Parse("=1+2*3")
	if err != nil {
		t.Fatal(err)
	}
	bin, ok := node.(*BinaryExpr)
	if !ok || bin.Op != PLUS {
		t.Fatalf("want top-level +, got %#v", node)
	}
	rhs, ok := bin.Right.(*BinaryExpr)
	if !ok || rhs.Op != STAR {
		t.Fatalf("want right-hand *, got %#v", bin.Right)
	}
}

func TestParsePowerRightAssociative(t *testing.T) {
	node, err := Parse("=2^3^2")
	if err != nil {
		t.Fatal(err)
	}
	top, ok := node.(*BinaryExpr)
	if !ok || top.Op != CARET {
		t.Fatalf("want ^, got %#v", node)
	}
	if _, ok := top.Right.(*BinaryExpr); !ok {
		t.Fatalf("want right-associative nesting on the right, got left=%#v right=%#v", top.Left, top.Right)
	}
	if _, ok := top.Left.(*NumberLit); !ok {
		t.Fatalf("want left operand to be the bare 2, got %#v", top.Left)
	}
}

func TestParseUnaryBindsTighterThanAddLooserThanPower(t *testing.T) {
	node, err := Parse("=-2^2")
	if err != nil {
		t.Fatal(err)
	}
	unary, ok := node.(*UnaryExpr)
	if !ok || unary.Op != MINUS {
		t.Fatalf("want top-level unary -, got %#v", node)
	}
	if _, ok := unary.Operand.(*BinaryExpr); !ok {
		t.Fatalf("want -(2^2), operand should be the power expr, got %#v", unary.Operand)
	}
}

func TestParseRangeReference(t *testing.T) {
	node, err := Parse("=SUM(A1:B3)")
	if err != nil {
		t.Fatal(err)
	}
	call, ok := node.(*FuncCall)
	if !ok || call.Name != "SUM" || len(call.Args) != 1 {
		t.Fatalf("want SUM(range), got %#v", node)
	}
	if _, ok := call.Args[0].(*RangeRefNode); !ok {
		t.Fatalf("want range ref arg, got %#v", call.Args[0])
	}
}

func TestParseSheetQualifiedRef(t *testing.T) {
	node, err := Parse("='Sheet 2'!A1+1")
	if err != nil {
		t.Fatal(err)
	}
	bin, ok := node.(*BinaryExpr)
	if !ok {
		t.Fatalf("want binary +, got %#v", node)
	}
	ref, ok := bin.Left.(*CellRefNode)
	if !ok || ref.Sheet != "Sheet 2" {
		t.Fatalf("want sheet-qualified ref, got %#v", bin.Left)
	}
}

func TestParseBareSheetQualifiedRef(t *testing.T) {
	node, err := Parse("=Sheet1!A1+1")
	if err != nil {
		t.Fatal(err)
	}
	bin, ok := node.(*BinaryExpr)
	if !ok {
		t.Fatalf("want binary +, got %#v", node)
	}
	ref, ok := bin.Left.(*CellRefNode)
	if !ok || ref.Sheet != "Sheet1" {
		t.Fatalf("want sheet-qualified ref, got %#v", bin.Left)
	}
}

func TestParseDeepNestedParensDoesNotOverflowStack(t *testing.T) {
	const depth = 2000
	src := "=" + strings.Repeat("(", depth) + "1" + strings.Repeat(")", depth)
	node, err := Parse(src)
	if err != nil {
		t.Fatalf("deep nesting failed: %v", err)
	}
	if _, ok := node.(*NumberLit); !ok {
		t.Fatalf("want bare 1 after unwrapping parens, got %#v", node)
	}
}

func TestParseDeepUnaryChainDoesNotOverflowStack(t *testing.T) {
	const depth = 2000
	src := "=" + strings.Repeat("-", depth) + "1"
	node, err := Parse(src)
	if err != nil {
		t.Fatalf("deep unary chain failed: %v", err)
	}
	cur := node
	for i := 0; i < depth; i++ {
		u, ok := cur.(*UnaryExpr)
		if !ok {
			t.Fatalf("expected %d levels of unary -, stopped at %d: %#v", depth, i, cur)
		}
		cur = u.Operand
	}
	if _, ok := cur.(*NumberLit); !ok {
		t.Fatalf("want bare 1 at the bottom, got %#v", cur)
	}
}

func TestParseLongAddChainDoesNotOverflowStack(t *testing.T) {
	const terms = 2000
	parts := make([]string, terms)
	for i := range parts {
		parts[i] = "1"
	}
	src := "=" + strings.Join(parts, "+")
	node, err := Parse(src)
	if err != nil {
		t.Fatalf("long chain failed: %v", err)
	}
	if _, ok := node.(*BinaryExpr); !ok {
		t.Fatalf("want binary tree root, got %#v", node)
	}
}

func TestParsePostfixPercent(t *testing.T) {
	node, err := Parse("=50%+1")
	if err != nil {
		t.Fatal(err)
	}
	bin, ok := node.(*BinaryExpr)
	if !ok || bin.Op != PLUS {
		t.Fatalf("want +, got %#v", node)
	}
	pct, ok := bin.Left.(*UnaryExpr)
	if !ok || pct.Op != PERCENT || !pct.Postfix {
		t.Fatalf("want postfix %%, got %#v", bin.Left)
	}
}

func TestParseStringConcat(t *testing.T) {
	node, err := Parse(`="a"&"b"&"c"`)
	if err != nil {
		t.Fatal(err)
	}
	top, ok := node.(*BinaryExpr)
	if !ok || top.Op != AMP {
		t.Fatalf("want &, got %#v", node)
	}
}

func TestParseUnexpectedTokenError(t *testing.T) {
	if _, err := Parse("=1+"); err == nil {
		t.Fatal("expected an error for a truncated expression")
	}
}

func TestParseMismatchedParenError(t *testing.T) {
	if _, err := Parse("=(1+2"); err == nil {
		t.Fatal("expected an error for an unclosed paren")
	}
}
