package a1

import (
	"testing"

	"sheetcore/coord"
)

func testContext() *Context {
	ctx := NewContext("sheet1")
	ctx.AddSheet("sheet1", "Sheet1")
	ctx.AddSheet("sheet2", "Sheet 2")
	return ctx
}

func TestParseStringifyRoundTrip(t *testing.T) {
	ctx := testContext()
	cases := []string{
		"A1",
		"A1:C3",
		"A:D",
		"1:3",
		"*",
		"A1,B2:C3",
		"'Sheet 2'!A1:B2",
	}
	for _, in := range cases {
		sel, err := Parse(in, ctx)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		out := sel.String(ctx, ctx.DefaultSheet())
		sel2, err := Parse(out, ctx)
		if err != nil {
			t.Fatalf("re-parse %q (from %q): %v", out, in, err)
		}
		out2 := sel2.String(ctx, ctx.DefaultSheet())
		if out != out2 {
			t.Fatalf("stringify not stable: %q vs %q", out, out2)
		}
	}
}

func TestS2RemoveColumnFromComplexSelection(t *testing.T) {
	ctx := testContext()
	sel, err := Parse("A:D,B1,A", ctx)
	if err != nil {
		t.Fatal(err)
	}
	sel.AddOrRemoveColumn(1, 2)

	got := sel.String(ctx, ctx.DefaultSheet())
	want := "B:D,B1"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if sel.Cursor != (coord.Pos{X: 2, Y: 2}) {
		t.Fatalf("cursor = %v, want (2,2)", sel.Cursor)
	}
}

func TestS3Intersection(t *testing.T) {
	ctx := testContext()
	a, _ := Parse("A1:C3", ctx)
	b, _ := Parse("B2:D4", ctx)

	got := Intersection(a, b, ctx)
	if got == nil {
		t.Fatal("expected non-nil intersection")
	}
	if s := got.String(ctx, ctx.DefaultSheet()); s != "B2:C3" {
		t.Fatalf("got %q, want B2:C3", s)
	}
	if got.Cursor != (coord.Pos{X: 2, Y: 2}) {
		t.Fatalf("cursor = %v, want (2,2)", got.Cursor)
	}
}

func TestIntersectionIdempotentAndCommutative(t *testing.T) {
	ctx := testContext()
	a, _ := Parse("A1:C3", ctx)
	b, _ := Parse("B2:D4", ctx)

	aa := Intersection(a, a, ctx)
	if aa.String(ctx, ctx.DefaultSheet()) != a.String(ctx, ctx.DefaultSheet()) {
		t.Fatal("A ∩ A != A")
	}
	ab := Intersection(a, b, ctx)
	ba := Intersection(b, a, ctx)
	if ab.String(ctx, ctx.DefaultSheet()) != ba.String(ctx, ctx.DefaultSheet()) {
		t.Fatal("A ∩ B != B ∩ A")
	}
}

func TestIntersectionDisjointSheets(t *testing.T) {
	ctx := testContext()
	a, _ := Parse("A1", ctx)
	b, _ := Parse("'Sheet 2'!A1", ctx)
	if got := Intersection(a, b, ctx); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestTooManySheets(t *testing.T) {
	ctx := testContext()
	_, err := Parse("Sheet1!A1,'Sheet 2'!B2", ctx)
	if err == nil {
		t.Fatal("expected TooManySheets error")
	}
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != TooManySheets {
		t.Fatalf("got %v, want TooManySheets", err)
	}
}

func TestSelectionInvariants(t *testing.T) {
	ctx := testContext()
	sel, err := Parse("B2:D4", ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := sel.Validate(); err != nil {
		t.Fatalf("unexpected invalid selection: %v", err)
	}
	sel.Cursor = coord.Pos{X: 1, Y: 1}
	if err := sel.Validate(); err == nil {
		t.Fatal("expected invalid cursor to fail validation")
	}
}

func TestExtendColumnFromCell(t *testing.T) {
	ctx := testContext()
	sel, _ := Parse("B2", ctx)
	sel.ExtendColumn(4)
	if got := sel.String(ctx, ctx.DefaultSheet()); got != "B2:D" {
		t.Fatalf("got %q, want B2:D", got)
	}
}

func TestTableRefRoundTrip(t *testing.T) {
	ctx := testContext()
	cases := []string{"Table1[]", "Table1[Col]", "Table1[Col:Col2]", "Table1[Col:]"}
	for _, in := range cases {
		sel, err := Parse(in, ctx)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got := sel.String(ctx, ctx.DefaultSheet()); got != in {
			t.Fatalf("got %q, want %q", got, in)
		}
	}
}
