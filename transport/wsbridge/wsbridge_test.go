package wsbridge

import (
	"context"
	"testing"

	"sheetcore/a1"
	"sheetcore/cellvalue"
	"sheetcore/coord"
	"sheetcore/grid"
	"sheetcore/render"
	"sheetcore/transaction"
)

type constFont struct{}

func (constFont) Advance(r rune) float64    { return 8 }
func (constFont) LineHeight() float64       { return 16 }
func (constFont) Kerning(a, b rune) float64 { return 0 }

func TestCellValueFromText(t *testing.T) {
	cases := []struct {
		in   string
		kind cellvalue.Kind
	}{
		{"", cellvalue.Blank},
		{"42", cellvalue.Number},
		{"TRUE", cellvalue.Logical},
		{"false", cellvalue.Logical},
		{"hello", cellvalue.Text},
	}
	for _, c := range cases {
		got := cellValueFromText(c.in)
		if got.Kind != c.kind {
			t.Errorf("cellValueFromText(%q) kind = %v, want %v", c.in, got.Kind, c.kind)
		}
	}
}

func TestApplyAndBroadcastMarksRenderHashDirty(t *testing.T) {
	g := grid.NewGrid()
	sh := g.AddSheet("Sheet1")
	ctx := a1.NewContext(sh.Id)
	ctx.AddSheet(sh.Id, "Sheet1")
	eng := transaction.NewEngine(g, ctx)

	hub := NewHub(g, ctx, eng)
	hub.Render = render.NewPipeline(constFont{})

	hub.applyAndBroadcast(AssignRequest{Sheet: "Sheet1", Col: 1, Row: 1, Source: "hello"})

	if _, err := hub.Render.RebuildDirty(context.Background(), sh); err != nil {
		t.Fatalf("unexpected error rebuilding after assign: %v", err)
	}
	hb, ok := hub.Render.Hash(render.HashOf(coord.Pos{X: 1, Y: 1}))
	if !ok {
		t.Fatalf("expected the edited cell's hash to have been marked dirty and rebuilt")
	}
	if len(hb.Pages) == 0 {
		t.Fatalf("expected rebuilt hash to contain the assigned text's glyphs")
	}
}
