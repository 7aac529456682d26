package render

import (
	"context"
	"testing"

	"sheetcore/cellvalue"
	"sheetcore/coord"
	"sheetcore/datatable"
	"sheetcore/grid"
)

func TestRebuildDirtyProducesHash(t *testing.T) {
	g := grid.NewGrid()
	sh := g.AddSheet("Sheet1")
	sh.SetCellValue(coord.Pos{X: 1, Y: 1}, cellvalue.NewText("hello"))

	p := NewPipeline(fixedFont{advance: 10, lineHeight: 20})
	p.MarkDirty(HashCoord{0, 0})

	built, err := p.RebuildDirty(context.Background(), sh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(built) != 1 || built[0] != (HashCoord{0, 0}) {
		t.Fatalf("expected hash (0,0) rebuilt, got %v", built)
	}

	hb, ok := p.Hash(HashCoord{0, 0})
	if !ok {
		t.Fatalf("expected hash (0,0) to be cached")
	}
	if len(hb.Pages) == 0 {
		t.Fatalf("expected at least one texture page for non-blank cell")
	}
}

func TestRebuildDirtyIsIdempotentWhenClean(t *testing.T) {
	g := grid.NewGrid()
	sh := g.AddSheet("Sheet1")

	p := NewPipeline(fixedFont{advance: 10, lineHeight: 20})
	built, err := p.RebuildDirty(context.Background(), sh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(built) != 0 {
		t.Fatalf("expected nothing rebuilt with no dirty hashes, got %v", built)
	}
}

func TestConfirmSpriteRequiresBuiltHash(t *testing.T) {
	g := grid.NewGrid()
	sh := g.AddSheet("Sheet1")
	p := NewPipeline(fixedFont{advance: 10, lineHeight: 20})
	p.MarkDirty(HashCoord{0, 0})
	if _, err := p.RebuildDirty(context.Background(), sh); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.ConfirmSprite(HashCoord{0, 0})
	hb, _ := p.Hash(HashCoord{0, 0})
	if !hb.SpriteValid {
		t.Fatalf("expected sprite marked valid")
	}
}

func TestRebuildDirtyRendersArrayBackedDataTableCells(t *testing.T) {
	g := grid.NewGrid()
	sh := g.AddSheet("Sheet1")

	dt := datatable.New(datatable.CodeRun, "Formula1", datatable.Value{
		Kind: datatable.Array,
		Cells: [][]cellvalue.CellValue{
			{cellvalue.NewText("hi")},
			{cellvalue.NewText("bye")},
		},
	}, false, false, false, nil)
	dt.Run = &datatable.CodeRunInfo{Language: "Formula", Source: "=A1:A2"}
	sh.SetDataTable(coord.Pos{X: 1, Y: 1}, dt)

	// Only the anchor (1,1) is reachable through plain cell storage;
	// (1,2) is covered by the table's output rectangle but SetDataTable
	// never wrote anything into the columns map for it.
	if !sh.GetCellValue(coord.Pos{X: 1, Y: 2}).IsBlank() {
		t.Fatalf("expected the non-anchor table cell to read Blank from plain storage")
	}

	p := NewPipeline(fixedFont{advance: 10, lineHeight: 20})
	p.MarkDirty(HashOf(coord.Pos{X: 1, Y: 1}))

	if _, err := p.RebuildDirty(context.Background(), sh); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hb, ok := p.Hash(HashOf(coord.Pos{X: 1, Y: 1}))
	if !ok {
		t.Fatalf("expected the hash covering the table to be built")
	}
	total := 0
	for _, pg := range hb.Pages {
		total += len(pg.Chars)
	}
	if total != len("hi")+len("bye") {
		t.Fatalf("expected glyphs for both table rows (%d), got %d", len("hi")+len("bye"), total)
	}
}

func TestMarkDirtyRectCoversMultipleHashes(t *testing.T) {
	p := NewPipeline(fixedFont{advance: 10, lineHeight: 20})
	p.MarkDirtyRect(coord.Rect{Min: coord.Pos{X: 1, Y: 1}, Max: coord.Pos{X: 20, Y: 1}})
	dirty := p.snapshotDirty()
	if len(dirty) != 2 {
		t.Fatalf("expected 2 hashes touched (col 1-15 and 16-20), got %d: %v", len(dirty), dirty)
	}
}
