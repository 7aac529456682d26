package datatable

import (
	"testing"

	"sheetcore/cellvalue"
	"sheetcore/coord"
)

func singleNumber(f float64) Value {
	return Value{Kind: Single, Scalar: cellvalue.NewNumberFromFloat(f)}
}

func TestQualifiesAsSingleCodeCell(t *testing.T) {
	dt := New(CodeRun, "Formula1", singleNumber(42), false, false, false, nil)
	if !dt.QualifiesAsSingleCodeCell() {
		t.Fatal("expected plain scalar result to qualify")
	}
	dt.ShowName = true
	if dt.QualifiesAsSingleCodeCell() {
		t.Fatal("show_name should disqualify")
	}
}

func TestOutputSizeArray(t *testing.T) {
	arr := Value{Kind: Array, Cells: [][]cellvalue.CellValue{
		{cellvalue.NewText("a"), cellvalue.NewText("b")},
		{cellvalue.NewText("c"), cellvalue.NewText("d")},
	}}
	dt := New(CodeRun, "Table1", arr, false, true, true, nil)
	w, h := dt.OutputSize()
	if w != 2 || h != 4 {
		t.Fatalf("got (%d,%d), want (2,4)", w, h)
	}
}

func TestOutputSizeHeaderIsFirstRow(t *testing.T) {
	arr := Value{Kind: Array, Cells: [][]cellvalue.CellValue{
		{cellvalue.NewText("h1")},
		{cellvalue.NewText("v1")},
	}}
	dt := New(CodeRun, "Table1", arr, true, false, false, nil)
	_, h := dt.OutputSize()
	if h != 1 {
		t.Fatalf("got h=%d, want 1", h)
	}
}

func TestOutputRect(t *testing.T) {
	dt := New(CodeRun, "Table1", singleNumber(1), false, false, false, nil)
	rect := dt.OutputRect(coord.Pos{X: 3, Y: 5}, false)
	if rect != (coord.Rect{Min: coord.Pos{X: 3, Y: 5}, Max: coord.Pos{X: 3, Y: 5}}) {
		t.Fatalf("got %v", rect)
	}
}

func TestSortColumnPreservesPermutation(t *testing.T) {
	arr := Value{Kind: Array, Cells: [][]cellvalue.CellValue{
		{cellvalue.NewNumberFromFloat(3)},
		{cellvalue.NewNumberFromFloat(1)},
		{cellvalue.NewNumberFromFloat(2)},
	}}
	dt := New(CodeRun, "Table1", arr, false, false, false, nil)
	if err := dt.SortColumn(0, Ascending); err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 3}
	for i, row := range dt.Value.Cells {
		if row[0].Number.InexactFloat64() != want[i] {
			t.Fatalf("row %d: got %v, want %v", i, row[0].Number, want[i])
		}
	}
	if dt.Sort.Permutation[0] != 1 || dt.Sort.Permutation[1] != 2 || dt.Sort.Permutation[2] != 0 {
		t.Fatalf("unexpected permutation: %v", dt.Sort.Permutation)
	}
}

func TestApplyFirstRowAsHeader(t *testing.T) {
	arr := Value{Kind: Array, Cells: [][]cellvalue.CellValue{
		{cellvalue.NewText("Name"), cellvalue.NewText("Age")},
		{cellvalue.NewText("Alice"), cellvalue.NewNumberFromFloat(30)},
	}}
	dt := New(CodeRun, "Table1", arr, false, false, false, nil)
	if err := dt.ApplyFirstRowAsHeader(); err != nil {
		t.Fatal(err)
	}
	if !dt.HeaderIsFirstRow {
		t.Fatal("expected HeaderIsFirstRow = true")
	}
	if len(dt.ColumnHeaders) != 2 || dt.ColumnHeaders[0].Name != "Name" {
		t.Fatalf("got %v", dt.ColumnHeaders)
	}
}

func TestModifyAtArray(t *testing.T) {
	arr := Value{Kind: Array, Cells: [][]cellvalue.CellValue{
		{cellvalue.NewNumberFromFloat(1), cellvalue.NewNumberFromFloat(2)},
	}}
	dt := New(CodeRun, "Table1", arr, false, false, false, nil)
	err := dt.ModifyAt(coord.Pos{X: 1, Y: 0}, func(v cellvalue.CellValue) cellvalue.CellValue {
		return cellvalue.NewNumberFromFloat(99)
	})
	if err != nil {
		t.Fatal(err)
	}
	if dt.Value.Cells[0][1].Number.InexactFloat64() != 99 {
		t.Fatalf("got %v", dt.Value.Cells[0][1].Number)
	}
}

func TestPreservePresentationKeepsFormatsWhenWidthMatches(t *testing.T) {
	old := New(CodeRun, "Table1", Value{Kind: Array, Cells: [][]cellvalue.CellValue{{cellvalue.NewText("a")}}}, false, true, true, nil)
	old.Formats = &FormatOverlay{ByCell: map[coord.Pos]map[string]string{{X: 0, Y: 0}: {"bold": "true"}}}

	next := New(CodeRun, "Table2", Value{Kind: Array, Cells: [][]cellvalue.CellValue{{cellvalue.NewText("b")}}}, false, false, false, nil)
	PreservePresentation(old, next)

	if next.Name != "Table1" || !next.ShowName || !next.ShowColumns {
		t.Fatalf("presentation not carried forward: %+v", next)
	}
	if next.Formats == nil || next.Formats.ByCell[coord.Pos{X: 0, Y: 0}]["bold"] != "true" {
		t.Fatal("expected formats to carry forward when width unchanged")
	}
}

func TestPreservePresentationDropsFormatsWhenWidthChanges(t *testing.T) {
	old := New(CodeRun, "Table1", Value{Kind: Array, Cells: [][]cellvalue.CellValue{{cellvalue.NewText("a")}}}, false, false, false, nil)
	old.Formats = &FormatOverlay{ByCell: map[coord.Pos]map[string]string{{X: 0, Y: 0}: {"bold": "true"}}}

	next := New(CodeRun, "Table2", Value{Kind: Array, Cells: [][]cellvalue.CellValue{{cellvalue.NewText("b"), cellvalue.NewText("c")}}}, false, false, false, nil)
	PreservePresentation(old, next)
	if next.Formats != nil {
		t.Fatal("expected formats dropped when width changes")
	}
}

func TestQualifiesAsSingleCodeCellRejectsArray(t *testing.T) {
	arr := Value{Kind: Array, Cells: [][]cellvalue.CellValue{{cellvalue.NewText("a"), cellvalue.NewText("b")}}}
	dt := New(CodeRun, "Table1", arr, false, false, false, nil)
	if dt.QualifiesAsSingleCodeCell() {
		t.Fatal("array value must not qualify as single code cell")
	}
}
