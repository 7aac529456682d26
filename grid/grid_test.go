package grid

import (
	"testing"

	"sheetcore/cellvalue"
	"sheetcore/coord"
	"sheetcore/datatable"
)

func TestSetGetCellValue(t *testing.T) {
	s := NewSheet("s1", "Sheet1")
	p := coord.Pos{X: 2, Y: 3}
	s.SetCellValue(p, cellvalue.NewText("hi"))
	if got := s.GetCellValue(p); got.DisplayString() != "hi" {
		t.Fatalf("got %q", got.DisplayString())
	}
	s.SetCellValue(p, cellvalue.CellValue{})
	if got := s.GetCellValue(p); !got.IsBlank() {
		t.Fatal("expected blank after clearing")
	}
}

func TestSetDataTableClearsCellValue(t *testing.T) {
	s := NewSheet("s1", "Sheet1")
	p := coord.Pos{X: 1, Y: 1}
	s.SetCellValue(p, cellvalue.NewText("old"))
	dt := datatable.New(datatable.CodeRun, "Table1", datatable.Value{Kind: datatable.Single, Scalar: cellvalue.NewNumberFromFloat(1)}, false, false, false, nil)
	s.SetDataTable(p, dt)
	if got := s.GetCellValue(p); !got.IsBlank() {
		t.Fatal("expected cell value cleared when a table anchors here")
	}
	if _, ok := s.GetDataTable(p); !ok {
		t.Fatal("expected data table present")
	}
}

func TestDataTableNameUniquified(t *testing.T) {
	s := NewSheet("s1", "Sheet1")
	dt1 := datatable.New(datatable.CodeRun, "Table1", datatable.Value{Kind: datatable.Single}, false, false, false, nil)
	dt2 := datatable.New(datatable.CodeRun, "Table1", datatable.Value{Kind: datatable.Single}, false, false, false, nil)
	s.SetDataTable(coord.Pos{X: 1, Y: 1}, dt1)
	s.SetDataTable(coord.Pos{X: 5, Y: 5}, dt2)
	if dt2.Name != "Table11" {
		t.Fatalf("got %q, want Table11", dt2.Name)
	}
}

func TestRecalculateBounds(t *testing.T) {
	s := NewSheet("s1", "Sheet1")
	s.SetCellValue(coord.Pos{X: 1, Y: 1}, cellvalue.NewText("a"))
	s.SetCellValue(coord.Pos{X: 5, Y: 10}, cellvalue.NewText("b"))
	changed := s.RecalculateBounds()
	if !changed {
		t.Fatal("expected bounds to change on first computation")
	}
	want := coord.Rect{Min: coord.Pos{X: 1, Y: 1}, Max: coord.Pos{X: 5, Y: 10}}
	if s.DataBounds() != want {
		t.Fatalf("got %v, want %v", s.DataBounds(), want)
	}
}

func TestInsertDeleteColumnRoundTrip(t *testing.T) {
	s := NewSheet("s1", "Sheet1")
	s.SetCellValue(coord.Pos{X: 1, Y: 1}, cellvalue.NewText("A"))
	s.SetCellValue(coord.Pos{X: 2, Y: 1}, cellvalue.NewText("B"))

	s.InsertColumn(2)
	if got := s.GetCellValue(coord.Pos{X: 1, Y: 1}); got.DisplayString() != "A" {
		t.Fatalf("col 1 disturbed: %q", got.DisplayString())
	}
	if got := s.GetCellValue(coord.Pos{X: 3, Y: 1}); got.DisplayString() != "B" {
		t.Fatalf("expected B shifted to col 3, got %q", got.DisplayString())
	}

	s.DeleteColumn(2)
	if got := s.GetCellValue(coord.Pos{X: 2, Y: 1}); got.DisplayString() != "B" {
		t.Fatalf("expected B shifted back to col 2, got %q", got.DisplayString())
	}
}

func TestFindTabularDataRects(t *testing.T) {
	s := NewSheet("s1", "Sheet1")
	for _, p := range []coord.Pos{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 2}} {
		s.SetCellValue(p, cellvalue.NewText("x"))
	}
	s.RecalculateBounds()
	rects := s.FindTabularDataRectsInSelectionRects([]coord.Rect{{Min: coord.Pos{X: 1, Y: 1}, Max: coord.Pos{X: 10, Y: 10}}})
	if len(rects) != 1 {
		t.Fatalf("got %d rects, want 1", len(rects))
	}
	want := coord.Rect{Min: coord.Pos{X: 1, Y: 1}, Max: coord.Pos{X: 2, Y: 2}}
	if rects[0] != want {
		t.Fatalf("got %v, want %v", rects[0], want)
	}
}

func TestMergeContaining(t *testing.T) {
	s := NewSheet("s1", "Sheet1")
	rect := coord.Rect{Min: coord.Pos{X: 1, Y: 1}, Max: coord.Pos{X: 3, Y: 1}}
	s.AddMerge(rect)
	got, ok := s.MergeContaining(coord.Pos{X: 2, Y: 1})
	if !ok || got != rect {
		t.Fatalf("got %v, %v", got, ok)
	}
	if _, ok := s.MergeContaining(coord.Pos{X: 5, Y: 5}); ok {
		t.Fatal("expected no merge at (5,5)")
	}
}

func TestGridAddSheet(t *testing.T) {
	g := NewGrid()
	s1 := g.AddSheet("Sheet1")
	s2 := g.AddSheet("Sheet2")
	if s1.Id == s2.Id {
		t.Fatal("expected distinct sheet ids")
	}
	if len(g.SheetsInOrder()) != 2 {
		t.Fatal("expected 2 sheets")
	}
}
