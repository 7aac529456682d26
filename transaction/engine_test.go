package transaction

import (
	"testing"

	"sheetcore/a1"
	"sheetcore/cellvalue"
	"sheetcore/coord"
	"sheetcore/datatable"
	"sheetcore/grid"
)

func newTestEngine() (*Engine, *grid.Sheet, coord.SheetId) {
	g := grid.NewGrid()
	sh := g.AddSheet("Sheet1")
	ctx := a1.NewContext(sh.Id)
	ctx.AddSheet(sh.Id, "Sheet1")
	return NewEngine(g, ctx), sh, sh.Id
}

func TestSetCellValueRecordsReverse(t *testing.T) {
	e, sh, id := newTestEngine()
	tx := NewPendingTransaction()
	tx.Enqueue(Operation{Kind: OpSetCellValues, Sheet: id, Pos: coord.Pos{X: 1, Y: 1}, Value: cellvalue.NewNumberFromFloat(5)})
	e.Execute(tx)

	if got := sh.GetCellValue(coord.Pos{X: 1, Y: 1}); got.Number.String() != "5" {
		t.Fatalf("got %#v", got)
	}
	if len(tx.ReverseOps) != 1 || tx.ReverseOps[0].Value.Kind != cellvalue.Blank {
		t.Fatalf("expected a single reverse-to-blank op, got %#v", tx.ReverseOps)
	}
}

func TestComputeFormulaCellProducesCode(t *testing.T) {
	e, sh, id := newTestEngine()
	tx := NewPendingTransaction()
	tx.Enqueue(Operation{Kind: OpSetCellValues, Sheet: id, Pos: coord.Pos{X: 1, Y: 1}, Value: cellvalue.NewNumberFromFloat(2)})
	tx.Enqueue(Operation{Kind: OpComputeCode, Sheet: id, Pos: coord.Pos{X: 2, Y: 1}, Lang: "Formula", Source: "=A1+3"})
	e.Execute(tx)

	result := sh.GetCellValue(coord.Pos{X: 2, Y: 1})
	if result.Kind != cellvalue.Code || result.Code.Output.Number.String() != "5" {
		t.Fatalf("got %#v", result)
	}
}

func TestRecomputePropagatesToDependents(t *testing.T) {
	e, sh, id := newTestEngine()
	tx := NewPendingTransaction()
	tx.Enqueue(Operation{Kind: OpSetCellValues, Sheet: id, Pos: coord.Pos{X: 1, Y: 1}, Value: cellvalue.NewNumberFromFloat(1)})
	tx.Enqueue(Operation{Kind: OpComputeCode, Sheet: id, Pos: coord.Pos{X: 2, Y: 1}, Lang: "Formula", Source: "=A1*10"})
	e.Execute(tx)

	tx2 := NewPendingTransaction()
	tx2.Enqueue(Operation{Kind: OpSetCellValues, Sheet: id, Pos: coord.Pos{X: 1, Y: 1}, Value: cellvalue.NewNumberFromFloat(2)})
	e.Execute(tx2)

	result := sh.GetCellValue(coord.Pos{X: 2, Y: 1})
	if result.Kind != cellvalue.Code || result.Code.Output.Number.String() != "20" {
		t.Fatalf("B1 should have recomputed to 20, got %#v", result)
	}
}

func TestUnhandledLanguageWithoutDispatcher(t *testing.T) {
	e, sh, id := newTestEngine()
	tx := NewPendingTransaction()
	tx.Enqueue(Operation{Kind: OpComputeCode, Sheet: id, Pos: coord.Pos{X: 1, Y: 1}, Lang: "Python", Source: "1+1"})
	e.Execute(tx)

	dt, ok := sh.GetDataTable(coord.Pos{X: 1, Y: 1})
	if !ok || dt.Run.Error == nil || dt.Run.Error.Code != "UnhandledLanguage" {
		t.Fatalf("got dt=%#v ok=%v", dt, ok)
	}
}

func TestUndoRestoresPriorValue(t *testing.T) {
	e, sh, id := newTestEngine()
	tx := NewPendingTransaction()
	tx.Enqueue(Operation{Kind: OpSetCellValues, Sheet: id, Pos: coord.Pos{X: 1, Y: 1}, Value: cellvalue.NewNumberFromFloat(5)})
	e.Execute(tx)

	if !e.Undo() {
		t.Fatal("expected Undo to succeed")
	}
	if got := sh.GetCellValue(coord.Pos{X: 1, Y: 1}); !got.IsBlank() {
		t.Fatalf("expected blank after undo, got %#v", got)
	}
}

func TestInsertRowRewritesSpilledArrayFormula(t *testing.T) {
	e, sh, id := newTestEngine()
	tx := NewPendingTransaction()
	tx.Enqueue(Operation{Kind: OpSetCellValues, Sheet: id, Pos: coord.Pos{X: 1, Y: 1}, Value: cellvalue.NewNumberFromFloat(1)})
	tx.Enqueue(Operation{Kind: OpSetCellValues, Sheet: id, Pos: coord.Pos{X: 1, Y: 2}, Value: cellvalue.NewNumberFromFloat(2)})
	tx.Enqueue(Operation{Kind: OpComputeCode, Sheet: id, Pos: coord.Pos{X: 3, Y: 1}, Lang: "Formula", Source: "=A1:A2"})
	e.Execute(tx)

	dt, ok := sh.GetDataTable(coord.Pos{X: 3, Y: 1})
	if !ok || dt.Value.Kind != datatable.Array {
		t.Fatalf("expected an array-shaped DataTable anchored at C1, got dt=%#v ok=%v", dt, ok)
	}

	tx2 := NewPendingTransaction()
	tx2.Enqueue(Operation{Kind: OpInsertRow, Sheet: id, Position: 1})
	e.Execute(tx2)

	// Inserting a row above row 1 shifts every existing row down by one,
	// so the table (previously reading A1:A2) should now be anchored at
	// C2 and its source rewritten to A2:A3.
	moved, ok := sh.GetDataTable(coord.Pos{X: 3, Y: 2})
	if !ok {
		t.Fatalf("expected the spilled table to have moved to C2")
	}
	if moved.Run == nil || moved.Run.Source != "=A2:A3" {
		t.Fatalf("expected rewritten source =A2:A3, got %#v", moved.Run)
	}
}

func TestRecomputePropagatesToArrayBackedDependent(t *testing.T) {
	e, sh, id := newTestEngine()
	tx := NewPendingTransaction()
	tx.Enqueue(Operation{Kind: OpSetCellValues, Sheet: id, Pos: coord.Pos{X: 1, Y: 1}, Value: cellvalue.NewNumberFromFloat(1)})
	tx.Enqueue(Operation{Kind: OpSetCellValues, Sheet: id, Pos: coord.Pos{X: 1, Y: 2}, Value: cellvalue.NewNumberFromFloat(2)})
	tx.Enqueue(Operation{Kind: OpComputeCode, Sheet: id, Pos: coord.Pos{X: 3, Y: 1}, Lang: "Formula", Source: "=A1:A2"})
	e.Execute(tx)

	dt, ok := sh.GetDataTable(coord.Pos{X: 3, Y: 1})
	if !ok || dt.Value.Cells[0][0].Number.String() != "1" {
		t.Fatalf("expected C1's spilled table to read A1=1, got dt=%#v ok=%v", dt, ok)
	}

	tx2 := NewPendingTransaction()
	tx2.Enqueue(Operation{Kind: OpSetCellValues, Sheet: id, Pos: coord.Pos{X: 1, Y: 1}, Value: cellvalue.NewNumberFromFloat(9)})
	e.Execute(tx2)

	dt2, ok := sh.GetDataTable(coord.Pos{X: 3, Y: 1})
	if !ok || dt2.Value.Cells[0][0].Number.String() != "9" {
		t.Fatalf("expected the array-backed table at C1 to recompute to 9, got dt=%#v ok=%v", dt2, ok)
	}
}

func TestDeleteColumnRewritesDependentFormula(t *testing.T) {
	e, sh, id := newTestEngine()
	tx := NewPendingTransaction()
	tx.Enqueue(Operation{Kind: OpSetCellValues, Sheet: id, Pos: coord.Pos{X: 3, Y: 1}, Value: cellvalue.NewNumberFromFloat(9)})
	tx.Enqueue(Operation{Kind: OpComputeCode, Sheet: id, Pos: coord.Pos{X: 5, Y: 1}, Lang: "Formula", Source: "=C1*2"})
	e.Execute(tx)

	tx2 := NewPendingTransaction()
	tx2.Enqueue(Operation{Kind: OpDeleteColumn, Sheet: id, Position: 2})
	e.Execute(tx2)

	result := sh.GetCellValue(coord.Pos{X: 4, Y: 1})
	if result.Kind != cellvalue.Code || result.Code.Source != "=B1*2" {
		t.Fatalf("got %#v", result)
	}
}
