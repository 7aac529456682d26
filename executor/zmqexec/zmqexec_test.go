package zmqexec

import (
	"testing"

	"sheetcore/cellvalue"
	"sheetcore/datatable"
)

func TestToDataTableScalarSuccess(t *testing.T) {
	dt := toDataTable("Python", "1+1", Reply{ID: "x", OK: true, Rows: 1, Cols: 1, Values: []float64{2}})
	if dt.Value.Kind != datatable.Single {
		t.Fatalf("expected Single value kind")
	}
	if dt.Value.Scalar.Kind != cellvalue.Number || !dt.Value.Scalar.Number.Equal(cellvalue.NewNumberFromFloat(2).Number) {
		t.Fatalf("expected scalar 2, got %+v", dt.Value.Scalar)
	}
}

func TestToDataTableArrayShape(t *testing.T) {
	dt := toDataTable("Python", "grid", Reply{
		ID: "x", OK: true, Rows: 2, Cols: 2,
		Values: []float64{1, 2, 3, 4},
	})
	if len(dt.Value.Cells) != 2 || len(dt.Value.Cells[0]) != 2 {
		t.Fatalf("expected 2x2 array, got %+v", dt.Value.Cells)
	}
	if dt.Value.Cells[1][1].Number.IntPart() != 4 {
		t.Fatalf("expected bottom-right cell to be 4")
	}
}

func TestToDataTableFailureCarriesError(t *testing.T) {
	dt := toDataTable("Python", "1/0", Reply{ID: "x", OK: false, ErrCode: "DivideByZero", ErrMsg: "boom"})
	if dt.Run.Error == nil || dt.Run.Error.Code != "DivideByZero" {
		t.Fatalf("expected DivideByZero error, got %+v", dt.Run.Error)
	}
}

func TestScalarAtPrefersText(t *testing.T) {
	r := Reply{Text: []string{"hello"}, Values: []float64{1}}
	cv := scalarAt(r, 0)
	if cv.Kind != cellvalue.Text || cv.Text != "hello" {
		t.Fatalf("expected text hello, got %+v", cv)
	}
}
