package sqlimport

import (
	"testing"

	"sheetcore/cellvalue"
)

func TestToCellValueHandlesCommonPgTypes(t *testing.T) {
	cases := []struct {
		in   any
		kind cellvalue.Kind
	}{
		{nil, cellvalue.Blank},
		{true, cellvalue.Logical},
		{int32(7), cellvalue.Number},
		{int64(7), cellvalue.Number},
		{3.5, cellvalue.Number},
		{"hello", cellvalue.Text},
	}
	for _, c := range cases {
		got := toCellValue(c.in)
		if got.Kind != c.kind {
			t.Errorf("toCellValue(%v) kind = %v, want %v", c.in, got.Kind, c.kind)
		}
	}
}

func TestToCellValueFallsBackToFormattedText(t *testing.T) {
	got := toCellValue(42)
	if got.Kind != cellvalue.Text || got.Text != "42" {
		t.Fatalf("expected stringified fallback, got %+v", got)
	}
}
