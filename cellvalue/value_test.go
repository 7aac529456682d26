package cellvalue

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDisplayString(t *testing.T) {
	cases := []struct {
		name string
		v    CellValue
		want string
	}{
		{"blank", CellValue{}, ""},
		{"number", NewNumber(decimal.NewFromInt(42)), "42"},
		{"text", NewText("hi"), "hi"},
		{"logical-true", NewLogical(true), "TRUE"},
		{"logical-false", NewLogical(false), "FALSE"},
		{"error", NewError("DivideByZero", "division by zero"), "#DivideByZero"},
		{"code-no-output", NewCode("Formula", "=1+1"), "=1+1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.v.DisplayString(); got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestCodeValueCachesOutput(t *testing.T) {
	out := NewNumberFromFloat(3.5)
	v := NewCode("Formula", "=1.5+2")
	v.Code.Output = &out
	if got := v.DisplayString(); got != "3.5" {
		t.Fatalf("got %q, want 3.5", got)
	}
}

func TestIsBlank(t *testing.T) {
	var v CellValue
	if !v.IsBlank() {
		t.Fatal("zero value should be blank")
	}
	if NewText("").IsBlank() {
		t.Fatal("empty text is not Blank kind")
	}
}
