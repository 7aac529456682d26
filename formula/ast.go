package formula

import "sheetcore/coord"

// Node is any formula AST node. The Span is used to report errors and
// to let the reference rewriter locate source text to replace.
type Node interface {
	Span() (start, end int)
}

type span struct{ Start, End int }

func (s span) Span() (int, int) { return s.Start, s.End }

// NumberLit is a numeric literal (parsed lazily by the evaluator into
// a decimal.Decimal to keep the AST allocation-free at parse time).
type NumberLit struct {
	span
	Text string
}

// StringLit is a string literal.
type StringLit struct {
	span
	Value string
}

// BoolLit is a TRUE/FALSE literal.
type BoolLit struct {
	span
	Value bool
}

// ErrorLit is a literal error token like #REF! or #DIV/0!.
type ErrorLit struct {
	span
	Code string
}

// CellRefNode is a single-cell A1 reference, optionally sheet-qualified.
type CellRefNode struct {
	span
	Sheet string // "" = current sheet
	Ref   coord.RefPos
}

// RangeRefNode is a `CellRef:CellRef` rectangle reference, built by the
// parser's `:` postfix-binding-power handling.
type RangeRefNode struct {
	span
	Sheet      string
	Start, End coord.RefPos
}

// ArrayLit is a `{1,2;3,4}` literal: rows separated by `;`, columns by `,`.
type ArrayLit struct {
	span
	Rows [][]Node
}

// UnaryExpr is a prefix (`-x`, `+x`) or postfix (`x%`) operator.
type UnaryExpr struct {
	span
	Op       TokenType
	Operand  Node
	Postfix  bool
}

// BinaryExpr is an infix operator expression.
type BinaryExpr struct {
	span
	Op          TokenType
	Left, Right Node
}

// FuncCall is a named function call: `SUM(A1:A3, 4)`.
type FuncCall struct {
	span
	Name string
	Args []Node
}

// LambdaInvoke is `expr(args)` where expr is not a bare identifier,
// e.g. calling a lambda returned by another function.
type LambdaInvoke struct {
	span
	Callee Node
	Args   []Node
}
