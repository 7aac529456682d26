package formula

import (
	"strings"

	"github.com/shopspring/decimal"

	"sheetcore/a1"
	"sheetcore/cellvalue"
	"sheetcore/coord"
)

// CellResolver fetches the current value of a single cell, the
// evaluator's only side-channel into the grid.
type CellResolver func(sheet coord.SheetId, pos coord.Pos) (cellvalue.CellValue, bool)

// EvalContext carries everything evaluation needs beyond the AST
// itself: which sheet/cell we're computing from, how to resolve A1
// sheet names, how to fetch other cells' values, and the running set
// of cells touched (for dependency-graph bookkeeping).
type EvalContext struct {
	Sheet    coord.SheetId
	Pos      coord.Pos
	A1       *a1.Context
	Resolve  CellResolver
	Scope    *Scope
	Accessed map[coord.Pos]struct{} // keyed by sheet-local position; one map per sheet is the caller's concern
}

// NewEvalContext returns a ready-to-use context for evaluating a
// formula anchored at pos on sheet.
func NewEvalContext(sheet coord.SheetId, pos coord.Pos, ctx *a1.Context, resolve CellResolver) *EvalContext {
	return &EvalContext{Sheet: sheet, Pos: pos, A1: ctx, Resolve: resolve, Accessed: map[coord.Pos]struct{}{}}
}

func (e *EvalContext) child(scope *Scope) *EvalContext {
	c := *e
	c.Scope = scope
	return &c
}

func (e *EvalContext) sheetID(name string) coord.SheetId {
	if name == "" {
		return e.Sheet
	}
	if id, ok := e.A1.TrySheetID(name); ok {
		return id
	}
	return coord.SheetId(name)
}

func (e *EvalContext) recordAccess(pos coord.Pos) {
	if e.Accessed != nil {
		e.Accessed[pos] = struct{}{}
	}
}

// Eval evaluates node under ectx and returns its Value, never
// panicking: every failure becomes a RunError carried inside the
// returned Value so the caller's expression tree keeps evaluating.
func Eval(node Node, ectx *EvalContext) Value {
	switch n := node.(type) {
	case *NumberLit:
		d, err := decimal.NewFromString(n.Text)
		if err != nil {
			return NewErrorValue("InvalidArgument", "malformed number literal "+n.Text)
		}
		return NewSingle(cellvalue.NewNumber(d))
	case *StringLit:
		return NewSingle(cellvalue.NewText(n.Value))
	case *BoolLit:
		return NewSingle(cellvalue.NewLogical(n.Value))
	case *ErrorLit:
		return NewSingle(cellvalue.NewError(strings.Trim(n.Code, "#!"), n.Code))
	case *CellRefNode:
		return evalCellRef(n, ectx)
	case *RangeRefNode:
		return evalRangeRef(n, ectx)
	case *ArrayLit:
		return evalArrayLit(n, ectx)
	case *UnaryExpr:
		return evalUnary(n, ectx)
	case *BinaryExpr:
		return evalBinary(n, ectx)
	case *FuncCall:
		return evalFuncCall(n, ectx)
	case *LambdaInvoke:
		return evalLambdaInvoke(n, ectx)
	}
	return NewErrorValue("InvalidArgument", "unrecognised expression")
}

func evalCellRef(n *CellRefNode, ectx *EvalContext) Value {
	sheet := ectx.sheetID(n.Sheet)
	ectx.recordAccess(n.Ref.Pos)
	cv, ok := ectx.Resolve(sheet, n.Ref.Pos)
	if !ok {
		return NewErrorValue("RefError", "reference to deleted cell")
	}
	return NewSingle(cv)
}

func evalRangeRef(n *RangeRefNode, ectx *EvalContext) Value {
	sheet := ectx.sheetID(n.Sheet)
	rect := coord.NewRect(n.Start.Pos, n.End.Pos)
	if rect.Max.IsUnboundedCol() || rect.Max.IsUnboundedRow() {
		return NewErrorValue("InvalidRange", "cannot evaluate an unbounded range; narrow it to a finite rectangle first")
	}
	width := int(rect.Max.X - rect.Min.X + 1)
	height := int(rect.Max.Y - rect.Min.Y + 1)
	cells := make([]cellvalue.CellValue, 0, width*height)
	for y := rect.Min.Y; y <= rect.Max.Y; y++ {
		for x := rect.Min.X; x <= rect.Max.X; x++ {
			pos := coord.Pos{X: x, Y: y}
			ectx.recordAccess(pos)
			cv, _ := ectx.Resolve(sheet, pos)
			cells = append(cells, cv)
		}
	}
	return NewArray(height, width, cells)
}

func evalArrayLit(n *ArrayLit, ectx *EvalContext) Value {
	height := len(n.Rows)
	width := 0
	for _, row := range n.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	cells := make([]cellvalue.CellValue, height*width)
	for y, row := range n.Rows {
		for x, cellNode := range row {
			v := Eval(cellNode, ectx)
			cells[y*width+x] = v.AsScalar()
		}
	}
	return NewArray(height, width, cells)
}

func evalUnary(n *UnaryExpr, ectx *EvalContext) Value {
	operand := Eval(n.Operand, ectx)
	return mapUnary(operand, func(cv cellvalue.CellValue) cellvalue.CellValue {
		d, err := asNumber(cv)
		if err != nil {
			return cellvalue.NewError(err.Code, err.Msg)
		}
		switch n.Op {
		case MINUS:
			return cellvalue.NewNumber(d.Neg())
		case PLUS:
			return cellvalue.NewNumber(d)
		case PERCENT:
			return cellvalue.NewNumber(d.Div(decimal.NewFromInt(100)))
		}
		return cellvalue.NewError("InvalidArgument", "unknown unary operator")
	})
}

func evalBinary(n *BinaryExpr, ectx *EvalContext) Value {
	left := Eval(n.Left, ectx)
	right := Eval(n.Right, ectx)
	if n.Op == AMP {
		return zipMap2(left, right, func(a, b cellvalue.CellValue) cellvalue.CellValue {
			return cellvalue.NewText(a.DisplayString() + b.DisplayString())
		})
	}
	if isComparisonOp(n.Op) {
		return zipMap2(left, right, func(a, b cellvalue.CellValue) cellvalue.CellValue {
			return cellvalue.NewLogical(compareCellValues(a, b, n.Op))
		})
	}
	return zipMap2(left, right, func(a, b cellvalue.CellValue) cellvalue.CellValue {
		x, errA := asNumber(a)
		if errA != nil {
			return cellvalue.NewError(errA.Code, errA.Msg)
		}
		y, errB := asNumber(b)
		if errB != nil {
			return cellvalue.NewError(errB.Code, errB.Msg)
		}
		switch n.Op {
		case PLUS:
			return cellvalue.NewNumber(x.Add(y))
		case MINUS:
			return cellvalue.NewNumber(x.Sub(y))
		case STAR:
			return cellvalue.NewNumber(x.Mul(y))
		case SLASH:
			if y.IsZero() {
				return cellvalue.NewError("DivideByZero", "division by zero")
			}
			return cellvalue.NewNumber(x.Div(y))
		case CARET:
			return cellvalue.NewNumber(x.Pow(y))
		}
		return cellvalue.NewError("InvalidArgument", "unknown binary operator")
	})
}

func isComparisonOp(op TokenType) bool {
	switch op {
	case EQ, NE, LT, GT, LE, GE:
		return true
	}
	return false
}

func compareCellValues(a, b cellvalue.CellValue, op TokenType) bool {
	var cmp int
	switch {
	case a.Kind == cellvalue.Number && b.Kind == cellvalue.Number:
		cmp = a.Number.Cmp(b.Number)
	default:
		sa, sb := a.DisplayString(), b.DisplayString()
		switch {
		case sa < sb:
			cmp = -1
		case sa > sb:
			cmp = 1
		default:
			cmp = 0
		}
	}
	switch op {
	case EQ:
		return cmp == 0
	case NE:
		return cmp != 0
	case LT:
		return cmp < 0
	case GT:
		return cmp > 0
	case LE:
		return cmp <= 0
	case GE:
		return cmp >= 0
	}
	return false
}

func evalFuncCall(n *FuncCall, ectx *EvalContext) Value {
	if n.Args == nil && ectx.Scope != nil {
		if v, ok := ectx.Scope.Lookup(n.Name); ok {
			return v
		}
	}
	fn, ok := FunctionTable[strings.ToUpper(n.Name)]
	if !ok {
		return NewErrorValue("InvalidArgument", "unknown function "+n.Name)
	}
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		args[i] = Eval(a, ectx)
	}
	return fn(args, ectx)
}

func evalLambdaInvoke(n *LambdaInvoke, ectx *EvalContext) Value {
	callee := Eval(n.Callee, ectx)
	if callee.Shape != Lambda {
		return NewErrorValue("InvalidArgument", "attempted to call a non-lambda value")
	}
	if len(n.Args) != len(callee.Params) {
		return NewErrorValue("InvalidArgument", "lambda argument count mismatch")
	}
	scope := NewScope(callee.Env)
	for i, name := range callee.Params {
		scope.Bind(name, Eval(n.Args[i], ectx))
	}
	return Eval(callee.Body, ectx.child(scope))
}

// asNumber coerces a scalar to a decimal, per spreadsheet convention:
// blanks are zero, logicals are 0/1, numeric-looking text parses.
func asNumber(cv cellvalue.CellValue) (decimal.Decimal, *cellvalue.RunError) {
	switch cv.Kind {
	case cellvalue.Blank:
		return decimal.Zero, nil
	case cellvalue.Number:
		return cv.Number, nil
	case cellvalue.Logical:
		if cv.Logical {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	case cellvalue.Text:
		d, err := decimal.NewFromString(strings.TrimSpace(cv.Text))
		if err != nil {
			return decimal.Zero, &cellvalue.RunError{Code: "InvalidArgument", Msg: "cannot convert text to number"}
		}
		return d, nil
	case cellvalue.Error:
		return decimal.Zero, cv.Err
	}
	return decimal.Zero, &cellvalue.RunError{Code: "InvalidArgument", Msg: "cannot convert to number"}
}

// mapUnary applies f to every scalar of v, preserving its shape.
func mapUnary(v Value, f func(cellvalue.CellValue) cellvalue.CellValue) Value {
	switch v.Shape {
	case Single:
		return NewSingle(f(v.Scalar))
	case Array:
		out := make([]cellvalue.CellValue, len(v.Cells))
		for i, c := range v.Cells {
			out[i] = f(c)
		}
		return NewArray(v.Rows, v.Cols, out)
	}
	return NewErrorValue("InvalidArgument", "unsupported shape for unary operator")
}

// zipMap2 combines a and b elementwise. A Single paired with an Array
// broadcasts over every cell; two Arrays must share dimensions.
func zipMap2(a, b Value, f func(cellvalue.CellValue, cellvalue.CellValue) cellvalue.CellValue) Value {
	if a.Shape == Single && b.Shape == Single {
		return NewSingle(f(a.Scalar, b.Scalar))
	}
	if a.Shape == Array && b.Shape == Array {
		if a.Rows != b.Rows || a.Cols != b.Cols {
			return NewErrorValue("InvalidArgument", "array shapes do not match")
		}
		out := make([]cellvalue.CellValue, len(a.Cells))
		for i := range out {
			out[i] = f(a.Cells[i], b.Cells[i])
		}
		return NewArray(a.Rows, a.Cols, out)
	}
	if a.Shape == Array {
		out := make([]cellvalue.CellValue, len(a.Cells))
		for i, c := range a.Cells {
			out[i] = f(c, b.AsScalar())
		}
		return NewArray(a.Rows, a.Cols, out)
	}
	if b.Shape == Array {
		out := make([]cellvalue.CellValue, len(b.Cells))
		for i, c := range b.Cells {
			out[i] = f(a.AsScalar(), c)
		}
		return NewArray(b.Rows, b.Cols, out)
	}
	return NewSingle(f(a.AsScalar(), b.AsScalar()))
}
