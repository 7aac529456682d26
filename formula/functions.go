package formula

import (
	"strings"

	"github.com/shopspring/decimal"

	"sheetcore/cellvalue"
)

// Function is one entry of FunctionTable: a named builtin evaluated
// against its already-evaluated argument Values.
type Function func(args []Value, ectx *EvalContext) Value

// FunctionTable is the set of named functions callable from formula
// source, spanning the basic aggregates plus the financial/combinatorial
// functions the domain calls for (NPV, PMT, COMBIN, PERMUT).
var FunctionTable = map[string]Function{
	"SUM":     fnSum,
	"AVERAGE": fnAverage,
	"COUNT":   fnCount,
	"MIN":     fnMin,
	"MAX":     fnMax,
	"ABS":     fnAbs,
	"ROUND":   fnRound,
	"IF":      fnIf,
	"AND":     fnAnd,
	"OR":      fnOr,
	"NOT":     fnNot,
	"CONCAT":  fnConcat,
	"NPV":     fnNPV,
	"PMT":     fnPMT,
	"COMBIN":  fnCombin,
	"PERMUT":  fnPermut,
}

// flattenNumbers collects every numeric scalar across args, widening
// Array/Tuple shapes, and skipping blanks the way SUM/AVERAGE do.
func flattenNumbers(args []Value) ([]decimal.Decimal, *cellvalue.RunError) {
	var out []decimal.Decimal
	var walk func(v Value) *cellvalue.RunError
	walk = func(v Value) *cellvalue.RunError {
		switch v.Shape {
		case Single:
			if v.Scalar.IsBlank() {
				return nil
			}
			d, err := asNumber(v.Scalar)
			if err != nil {
				return err
			}
			out = append(out, d)
		case Array:
			for _, c := range v.Cells {
				if c.IsBlank() {
					continue
				}
				d, err := asNumber(c)
				if err != nil {
					return err
				}
				out = append(out, d)
			}
		case Tuple:
			for _, item := range v.Items {
				if err := walk(item); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, a := range args {
		if err := walk(a); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func fnSum(args []Value, _ *EvalContext) Value {
	nums, err := flattenNumbers(args)
	if err != nil {
		return NewErrorValue(err.Code, err.Msg)
	}
	total := decimal.Zero
	for _, n := range nums {
		total = total.Add(n)
	}
	return NewSingle(cellvalue.NewNumber(total))
}

func fnAverage(args []Value, _ *EvalContext) Value {
	nums, err := flattenNumbers(args)
	if err != nil {
		return NewErrorValue(err.Code, err.Msg)
	}
	if len(nums) == 0 {
		return NewErrorValue("DivideByZero", "AVERAGE of an empty range")
	}
	total := decimal.Zero
	for _, n := range nums {
		total = total.Add(n)
	}
	return NewSingle(cellvalue.NewNumber(total.Div(decimal.NewFromInt(int64(len(nums))))))
}

func fnCount(args []Value, _ *EvalContext) Value {
	nums, _ := flattenNumbers(args)
	return NewSingle(cellvalue.NewNumber(decimal.NewFromInt(int64(len(nums)))))
}

func fnMin(args []Value, _ *EvalContext) Value {
	nums, err := flattenNumbers(args)
	if err != nil {
		return NewErrorValue(err.Code, err.Msg)
	}
	if len(nums) == 0 {
		return NewSingle(cellvalue.NewNumber(decimal.Zero))
	}
	m := nums[0]
	for _, n := range nums[1:] {
		if n.LessThan(m) {
			m = n
		}
	}
	return NewSingle(cellvalue.NewNumber(m))
}

func fnMax(args []Value, _ *EvalContext) Value {
	nums, err := flattenNumbers(args)
	if err != nil {
		return NewErrorValue(err.Code, err.Msg)
	}
	if len(nums) == 0 {
		return NewSingle(cellvalue.NewNumber(decimal.Zero))
	}
	m := nums[0]
	for _, n := range nums[1:] {
		if n.GreaterThan(m) {
			m = n
		}
	}
	return NewSingle(cellvalue.NewNumber(m))
}

func fnAbs(args []Value, _ *EvalContext) Value {
	if len(args) != 1 {
		return NewErrorValue("InvalidArgument", "ABS takes exactly one argument")
	}
	return mapUnary(args[0], func(cv cellvalue.CellValue) cellvalue.CellValue {
		d, err := asNumber(cv)
		if err != nil {
			return cellvalue.NewError(err.Code, err.Msg)
		}
		return cellvalue.NewNumber(d.Abs())
	})
}

func fnRound(args []Value, _ *EvalContext) Value {
	if len(args) != 2 {
		return NewErrorValue("InvalidArgument", "ROUND takes exactly two arguments")
	}
	places, err := asNumber(args[1].AsScalar())
	if err != nil {
		return NewErrorValue(err.Code, err.Msg)
	}
	n := places.IntPart()
	return mapUnary(args[0], func(cv cellvalue.CellValue) cellvalue.CellValue {
		d, err := asNumber(cv)
		if err != nil {
			return cellvalue.NewError(err.Code, err.Msg)
		}
		return cellvalue.NewNumber(d.Round(int32(n)))
	})
}

func fnIf(args []Value, _ *EvalContext) Value {
	if len(args) < 2 || len(args) > 3 {
		return NewErrorValue("InvalidArgument", "IF takes two or three arguments")
	}
	cond := args[0].AsScalar()
	truthy := cond.Kind == cellvalue.Logical && cond.Logical
	if truthy {
		return args[1]
	}
	if len(args) == 3 {
		return args[2]
	}
	return NewSingle(cellvalue.CellValue{})
}

func fnAnd(args []Value, _ *EvalContext) Value {
	for _, a := range args {
		cv := a.AsScalar()
		if !(cv.Kind == cellvalue.Logical && cv.Logical) {
			return NewSingle(cellvalue.NewLogical(false))
		}
	}
	return NewSingle(cellvalue.NewLogical(true))
}

func fnOr(args []Value, _ *EvalContext) Value {
	for _, a := range args {
		cv := a.AsScalar()
		if cv.Kind == cellvalue.Logical && cv.Logical {
			return NewSingle(cellvalue.NewLogical(true))
		}
	}
	return NewSingle(cellvalue.NewLogical(false))
}

func fnNot(args []Value, _ *EvalContext) Value {
	if len(args) != 1 {
		return NewErrorValue("InvalidArgument", "NOT takes exactly one argument")
	}
	cv := args[0].AsScalar()
	return NewSingle(cellvalue.NewLogical(!(cv.Kind == cellvalue.Logical && cv.Logical)))
}

func fnConcat(args []Value, _ *EvalContext) Value {
	var sb strings.Builder
	for _, a := range args {
		sb.WriteString(a.AsScalar().DisplayString())
	}
	return NewSingle(cellvalue.NewText(sb.String()))
}

// fnNPV computes the net present value of a series of cash flows at a
// fixed discount rate: NPV(rate, flow1, flow2, ...).
func fnNPV(args []Value, _ *EvalContext) Value {
	if len(args) < 2 {
		return NewErrorValue("InvalidArgument", "NPV takes a rate and at least one cash flow")
	}
	rate, err := asNumber(args[0].AsScalar())
	if err != nil {
		return NewErrorValue(err.Code, err.Msg)
	}
	flows, ferr := flattenNumbers(args[1:])
	if ferr != nil {
		return NewErrorValue(ferr.Code, ferr.Msg)
	}
	one := decimal.NewFromInt(1)
	total := decimal.Zero
	discount := one.Add(rate)
	for i, flow := range flows {
		period := discount.Pow(decimal.NewFromInt(int64(i + 1)))
		if period.IsZero() {
			return NewErrorValue("DivideByZero", "NPV discount factor is zero")
		}
		total = total.Add(flow.Div(period))
	}
	return NewSingle(cellvalue.NewNumber(total))
}

// fnPMT computes the fixed payment for an amortising loan:
// PMT(rate, nper, pv).
func fnPMT(args []Value, _ *EvalContext) Value {
	if len(args) != 3 {
		return NewErrorValue("InvalidArgument", "PMT takes rate, nper, and pv")
	}
	rate, e0 := asNumber(args[0].AsScalar())
	nper, e1 := asNumber(args[1].AsScalar())
	pv, e2 := asNumber(args[2].AsScalar())
	if e0 != nil {
		return NewErrorValue(e0.Code, e0.Msg)
	}
	if e1 != nil {
		return NewErrorValue(e1.Code, e1.Msg)
	}
	if e2 != nil {
		return NewErrorValue(e2.Code, e2.Msg)
	}
	if rate.IsZero() {
		if nper.IsZero() {
			return NewErrorValue("DivideByZero", "PMT requires a nonzero number of periods")
		}
		return NewSingle(cellvalue.NewNumber(pv.Neg().Div(nper)))
	}
	one := decimal.NewFromInt(1)
	factor := one.Add(rate).Pow(nper.Neg())
	denom := one.Sub(factor)
	if denom.IsZero() {
		return NewErrorValue("DivideByZero", "PMT denominator is zero")
	}
	pmt := pv.Mul(rate).Neg().Div(denom)
	return NewSingle(cellvalue.NewNumber(pmt))
}

// fnCombin computes n-choose-k: COMBIN(n, k).
func fnCombin(args []Value, _ *EvalContext) Value {
	if len(args) != 2 {
		return NewErrorValue("InvalidArgument", "COMBIN takes n and k")
	}
	n, e0 := asNumber(args[0].AsScalar())
	k, e1 := asNumber(args[1].AsScalar())
	if e0 != nil {
		return NewErrorValue(e0.Code, e0.Msg)
	}
	if e1 != nil {
		return NewErrorValue(e1.Code, e1.Msg)
	}
	ni, ki := n.IntPart(), k.IntPart()
	if ki < 0 || ni < 0 || ki > ni {
		return NewErrorValue("InvalidArgument", "COMBIN requires 0 <= k <= n")
	}
	return NewSingle(cellvalue.NewNumber(decimal.NewFromInt(binomial(ni, ki))))
}

// fnPermut computes the count of k-permutations of n: PERMUT(n, k).
func fnPermut(args []Value, _ *EvalContext) Value {
	if len(args) != 2 {
		return NewErrorValue("InvalidArgument", "PERMUT takes n and k")
	}
	n, e0 := asNumber(args[0].AsScalar())
	k, e1 := asNumber(args[1].AsScalar())
	if e0 != nil {
		return NewErrorValue(e0.Code, e0.Msg)
	}
	if e1 != nil {
		return NewErrorValue(e1.Code, e1.Msg)
	}
	ni, ki := n.IntPart(), k.IntPart()
	if ki < 0 || ni < 0 || ki > ni {
		return NewErrorValue("InvalidArgument", "PERMUT requires 0 <= k <= n")
	}
	result := int64(1)
	for i := int64(0); i < ki; i++ {
		result *= ni - i
	}
	return NewSingle(cellvalue.NewNumber(decimal.NewFromInt(result)))
}

func binomial(n, k int64) int64 {
	if k > n-k {
		k = n - k
	}
	result := int64(1)
	for i := int64(0); i < k; i++ {
		result = result * (n - i) / (i + 1)
	}
	return result
}
