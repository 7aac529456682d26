// Package cellvalue defines CellValue, the tagged union every cell in
// the grid holds exactly one (or none) of.
package cellvalue

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind discriminates the CellValue tagged union. Dynamic dispatch on
// CellValue is deliberately avoided: callers switch on
// Kind rather than relying on polymorphism.
type Kind int

const (
	Blank Kind = iota
	Number
	Text
	Logical
	Date
	Time
	DateTime
	Duration
	Error
	Image
	Html
	RichText
	Code
)

func (k Kind) String() string {
	switch k {
	case Blank:
		return "Blank"
	case Number:
		return "Number"
	case Text:
		return "Text"
	case Logical:
		return "Logical"
	case Date:
		return "Date"
	case Time:
		return "Time"
	case DateTime:
		return "DateTime"
	case Duration:
		return "Duration"
	case Error:
		return "Error"
	case Image:
		return "Image"
	case Html:
		return "Html"
	case RichText:
		return "RichText"
	case Code:
		return "Code"
	default:
		return "Unknown"
	}
}

// Span (link target) (start, end) of a styled run within a RichText value.
type Span struct {
	Start, End int
	Bold       bool
	Italic     bool
	Underline  bool
	Strike     bool
	Color      string // "#RRGGBB", empty = inherit
	Link       string // optional hyperlink target
}

// RichTextRun is one styled segment of a RichText value.
type RichTextRun struct {
	Text string
	Span Span
}

// RunError is the error payload of an Error-kind CellValue or a code
// run failure.
type RunError struct {
	Code string // DivideByZero, InvalidArgument, Overflow, RefError, ...
	Msg  string
}

func (e *RunError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Msg) }

// CodeValue is the payload of a Code-kind CellValue: source code plus
// its cached output.
type CodeValue struct {
	Language string // "Formula", "Python", "JavaScript", ...
	Source   string
	Output   *CellValue // cached scalar output, nil until first run
}

// CellValue is the tagged union described in Exactly one
// field beyond Kind is meaningful for a given Kind; the zero value is Blank.
type CellValue struct {
	Kind Kind

	Number   decimal.Decimal
	Text     string
	Logical  bool
	Date     time.Time // Date/Time/DateTime share this field
	Duration time.Duration
	Err      *RunError
	ImageRef string // opaque handle to image bytes, stored outside this package
	Html     string
	Rich     []RichTextRun
	Code     *CodeValue
}

// NewNumber wraps a decimal.Decimal as a Number CellValue.
func NewNumber(d decimal.Decimal) CellValue { return CellValue{Kind: Number, Number: d} }

// NewNumberFromFloat is a convenience constructor for evaluator results.
func NewNumberFromFloat(f float64) CellValue {
	return CellValue{Kind: Number, Number: decimal.NewFromFloat(f)}
}

// NewText wraps a string as a Text CellValue.
func NewText(s string) CellValue { return CellValue{Kind: Text, Text: s} }

// NewLogical wraps a bool as a Logical CellValue.
func NewLogical(b bool) CellValue { return CellValue{Kind: Logical, Logical: b} }

// NewError wraps a RunError as an Error CellValue.
func NewError(code, msg string) CellValue {
	return CellValue{Kind: Error, Err: &RunError{Code: code, Msg: msg}}
}

// NewCode wraps source text as a Code CellValue.
func NewCode(language, source string) CellValue {
	return CellValue{Kind: Code, Code: &CodeValue{Language: language, Source: source}}
}

// IsBlank reports whether v holds no value.
func (v CellValue) IsBlank() bool { return v.Kind == Blank }

// DisplayString renders v the way a cell shows it by default — plain
// text rendering lives in render.Layout; this is the evaluator/log-facing form.
func (v CellValue) DisplayString() string {
	switch v.Kind {
	case Blank:
		return ""
	case Number:
		return v.Number.String()
	case Text:
		return v.Text
	case Logical:
		if v.Logical {
			return "TRUE"
		}
		return "FALSE"
	case Date:
		return v.Date.Format("2006-01-02")
	case Time:
		return v.Date.Format("15:04:05")
	case DateTime:
		return v.Date.Format("2006-01-02 15:04:05")
	case Duration:
		return v.Duration.String()
	case Error:
		return "#" + v.Err.Code
	case Image:
		return "[image]"
	case Html:
		return "[html]"
	case RichText:
		var out string
		for _, r := range v.Rich {
			out += r.Text
		}
		return out
	case Code:
		if v.Code.Output != nil {
			return v.Code.Output.DisplayString()
		}
		return v.Code.Source
	default:
		return ""
	}
}
