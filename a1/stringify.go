package a1

import (
	"strings"

	"sheetcore/coord"
)

// String renders the selection in canonical form: `:X` is dropped when
// start equals end, a 1x1 rectangle prints as `A1`, `All` prints as
// `*`, and the sheet prefix is omitted when it equals defaultSheet.
func (s *Selection) String(ctx *Context, defaultSheet coord.SheetId) string {
	parts := make([]string, 0, len(s.Ranges))
	for _, r := range s.Ranges {
		parts = append(parts, stringifyRange(r))
	}
	body := strings.Join(parts, ",")
	if s.SheetId == defaultSheet {
		return body
	}
	name, ok := ctx.TrySheetName(s.SheetId)
	if !ok {
		return body
	}
	return QuoteSheetName(name) + "!" + body
}

func stringifyRange(r Range) string {
	if r.IsTable {
		return stringifyTableRef(r.Table)
	}
	if r.IsAll() {
		return "*"
	}
	if r.IsColumnRange() {
		if r.Start.X == r.End.X {
			return colRefString(r.Start)
		}
		return colRefString(r.Start) + ":" + colRefString(r.End)
	}
	if r.IsRowRange() {
		if r.Start.Y == r.End.Y {
			return rowRefString(r.Start)
		}
		return rowRefString(r.Start) + ":" + rowRefString(r.End)
	}
	if r.IsSingleCell() {
		return cellRefString(r.Start)
	}
	return endpointString(r.Start) + ":" + endpointString(r.End)
}

// endpointString renders one range endpoint, dropping the row when the
// endpoint's row is unbounded and dropping the column when the
// endpoint's column is unbounded. Used for mixed shapes that aren't a
// canonical whole-column/whole-row pattern (e.g. a cell extended into
// an unbounded-row range starting below row 1).
func endpointString(p coord.RefPos) string {
	switch {
	case p.IsUnboundedRow() && p.IsUnboundedCol():
		return ""
	case p.IsUnboundedRow():
		return colRefString(p)
	case p.IsUnboundedCol():
		return rowRefString(p)
	default:
		return cellRefString(p)
	}
}

func stringifyTableRef(t TableRef) string {
	switch t.Cols.Kind {
	case TableColAll:
		return t.TableName + "[]"
	case TableColSingle:
		return t.TableName + "[" + t.Cols.Col + "]"
	case TableColRange_:
		return t.TableName + "[" + t.Cols.Col + ":" + t.Cols.ColEnd + "]"
	case TableColToEnd:
		return t.TableName + "[" + t.Cols.Col + ":]"
	default:
		return t.TableName + "[]"
	}
}

func cellRefString(p coord.RefPos) string {
	return colRefString(p) + rowRefString(p)
}

func colRefString(p coord.RefPos) string {
	prefix := ""
	if p.ColAbsolute {
		prefix = "$"
	}
	return prefix + ColumnIndexToLetters(p.X)
}

func rowRefString(p coord.RefPos) string {
	prefix := ""
	if p.RowAbsolute {
		prefix = "$"
	}
	return prefix + itoa(p.Y)
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
