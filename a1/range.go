package a1

import "sheetcore/coord"

// TableColSpec describes the column portion of a TableRef: All columns,
// a single named column, a named-column range, or column-to-end.
type TableColSpec struct {
	Kind     TableColRange
	Col      string // Kind == TableColSingle or start of TableColRange_/TableColToEnd
	ColEnd   string // Kind == TableColRange_
}

// TableRef is a structured table reference: `Table1[Column]`.
type TableRef struct {
	TableName string
	Cols      TableColSpec
}

// Range is one element of a Selection: either a rectangular cell range
// (possibly unbounded on either axis, possibly a single cell) or a
// structured TableRef. Exactly one of Table or the Start/End pair is
// meaningful, discriminated by IsTable.
type Range struct {
	IsTable bool
	Table   TableRef

	Start coord.RefPos
	End   coord.RefPos
}

func refPos(x, y int64) coord.RefPos {
	return coord.RefPos{Pos: coord.Pos{X: x, Y: y}}
}

// Cell builds a single-cell range.
func Cell(col, row int64) Range {
	p := refPos(col, row)
	return Range{Start: p, End: p}
}

// CellAbs builds a single-cell range carrying explicit $ markers.
func CellAbs(col, row int64, colAbs, rowAbs bool) Range {
	p := coord.RefPos{Pos: coord.Pos{X: col, Y: row}, ColAbsolute: colAbs, RowAbsolute: rowAbs}
	return Range{Start: p, End: p}
}

// RectRange builds a rectangle from two (possibly unbounded) endpoints.
func RectRange(start, end coord.RefPos) Range {
	if rectLess(end, start) {
		start, end = end, start
	}
	return Range{Start: start, End: end}
}

func rectLess(a, b coord.RefPos) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// ColumnRange builds `c1:c2` (start.row=1, end.row=unbounded).
func ColumnRange(c1, c2 int64) Range {
	if c1 > c2 {
		c1, c2 = c2, c1
	}
	return Range{
		Start: refPos(c1, 1),
		End:   refPos(c2, coord.Unbounded),
	}
}

// RowRange builds `r1:r2` (start.col=1, end.col=unbounded).
func RowRange(r1, r2 int64) Range {
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	return Range{
		Start: refPos(1, r1),
		End:   refPos(coord.Unbounded, r2),
	}
}

// All builds the whole-sheet range.
func All() Range {
	return Range{
		Start: refPos(1, 1),
		End:   refPos(coord.Unbounded, coord.Unbounded),
	}
}

// NewTableRef builds a structured table reference.
func NewTableRef(name string, cols TableColSpec) Range {
	return Range{IsTable: true, Table: TableRef{TableName: name, Cols: cols}}
}

// IsSingleCell reports whether the range is exactly one cell.
func (r Range) IsSingleCell() bool {
	return !r.IsTable && r.Start.Pos == r.End.Pos
}

// IsColumnRange reports whether the range spans full columns
// (start.row==1, end.row unbounded).
func (r Range) IsColumnRange() bool {
	return !r.IsTable && r.Start.Y == 1 && r.End.IsUnboundedRow() && !r.Start.IsUnboundedCol()
}

// IsRowRange reports whether the range spans full rows.
func (r Range) IsRowRange() bool {
	return !r.IsTable && r.Start.X == 1 && r.End.IsUnboundedCol() && !r.Start.IsUnboundedRow()
}

// IsAll reports whether the range is the whole-sheet wildcard.
func (r Range) IsAll() bool {
	return !r.IsTable && r.Start.X == 1 && r.Start.Y == 1 && r.End.IsUnboundedCol() && r.End.IsUnboundedRow()
}

// Rect returns the underlying (possibly unbounded) rectangle. Callers
// must not call this on a table range.
func (r Range) Rect() coord.Rect {
	return coord.Rect{Min: r.Start.Pos, Max: r.End.Pos}
}

// ContainsPos reports whether p lies inside the range. Table ranges
// require the caller to resolve against a Context first via
// ResolveTableRect.
func (r Range) ContainsPos(p coord.Pos) bool {
	if r.IsTable {
		return false
	}
	return r.Rect().Contains(p)
}

// LargestRectFinite clamps unbounded endpoints to boundsUsed, the
// currently-used rectangle of the sheet.
func (r Range) LargestRectFinite(boundsUsed coord.Rect) coord.Rect {
	rect := r.Rect()
	if rect.Max.IsUnboundedCol() {
		rect.Max.X = boundsUsed.Max.X
	}
	if rect.Max.IsUnboundedRow() {
		rect.Max.Y = boundsUsed.Max.Y
	}
	if rect.Min.X > rect.Max.X {
		rect.Min.X = rect.Max.X
	}
	if rect.Min.Y > rect.Max.Y {
		rect.Min.Y = rect.Max.Y
	}
	return rect
}

// ResolveTableRect resolves a TableRef range into a concrete sheet
// rectangle using ctx, honoring the column spec.
func ResolveTableRect(r Range, ctx *Context) (coord.Rect, coord.SheetId, bool) {
	if !r.IsTable {
		return coord.Rect{}, "", false
	}
	meta, ok := ctx.TryTable(r.Table.TableName)
	if !ok {
		return coord.Rect{}, "", false
	}
	headerRows := int64(0)
	if meta.ShowName {
		headerRows++
	}
	if meta.ShowColumns {
		headerRows++
	}
	top := meta.Anchor.Y + headerRows
	bottom := meta.Anchor.Y + meta.Height - 1
	if bottom < top {
		bottom = top
	}
	left, right := meta.Anchor.X, meta.Anchor.X+meta.Width-1

	switch r.Table.Cols.Kind {
	case TableColAll:
		// full width as computed above
	case TableColSingle:
		idx, found := columnIndex(meta, r.Table.Cols.Col)
		if !found {
			return coord.Rect{}, "", false
		}
		left = meta.Anchor.X + idx
		right = left
	case TableColRange_:
		i1, ok1 := columnIndex(meta, r.Table.Cols.Col)
		i2, ok2 := columnIndex(meta, r.Table.Cols.ColEnd)
		if !ok1 || !ok2 {
			return coord.Rect{}, "", false
		}
		if i1 > i2 {
			i1, i2 = i2, i1
		}
		left = meta.Anchor.X + i1
		right = meta.Anchor.X + i2
	case TableColToEnd:
		idx, found := columnIndex(meta, r.Table.Cols.Col)
		if !found {
			return coord.Rect{}, "", false
		}
		left = meta.Anchor.X + idx
	}

	return coord.Rect{Min: coord.Pos{X: left, Y: top}, Max: coord.Pos{X: right, Y: bottom}}, meta.SheetId, true
}

func columnIndex(meta *TableMeta, name string) (int64, bool) {
	for i, c := range meta.Columns {
		if foldName(c) == foldName(name) {
			return int64(i), true
		}
	}
	return 0, false
}
