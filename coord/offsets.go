package coord

import "sort"

// DefaultColumnWidth and DefaultRowHeight are the pixel sizes used for
// any column/row that has no explicit override.
const (
	DefaultColumnWidth = 100.0
	DefaultRowHeight   = 21.0
)

// SheetOffsets tracks per-column widths and per-row heights for one
// sheet, falling back to the package defaults. It is the leaf
// dependency every other grid component sits on.
type SheetOffsets struct {
	colWidth  map[int64]float64
	rowHeight map[int64]float64
}

// NewSheetOffsets returns an offsets table with no overrides.
func NewSheetOffsets() *SheetOffsets {
	return &SheetOffsets{
		colWidth:  make(map[int64]float64),
		rowHeight: make(map[int64]float64),
	}
}

// ColumnWidth returns the width of column c.
func (o *SheetOffsets) ColumnWidth(c int64) float64 {
	if w, ok := o.colWidth[c]; ok {
		return w
	}
	return DefaultColumnWidth
}

// RowHeight returns the height of row r.
func (o *SheetOffsets) RowHeight(r int64) float64 {
	if h, ok := o.rowHeight[r]; ok {
		return h
	}
	return DefaultRowHeight
}

// SetColumnWidth overrides column c's width. A width equal to the
// default removes the override so the map stays sparse.
func (o *SheetOffsets) SetColumnWidth(c int64, w float64) (old float64) {
	old = o.ColumnWidth(c)
	if w == DefaultColumnWidth {
		delete(o.colWidth, c)
	} else {
		o.colWidth[c] = w
	}
	return old
}

// SetRowHeight overrides row r's height.
func (o *SheetOffsets) SetRowHeight(r int64, h float64) (old float64) {
	old = o.RowHeight(r)
	if h == DefaultRowHeight {
		delete(o.rowHeight, r)
	} else {
		o.rowHeight[r] = h
	}
	return old
}

// ColumnPosition returns the pixel x-offset of the left edge of column c.
func (o *SheetOffsets) ColumnPosition(c int64) float64 {
	// Sparse columns dominate the common case; walking overrides below c
	// plus a constant-width run is cheaper than a cumulative array for
	// sheets with millions of default-width columns.
	x := float64(c-1) * DefaultColumnWidth
	for col, w := range o.colWidth {
		if col < c {
			x += w - DefaultColumnWidth
		}
	}
	return x
}

// RowPosition returns the pixel y-offset of the top edge of row r.
func (o *SheetOffsets) RowPosition(r int64) float64 {
	y := float64(r-1) * DefaultRowHeight
	for row, h := range o.rowHeight {
		if row < r {
			y += h - DefaultRowHeight
		}
	}
	return y
}

// ColumnsWithOverrides returns overridden column indices in ascending order.
func (o *SheetOffsets) ColumnsWithOverrides() []int64 {
	return sortedKeys(o.colWidth)
}

// RowsWithOverrides returns overridden row indices in ascending order.
func (o *SheetOffsets) RowsWithOverrides() []int64 {
	return sortedKeys(o.rowHeight)
}

func sortedKeys(m map[int64]float64) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// InsertColumn shifts every override at or after c one column to the
// right, making room for a freshly inserted column at c.
func (o *SheetOffsets) InsertColumn(c int64) {
	o.colWidth = shiftInsert(o.colWidth, c)
}

// DeleteColumn removes any override at c and shifts overrides after c
// one column to the left.
func (o *SheetOffsets) DeleteColumn(c int64) {
	o.colWidth = shiftDelete(o.colWidth, c)
}

// InsertRow shifts every override at or after r one row down.
func (o *SheetOffsets) InsertRow(r int64) {
	o.rowHeight = shiftInsert(o.rowHeight, r)
}

// DeleteRow removes any override at r and shifts overrides after r up.
func (o *SheetOffsets) DeleteRow(r int64) {
	o.rowHeight = shiftDelete(o.rowHeight, r)
}

func shiftInsert(m map[int64]float64, at int64) map[int64]float64 {
	out := make(map[int64]float64, len(m))
	for k, v := range m {
		if k >= at {
			out[k+1] = v
		} else {
			out[k] = v
		}
	}
	return out
}

func shiftDelete(m map[int64]float64, at int64) map[int64]float64 {
	out := make(map[int64]float64, len(m))
	for k, v := range m {
		switch {
		case k == at:
			continue
		case k > at:
			out[k-1] = v
		default:
			out[k] = v
		}
	}
	return out
}
