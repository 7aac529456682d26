// Package coord defines the leaf types of the grid: sheet identifiers,
// 1-indexed cell coordinates, and the per-axis column/row offsets they
// are rendered against.
package coord

import "fmt"

// SheetId is an opaque, stable identifier for a sheet. It is never
// derived from the sheet's name; name <-> id resolution lives in a1.Context.
type SheetId string

// Unbounded marks a range endpoint as extending to the logical maximum
// of its axis ("to end of sheet"). It is deliberately far outside any
// realistic column/row count so arithmetic comparisons behave like +Inf
// without needing a separate sentinel type.
const Unbounded int64 = 1<<31 - 1

// Pos is a 1-indexed cell position. Column 0 and row 0 do not exist.
type Pos struct {
	X int64 // column
	Y int64 // row
}

// New validates and builds a Pos. Callers that construct positions from
// trusted internal arithmetic may build the struct literal directly.
func New(x, y int64) (Pos, error) {
	if x < 1 || y < 1 {
		return Pos{}, fmt.Errorf("coord: invalid position (%d,%d): column and row must be >= 1", x, y)
	}
	return Pos{X: x, Y: y}, nil
}

func (p Pos) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// IsUnboundedCol reports whether p's column represents "to end of sheet".
func (p Pos) IsUnboundedCol() bool { return p.X >= Unbounded }

// IsUnboundedRow reports whether p's row represents "to end of sheet".
func (p Pos) IsUnboundedRow() bool { return p.Y >= Unbounded }

// Translate returns p shifted by (dx,dy), clamped so neither axis drops
// below 1.
func (p Pos) Translate(dx, dy int64) Pos {
	x, y := p.X+dx, p.Y+dy
	if x < 1 {
		x = 1
	}
	if y < 1 {
		y = 1
	}
	return Pos{X: x, Y: y}
}

// RefPos is a range-endpoint coordinate: a Pos plus the $-absolute
// markers carried independently per axis.
type RefPos struct {
	Pos
	ColAbsolute bool
	RowAbsolute bool
}

// Rect is an axis-aligned rectangle of cells, inclusive on both ends.
// Endpoints may be unbounded on either axis.
type Rect struct {
	Min, Max Pos
}

// NewRect normalises two corners into a Rect with Min <= Max componentwise.
func NewRect(a, b Pos) Rect {
	r := Rect{
		Min: Pos{X: min64(a.X, b.X), Y: min64(a.Y, b.Y)},
		Max: Pos{X: max64(a.X, b.X), Y: max64(a.Y, b.Y)},
	}
	return r
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// Contains reports whether p lies inside r (inclusive).
func (r Rect) Contains(p Pos) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Intersects reports whether r and o share at least one cell.
func (r Rect) Intersects(o Rect) bool {
	return r.Min.X <= o.Max.X && o.Min.X <= r.Max.X && r.Min.Y <= o.Max.Y && o.Min.Y <= r.Max.Y
}

// Intersection returns the overlapping rectangle of r and o, if any.
func (r Rect) Intersection(o Rect) (Rect, bool) {
	if !r.Intersects(o) {
		return Rect{}, false
	}
	return Rect{
		Min: Pos{X: max64(r.Min.X, o.Min.X), Y: max64(r.Min.Y, o.Min.Y)},
		Max: Pos{X: min64(r.Max.X, o.Max.X), Y: min64(r.Max.Y, o.Max.Y)},
	}, true
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Min: Pos{X: min64(r.Min.X, o.Min.X), Y: min64(r.Min.Y, o.Min.Y)},
		Max: Pos{X: max64(r.Max.X, o.Max.X), Y: max64(r.Max.Y, o.Max.Y)},
	}
}

// IsSingleCell reports whether r spans exactly one cell.
func (r Rect) IsSingleCell() bool { return r.Min == r.Max }

// Width returns the finite width of r, or -1 if the column axis is unbounded.
func (r Rect) Width() int64 {
	if r.Max.IsUnboundedCol() {
		return -1
	}
	return r.Max.X - r.Min.X + 1
}

// Height returns the finite height of r, or -1 if the row axis is unbounded.
func (r Rect) Height() int64 {
	if r.Max.IsUnboundedRow() {
		return -1
	}
	return r.Max.Y - r.Min.Y + 1
}
