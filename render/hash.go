// Package render is the CPU-side half of the text render pipeline: it
// partitions a sheet into fixed-size spatial hashes, lazily lays out
// and batches the glyphs each hash needs, and tracks which hashes are
// dirty so the GPU-facing half only ever re-rasterises what changed.
// Nothing in this package touches a GPU directly — textures, vertex
// buffers, and render targets are owned by whatever client consumes
// Pipeline's output.
package render

import "sheetcore/coord"

// HashCols and HashRows are the fixed tile size a sheet is partitioned
// into for render caching.
const (
	HashCols = 15
	HashRows = 30
)

// HashCoord identifies one spatial-hash tile.
type HashCoord struct {
	X, Y int64
}

// HashOf returns the tile that owns cell p.
func HashOf(p coord.Pos) HashCoord {
	return HashCoord{
		X: floorDiv(p.X-1, HashCols),
		Y: floorDiv(p.Y-1, HashRows),
	}
}

// Rect returns the cell-space rectangle a hash tile covers.
func (h HashCoord) Rect() coord.Rect {
	minX := h.X*HashCols + 1
	minY := h.Y*HashRows + 1
	return coord.Rect{
		Min: coord.Pos{X: minX, Y: minY},
		Max: coord.Pos{X: minX + HashCols - 1, Y: minY + HashRows - 1},
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Viewport is the visible region of a sheet, in world (pixel) space,
// plus the current zoom scale.
type Viewport struct {
	MinX, MinY, MaxX, MaxY float64
	Scale                  float64
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// HashPadding is the padding constant from which the scale-aware hash
// padding below is derived.
const HashPadding = 4.0

// hashPadding scales with both zoom-in (fast scrolling through hashes)
// and zoom-out (more hashes fit on screen at once).
func hashPadding(scale float64) int64 {
	p := HashPadding * scale
	if alt := HashPadding / scale; alt > p {
		p = alt
	}
	return int64(clamp(p, 2, 30))
}

// VisibleHashes converts a viewport into the set of hash tiles it (plus
// scale-aware padding) overlaps, given the sheet's column/row offsets.
func VisibleHashes(vp Viewport, offsets *coord.SheetOffsets) []HashCoord {
	minCol, maxCol := columnRangeFor(vp.MinX, vp.MaxX, offsets)
	minRow, maxRow := rowRangeFor(vp.MinY, vp.MaxY, offsets)

	minHash := HashOf(coord.Pos{X: minCol, Y: minRow})
	maxHash := HashOf(coord.Pos{X: maxCol, Y: maxRow})

	pad := hashPadding(vp.Scale)
	minHash.X -= pad
	minHash.Y -= pad
	maxHash.X += pad
	maxHash.Y += pad
	if minHash.X < 0 {
		minHash.X = 0
	}
	if minHash.Y < 0 {
		minHash.Y = 0
	}

	out := make([]HashCoord, 0, (maxHash.X-minHash.X+1)*(maxHash.Y-minHash.Y+1))
	for y := minHash.Y; y <= maxHash.Y; y++ {
		for x := minHash.X; x <= maxHash.X; x++ {
			out = append(out, HashCoord{X: x, Y: y})
		}
	}
	return out
}

func columnRangeFor(minX, maxX float64, offsets *coord.SheetOffsets) (int64, int64) {
	minCol := columnAt(minX, offsets)
	maxCol := columnAt(maxX, offsets)
	if maxCol < minCol {
		maxCol = minCol
	}
	return minCol, maxCol
}

func rowRangeFor(minY, maxY float64, offsets *coord.SheetOffsets) (int64, int64) {
	minRow := rowAt(minY, offsets)
	maxRow := rowAt(maxY, offsets)
	if maxRow < minRow {
		maxRow = minRow
	}
	return minRow, maxRow
}

// columnAt walks forward from column 1 until the offset exceeds x. A
// production renderer would keep a cumulative-offset index; this
// matches the sparse-override model coord.SheetOffsets already uses
// for ColumnPosition, trading a linear scan for not needing a second
// cached structure in sync with it.
func columnAt(x float64, offsets *coord.SheetOffsets) int64 {
	if x <= 0 {
		return 1
	}
	col := int64(x/coord.DefaultColumnWidth) + 1
	for offsets.ColumnPosition(col) > x && col > 1 {
		col--
	}
	for offsets.ColumnPosition(col+1) <= x {
		col++
	}
	return col
}

func rowAt(y float64, offsets *coord.SheetOffsets) int64 {
	if y <= 0 {
		return 1
	}
	row := int64(y/coord.DefaultRowHeight) + 1
	for offsets.RowPosition(row) > y && row > 1 {
		row--
	}
	for offsets.RowPosition(row+1) <= y {
		row++
	}
	return row
}
