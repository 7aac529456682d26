package grid

import (
	"sheetcore/cellvalue"
	"sheetcore/coord"
)

// FindTabularDataRectsInSelectionRects performs a greedy scan: for
// each non-empty cell not yet visited and not inside a multi-cell code
// table, extend rightward until a non-data cell and downward
// symmetrically, yielding the maximal contiguous data block anchored
// at that cell.
func (s *Sheet) FindTabularDataRectsInSelectionRects(selections []coord.Rect) []coord.Rect {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visited := make(map[coord.Pos]bool)
	var out []coord.Rect

	multiCellTable := func(p coord.Pos) bool {
		for anchor, dt := range s.tables {
			if dt.Value.Kind != 1 { // not Array
				continue
			}
			if dt.OutputRect(anchor, true).Contains(p) {
				return true
			}
		}
		return false
	}

	isData := func(p coord.Pos) bool {
		if multiCellTable(p) {
			return false
		}
		v := s.cellAtLocked(p)
		if v.IsBlank() {
			return false
		}
		if v.Kind == cellvalue.Image || v.Kind == cellvalue.Html {
			return false
		}
		return true
	}

	for _, sel := range selections {
		for col := sel.Min.X; col <= clampFinite(sel.Max.X, s.dataBounds.Max.X); col++ {
			for row := sel.Min.Y; row <= clampFinite(sel.Max.Y, s.dataBounds.Max.Y); row++ {
				p := coord.Pos{X: col, Y: row}
				if visited[p] || !isData(p) {
					continue
				}
				right := col
				for isData(coord.Pos{X: right + 1, Y: row}) && !visited[coord.Pos{X: right + 1, Y: row}] {
					right++
				}
				bottom := row
			rowLoop:
				for {
					next := bottom + 1
					for c := col; c <= right; c++ {
						if !isData(coord.Pos{X: c, Y: next}) {
							break rowLoop
						}
					}
					bottom = next
				}
				for c := col; c <= right; c++ {
					for r := row; r <= bottom; r++ {
						visited[coord.Pos{X: c, Y: r}] = true
					}
				}
				out = append(out, coord.Rect{Min: p, Max: coord.Pos{X: right, Y: bottom}})
			}
		}
	}
	return out
}

func clampFinite(v, bound int64) int64 {
	if v > bound {
		return bound
	}
	return v
}

func (s *Sheet) cellAtLocked(p coord.Pos) cellvalue.CellValue {
	col, ok := s.columns[p.X]
	if !ok {
		return cellvalue.CellValue{}
	}
	return col[p.Y]
}

// GetRowsWithWrapInRect returns the union of rows within rect that
// contain (a) wrap-formatted cells, (b) non-default font size, or (c)
// cells whose text contains "\n" or "\r". Only plain cell storage and
// the sheet's "wrap"/"font_size" format runs are examined; data-table
// output and per-table formats are not. Used by the row-autoresize
// driver.
func (s *Sheet) GetRowsWithWrapInRect(rect coord.Rect, includeBlanks bool) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make(map[int64]bool)
	for col, colRows := range s.columns {
		if col < rect.Min.X || col > rect.Max.X {
			continue
		}
		for row, v := range colRows {
			if row < rect.Min.Y || row > rect.Max.Y {
				continue
			}
			text := v.DisplayString()
			if containsNewline(text) {
				rows[row] = true
				continue
			}
			if includeBlanks && v.IsBlank() {
				rows[row] = true
			}
		}
	}
	for _, runs := range s.formats["wrap"] {
		for row := runs.Start; row <= runs.End; row++ {
			if row >= rect.Min.Y && row <= rect.Max.Y {
				rows[row] = true
			}
		}
	}
	for _, runs := range s.formats["font_size"] {
		for row := runs.Start; row <= runs.End; row++ {
			if row >= rect.Min.Y && row <= rect.Max.Y {
				rows[row] = true
			}
		}
	}

	out := make([]int64, 0, len(rows))
	for r := range rows {
		out = append(out, r)
	}
	sortInt64s(out)
	return out
}

func containsNewline(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' || s[i] == '\r' {
			return true
		}
	}
	return false
}

func sortInt64s(xs []int64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}
