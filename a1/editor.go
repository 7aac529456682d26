package a1

import "sheetcore/coord"

// SelectAll implements `select_all`. append=false clears
// the selection to the All wildcard; append=true extends the active
// range's end to unbounded.
func (s *Selection) SelectAll(append bool) {
	if append {
		last := s.Last()
		if !last.IsTable {
			last.End = coord.RefPos{Pos: coord.Pos{X: coord.Unbounded, Y: coord.Unbounded}}
			s.SetLast(last)
		}
		return
	}
	s.Ranges = []Range{All()}
}

// AddOrRemoveColumn implements the behaviour tree of ,
// ported from quadratic-core's `column_row.rs` (the authoritative
// branch named in Open Question).
func (s *Selection) AddOrRemoveColumn(col, topHint int64) {
	if len(s.Ranges) == 1 && s.Ranges[0].IsAll() {
		s.Ranges = nil
		if col == 1 {
			s.Ranges = append(s.Ranges, ColumnRange(2, coord.Unbounded))
			s.Cursor = coord.Pos{X: 2, Y: clampPos(topHint)}
		} else {
			if col-1 == 1 {
				s.Ranges = append(s.Ranges, ColumnRange(1, 1))
			} else {
				s.Ranges = append(s.Ranges, ColumnRange(1, col-1))
			}
			s.Ranges = append(s.Ranges, ColumnRange(col+1, coord.Unbounded))
			s.Cursor = coord.Pos{X: 1, Y: 1}
		}
		return
	}

	hasOtherRange := func(skip Range) bool {
		for _, r := range s.Ranges {
			if r.IsTable {
				return true
			}
			if !(r.Start.X == r.End.X && r.Start.X == col) {
				return true
			}
		}
		return false
	}

	var out []Range
	found := false
	cursorSet := false

	for _, r := range s.Ranges {
		if r.IsTable {
			out = append(out, r)
			continue
		}
		if r.IsRowRange() {
			out = append(out, r)
			continue
		}
		contains := col >= r.Start.X && col <= r.End.X
		if contains {
			found = true
		}

		switch {
		case r.Start.X == r.End.X && r.Start.X == col:
			if !hasOtherRange(r) {
				cell := Cell(col, topHint)
				out = append(out, cell)
				s.Cursor = coord.Pos{X: col, Y: clampPos(topHint)}
				cursorSet = true
			}
			// else: drop the range entirely
		case r.Start.X == r.End.X:
			out = append(out, r)
		case r.Start.X == col:
			r.Start = refPos(col+1, 1)
			out = append(out, r)
		case r.End.X == col:
			if r.Start.X == col-1 {
				r.End = r.Start
				out = append(out, r)
			} else {
				tail := r
				tail.End = r.End
				tail.Start = refPos(col+1, 1)
				r.End = refPos(col-1, r.End.Y)
				out = append(out, r, tail)
			}
		case r.Start.X < col && r.End.X > col:
			first := r
			first.End = refPos(col-1, r.End.Y)
			second := r
			second.Start = refPos(col+1, 1)
			out = append(out, first, second)
		default:
			out = append(out, r)
		}
	}

	s.Ranges = out

	if !found {
		s.Ranges = append(s.Ranges, ColumnRange(col, col))
		s.Cursor = coord.Pos{X: col, Y: clampPos(topHint)}
	} else if !cursorSet {
		s.repositionCursorAfterColumnRemoval(col, topHint)
	}
	s.ensureNonEmpty(col, topHint, true)
}

// AddOrRemoveRow is the row-axis mirror of AddOrRemoveColumn.
func (s *Selection) AddOrRemoveRow(row, leftHint int64) {
	if len(s.Ranges) == 1 && s.Ranges[0].IsAll() {
		s.Ranges = nil
		if row == 1 {
			s.Ranges = append(s.Ranges, RowRange(2, coord.Unbounded))
			s.Cursor = coord.Pos{X: clampPos(leftHint), Y: 2}
		} else {
			if row-1 == 1 {
				s.Ranges = append(s.Ranges, RowRange(1, 1))
			} else {
				s.Ranges = append(s.Ranges, RowRange(1, row-1))
			}
			s.Ranges = append(s.Ranges, RowRange(row+1, coord.Unbounded))
			s.Cursor = coord.Pos{X: 1, Y: 1}
		}
		return
	}

	hasOtherRange := func(skip Range) bool {
		for _, r := range s.Ranges {
			if r.IsTable {
				return true
			}
			if !(r.Start.Y == r.End.Y && r.Start.Y == row) {
				return true
			}
		}
		return false
	}

	var out []Range
	found := false
	cursorSet := false

	for _, r := range s.Ranges {
		if r.IsTable {
			out = append(out, r)
			continue
		}
		if r.IsColumnRange() {
			out = append(out, r)
			continue
		}
		contains := row >= r.Start.Y && row <= r.End.Y
		if contains {
			found = true
		}

		switch {
		case r.Start.Y == r.End.Y && r.Start.Y == row:
			if !hasOtherRange(r) {
				cell := Cell(leftHint, row)
				out = append(out, cell)
				s.Cursor = coord.Pos{X: clampPos(leftHint), Y: row}
				cursorSet = true
			}
		case r.Start.Y == r.End.Y:
			out = append(out, r)
		case r.Start.Y == row:
			r.Start = refPos(1, row+1)
			out = append(out, r)
		case r.End.Y == row:
			if r.Start.Y == row-1 {
				r.End = r.Start
				out = append(out, r)
			} else {
				tail := r
				tail.Start = refPos(1, row+1)
				r.End = refPos(r.End.X, row-1)
				out = append(out, r, tail)
			}
		case r.Start.Y < row && r.End.Y > row:
			first := r
			first.End = refPos(r.End.X, row-1)
			second := r
			second.Start = refPos(1, row+1)
			out = append(out, first, second)
		default:
			out = append(out, r)
		}
	}

	s.Ranges = out

	if !found {
		s.Ranges = append(s.Ranges, RowRange(row, row))
		s.Cursor = coord.Pos{X: clampPos(leftHint), Y: row}
	} else if !cursorSet {
		s.repositionCursorAfterRowRemoval(row, leftHint)
	}
	s.ensureNonEmpty(leftHint, row, false)
}

func clampPos(v int64) int64 {
	if v < 1 {
		return 1
	}
	return v
}

// repositionCursorAfterColumnRemoval applies rule 4 of :
// prefer target+-1 at the hint secondary coordinate, clamped to >=1.
func (s *Selection) repositionCursorAfterColumnRemoval(col, topHint int64) {
	candidate := col + 1
	if !s.columnSelected(candidate) {
		if alt := col - 1; alt >= 1 && s.columnSelected(alt) {
			candidate = alt
		}
	}
	s.Cursor = coord.Pos{X: clampPos(candidate), Y: clampPos(topHint)}
}

func (s *Selection) repositionCursorAfterRowRemoval(row, leftHint int64) {
	candidate := row + 1
	if !s.rowSelected(candidate) {
		if alt := row - 1; alt >= 1 && s.rowSelected(alt) {
			candidate = alt
		}
	}
	s.Cursor = coord.Pos{X: clampPos(leftHint), Y: clampPos(candidate)}
}

func (s *Selection) columnSelected(col int64) bool {
	for _, r := range s.Ranges {
		if !r.IsTable && col >= r.Start.X && col <= r.End.X {
			return true
		}
	}
	return false
}

func (s *Selection) rowSelected(row int64) bool {
	for _, r := range s.Ranges {
		if !r.IsTable && row >= r.Start.Y && row <= r.End.Y {
			return true
		}
	}
	return false
}

// ensureNonEmpty implements rule 5: if ranges became empty, insert a
// single cell at the cursor (or at (col,row) as a fallback anchor).
func (s *Selection) ensureNonEmpty(col, row int64, colIsFirst bool) {
	if len(s.Ranges) > 0 {
		return
	}
	if colIsFirst {
		s.Ranges = append(s.Ranges, Cell(col, row))
	} else {
		s.Ranges = append(s.Ranges, Cell(col, row))
	}
	s.Cursor = coord.Pos{X: clampPos(col), Y: clampPos(row)}
}

// ExtendColumn implements `extend_column`.
func (s *Selection) ExtendColumn(col int64) {
	last := s.Last()
	if !last.IsTable && last.IsSingleCell() && !last.Start.IsUnboundedCol() && !last.Start.IsUnboundedRow() {
		startCol, startRow := last.Start.X, last.Start.Y
		minCol, maxCol := startCol, col
		if col < startCol {
			minCol, maxCol = col, startCol
		}
		s.SetLast(Range{Start: refPos(minCol, startRow), End: refPos(maxCol, coord.Unbounded)})
		s.Cursor = coord.Pos{X: minCol, Y: startRow}
		return
	}

	for i, r := range s.Ranges {
		if r.IsTable || !r.IsColumnRange() {
			continue
		}
		switch {
		case col >= r.Start.X && col <= r.End.X:
			s.Cursor = coord.Pos{X: r.Start.X, Y: 1}
			return
		case col == r.Start.X-1:
			r.Start = refPos(col, 1)
			s.Ranges[i] = r
			s.Cursor = coord.Pos{X: col, Y: 1}
			return
		case col == r.End.X+1:
			r.End = refPos(col, coord.Unbounded)
			s.Ranges[i] = r
			s.Cursor = coord.Pos{X: r.Start.X, Y: 1}
			return
		}
	}
	s.Ranges = append(s.Ranges, ColumnRange(col, col))
	s.Cursor = coord.Pos{X: col, Y: 1}
}

// ExtendRow is the row-axis mirror of ExtendColumn.
func (s *Selection) ExtendRow(row int64) {
	last := s.Last()
	if !last.IsTable && last.IsSingleCell() && !last.Start.IsUnboundedCol() && !last.Start.IsUnboundedRow() {
		startCol, startRow := last.Start.X, last.Start.Y
		minRow, maxRow := startRow, row
		if row < startRow {
			minRow, maxRow = row, startRow
		}
		s.SetLast(Range{Start: refPos(startCol, minRow), End: refPos(coord.Unbounded, maxRow)})
		s.Cursor = coord.Pos{X: startCol, Y: minRow}
		return
	}

	for i, r := range s.Ranges {
		if r.IsTable || !r.IsRowRange() {
			continue
		}
		switch {
		case row >= r.Start.Y && row <= r.End.Y:
			s.Cursor = coord.Pos{X: 1, Y: r.Start.Y}
			return
		case row == r.Start.Y-1:
			r.Start = refPos(1, row)
			s.Ranges[i] = r
			s.Cursor = coord.Pos{X: 1, Y: row}
			return
		case row == r.End.Y+1:
			r.End = refPos(coord.Unbounded, row)
			s.Ranges[i] = r
			s.Cursor = coord.Pos{X: 1, Y: r.Start.Y}
			return
		}
	}
	s.Ranges = append(s.Ranges, RowRange(row, row))
	s.Cursor = coord.Pos{X: 1, Y: row}
}

// SelectOnlyColumn replaces the whole selection with a single full
// column selection, used by plain clicks and right-clicks on a column
// header.
func (s *Selection) SelectOnlyColumn(col int64) {
	s.Ranges = []Range{ColumnRange(col, col)}
	s.Cursor = coord.Pos{X: col, Y: 1}
}

// SelectOnlyRow is the row-axis mirror of SelectOnlyColumn.
func (s *Selection) SelectOnlyRow(row int64) {
	s.Ranges = []Range{RowRange(row, row)}
	s.Cursor = coord.Pos{X: 1, Y: row}
}

// SelectColumn dispatches a column-header click by modifier combination:
// ctrl&&!shift -> add/remove, shift -> extend, right_click on
// an already-selected column with no modifiers -> no-op, else select-only.
func (s *Selection) SelectColumn(col int64, ctrl, shift, rightClick bool, topHint int64) {
	switch {
	case ctrl && !shift:
		s.AddOrRemoveColumn(col, topHint)
	case shift:
		s.ExtendColumn(col)
	case rightClick && s.IsEntireColumnSelected(col):
		// no-op: right-click on an already-selected column keeps the selection
	default:
		s.SelectOnlyColumn(col)
	}
}

// SelectRow is the row-axis mirror of SelectColumn.
func (s *Selection) SelectRow(row int64, ctrl, shift, rightClick bool, leftHint int64) {
	switch {
	case ctrl && !shift:
		s.AddOrRemoveRow(row, leftHint)
	case shift:
		s.ExtendRow(row)
	case rightClick && s.IsEntireRowSelected(row):
	default:
		s.SelectOnlyRow(row)
	}
}

// MergeBounds is the subset of the merged-cell index SelectTo needs:
// given a cell, the bounding rectangle of the merge it belongs to (or
// the cell itself if unmerged).
type MergeBounds interface {
	MergeRectAt(p coord.Pos) coord.Rect
}

// SelectTo implements `select_to`: extends the active
// range to (col,row), honouring merged-cell boundaries, handling
// reversed drags, and resolving a table-ref active range to a sheet
// rectangle first.
func (s *Selection) SelectTo(col, row int64, append bool, ctx *Context, merges MergeBounds) {
	target := coord.Pos{X: col, Y: row}
	if merges != nil {
		target = merges.MergeRectAt(target).Min
	}

	last := s.Last()
	if last.IsTable {
		if rect, sheet, ok := ResolveTableRect(last, ctx); ok && sheet == s.SheetId {
			last = RectRange(coord.RefPos{Pos: rect.Min}, coord.RefPos{Pos: rect.Max})
		}
	}

	anchor := last.Start.Pos
	newRange := RectRange(coord.RefPos{Pos: anchor}, coord.RefPos{Pos: target})

	if append {
		s.Ranges = append(s.Ranges, newRange)
	} else {
		s.SetLast(newRange)
	}
	s.Cursor = anchor
}
