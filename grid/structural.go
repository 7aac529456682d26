package grid

import (
	"sheetcore/cellvalue"
	"sheetcore/coord"
	"sheetcore/datatable"
)

// InsertColumn shifts every cell, table anchor, merge, validation, and
// conditional format at or after col one column to the right, and
// shifts offset overrides to match. References inside code cells are
// NOT rewritten here; that is the refrewrite package's job, driven by
// the transaction engine after this structural mutation completes.
func (s *Sheet) InsertColumn(col int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.columns = shiftColumnsInsert(s.columns, col)
	s.tables, s.tableOrder = shiftTablesColInsert(s.tables, s.tableOrder, col)
	s.borders = shiftPosMapColInsert(s.borders, col)

	for i, m := range s.merges {
		s.merges[i] = shiftRectColInsert(m, col)
	}
	for i, v := range s.validations {
		s.validations[i].Rect = shiftRectColInsert(v.Rect, col)
	}
	for i, cf := range s.conditionalFormats {
		s.conditionalFormats[i].Rect = shiftRectColInsert(cf.Rect, col)
	}
	s.Offsets.InsertColumn(col)
	s.boundsValid = false
}

// DeleteColumn removes every cell and table anchored at col and shifts
// everything after it one column to the left.
func (s *Sheet) DeleteColumn(col int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.columns = shiftColumnsDelete(s.columns, col)
	s.tables, s.tableOrder = shiftTablesColDelete(s.tables, s.tableOrder, col)
	s.borders = shiftPosMapColDelete(s.borders, col)

	var merges []coord.Rect
	for _, m := range s.merges {
		if nr, ok := shiftRectColDelete(m, col); ok {
			merges = append(merges, nr)
		}
	}
	s.merges = merges

	var validations []Validation
	for _, v := range s.validations {
		if nr, ok := shiftRectColDelete(v.Rect, col); ok {
			v.Rect = nr
			validations = append(validations, v)
		}
	}
	s.validations = validations

	var cfs []ConditionalFormat
	for _, cf := range s.conditionalFormats {
		if nr, ok := shiftRectColDelete(cf.Rect, col); ok {
			cf.Rect = nr
			cfs = append(cfs, cf)
		}
	}
	s.conditionalFormats = cfs

	s.Offsets.DeleteColumn(col)
	s.boundsValid = false
}

// InsertRow and DeleteRow are the row-axis mirrors of the above.
func (s *Sheet) InsertRow(row int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for col, rows := range s.columns {
		s.columns[col] = shiftRowMapInsert(rows, row)
	}
	s.tables, s.tableOrder = shiftTablesRowInsert(s.tables, s.tableOrder, row)
	s.borders = shiftPosMapRowInsert(s.borders, row)

	for i, m := range s.merges {
		s.merges[i] = shiftRectRowInsert(m, row)
	}
	for i, v := range s.validations {
		s.validations[i].Rect = shiftRectRowInsert(v.Rect, row)
	}
	for i, cf := range s.conditionalFormats {
		s.conditionalFormats[i].Rect = shiftRectRowInsert(cf.Rect, row)
	}
	s.Offsets.InsertRow(row)
	s.boundsValid = false
}

func (s *Sheet) DeleteRow(row int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for col, rows := range s.columns {
		s.columns[col] = shiftRowMapDelete(rows, row)
	}
	s.tables, s.tableOrder = shiftTablesRowDelete(s.tables, s.tableOrder, row)
	s.borders = shiftPosMapRowDelete(s.borders, row)

	var merges []coord.Rect
	for _, m := range s.merges {
		if nr, ok := shiftRectRowDelete(m, row); ok {
			merges = append(merges, nr)
		}
	}
	s.merges = merges

	var validations []Validation
	for _, v := range s.validations {
		if nr, ok := shiftRectRowDelete(v.Rect, row); ok {
			v.Rect = nr
			validations = append(validations, v)
		}
	}
	s.validations = validations

	var cfs []ConditionalFormat
	for _, cf := range s.conditionalFormats {
		if nr, ok := shiftRectRowDelete(cf.Rect, row); ok {
			cf.Rect = nr
			cfs = append(cfs, cf)
		}
	}
	s.conditionalFormats = cfs

	s.Offsets.DeleteRow(row)
	s.boundsValid = false
}

// --- column-map shifting ---

func shiftColumnsInsert(m map[int64]map[int64]cellvalue.CellValue, at int64) map[int64]map[int64]cellvalue.CellValue {
	out := make(map[int64]map[int64]cellvalue.CellValue, len(m))
	for col, rows := range m {
		if col >= at {
			out[col+1] = rows
		} else {
			out[col] = rows
		}
	}
	return out
}

func shiftColumnsDelete(m map[int64]map[int64]cellvalue.CellValue, at int64) map[int64]map[int64]cellvalue.CellValue {
	out := make(map[int64]map[int64]cellvalue.CellValue, len(m))
	for col, rows := range m {
		switch {
		case col == at:
			continue
		case col > at:
			out[col-1] = rows
		default:
			out[col] = rows
		}
	}
	return out
}

func shiftRowMapInsert(rows map[int64]cellvalue.CellValue, at int64) map[int64]cellvalue.CellValue {
	out := make(map[int64]cellvalue.CellValue, len(rows))
	for row, v := range rows {
		if row >= at {
			out[row+1] = v
		} else {
			out[row] = v
		}
	}
	return out
}

func shiftRowMapDelete(rows map[int64]cellvalue.CellValue, at int64) map[int64]cellvalue.CellValue {
	out := make(map[int64]cellvalue.CellValue, len(rows))
	for row, v := range rows {
		switch {
		case row == at:
			continue
		case row > at:
			out[row-1] = v
		default:
			out[row] = v
		}
	}
	return out
}

// --- table anchor shifting ---

func shiftTablesColInsert(tables map[coord.Pos]*datatable.DataTable, order []coord.Pos, at int64) (map[coord.Pos]*datatable.DataTable, []coord.Pos) {
	out := make(map[coord.Pos]*datatable.DataTable, len(tables))
	newOrder := make([]coord.Pos, len(order))
	for i, p := range order {
		np := p
		if p.X >= at {
			np.X++
		}
		newOrder[i] = np
		out[np] = tables[p]
	}
	return out, newOrder
}

func shiftTablesColDelete(tables map[coord.Pos]*datatable.DataTable, order []coord.Pos, at int64) (map[coord.Pos]*datatable.DataTable, []coord.Pos) {
	out := make(map[coord.Pos]*datatable.DataTable, len(tables))
	var newOrder []coord.Pos
	for _, p := range order {
		if p.X == at {
			continue
		}
		np := p
		if p.X > at {
			np.X--
		}
		newOrder = append(newOrder, np)
		out[np] = tables[p]
	}
	return out, newOrder
}

func shiftTablesRowInsert(tables map[coord.Pos]*datatable.DataTable, order []coord.Pos, at int64) (map[coord.Pos]*datatable.DataTable, []coord.Pos) {
	out := make(map[coord.Pos]*datatable.DataTable, len(tables))
	newOrder := make([]coord.Pos, len(order))
	for i, p := range order {
		np := p
		if p.Y >= at {
			np.Y++
		}
		newOrder[i] = np
		out[np] = tables[p]
	}
	return out, newOrder
}

func shiftTablesRowDelete(tables map[coord.Pos]*datatable.DataTable, order []coord.Pos, at int64) (map[coord.Pos]*datatable.DataTable, []coord.Pos) {
	out := make(map[coord.Pos]*datatable.DataTable, len(tables))
	var newOrder []coord.Pos
	for _, p := range order {
		if p.Y == at {
			continue
		}
		np := p
		if p.Y > at {
			np.Y--
		}
		newOrder = append(newOrder, np)
		out[np] = tables[p]
	}
	return out, newOrder
}

// --- per-cell overlay (borders) shifting ---

func shiftPosMapColInsert(m map[coord.Pos]map[string]string, at int64) map[coord.Pos]map[string]string {
	out := make(map[coord.Pos]map[string]string, len(m))
	for p, v := range m {
		if p.X >= at {
			p.X++
		}
		out[p] = v
	}
	return out
}

func shiftPosMapColDelete(m map[coord.Pos]map[string]string, at int64) map[coord.Pos]map[string]string {
	out := make(map[coord.Pos]map[string]string, len(m))
	for p, v := range m {
		if p.X == at {
			continue
		}
		if p.X > at {
			p.X--
		}
		out[p] = v
	}
	return out
}

func shiftPosMapRowInsert(m map[coord.Pos]map[string]string, at int64) map[coord.Pos]map[string]string {
	out := make(map[coord.Pos]map[string]string, len(m))
	for p, v := range m {
		if p.Y >= at {
			p.Y++
		}
		out[p] = v
	}
	return out
}

func shiftPosMapRowDelete(m map[coord.Pos]map[string]string, at int64) map[coord.Pos]map[string]string {
	out := make(map[coord.Pos]map[string]string, len(m))
	for p, v := range m {
		if p.Y == at {
			continue
		}
		if p.Y > at {
			p.Y--
		}
		out[p] = v
	}
	return out
}

// --- rectangle shifting ---

func shiftRectColInsert(r coord.Rect, at int64) coord.Rect {
	if r.Min.X >= at {
		r.Min.X++
	}
	if !r.Max.IsUnboundedCol() && r.Max.X >= at {
		r.Max.X++
	}
	return r
}

func shiftRectColDelete(r coord.Rect, at int64) (coord.Rect, bool) {
	if r.Min.X == at && r.Max.X == at {
		return r, false
	}
	if r.Min.X > at {
		r.Min.X--
	}
	if !r.Max.IsUnboundedCol() && r.Max.X > at {
		r.Max.X--
	}
	return r, true
}

func shiftRectRowInsert(r coord.Rect, at int64) coord.Rect {
	if r.Min.Y >= at {
		r.Min.Y++
	}
	if !r.Max.IsUnboundedRow() && r.Max.Y >= at {
		r.Max.Y++
	}
	return r
}

func shiftRectRowDelete(r coord.Rect, at int64) (coord.Rect, bool) {
	if r.Min.Y == at && r.Max.Y == at {
		return r, false
	}
	if r.Min.Y > at {
		r.Min.Y--
	}
	if !r.Max.IsUnboundedRow() && r.Max.Y > at {
		r.Max.Y--
	}
	return r, true
}
