// Package grid owns the Sheet/Grid containers: sparse cell storage,
// data-table anchors, bounds tracking, merged cells, validations, and
// conditional formats. Cells are stored in a sparse column->row map
// rather than a dense 2-D array, since most sheets are mostly empty.
package grid

import (
	"fmt"
	"sort"
	"sync"

	"sheetcore/cellvalue"
	"sheetcore/coord"
	"sheetcore/datatable"
)

// FormatRun is one contiguous run of identical formats along the
// opposite axis of a 2-D run-length structure.
type FormatRun struct {
	Start, End int64 // inclusive, along the run axis
	Values     map[string]string
}

// Validation is a per-rectangle data-validation rule (kept generic;
// the rule grammar itself lives outside this package).
type Validation struct {
	ID   string
	Rect coord.Rect
	Rule string
}

// ConditionalFormat is a per-rectangle conditional formatting rule.
type ConditionalFormat struct {
	ID      string
	Rect    coord.Rect
	Rule    string
	Formats map[string]string
}

// Sheet is a named container of cell values, data tables, formats,
// borders, validations, conditional formats, merges, and cached
// bounds.
type Sheet struct {
	mu sync.RWMutex

	Id       coord.SheetId
	Name     string
	Order    string
	TabColor string

	Offsets *coord.SheetOffsets

	// columns is the sparse col -> (sparse row -> CellValue) map.
	columns map[int64]map[int64]cellvalue.CellValue

	// tables is the ordered-by-insertion anchor -> DataTable map.
	tables      map[coord.Pos]*datatable.DataTable
	tableOrder  []coord.Pos

	// formats is keyed by a coarse category ("bold", "fill", ...) to a
	// set of row-major runs; kept intentionally simple relative to a
	// full cell-format grammar, which lives outside this package.
	formats map[string][]FormatRun

	borders map[coord.Pos]map[string]string

	validations        []Validation
	conditionalFormats []ConditionalFormat
	merges             []coord.Rect

	dataBounds   coord.Rect
	formatBounds coord.Rect
	boundsValid  bool
}

// NewSheet constructs an empty sheet.
func NewSheet(id coord.SheetId, name string) *Sheet {
	return &Sheet{
		Id:      id,
		Name:    name,
		Offsets: coord.NewSheetOffsets(),
		columns: make(map[int64]map[int64]cellvalue.CellValue),
		tables:  make(map[coord.Pos]*datatable.DataTable),
		formats: make(map[string][]FormatRun),
		borders: make(map[coord.Pos]map[string]string),
	}
}

// GetCellValue returns the value directly anchored at pos from plain
// cell storage, or the zero (Blank) value; it never returns a
// DataTable's output, so a pos covered by a table's output rectangle
// reads Blank here unless a plain value is stored there. Most callers that walk rendered or evaluated cell content want
// EffectiveCellValue instead.
func (s *Sheet) GetCellValue(pos coord.Pos) cellvalue.CellValue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.columns[pos.X]
	if !ok {
		return cellvalue.CellValue{}
	}
	return col[pos.Y]
}

// SetCellValue stores v at pos. Invariant 2: a CellValue::Code
// and a DataTable never coexist at the same anchor, so setting a plain
// value at an anchor that currently owns a table first clears the table.
func (s *Sheet) SetCellValue(pos coord.Pos, v cellvalue.CellValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, hasTable := s.tables[pos]; hasTable {
		s.removeTableLocked(pos)
	}
	if v.IsBlank() {
		if col, ok := s.columns[pos.X]; ok {
			delete(col, pos.Y)
			if len(col) == 0 {
				delete(s.columns, pos.X)
			}
		}
		s.boundsValid = false
		return
	}
	col, ok := s.columns[pos.X]
	if !ok {
		col = make(map[int64]cellvalue.CellValue)
		s.columns[pos.X] = col
	}
	col[pos.Y] = v
	s.boundsValid = false
}

// EffectiveCellValue returns the value visible at pos: a plain stored
// value if one is anchored directly there, otherwise the value a
// DataTable produces for pos if pos falls inside some table's output
// rectangle, otherwise Blank. SetDataTable clears only the anchor's
// plain value, so a plain value stored elsewhere inside a table's
// output rectangle is returned in preference to the table's value.
func (s *Sheet) EffectiveCellValue(pos coord.Pos) cellvalue.CellValue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if col, ok := s.columns[pos.X]; ok {
		if v, ok := col[pos.Y]; ok {
			return v
		}
	}
	for anchor, dt := range s.tables {
		if !dt.OutputRect(anchor, true).Contains(pos) {
			continue
		}
		relative, ok := dataTableRelativePos(anchor, dt, pos)
		if !ok {
			return cellvalue.CellValue{}
		}
		v, _ := dt.ValueAt(relative)
		return v
	}
	return cellvalue.CellValue{}
}

// dataTableRelativePos converts an absolute sheet position inside dt's
// output rectangle (anchored at anchor) into the (col,row) index
// ValueAt expects, stripping the show_name/show_columns presentation
// rows, accounting for a first-row header, and shifting past hidden
// columns. ok is false when pos lands on a presentation row rather
// than a data row.
func dataTableRelativePos(anchor coord.Pos, dt *datatable.DataTable, pos coord.Pos) (coord.Pos, bool) {
	presentationRows := int64(0)
	if dt.ShowName {
		presentationRows++
	}
	if dt.ShowColumns {
		presentationRows++
	}
	row := pos.Y - anchor.Y - presentationRows
	if row < 0 {
		return coord.Pos{}, false
	}
	if dt.HeaderIsFirstRow {
		row++
	}

	col := pos.X - anchor.X
	if col < 0 {
		return coord.Pos{}, false
	}
	if len(dt.HiddenColumns) > 0 {
		hidden := make([]int, 0, len(dt.HiddenColumns))
		for h := range dt.HiddenColumns {
			hidden = append(hidden, h)
		}
		sort.Ints(hidden)
		for _, h := range hidden {
			if int64(h) <= col {
				col++
			}
		}
	}
	return coord.Pos{X: col, Y: row}, true
}

// GetDataTable returns the table anchored at pos, if any.
func (s *Sheet) GetDataTable(pos coord.Pos) (*datatable.DataTable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dt, ok := s.tables[pos]
	return dt, ok
}

// SetDataTable anchors dt at pos, uniquifying its name against existing
// tables in this sheet. Clears any plain cell value that previously
// occupied the anchor, since a table anchor and a plain value never
// coexist at the same position.
func (s *Sheet) SetDataTable(pos coord.Pos, dt *datatable.DataTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.columns[pos.X]; ok {
		delete(col, pos.Y)
		if len(col) == 0 {
			delete(s.columns, pos.X)
		}
	}
	dt.Name = s.uniquifyNameLocked(dt.Name, pos)
	if _, existed := s.tables[pos]; !existed {
		s.tableOrder = append(s.tableOrder, pos)
	}
	s.tables[pos] = dt
	s.boundsValid = false
}

// RemoveDataTable deletes the table anchored at pos, if any.
func (s *Sheet) RemoveDataTable(pos coord.Pos) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeTableLocked(pos)
}

func (s *Sheet) removeTableLocked(pos coord.Pos) {
	if _, ok := s.tables[pos]; !ok {
		return
	}
	delete(s.tables, pos)
	for i, p := range s.tableOrder {
		if p == pos {
			s.tableOrder = append(s.tableOrder[:i], s.tableOrder[i+1:]...)
			break
		}
	}
	s.boundsValid = false
}

func (s *Sheet) uniquifyNameLocked(name string, skip coord.Pos) string {
	if name == "" {
		name = "Table1"
	}
	taken := make(map[string]struct{}, len(s.tables))
	for p, dt := range s.tables {
		if p == skip {
			continue
		}
		taken[dt.Name] = struct{}{}
	}
	if _, clash := taken[name]; !clash {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s%d", name, i)
		if _, clash := taken[candidate]; !clash {
			return candidate
		}
	}
}

// DataTablesInOrder returns (anchor, table) pairs in insertion order.
func (s *Sheet) DataTablesInOrder() []struct {
	Anchor coord.Pos
	Table  *datatable.DataTable
} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]struct {
		Anchor coord.Pos
		Table  *datatable.DataTable
	}, 0, len(s.tableOrder))
	for _, p := range s.tableOrder {
		out = append(out, struct {
			Anchor coord.Pos
			Table  *datatable.DataTable
		}{p, s.tables[p]})
	}
	return out
}

// CodeCellPositions returns the positions of every single-cell Code
// value currently anchored directly in the cell grid (as opposed to
// inside a multi-cell DataTable's Run), for the transaction engine's
// reference-rewrite sweep after a structural edit.
func (s *Sheet) CodeCellPositions() []coord.Pos {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []coord.Pos
	for x, col := range s.columns {
		for y, v := range col {
			if v.Kind == cellvalue.Code {
				out = append(out, coord.Pos{X: x, Y: y})
			}
		}
	}
	return out
}

// AddMerge registers rect as a merged-cell rectangle.
func (s *Sheet) AddMerge(rect coord.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merges = append(s.merges, rect)
}

// MergeContaining returns the merge rectangle covering pos, if any.
func (s *Sheet) MergeContaining(pos coord.Pos) (coord.Rect, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.merges {
		if m.Contains(pos) {
			return m, true
		}
	}
	return coord.Rect{}, false
}

// AddValidation registers a validation rule.
func (s *Sheet) AddValidation(v Validation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validations = append(s.validations, v)
}

// AddConditionalFormat registers a conditional format rule.
func (s *Sheet) AddConditionalFormat(cf ConditionalFormat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conditionalFormats = append(s.conditionalFormats, cf)
}

// nonEmptyPositions returns every column-stored cell position, sorted
// for deterministic bounds computation.
func (s *Sheet) nonEmptyPositions() []coord.Pos {
	var out []coord.Pos
	for col, rows := range s.columns {
		for row := range rows {
			out = append(out, coord.Pos{X: col, Y: row})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}
