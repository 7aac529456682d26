// Package datatable implements the output object produced by running a
// code cell: either a single scalar value or a 2-D array, plus the
// presentation metadata the engine preserves across re-runs.
package datatable

import (
	"fmt"

	"sheetcore/cellvalue"
	"sheetcore/coord"
)

// Kind discriminates how a DataTable's value was produced.
type Kind int

const (
	CodeRun Kind = iota
	Import
)

// CodeRunInfo holds the source-execution metadata for Kind == CodeRun.
type CodeRunInfo struct {
	Language     string
	Source       string
	Error        *cellvalue.RunError
	CellsAccessed map[coord.Pos]struct{}
	StdOut       string
	StdErr       string
	LineNumber   int
	ReturnType   string
}

// ImportInfo holds the source descriptor for Kind == Import.
type ImportInfo struct {
	SourceKind string // "sql", "csv", ...
	Descriptor string // e.g. the SQL query text or file path
}

// ValueKind discriminates DataTable.Value.
type ValueKind int

const (
	Single ValueKind = iota
	Array
	Tuple
	Lambda
)

// Value is the Single/Array/Tuple/Lambda union held by a DataTable.
type Value struct {
	Kind   ValueKind
	Scalar cellvalue.CellValue
	// Cells is row-major: Cells[row][col].
	Cells [][]cellvalue.CellValue
	Tuple []cellvalue.CellValue
}

// Width/Height report the 2-D shape of v, treating Single as 1x1.
func (v Value) Width() int64 {
	switch v.Kind {
	case Single:
		return 1
	case Array:
		if len(v.Cells) == 0 {
			return 0
		}
		return int64(len(v.Cells[0]))
	default:
		return int64(len(v.Tuple))
	}
}

func (v Value) Height() int64 {
	switch v.Kind {
	case Single:
		return 1
	case Array:
		return int64(len(v.Cells))
	default:
		return 1
	}
}

// ColumnHeader describes one column of a table's header row.
type ColumnHeader struct {
	Name    string
	Display bool
	Type    string
}

// SortDirection is the ordering applied by SortColumn.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// SortSpec records a column's sort and the resulting display→source
// row permutation, so the table keeps its original source order intact.
type SortSpec struct {
	Column    int
	Direction SortDirection
	// Permutation[displayRow] = sourceRow.
	Permutation []int
}

// ChartOutput overrides a table's footprint when Value is Image or Html.
type ChartOutput struct {
	CellsWide int64
	CellsTall int64
}

// DataTable is the result object produced by executing a code cell.
type DataTable struct {
	Kind Kind
	Run  *CodeRunInfo
	Imp  *ImportInfo

	Name  string
	Value Value

	HeaderIsFirstRow bool
	ShowName         bool
	ShowColumns      bool
	ColumnHeaders    []ColumnHeader

	Formats *FormatOverlay
	Borders *BorderOverlay

	Sort *SortSpec

	ChartOutput        *ChartOutput
	AlternatingColors  bool

	HiddenColumns map[int]struct{}
}

// FormatOverlay and BorderOverlay layer table-scoped overrides above
// sheet formats. Kept as opaque maps here; grid owns the concrete
// format/border value types.
type FormatOverlay struct {
	ByCell map[coord.Pos]map[string]string
}

type BorderOverlay struct {
	ByCell map[coord.Pos]map[string]string
}

// New constructs a DataTable. Disambiguating which of run/imp is set is
// the caller's responsibility via kind.
func New(kind Kind, name string, value Value, headerIsFirstRow, showName, showColumns bool, chart *ChartOutput) *DataTable {
	return &DataTable{
		Kind:             kind,
		Name:             name,
		Value:            value,
		HeaderIsFirstRow: headerIsFirstRow,
		ShowName:         showName,
		ShowColumns:      showColumns,
		ChartOutput:      chart,
		HiddenColumns:    map[int]struct{}{},
	}
}

// QualifiesAsSingleCodeCell reports whether dt should be stored as a
// plain CellValue::Code instead of occupying a table anchor: 1x1, no headers, no table-level formats, no
// chart, and default show flags.
func (dt *DataTable) QualifiesAsSingleCodeCell() bool {
	if dt.Value.Kind != Single {
		return false
	}
	if dt.HeaderIsFirstRow || len(dt.ColumnHeaders) > 0 {
		return false
	}
	if dt.Formats != nil && len(dt.Formats.ByCell) > 0 {
		return false
	}
	if dt.Borders != nil && len(dt.Borders.ByCell) > 0 {
		return false
	}
	if dt.ChartOutput != nil {
		return false
	}
	if dt.ShowName || dt.ShowColumns {
		return false
	}
	return true
}

// OutputSize returns (width, height) in cells, accounting for the
// show-name row, show-columns row, header-is-first-row row, a chart
// override, and hidden columns.
func (dt *DataTable) OutputSize() (int64, int64) {
	if dt.ChartOutput != nil {
		return dt.ChartOutput.CellsWide, dt.ChartOutput.CellsTall
	}
	w, h := dt.Value.Width(), dt.Value.Height()
	w -= int64(len(dt.HiddenColumns))
	if w < 0 {
		w = 0
	}
	if dt.ShowName {
		h++
	}
	if dt.ShowColumns {
		h++
	}
	if dt.HeaderIsFirstRow {
		h--
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// OutputRect returns the sheet rectangle dt occupies when anchored at
// anchor. OutputSize already counts the show-name/show-columns rows
// and never reports a height below 1, so includeUI does not change the
// result.
func (dt *DataTable) OutputRect(anchor coord.Pos, includeUI bool) coord.Rect {
	w, h := dt.OutputSize()
	if includeUI && h < 1 {
		h = 1
	}
	if w < 1 {
		w = 1
	}
	return coord.Rect{
		Min: anchor,
		Max: coord.Pos{X: anchor.X + w - 1, Y: anchor.Y + h - 1},
	}
}

// headerRowCount returns how many leading rows of Value are consumed
// by show_name/show_columns presentation rather than data.
func (dt *DataTable) headerRowCount() int64 {
	var n int64
	if dt.ShowName {
		n++
	}
	if dt.ShowColumns {
		n++
	}
	return n
}

// GetFormat resolves the format at a position relative to the table's
// data origin (post show_name/show_columns rows).
func (dt *DataTable) GetFormat(relative coord.Pos) map[string]string {
	if dt.Formats == nil {
		return nil
	}
	return dt.Formats.ByCell[relative]
}

// SortColumn sorts dt's array value by column idx, recording the
// display→source permutation so re-sorting or re-running can recover
// the untouched source order.
func (dt *DataTable) SortColumn(idx int, dir SortDirection) error {
	if dt.Value.Kind != Array {
		return fmt.Errorf("datatable: SortColumn requires an Array value")
	}
	rows := dt.Value.Cells
	startRow := 0
	if dt.HeaderIsFirstRow {
		startRow = 1
	}
	n := len(rows) - startRow
	perm := make([]int, n)
	for i := range perm {
		perm[i] = startRow + i
	}
	less := func(a, b int) bool {
		if idx < 0 || idx >= len(rows[a]) || idx >= len(rows[b]) {
			return false
		}
		cmp := compareCellValues(rows[a][idx], rows[b][idx])
		if dir == Descending {
			return cmp > 0
		}
		return cmp < 0
	}
	insertionSort(perm, func(i, j int) bool { return less(perm[i], perm[j]) })

	sorted := make([][]cellvalue.CellValue, 0, len(rows))
	if startRow == 1 {
		sorted = append(sorted, rows[0])
	}
	for _, srcRow := range perm {
		sorted = append(sorted, rows[srcRow])
	}
	dt.Value.Cells = sorted
	dt.Sort = &SortSpec{Column: idx, Direction: dir, Permutation: perm}
	return nil
}

func insertionSort(perm []int, less func(i, j int) bool) {
	for i := 1; i < len(perm); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			perm[j], perm[j-1] = perm[j-1], perm[j]
		}
	}
}

func compareCellValues(a, b cellvalue.CellValue) int {
	as, bs := a.DisplayString(), b.DisplayString()
	if a.Kind == cellvalue.Number && b.Kind == cellvalue.Number {
		return a.Number.Cmp(b.Number)
	}
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

// ApplyFirstRowAsHeader promotes the first data row to column headers
// and marks HeaderIsFirstRow.
func (dt *DataTable) ApplyFirstRowAsHeader() error {
	if dt.Value.Kind != Array || len(dt.Value.Cells) == 0 {
		return fmt.Errorf("datatable: ApplyFirstRowAsHeader requires a non-empty Array value")
	}
	headerRow := dt.Value.Cells[0]
	headers := make([]ColumnHeader, len(headerRow))
	for i, c := range headerRow {
		headers[i] = ColumnHeader{Name: c.DisplayString(), Display: true, Type: "text"}
	}
	dt.ColumnHeaders = headers
	dt.HeaderIsFirstRow = true
	return nil
}

// ValueAt returns the data value at relative position (col,row),
// 0-indexed against the table's data origin (post show_name/
// show_columns/header-row stripping, same convention as GetFormat).
// ok is false when relative falls outside the data region.
func (dt *DataTable) ValueAt(relative coord.Pos) (cellvalue.CellValue, bool) {
	if dt.Value.Kind != Array {
		if relative.X != 0 || relative.Y != 0 {
			return cellvalue.CellValue{}, false
		}
		return dt.Value.Scalar, true
	}
	row, col := int(relative.Y), int(relative.X)
	if row < 0 || row >= len(dt.Value.Cells) || col < 0 || col >= len(dt.Value.Cells[row]) {
		return cellvalue.CellValue{}, false
	}
	return dt.Value.Cells[row][col], true
}

// ModifyAt applies f to the cell at relative position (col,row), 0-indexed
// against the table's data origin.
func (dt *DataTable) ModifyAt(relative coord.Pos, f func(cellvalue.CellValue) cellvalue.CellValue) error {
	if dt.Value.Kind != Array {
		if relative.X != 0 || relative.Y != 0 {
			return fmt.Errorf("datatable: position out of range for Single value")
		}
		dt.Value.Scalar = f(dt.Value.Scalar)
		return nil
	}
	row, col := int(relative.Y), int(relative.X)
	if row < 0 || row >= len(dt.Value.Cells) || col < 0 || col >= len(dt.Value.Cells[row]) {
		return fmt.Errorf("datatable: position (%d,%d) out of range", relative.X, relative.Y)
	}
	dt.Value.Cells[row][col] = f(dt.Value.Cells[row][col])
	return nil
}

// PreservePresentation copies forward presentation fields from old onto
// next after a re-run: name, show flags, and alternating_colors always
// carry over; formats/borders/sort only when the output width is
// unchanged. Charts keep their ChartOutput if non-zero. Non-dataframe
// kinds (Image/Html) do not inherit HeaderIsFirstRow.
func PreservePresentation(old, next *DataTable) {
	if old == nil || next == nil {
		return
	}
	next.Name = old.Name
	next.ShowName = old.ShowName
	next.ShowColumns = old.ShowColumns
	next.AlternatingColors = old.AlternatingColors

	oldW, _ := old.OutputSize()
	newW, _ := next.OutputSize()
	if oldW == newW {
		next.Formats = old.Formats
		next.Borders = old.Borders
		next.Sort = old.Sort
	}
	if old.ChartOutput != nil && (old.ChartOutput.CellsWide != 0 || old.ChartOutput.CellsTall != 0) {
		next.ChartOutput = old.ChartOutput
	}
	if next.Value.Kind != Array {
		next.HeaderIsFirstRow = false
	}
}
