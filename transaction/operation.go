// Package transaction implements the engine that applies user actions
// to a grid.Grid as an ordered sequence of operations, building an undo
// record as it goes, and recomputing dependent code cells via a
// dependency graph and a visited-set propagation walk.
package transaction

import (
	"sheetcore/cellvalue"
	"sheetcore/coord"
	"sheetcore/datatable"
)

// OpKind discriminates the Operation tagged union.
type OpKind int

const (
	OpSetCellValues OpKind = iota
	OpSetDataTable
	OpComputeCode
	OpDeleteColumn
	OpDeleteRow
	OpInsertColumn
	OpInsertRow
	OpMoveColumns
	OpMoveRows
	OpUpdateValidation
	OpSetBorders
	OpSetFormats
	OpPasteClipboard
)

// Operation is one step of a transaction's forward or reverse log.
// Only the fields relevant to Kind are populated; this mirrors
// CellValue's "tagged struct, switch on Kind" discipline rather than
// an interface hierarchy.
type Operation struct {
	Kind OpKind

	Sheet coord.SheetId

	// SetCellValues / ComputeCode
	Pos    coord.Pos
	Value  cellvalue.CellValue
	Source string // formula/code source, for ComputeCode
	Lang   string

	// SetDataTable
	Table *datatable.DataTable

	// Structural (Insert/Delete Column/Row, MoveColumns/Rows)
	Position int64
	Count    int64
	DestPos  int64

	// UpdateValidation / SetBorders / SetFormats / PasteClipboard
	Rect     coord.Rect
	FormatID string
	FormatOp map[string]string
	Payload  string // clipboard payload (HTML or TSV)
}
