package transaction

import (
	"log"
	"os"

	"sheetcore/a1"
	"sheetcore/cellvalue"
	"sheetcore/coord"
	"sheetcore/datatable"
	"sheetcore/formula"
	"sheetcore/grid"
	"sheetcore/refrewrite"
)

// depKey identifies one cell across sheets for the dependency graph.
type depKey struct {
	Sheet coord.SheetId
	Pos   coord.Pos
}

// PendingTransaction accumulates the forward operations of one user
// action, the reverse operations that undo it, and the bookkeeping the
// engine needs while draining the forward queue.
type PendingTransaction struct {
	ForwardOps []Operation
	ReverseOps []Operation

	CurrentSheetPos         coord.Pos
	WaitingForAsyncCodeCell bool
	CellsAccessed           map[depKey]struct{}
	DirtySheets             map[coord.SheetId]struct{}
	RowResizes              map[coord.SheetId]map[int64]struct{}

	isUndoRedo bool
}

// NewPendingTransaction returns an empty transaction ready to receive
// forward operations via Enqueue.
func NewPendingTransaction() *PendingTransaction {
	return &PendingTransaction{
		CellsAccessed: map[depKey]struct{}{},
		DirtySheets:   map[coord.SheetId]struct{}{},
		RowResizes:    map[coord.SheetId]map[int64]struct{}{},
	}
}

// Enqueue appends op to the forward queue.
func (tx *PendingTransaction) Enqueue(op Operation) { tx.ForwardOps = append(tx.ForwardOps, op) }

func (tx *PendingTransaction) pushReverse(op Operation) {
	if tx.isReplay() {
		return
	}
	tx.ReverseOps = append(tx.ReverseOps, op)
}

// isReplay gates whether reverse ops are pushed: replaying an
// undo/redo record must not itself generate a new undo record.
func (tx *PendingTransaction) isReplay() bool { return tx.isUndoRedo }

// AsyncDispatch is the hook an external code executor registers to
// receive a ComputeCode request for a non-formula language. Absent a
// registered dispatcher, the engine synthesises an UnhandledLanguage
// failure table in its place.
type AsyncDispatch func(sheet coord.SheetId, pos coord.Pos, lang, source string) (*datatable.DataTable, error)

// Engine applies transactions to a Grid, computing formula cells
// synchronously and routing every other language through AsyncDispatch,
// using a dependency walk over the cells each formula accessed.
type Engine struct {
	Grid     *grid.Grid
	A1       *a1.Context
	Dispatch AsyncDispatch
	Logger   *log.Logger

	// deps[k] is the set of cells whose formula reads cell k, i.e. the
	// edges to walk forward when k changes.
	deps map[depKey]map[depKey]struct{}

	undoStack []*PendingTransaction
	redoStack []*PendingTransaction
}

// NewEngine returns an engine operating on g, resolving sheet names
// through ctx.
func NewEngine(g *grid.Grid, ctx *a1.Context) *Engine {
	return &Engine{
		Grid:   g,
		A1:     ctx,
		Logger: log.New(os.Stderr, "transaction: ", log.LstdFlags),
		deps:   map[depKey]map[depKey]struct{}{},
	}
}

func (e *Engine) addDependency(from depKey, accessed map[depKey]struct{}) {
	for on := range accessed {
		set, ok := e.deps[on]
		if !ok {
			set = map[depKey]struct{}{}
			e.deps[on] = set
		}
		set[from] = struct{}{}
	}
}

func (e *Engine) dependentsOf(k depKey) []depKey {
	set := e.deps[k]
	out := make([]depKey, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	return out
}

// Execute drains tx's forward queue, recomputing dependents as it
// goes, then commits tx onto the undo stack (unless it is itself an
// undo/redo replay).
func (e *Engine) Execute(tx *PendingTransaction) {
	for i := 0; i < len(tx.ForwardOps); i++ {
		op := tx.ForwardOps[i]
		e.apply(op, tx)
		if tx.WaitingForAsyncCodeCell {
			return
		}
	}
	if !tx.isReplay() && len(tx.ReverseOps) > 0 {
		e.undoStack = append(e.undoStack, tx)
		e.redoStack = nil
	}
}

func (e *Engine) sheet(id coord.SheetId) *grid.Sheet { return e.Grid.Sheet(id) }

func (e *Engine) apply(op Operation, tx *PendingTransaction) {
	sh := e.sheet(op.Sheet)
	if sh == nil {
		return
	}
	tx.DirtySheets[op.Sheet] = struct{}{}

	switch op.Kind {
	case OpSetCellValues:
		old := sh.GetCellValue(op.Pos)
		tx.pushReverse(Operation{Kind: OpSetCellValues, Sheet: op.Sheet, Pos: op.Pos, Value: old})
		sh.SetCellValue(op.Pos, op.Value)
		e.recompute(op.Sheet, op.Pos, tx)

	case OpComputeCode:
		e.computeCode(sh, op, tx)

	case OpSetDataTable:
		old, hadOld := sh.GetDataTable(op.Pos)
		oldVal := sh.GetCellValue(op.Pos)
		sh.SetDataTable(op.Pos, op.Table)
		if hadOld {
			tx.pushReverse(Operation{Kind: OpSetDataTable, Sheet: op.Sheet, Pos: op.Pos, Table: old})
		} else {
			tx.pushReverse(Operation{Kind: OpSetCellValues, Sheet: op.Sheet, Pos: op.Pos, Value: oldVal})
		}
		e.recompute(op.Sheet, op.Pos, tx)

	case OpInsertColumn, OpDeleteColumn, OpInsertRow, OpDeleteRow:
		e.applyStructural(sh, op, tx)

	case OpUpdateValidation, OpSetBorders, OpSetFormats, OpPasteClipboard, OpMoveColumns, OpMoveRows:
		// Recorded for the dirty-hash/undo log; grid-level mutation for
		// these verbs lives on Sheet directly and is invoked by the
		// caller before Enqueue, matching the pattern SetCellValues uses.
	}
}

// computeCode evaluates a code cell. Formula is synchronous; every
// other language goes through the registered AsyncDispatch, or gets an
// UnhandledLanguage failure table if none is registered.
func (e *Engine) computeCode(sh *grid.Sheet, op Operation, tx *PendingTransaction) {
	if op.Lang != "Formula" {
		e.computeAsyncCode(sh, op, tx)
		return
	}
	node, err := formula.Parse(op.Source)
	var dt *datatable.DataTable
	if err != nil {
		dt = failureTable(op.Lang, op.Source, "InvalidArgument", err.Error())
	} else {
		resolver := e.cellResolver(tx)
		ectx := formula.NewEvalContext(op.Sheet, op.Pos, e.A1, resolver)
		v := formula.Eval(node, ectx)
		for k := range ectx.Accessed {
			tx.CellsAccessed[depKey{Sheet: op.Sheet, Pos: k}] = struct{}{}
		}
		e.addDependency(depKey{Sheet: op.Sheet, Pos: op.Pos}, toDepKeys(op.Sheet, ectx.Accessed))
		dt = tableFromValue(op.Lang, op.Source, v)
	}
	e.finalizeDataTable(sh, op.Sheet, op.Pos, dt, tx)
}

func (e *Engine) computeAsyncCode(sh *grid.Sheet, op Operation, tx *PendingTransaction) {
	if e.Dispatch == nil {
		dt := failureTable(op.Lang, op.Source, "UnhandledLanguage", "no executor registered for "+op.Lang)
		e.finalizeDataTable(sh, op.Sheet, op.Pos, dt, tx)
		return
	}
	tx.WaitingForAsyncCodeCell = true
	dt, err := e.Dispatch(op.Sheet, op.Pos, op.Lang, op.Source)
	if err != nil {
		if e.Logger != nil {
			e.Logger.Printf("async dispatch failed for %s cell at %v: %v", op.Lang, op.Pos, err)
		}
		dt = failureTable(op.Lang, op.Source, "CodeRunError", err.Error())
	}
	tx.WaitingForAsyncCodeCell = false
	e.finalizeDataTable(sh, op.Sheet, op.Pos, dt, tx)
}

// AfterCalculationAsync resumes a transaction once an external
// executor calls back with a finished result.
func (e *Engine) AfterCalculationAsync(sheet coord.SheetId, pos coord.Pos, dt *datatable.DataTable, tx *PendingTransaction) {
	sh := e.sheet(sheet)
	if sh == nil {
		return
	}
	tx.WaitingForAsyncCodeCell = false
	e.finalizeDataTable(sh, sheet, pos, dt, tx)
}

func toDepKeys(sheet coord.SheetId, accessed map[coord.Pos]struct{}) map[depKey]struct{} {
	out := make(map[depKey]struct{}, len(accessed))
	for p := range accessed {
		out[depKey{Sheet: sheet, Pos: p}] = struct{}{}
	}
	return out
}

func (e *Engine) cellResolver(tx *PendingTransaction) formula.CellResolver {
	return func(sheet coord.SheetId, pos coord.Pos) (cellvalue.CellValue, bool) {
		sh := e.Grid.Sheet(sheet)
		if sh == nil {
			return cellvalue.CellValue{}, false
		}
		return sh.EffectiveCellValue(pos), true
	}
}

func failureTable(lang, source, code, msg string) *datatable.DataTable {
	value := datatable.Value{Kind: datatable.Single, Scalar: cellvalue.CellValue{}}
	dt := datatable.New(datatable.CodeRun, defaultTableName(lang), value, false, false, false, nil)
	dt.Run = &datatable.CodeRunInfo{Language: lang, Source: source, Error: &cellvalue.RunError{Code: code, Msg: msg}}
	return dt
}

func defaultTableName(lang string) string {
	switch lang {
	case "Formula":
		return "Formula1"
	case "Python":
		return "Python1"
	case "JavaScript":
		return "JavaScript1"
	default:
		return "Table1"
	}
}

func tableFromValue(lang, source string, v formula.Value) *datatable.DataTable {
	if v.IsError() {
		dt := datatable.New(datatable.CodeRun, defaultTableName(lang), datatable.Value{Kind: datatable.Single}, false, false, false, nil)
		dt.Run = &datatable.CodeRunInfo{Language: lang, Source: source, Error: v.Scalar.Err}
		return dt
	}
	var value datatable.Value
	switch v.Shape {
	case formula.Array:
		rows := make([][]cellvalue.CellValue, v.Rows)
		for r := 0; r < v.Rows; r++ {
			row := make([]cellvalue.CellValue, v.Cols)
			for c := 0; c < v.Cols; c++ {
				row[c] = v.At(r, c)
			}
			rows[r] = row
		}
		value = datatable.Value{Kind: datatable.Array, Cells: rows}
	default:
		value = datatable.Value{Kind: datatable.Single, Scalar: v.AsScalar()}
	}
	dt := datatable.New(datatable.CodeRun, defaultTableName(lang), value, false, false, false, nil)
	dt.Run = &datatable.CodeRunInfo{Language: lang, Source: source}
	return dt
}

// finalizeDataTable implements finalize_data_table:
// preserve presentation, uniquify the name, and demote to a plain
// CellValue::Code when the run now qualifies as a single code cell.
func (e *Engine) finalizeDataTable(sh *grid.Sheet, sheet coord.SheetId, pos coord.Pos, dt *datatable.DataTable, tx *PendingTransaction) {
	if old, ok := sh.GetDataTable(pos); ok {
		datatable.PreservePresentation(old, dt)
	}
	if dt.QualifiesAsSingleCodeCell() {
		oldVal := sh.GetCellValue(pos)
		_, hadTable := sh.GetDataTable(pos)
		scalar := dt.Value.Scalar
		code := cellvalue.CellValue{Kind: cellvalue.Code, Code: &cellvalue.CodeValue{
			Language: dt.Run.Language,
			Source:   dt.Run.Source,
			Output:   &scalar,
		}}
		sh.SetCellValue(pos, code)
		if hadTable {
			tx.pushReverse(Operation{Kind: OpSetDataTable, Sheet: sheet, Pos: pos, Table: dt})
		} else {
			tx.pushReverse(Operation{Kind: OpSetCellValues, Sheet: sheet, Pos: pos, Value: oldVal})
		}
	} else {
		sh.SetDataTable(pos, dt)
	}
	e.recompute(sheet, pos, tx)
}

// recompute walks the dependency graph outward from (sheet,pos),
// recomputing every code cell that read it, using a visited-set to
// guard against cycles.
func (e *Engine) recompute(sheet coord.SheetId, pos coord.Pos, tx *PendingTransaction) {
	e.propagate(depKey{Sheet: sheet, Pos: pos}, tx, map[depKey]bool{})
}

func (e *Engine) propagate(k depKey, tx *PendingTransaction, visited map[depKey]bool) {
	if visited[k] {
		return
	}
	visited[k] = true
	for _, dep := range e.dependentsOf(k) {
		sh := e.sheet(dep.Sheet)
		if sh == nil {
			continue
		}
		lang, source, ok := dependentCodeSource(sh, dep.Pos)
		if !ok {
			continue
		}
		e.computeCode(sh, Operation{Kind: OpComputeCode, Sheet: dep.Sheet, Pos: dep.Pos, Lang: lang, Source: source}, tx)
		e.propagate(dep, tx, visited)
	}
}

// dependentCodeSource resolves the language/source driving dep.Pos,
// whether it's stored as a plain CellValue::Code or as a DataTable's
// code run: an array/spilled formula result is anchored via
// SetDataTable and never written back into the plain cell storage, so
// a dependent covering that shape would otherwise be silently skipped
// on every recompute.
func dependentCodeSource(sh *grid.Sheet, pos coord.Pos) (lang, source string, ok bool) {
	cv := sh.GetCellValue(pos)
	if cv.Kind == cellvalue.Code {
		return cv.Code.Language, cv.Code.Source, true
	}
	if dt, hasTable := sh.GetDataTable(pos); hasTable && dt.Run != nil && dt.Run.Language != "" {
		return dt.Run.Language, dt.Run.Source, true
	}
	return "", "", false
}

// applyStructural performs an Insert/Delete Column/Row and enqueues a
// ComputeCode for every code cell whose formula references a position
// the edit shifted, after rewriting its source text.
func (e *Engine) applyStructural(sh *grid.Sheet, op Operation, tx *PendingTransaction) {
	var axis refrewrite.Axis
	var kind refrewrite.Op
	switch op.Kind {
	case OpInsertColumn:
		axis, kind = refrewrite.Column, refrewrite.Insert
		sh.InsertColumn(op.Position)
	case OpDeleteColumn:
		axis, kind = refrewrite.Column, refrewrite.Delete
		sh.DeleteColumn(op.Position)
	case OpInsertRow:
		axis, kind = refrewrite.Row, refrewrite.Insert
		sh.InsertRow(op.Position)
	case OpDeleteRow:
		axis, kind = refrewrite.Row, refrewrite.Delete
		sh.DeleteRow(op.Position)
	}
	reverseKind := map[OpKind]OpKind{
		OpInsertColumn: OpDeleteColumn,
		OpDeleteColumn: OpInsertColumn,
		OpInsertRow:    OpDeleteRow,
		OpDeleteRow:    OpInsertRow,
	}[op.Kind]
	tx.pushReverse(Operation{Kind: reverseKind, Sheet: op.Sheet, Position: op.Position})

	adj := []refrewrite.RefAdjust{{SheetId: op.Sheet, Axis: axis, Op: kind, Position: op.Position}}
	for _, pos := range sh.CodeCellPositions() {
		cv := sh.GetCellValue(pos)
		if cv.Kind != cellvalue.Code || cv.Code.Language != "Formula" {
			continue
		}
		res := refrewrite.RewriteFormula(cv.Code.Source, op.Sheet, adj, e.A1)
		if !res.Changed {
			continue
		}
		tx.Enqueue(Operation{Kind: OpComputeCode, Sheet: op.Sheet, Pos: pos, Lang: "Formula", Source: res.Source})
	}
	// A formula that spills into more than a 1x1 result is anchored via
	// SetDataTable rather than CellValue::Code, so CodeCellPositions
	// above never sees it; sweep the table anchors separately.
	for _, entry := range sh.DataTablesInOrder() {
		dt := entry.Table
		if dt.Kind != datatable.CodeRun || dt.Run == nil || dt.Run.Language != "Formula" {
			continue
		}
		res := refrewrite.RewriteFormula(dt.Run.Source, op.Sheet, adj, e.A1)
		if !res.Changed {
			continue
		}
		tx.Enqueue(Operation{Kind: OpComputeCode, Sheet: op.Sheet, Pos: entry.Anchor, Lang: "Formula", Source: res.Source})
	}
}

// Undo pops the most recent committed transaction and replays its
// reverse operations as a fresh (non-recording) transaction.
func (e *Engine) Undo() bool {
	if len(e.undoStack) == 0 {
		return false
	}
	n := len(e.undoStack) - 1
	prior := e.undoStack[n]
	e.undoStack = e.undoStack[:n]

	replay := NewPendingTransaction()
	replay.isUndoRedo = true
	for i := len(prior.ReverseOps) - 1; i >= 0; i-- {
		replay.Enqueue(prior.ReverseOps[i])
	}
	e.Execute(replay)
	e.redoStack = append(e.redoStack, prior)
	return true
}

// Redo re-applies the most recently undone transaction's forward log.
func (e *Engine) Redo() bool {
	if len(e.redoStack) == 0 {
		return false
	}
	n := len(e.redoStack) - 1
	tx := e.redoStack[n]
	e.redoStack = e.redoStack[:n]

	replay := NewPendingTransaction()
	replay.isUndoRedo = true
	replay.ForwardOps = append([]Operation{}, tx.ForwardOps...)
	e.Execute(replay)
	e.undoStack = append(e.undoStack, tx)
	return true
}
