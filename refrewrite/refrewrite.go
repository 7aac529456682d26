// Package refrewrite walks code-cell source text and rewrites the A1
// references it contains when a column or row is inserted or deleted
// elsewhere in the grid, and migrates legacy
// numeric-coordinate APIs to A1 (ported from quadratic-core's
// migrate_code_cell_references.rs).
package refrewrite

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"sheetcore/a1"
	"sheetcore/coord"
)

// Axis is the structural axis a RefAdjust moves references along.
type Axis int

const (
	Column Axis = iota
	Row
)

// Op is whether the adjustment is an insertion or a deletion.
type Op int

const (
	Insert Op = iota
	Delete
)

// RefAdjust describes one insert/delete column/row at a position on a
// given sheet.
type RefAdjust struct {
	SheetId  coord.SheetId
	Axis     Axis
	Op       Op
	Position int64
}

// cellRefPattern matches an A1 cell reference with optional $ markers
// and an optional 'Sheet Name'!/SheetName! prefix.
var cellRefPattern = regexp.MustCompile(`(?:('(?:[^']|'')*'|[A-Za-z_][A-Za-z0-9_]*)!)?(\$?[A-Za-z]+\$?[0-9]+)(?::(\$?[A-Za-z]+\$?[0-9]+))?`)

// RewriteResult carries the rewritten source and whether any reference
// inside it actually changed text, which is the trigger for queuing a
// ComputeCode operation against the owning cell.
type RewriteResult struct {
	Source  string
	Changed bool
	// BrokenRefs is true if any reference now resolves to #REF!.
	BrokenRefs bool
}

// RewriteFormula rewrites every A1 reference in source according to
// adjustments, applying insertions ascending and deletions descending
// so index shifts compose correctly.
func RewriteFormula(source string, sheetID coord.SheetId, adjustments []RefAdjust, ctx *a1.Context) RewriteResult {
	ordered := orderAdjustments(adjustments)

	changed := false
	broken := false
	out := source
	for _, adj := range ordered {
		var thisChanged, thisBroken bool
		out, thisChanged, thisBroken = applyOneAdjustment(out, sheetID, adj, ctx)
		changed = changed || thisChanged
		broken = broken || thisBroken
	}
	return RewriteResult{Source: out, Changed: changed, BrokenRefs: broken}
}

// orderAdjustments sorts insertions ascending by position and deletions
// descending by position, insertions processed before deletions within
// a single pass is not required since each RefAdjust is applied fully
// (its regex substitution pass) before the next.
func orderAdjustments(adjustments []RefAdjust) []RefAdjust {
	out := make([]RefAdjust, len(adjustments))
	copy(out, adjustments)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Op != out[j].Op {
			return out[i].Op == Insert // insertions first
		}
		if out[i].Op == Insert {
			return out[i].Position < out[j].Position
		}
		return out[i].Position > out[j].Position
	})
	return out
}

func applyOneAdjustment(source string, sheetID coord.SheetId, adj RefAdjust, ctx *a1.Context) (string, bool, bool) {
	changed := false
	broken := false

	result := cellRefPattern.ReplaceAllStringFunc(source, func(match string) string {
		groups := cellRefPattern.FindStringSubmatch(match)
		sheetPart, startTok, endTok := groups[1], groups[2], groups[3]

		refSheet := sheetID
		if sheetPart != "" {
			id, ok := ctx.TrySheetID(sheetPart)
			if !ok {
				return match
			}
			refSheet = id
		}
		if refSheet != adj.SheetIdOrDefault(sheetID) {
			return match
		}

		newStart, startBroken := adjustToken(startTok, adj)
		newEnd := endTok
		endBroken := false
		if endTok != "" {
			newEnd, endBroken = adjustToken(endTok, adj)
		}
		if startBroken || endBroken {
			broken = true
			changed = true
			return "#REF!"
		}
		rebuilt := match
		if sheetPart != "" {
			rebuilt = sheetPart + "!" + newStart
		} else {
			rebuilt = newStart
		}
		if endTok != "" {
			rebuilt += ":" + newEnd
		}
		if rebuilt != match {
			changed = true
		}
		return rebuilt
	})
	return result, changed, broken
}

// SheetIdOrDefault lets a zero-value SheetId on an adjustment mean
// "any sheet" (useful for tests); production callers always set it.
func (a RefAdjust) SheetIdOrDefault(fallback coord.SheetId) coord.SheetId {
	if a.SheetId == "" {
		return fallback
	}
	return a.SheetId
}

var tokenPattern = regexp.MustCompile(`^(\$?)([A-Za-z]+)(\$?)([0-9]+)$`)

// adjustToken applies one RefAdjust to a single CellRef token, per the
// coordinate-adjustment rules of 
func adjustToken(tok string, adj RefAdjust) (string, bool) {
	m := tokenPattern.FindStringSubmatch(tok)
	if m == nil {
		return tok, false
	}
	colAbs, colLetters, rowAbs, rowDigits := m[1], m[2], m[3], m[4]
	col := a1.ColumnLettersToIndex(colLetters)
	row, _ := strconv.ParseInt(rowDigits, 10, 64)

	switch adj.Axis {
	case Column:
		switch adj.Op {
		case Insert:
			if col >= adj.Position {
				col++
			}
		case Delete:
			switch {
			case col == adj.Position:
				return "", true
			case col > adj.Position:
				col--
			}
		}
	case Row:
		switch adj.Op {
		case Insert:
			if row >= adj.Position {
				row++
			}
		case Delete:
			switch {
			case row == adj.Position:
				return "", true
			case row > adj.Position:
				row--
			}
		}
	}
	return fmt.Sprintf("%s%s%s%d", colAbs, a1.ColumnIndexToLetters(col), rowAbs, row), false
}
