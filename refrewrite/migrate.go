package refrewrite

import (
	"fmt"
	"regexp"
	"strconv"

	"sheetcore/a1"
	"sheetcore/coord"
)

// Language distinguishes which legacy-API regex family applies.
type Language int

const (
	Python Language = iota
	JavaScript
)

var (
	pyCellRegex  = regexp.MustCompile(`\b(?:c|cell|getCell)\s*\(\s*(-?\d+)\s*,\s*(-?\d+)\s*(?:,\s*(?:sheet\s*=\s*)?['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]\s*)?\)`)
	pyCellsRegex = regexp.MustCompile(`\b(?:cells|getCells)\s*\(\s*\(\s*(-?\d+)\s*,\s*(-?\d+)\s*\)\s*,\s*\(\s*(-?\d+)\s*,\s*(-?\d+)\s*\)\s*(?:,\s*(?:sheet\s*=\s*)?['"` + "`" + `]([^'"` + "`" + `]*)['"` + "`" + `]\s*)?\)`)
	pyRcRegex    = regexp.MustCompile(`\b(?:rc|rel_cell)\s*\(\s*(-?\d+)\s*,\s*(-?\d+)\s*\)`)
	pyRelRegex   = regexp.MustCompile(`\b(?:rel_cells)\s*\(\s*\(\s*(-?\d+)\s*,\s*(-?\d+)\s*\)\s*,\s*\(\s*(-?\d+)\s*,\s*(-?\d+)\s*\)\s*(?:,\s*(?:sheet\s*=\s*)?['"` + "`" + `]([^'"` + "`" + `]*)['"` + "`" + `]\s*)?\)`)

	jsCellRegex  = regexp.MustCompile(`\b(?:c|cell|getCell)\s*\(\s*(-?\d+)\s*,\s*(-?\d+)\s*(?:,\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]\s*)?\)`)
	jsCellsRegex = regexp.MustCompile(`\b(?:cells|getCells)\s*\(\s*(-?\d+)\s*,\s*(-?\d+)\s*,\s*(-?\d+)\s*,\s*(-?\d+)\s*(?:,\s*['"` + "`" + `]([^'"` + "`" + `]*)['"` + "`" + `]\s*)?\)`)
	jsRcRegex    = regexp.MustCompile(`\b(?:rc|relCell)\s*\(\s*(-?\d+)\s*,\s*(-?\d+)\s*\)`)
	jsRelRegex   = regexp.MustCompile(`\b(?:relCells)\s*\(\s*(-?\d+)\s*,\s*(-?\d+)\s*,\s*(-?\d+)\s*,\s*(-?\d+)\s*(?:,\s*['"` + "`" + `]([^'"` + "`" + `]*)['"` + "`" + `]\s*)?\)`)

	posRegex = regexp.MustCompile(`\bpos\s*\(\s*\)`)
)

// Shift is the per-sheet (deltaX, deltaY) added when migrating an
// absolute c()/cell()/getCell() or cells()/getCells() reference to that
// sheet, including the code cell's own sheet when no sheet is named
// (the source grid may have been re-anchored).
type Shift struct{ DX, DY int64 }

// MigrateLegacyReferences converts a code cell's source text from the
// pre-A1 numeric coordinate APIs (cell(x,y), cells((x,y),(x,y)),
// rc(x,y), rel_cells(...), pos()) to the current q.cells("A1")/q.pos()
// API, mirroring quadratic-core's migrate_code_cell_references.rs.
func MigrateLegacyReferences(source string, lang Language, sheetName string, codeCellPos coord.Pos, shiftedOffsets map[string]Shift) string {
	switch lang {
	case Python:
		source = migrateCellGetCell(source, pyCellRegex, sheetName, shiftedOffsets)
		source = migrateCellsGetCells(source, pyCellsRegex, sheetName, shiftedOffsets)
		source = migrateRcRelCell(source, pyRcRegex, codeCellPos)
		source = migrateRelCells(source, pyRelRegex, codeCellPos)
	case JavaScript:
		source = migrateCellGetCell(source, jsCellRegex, sheetName, shiftedOffsets)
		source = migrateCellsGetCells(source, jsCellsRegex, sheetName, shiftedOffsets)
		source = migrateRcRelCell(source, jsRcRegex, codeCellPos)
		source = migrateRelCells(source, jsRelRegex, codeCellPos)
	}
	source = posRegex.ReplaceAllString(source, "q.pos()")
	return source
}

func migrateCellGetCell(source string, re *regexp.Regexp, ownSheet string, shifted map[string]Shift) string {
	return re.ReplaceAllStringFunc(source, func(match string) string {
		m := re.FindStringSubmatch(match)
		x, errX := strconv.ParseInt(m[1], 10, 64)
		y, errY := strconv.ParseInt(m[2], 10, 64)
		if errX != nil || errY != nil {
			return match
		}
		sheetName := ownSheet
		hasSheet := len(m) > 3 && m[3] != ""
		if hasSheet {
			sheetName = m[3]
		}
		sh := shifted[sheetName]
		x += sh.DX
		y += sh.DY
		if x > 0 && y > 0 {
			prefix := ""
			if hasSheet {
				prefix = "'" + sheetName + "'!"
			}
			return fmt.Sprintf(`q.cells("%s%s")`, prefix, cellRefA1(x, y))
		}
		suffix := ""
		if hasSheet {
			suffix = fmt.Sprintf(`, sheet="%s"`, sheetName)
		}
		return fmt.Sprintf("cell(%d, %d%s)", x, y, suffix)
	})
}

func migrateCellsGetCells(source string, re *regexp.Regexp, ownSheet string, shifted map[string]Shift) string {
	return re.ReplaceAllStringFunc(source, func(match string) string {
		m := re.FindStringSubmatch(match)
		x0, e0 := strconv.ParseInt(m[1], 10, 64)
		y0, e1 := strconv.ParseInt(m[2], 10, 64)
		x1, e2 := strconv.ParseInt(m[3], 10, 64)
		y1, e3 := strconv.ParseInt(m[4], 10, 64)
		if e0 != nil || e1 != nil || e2 != nil || e3 != nil {
			return match
		}
		sheetName := ownSheet
		hasSheet := len(m) > 5 && m[5] != ""
		if hasSheet {
			sheetName = m[5]
		}
		sh := shifted[sheetName]
		x0, y0, x1, y1 = x0+sh.DX, y0+sh.DY, x1+sh.DX, y1+sh.DY
		if x0 > 0 && y0 > 0 && x1 > 0 && y1 > 0 {
			prefix := ""
			if hasSheet {
				prefix = "'" + sheetName + "'!"
			}
			return fmt.Sprintf(`q.cells("%s%s:%s")`, prefix, cellRefA1(x0, y0), cellRefA1(x1, y1))
		}
		suffix := ""
		if hasSheet {
			suffix = fmt.Sprintf(`, "%s"`, sheetName)
		}
		return fmt.Sprintf("cells((%d, %d), (%d, %d)%s)", x0, y0, x1, y1, suffix)
	})
}

func migrateRcRelCell(source string, re *regexp.Regexp, pos coord.Pos) string {
	return re.ReplaceAllStringFunc(source, func(match string) string {
		m := re.FindStringSubmatch(match)
		dx, e0 := strconv.ParseInt(m[1], 10, 64)
		dy, e1 := strconv.ParseInt(m[2], 10, 64)
		if e0 != nil || e1 != nil {
			return match
		}
		x, y := dx+pos.X, dy+pos.Y
		if x > 0 && y > 0 {
			return fmt.Sprintf(`q.cells("%s")`, cellRefA1(x, y))
		}
		return fmt.Sprintf("rel_cell(%d, %d)", x, y)
	})
}

func migrateRelCells(source string, re *regexp.Regexp, pos coord.Pos) string {
	return re.ReplaceAllStringFunc(source, func(match string) string {
		m := re.FindStringSubmatch(match)
		dx0, e0 := strconv.ParseInt(m[1], 10, 64)
		dy0, e1 := strconv.ParseInt(m[2], 10, 64)
		dx1, e2 := strconv.ParseInt(m[3], 10, 64)
		dy1, e3 := strconv.ParseInt(m[4], 10, 64)
		if e0 != nil || e1 != nil || e2 != nil || e3 != nil {
			return match
		}
		x0, y0, x1, y1 := dx0+pos.X, dy0+pos.Y, dx1+pos.X, dy1+pos.Y
		if x0 > 0 && y0 > 0 && x1 > 0 && y1 > 0 {
			return fmt.Sprintf(`q.cells("%s:%s")`, cellRefA1(x0, y0), cellRefA1(x1, y1))
		}
		return fmt.Sprintf("rel_cells((%d, %d), (%d, %d))", x0, y0, x1, y1)
	})
}

// cellRefA1 renders (x,y) as a plain A1 token (no sheet qualification;
// this path never needs Context-based sheet resolution).
func cellRefA1(x, y int64) string {
	return a1.ColumnIndexToLetters(x) + strconv.FormatInt(y, 10)
}
