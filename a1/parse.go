package a1

import (
	"strconv"
	"strings"

	"sheetcore/coord"
)

// Parse parses a textual A1 selection against ctx, resolving a sheet
// prefix against the context's sheet table and falling back to
// ctx.DefaultSheet() when none is given.
func Parse(input string, ctx *Context) (*Selection, error) {
	segments, err := splitTopLevel(input)
	if err != nil {
		return nil, err
	}

	sel := &Selection{SheetId: ctx.DefaultSheet()}
	sawSheet := false

	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue // trailing commas are tolerated
		}
		sheetPart, body, hasSheet := splitSheetPrefix(seg)
		sheetID := ctx.DefaultSheet()
		if hasSheet {
			id, ok := ctx.TrySheetID(sheetPart)
			if !ok {
				return nil, &ParseError{Kind: InvalidSheet, Input: input, Pos: 0}
			}
			sheetID = id
			if sawSheet && sel.SheetId != sheetID {
				return nil, &ParseError{Kind: TooManySheets, Input: input, Pos: 0}
			}
			sel.SheetId = sheetID
			sawSheet = true
		}

		r, err := parseRangeBody(body, input)
		if err != nil {
			return nil, err
		}
		sel.Ranges = append(sel.Ranges, r)
	}

	if len(sel.Ranges) == 0 {
		return nil, &ParseError{Kind: InvalidRange, Input: input, Pos: 0}
	}
	sel.Cursor = firstAnchor(sel.Ranges[0])
	return sel, nil
}

func firstAnchor(r Range) coord.Pos {
	if r.IsTable {
		return coord.Pos{X: 1, Y: 1}
	}
	p := r.Start.Pos
	if p.X < 1 {
		p.X = 1
	}
	if p.Y < 1 {
		p.Y = 1
	}
	return p
}

// splitTopLevel splits on commas that are not inside a quoted sheet name.
func splitTopLevel(input string) ([]string, error) {
	var segments []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(input); i++ {
		ch := input[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			cur.WriteByte(ch)
		case ch == ',' && !inQuote:
			segments = append(segments, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	if inQuote {
		return nil, &ParseError{Kind: InvalidRange, Input: input, Pos: len(input)}
	}
	segments = append(segments, cur.String())
	return segments, nil
}

// splitSheetPrefix separates a leading "Sheet!" from the range body.
func splitSheetPrefix(seg string) (sheet, body string, ok bool) {
	if strings.HasPrefix(seg, "'") {
		end := strings.Index(seg[1:], "'")
		for end >= 0 {
			// handle '' escape: if followed by another ', it's an escaped quote.
			realEnd := end + 1
			if realEnd+1 < len(seg) && seg[realEnd+1] == '\'' {
				next := strings.Index(seg[realEnd+2:], "'")
				if next < 0 {
					break
				}
				end = realEnd + 2 + next
				continue
			}
			break
		}
		if end < 0 {
			return "", seg, false
		}
		realEnd := end + 1
		rest := seg[realEnd+1:]
		if strings.HasPrefix(rest, "!") {
			return seg[:realEnd+1], rest[1:], true
		}
		return "", seg, false
	}
	if idx := strings.Index(seg, "!"); idx >= 0 {
		bracket := strings.Index(seg, "[")
		if bracket < 0 || idx < bracket {
			return seg[:idx], seg[idx+1:], true
		}
	}
	return "", seg, false
}

func parseRangeBody(body, fullInput string) (Range, error) {
	body = strings.TrimSpace(body)
	if body == "*" {
		return All(), nil
	}
	if tr, ok, err := tryParseTableRef(body, fullInput); ok {
		return tr, err
	}

	if idx := strings.Index(body, ":"); idx >= 0 {
		left, right := body[:idx], body[idx+1:]
		if p1, ok1 := parseCellRef(left); ok1 {
			if p2, ok2 := parseCellRef(right); ok2 {
				return RectRange(p1, p2), nil
			}
			if c2, ok2 := parseColRef(right); ok2 {
				return RectRange(p1, refPosUnboundedRow(c2)), nil
			}
			if r2, ok2 := parseRowRef(right); ok2 {
				return RectRange(p1, refPosUnboundedCol(r2)), nil
			}
		}
		if c1, ok1 := parseColRef(left); ok1 {
			if c2, ok2 := parseColRef(right); ok2 {
				return ColumnRange(c1, c2), nil
			}
			if p2, ok2 := parseCellRef(right); ok2 {
				return RectRange(refPos(c1, 1), p2), nil
			}
		}
		if r1, ok1 := parseRowRef(left); ok1 {
			if r2, ok2 := parseRowRef(right); ok2 {
				return RowRange(r1, r2), nil
			}
			if p2, ok2 := parseCellRef(right); ok2 {
				return RectRange(refPos(1, r1), p2), nil
			}
		}
		return Range{}, &ParseError{Kind: InvalidRange, Input: fullInput, Pos: 0}
	}

	if p, ok := parseCellRef(body); ok {
		return Range{Start: p, End: p}, nil
	}
	if c, ok := parseColRef(body); ok {
		return ColumnRange(c, c), nil
	}
	if r, ok := parseRowRef(body); ok {
		return RowRange(r, r), nil
	}
	return Range{}, &ParseError{Kind: InvalidRange, Input: fullInput, Pos: 0}
}

func tryParseTableRef(body, fullInput string) (Range, bool, error) {
	open := strings.Index(body, "[")
	if open <= 0 || !strings.HasSuffix(body, "]") {
		return Range{}, false, nil
	}
	name := body[:open]
	if !isBareIdent(name) {
		return Range{}, false, nil
	}
	inner := body[open+1 : len(body)-1]
	var spec TableColSpec
	switch {
	case inner == "" || inner == "#All":
		spec.Kind = TableColAll
	case strings.HasSuffix(inner, ":"):
		spec.Kind = TableColToEnd
		spec.Col = strings.TrimSuffix(inner, ":")
	case strings.Contains(inner, ":"):
		parts := strings.SplitN(inner, ":", 2)
		spec.Kind = TableColRange_
		spec.Col, spec.ColEnd = parts[0], parts[1]
	default:
		spec.Kind = TableColSingle
		spec.Col = inner
	}
	return NewTableRef(name, spec), true, nil
}

// ParseCellRefToken parses a single A1 cell token such as "A1" or
// "$A$1" into a RefPos, for use by the formula parser when it lexes a
// CELL_REF token. Returns false if tok is not a well-formed cell ref.
func ParseCellRefToken(tok string) (coord.RefPos, bool) {
	return parseCellRef(tok)
}

func parseCellRef(tok string) (coord.RefPos, bool) {
	i := 0
	colAbs := false
	if i < len(tok) && tok[i] == '$' {
		colAbs = true
		i++
	}
	start := i
	for i < len(tok) && isLetter(tok[i]) {
		i++
	}
	if i == start {
		return coord.RefPos{}, false
	}
	colStr := tok[start:i]
	rowAbs := false
	if i < len(tok) && tok[i] == '$' {
		rowAbs = true
		i++
	}
	rowStart := i
	for i < len(tok) && isDigit(tok[i]) {
		i++
	}
	if i == rowStart || i != len(tok) {
		return coord.RefPos{}, false
	}
	row, err := strconv.ParseInt(tok[rowStart:i], 10, 64)
	if err != nil || row < 1 {
		return coord.RefPos{}, false
	}
	col := ColumnLettersToIndex(colStr)
	if col < 1 {
		return coord.RefPos{}, false
	}
	return coord.RefPos{Pos: coord.Pos{X: col, Y: row}, ColAbsolute: colAbs, RowAbsolute: rowAbs}, true
}

func parseColRef(tok string) (int64, bool) {
	i := 0
	if i < len(tok) && tok[i] == '$' {
		i++
	}
	start := i
	for i < len(tok) && isLetter(tok[i]) {
		i++
	}
	if i == start || i != len(tok) {
		return 0, false
	}
	col := ColumnLettersToIndex(tok[start:i])
	if col < 1 {
		return 0, false
	}
	return col, true
}

func parseRowRef(tok string) (int64, bool) {
	i := 0
	if i < len(tok) && tok[i] == '$' {
		i++
	}
	start := i
	for i < len(tok) && isDigit(tok[i]) {
		i++
	}
	if i == start || i != len(tok) {
		return 0, false
	}
	row, err := strconv.ParseInt(tok[start:i], 10, 64)
	if err != nil || row < 1 {
		return 0, false
	}
	return row, true
}

func refPosUnboundedRow(col int64) coord.RefPos {
	return coord.RefPos{Pos: coord.Pos{X: col, Y: coord.Unbounded}}
}

func refPosUnboundedCol(row int64) coord.RefPos {
	return coord.RefPos{Pos: coord.Pos{X: coord.Unbounded, Y: row}}
}

func isLetter(b byte) bool { return b >= 'A' && b <= 'Z' }
func isDigit(b byte) bool  { return b >= '0' && b <= '9' }

// ColumnLettersToIndex converts a base-26 column encoding (A=1, Z=26,
// AA=27, ...) to its 1-indexed column number.
func ColumnLettersToIndex(letters string) int64 {
	var col int64
	for i := 0; i < len(letters); i++ {
		ch := letters[i]
		if !isLetter(ch) {
			return 0
		}
		col = col*26 + int64(ch-'A'+1)
	}
	return col
}

// ColumnIndexToLetters converts a 1-indexed column number to its
// base-26 letters.
func ColumnIndexToLetters(col int64) string {
	var out []byte
	for col > 0 {
		col--
		out = append([]byte{byte('A' + col%26)}, out...)
		col /= 26
	}
	return string(out)
}
