// Package a1 implements the A1 reference dialect: range algebra,
// selection editing, and the Context that resolves sheet and table
// names.
package a1

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"sheetcore/coord"
)

// TableColRange describes the column portion of a TableRef.
type TableColRange int

const (
	TableColAll TableColRange = iota
	TableColSingle
	TableColRange_
	TableColToEnd
)

// TableMeta describes one structured table for name resolution.
type TableMeta struct {
	Name         string
	SheetId      coord.SheetId
	Anchor       coord.Pos
	Columns      []string
	Width        int64
	Height       int64
	ShowName     bool
	ShowColumns  bool
}

// Context is the only component that resolves sheet and table names.
// It is rebuilt from the grid on every structural change and is treated
// as immutable for the duration of one operation.
type Context struct {
	sheetIDByName map[string]coord.SheetId
	sheetNameByID map[coord.SheetId]string
	tables        map[string]*TableMeta
	defaultSheet  coord.SheetId
}

// NewContext builds an empty Context. Callers populate it with
// AddSheet/AddTable while rebuilding from the grid.
func NewContext(defaultSheet coord.SheetId) *Context {
	return &Context{
		sheetIDByName: make(map[string]coord.SheetId),
		sheetNameByID: make(map[coord.SheetId]string),
		tables:        make(map[string]*TableMeta),
		defaultSheet:  defaultSheet,
	}
}

// foldName applies Unicode normalisation (NFC) before case-folding so
// visually identical sheet names compare equal regardless of the
// underlying combining-character representation.
func foldName(name string) string {
	return strings.ToLower(norm.NFC.String(name))
}

// AddSheet registers a sheet's name/id pair.
func (c *Context) AddSheet(id coord.SheetId, name string) {
	c.sheetIDByName[foldName(name)] = id
	c.sheetNameByID[id] = name
}

// AddTable registers a structured table.
func (c *Context) AddTable(t *TableMeta) {
	c.tables[foldName(t.Name)] = t
}

// DefaultSheet returns the sheet id ranges are resolved against when no
// sheet prefix is given.
func (c *Context) DefaultSheet() coord.SheetId { return c.defaultSheet }

// TrySheetID resolves a (possibly quoted) sheet name to its id.
func (c *Context) TrySheetID(name string) (coord.SheetId, bool) {
	id, ok := c.sheetIDByName[foldName(unquoteSheet(name))]
	return id, ok
}

// TrySheetName resolves a sheet id back to its display name.
func (c *Context) TrySheetName(id coord.SheetId) (string, bool) {
	name, ok := c.sheetNameByID[id]
	return name, ok
}

// TryTable resolves a table name.
func (c *Context) TryTable(name string) (*TableMeta, bool) {
	t, ok := c.tables[foldName(name)]
	return t, ok
}

// QuoteSheetName returns name quoted per the A1 dialect if it is not a
// bare identifier: wrapped in single quotes with '' escaping a literal
// quote.
func QuoteSheetName(name string) string {
	if isBareIdent(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func isBareIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isLetter {
			return false
		}
		if !isLetter && !isDigit {
			return false
		}
	}
	return true
}

func unquoteSheet(name string) string {
	if len(name) >= 2 && name[0] == '\'' && name[len(name)-1] == '\'' {
		inner := name[1 : len(name)-1]
		return strings.ReplaceAll(inner, "''", "'")
	}
	return name
}
