package grid

import (
	"fmt"
	"sort"
	"sync"

	"sheetcore/coord"

	"github.com/google/uuid"
)

// Grid owns every sheet in a document. SheetIds are opaque UUIDs,
// assigned once and stable for the sheet's lifetime.
type Grid struct {
	mu     sync.RWMutex
	sheets map[coord.SheetId]*Sheet
	order  []coord.SheetId
}

// NewGrid returns an empty grid.
func NewGrid() *Grid {
	return &Grid{sheets: make(map[coord.SheetId]*Sheet)}
}

// AddSheet creates and registers a new sheet named name, returning it.
func (g *Grid) AddSheet(name string) *Sheet {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := coord.SheetId(uuid.NewString())
	order := fmt.Sprintf("a%08d", len(g.order))
	sheet := NewSheet(id, name)
	sheet.Order = order
	g.sheets[id] = sheet
	g.order = append(g.order, id)
	return sheet
}

// Sheet returns the sheet with id, or nil.
func (g *Grid) Sheet(id coord.SheetId) *Sheet {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sheets[id]
}

// RemoveSheet deletes the sheet with id.
func (g *Grid) RemoveSheet(id coord.SheetId) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sheets, id)
	for i, sid := range g.order {
		if sid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// SheetsInOrder returns every sheet in display order.
func (g *Grid) SheetsInOrder() []*Sheet {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Sheet, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.sheets[id])
	}
	return out
}

// SheetNames returns a snapshot of id -> name for building an A1 Context.
func (g *Grid) SheetNames() map[coord.SheetId]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[coord.SheetId]string, len(g.sheets))
	for id, s := range g.sheets {
		out[id] = s.Name
	}
	return out
}

// SortSheetsByOrder reorders g.order according to each sheet's Order
// string: a sortable fractional-indexing string rather than an
// integer index, so a sheet can be reordered by editing one field.
func (g *Grid) SortSheetsByOrder() {
	g.mu.Lock()
	defer g.mu.Unlock()
	sort.Slice(g.order, func(i, j int) bool {
		return g.sheets[g.order[i]].Order < g.sheets[g.order[j]].Order
	})
}
