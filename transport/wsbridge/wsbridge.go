// Package wsbridge pushes cell updates to connected browser clients
// over WebSocket, the same upgrade-then-broadcast pattern used to mirror
// a sheet's live state out to any number of viewers.
package wsbridge

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"sheetcore/a1"
	"sheetcore/cellvalue"
	"sheetcore/coord"
	"sheetcore/grid"
	"sheetcore/render"
	"sheetcore/transaction"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// CellUpdate is one cell's new display value, as pushed to clients
// after a transaction recomputes it.
type CellUpdate struct {
	Sheet string `json:"sheet"`
	Col   int64  `json:"col"`
	Row   int64  `json:"row"`
	Value string `json:"value"`
}

// AssignRequest is the inbound shape for a client-originated edit.
type AssignRequest struct {
	Sheet   string `json:"sheet"`
	Col     int64  `json:"col"`
	Row     int64  `json:"row"`
	Formula bool   `json:"formula"`
	Source  string `json:"source"`
}

// DirtyHashes is the on-change render-pipeline output pushed alongside
// a CellUpdate: the set of spatial-hash tiles the edit touched, so a
// browser-side renderer knows which cached meshes to discard.
type DirtyHashes struct {
	Sheet  string             `json:"sheet"`
	Hashes []render.HashCoord `json:"hashes"`
}

// Hub fans a Grid's changes out to every connected WebSocket client and
// applies inbound edits through a shared transaction engine. Render is
// optional: when set, every applied edit also marks and broadcasts the
// hash tiles it touched.
type Hub struct {
	Grid   *grid.Grid
	A1     *a1.Context
	Engine *transaction.Engine
	Render *render.Pipeline

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub wires a hub around an already-constructed grid/engine pair.
func NewHub(g *grid.Grid, ctx *a1.Context, eng *transaction.Engine) *Hub {
	return &Hub{Grid: g, A1: ctx, Engine: eng, clients: make(map[*websocket.Conn]struct{})}
}

// ServeHTTP upgrades the connection and loops reading AssignRequests
// until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("wsbridge: upgrade: %v", err)
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req AssignRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			log.Printf("wsbridge: bad request: %v", err)
			continue
		}
		h.applyAndBroadcast(req)
	}
}

func (h *Hub) applyAndBroadcast(req AssignRequest) {
	sheetID, ok := h.A1.TrySheetID(req.Sheet)
	if !ok {
		sheetID = coord.SheetId(req.Sheet)
	}
	pos := coord.Pos{X: req.Col, Y: req.Row}

	tx := transaction.NewPendingTransaction()
	if req.Formula {
		tx.Enqueue(transaction.Operation{
			Kind: transaction.OpComputeCode, Sheet: sheetID,
			Pos: pos, Lang: "Formula", Source: req.Source,
		})
	} else {
		tx.Enqueue(transaction.Operation{
			Kind: transaction.OpSetCellValues, Sheet: sheetID,
			Pos: pos, Value: cellValueFromText(req.Source),
		})
	}
	h.Engine.Execute(tx)

	sh := h.Grid.Sheet(sheetID)
	if sh == nil {
		return
	}
	h.Broadcast(CellUpdate{
		Sheet: req.Sheet, Col: req.Col, Row: req.Row,
		Value: sh.EffectiveCellValue(pos).DisplayString(),
	})

	if h.Render != nil {
		hash := render.HashOf(pos)
		h.Render.MarkDirty(hash)
		h.broadcastDirty(req.Sheet, []render.HashCoord{hash})
	}
}

func (h *Hub) broadcastDirty(sheet string, hashes []render.HashCoord) {
	body, err := json.Marshal(DirtyHashes{Sheet: sheet, Hashes: hashes})
	if err != nil {
		log.Printf("wsbridge: marshal dirty hashes: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
			log.Printf("wsbridge: write dirty hashes to client failed: %v", err)
		}
	}
}

func cellValueFromText(s string) cellvalue.CellValue {
	if s == "" {
		return cellvalue.CellValue{}
	}
	if d, err := strconv.ParseFloat(s, 64); err == nil {
		return cellvalue.NewNumberFromFloat(d)
	}
	if strings.EqualFold(s, "TRUE") || strings.EqualFold(s, "FALSE") {
		return cellvalue.NewLogical(strings.EqualFold(s, "TRUE"))
	}
	return cellvalue.NewText(s)
}

// Broadcast pushes upd to every currently connected client.
func (h *Hub) Broadcast(upd CellUpdate) {
	body, err := json.Marshal(upd)
	if err != nil {
		log.Printf("wsbridge: marshal update: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
			log.Printf("wsbridge: write to client failed: %v", err)
		}
	}
}
