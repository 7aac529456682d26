// Package zmqexec dispatches non-formula code cells to an external
// worker process over ZeroMQ, the same request/reply transport pattern
// used to talk to a notebook-style execution kernel: one JSON request
// frame out, one JSON reply frame back, correlated by a request ID.
package zmqexec

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/google/uuid"

	"sheetcore/cellvalue"
	"sheetcore/coord"
	"sheetcore/datatable"
)

// Request is the wire shape sent to the worker for one code cell run.
type Request struct {
	ID       string `json:"id"`
	Sheet    string `json:"sheet"`
	Col      int64  `json:"col"`
	Row      int64  `json:"row"`
	Language string `json:"language"`
	Source   string `json:"source"`
}

// CellRef names one cell inside a Reply's Cells/Accessed maps.
type CellRef struct {
	Sheet string `json:"sheet"`
	Col   int64  `json:"col"`
	Row   int64  `json:"row"`
}

// Reply is the wire shape a worker sends back once a run completes.
type Reply struct {
	ID       string    `json:"id"`
	OK       bool      `json:"ok"`
	ErrCode  string    `json:"err_code,omitempty"`
	ErrMsg   string    `json:"err_msg,omitempty"`
	StdOut   string    `json:"stdout,omitempty"`
	StdErr   string    `json:"stderr,omitempty"`
	Rows     int       `json:"rows"`
	Cols     int       `json:"cols"`
	Values   []float64 `json:"values,omitempty"` // row-major, numeric fast path
	Text     []string  `json:"text,omitempty"`   // row-major, parallel to Values when non-numeric
	Accessed []CellRef `json:"accessed,omitempty"`
}

// Client owns one REQ socket dialed to a running worker and serializes
// access to it, since zmq4's REQ socket only tolerates one outstanding
// request at a time.
type Client struct {
	mu     sync.Mutex
	sock   zmq4.Socket
	Logger *log.Logger
}

// Dial connects to a worker listening at addr (e.g. "tcp://127.0.0.1:5555").
func Dial(ctx context.Context, addr string) (*Client, error) {
	sock := zmq4.NewReq(ctx)
	if err := sock.Dial(addr); err != nil {
		return nil, fmt.Errorf("zmqexec: dial %s: %w", addr, err)
	}
	return &Client{sock: sock, Logger: log.New(os.Stderr, "zmqexec: ", log.LstdFlags)}, nil
}

// Close releases the underlying socket.
func (c *Client) Close() error { return c.sock.Close() }

// Dispatch implements transaction.AsyncDispatch: it blocks the calling
// transaction until the worker replies. No timeout is applied to the
// reply; a worker that never answers blocks Dispatch indefinitely.
func (c *Client) Dispatch(sheet coord.SheetId, pos coord.Pos, lang, source string) (*datatable.DataTable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := Request{
		ID: uuid.NewString(), Sheet: string(sheet),
		Col: pos.X, Row: pos.Y, Language: lang, Source: source,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("zmqexec: marshal request: %w", err)
	}
	if err := c.sock.Send(zmq4.NewMsg(body)); err != nil {
		return nil, fmt.Errorf("zmqexec: send: %w", err)
	}

	msg, err := c.sock.Recv()
	if err != nil {
		if c.Logger != nil {
			c.Logger.Printf("recv failed for request %s: %v", req.ID, err)
		}
		return nil, fmt.Errorf("zmqexec: recv: %w", err)
	}
	var reply Reply
	if err := json.Unmarshal(msg.Bytes(), &reply); err != nil {
		return nil, fmt.Errorf("zmqexec: unmarshal reply: %w", err)
	}
	if reply.ID != req.ID {
		return nil, fmt.Errorf("zmqexec: reply id %q does not match request id %q", reply.ID, req.ID)
	}
	return toDataTable(lang, source, reply), nil
}

func toDataTable(lang, source string, r Reply) *datatable.DataTable {
	run := &datatable.CodeRunInfo{Language: lang, Source: source, StdOut: r.StdOut, StdErr: r.StdErr}
	if !r.OK {
		run.Error = &cellvalue.RunError{Code: r.ErrCode, Msg: r.ErrMsg}
		dt := datatable.New(datatable.CodeRun, lang+"1", datatable.Value{Kind: datatable.Single}, false, false, false, nil)
		dt.Run = run
		return dt
	}

	run.CellsAccessed = make(map[coord.Pos]struct{}, len(r.Accessed))
	for _, c := range r.Accessed {
		run.CellsAccessed[coord.Pos{X: c.Col, Y: c.Row}] = struct{}{}
	}

	var value datatable.Value
	if r.Rows <= 1 && r.Cols <= 1 {
		value = datatable.Value{Kind: datatable.Single, Scalar: scalarAt(r, 0)}
	} else {
		rows := make([][]cellvalue.CellValue, r.Rows)
		for row := 0; row < r.Rows; row++ {
			line := make([]cellvalue.CellValue, r.Cols)
			for col := 0; col < r.Cols; col++ {
				line[col] = scalarAt(r, row*r.Cols+col)
			}
			rows[row] = line
		}
		value = datatable.Value{Kind: datatable.Array, Cells: rows}
	}

	dt := datatable.New(datatable.CodeRun, lang+"1", value, false, false, false, nil)
	dt.Run = run
	return dt
}

func scalarAt(r Reply, i int) cellvalue.CellValue {
	if i < len(r.Text) && r.Text[i] != "" {
		return cellvalue.NewText(r.Text[i])
	}
	if i < len(r.Values) {
		return cellvalue.NewNumberFromFloat(r.Values[i])
	}
	return cellvalue.CellValue{}
}

// DialTimeout bounds only the connection handshake to d; the returned
// Client's socket otherwise lives for the process lifetime (a deadline
// tied to the socket's own context would tear it down the moment the
// deadline passed, not just the dial).
func DialTimeout(addr string, d time.Duration) (*Client, error) {
	sock := zmq4.NewReq(context.Background())
	dialCtx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- sock.Dial(addr) }()

	select {
	case err := <-errCh:
		if err != nil {
			sock.Close()
			return nil, fmt.Errorf("zmqexec: dial %s: %w", addr, err)
		}
		return &Client{sock: sock, Logger: log.New(os.Stderr, "zmqexec: ", log.LstdFlags)}, nil
	case <-dialCtx.Done():
		sock.Close()
		return nil, fmt.Errorf("zmqexec: dial %s: %w", addr, dialCtx.Err())
	}
}
