// Command sheetcore-cli is a raw-terminal driver for the cell-assignment
// REPL: it puts stdin into raw mode so it can support history navigation
// and in-line editing, the same byte-at-a-time terminal idiom used for
// richer line editing than bufio.Scanner allows.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"sheetcore/a1"
	"sheetcore/cellvalue"
	"sheetcore/grid"
	"sheetcore/transaction"
)

type ttyByteEvent struct {
	b   byte
	err error
}

type ttyInput struct {
	in      *os.File
	out     io.Writer
	state   *term.State
	events  chan ttyByteEvent
	history []string
}

func newTTYInput(in *os.File, out io.Writer) (*ttyInput, bool) {
	if !term.IsTerminal(int(in.Fd())) {
		return nil, false
	}
	state, err := term.MakeRaw(int(in.Fd()))
	if err != nil {
		return nil, false
	}
	t := &ttyInput{in: in, out: out, state: state, events: make(chan ttyByteEvent, 128)}
	go t.readBytes()
	return t, true
}

func (t *ttyInput) Close() {
	if t == nil || t.state == nil {
		return
	}
	_ = term.Restore(int(t.in.Fd()), t.state)
}

func (t *ttyInput) readBytes() {
	defer close(t.events)
	buf := make([]byte, 1)
	for {
		n, err := t.in.Read(buf)
		if n > 0 {
			t.events <- ttyByteEvent{b: buf[0]}
		}
		if err != nil {
			t.events <- ttyByteEvent{err: err}
			return
		}
	}
}

func (t *ttyInput) readLine(prompt string) (string, bool) {
	line := make([]byte, 0, 64)
	historyIndex := len(t.history)
	fmt.Fprint(t.out, prompt)
	for ev := range t.events {
		if ev.err != nil {
			return "", false
		}
		switch ev.b {
		case '\r', '\n':
			fmt.Fprint(t.out, "\r\n")
			entered := string(line)
			if entered != "" {
				t.history = append(t.history, entered)
			}
			return entered, true
		case 0x03, 0x04: // Ctrl+C, Ctrl+D
			fmt.Fprint(t.out, "\r\n")
			return "", false
		case 0x7f, 0x08: // Backspace
			if len(line) > 0 {
				line = line[:len(line)-1]
				fmt.Fprint(t.out, "\b \b")
			}
		case 0x1b: // escape sequence: only up/down history nav is handled
			next, ok := t.readByteWithTimeout(10 * time.Millisecond)
			if !ok || next != '[' {
				continue
			}
			code, ok := t.readByteWithTimeout(10 * time.Millisecond)
			if !ok {
				continue
			}
			switch code {
			case 'A':
				if historyIndex > 0 {
					historyIndex--
					line = redraw(t.out, prompt, line, t.history[historyIndex])
				}
			case 'B':
				if historyIndex < len(t.history)-1 {
					historyIndex++
					line = redraw(t.out, prompt, line, t.history[historyIndex])
				}
			}
		default:
			line = append(line, ev.b)
			fmt.Fprintf(t.out, "%c", ev.b)
		}
	}
	return "", false
}

func redraw(out io.Writer, prompt string, old []byte, next string) []byte {
	fmt.Fprint(out, "\r"+prompt+strBlank(len(old))+"\r"+prompt+next)
	return []byte(next)
}

func strBlank(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func (t *ttyInput) readByteWithTimeout(d time.Duration) (byte, bool) {
	select {
	case ev, ok := <-t.events:
		if !ok || ev.err != nil {
			return 0, false
		}
		return ev.b, true
	case <-time.After(d):
		return 0, false
	}
}

func main() {
	g := grid.NewGrid()
	sh := g.AddSheet("Sheet1")
	ctx := a1.NewContext(sh.Id)
	ctx.AddSheet(sh.Id, "Sheet1")
	eng := transaction.NewEngine(g, ctx)

	tty, ok := newTTYInput(os.Stdin, os.Stdout)
	if !ok {
		fmt.Fprintln(os.Stderr, "sheetcore-cli requires an interactive terminal")
		os.Exit(1)
	}
	defer tty.Close()

	fmt.Fprint(os.Stdout, "sheetcore-cli — type A1=5 or B1==A1*2, Ctrl+D to quit\r\n")
	for {
		line, ok := tty.readLine("> ")
		if !ok {
			return
		}
		if line == "" {
			continue
		}
		cellTok, display, err := assign(eng, sh, line)
		if err != nil {
			fmt.Fprintf(os.Stdout, "error: %v\r\n", err)
			continue
		}
		fmt.Fprintf(os.Stdout, "%s = %s\r\n", cellTok, display)
	}
}

func assign(eng *transaction.Engine, sh *grid.Sheet, line string) (string, string, error) {
	eqIdx := strings.Index(line, "=")
	if eqIdx < 0 {
		return "", "", fmt.Errorf("expected CELL=VALUE or CELL==FORMULA")
	}
	cellTok := strings.TrimSpace(line[:eqIdx])
	rhs := strings.TrimSpace(line[eqIdx+1:])

	ref, ok := a1.ParseCellRefToken(cellTok)
	if !ok {
		return "", "", fmt.Errorf("malformed cell reference %q", cellTok)
	}

	tx := transaction.NewPendingTransaction()
	if strings.HasPrefix(rhs, "=") {
		tx.Enqueue(transaction.Operation{
			Kind: transaction.OpComputeCode, Sheet: sh.Id,
			Pos: ref.Pos, Lang: "Formula", Source: rhs,
		})
	} else {
		tx.Enqueue(transaction.Operation{
			Kind: transaction.OpSetCellValues, Sheet: sh.Id,
			Pos: ref.Pos, Value: literalCellValue(rhs),
		})
	}
	eng.Execute(tx)
	return cellTok, sh.EffectiveCellValue(ref.Pos).DisplayString(), nil
}

func literalCellValue(s string) cellvalue.CellValue {
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
