package main

import (
	"bufio"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"sheetcore/a1"
	"sheetcore/cellvalue"
	"sheetcore/coord"
	"sheetcore/executor/zmqexec"
	"sheetcore/grid"
	"sheetcore/transaction"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	sub := os.Args[1]
	switch sub {
	case "-h", "--help", "help":
		usage()
		return
	case "repl":
		os.Exit(replCommand(os.Args[2:]))
	case "eval":
		os.Exit(evalCommand(os.Args[2:]))
	case "version":
		fmt.Println(cliVersion())
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n", sub)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  sheetcore repl\n")
	fmt.Fprintf(os.Stderr, "  sheetcore eval <formula>\n")
	fmt.Fprintf(os.Stderr, "  sheetcore version\n")
}

func cliVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	rev := buildInfoSetting(info, "vcs.revision")
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if rev == "" {
		return "dev"
	}
	if buildInfoSetting(info, "vcs.modified") == "true" {
		return "dev+" + rev + "-dirty"
	}
	return "dev+" + rev
}

func buildInfoSetting(info *debug.BuildInfo, key string) string {
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// evalCommand evaluates a single formula with an otherwise-empty
// sheet, for quick sanity checks from the shell.
func evalCommand(args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: sheetcore eval <formula>\n")
		return 2
	}
	g := grid.NewGrid()
	sh := g.AddSheet("Sheet1")
	ctx := a1.NewContext(sh.Id)
	ctx.AddSheet(sh.Id, "Sheet1")
	eng := transaction.NewEngine(g, ctx)

	tx := transaction.NewPendingTransaction()
	tx.Enqueue(transaction.Operation{
		Kind: transaction.OpComputeCode, Sheet: sh.Id,
		Pos: coord.Pos{X: 1, Y: 1}, Lang: "Formula", Source: args[0],
	})
	eng.Execute(tx)

	result := sh.EffectiveCellValue(coord.Pos{X: 1, Y: 1})
	fmt.Println(result.DisplayString())
	return 0
}

// replCommand starts an interactive loop reading `CELL=VALUE` or
// `CELL==FORMULA` assignments against a single in-memory sheet and
// printing the resulting display string of the assigned cell.
// Uses the familiar bufio.Scanner-driven REPL loop idiom. With
// --executor=<addr>, Python/JavaScript code cells are routed to an
// external worker over ZeroMQ instead of failing as UnhandledLanguage.
func replCommand(args []string) int {
	var executorAddr string
	for _, arg := range args {
		switch {
		case arg == "-h" || arg == "--help":
			replUsage()
			return 0
		case strings.HasPrefix(arg, "--executor="):
			executorAddr = strings.TrimPrefix(arg, "--executor=")
		default:
			fmt.Fprintf(os.Stderr, "repl takes no arguments other than --executor=<addr>\n")
			replUsage()
			return 2
		}
	}

	g := grid.NewGrid()
	sh := g.AddSheet("Sheet1")
	ctx := a1.NewContext(sh.Id)
	ctx.AddSheet(sh.Id, "Sheet1")
	eng := transaction.NewEngine(g, ctx)

	if executorAddr != "" {
		client, err := zmqexec.DialTimeout(executorAddr, 5*time.Second)
		if err != nil {
			fmt.Fprintf(os.Stderr, "executor: %v\n", err)
			return 1
		}
		defer client.Close()
		eng.Dispatch = client.Dispatch
	}

	fmt.Printf("sheetcore %s — type A1=5 or B1==A1*2, :q to quit\n", cliVersion())
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return 0
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == ":q" || line == ":quit" {
			return 0
		}
		if err := replAssign(eng, sh, ctx, line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func replAssign(eng *transaction.Engine, sh *grid.Sheet, ctx *a1.Context, line string) error {
	eqIdx := strings.Index(line, "=")
	if eqIdx < 0 {
		return fmt.Errorf("expected CELL=VALUE or CELL==FORMULA")
	}
	cellTok := strings.TrimSpace(line[:eqIdx])
	rhs := strings.TrimSpace(line[eqIdx+1:])

	ref, ok := a1.ParseCellRefToken(cellTok)
	if !ok {
		return fmt.Errorf("malformed cell reference %q", cellTok)
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

	fmt.Printf("%s = %s\n", cellTok, sh.EffectiveCellValue(ref.Pos).DisplayString())
	return nil
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

func replUsage() {
	fmt.Fprintf(os.Stderr, "Usage:\n  sheetcore repl\n\nStarts an interactive cell-assignment loop.\n")
}
