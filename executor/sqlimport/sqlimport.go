// Package sqlimport materializes a datatable.DataTable of Kind Import
// from the result set of a single SQL query, for cells whose source
// descriptor names a connection and a statement rather than code to run.
package sqlimport

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"sheetcore/cellvalue"
	"sheetcore/datatable"
)

// Connector owns a pool of connections to one Postgres database and
// runs import queries against it.
type Connector struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against dsn (a libpq connection string or URL).
func Connect(ctx context.Context, dsn string) (*Connector, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlimport: connect: %w", err)
	}
	return &Connector{pool: pool}, nil
}

// Close releases the pool.
func (c *Connector) Close() { c.pool.Close() }

// Import runs query and returns the result as an Import-kind DataTable
// with the column names as its header row.
func (c *Connector) Import(ctx context.Context, name, query string, args ...any) (*datatable.DataTable, error) {
	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlimport: query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	header := make([]cellvalue.CellValue, len(fields))
	headers := make([]datatable.ColumnHeader, len(fields))
	for i, f := range fields {
		header[i] = cellvalue.NewText(f.Name)
		headers[i] = datatable.ColumnHeader{Name: f.Name, Display: true}
	}

	grid := [][]cellvalue.CellValue{header}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("sqlimport: scan row: %w", err)
		}
		grid = append(grid, rowToCellValues(vals))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlimport: %w", err)
	}

	value := datatable.Value{Kind: datatable.Array, Cells: grid}
	dt := datatable.New(datatable.Import, name, value, true, true, true, nil)
	dt.Imp = &datatable.ImportInfo{SourceKind: "sql", Descriptor: query}
	dt.ColumnHeaders = headers
	return dt, nil
}

// ImportSpec names one sheet's worth of Import data table to build.
type ImportSpec struct {
	Name  string
	Query string
	Args  []any
}

// ImportMany runs every spec's query concurrently against the pool and
// returns the resulting tables in the same order as specs, for a
// workbook that refreshes several Import tables from the same database
// on open. The first query error cancels the remaining in-flight ones.
func (c *Connector) ImportMany(ctx context.Context, specs []ImportSpec) ([]*datatable.DataTable, error) {
	out := make([]*datatable.DataTable, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			dt, err := c.Import(gctx, spec.Name, spec.Query, spec.Args...)
			if err != nil {
				return err
			}
			out[i] = dt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func rowToCellValues(vals []any) []cellvalue.CellValue {
	out := make([]cellvalue.CellValue, len(vals))
	for i, v := range vals {
		out[i] = toCellValue(v)
	}
	return out
}

func toCellValue(v any) cellvalue.CellValue {
	switch t := v.(type) {
	case nil:
		return cellvalue.CellValue{}
	case bool:
		return cellvalue.NewLogical(t)
	case int32:
		return cellvalue.NewNumberFromFloat(float64(t))
	case int64:
		return cellvalue.NewNumberFromFloat(float64(t))
	case float32:
		return cellvalue.NewNumberFromFloat(float64(t))
	case float64:
		return cellvalue.NewNumberFromFloat(t)
	case string:
		return cellvalue.NewText(t)
	case pgx.Identifier:
		return cellvalue.NewText(t.Sanitize())
	case fmt.Stringer:
		return cellvalue.NewText(t.String())
	default:
		return cellvalue.NewText(fmt.Sprintf("%v", t))
	}
}
