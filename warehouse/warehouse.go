/*
Package warehouse provides the analytic warehouse collaborator backed by DuckDB.

PURPOSE:
  Implements the three warehouse operations the portal depends on:

    LoadForecast  truncate-then-insert the reshaped forecast rows
    ListObjects   live catalog of tables/views in the dataset schema
    Query         execute SQL and serialize rows positionally

LOAD SEMANTICS:
  LoadForecast replaces the destination table's entire prior contents.
  The delete and inserts run in one transaction, so a single submission
  is atomic. Two concurrent uploads against the same destination race:
  whichever transaction commits last wins and the loser's rows are
  discarded. There is no application-level locking around this, no
  versioning, and no audit trail of prior contents.

CATALOG:
  The "dataset" is a DuckDB schema. ListObjects reads
  information_schema.tables filtered by schema so views are reported
  with their own type, and DescribeObject reads
  information_schema.columns in ordinal order.

QUERY SERIALIZATION:
  Result headers follow the driver's column order; every row is scanned
  positionally into that same order, so row arity always equals header
  arity. Byte slices are decoded to strings at the boundary.

ERROR HANDLING:
  All collaborator errors are returned verbatim to the caller. No
  retries; every failure is terminal for the current request.

SEE ALSO:
  - forecast/reshape.go: Produces the rows LoadForecast persists
  - nlsql/service.go: Consumes ListObjects/DescribeObject/Query
*/
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/warp/forecast-portal/forecast"
)

// Object types reported by the catalog.
const (
	TypeTable = "TABLE"
	TypeView  = "VIEW"
)

// CatalogEntry describes one table or view in the dataset.
type CatalogEntry struct {
	ID   string
	Type string
}

// Column describes one column of a catalog object.
type Column struct {
	Name string
	Type string
}

// Result holds a serialized query result. Rows are positional: the
// value at Rows[i][j] belongs to Headers[j].
type Result struct {
	Headers []string
	Rows    [][]any
}

// Empty reports whether the result carries no rows.
func (r *Result) Empty() bool {
	return len(r.Rows) == 0
}

// Client is the warehouse collaborator. It is safe for concurrent use;
// the underlying *sql.DB handles connection pooling.
type Client struct {
	db      *sql.DB
	dataset string
	table   string
}

// Open connects to a DuckDB database file (":memory:" for in-memory),
// ensures the dataset schema and destination table exist, and returns
// the client.
func Open(ctx context.Context, path, dataset, table string) (*Client, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping warehouse: %w", err)
	}

	c := New(db, dataset, table)
	if err := c.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// New wraps an existing database handle. Used by Open and by tests
// that substitute a mock driver.
func New(db *sql.DB, dataset, table string) *Client {
	if dataset == "" {
		dataset = "main"
	}
	return &Client{db: db, dataset: dataset, table: table}
}

// Close closes the underlying database handle.
func (c *Client) Close() error {
	return c.db.Close()
}

// Dataset returns the dataset (schema) name this client operates on.
func (c *Client) Dataset() string {
	return c.dataset
}

// ForecastTable returns the qualified destination table name.
func (c *Client) ForecastTable() string {
	return c.qualified(c.table)
}

func (c *Client) qualified(name string) string {
	return c.dataset + "." + name
}

// ensureSchema creates the dataset schema and the destination table.
func (c *Client) ensureSchema(ctx context.Context) error {
	if c.dataset != "main" {
		if _, err := c.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+c.dataset); err != nil {
			return fmt.Errorf("failed to create dataset schema: %w", err)
		}
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		period VARCHAR NOT NULL,
		date DATE NOT NULL,
		calls_forecast DOUBLE,
		aht_forecast DOUBLE,
		fte_required DOUBLE
	)`, c.ForecastTable())
	if _, err := c.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create forecast table: %w", err)
	}
	return nil
}

// LoadForecast replaces the destination table's contents with the given
// rows (truncate-then-insert, one transaction). Returns the number of
// rows written.
func (c *Client) LoadForecast(ctx context.Context, rows []forecast.Row) (int, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin load: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+c.ForecastTable()); err != nil {
		return 0, fmt.Errorf("failed to truncate destination: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (period, date, calls_forecast, aht_forecast, fte_required) VALUES (?, ?, ?, ?, ?)",
		c.ForecastTable()))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.Period,
			row.Date,
			row.Calls.InexactFloat64(),
			row.AHT.InexactFloat64(),
			row.FTE.InexactFloat64(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert forecast row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit load: %w", err)
	}
	return len(rows), nil
}

// ListObjects returns the tables and views of the dataset schema.
func (c *Client) ListObjects(ctx context.Context) ([]CatalogEntry, error) {
	const query = `
		SELECT table_name, table_type
		FROM information_schema.tables
		WHERE table_schema = ?
		ORDER BY table_name
	`
	rows, err := c.db.QueryContext(ctx, query, c.dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog objects: %w", err)
	}
	defer rows.Close()

	var entries []CatalogEntry
	for rows.Next() {
		var e CatalogEntry
		if err := rows.Scan(&e.ID, &e.Type); err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		if strings.EqualFold(e.Type, "BASE TABLE") {
			e.Type = TypeTable
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog: %w", err)
	}
	return entries, nil
}

// DescribeObject returns the columns of one catalog object in ordinal order.
func (c *Client) DescribeObject(ctx context.Context, id string) ([]Column, error) {
	const query = `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`
	rows, err := c.db.QueryContext(ctx, query, c.dataset, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query object schema: %w", err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("object %s not found in dataset %s", id, c.dataset)
	}
	return cols, nil
}

// Query executes a SQL string and serializes the rows. Headers follow
// the driver's column order and every row is scanned positionally into
// that order.
func (c *Client) Query(ctx context.Context, sqlStr string) (*Result, error) {
	rows, err := c.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	headers, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	result := &Result{Headers: headers}
	for rows.Next() {
		values := make([]any, len(headers))
		ptrs := make([]any, len(headers))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result: %w", err)
	}
	return result, nil
}
