// Package duckdb executes compiled query clauses against a DuckDB database
// through database/sql.
//
// The executor renders the filter expression, ordering, and pagination
// window with the expr package's SQL encoder and runs plain SELECT / COUNT
// statements. Open the database with the duckdb driver:
//
//	db, err := sql.Open("duckdb", "app.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	exec := duckdb.NewExecutor(db, nil)
//	rows, err := exec.Query(ctx, "posts", clauses)
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/hugr-lab/queryspec-go"
	"github.com/hugr-lab/queryspec-go/expr"
)

// Executor runs compiled clauses against one DuckDB database.
// Safe for concurrent use; database/sql pools connections.
type Executor struct {
	db  *sql.DB
	enc *expr.SQLEncoder
}

// NewExecutor creates an executor over db. opts configures SQL rendering
// (column mapping, the full-text match function); nil uses defaults.
func NewExecutor(db *sql.DB, opts *expr.EncoderOptions) *Executor {
	return &Executor{db: db, enc: expr.NewSQLEncoder(opts)}
}

// Query runs a SELECT over the table with the clauses' filter, order, and
// window applied. columns selects the projected columns; empty means all.
func (e *Executor) Query(ctx context.Context, table string, clauses *queryspec.Clauses, columns ...string) (*sql.Rows, error) {
	query := e.selectStatement(table, clauses, columns)
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("duckdb: querying %s: %w", table, err)
	}
	return rows, nil
}

// Count returns the number of rows matching the clauses' filter. The order
// and window are ignored: the count covers the whole filtered set.
func (e *Executor) Count(ctx context.Context, table string, clauses *queryspec.Clauses) (int64, error) {
	query := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s",
		quoteTable(table), e.enc.Encode(clauses.Filter))
	var n int64
	if err := e.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("duckdb: counting %s: %w", table, err)
	}
	return n, nil
}

// selectStatement renders the full SELECT for the clauses.
func (e *Executor) selectStatement(table string, clauses *queryspec.Clauses, columns []string) string {
	projection := "*"
	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, c := range columns {
			quoted[i] = expr.QuoteIdentifier(c)
		}
		projection = strings.Join(quoted, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE %s",
		projection, quoteTable(table), e.enc.Encode(clauses.Filter))
	if order := e.enc.EncodeOrder(clauses.Order); order != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(order)
	}
	if window := e.enc.EncodeWindow(clauses.Window.Limit, clauses.Window.Offset); window != "" {
		b.WriteString(" ")
		b.WriteString(window)
	}
	return b.String()
}

// quoteTable quotes a possibly schema-qualified table name.
func quoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = expr.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}
