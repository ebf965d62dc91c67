// Package pgdriver implements pawql.Driver against a live PostgreSQL
// connection pool using database/sql and lib/pq.
package pgdriver

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/lib/pq"

	"github.com/onyx-go/pawql"
)

// Driver wraps a *sql.DB opened with the "postgres" driver name.
type Driver struct {
	db *sql.DB
}

// Open opens a connection pool against dsn and pings it once to fail
// fast on a bad DSN or an unreachable server.
func Open(dsn string) (*Driver, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &Driver{db: db}, nil
}

// New wraps an already-configured *sql.DB, e.g. one shared with other
// subsystems or tuned with custom pool settings.
func New(db *sql.DB) *Driver {
	return &Driver{db: db}
}

func (d *Driver) Exec(ctx context.Context, query string, params []interface{}) (pawql.Result, error) {
	return execOn(ctx, d.db, query, params)
}

func (d *Driver) RunTransaction(ctx context.Context, fn func(tx pawql.Driver) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&txDriver{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return rbErr
		}
		return err
	}
	return tx.Commit()
}

func (d *Driver) Close() error {
	return d.db.Close()
}

// txDriver is the transaction-bound Driver handed to RunTransaction's
// callback. It cannot itself open a nested transaction; nested
// transactions are flattened at the pawql.Handle level.
type txDriver struct {
	tx *sql.Tx
}

func (t *txDriver) Exec(ctx context.Context, query string, params []interface{}) (pawql.Result, error) {
	return execOn(ctx, t.tx, query, params)
}

func (t *txDriver) RunTransaction(ctx context.Context, fn func(tx pawql.Driver) error) error {
	return fn(t)
}

func (t *txDriver) Close() error {
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// execOn runs query against e. Statements that can produce rows (SELECT,
// or any statement carrying RETURNING) go through QueryContext so the
// rows materialise into Result.Rows; everything else (DDL, INSERT/
// UPDATE/DELETE without RETURNING) goes through ExecContext, whose
// RowsAffected becomes Result.RowCount with no rows.
func execOn(ctx context.Context, e execer, query string, params []interface{}) (pawql.Result, error) {
	if !producesRows(query) {
		res, err := e.ExecContext(ctx, query, params...)
		if err != nil {
			return pawql.Result{}, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			// some drivers/statements (DDL) don't support RowsAffected
			affected = 0
		}
		return pawql.Result{RowCount: int(affected)}, nil
	}

	rows, err := e.QueryContext(ctx, query, params...)
	if err != nil {
		return pawql.Result{}, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return pawql.Result{}, err
	}

	var out []map[string]interface{}
	for rows.Next() {
		scanTargets := make([]interface{}, len(cols))
		scanValues := make([]interface{}, len(cols))
		for i := range scanValues {
			scanTargets[i] = &scanValues[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return pawql.Result{}, err
		}
		record := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			record[col] = scanValues[i]
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return pawql.Result{}, err
	}

	return pawql.Result{Rows: out, RowCount: len(out)}, nil
}

func producesRows(query string) bool {
	trimmed := strings.TrimSpace(query)
	upper := strings.ToUpper(trimmed)
	return strings.HasPrefix(upper, "SELECT") || strings.Contains(upper, "RETURNING")
}
