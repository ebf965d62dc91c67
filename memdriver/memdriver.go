// Package memdriver implements pawql.Driver as an in-memory table store,
// for unit tests that need a real driver round-trip without a live
// Postgres instance. It understands the small, regular subset of SQL the
// renderer actually produces rather than being a general SQL engine.
package memdriver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/onyx-go/pawql"
)

// Driver is a recording, in-memory Driver: every Exec is parsed against
// a tiny statement grammar and applied to in-memory tables keyed by
// name. It exists purely for tests; it does not implement SQL generally.
type Driver struct {
	mu     sync.Mutex
	tables map[string]*table
	// Execs records every statement passed to Exec, in order, for tests
	// asserting on what the renderer produced.
	Execs []ExecRecord
}

// ExecRecord is one recorded call to Exec.
type ExecRecord struct {
	SQL    string
	Params []interface{}
}

type table struct {
	columns []string
	rows    []map[string]interface{}
}

// New builds an empty Driver.
func New() *Driver {
	return &Driver{tables: make(map[string]*table)}
}

// Seed inserts rows directly into table, bypassing SQL parsing —
// convenient test setup for scenarios that only need to read.
func (d *Driver) Seed(tableName string, rows ...map[string]interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := d.table(tableName)
	t.rows = append(t.rows, rows...)
}

func (d *Driver) table(name string) *table {
	t, ok := d.tables[name]
	if !ok {
		t = &table{}
		d.tables[name] = t
	}
	return t
}

func (d *Driver) Exec(ctx context.Context, sqlText string, params []interface{}) (pawql.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Execs = append(d.Execs, ExecRecord{SQL: sqlText, Params: params})

	stmt := strings.TrimSpace(sqlText)
	upper := strings.ToUpper(stmt)

	switch {
	case strings.HasPrefix(upper, "CREATE TABLE"):
		return pawql.Result{}, d.execCreateTable(stmt)
	case strings.HasPrefix(upper, "SELECT"):
		return d.execSelect(stmt, params)
	case strings.HasPrefix(upper, "INSERT"):
		return d.execInsert(stmt, params)
	case strings.HasPrefix(upper, "UPDATE"):
		return d.execUpdate(stmt, params)
	case strings.HasPrefix(upper, "DELETE"):
		return d.execDelete(stmt, params)
	case strings.HasPrefix(upper, "ALTER TABLE"), strings.HasPrefix(upper, "DROP TABLE"):
		return pawql.Result{}, nil
	default:
		return pawql.Result{}, fmt.Errorf("memdriver: unsupported statement: %s", stmt)
	}
}

func (d *Driver) RunTransaction(ctx context.Context, fn func(tx pawql.Driver) error) error {
	snapshot := d.clone()
	if err := fn(d); err != nil {
		d.restore(snapshot)
		return err
	}
	return nil
}

func (d *Driver) Close() error { return nil }

func (d *Driver) clone() map[string]*table {
	snap := make(map[string]*table, len(d.tables))
	for name, t := range d.tables {
		rowsCopy := make([]map[string]interface{}, len(t.rows))
		for i, r := range t.rows {
			rc := make(map[string]interface{}, len(r))
			for k, v := range r {
				rc[k] = v
			}
			rowsCopy[i] = rc
		}
		colsCopy := make([]string, len(t.columns))
		copy(colsCopy, t.columns)
		snap[name] = &table{columns: colsCopy, rows: rowsCopy}
	}
	return snap
}

func (d *Driver) restore(snapshot map[string]*table) {
	d.tables = snapshot
}

// NextID returns a fresh random UUID string, for tests that need a
// surrogate key without a real SERIAL sequence.
func NextID() string {
	return uuid.NewString()
}
