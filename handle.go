package pawql

import (
	"context"
	"strconv"
	"time"
)

// nowFunc is the wall-clock source used by SoftDelete; overridable in
// tests.
var nowFunc = time.Now

// Handle ties together an immutable schema, a driver, and the optional
// overlays (logger, soft-delete) that every query and DDL operation goes
// through. Handle.Query(table) returns a fresh Builder whose terminal
// methods execute against the driver.
type Handle struct {
	schema     *Schema
	driver     Driver
	softDelete *softDeleteOverlay
}

// HandleOption configures a Handle at construction time.
type HandleOption func(*Handle)

// Logged wraps the handle's driver with the given logger.
func Logged(logger Logger) HandleOption {
	return func(h *Handle) {
		h.driver = WithLogger(h.driver, logger)
	}
}

// WithSoftDelete marks the given tables as soft-delete-enabled, using
// column as the timestamp column (defaults to "deleted_at" if empty).
func WithSoftDelete(column string, tables ...string) HandleOption {
	if column == "" {
		column = "deleted_at"
	}
	return func(h *Handle) {
		h.softDelete = newSoftDeleteOverlay(column, tables...)
	}
}

// NewHandle builds a Handle over schema and driver, applying opts in order.
func NewHandle(schema *Schema, driver Driver, opts ...HandleOption) *Handle {
	h := &Handle{schema: schema, driver: driver}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Query returns a fresh Builder bound to this handle, targeting table.
func (h *Handle) Query(table string) *Builder {
	return newBuilder(h, table)
}

// QuerySubquery returns a fresh Builder whose FROM source is inner,
// rendered inline and aliased.
func (h *Handle) QuerySubquery(inner *Builder, alias string) *Builder {
	b := newBuilder(h, "")
	b.source = querySource{subquery: inner, alias: alias}
	return b
}

// CreateTables applies CREATE TABLE IF NOT EXISTS for every table in the
// handle's schema, in the schema's iteration order.
func (h *Handle) CreateTables(ctx context.Context) error {
	for _, name := range h.schema.TableNames() {
		t, _ := h.schema.Table(name)
		stmt, err := renderCreateTable(t)
		if err != nil {
			return err
		}
		if _, err := h.driver.Exec(ctx, stmt, nil); err != nil {
			return newDriverErr("create_tables", stmt, err)
		}
	}
	return nil
}

// Exec runs b, returning the driver's raw Result. Valid for any operation.
func (b *Builder) Exec(ctx context.Context) (Result, error) {
	sql, params, err := b.render()
	if err != nil {
		return Result{}, err
	}
	res, err := b.handle.driver.Exec(ctx, sql, params)
	if err != nil {
		return Result{}, newDriverErr(b.operation.String(), sql, err)
	}
	return res, nil
}

// Get executes a SELECT and returns every matching row.
func (b *Builder) Get(ctx context.Context) ([]map[string]interface{}, error) {
	if b.operation == opUnset {
		b.Select()
	}
	res, err := b.Exec(ctx)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// First executes a SELECT with an implicit LIMIT 1 and returns the sole
// row, or ErrNotFound if none matched.
func (b *Builder) First(ctx context.Context) (map[string]interface{}, error) {
	if b.operation == opUnset {
		b.Select()
	}
	one := 1
	b.limit = &one
	rows, err := b.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Count executes a "filtered cardinality" query: WHERE/joins/soft-delete
// scoping apply, but projection, GROUP BY, HAVING, ORDER BY, LIMIT and
// OFFSET are ignored entirely — this is a deliberate simplification (see
// the package's design notes on the Open Question it resolves), not a
// full aggregate query facility.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	countBuilder := *b
	countBuilder.operation = OpSelect
	countBuilder.projection = []string{"COUNT(*) AS count"}
	countBuilder.groupBy = nil
	countBuilder.having = nil
	countBuilder.orderBy = nil
	countBuilder.limit = nil
	countBuilder.offset = nil

	rows, err := countBuilder.Get(ctx)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	switch v := rows[0]["count"].(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, nil
		}
		return 0, newConfigErr("count", "driver returned non-integer count value %q", v)
	default:
		return 0, newConfigErr("count", "driver returned non-integer count value %T", rows[0]["count"])
	}
}
