package migrate

import (
	"context"
	"fmt"

	"github.com/onyx-go/pawql"
)

// StatusEntry describes one registered migration's applied state, as
// returned by Runner.Status.
type StatusEntry struct {
	Name  string
	Ran   bool
	Batch int
}

// Runner owns the tracking table and batch arithmetic for a Registry. It
// bypasses the query builder entirely, talking to the driver directly
// with raw SQL and the DDL renderer, the same way the migration helper
// does.
type Runner struct {
	driver    pawql.Driver
	registry  *Registry
	tableName string
}

// RunnerOption configures a Runner at construction time.
type RunnerOption func(*Runner)

// WithTrackingTable overrides the default "migrations" tracking table name.
func WithTrackingTable(name string) RunnerOption {
	return func(r *Runner) { r.tableName = name }
}

// NewRunner builds a Runner over driver and registry.
func NewRunner(driver pawql.Driver, registry *Registry, opts ...RunnerOption) *Runner {
	r := &Runner{driver: driver, registry: registry, tableName: "migrations"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) helper(ctx context.Context) *Helper {
	return &Helper{ctx: ctx, driver: r.driver}
}

// ensureTrackingTable creates the tracking table if it does not already
// exist. It is hand-rendered rather than built from a TableSchema
// because the package's column model has no auto-increment primary key
// case, which the tracking table's "id" column needs.
func (r *Runner) ensureTrackingTable(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  id SERIAL PRIMARY KEY,
  name TEXT UNIQUE NOT NULL,
  batch INTEGER NOT NULL,
  executed_at TIMESTAMP NOT NULL DEFAULT now()
)`, quoteTrackingIdent(r.tableName))
	if _, err := r.driver.Exec(ctx, stmt, nil); err != nil {
		return &pawql.MigrationError{Message: "failed to create tracking table", Err: err}
	}
	return nil
}

func quoteTrackingIdent(name string) string {
	return `"` + name + `"`
}

// executedBatches returns name -> batch for every tracking row.
func (r *Runner) executedBatches(ctx context.Context) (map[string]int, error) {
	stmt := fmt.Sprintf(`SELECT name, batch FROM %s ORDER BY batch, name`, quoteTrackingIdent(r.tableName))
	res, err := r.driver.Exec(ctx, stmt, nil)
	if err != nil {
		return nil, &pawql.MigrationError{Message: "failed to read tracking table", Err: err}
	}
	out := make(map[string]int, len(res.Rows))
	for _, row := range res.Rows {
		name, _ := row["name"].(string)
		batch, _ := toInt(row["batch"])
		out[name] = batch
	}
	return out, nil
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

func (r *Runner) nextBatch(ctx context.Context) (int, error) {
	stmt := fmt.Sprintf(`SELECT COALESCE(MAX(batch), 0) + 1 AS next FROM %s`, quoteTrackingIdent(r.tableName))
	res, err := r.driver.Exec(ctx, stmt, nil)
	if err != nil {
		return 0, &pawql.MigrationError{Message: "failed to compute next batch", Err: err}
	}
	if len(res.Rows) == 0 {
		return 1, nil
	}
	n, _ := toInt(res.Rows[0]["next"])
	if n == 0 {
		n = 1
	}
	return n, nil
}

func (r *Runner) maxBatch(ctx context.Context) (int, error) {
	stmt := fmt.Sprintf(`SELECT COALESCE(MAX(batch), 0) AS max FROM %s`, quoteTrackingIdent(r.tableName))
	res, err := r.driver.Exec(ctx, stmt, nil)
	if err != nil {
		return 0, &pawql.MigrationError{Message: "failed to compute max batch", Err: err}
	}
	if len(res.Rows) == 0 {
		return 0, nil
	}
	n, _ := toInt(res.Rows[0]["max"])
	return n, nil
}

// Up ensures the tracking table exists, then applies every pending
// migration (registered names not yet in the tracking table) in
// lexicographic order under one freshly-computed batch number. It does
// not wrap the batch in its own transaction: every statement runs on the
// Runner's driver as given, so the batch is all-or-nothing only when that
// driver is itself transaction-bound, such as the one a Driver's
// RunTransaction passes to its callback (policy: explicit for the
// migration author, §4.6).
func (r *Runner) Up(ctx context.Context) ([]string, error) {
	if err := r.ensureTrackingTable(ctx); err != nil {
		return nil, err
	}
	executed, err := r.executedBatches(ctx)
	if err != nil {
		return nil, err
	}

	var pending []string
	for _, name := range r.registry.Names() {
		if _, done := executed[name]; !done {
			pending = append(pending, name)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	batch, err := r.nextBatch(ctx)
	if err != nil {
		return nil, err
	}

	h := r.helper(ctx)
	var applied []string
	for _, name := range pending {
		mod, ok := r.registry.module(name)
		if !ok {
			return applied, &pawql.MigrationError{Name: name, Message: "registered name vanished mid-run"}
		}
		if err := mod.Up(h); err != nil {
			return applied, &pawql.MigrationError{Name: name, Message: "up() failed", Err: err}
		}
		insertStmt := fmt.Sprintf(`INSERT INTO %s (name, batch) VALUES ($1, $2)`, quoteTrackingIdent(r.tableName))
		if _, err := r.driver.Exec(ctx, insertStmt, []interface{}{name, batch}); err != nil {
			return applied, &pawql.MigrationError{Name: name, Message: "failed to record migration", Err: err}
		}
		applied = append(applied, name)
	}
	return applied, nil
}

// Down rolls back every migration recorded in the most recent batch,
// invoking each module's Down in reverse-name order, then deleting its
// tracking row. If no batch exists, it is a no-op.
func (r *Runner) Down(ctx context.Context) ([]string, error) {
	names, err := r.batchMembers(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}

	h := r.helper(ctx)
	var rolledBack []string
	for i := len(names) - 1; i >= 0; i-- {
		name := names[i]
		mod, ok := r.registry.module(name)
		if !ok {
			return rolledBack, &pawql.MigrationError{Name: name, Message: "no registered module for recorded migration"}
		}
		if err := mod.Down(h); err != nil {
			return rolledBack, &pawql.MigrationError{Name: name, Message: "down() failed", Err: err}
		}
		deleteStmt := fmt.Sprintf(`DELETE FROM %s WHERE name = $1`, quoteTrackingIdent(r.tableName))
		if _, err := r.driver.Exec(ctx, deleteStmt, []interface{}{name}); err != nil {
			return rolledBack, &pawql.MigrationError{Name: name, Message: "failed to remove tracking row", Err: err}
		}
		rolledBack = append(rolledBack, name)
	}
	return rolledBack, nil
}

// DownSteps calls Down repeatedly, up to steps times, stopping early once
// no batch remains. It backs the CLI's --step=N flag.
func (r *Runner) DownSteps(ctx context.Context, steps int) ([]string, error) {
	if steps <= 0 {
		steps = 1
	}
	var all []string
	for i := 0; i < steps; i++ {
		rolledBack, err := r.Down(ctx)
		if err != nil {
			return all, err
		}
		if len(rolledBack) == 0 {
			break
		}
		all = append(all, rolledBack...)
	}
	return all, nil
}

func (r *Runner) batchMembers(ctx context.Context) ([]string, error) {
	batch, err := r.maxBatch(ctx)
	if err != nil {
		return nil, err
	}
	if batch == 0 {
		return nil, nil
	}
	stmt := fmt.Sprintf(`SELECT name FROM %s WHERE batch = $1 ORDER BY name`, quoteTrackingIdent(r.tableName))
	res, err := r.driver.Exec(ctx, stmt, []interface{}{batch})
	if err != nil {
		return nil, &pawql.MigrationError{Message: "failed to read batch members", Err: err}
	}
	names := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		name, _ := row["name"].(string)
		names = append(names, name)
	}
	return names, nil
}

// Status reports every registered migration's applied state.
func (r *Runner) Status(ctx context.Context) ([]StatusEntry, error) {
	if err := r.ensureTrackingTable(ctx); err != nil {
		return nil, err
	}
	executed, err := r.executedBatches(ctx)
	if err != nil {
		return nil, err
	}

	var out []StatusEntry
	for _, name := range r.registry.Names() {
		entry := StatusEntry{Name: name}
		if batch, ran := executed[name]; ran {
			entry.Ran = true
			entry.Batch = batch
		}
		out = append(out, entry)
	}
	return out, nil
}
