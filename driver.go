package pawql

import (
	"context"
	"time"
)

// Result is what a Driver returns from Exec: the rows it produced (for a
// SELECT or a RETURNING clause) and a row count.
type Result struct {
	Rows     []map[string]interface{}
	RowCount int
}

// Driver is the three-method contract the core depends on. Concrete
// implementations (a live Postgres driver, an in-memory recording driver
// for tests) sit behind it; the core never imports database/sql or
// lib/pq directly.
type Driver interface {
	// Exec runs sql with positional $N parameters and returns the rows it
	// produced plus a row count. ctx governs cancellation; a driver must
	// return promptly once ctx is done.
	Exec(ctx context.Context, sql string, params []interface{}) (Result, error)

	// RunTransaction calls fn with a transaction-bound Driver. It must
	// emit BEGIN, run fn, then COMMIT on success or ROLLBACK (re-raising
	// fn's error) on failure — including when ctx is cancelled mid-flight.
	RunTransaction(ctx context.Context, fn func(tx Driver) error) error

	// Close releases any resources held by the driver.
	Close() error
}

// Logger is the single-method hook invoked after every Exec, regardless of
// outcome. It must never panic and never alters the propagated result.
type Logger interface {
	Log(sql string, params []interface{}, elapsed time.Duration)
}

// LoggerFunc adapts a plain function to the Logger interface.
type LoggerFunc func(sql string, params []interface{}, elapsed time.Duration)

func (f LoggerFunc) Log(sql string, params []interface{}, elapsed time.Duration) {
	f(sql, params, elapsed)
}

// loggingDriver wraps a Driver so that every Exec is timed and reported to
// a Logger after the call completes, success or failure. Close passes
// through unmodified; RunTransaction delegates to the wrapped driver and
// wraps the transaction-bound driver it hands to fn, so statements run
// inside a transaction are reported too.
type loggingDriver struct {
	inner  Driver
	logger Logger
}

// WithLogger wraps d so every Exec call is reported to logger after it
// completes.
func WithLogger(d Driver, logger Logger) Driver {
	if logger == nil {
		return d
	}
	return &loggingDriver{inner: d, logger: logger}
}

func (l *loggingDriver) Exec(ctx context.Context, sql string, params []interface{}) (Result, error) {
	start := time.Now()
	res, err := l.inner.Exec(ctx, sql, params)
	l.report(sql, params, time.Since(start))
	return res, err
}

// report invokes the logger and swallows any panic it raises: a
// misbehaving Logger must never alter the outcome already obtained from
// Exec above.
func (l *loggingDriver) report(sql string, params []interface{}, elapsed time.Duration) {
	defer func() { recover() }()
	l.logger.Log(sql, params, elapsed)
}

func (l *loggingDriver) RunTransaction(ctx context.Context, fn func(tx Driver) error) error {
	return l.inner.RunTransaction(ctx, func(tx Driver) error {
		return fn(&loggingDriver{inner: tx, logger: l.logger})
	})
}

func (l *loggingDriver) Close() error {
	return l.inner.Close()
}
