// Package logging provides the small SQL-statement logging surface the
// migrate CLI and library callers wire underneath pawql's exec hook. It is
// deliberately thin: one entry shape, one driver contract, and the two
// drivers the rest of the module actually uses.
package logging

import "time"

// Level is the severity an Entry was logged at.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is one executed SQL statement, as reported after the fact by
// pawql.WithLogger's hook.
type Entry struct {
	SQL     string
	Params  []interface{}
	Elapsed time.Duration
	Level   Level
	Time    time.Time
}

// Driver renders a single Entry to some backend.
type Driver interface {
	Write(Entry) error
}

// SQLLogger adapts a Driver to pawql's single-method Logger hook, so every
// Exec call on a wrapped Driver turns into one Entry written through d.
type SQLLogger struct {
	driver Driver
	level  Level
}

// NewSQLLogger builds a SQLLogger writing every entry to driver at level.
func NewSQLLogger(driver Driver, level Level) *SQLLogger {
	return &SQLLogger{driver: driver, level: level}
}

// Log implements pawql.Logger. It must never panic — pawql.WithLogger
// recovers around it regardless, but drivers are expected to report write
// failures to themselves (stderr, a counter) rather than raise.
func (s *SQLLogger) Log(sql string, params []interface{}, elapsed time.Duration) {
	s.driver.Write(Entry{
		SQL:     sql,
		Params:  params,
		Elapsed: elapsed,
		Level:   s.level,
		Time:    time.Now(),
	})
}
