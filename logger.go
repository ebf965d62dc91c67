package pawql

import (
	"github.com/onyx-go/pawql/internal/logging"
)

// NewSQLLogger builds a Logger that renders every Exec call through driver
// at the given level — internal/logging.NewCharmDriver for a colorized
// terminal, internal/logging.NewTextDriver for a dependency-free option.
func NewSQLLogger(driver logging.Driver, level logging.Level) Logger {
	return logging.NewSQLLogger(driver, level)
}
