package logging

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// CharmDriver renders entries through charmbracelet/log, giving the
// migration CLI the same leveled, colorized terminal output its peers in
// this ecosystem use instead of hand-rolled ANSI escapes.
type CharmDriver struct {
	logger *charmlog.Logger
}

// NewCharmDriver creates a driver writing to w (os.Stderr if nil).
func NewCharmDriver(w io.Writer) *CharmDriver {
	if w == nil {
		w = os.Stderr
	}
	return &CharmDriver{
		logger: charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
		}),
	}
}

func (cd *CharmDriver) Write(e Entry) error {
	fields := []interface{}{"elapsed", e.Elapsed}
	if len(e.Params) > 0 {
		fields = append(fields, "params", e.Params)
	}

	switch e.Level {
	case Debug:
		cd.logger.Debug(e.SQL, fields...)
	case Warn:
		cd.logger.Warn(e.SQL, fields...)
	case Error:
		cd.logger.Error(e.SQL, fields...)
	default:
		cd.logger.Info(e.SQL, fields...)
	}
	return nil
}
