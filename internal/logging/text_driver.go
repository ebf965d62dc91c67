package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// TextDriver writes one plain-text line per Entry, with no third-party
// dependency — the option for library consumers who don't want
// charmbracelet/log's terminal styling pulled into their binary.
type TextDriver struct {
	w io.Writer
}

// NewTextDriver creates a TextDriver writing to w (os.Stderr if nil).
func NewTextDriver(w io.Writer) *TextDriver {
	if w == nil {
		w = os.Stderr
	}
	return &TextDriver{w: w}
}

func (d *TextDriver) Write(e Entry) error {
	_, err := fmt.Fprintf(d.w, "[%s] %s -- %v params=%v\n",
		strings.ToUpper(e.Level.String()), e.SQL, e.Elapsed, e.Params)
	return err
}
