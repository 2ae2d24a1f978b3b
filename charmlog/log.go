// Package charmlog provides an implementation of daybook.Logger using charmbracelet/log
package charmlog

import (
	"io"
	"os"
	"time"

	"github.com/benjamonnguyen/daybook"
	"github.com/charmbracelet/log"
)

type Options struct {
	Writer io.Writer
	Level  string
	Prefix string
	// JSON switches from the human-readable text format to one JSON object per line.
	JSON bool
}

func NewLogger(opts Options) daybook.Logger {
	var w io.Writer = os.Stdout
	if opts.Writer != nil {
		w = opts.Writer
	}

	lvl, err := log.ParseLevel(opts.Level)
	if err != nil {
		lvl = log.InfoLevel
	}

	formatter := log.TextFormatter
	if opts.JSON {
		formatter = log.JSONFormatter
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          opts.Prefix,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Formatter:       formatter,
	})
}

// Discard returns a logger that drops everything.
func Discard() daybook.Logger {
	return NewLogger(Options{Writer: io.Discard, Level: "fatal"})
}
