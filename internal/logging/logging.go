// Package logging builds the shared logger from configuration.
package logging

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/aristath/tasktracker/internal/config"
)

// New constructs a logger writing to w with the configured level and
// format. Unknown levels fall back to info, unknown formats to text.
func New(w io.Writer, cfg config.LogConfig) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           parseLevel(cfg.Level),
		Formatter:       parseFormat(cfg.Format),
		ReportTimestamp: true,
		Prefix:          "tasktracker",
	})
}

func parseLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func parseFormat(format string) log.Formatter {
	switch format {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
