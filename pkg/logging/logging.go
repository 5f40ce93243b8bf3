// Package logging builds the charmbracelet logger every burrow entry point
// shares, so CLI runs, the serve loop, and embedded use all log the same way.
package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ErrInvalidLevel is returned when a level string is not recognized.
var ErrInvalidLevel = errors.New("invalid log level")

// Config selects the output shape for a burrow logger.
type Config struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// JSON switches to machine-readable line output.
	JSON bool
	// Prefix tags every line with a subsystem name.
	Prefix string
}

// ParseLevel maps a config string to a log level.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return log.InfoLevel, nil
	case "debug":
		return log.DebugLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	}
	return log.InfoLevel, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// New builds a logger writing to w. An unparseable level falls back to info
// rather than failing: logging config must never stop a run.
func New(w io.Writer, cfg Config) *log.Logger {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	formatter := log.TextFormatter
	if cfg.JSON {
		formatter = log.JSONFormatter
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          cfg.Prefix,
	})
}

// Nop returns a logger that discards everything. It is the default for
// library embedding, where the caller owns observability.
func Nop() *log.Logger {
	return log.New(io.Discard)
}
