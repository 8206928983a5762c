package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Charm writes leveled, structured log messages through charmbracelet/log.
type Charm struct {
	l *log.Logger
}

// NewCharm creates a logger writing to w (stderr when nil) at the given
// level: debug, info, warn or error.
func NewCharm(w io.Writer, level string) *Charm {
	if w == nil {
		w = os.Stderr
	}
	return &Charm{l: log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		Prefix:          "interpinfo",
		TimeFormat:      time.RFC3339,
		ReportTimestamp: true,
	})}
}

// ParseLevel maps a level name to a log.Level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Debug logs a debug message.
func (c *Charm) Debug(msg string, args ...any) {
	c.l.Debug(msg, args...)
}

// Info logs an informational message.
func (c *Charm) Info(msg string, args ...any) {
	c.l.Info(msg, args...)
}

// Error logs an error message.
func (c *Charm) Error(msg string, args ...any) {
	c.l.Error(msg, args...)
}
