// Package logging provides a small leveled key/value logger on top of the
// standard library log package.
//
// Output goes to stderr by default so that stdout stays reserved for results
// and for the MCP protocol stream.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel maps "debug", "info", "warn"/"warning" and "error" to a Level.
// Unknown strings fall back to LevelInfo with ok == false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

// Logger writes leveled messages with trailing key=value pairs.
type Logger struct {
	level  Level
	fields string
	logger *log.Logger
}

// New creates a logger writing to stderr with the given prefix.
func New(prefix string, level Level) *Logger {
	return NewWithWriter(os.Stderr, prefix, level)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, prefix string, level Level) *Logger {
	p := ""
	if prefix != "" {
		p = fmt.Sprintf("[%s] ", prefix)
	}
	return &Logger{
		level:  level,
		logger: log.New(w, p, log.Ldate|log.Ltime),
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return NewWithWriter(io.Discard, "", LevelError+1)
}

// With returns a child logger that appends the given pairs to every message.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		level:  l.level,
		fields: l.fields + formatKV(keysAndValues),
		logger: l.logger,
	}
}

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelDebug, msg, keysAndValues)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelInfo, msg, keysAndValues)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelWarn, msg, keysAndValues)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelError, msg, keysAndValues)
}

func (l *Logger) logWithKV(level Level, msg string, keysAndValues []interface{}) {
	if !l.Enabled(level) {
		return
	}
	l.logger.Printf("[%s] %s%s%s", level, msg, l.fields, formatKV(keysAndValues))
}

// formatKV renders pairs as " k=v"; a dangling key is dropped.
func formatKV(keysAndValues []interface{}) string {
	var b strings.Builder
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	return b.String()
}
