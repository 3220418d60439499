// Package logger provides the leveled logger shared by every package.
// Three levels: off, normal (info/warn/error) and verbose (adds debug).
// Child loggers created with Named share the parent's output and level,
// and tag each line with a component name. Safe for concurrent use.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Level controls the verbosity of the logger.
type Level int

const (
	// LevelOff disables all log output.
	LevelOff Level = iota
	// LevelNormal enables info, warn, and error output.
	LevelNormal
	// LevelVerbose enables all output including debug.
	LevelVerbose
)

// shared is the state every Named child points at, so SetLevel on any
// of them affects the whole tree.
type shared struct {
	mu    sync.RWMutex
	level Level
	out   *log.Logger
}

// Logger is a leveled, optionally component-tagged logger.
type Logger struct {
	s         *shared
	component string
}

// New creates a logger with the given level, writing to the given output.
// If out is nil, os.Stderr is used.
func New(level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{
		s: &shared{
			level: level,
			out:   log.New(out, "", log.Ltime),
		},
	}
}

// Named returns a child logger that prefixes lines with the component.
func (l *Logger) Named(component string) *Logger {
	name := component
	if l.component != "" {
		name = l.component + "." + component
	}
	return &Logger{s: l.s, component: name}
}

// SetLevel changes the log level at runtime for this logger and all of
// its Named relatives.
func (l *Logger) SetLevel(level Level) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.level = level
}

// GetLevel returns the current log level.
func (l *Logger) GetLevel() Level {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return l.s.level
}

// Debug logs a message at debug level (only visible in verbose mode).
func (l *Logger) Debug(format string, args ...any) {
	l.emit(LevelVerbose, "DBG", format, args)
}

// Info logs a message at info level.
func (l *Logger) Info(format string, args ...any) {
	l.emit(LevelNormal, "INF", format, args)
}

// Warn logs a message at warn level.
func (l *Logger) Warn(format string, args ...any) {
	l.emit(LevelNormal, "WRN", format, args)
}

// Error logs a message at error level.
func (l *Logger) Error(format string, args ...any) {
	l.emit(LevelNormal, "ERR", format, args)
}

func (l *Logger) emit(min Level, tag, format string, args []any) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	if l.s.level < min {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.component != "" {
		msg = "[" + tag + "] " + l.component + ": " + msg
	} else {
		msg = "[" + tag + "] " + msg
	}
	l.s.out.Output(3, msg)
}
