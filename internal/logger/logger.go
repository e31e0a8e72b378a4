// Package logger provides level-gated standard loggers.
package logger

import (
	"io"
	"log"
	"strings"
)

type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func ParseLevel(lvl string) Level {
	switch strings.ToUpper(strings.TrimSpace(lvl)) {
	case "DEBUG":
		return LevelDebug
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelDebug:
		return "debug"
	}
	return "info"
}

// Logger holds one logger per level. Loggers above the configured level
// write to io.Discard, so callers never need to check the level themselves.
type Logger struct {
	Error *log.Logger
	Warn  *log.Logger
	Info  *log.Logger
	Debug *log.Logger
	level Level
}

func New(w io.Writer, level Level) *Logger {
	flags := log.Ldate | log.Ltime
	if level >= LevelDebug {
		flags |= log.Lshortfile
	}
	gate := func(l Level) io.Writer {
		if level >= l {
			return w
		}
		return io.Discard
	}
	return &Logger{
		Error: log.New(w, "ERROR: ", flags),
		Warn:  log.New(gate(LevelWarn), "WARN: ", flags),
		Info:  log.New(gate(LevelInfo), "INFO: ", flags),
		Debug: log.New(gate(LevelDebug), "DEBUG: ", flags),
		level: level,
	}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, LevelError)
}

func (l *Logger) Level() Level { return l.level }
