// Package clog is kota's operational log, kept apart from what the operator
// sees on the terminal (internal/term).
//
// Records fan out to up to three slog handlers: the log file (every record at
// or above the configured level), stderr (warnings and errors, off in daemon
// mode) and the systemd journal when enabled.
package clog

import (
	"log/slog"
	"strings"
)

// Level is a log severity. Values line up with slog so handlers can compare
// them directly.
type Level slog.Level

const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

var levelNames = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
	"err":     LevelError,
}

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
	}
	return "UNKNOWN"
}

func (l Level) slogLevel() slog.Level { return slog.Level(l) }

// fromSlog snaps an arbitrary slog level down to the nearest named Level.
func fromSlog(l slog.Level) Level {
	for _, named := range []Level{LevelError, LevelWarn, LevelInfo} {
		if l >= slog.Level(named) {
			return named
		}
	}
	return LevelDebug
}

// ParseLevel maps a config name onto a Level. Unknown names mean info.
func ParseLevel(s string) Level {
	if l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l
	}
	return LevelInfo
}
