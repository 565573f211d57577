package clog

import (
	"io"
	"log/slog"
)

// std backs the package-level helpers. Tests swap it with ReplaceGlobal.
var std = NewLogger()

// Options configure the global logger from the log section of the config.
type Options struct {
	// Path is the log file. Empty keeps file logging off.
	Path  string
	Level Level
	// Daemon drops the stderr sink.
	Daemon bool
	// Journal adds the systemd journal sink.
	Journal bool
}

// Configure applies opts to the global logger. An unavailable journal is
// logged as a warning and does not fail configuration.
func Configure(opts Options) error {
	std.SetLevel(opts.Level)
	std.SetDaemonMode(opts.Daemon)
	if opts.Path != "" {
		f, err := OpenLogFile(opts.Path)
		if err != nil {
			return err
		}
		std.SetFileOutput(f)
	}
	if opts.Journal {
		if err := std.EnableJournal(); err != nil {
			Warn("journal logging unavailable: %v", err)
		}
	}
	return nil
}

func SetLevel(level Level) { std.SetLevel(level) }

func SetFileOutput(w io.Writer) { std.SetFileOutput(w) }

func SetErrOutput(w io.Writer) { std.SetErrOutput(w) }

// Slog exposes the global logger for structured attributes.
func Slog() *slog.Logger { return std.Slog() }

func Debug(format string, args ...any) { std.Debug(format, args...) }
func Info(format string, args ...any) { std.Info(format, args...) }
func Warn(format string, args ...any) { std.Warn(format, args...) }
func Error(format string, args ...any) { std.Error(format, args...) }

// Close flushes and closes the log file, if one is open. main calls it on
// the way out.
func Close() error {
	std.mu.Lock()
	defer std.mu.Unlock()
	c, ok := std.fileWriter.(io.Closer)
	if !ok {
		return nil
	}
	return c.Close()
}

// Reset restores a fresh global logger writing warnings to stderr.
func Reset() { std = NewLogger() }

// Discard silences the global logger.
func Discard() {
	std.SetFileOutput(nil)
	std.SetErrOutput(nil)
}

// TestLogger returns a logger that writes every level to w and nothing to
// stderr.
func TestLogger(w io.Writer) *Logger {
	l := NewLogger()
	l.SetErrOutput(nil)
	l.SetFileOutput(w)
	l.SetLevel(LevelDebug)
	return l
}

// ReplaceGlobal installs l and returns the logger it replaced.
func ReplaceGlobal(l *Logger) *Logger {
	prev := std
	std = l
	return prev
}
