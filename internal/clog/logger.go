package clog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

// Logger handles leveled logging with support for multiple outputs.
// Outputs are slog handlers combined with slogmulti.Fanout; the handler
// chain is rebuilt whenever an output setting changes.
type Logger struct {
	mu         sync.Mutex
	level      *slog.LevelVar
	fileWriter io.Writer // always receives logs at or above level
	errWriter  io.Writer // receives warn/error in CLI mode, nil in daemon mode
	daemonMode bool      // when true, errWriter is ignored
	journal    slog.Handler
	slogger    *slog.Logger
}

// NewLogger creates a new logger with default settings.
// By default, logs go to stderr at Info level.
func NewLogger() *Logger {
	l := &Logger{
		level:     new(slog.LevelVar),
		errWriter: os.Stderr,
	}
	l.level.Set(slog.LevelInfo)
	l.rebuild()
	return l
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level.Set(level.slogLevel())
}

// SetFileOutput sets the file writer for log output.
// Pass nil to disable file logging.
func (l *Logger) SetFileOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fileWriter = w
	l.rebuild()
}

// SetErrOutput sets the stderr writer for warn/error output in CLI mode.
// Pass nil to disable stderr logging.
func (l *Logger) SetErrOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errWriter = w
	l.rebuild()
}

// SetDaemonMode enables or disables daemon mode.
// In daemon mode, logs only go to the file writer, not stderr.
func (l *Logger) SetDaemonMode(daemon bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.daemonMode = daemon
	l.rebuild()
}

// EnableJournal adds the systemd journal as an additional sink.
// Returns an error if the journal socket is unavailable; the logger is
// left unchanged in that case.
func (l *Logger) EnableJournal() error {
	h, err := slogjournal.NewHandler(&slogjournal.Options{
		ReplaceGroup: func(key string) string {
			return toJournalKey(key)
		},
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			a.Key = toJournalKey(a.Key)
			return a
		},
	})
	if err != nil {
		return fmt.Errorf("open systemd journal: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.journal = h
	l.rebuild()
	return nil
}

// Slog returns the underlying slog.Logger for callers that want
// structured attributes instead of printf-style messages.
func (l *Logger) Slog() *slog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slogger
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

// log formats the message and hands it to the handler chain.
func (l *Logger) log(level Level, format string, args ...any) {
	l.mu.Lock()
	sl := l.slogger
	l.mu.Unlock()

	sl.Log(context.Background(), level.slogLevel(), fmt.Sprintf(format, args...))
}

// rebuild recreates the fan-out handler. Caller must hold l.mu.
func (l *Logger) rebuild() {
	var handlers []slog.Handler
	if l.fileWriter != nil {
		handlers = append(handlers, &lineHandler{w: l.fileWriter, min: l.level, timestamp: true})
	}
	if !l.daemonMode && l.errWriter != nil {
		handlers = append(handlers, &lineHandler{w: l.errWriter, min: warnFloor{l.level}})
	}
	if l.journal != nil {
		handlers = append(handlers, l.journal)
	}
	l.slogger = slog.New(slogmulti.Fanout(handlers...))
}

// warnFloor reports the configured level but never below Warn.
type warnFloor struct {
	level slog.Leveler
}

func (w warnFloor) Level() slog.Level {
	return max(w.level.Level(), slog.LevelWarn)
}

// lineHandler writes one "<timestamp> [LEVEL] message key=value" line per record.
type lineHandler struct {
	mu        sync.Mutex
	w         io.Writer
	min       slog.Leveler
	timestamp bool
	attrs     []slog.Attr
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min.Level()
}

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	if h.timestamp {
		ts := r.Time
		if ts.IsZero() {
			ts = time.Now()
		}
		b.WriteString(ts.UTC().Format(time.RFC3339))
		b.WriteByte(' ')
	}
	b.WriteString("[")
	b.WriteString(fromSlog(r.Level).String())
	b.WriteString("] ")
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &lineHandler{w: h.w, min: h.min, timestamp: h.timestamp, attrs: merged}
}

func (h *lineHandler) WithGroup(_ string) slog.Handler {
	return h
}

func writeAttr(b *strings.Builder, a slog.Attr) {
	b.WriteByte(' ')
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(a.Value.String())
}

func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
}

// OpenLogFile opens a log file for writing, creating parent directories if needed.
// The file is opened in append mode.
func OpenLogFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return f, nil
}

// StateDir returns the kota state directory following XDG conventions.
// Returns ~/.local/state/kota unless XDG_STATE_HOME is set.
func StateDir() string {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "kota")
}

// DefaultLogPath returns the default log file path.
// Returns ~/.local/state/kota/kota.log
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "kota.log")
}
