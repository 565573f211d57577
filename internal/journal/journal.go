// Package journal keeps the durable history of a kota workspace in SQLite:
// sessions, every action the engine handled, and operator memory notes.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/xdg/kota/internal/clog"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("journal closed")

// Journal is a SQLite-backed action history.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at path and applies pending
// migrations. Use ":memory:" for a throwaway journal.
func Open(path string) (*Journal, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// Single connection: SQLite serializes writers anyway, and :memory:
	// databases are per-connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal migration failed: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

func (j *Journal) conn() (*sql.DB, error) {
	if j == nil || j.db == nil {
		return nil, ErrClosed
	}
	return j.db, nil
}

// Session is one run of the interactive loop or a one-shot apply.
type Session struct {
	ID        string
	Workdir   string
	StartedAt time.Time
	EndedAt   time.Time // zero while running
	ExitCode  int
}

// StartSession records a new session and returns it.
func (j *Journal) StartSession(ctx context.Context, workdir string) (Session, error) {
	db, err := j.conn()
	if err != nil {
		return Session{}, err
	}
	s := Session{ID: uuid.NewString(), Workdir: workdir, StartedAt: time.Now().UTC()}
	_, err = db.ExecContext(ctx,
		`INSERT INTO sessions (id, workdir, started_at) VALUES (?, ?, ?)`,
		s.ID, s.Workdir, s.StartedAt,
	)
	if err != nil {
		return Session{}, fmt.Errorf("start session: %w", err)
	}
	return s, nil
}

// EndSession stamps the session's end time and exit code.
func (j *Journal) EndSession(ctx context.Context, id string, exitCode int) error {
	db, err := j.conn()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ?, exit_code = ? WHERE id = ?`,
		time.Now().UTC(), exitCode, id,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// Sessions returns the most recent sessions, newest first.
func (j *Journal) Sessions(ctx context.Context, limit int) ([]Session, error) {
	db, err := j.conn()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, workdir, started_at, ended_at, exit_code
		 FROM sessions ORDER BY rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		var ended sql.NullTime
		var code sql.NullInt64
		if err := rows.Scan(&s.ID, &s.Workdir, &s.StartedAt, &ended, &code); err != nil {
			return nil, err
		}
		s.EndedAt = ended.Time
		s.ExitCode = int(code.Int64)
		out = append(out, s)
	}
	return out, rows.Err()
}

// ActionKind groups journal entries.
type ActionKind string

const (
	ActionEdit    ActionKind = "edit"
	ActionCommand ActionKind = "command"
	ActionVerb    ActionKind = "verb"
	ActionAgent   ActionKind = "agent"
)

// Action is one handled edit, command or verb.
type Action struct {
	ID        string
	SessionID string
	Kind      ActionKind
	Subject   string // command line or file path
	Status    string
	Detail    string
	ExitCode  int
	Commit    string
	CreatedAt time.Time
}

// Record stores a. ID and CreatedAt are filled in when empty.
func (j *Journal) Record(ctx context.Context, a Action) (Action, error) {
	db, err := j.conn()
	if err != nil {
		return Action{}, err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO actions (id, session_id, kind, subject, status, detail, exit_code, commit_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SessionID, string(a.Kind), a.Subject, a.Status, a.Detail, a.ExitCode, a.Commit, a.CreatedAt,
	)
	if err != nil {
		return Action{}, fmt.Errorf("record action: %w", err)
	}
	return a, nil
}

// Filter narrows Actions. Zero values match everything.
type Filter struct {
	SessionID string
	Kind      ActionKind
	Limit     int
}

// Actions returns matching actions, newest first.
func (j *Journal) Actions(ctx context.Context, f Filter) ([]Action, error) {
	db, err := j.conn()
	if err != nil {
		return nil, err
	}
	var where []string
	var args []any
	if f.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	query := `SELECT id, session_id, kind, subject, status, detail, exit_code, commit_hash, created_at FROM actions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var out []Action
	for rows.Next() {
		var a Action
		var kind string
		if err := rows.Scan(&a.ID, &a.SessionID, &kind, &a.Subject, &a.Status, &a.Detail, &a.ExitCode, &a.Commit, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Kind = ActionKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Note is an operator memory note.
type Note struct {
	ID        int64
	SessionID string
	Text      string
	CreatedAt time.Time
}

// AddNote stores a memory note.
func (j *Journal) AddNote(ctx context.Context, sessionID, text string) (Note, error) {
	db, err := j.conn()
	if err != nil {
		return Note{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Note{}, errors.New("empty note")
	}
	n := Note{SessionID: sessionID, Text: text, CreatedAt: time.Now().UTC()}
	res, err := db.ExecContext(ctx,
		`INSERT INTO notes (session_id, text, created_at) VALUES (?, ?, ?)`,
		n.SessionID, n.Text, n.CreatedAt,
	)
	if err != nil {
		return Note{}, fmt.Errorf("add note: %w", err)
	}
	if n.ID, err = res.LastInsertId(); err != nil {
		clog.Debug("journal: note id unavailable: %v", err)
	}
	return n, nil
}

// Notes returns the most recent notes, newest first.
func (j *Journal) Notes(ctx context.Context, limit int) ([]Note, error) {
	return j.queryNotes(ctx, `SELECT id, session_id, text, created_at FROM notes
		ORDER BY id DESC LIMIT ?`, limit)
}

// SearchNotes returns notes containing query, case-insensitively.
func (j *Journal) SearchNotes(ctx context.Context, query string, limit int) ([]Note, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"
	return j.queryNotes(ctx, `SELECT id, session_id, text, created_at FROM notes
		WHERE lower(text) LIKE ? ESCAPE '\' ORDER BY id DESC LIMIT ?`, limit, pattern)
}

func (j *Journal) queryNotes(ctx context.Context, query string, limit int, args ...any) ([]Note, error) {
	db, err := j.conn()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, query, append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.SessionID, &n.Text, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
