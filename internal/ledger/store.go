package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound reports an unknown session id.
var ErrNotFound = errors.New("session not found")

// Session is one recorded host run.
type Session struct {
	ID             string
	DescriptorPath string
	Address        string
	PID            int
	Objects        []string
	StartedAt      time.Time
	StoppedAt      *time.Time
}

// Active reports whether the host has not recorded a stop.
func (s Session) Active() bool {
	return s.StoppedAt == nil
}

// Store persists host sessions in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the ledger database at path and applies
// migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordStart inserts a new active session.
func (s *Store) RecordStart(ctx context.Context, session Session) error {
	if session.ID == "" {
		return errors.New("record session: id is required")
	}
	objects, err := json.Marshal(nonNil(session.Objects))
	if err != nil {
		return fmt.Errorf("encode objects: %w", err)
	}
	started := session.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO host_sessions (id, descriptor_path, address, pid, objects_json, started_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.DescriptorPath,
		session.Address,
		session.PID,
		string(objects),
		started.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// RecordStop marks a session as stopped.
func (s *Store) RecordStop(ctx context.Context, id string, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE host_sessions SET stopped_at = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Get fetches one session by id.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, descriptor_path, address, pid, objects_json, started_at, stopped_at
         FROM host_sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return session, err
}

// List returns the most recent sessions first. A limit of zero or less
// returns every session.
func (s *Store) List(ctx context.Context, limit int) ([]Session, error) {
	query := `SELECT id, descriptor_path, address, pid, objects_json, started_at, stopped_at
         FROM host_sessions ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var (
		session   Session
		objects   string
		startedAt string
		stoppedAt sql.NullString
	)
	if err := row.Scan(&session.ID, &session.DescriptorPath, &session.Address, &session.PID,
		&objects, &startedAt, &stoppedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if err := json.Unmarshal([]byte(objects), &session.Objects); err != nil {
		return nil, fmt.Errorf("decode objects for %s: %w", session.ID, err)
	}
	started, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at for %s: %w", session.ID, err)
	}
	session.StartedAt = started
	if stoppedAt.Valid {
		stopped, err := time.Parse(time.RFC3339Nano, stoppedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse stopped_at for %s: %w", session.ID, err)
		}
		session.StoppedAt = &stopped
	}
	return &session, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
