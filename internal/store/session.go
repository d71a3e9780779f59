package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// ErrSessionNotFound is returned when a requested session does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Session is one recorded supervisor run.
type Session struct {
	ID        string
	Plugins   []string
	StartTick uint64
	StartedAt time.Time
	EndedAt   *time.Time
}

// SessionStore provides access to recorded sessions.
type SessionStore struct {
	db *sql.DB
}

// Begin inserts a new session row. startTick is the sensor tick the
// recording opened at, read from the host clock.
func (s *SessionStore) Begin(id string, plugins []string, startTick uint64) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, plugins, start_tick) VALUES (?, ?, ?)`,
		id, strings.Join(plugins, ","), startTick,
	)
	return err
}

// End marks a session as finished.
func (s *SessionStore) End(id string) error {
	res, err := s.db.Exec(
		`UPDATE sessions SET ended_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Get returns a session by id.
func (s *SessionStore) Get(id string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT id, plugins, start_tick, started_at, ended_at FROM sessions WHERE id = ?`, id,
	)

	var sess Session
	var plugins string
	var endedAt sql.NullTime
	if err := row.Scan(&sess.ID, &plugins, &sess.StartTick, &sess.StartedAt, &endedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if plugins != "" {
		sess.Plugins = strings.Split(plugins, ",")
	}
	if endedAt.Valid {
		sess.EndedAt = &endedAt.Time
	}
	return &sess, nil
}

// List returns all sessions, newest first.
func (s *SessionStore) List() ([]Session, error) {
	rows, err := s.db.Query(
		`SELECT id, plugins, start_tick, started_at, ended_at FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var plugins string
		var endedAt sql.NullTime
		if err := rows.Scan(&sess.ID, &plugins, &sess.StartTick, &sess.StartedAt, &endedAt); err != nil {
			return nil, err
		}
		if plugins != "" {
			sess.Plugins = strings.Split(plugins, ",")
		}
		if endedAt.Valid {
			sess.EndedAt = &endedAt.Time
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}
