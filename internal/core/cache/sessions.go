package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Session is an admin login session row backing the operator API's
// POST /auth/login: one row per issued JWT, so logout and expiry can
// revoke it independent of the token's own expiry claim.
type Session struct {
	Token     string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s *Store) CreateSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, username, created_at, expires_at) VALUES (?, ?, ?, ?)
	`, sess.Token, sess.Username, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return fmt.Errorf("cache: create session: %w", err)
	}
	return nil
}

// GetSession returns the session if present and not expired.
func (s *Store) GetSession(ctx context.Context, token string) (Session, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT token, username, created_at, expires_at FROM sessions WHERE token = ?`, token)

	var sess Session
	err := row.Scan(&sess.Token, &sess.Username, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("cache: get session: %w", err)
	}
	if sess.ExpiresAt.Before(nowUTC()) {
		return Session{}, false, nil
	}
	return sess, true, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("cache: delete session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions removes stale rows; called on a schedule by the
// worker alongside the feed-refresh cron. The expires_at index keeps
// this cheap.
func (s *Store) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, nowUTC())
	if err != nil {
		return 0, fmt.Errorf("cache: purge expired sessions: %w", err)
	}
	return res.RowsAffected()
}
