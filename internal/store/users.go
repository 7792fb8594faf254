package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// EnsureUser returns the user with the given email, creating it on first
// use. Concurrent first-time creation is safe: a uniqueness conflict during
// the insert falls back to re-reading the row the other request created.
func (s *Store) EnsureUser(ctx context.Context, email string) (*User, error) {
	u, err := s.findUser(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("EnsureUser: lookup: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO users (email) VALUES (?)`, email)
	if err != nil {
		if isUniqueViolation(err) {
			return s.findUser(ctx, email)
		}
		return nil, fmt.Errorf("EnsureUser: insert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("EnsureUser: last insert id: %w", err)
	}
	return &User{ID: id, Email: email}, nil
}

func (s *Store) findUser(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
