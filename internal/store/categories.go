package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DefaultCategoryName is the lazily created per-user category that absorbs
// transactions the extraction model left unclassified.
const DefaultCategoryName = "Uncategorized"

// EnsureCategory returns the category with the given (userID, name),
// creating it on first use. On a uniqueness conflict during the insert the
// now-existing row is re-read and returned, so concurrent first-time
// initialization resolves to a single surviving row.
func (s *Store) EnsureCategory(ctx context.Context, userID int64, name string, typ TransactionType) (*Category, error) {
	c, err := s.findCategory(ctx, userID, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("EnsureCategory: lookup: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, type) VALUES (?, ?, ?)`,
		userID, name, string(typ))
	if err != nil {
		if isUniqueViolation(err) {
			return s.findCategory(ctx, userID, name)
		}
		return nil, fmt.Errorf("EnsureCategory: insert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("EnsureCategory: last insert id: %w", err)
	}
	return &Category{ID: id, UserID: userID, Name: name, Type: typ}, nil
}

// EnsureDefaultCategory returns the user's "Uncategorized" expense category,
// creating it on first use.
func (s *Store) EnsureDefaultCategory(ctx context.Context, userID int64) (*Category, error) {
	return s.EnsureCategory(ctx, userID, DefaultCategoryName, TypeExpense)
}

func (s *Store) findCategory(ctx context.Context, userID int64, name string) (*Category, error) {
	var c Category
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, type FROM categories WHERE user_id = ? AND name = ?`,
		userID, name).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Type)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountCategories reports how many categories the user has.
func (s *Store) CountCategories(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountCategories: %w", err)
	}
	return n, nil
}
