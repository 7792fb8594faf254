// Package store persists documents, transactions, categories and users in an
// embedded SQLite database. It is the downstream boundary of the pipeline:
// the orchestrator hands it validated records and it assigns identities and
// enforces per-user category uniqueness.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	email      TEXT NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS categories (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name    TEXT NOT NULL,
	type    TEXT NOT NULL CHECK (type IN ('INCOME', 'EXPENSE')),
	UNIQUE (user_id, name)
);

CREATE TABLE IF NOT EXISTS documents (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	file_name  TEXT NOT NULL,
	file_type  TEXT NOT NULL,
	file_size  INTEGER NOT NULL,
	object_uri TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'PENDING'
	           CHECK (status IN ('PENDING', 'PROCESSING', 'COMPLETED', 'ERROR')),
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS transactions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	date        TIMESTAMP NOT NULL,
	description TEXT NOT NULL,
	amount      REAL NOT NULL,
	type        TEXT NOT NULL CHECK (type IN ('INCOME', 'EXPENSE')),
	category_id INTEGER NOT NULL REFERENCES categories(id),
	user_id     INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_transactions_document ON transactions(document_id);
CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id);
`

// Store wraps the shared database handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and applies
// the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("Open: open database at %s: %w", path, err)
	}

	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent uploads.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("Open: ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("Open: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
