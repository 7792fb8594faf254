package store

import (
	"context"
	"fmt"
)

// CreateDocument inserts a new document row in PENDING status and assigns
// its identity.
func (s *Store) CreateDocument(ctx context.Context, doc *Document) error {
	if doc.Status == "" {
		doc.Status = DocumentPending
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (file_name, file_type, file_size, object_uri, status, user_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		doc.FileName, doc.FileType, doc.FileSize, doc.ObjectURI, string(doc.Status), doc.UserID)
	if err != nil {
		return fmt.Errorf("CreateDocument: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("CreateDocument: last insert id: %w", err)
	}
	doc.ID = id
	return nil
}

// SetDocumentStatus moves a document to the given status. ERROR is terminal:
// a document already in ERROR is never moved out of it.
func (s *Store) SetDocumentStatus(ctx context.Context, documentID int64, status DocumentStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ? WHERE id = ? AND status != ?`,
		string(status), documentID, string(DocumentError))
	if err != nil {
		return fmt.Errorf("SetDocumentStatus: %w", err)
	}
	return nil
}

// SaveTransactions persists the document's transactions and flips the
// document to COMPLETED in a single database transaction: either the whole
// graph lands or none of it does.
func (s *Store) SaveTransactions(ctx context.Context, documentID int64, txs []Transaction) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("SaveTransactions: begin: %w", err)
	}
	defer dbtx.Rollback()

	for _, t := range txs {
		_, err := dbtx.ExecContext(ctx,
			`INSERT INTO transactions (date, description, amount, type, category_id, user_id, document_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.Date, t.Description, t.Amount, string(t.Type), t.CategoryID, t.UserID, documentID)
		if err != nil {
			return fmt.Errorf("SaveTransactions: insert transaction: %w", err)
		}
	}

	_, err = dbtx.ExecContext(ctx,
		`UPDATE documents SET status = ? WHERE id = ? AND status != ?`,
		string(DocumentCompleted), documentID, string(DocumentError))
	if err != nil {
		return fmt.Errorf("SaveTransactions: update document: %w", err)
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("SaveTransactions: commit: %w", err)
	}
	return nil
}

// GetDocument loads a document together with the transactions it owns.
func (s *Store) GetDocument(ctx context.Context, documentID int64) (*Document, error) {
	var doc Document
	err := s.db.QueryRowContext(ctx,
		`SELECT id, file_name, file_type, file_size, object_uri, status, user_id, created_at
		 FROM documents WHERE id = ?`, documentID).
		Scan(&doc.ID, &doc.FileName, &doc.FileType, &doc.FileSize, &doc.ObjectURI,
			&doc.Status, &doc.UserID, &doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("GetDocument: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, description, amount, type, category_id, user_id, document_id
		 FROM transactions WHERE document_id = ? ORDER BY id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("GetDocument: transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Date, &t.Description, &t.Amount, &t.Type,
			&t.CategoryID, &t.UserID, &t.DocumentID); err != nil {
			return nil, fmt.Errorf("GetDocument: scan transaction: %w", err)
		}
		doc.Transactions = append(doc.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetDocument: iterate transactions: %w", err)
	}

	return &doc, nil
}

// ListDocuments returns the user's documents, newest first, without their
// transactions.
func (s *Store) ListDocuments(ctx context.Context, userID int64) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_name, file_type, file_size, object_uri, status, user_id, created_at
		 FROM documents WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListDocuments: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.FileName, &doc.FileType, &doc.FileSize,
			&doc.ObjectURI, &doc.Status, &doc.UserID, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListDocuments: scan: %w", err)
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListDocuments: iterate: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document; its transactions go with it via the
// ON DELETE CASCADE foreign key.
func (s *Store) DeleteDocument(ctx context.Context, documentID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, documentID)
	if err != nil {
		return fmt.Errorf("DeleteDocument: %w", err)
	}
	return nil
}

// CountTransactions reports how many transactions a document owns.
func (s *Store) CountTransactions(ctx context.Context, documentID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE document_id = ?`, documentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountTransactions: %w", err)
	}
	return n, nil
}
