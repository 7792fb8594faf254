package pipeline

import (
	"context"

	"github.com/avdeev/scanledger/internal/store"
)

// DocumentStore is the slice of the persistence store the pipeline needs.
// *store.Store satisfies it; tests substitute mocks.
type DocumentStore interface {
	EnsureUser(ctx context.Context, email string) (*store.User, error)
	EnsureDefaultCategory(ctx context.Context, userID int64) (*store.Category, error)
	CreateDocument(ctx context.Context, doc *store.Document) error
	SetDocumentStatus(ctx context.Context, documentID int64, status store.DocumentStatus) error
	SaveTransactions(ctx context.Context, documentID int64, txs []store.Transaction) error
	GetDocument(ctx context.Context, documentID int64) (*store.Document, error)
}
