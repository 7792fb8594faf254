package notionsync

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/avdeev/scanledger/internal/store"
)

// DocumentLister is the store slice the sync reads from.
type DocumentLister interface {
	EnsureUser(ctx context.Context, email string) (*store.User, error)
	ListDocuments(ctx context.Context, userID int64) ([]*store.Document, error)
	GetDocument(ctx context.Context, documentID int64) (*store.Document, error)
}

// Syncer pushes persisted transactions to a Notion database.
type Syncer struct {
	notion     NotionService
	documents  DocumentLister
	databaseID string
	userEmail  string
	log        zerolog.Logger
}

func NewSyncer(notion NotionService, documents DocumentLister, databaseID, userEmail string, log zerolog.Logger) *Syncer {
	return &Syncer{
		notion:     notion,
		documents:  documents,
		databaseID: databaseID,
		userEmail:  userEmail,
		log:        log,
	}
}

// SyncAll pushes every completed document's transactions to Notion. Pages
// whose transaction ID already exists in the database are skipped. With
// dryRun set, nothing is written; the planned creations are only logged.
func (s *Syncer) SyncAll(ctx context.Context, dryRun bool) (created int, err error) {
	user, err := s.documents.EnsureUser(ctx, s.userEmail)
	if err != nil {
		return 0, fmt.Errorf("SyncAll: resolving user: %w", err)
	}

	docs, err := s.documents.ListDocuments(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("SyncAll: listing documents: %w", err)
	}

	existing, err := s.existingTransactionIDs(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int("existing_pages", len(existing)).Int("documents", len(docs)).Bool("dry_run", dryRun).
		Msg("starting Notion sync")

	for _, summary := range docs {
		if summary.Status != store.DocumentCompleted {
			continue
		}
		// Listings omit transactions; load the full document.
		doc, err := s.documents.GetDocument(ctx, summary.ID)
		if err != nil {
			return created, fmt.Errorf("SyncAll: loading document %d: %w", summary.ID, err)
		}

		for _, tx := range doc.Transactions {
			key := strconv.FormatInt(tx.ID, 10)
			if existing[key] {
				continue
			}

			if dryRun {
				s.log.Info().Str("transaction_id", key).Msg("dry run: would create page")
				created++
				continue
			}

			if _, err := s.notion.CreatePage(ctx, s.databaseID, TransactionToProperties(tx, doc.FileName)); err != nil {
				return created, fmt.Errorf("SyncAll: creating page for transaction %s: %w", key, err)
			}
			existing[key] = true
			created++
		}
	}

	s.log.Info().Int("created", created).Msg("Notion sync finished")
	return created, nil
}

// existingTransactionIDs pages through the Notion database and collects the
// transaction IDs already present.
func (s *Syncer) existingTransactionIDs(ctx context.Context) (map[string]bool, error) {
	ids := make(map[string]bool)

	req := &notionapi.DatabaseQueryRequest{PageSize: 100}
	for {
		resp, err := s.notion.QueryDatabase(ctx, s.databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("existingTransactionIDs: %w", err)
		}

		for _, page := range resp.Results {
			if id := extractTransactionID(page); id != "" {
				ids[id] = true
			}
		}

		if !resp.HasMore {
			return ids, nil
		}
		req.StartCursor = resp.NextCursor
	}
}
