// Package bigquery exports completed documents to a BigQuery dataset for
// offline analytics. The export is additive and idempotent: a document whose
// transactions are already present is skipped.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"

	"github.com/avdeev/scanledger/internal/store"
)

const transactionsTable = "transactions"

// TransactionExportRow is the analytics-facing shape of a transaction.
type TransactionExportRow struct {
	TransactionID int64      `bigquery:"transaction_id"`
	DocumentID    int64      `bigquery:"document_id"`
	UserID        int64      `bigquery:"user_id"`
	Date          civil.Date `bigquery:"transaction_date"`
	Description   string     `bigquery:"description"`
	Amount        float64    `bigquery:"amount"`
	Type          string     `bigquery:"type"`
	FileName      string     `bigquery:"file_name"`
}

// Exporter writes completed documents to BigQuery.
type Exporter struct {
	projectID string
	dataset   string
	log       zerolog.Logger
}

// NewExporter creates an exporter for the given project and dataset.
func NewExporter(projectID, dataset string, log zerolog.Logger) *Exporter {
	return &Exporter{projectID: projectID, dataset: dataset, log: log}
}

// ExportDocument pushes a document's transactions to the analytics table.
// Re-exporting the same document is a no-op.
func (e *Exporter) ExportDocument(ctx context.Context, doc *store.Document) error {
	if len(doc.Transactions) == 0 {
		return nil
	}

	client, err := bigquery.NewClient(ctx, e.projectID)
	if err != nil {
		return fmt.Errorf("ExportDocument: bigquery client: %w", err)
	}
	defer client.Close()

	exported, err := e.alreadyExported(ctx, client, doc.ID)
	if err != nil {
		return err
	}
	if exported {
		e.log.Debug().Int64("document_id", doc.ID).Msg("document already exported, skipping")
		return nil
	}

	rows := make([]*TransactionExportRow, 0, len(doc.Transactions))
	for _, tx := range doc.Transactions {
		rows = append(rows, &TransactionExportRow{
			TransactionID: tx.ID,
			DocumentID:    doc.ID,
			UserID:        tx.UserID,
			Date:          civil.DateOf(tx.Date),
			Description:   tx.Description,
			Amount:        tx.Amount,
			Type:          string(tx.Type),
			FileName:      doc.FileName,
		})
	}

	inserter := client.Dataset(e.dataset).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("ExportDocument: inserting %d rows: %w", len(rows), err)
	}

	e.log.Info().Int64("document_id", doc.ID).Int("rows", len(rows)).Msg("document exported")
	return nil
}

// alreadyExported checks whether any rows exist for the document.
func (e *Exporter) alreadyExported(ctx context.Context, client *bigquery.Client, documentID int64) (bool, error) {
	q := client.Query(fmt.Sprintf(
		"SELECT COUNT(*) AS n FROM `%s.%s.%s` WHERE document_id = @document_id",
		e.projectID, e.dataset, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "document_id", Value: documentID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return false, fmt.Errorf("alreadyExported: running query: %w", err)
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil {
		if err == iterator.Done {
			return false, nil
		}
		return false, fmt.Errorf("alreadyExported: reading result: %w", err)
	}
	return row.N > 0, nil
}
