package notionsync

import (
	"strconv"
	"time"

	"github.com/jomei/notionapi"

	"github.com/avdeev/scanledger/internal/store"
)

// TransactionToProperties converts a persisted transaction to the Notion
// property set. The "Transaction ID" title is the idempotency key.
func TransactionToProperties(tx store.Transaction, fileName string) notionapi.Properties {
	props := notionapi.Properties{
		"Transaction ID": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: strconv.FormatInt(tx.ID, 10),
					},
				},
			},
		},
		"Amount": notionapi.NumberProperty{
			Number: tx.Amount,
		},
		"Type": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(tx.Type),
			},
		},
	}

	if tx.Description != "" {
		props["Description"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.Description,
					},
				},
			},
		}
	}

	if !tx.Date.IsZero() {
		d := notionapi.Date(time.Date(
			tx.Date.Year(), tx.Date.Month(), tx.Date.Day(),
			0, 0, 0, 0, time.UTC,
		))
		props["Date"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &d},
		}
	}

	if fileName != "" {
		props["Source Document"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: fileName,
					},
				},
			},
		}
	}

	return props
}

// extractTransactionID pulls the idempotency key back out of a Notion page.
func extractTransactionID(page notionapi.Page) string {
	prop, ok := page.Properties["Transaction ID"]
	if !ok {
		return ""
	}
	title, ok := prop.(*notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 {
		return ""
	}
	return title.Title[0].PlainText
}
