// Package extract submits cleaned document text to an LLM and returns the
// model's structured transaction list. The model response is untrusted: field
// types and values are passed through as-is for the validation pass to sort
// out, and only a malformed top-level shape is an error.
package extract

import "context"

// Candidate is one transaction as emitted by the extraction model. No field
// is trusted to match its nominal type; every field may be absent, wrongly
// typed or out of range.
type Candidate struct {
	Date        any
	Description any
	Amount      any
	Type        any
	Category    any
}

// Analysis is the full extraction result for one document.
type Analysis struct {
	Transactions []Candidate

	// Summary carries whatever aggregate fields the model chose to return.
	Summary map[string]any
}

// Service analyzes cleaned document text.
type Service interface {
	Analyze(ctx context.Context, text string) (*Analysis, error)
}
