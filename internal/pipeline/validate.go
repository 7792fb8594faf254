package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/avdeev/scanledger/internal/extract"
	"github.com/avdeev/scanledger/internal/store"
)

const (
	// MaxDescriptionLen is the persisted description limit in runes.
	MaxDescriptionLen = 255

	// PlaceholderDescription replaces a missing or empty description.
	PlaceholderDescription = "Unrecognized transaction"

	// EmptyBatchDescription marks the synthetic transaction created when
	// extraction produced nothing persistable.
	EmptyBatchDescription = "No transactions detected"
)

// FieldStatus is the outcome of resolving a single untrusted field.
type FieldStatus int

const (
	// FieldOK means the original value was usable as-is.
	FieldOK FieldStatus = iota

	// FieldRecovered means the value was invalid and a deterministic
	// fallback was substituted.
	FieldRecovered

	// FieldDropped means the value was invalid and has no safe fallback;
	// the whole candidate is discarded.
	FieldDropped
)

// ValidationResult is the outcome of validating one candidate batch.
type ValidationResult struct {
	Accepted      []store.Transaction
	RejectedCount int
	Warnings      []string
}

// ValidateCandidates converts the model's untrusted candidates into
// persistable transactions. Every field failure except amount is recovered
// with a deterministic fallback; a candidate with an unusable amount is
// dropped, since a transaction with an invented amount is worse than none.
// The result is never empty: an empty or fully rejected batch yields exactly
// one synthetic placeholder so a document is never persisted with zero
// transactions.
func ValidateCandidates(cands []extract.Candidate, defaultCategoryID, userID int64, now time.Time) ValidationResult {
	var res ValidationResult

	for i, c := range cands {
		amount, amountStatus := resolveAmount(c.Amount)
		if amountStatus == FieldDropped {
			res.RejectedCount++
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("candidate %d dropped: amount %v is not a usable number", i, c.Amount))
			continue
		}

		typ, typeStatus := resolveType(c.Type)
		date, dateStatus := resolveDate(c.Date, now)
		desc, descStatus := resolveDescription(c.Description)

		for _, fr := range []struct {
			field  string
			status FieldStatus
		}{
			{"amount", amountStatus},
			{"type", typeStatus},
			{"date", dateStatus},
			{"description", descStatus},
		} {
			if fr.status == FieldRecovered {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("candidate %d: %s recovered with fallback", i, fr.field))
			}
		}

		res.Accepted = append(res.Accepted, store.Transaction{
			Date:        date,
			Description: desc,
			Amount:      amount,
			Type:        typ,
			CategoryID:  defaultCategoryID,
			UserID:      userID,
		})
	}

	if len(res.Accepted) == 0 {
		res.Accepted = append(res.Accepted, store.Transaction{
			Date:        now,
			Description: EmptyBatchDescription,
			Amount:      0,
			Type:        store.TypeExpense,
			CategoryID:  defaultCategoryID,
			UserID:      userID,
		})
	}

	return res
}

// resolveAmount coerces the amount field to a finite non-negative float64.
// Numeric-looking strings are parsed before giving up. There is no fallback:
// an unusable amount drops the candidate.
func resolveAmount(v any) (float64, FieldStatus) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, FieldDropped
		}
		f = parsed
	case string:
		s := strings.TrimSpace(val)
		s = strings.TrimLeft(s, "$€£")
		s = strings.ReplaceAll(s, ",", "")
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, FieldDropped
		}
		f = parsed
	default:
		return 0, FieldDropped
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, FieldDropped
	}
	if f < 0 {
		return -f, FieldRecovered
	}
	return f, FieldOK
}

// resolveType accepts exactly INCOME or EXPENSE; anything else is coerced to
// EXPENSE, the conservative reading of an unknown direction.
func resolveType(v any) (store.TransactionType, FieldStatus) {
	if s, ok := v.(string); ok {
		switch store.TransactionType(s) {
		case store.TypeIncome:
			return store.TypeIncome, FieldOK
		case store.TypeExpense:
			return store.TypeExpense, FieldOK
		}
	}
	return store.TypeExpense, FieldRecovered
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
	"01/02/2006",
	"2 January 2006",
	"January 2, 2006",
	"02 Jan 2006",
}

// resolveDate parses the date field; an unparseable or invalid calendar date
// falls back to the processing date.
func resolveDate(v any, now time.Time) (time.Time, FieldStatus) {
	switch val := v.(type) {
	case time.Time:
		return val, FieldOK
	case string:
		s := strings.TrimSpace(val)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, FieldOK
			}
		}
	}
	return now, FieldRecovered
}

// resolveDescription accepts a non-empty string, truncated to the persisted
// limit; anything else becomes the placeholder.
func resolveDescription(v any) (string, FieldStatus) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return PlaceholderDescription, FieldRecovered
	}
	runes := []rune(s)
	if len(runes) > MaxDescriptionLen {
		return string(runes[:MaxDescriptionLen]), FieldOK
	}
	return s, FieldOK
}
