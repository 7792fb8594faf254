package pipeline

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/avdeev/scanledger/internal/extract"
	"github.com/avdeev/scanledger/internal/store"
)

var testNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func TestValidateCandidates_RecoversEveryFieldButAmount(t *testing.T) {
	cands := []extract.Candidate{
		{Date: "not-a-date", Description: "", Amount: 42.5, Type: "XYZ"},
	}

	res := ValidateCandidates(cands, 7, 3, testNow)

	if len(res.Accepted) != 1 {
		t.Fatalf("expected 1 accepted, got %d", len(res.Accepted))
	}
	if res.RejectedCount != 0 {
		t.Errorf("expected 0 rejected, got %d", res.RejectedCount)
	}

	tx := res.Accepted[0]
	if tx.Amount != 42.5 {
		t.Errorf("expected amount 42.5, got %v", tx.Amount)
	}
	if tx.Type != store.TypeExpense {
		t.Errorf("expected type EXPENSE for unknown type, got %s", tx.Type)
	}
	if !tx.Date.Equal(testNow) {
		t.Errorf("expected processing date fallback, got %v", tx.Date)
	}
	if tx.Description != PlaceholderDescription {
		t.Errorf("expected placeholder description, got %q", tx.Description)
	}
	if tx.CategoryID != 7 || tx.UserID != 3 {
		t.Errorf("expected category 7 user 3, got category %d user %d", tx.CategoryID, tx.UserID)
	}
	if len(res.Warnings) != 3 {
		t.Errorf("expected 3 recovery warnings, got %d: %v", len(res.Warnings), res.Warnings)
	}
}

func TestValidateCandidates_EmptyBatchYieldsPlaceholder(t *testing.T) {
	res := ValidateCandidates(nil, 7, 3, testNow)

	if len(res.Accepted) != 1 {
		t.Fatalf("expected exactly 1 placeholder, got %d", len(res.Accepted))
	}
	if res.RejectedCount != 0 {
		t.Errorf("expected 0 rejected for empty input, got %d", res.RejectedCount)
	}

	tx := res.Accepted[0]
	if tx.Description != EmptyBatchDescription {
		t.Errorf("expected %q, got %q", EmptyBatchDescription, tx.Description)
	}
	if tx.Amount != 0 {
		t.Errorf("expected zero amount, got %v", tx.Amount)
	}
	if tx.Type != store.TypeExpense {
		t.Errorf("expected EXPENSE, got %s", tx.Type)
	}
	if !tx.Date.Equal(testNow) {
		t.Errorf("expected processing date, got %v", tx.Date)
	}
}

func TestValidateCandidates_AllInvalidAmountsYieldPlaceholder(t *testing.T) {
	cands := []extract.Candidate{
		{Amount: "gibberish", Description: "a", Type: "EXPENSE", Date: "2024-01-01"},
		{Amount: nil, Description: "b", Type: "INCOME", Date: "2024-01-02"},
		{Amount: math.NaN(), Description: "c", Type: "EXPENSE", Date: "2024-01-03"},
	}

	res := ValidateCandidates(cands, 7, 3, testNow)

	if res.RejectedCount != 3 {
		t.Errorf("expected 3 rejected, got %d", res.RejectedCount)
	}
	if len(res.Accepted) != 1 || res.Accepted[0].Description != EmptyBatchDescription {
		t.Fatalf("expected single placeholder, got %+v", res.Accepted)
	}
}

func TestValidateCandidates_MixedBatch(t *testing.T) {
	cands := []extract.Candidate{
		{Date: "2024-03-12", Description: "Coffee", Amount: 4.5, Type: "EXPENSE"},
		{Date: "2024-03-13", Description: "Salary", Amount: "bad", Type: "INCOME"},
		{Date: "2024-03-14", Description: "Refund", Amount: -12.0, Type: "INCOME"},
	}

	res := ValidateCandidates(cands, 7, 3, testNow)

	if len(res.Accepted) != 2 {
		t.Fatalf("expected 2 accepted, got %d", len(res.Accepted))
	}
	if res.RejectedCount != 1 {
		t.Errorf("expected 1 rejected, got %d", res.RejectedCount)
	}
	if res.Accepted[0].Description != "Coffee" {
		t.Errorf("expected first accepted to be Coffee, got %q", res.Accepted[0].Description)
	}
	if res.Accepted[1].Amount != 12.0 {
		t.Errorf("expected negative amount recovered as 12.0, got %v", res.Accepted[1].Amount)
	}
}

func TestResolveAmount(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   float64
		status FieldStatus
	}{
		{"float", 42.5, 42.5, FieldOK},
		{"int", 10, 10, FieldOK},
		{"numeric string", "12.34", 12.34, FieldOK},
		{"string with commas", "1,500.00", 1500, FieldOK},
		{"string with currency", "$99.95", 99.95, FieldOK},
		{"negative recovered", -5.0, 5.0, FieldRecovered},
		{"nan dropped", math.NaN(), 0, FieldDropped},
		{"inf dropped", math.Inf(1), 0, FieldDropped},
		{"nil dropped", nil, 0, FieldDropped},
		{"non-numeric string dropped", "forty", 0, FieldDropped},
		{"bool dropped", true, 0, FieldDropped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, status := resolveAmount(tt.in)
			if status != tt.status {
				t.Fatalf("expected status %v, got %v", tt.status, status)
			}
			if status != FieldDropped && got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestResolveType(t *testing.T) {
	tests := []struct {
		in     any
		want   store.TransactionType
		status FieldStatus
	}{
		{"INCOME", store.TypeIncome, FieldOK},
		{"EXPENSE", store.TypeExpense, FieldOK},
		{"income", store.TypeExpense, FieldRecovered},
		{"XYZ", store.TypeExpense, FieldRecovered},
		{nil, store.TypeExpense, FieldRecovered},
		{42, store.TypeExpense, FieldRecovered},
	}

	for _, tt := range tests {
		got, status := resolveType(tt.in)
		if got != tt.want || status != tt.status {
			t.Errorf("resolveType(%v) = %s, %v; want %s, %v", tt.in, got, status, tt.want, tt.status)
		}
	}
}

func TestResolveDate(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   time.Time
		status FieldStatus
	}{
		{"iso", "2024-03-12", time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), FieldOK},
		{"long form", "March 12, 2024", time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), FieldOK},
		{"garbage", "not-a-date", testNow, FieldRecovered},
		{"impossible calendar date", "2024-02-31", testNow, FieldRecovered},
		{"nil", nil, testNow, FieldRecovered},
		{"number", 20240312, testNow, FieldRecovered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, status := resolveDate(tt.in, testNow)
			if status != tt.status {
				t.Fatalf("expected status %v, got %v", tt.status, status)
			}
			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestResolveDescription(t *testing.T) {
	long := strings.Repeat("x", 300)

	tests := []struct {
		name   string
		in     any
		want   string
		status FieldStatus
	}{
		{"normal", "Coffee shop", "Coffee shop", FieldOK},
		{"truncated", long, long[:MaxDescriptionLen], FieldOK},
		{"empty", "", PlaceholderDescription, FieldRecovered},
		{"whitespace only", "   ", PlaceholderDescription, FieldRecovered},
		{"nil", nil, PlaceholderDescription, FieldRecovered},
		{"non-string", 42, PlaceholderDescription, FieldRecovered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, status := resolveDescription(tt.in)
			if got != tt.want || status != tt.status {
				t.Errorf("expected %q/%v, got %q/%v", tt.want, tt.status, got, status)
			}
		})
	}
}
