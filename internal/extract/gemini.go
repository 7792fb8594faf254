package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiService extracts transactions from document text using Gemini.
type GeminiService struct {
	model   string
	timeout time.Duration
}

// NewGeminiService creates a Gemini-backed extraction service. A zero timeout
// disables the per-call deadline.
func NewGeminiService(model string, timeout time.Duration) *GeminiService {
	return &GeminiService{model: model, timeout: timeout}
}

// Analyze sends the cleaned text to Gemini and decodes the JSON response.
func (s *GeminiService) Analyze(ctx context.Context, text string) (*Analysis, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("Analyze: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildExtractionPrompt(text)},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("Analyze: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("Analyze: empty response from model")
	}

	clean := cleanModelJSON(rawText)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("Analyze: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}

	return decodeAnalysis(parsed)
}

// decodeAnalysis maps the generic parsed JSON onto an Analysis. Only the
// top-level shape is checked here; candidate fields stay untyped for the
// validation pass.
func decodeAnalysis(raw map[string]any) (*Analysis, error) {
	txAny, ok := raw["transactions"]
	if !ok {
		return nil, fmt.Errorf("decodeAnalysis: missing 'transactions' key in model output")
	}

	txSlice, ok := txAny.([]any)
	if !ok {
		return nil, fmt.Errorf("decodeAnalysis: 'transactions' is %T, want []any", txAny)
	}

	analysis := &Analysis{
		Transactions: make([]Candidate, 0, len(txSlice)),
	}

	for _, item := range txSlice {
		obj, ok := item.(map[string]any)
		if !ok {
			// A non-object element carries no usable fields; emit an empty
			// candidate and let validation drop it.
			analysis.Transactions = append(analysis.Transactions, Candidate{})
			continue
		}
		analysis.Transactions = append(analysis.Transactions, Candidate{
			Date:        obj["date"],
			Description: obj["description"],
			Amount:      obj["amount"],
			Type:        obj["type"],
			Category:    obj["category"],
		})
	}

	if summary, ok := raw["summary"].(map[string]any); ok {
		analysis.Summary = summary
	}

	return analysis, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk if the model
// ignored the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Keep only from the first '{' to the last '}' if junk remains.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
