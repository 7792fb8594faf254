// Package ocr defines the optical character recognition boundary of the
// pipeline. Engines are scoped to a single request: acquired from a Factory,
// used once, and closed on every exit path.
package ocr

import "context"

// LowConfidenceThreshold is the recognition confidence (0-100) below which
// the pipeline logs a warning. Low confidence never blocks processing.
const LowConfidenceThreshold = 50.0

// Result is the raw output of one OCR invocation.
type Result struct {
	// Text is the recognized text before any correction.
	Text string

	// Confidence is the engine's self-reported certainty, 0-100.
	Confidence float64
}

// Engine recognizes text in a document image.
type Engine interface {
	// Recognize extracts text from the given image bytes.
	Recognize(ctx context.Context, image []byte) (*Result, error)

	// Close releases the engine's native resources.
	Close() error
}

// Factory creates request-scoped engines.
type Factory interface {
	NewEngine() (Engine, error)
}
