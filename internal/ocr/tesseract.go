package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Options configures the Tesseract engine.
type Options struct {
	// Language is the trained-data language code, e.g. "eng".
	Language string

	// Whitelist restricts recognition to the given characters. Empty means
	// no restriction.
	Whitelist string

	// PageSegMode is the Tesseract page segmentation mode. Mode 6 (a single
	// uniform block of text) works well for statement tables.
	PageSegMode int
}

// TesseractFactory creates Tesseract-backed engines with fixed options.
type TesseractFactory struct {
	opts Options
}

// NewTesseractFactory creates a factory for Tesseract engines.
func NewTesseractFactory(opts Options) *TesseractFactory {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	return &TesseractFactory{opts: opts}
}

// NewEngine creates a fresh Tesseract client. The caller owns the engine and
// must Close it.
func (f *TesseractFactory) NewEngine() (Engine, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage(f.opts.Language); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("NewEngine: set language: %w", err)
	}
	if f.opts.Whitelist != "" {
		if err := client.SetWhitelist(f.opts.Whitelist); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("NewEngine: set whitelist: %w", err)
		}
	}
	if f.opts.PageSegMode != 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(f.opts.PageSegMode)); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("NewEngine: set page seg mode: %w", err)
		}
	}

	return &tesseractEngine{client: client}, nil
}

type tesseractEngine struct {
	client *gosseract.Client
}

// Recognize runs Tesseract over the image and reports the recognized text
// with the mean word confidence.
func (e *tesseractEngine) Recognize(ctx context.Context, image []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := e.client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("Recognize: set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return nil, fmt.Errorf("Recognize: extract text: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("Recognize: word confidences: %w", err)
	}
	confidences := make([]float64, 0, len(boxes))
	for _, b := range boxes {
		confidences = append(confidences, b.Confidence)
	}

	return &Result{
		Text:       text,
		Confidence: meanConfidence(confidences),
	}, nil
}

func (e *tesseractEngine) Close() error {
	return e.client.Close()
}

// meanConfidence averages per-word confidences into the 0-100 document score.
// An image with no recognized words scores zero.
func meanConfidence(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
