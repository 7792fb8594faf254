// The scan binary processes a single local file through the full pipeline
// and prints the resulting document as JSON. Useful for spot-checking a
// statement before wiring up the API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/avdeev/scanledger/internal/config"
	"github.com/avdeev/scanledger/internal/extract"
	"github.com/avdeev/scanledger/internal/logger"
	"github.com/avdeev/scanledger/internal/objstore"
	"github.com/avdeev/scanledger/internal/ocr"
	"github.com/avdeev/scanledger/internal/pipeline"
	"github.com/avdeev/scanledger/internal/store"
)

func main() {
	file := flag.String("file", "", "document to process (required)")
	flag.Parse()

	log := logger.New()

	if *file == "" {
		log.Fatal().Msg("--file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.GCSBucket == "" {
		log.Fatal().Msg("GCS_BUCKET is required")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read file")
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	engines := ocr.NewTesseractFactory(ocr.Options{
		Language:    cfg.OCRLanguage,
		Whitelist:   cfg.OCRWhitelist,
		PageSegMode: cfg.OCRPageSegMode,
	})
	processor := pipeline.NewProcessor(
		objstore.NewGCSStore(cfg.GCSBucket),
		engines,
		extract.NewGeminiService(cfg.GeminiModel, cfg.LLMTimeout),
		db, log, cfg.OwnerEmail,
	)

	contentType := mime.TypeByExtension(filepath.Ext(*file))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res, err := processor.Process(ctx, pipeline.Upload{
		FileName:    filepath.Base(*file),
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Processing failed")
	}

	log.Info().Int64("document_id", res.Document.ID).
		Float64("confidence", res.Confidence).
		Bool("degraded", res.Degraded).
		Int("rejected", res.RejectedCount).
		Msg("Document processed")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Document); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode result")
	}
}
