// The worker binary watches an inbox directory and runs every file dropped
// there through the ingestion pipeline. Processed files are moved to a done
// directory, failed ones to a failed directory.
package main

import (
	"context"
	"flag"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/avdeev/scanledger/internal/config"
	"github.com/avdeev/scanledger/internal/export/bigquery"
	"github.com/avdeev/scanledger/internal/extract"
	"github.com/avdeev/scanledger/internal/logger"
	"github.com/avdeev/scanledger/internal/objstore"
	"github.com/avdeev/scanledger/internal/ocr"
	"github.com/avdeev/scanledger/internal/pipeline"
	"github.com/avdeev/scanledger/internal/store"
)

func main() {
	var (
		inbox    = flag.String("inbox", "inbox", "directory to watch for documents")
		done     = flag.String("done", "processed", "directory for processed documents")
		failed   = flag.String("failed", "failed", "directory for documents that could not be processed")
		interval = flag.Duration("interval", 10*time.Second, "poll interval")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.GCSBucket == "" {
		log.Fatal().Msg("GCS_BUCKET is required")
	}

	for _, dir := range []string{*inbox, *done, *failed} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("Failed to create directory")
		}
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

	var exporter *bigquery.Exporter
	if cfg.BigQueryProject != "" {
		exporter = bigquery.NewExporter(cfg.BigQueryProject, cfg.BigQueryDataset, log)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down")
		cancel()
	}()

	log.Info().Str("inbox", *inbox).Dur("interval", *interval).Msg("Worker started")

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		sweep(ctx, log, processor, exporter, *inbox, *done, *failed)

		select {
		case <-ctx.Done():
			log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
		}
	}
}

func sweep(ctx context.Context, log zerolog.Logger, processor *pipeline.Processor, exporter *bigquery.Exporter, inbox, done, failed string) {
	entries, err := os.ReadDir(inbox)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read inbox")
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		path := filepath.Join(inbox, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error().Err(err).Str("file", entry.Name()).Msg("Failed to read file")
			continue
		}

		contentType := mime.TypeByExtension(filepath.Ext(entry.Name()))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		res, err := processor.Process(ctx, pipeline.Upload{
			FileName:    entry.Name(),
			ContentType: contentType,
			Data:        data,
		})
		if err != nil {
			log.Error().Err(err).Str("file", entry.Name()).Msg("Processing failed")
			moveTo(log, path, failed, entry.Name())
			continue
		}

		if exporter != nil && !res.Degraded {
			if err := exporter.ExportDocument(ctx, res.Document); err != nil {
				log.Error().Err(err).Int64("document_id", res.Document.ID).Msg("Analytics export failed")
			}
		}

		log.Info().Str("file", entry.Name()).Int64("document_id", res.Document.ID).
			Int("transactions", len(res.Document.Transactions)).
			Float64("confidence", res.Confidence).
			Msg("Document processed")
		moveTo(log, path, done, entry.Name())
	}
}

func moveTo(log zerolog.Logger, path, dir, name string) {
	if err := os.Rename(path, filepath.Join(dir, name)); err != nil {
		log.Error().Err(err).Str("file", name).Msg("Failed to move file")
	}
}
