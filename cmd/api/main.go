// The api binary serves the HTTP surface: document upload, retrieval and job
// status. Uploads are processed inline by default, or queued to in-process
// workers with ?mode=async.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avdeev/scanledger/internal/api/handlers"
	"github.com/avdeev/scanledger/internal/config"
	"github.com/avdeev/scanledger/internal/export/bigquery"
	"github.com/avdeev/scanledger/internal/extract"
	"github.com/avdeev/scanledger/internal/jobs"
	"github.com/avdeev/scanledger/internal/jobs/inmemory"
	"github.com/avdeev/scanledger/internal/logger"
	"github.com/avdeev/scanledger/internal/objstore"
	"github.com/avdeev/scanledger/internal/ocr"
	"github.com/avdeev/scanledger/internal/pipeline"
	"github.com/avdeev/scanledger/internal/store"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.GCSBucket == "" {
		log.Fatal().Msg("GCS_BUCKET is required")
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	objects := objstore.NewGCSStore(cfg.GCSBucket)
	engines := ocr.NewTesseractFactory(ocr.Options{
		Language:    cfg.OCRLanguage,
		Whitelist:   cfg.OCRWhitelist,
		PageSegMode: cfg.OCRPageSegMode,
	})
	extractor := extract.NewGeminiService(cfg.GeminiModel, cfg.LLMTimeout)
	processor := pipeline.NewProcessor(objects, engines, extractor, db, log, cfg.OwnerEmail)

	var exporter *bigquery.Exporter
	if cfg.BigQueryProject != "" {
		exporter = bigquery.NewExporter(cfg.BigQueryProject, cfg.BigQueryDataset, log)
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, cfg.WorkerCount, jobStore)
	defer jobQueue.Close()

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		docJob, ok := job.(*jobs.ProcessDocumentJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().Str("job_id", docJob.JobID).Str("uri", docJob.ObjectURI).Msg("Processing document job")

		res, err := processor.ProcessStored(ctx, docJob.FileName, docJob.ContentType, docJob.ObjectURI)
		if err != nil {
			log.Error().Err(err).Str("job_id", docJob.JobID).Msg("Document processing failed")
			return err
		}
		docJob.DocumentID = res.Document.ID

		if exporter != nil && !res.Degraded {
			if err := exporter.ExportDocument(ctx, res.Document); err != nil {
				// Analytics export is best-effort; the document is already persisted.
				log.Error().Err(err).Int64("document_id", res.Document.ID).Msg("Analytics export failed")
			}
		}

		log.Info().Str("job_id", docJob.JobID).Int64("document_id", res.Document.ID).
			Bool("degraded", res.Degraded).Msg("Document processed")
		return nil
	}

	go func() {
		log.Info().Int("workers", cfg.WorkerCount).Msg("Starting job workers")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job workers stopped with error")
		}
	}()

	docsHandler := handlers.NewDocumentsHandler(processor, objects, jobQueue, db, log, cfg.OwnerEmail, cfg.MaxUploadBytes)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.Router(docsHandler, jobsHandler, log),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Minute, // inline processing waits on OCR and the model
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Job queue shutdown failed")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	log.Info().Msg("Shutdown complete")
}
