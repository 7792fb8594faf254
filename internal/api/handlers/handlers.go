// Package handlers implements the HTTP endpoints: document upload and
// retrieval, plus job status for the async processing path.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/avdeev/scanledger/internal/api/middleware"
	"github.com/avdeev/scanledger/internal/jobs"
	"github.com/avdeev/scanledger/internal/objstore"
	"github.com/avdeev/scanledger/internal/pipeline"
	"github.com/avdeev/scanledger/internal/store"
)

// DocumentReader is the read/delete slice of the store the API needs beyond
// what the pipeline itself uses.
type DocumentReader interface {
	EnsureUser(ctx context.Context, email string) (*store.User, error)
	GetDocument(ctx context.Context, documentID int64) (*store.Document, error)
	ListDocuments(ctx context.Context, userID int64) ([]*store.Document, error)
	DeleteDocument(ctx context.Context, documentID int64) error
}

// DocumentsHandler serves the /api/documents endpoints.
type DocumentsHandler struct {
	processor      *pipeline.Processor
	objects        objstore.Store
	publisher      jobs.Publisher
	reader         DocumentReader
	log            zerolog.Logger
	userEmail      string
	maxUploadBytes int64
}

// NewDocumentsHandler wires the documents endpoints. publisher may be nil,
// which disables the async path and processes every upload inline.
func NewDocumentsHandler(processor *pipeline.Processor, objects objstore.Store, publisher jobs.Publisher, reader DocumentReader, log zerolog.Logger, userEmail string, maxUploadBytes int64) *DocumentsHandler {
	return &DocumentsHandler{
		processor:      processor,
		objects:        objects,
		publisher:      publisher,
		reader:         reader,
		log:            log,
		userEmail:      userEmail,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload handles POST /api/documents. The multipart field "file" carries the
// document. With ?mode=async the upload is stored and a job is enqueued;
// otherwise the pipeline runs inline and the completed document is returned.
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}
	if len(data) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "uploaded file is empty")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if r.URL.Query().Get("mode") == "async" && h.publisher != nil {
		h.uploadAsync(ctx, w, header.Filename, contentType, data)
		return
	}

	res, err := h.processor.Process(ctx, pipeline.Upload{
		FileName:    header.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		h.writeStageFailure(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"document":       res.Document,
		"confidence":     res.Confidence,
		"degraded":       res.Degraded,
		"rejected_count": res.RejectedCount,
	})
}

// uploadAsync stores the bytes and enqueues a processing job.
func (h *DocumentsHandler) uploadAsync(ctx context.Context, w http.ResponseWriter, fileName, contentType string, data []byte) {
	objectName := uuid.NewString() + filepath.Ext(fileName)
	uri, err := h.objects.Upload(ctx, objectName, contentType, data)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to store upload")
		middleware.WriteError(w, http.StatusBadGateway, "failed to store upload")
		return
	}

	job := &jobs.ProcessDocumentJob{
		FileName:    fileName,
		ContentType: contentType,
		ObjectURI:   uri,
	}
	if err := h.publisher.PublishProcessDocument(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue processing job")
		middleware.WriteError(w, http.StatusInternalServerError, "failed to enqueue processing job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("uri", uri).Msg("Processing job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":     job.JobID,
		"object_uri": uri,
		"status":     string(job.Status),
	})
}

// Get handles GET /api/documents/{id}.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := h.reader.GetDocument(r.Context(), id)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "document not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, doc)
}

// List handles GET /api/documents.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.reader.EnsureUser(ctx, h.userEmail)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to resolve user")
		middleware.WriteError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	docs, err := h.reader.ListDocuments(ctx, user.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list documents")
		middleware.WriteError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"count":     len(docs),
	})
}

// Delete handles DELETE /api/documents/{id}. Transactions cascade.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	if err := h.reader.DeleteDocument(r.Context(), id); err != nil {
		h.log.Error().Err(err).Int64("document_id", id).Msg("Failed to delete document")
		middleware.WriteError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeStageFailure maps a pipeline failure to an HTTP response carrying the
// failed stage, so callers can distinguish storage faults from model faults.
func (h *DocumentsHandler) writeStageFailure(w http.ResponseWriter, err error) {
	var sf *pipeline.StageFailure
	if !errors.As(err, &sf) {
		h.log.Error().Err(err).Msg("Document processing failed")
		middleware.WriteError(w, http.StatusInternalServerError, "document processing failed")
		return
	}

	h.log.Error().Err(sf.Err).Str("stage", string(sf.Stage)).Msg("Document processing failed")

	status := http.StatusBadGateway
	if sf.Stage == pipeline.StagePersist {
		status = http.StatusInternalServerError
	}
	middleware.WriteJSON(w, status, map[string]string{
		"stage": string(sf.Stage),
		"error": sf.Err.Error(),
	})
}

// JobsHandler serves the /api/jobs endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// Get handles GET /api/jobs/{id}.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// List handles GET /api/jobs.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{Status: jobs.JobStatus(query.Get("status"))}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}

// Router assembles the full API surface.
func Router(docs *DocumentsHandler, jobsHandler *JobsHandler, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/documents", func(r chi.Router) {
			r.Post("/", docs.Upload)
			r.Get("/", docs.List)
			r.Get("/{id}", docs.Get)
			r.Delete("/{id}", docs.Delete)
		})
		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", jobsHandler.List)
			r.Get("/{id}", jobsHandler.Get)
		})
	})

	return r
}
