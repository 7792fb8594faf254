// Package pipeline orchestrates the document ingestion flow: object upload,
// OCR, text correction, LLM extraction, validation and persistence. Stage
// faults abort with a StageFailure; malformed field values never do, they are
// recovered or dropped during validation.
package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/avdeev/scanledger/internal/extract"
	"github.com/avdeev/scanledger/internal/objstore"
	"github.com/avdeev/scanledger/internal/ocr"
	"github.com/avdeev/scanledger/internal/store"
	"github.com/avdeev/scanledger/internal/textnorm"
)

// Upload is one incoming document.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Result is the outcome of a successful pipeline run.
type Result struct {
	Document *store.Document

	// Confidence is the OCR engine's self-reported certainty, 0-100.
	// Zero for PDFs, which skip recognition.
	Confidence float64

	// Degraded is set when transactions could not be saved but the
	// document itself completed.
	Degraded bool

	// RejectedCount is the number of extraction candidates dropped
	// during validation.
	RejectedCount int
}

// Processor runs the ingestion pipeline.
type Processor struct {
	objects   objstore.Store
	engines   ocr.Factory
	extractor extract.Service
	store     DocumentStore
	log       zerolog.Logger
	userEmail string
}

// NewProcessor wires a Processor from its collaborators. userEmail identifies
// the owning account for every document this processor handles.
func NewProcessor(objects objstore.Store, engines ocr.Factory, extractor extract.Service, st DocumentStore, log zerolog.Logger, userEmail string) *Processor {
	return &Processor{
		objects:   objects,
		engines:   engines,
		extractor: extractor,
		store:     st,
		log:       log,
		userEmail: userEmail,
	}
}

// Process runs one document through the full pipeline. It returns a
// *StageFailure when an external service or the database fails; the caller
// can inspect the failed stage. A persistence failure on the transaction
// batch alone degrades rather than fails: the document completes with no
// transactions and Result.Degraded is set.
func (p *Processor) Process(ctx context.Context, up Upload) (*Result, error) {
	objectName := uuid.NewString() + filepath.Ext(up.FileName)
	uri, err := p.objects.Upload(ctx, objectName, up.ContentType, up.Data)
	if err != nil {
		return nil, failStage(StageStore, err)
	}
	return p.run(ctx, up, uri)
}

// ProcessStored runs the pipeline on a document already written to object
// storage, fetching its bytes by URI. The async worker path uses this after
// the API has accepted the upload.
func (p *Processor) ProcessStored(ctx context.Context, fileName, contentType, uri string) (*Result, error) {
	data, err := p.objects.Fetch(ctx, uri)
	if err != nil {
		return nil, failStage(StageStore, err)
	}
	return p.run(ctx, Upload{FileName: fileName, ContentType: contentType, Data: data}, uri)
}

func (p *Processor) run(ctx context.Context, up Upload, uri string) (*Result, error) {
	log := p.log.With().Str("file", up.FileName).Str("uri", uri).Logger()

	user, err := p.store.EnsureUser(ctx, p.userEmail)
	if err != nil {
		return nil, failStage(StagePersist, err)
	}
	category, err := p.store.EnsureDefaultCategory(ctx, user.ID)
	if err != nil {
		return nil, failStage(StagePersist, err)
	}

	doc := &store.Document{
		FileName:  up.FileName,
		FileType:  up.ContentType,
		FileSize:  int64(len(up.Data)),
		ObjectURI: uri,
		UserID:    user.ID,
	}
	if err := p.store.CreateDocument(ctx, doc); err != nil {
		return nil, failStage(StagePersist, err)
	}
	if err := p.store.SetDocumentStatus(ctx, doc.ID, store.DocumentProcessing); err != nil {
		return nil, failStage(StagePersist, err)
	}

	text, confidence, err := p.recognize(ctx, up)
	if err != nil {
		p.markError(ctx, doc.ID)
		return nil, failStage(StageExtract, err)
	}
	if confidence < ocr.LowConfidenceThreshold && !isPDF(up) {
		log.Warn().Float64("confidence", confidence).Msg("low recognition confidence")
	}

	cleaned := textnorm.Normalize(text)

	analysis, err := p.extractor.Analyze(ctx, cleaned)
	if err != nil {
		p.markError(ctx, doc.ID)
		return nil, failStage(StageAnalyze, err)
	}

	validated := ValidateCandidates(analysis.Transactions, category.ID, user.ID, time.Now().UTC())
	for _, w := range validated.Warnings {
		log.Warn().Msg(w)
	}

	res := &Result{Confidence: confidence, RejectedCount: validated.RejectedCount}

	if err := p.store.SaveTransactions(ctx, doc.ID, validated.Accepted); err != nil {
		log.Error().Err(err).Msg("saving transactions failed, completing document without them")
		if err := p.store.SetDocumentStatus(ctx, doc.ID, store.DocumentCompleted); err != nil {
			p.markError(ctx, doc.ID)
			return nil, failStage(StagePersist, err)
		}
		res.Degraded = true
	}

	final, err := p.store.GetDocument(ctx, doc.ID)
	if err != nil {
		// The document is already persisted; report what we have.
		doc.Status = store.DocumentCompleted
		if !res.Degraded {
			doc.Transactions = validated.Accepted
		}
		res.Document = doc
		return res, nil
	}
	res.Document = final
	return res, nil
}

// recognize runs OCR on the upload. PDFs carry no rasterized pages here, so
// they contribute empty text and flow through extraction unchanged.
func (p *Processor) recognize(ctx context.Context, up Upload) (string, float64, error) {
	if isPDF(up) {
		return "", 0, nil
	}

	engine, err := p.engines.NewEngine()
	if err != nil {
		return "", 0, err
	}
	defer engine.Close()

	result, err := engine.Recognize(ctx, up.Data)
	if err != nil {
		return "", 0, err
	}
	return result.Text, result.Confidence, nil
}

func (p *Processor) markError(ctx context.Context, documentID int64) {
	if err := p.store.SetDocumentStatus(ctx, documentID, store.DocumentError); err != nil {
		p.log.Error().Err(err).Int64("document_id", documentID).Msg("marking document failed")
	}
}

func isPDF(up Upload) bool {
	return up.ContentType == "application/pdf" ||
		strings.EqualFold(filepath.Ext(up.FileName), ".pdf")
}
