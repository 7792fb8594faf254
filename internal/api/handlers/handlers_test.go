package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/avdeev/scanledger/internal/jobs"
	"github.com/avdeev/scanledger/internal/jobs/inmemory"
	"github.com/avdeev/scanledger/internal/store"
)

type fakeReader struct {
	docs map[int64]*store.Document
}

func (f *fakeReader) EnsureUser(ctx context.Context, email string) (*store.User, error) {
	return &store.User{ID: 1, Email: email}, nil
}

func (f *fakeReader) GetDocument(ctx context.Context, documentID int64) (*store.Document, error) {
	doc, ok := f.docs[documentID]
	if !ok {
		return nil, errors.New("not found")
	}
	return doc, nil
}

func (f *fakeReader) ListDocuments(ctx context.Context, userID int64) ([]*store.Document, error) {
	var out []*store.Document
	for _, d := range f.docs {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeReader) DeleteDocument(ctx context.Context, documentID int64) error {
	delete(f.docs, documentID)
	return nil
}

func newTestRouter(t *testing.T, reader *fakeReader, jobStore jobs.JobStore) http.Handler {
	t.Helper()
	docs := NewDocumentsHandler(nil, nil, nil, reader, zerolog.Nop(), "owner@example.com", 1<<20)
	return Router(docs, NewJobsHandler(jobStore, zerolog.Nop()), zerolog.Nop())
}

func TestGetDocument(t *testing.T) {
	reader := &fakeReader{docs: map[int64]*store.Document{
		42: {ID: 42, FileName: "scan.png", Status: store.DocumentCompleted},
	}}
	router := newTestRouter(t, reader, inmemory.NewStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/42", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc store.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if doc.ID != 42 || doc.FileName != "scan.png" {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	router := newTestRouter(t, &fakeReader{docs: map[int64]*store.Document{}}, inmemory.NewStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/99", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetDocument_BadID(t *testing.T) {
	router := newTestRouter(t, &fakeReader{docs: map[int64]*store.Document{}}, inmemory.NewStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/abc", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListDocuments(t *testing.T) {
	reader := &fakeReader{docs: map[int64]*store.Document{
		1: {ID: 1}, 2: {ID: 2},
	}}
	router := newTestRouter(t, reader, inmemory.NewStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("expected count 2, got %d", body.Count)
	}
}

func TestDeleteDocument(t *testing.T) {
	reader := &fakeReader{docs: map[int64]*store.Document{7: {ID: 7}}}
	router := newTestRouter(t, reader, inmemory.NewStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/documents/7", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if _, ok := reader.docs[7]; ok {
		t.Error("expected document removed")
	}
}

func TestGetJob(t *testing.T) {
	jobStore := inmemory.NewStore()
	if err := jobStore.SaveJob(context.Background(), &jobs.ProcessDocumentJob{
		JobID:  "abc",
		Status: jobs.JobStatusPending,
	}); err != nil {
		t.Fatalf("SaveJob: %v", err)
	}
	router := newTestRouter(t, &fakeReader{}, jobStore)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/abc", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var job jobs.ProcessDocumentJob
	if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if job.JobID != "abc" || job.Status != jobs.JobStatusPending {
		t.Errorf("unexpected job: %+v", job)
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, &fakeReader{}, inmemory.NewStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if id := rec.Header().Get("X-Request-ID"); id == "" {
		t.Error("expected request ID header")
	}
}
