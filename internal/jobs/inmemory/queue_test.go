package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/avdeev/scanledger/internal/jobs"
)

func TestQueue_PublishAndConsume(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, 1, store)
	defer q.Close()

	var mu sync.Mutex
	var handled []string
	done := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		handled = append(handled, job.GetID())
		mu.Unlock()
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := &jobs.ProcessDocumentJob{
		FileName:    "scan.png",
		ContentType: "image/png",
		ObjectURI:   "gs://bucket/abc.png",
	}
	if err := q.PublishProcessDocument(ctx, job); err != nil {
		t.Fatalf("PublishProcessDocument: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("expected job ID assigned on publish")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not handled")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 || handled[0] != job.JobID {
		t.Errorf("expected job %s handled once, got %v", job.JobID, handled)
	}
}

func TestQueue_FailedJobIsRetried(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, 1, store)
	defer q.Close()

	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := &jobs.ProcessDocumentJob{ObjectURI: "gs://bucket/abc.png"}
	if err := q.PublishProcessDocument(ctx, job); err != nil {
		t.Fatalf("PublishProcessDocument: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not retried")
	}

	// The completed state is written after the handler returns; poll for it.
	deadline := time.Now().Add(2 * time.Second)
	for {
		saved, err := store.GetJob(ctx, job.JobID)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		if saved.Status == jobs.JobStatusCompleted {
			if saved.RetryCount != 1 {
				t.Errorf("expected 1 retry, got %d", saved.RetryCount)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never reached completed, last status %s", saved.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestQueue_RetryAfterStopIsMarkedFailed(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, 1, store)

	failed := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		close(failed)
		return errors.New("transient")
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := &jobs.ProcessDocumentJob{ObjectURI: "gs://bucket/abc.png"}
	if err := q.PublishProcessDocument(ctx, job); err != nil {
		t.Fatalf("PublishProcessDocument: %v", err)
	}

	select {
	case <-failed:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not handled")
	}

	// Stop before the retry backoff fires; the republish must not leave the
	// job stranded in retrying.
	if err := q.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		saved, err := store.GetJob(context.Background(), job.JobID)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		if saved.Status == jobs.JobStatusFailed {
			if saved.Error == "" {
				t.Error("expected failure reason recorded on job")
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never reached failed, last status %s", saved.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestQueue_PublishAfterCloseFails(t *testing.T) {
	q := NewQueue(1, 1, nil)
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	err := q.PublishProcessDocument(context.Background(), &jobs.ProcessDocumentJob{})
	if err == nil {
		t.Fatal("expected error publishing to closed queue")
	}
}

func TestStore_ListJobsFiltersByStatus(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for i, status := range []jobs.JobStatus{jobs.JobStatusPending, jobs.JobStatusCompleted, jobs.JobStatusPending} {
		job := &jobs.ProcessDocumentJob{JobID: string(rune('a' + i)), Status: status}
		if err := store.SaveJob(ctx, job); err != nil {
			t.Fatalf("SaveJob: %v", err)
		}
	}

	pending, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusPending})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("expected 2 pending jobs, got %d", len(pending))
	}
}
