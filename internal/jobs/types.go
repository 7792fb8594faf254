// Package jobs defines the async processing boundary between the API, which
// accepts uploads, and the worker, which runs the ingestion pipeline.
package jobs

import (
	"context"
	"time"
)

// JobType identifies what a job does.
type JobType string

const (
	JobTypeProcessDocument JobType = "process_document"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// ProcessDocumentJob asks the worker to run a stored upload through the
// ingestion pipeline. The upload bytes are already in object storage; the job
// carries only the URI and enough metadata to process them.
type ProcessDocumentJob struct {
	JobID       string    `json:"job_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	ObjectURI   string    `json:"object_uri"`
	Status      JobStatus `json:"status"`

	// DocumentID is set by the worker once the pipeline has created the
	// document record.
	DocumentID int64 `json:"document_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
}

// Job is the minimal view of any queued work item.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ProcessDocumentJob) GetID() string        { return j.JobID }
func (j *ProcessDocumentJob) GetType() JobType     { return JobTypeProcessDocument }
func (j *ProcessDocumentJob) GetStatus() JobStatus { return j.Status }

// Publisher enqueues jobs. Implementations may be in-memory or backed by an
// external broker.
type Publisher interface {
	PublishProcessDocument(ctx context.Context, job *ProcessDocumentJob) error
	Close() error
}

// JobHandler processes one job. A non-nil error requests a retry.
type JobHandler func(ctx context.Context, job Job) error

// Consumer pulls jobs and feeds them to a handler.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error

	// Stop drains in-flight jobs before returning.
	Stop(ctx context.Context) error
}

// JobStore tracks job state so callers can poll progress.
type JobStore interface {
	SaveJob(ctx context.Context, job *ProcessDocumentJob) error
	GetJob(ctx context.Context, jobID string) (*ProcessDocumentJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ProcessDocumentJob, error)
}

// JobFilter narrows a ListJobs call.
type JobFilter struct {
	Status JobStatus
	Limit  int
	Offset int
}
