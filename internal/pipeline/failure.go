package pipeline

import "fmt"

// Stage names the pipeline stage that failed. It is surfaced to the caller
// as the machine-readable part of a StageFailure.
type Stage string

const (
	// StageStore covers writing the uploaded bytes to object storage.
	StageStore Stage = "store"

	// StageExtract covers optical character recognition.
	StageExtract Stage = "extract"

	// StageAnalyze covers the LLM extraction call and its top-level response shape.
	StageAnalyze Stage = "analyze"

	// StagePersist covers database writes, including identity bootstrap.
	StagePersist Stage = "persist"
)

// StageFailure is a fatal pipeline fault: an external-service or I/O error
// with no safe deterministic fallback. Malformed field values never become a
// StageFailure; those are recovered locally during validation.
type StageFailure struct {
	Stage Stage
	Err   error
}

func (f *StageFailure) Error() string {
	return fmt.Sprintf("pipeline stage %s failed: %v", f.Stage, f.Err)
}

func (f *StageFailure) Unwrap() error {
	return f.Err
}

func failStage(stage Stage, err error) *StageFailure {
	return &StageFailure{Stage: stage, Err: err}
}
