// Package job owns the durable status record of an import job and its
// state machine: processing is the only initial state, completed and
// failed are terminal, and counters never decrease.
package job

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/proffdata/import-cli/internal/model"
)

// StatusStore is the slice of the store the tracker persists through.
type StatusStore interface {
	PutJob(ctx context.Context, job *model.ImportJobStatus) error
}

// Tracker mutates one job's status document and persists it after every
// change. It is not safe for concurrent use; a job's chunks are committed
// sequentially by design.
type Tracker struct {
	store StatusStore
	job   model.ImportJobStatus
}

// Start creates the status record in processing state with zeroed counters
// and persists it before any import work happens.
func Start(ctx context.Context, store StatusStore, jobID, fileName string) (*Tracker, error) {
	t := &Tracker{
		store: store,
		job: model.ImportJobStatus{
			JobID:     jobID,
			Status:    model.JobStatusProcessing,
			FileName:  fileName,
			StartTime: time.Now().UTC(),
			Errors:    []string{},
		},
	}
	if err := store.PutJob(ctx, &t.job); err != nil {
		return nil, eris.Wrapf(err, "job: create status for %s", jobID)
	}
	return t, nil
}

// SetTotal fixes totalRecords once the input has been counted.
func (t *Tracker) SetTotal(ctx context.Context, total int) error {
	if err := t.guard(); err != nil {
		return err
	}
	t.job.TotalRecords = total
	return t.put(ctx)
}

// RecordChunk folds one chunk's accounting into the job: processed grows by
// successful+failed, and new error strings are appended with the log
// trimmed to the most recent entries.
func (t *Tracker) RecordChunk(ctx context.Context, successful, failed int, errs []string) error {
	if err := t.guard(); err != nil {
		return err
	}
	t.job.ProcessedRecords += successful + failed
	t.job.SuccessfulRecords += successful
	t.job.FailedRecords += failed
	t.job.Errors = append(t.job.Errors, errs...)
	if n := len(t.job.Errors); n > model.MaxJobErrors {
		t.job.Errors = t.job.Errors[n-model.MaxJobErrors:]
	}
	return t.put(ctx)
}

// Complete transitions to the completed terminal state. A job with failed
// records still completes; failed is reserved for jobs that could not run.
func (t *Tracker) Complete(ctx context.Context) error {
	if err := t.guard(); err != nil {
		return err
	}
	now := time.Now().UTC()
	t.job.Status = model.JobStatusCompleted
	t.job.EndTime = &now
	return t.put(ctx)
}

// Fail transitions to the failed terminal state, recording the pipeline
// error that stopped the job.
func (t *Tracker) Fail(ctx context.Context, msg string) error {
	if err := t.guard(); err != nil {
		return err
	}
	now := time.Now().UTC()
	t.job.Status = model.JobStatusFailed
	t.job.EndTime = &now
	t.job.Errors = append(t.job.Errors, msg)
	if n := len(t.job.Errors); n > model.MaxJobErrors {
		t.job.Errors = t.job.Errors[n-model.MaxJobErrors:]
	}
	return t.put(ctx)
}

// Snapshot returns a copy of the current status document.
func (t *Tracker) Snapshot() model.ImportJobStatus {
	out := t.job
	out.Errors = append([]string(nil), t.job.Errors...)
	return out
}

func (t *Tracker) guard() error {
	if t.job.Status.Terminal() {
		return eris.Errorf("job: %s already in terminal state %s", t.job.JobID, t.job.Status)
	}
	return nil
}

func (t *Tracker) put(ctx context.Context) error {
	if err := t.store.PutJob(ctx, &t.job); err != nil {
		return eris.Wrapf(err, "job: persist status for %s", t.job.JobID)
	}
	return nil
}
