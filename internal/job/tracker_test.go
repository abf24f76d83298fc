package job

import (
	"context"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proffdata/import-cli/internal/model"
)

// putRecorder captures every persisted snapshot.
type putRecorder struct {
	puts []model.ImportJobStatus
	err  error
}

func (r *putRecorder) PutJob(_ context.Context, job *model.ImportJobStatus) error {
	if r.err != nil {
		return r.err
	}
	copied := *job
	copied.Errors = append([]string{}, job.Errors...)
	r.puts = append(r.puts, copied)
	return nil
}

func (r *putRecorder) last() model.ImportJobStatus {
	return r.puts[len(r.puts)-1]
}

func TestTracker_Lifecycle(t *testing.T) {
	rec := &putRecorder{}
	ctx := context.Background()

	tracker, err := Start(ctx, rec, "companies", "companies.json")
	require.NoError(t, err)

	// The processing record is persisted before any work happens.
	require.Len(t, rec.puts, 1)
	initial := rec.puts[0]
	assert.Equal(t, model.JobStatusProcessing, initial.Status)
	assert.Equal(t, "companies", initial.JobID)
	assert.Equal(t, "companies.json", initial.FileName)
	assert.Zero(t, initial.TotalRecords)
	assert.NotNil(t, initial.Errors)
	assert.Nil(t, initial.EndTime)

	require.NoError(t, tracker.SetTotal(ctx, 1200))
	assert.Equal(t, 1200, rec.last().TotalRecords)

	require.NoError(t, tracker.RecordChunk(ctx, 500, 0, nil))
	require.NoError(t, tracker.RecordChunk(ctx, 0, 500, []string{"write conflict"}))
	require.NoError(t, tracker.RecordChunk(ctx, 200, 0, nil))

	state := rec.last()
	assert.Equal(t, 1200, state.ProcessedRecords)
	assert.Equal(t, 700, state.SuccessfulRecords)
	assert.Equal(t, 500, state.FailedRecords)
	assert.Equal(t, []string{"write conflict"}, state.Errors)

	require.NoError(t, tracker.Complete(ctx))
	final := rec.last()
	assert.Equal(t, model.JobStatusCompleted, final.Status)
	require.NotNil(t, final.EndTime)
	assert.False(t, final.EndTime.Before(final.StartTime))
}

func TestTracker_Fail(t *testing.T) {
	rec := &putRecorder{}
	ctx := context.Background()

	tracker, err := Start(ctx, rec, "bad", "bad.xlsx")
	require.NoError(t, err)

	require.NoError(t, tracker.Fail(ctx, `unsupported file type ".xlsx"`))

	final := rec.last()
	assert.Equal(t, model.JobStatusFailed, final.Status)
	require.NotNil(t, final.EndTime)
	require.Len(t, final.Errors, 1)
	assert.Contains(t, final.Errors[0], "unsupported file type")
}

func TestTracker_TerminalStateRejectsMutation(t *testing.T) {
	rec := &putRecorder{}
	ctx := context.Background()

	tracker, err := Start(ctx, rec, "done", "done.json")
	require.NoError(t, err)
	require.NoError(t, tracker.Complete(ctx))

	assert.Error(t, tracker.RecordChunk(ctx, 1, 0, nil))
	assert.Error(t, tracker.SetTotal(ctx, 10))
	assert.Error(t, tracker.Fail(ctx, "too late"))
	assert.Error(t, tracker.Complete(ctx))

	// Nothing was persisted past the terminal transition.
	assert.Equal(t, model.JobStatusCompleted, rec.last().Status)
}

func TestTracker_ErrorLogCapped(t *testing.T) {
	rec := &putRecorder{}
	ctx := context.Background()

	tracker, err := Start(ctx, rec, "noisy", "noisy.csv")
	require.NoError(t, err)

	for i := 0; i < 30; i++ {
		require.NoError(t, tracker.RecordChunk(ctx, 0, 1, []string{fmt.Sprintf("chunk %d failed", i)}))
	}

	state := rec.last()
	require.Len(t, state.Errors, model.MaxJobErrors)
	// Oldest entries were dropped, the counters stayed exact.
	assert.Equal(t, "chunk 10 failed", state.Errors[0])
	assert.Equal(t, "chunk 29 failed", state.Errors[len(state.Errors)-1])
	assert.Equal(t, 30, state.FailedRecords)
}

func TestTracker_StartPersistFailure(t *testing.T) {
	rec := &putRecorder{err: eris.New("db down")}

	_, err := Start(context.Background(), rec, "x", "x.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create status")
}

func TestTracker_Snapshot(t *testing.T) {
	rec := &putRecorder{}
	ctx := context.Background()

	tracker, err := Start(ctx, rec, "snap", "snap.json")
	require.NoError(t, err)
	require.NoError(t, tracker.RecordChunk(ctx, 2, 1, []string{"one bad"}))

	snap := tracker.Snapshot()
	snap.Errors[0] = "mutated"

	assert.Equal(t, []string{"one bad"}, tracker.Snapshot().Errors)
}
