package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proffdata/import-cli/internal/model"
)

func TestMemory_UpsertPreservesCreatedAt(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	require.NoError(t, st.UpsertCompanies(ctx, []model.CanonicalCompanyRecord{{CompanyID: "1", Name: "v1"}}))
	first, ok := st.Company("1")
	require.True(t, ok)

	time.Sleep(time.Millisecond)
	require.NoError(t, st.UpsertCompanies(ctx, []model.CanonicalCompanyRecord{{CompanyID: "1", Name: "v2"}}))
	second, ok := st.Company("1")
	require.True(t, ok)

	assert.Equal(t, "v2", second.Name)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.NotEqual(t, first.UpdatedAt, second.UpdatedAt)
	assert.Equal(t, 1, st.CompanyCount())
}

func TestMemory_JobCloneIsolation(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	job := &model.ImportJobStatus{
		JobID:  "j1",
		Status: model.JobStatusProcessing,
		Errors: []string{"first"},
	}
	require.NoError(t, st.PutJob(ctx, job))
	job.Errors[0] = "mutated"

	got, err := st.GetJob(ctx, "j1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"first"}, got.Errors)
}

func TestMemory_ListUploadsOrderAndLimit(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, st.CreateUpload(ctx, &model.UploadRecord{
			ImportID:  id,
			UserID:    "u1",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, st.CreateUpload(ctx, &model.UploadRecord{ImportID: "foreign", UserID: "u2", Timestamp: base}))

	recs, err := st.ListUploads(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "new", recs[0].ImportID)
	assert.Equal(t, "mid", recs[1].ImportID)
}

func TestMemory_MissingRecords(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	job, err := st.GetJob(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, job)

	up, err := st.GetUpload(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, up)

	assert.NoError(t, st.DeleteJob(ctx, "absent"))
	assert.NoError(t, st.DeleteUpload(ctx, "absent"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mongo", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
