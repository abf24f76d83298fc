package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proffdata/import-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// --- Companies ---

func TestSQLite_UpsertCompanies(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	err := st.UpsertCompanies(ctx, []model.CanonicalCompanyRecord{
		{CompanyID: "1", Name: "Acme AB"},
		{CompanyID: "2", Name: "Beta HB"},
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, st.db.QueryRow(`SELECT COUNT(*) FROM companies`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestSQLite_UpsertCompanies_OverwriteKeepsCreatedAt(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertCompanies(ctx, []model.CanonicalCompanyRecord{
		{CompanyID: "1", Name: "Original"},
	}))

	var created1 time.Time
	require.NoError(t, st.db.QueryRow(`SELECT created_at FROM companies WHERE company_id = '1'`).Scan(&created1))

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, st.UpsertCompanies(ctx, []model.CanonicalCompanyRecord{
		{CompanyID: "1", Name: "Updated"},
	}))

	var (
		created2, updated2 time.Time
		doc                string
	)
	require.NoError(t, st.db.QueryRow(`SELECT created_at, updated_at, record FROM companies WHERE company_id = '1'`).
		Scan(&created2, &updated2, &doc))

	assert.Equal(t, created1.UTC(), created2.UTC())
	assert.True(t, updated2.After(created2))
	assert.Contains(t, doc, "Updated")

	var count int
	require.NoError(t, st.db.QueryRow(`SELECT COUNT(*) FROM companies`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSQLite_UpsertCompanies_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.UpsertCompanies(context.Background(), nil))
}

// --- Jobs ---

func TestSQLite_Job_PutGetDelete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	start := time.Now().UTC().Truncate(time.Second)
	job := &model.ImportJobStatus{
		JobID:             "companies",
		Status:            model.JobStatusProcessing,
		FileName:          "companies.json",
		StartTime:         start,
		TotalRecords:      1200,
		ProcessedRecords:  500,
		SuccessfulRecords: 500,
		Errors:            []string{},
	}
	require.NoError(t, st.PutJob(ctx, job))

	got, err := st.GetJob(ctx, "companies")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.JobStatusProcessing, got.Status)
	assert.Equal(t, "companies.json", got.FileName)
	assert.Equal(t, 1200, got.TotalRecords)
	assert.Equal(t, 500, got.SuccessfulRecords)
	assert.NotNil(t, got.Errors)
	assert.Nil(t, got.EndTime)

	require.NoError(t, st.DeleteJob(ctx, "companies"))
	got, err = st.GetJob(ctx, "companies")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_Job_Overwrite(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	job := &model.ImportJobStatus{
		JobID:     "j1",
		Status:    model.JobStatusProcessing,
		FileName:  "j1.csv",
		StartTime: time.Now().UTC(),
	}
	require.NoError(t, st.PutJob(ctx, job))

	end := time.Now().UTC()
	job.Status = model.JobStatusCompleted
	job.EndTime = &end
	job.ProcessedRecords = 10
	job.SuccessfulRecords = 9
	job.FailedRecords = 1
	job.Errors = []string{"write conflict"}
	require.NoError(t, st.PutJob(ctx, job))

	got, err := st.GetJob(ctx, "j1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.JobStatusCompleted, got.Status)
	require.NotNil(t, got.EndTime)
	assert.Equal(t, []string{"write conflict"}, got.Errors)
}

func TestSQLite_Job_GetMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetJob(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_Job_DeleteMissing(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.DeleteJob(context.Background(), "nope"))
}

// --- Uploads ---

func TestSQLite_Upload_CreateGetDelete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := &model.UploadRecord{
		ImportID:    "imp-1",
		Status:      model.UploadStatusUploaded,
		FileName:    "companies.json",
		Timestamp:   time.Now().UTC().Truncate(time.Second),
		UserID:      "user-a",
		DownloadURL: "https://bucket/imports/companies.json",
	}
	require.NoError(t, st.CreateUpload(ctx, rec))

	got, err := st.GetUpload(ctx, "imp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.UploadStatusUploaded, got.Status)
	assert.Equal(t, "user-a", got.UserID)
	assert.Equal(t, "companies.json", got.FileName)

	require.NoError(t, st.DeleteUpload(ctx, "imp-1"))
	got, err = st.GetUpload(ctx, "imp-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_Upload_ListOrderAndLimit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		require.NoError(t, st.CreateUpload(ctx, &model.UploadRecord{
			ImportID:  "imp-" + string(rune('a'+i)),
			Status:    model.UploadStatusUploaded,
			FileName:  "f.json",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			UserID:    "user-a",
		}))
	}
	require.NoError(t, st.CreateUpload(ctx, &model.UploadRecord{
		ImportID:  "other",
		Status:    model.UploadStatusUploaded,
		FileName:  "g.json",
		Timestamp: base,
		UserID:    "user-b",
	}))

	recs, err := st.ListUploads(ctx, "user-a", 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	// Most recent first, other users excluded.
	assert.Equal(t, "imp-e", recs[0].ImportID)
	assert.Equal(t, "imp-d", recs[1].ImportID)
	assert.Equal(t, "imp-c", recs[2].ImportID)
}
