package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/proffdata/import-cli/internal/db"
	"github.com/proffdata/import-cli/internal/model"
)

// PostgresStore implements Store on a pgx connection pool. Company records
// are stored as jsonb documents keyed by company_id; chunk writes go
// through db.BulkUpsert so one chunk is one transaction.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres connects to the given database URL and pings it.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	company_id  TEXT PRIMARY KEY,
	record      JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	imported_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS imports (
	job_id             TEXT PRIMARY KEY,
	status             TEXT NOT NULL,
	file_name          TEXT NOT NULL,
	start_time         TIMESTAMPTZ NOT NULL,
	end_time           TIMESTAMPTZ,
	total_records      INTEGER NOT NULL DEFAULT 0,
	processed_records  INTEGER NOT NULL DEFAULT 0,
	successful_records INTEGER NOT NULL DEFAULT 0,
	failed_records     INTEGER NOT NULL DEFAULT 0,
	errors             JSONB NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS uploads (
	import_id    TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	file_name    TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	download_url TEXT NOT NULL DEFAULT '',
	uploaded_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_uploads_user ON uploads(user_id, uploaded_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var companyColumns = []string{"company_id", "record", "created_at", "updated_at", "imported_at"}

func (s *PostgresStore) UpsertCompanies(ctx context.Context, records []model.CanonicalCompanyRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(records))
	for i := range records {
		rec := records[i]
		rec.CreatedAt, rec.UpdatedAt, rec.ImportedAt = &now, &now, &now
		doc, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal company %s", rec.CompanyID)
		}
		rows = append(rows, []any{rec.CompanyID, doc, now, now, now})
	}

	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "companies",
		Columns:      companyColumns,
		ConflictKeys: []string{"company_id"},
		// created_at keeps its original value on overwrite.
		UpdateCols: []string{"record", "updated_at", "imported_at"},
	}, rows)
	return err
}

func (s *PostgresStore) PutJob(ctx context.Context, job *model.ImportJobStatus) error {
	errsJSON, err := json.Marshal(jobErrors(job))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal job errors")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO imports (job_id, status, file_name, start_time, end_time,
			total_records, processed_records, successful_records, failed_records, errors)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (job_id) DO UPDATE SET
			status = EXCLUDED.status,
			end_time = EXCLUDED.end_time,
			total_records = EXCLUDED.total_records,
			processed_records = EXCLUDED.processed_records,
			successful_records = EXCLUDED.successful_records,
			failed_records = EXCLUDED.failed_records,
			errors = EXCLUDED.errors`,
		job.JobID, string(job.Status), job.FileName, job.StartTime, job.EndTime,
		job.TotalRecords, job.ProcessedRecords, job.SuccessfulRecords, job.FailedRecords, errsJSON,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: put job %s", job.JobID)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*model.ImportJobStatus, error) {
	var (
		job      model.ImportJobStatus
		status   string
		errsJSON []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT job_id, status, file_name, start_time, end_time,
			total_records, processed_records, successful_records, failed_records, errors
		 FROM imports WHERE job_id = $1`,
		jobID,
	).Scan(&job.JobID, &status, &job.FileName, &job.StartTime, &job.EndTime,
		&job.TotalRecords, &job.ProcessedRecords, &job.SuccessfulRecords, &job.FailedRecords, &errsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get job %s", jobID)
	}
	job.Status = model.JobStatus(status)
	if err := json.Unmarshal(errsJSON, &job.Errors); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal errors for job %s", jobID)
	}
	return &job, nil
}

func (s *PostgresStore) DeleteJob(ctx context.Context, jobID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM imports WHERE job_id = $1`, jobID)
	return eris.Wrapf(err, "postgres: delete job %s", jobID)
}

func (s *PostgresStore) CreateUpload(ctx context.Context, rec *model.UploadRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO uploads (import_id, status, file_name, user_id, download_url, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ImportID, rec.Status, rec.FileName, rec.UserID, rec.DownloadURL, rec.Timestamp,
	)
	return eris.Wrapf(err, "postgres: create upload %s", rec.ImportID)
}

func (s *PostgresStore) GetUpload(ctx context.Context, importID string) (*model.UploadRecord, error) {
	var rec model.UploadRecord
	err := s.pool.QueryRow(ctx,
		`SELECT import_id, status, file_name, user_id, download_url, uploaded_at
		 FROM uploads WHERE import_id = $1`,
		importID,
	).Scan(&rec.ImportID, &rec.Status, &rec.FileName, &rec.UserID, &rec.DownloadURL, &rec.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get upload %s", importID)
	}
	return &rec, nil
}

func (s *PostgresStore) ListUploads(ctx context.Context, userID string, limit int) ([]model.UploadRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT import_id, status, file_name, user_id, download_url, uploaded_at
		 FROM uploads WHERE user_id = $1 ORDER BY uploaded_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list uploads for %s", userID)
	}
	defer rows.Close()

	var recs []model.UploadRecord
	for rows.Next() {
		var rec model.UploadRecord
		if err := rows.Scan(&rec.ImportID, &rec.Status, &rec.FileName, &rec.UserID, &rec.DownloadURL, &rec.Timestamp); err != nil {
			return nil, eris.Wrap(err, "postgres: scan upload")
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *PostgresStore) DeleteUpload(ctx context.Context, importID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM uploads WHERE import_id = $1`, importID)
	return eris.Wrapf(err, "postgres: delete upload %s", importID)
}

// jobErrors never marshals nil so the errors column stays a JSON array.
func jobErrors(job *model.ImportJobStatus) []string {
	if job.Errors == nil {
		return []string{}
	}
	return job.Errors
}
