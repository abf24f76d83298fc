package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/proffdata/import-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Chunk writes run
// inside one transaction so a chunk commits or rolls back as a unit.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	company_id  TEXT PRIMARY KEY,
	record      TEXT NOT NULL,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL,
	imported_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS imports (
	job_id             TEXT PRIMARY KEY,
	status             TEXT NOT NULL,
	file_name          TEXT NOT NULL,
	start_time         DATETIME NOT NULL,
	end_time           DATETIME,
	total_records      INTEGER NOT NULL DEFAULT 0,
	processed_records  INTEGER NOT NULL DEFAULT 0,
	successful_records INTEGER NOT NULL DEFAULT 0,
	failed_records     INTEGER NOT NULL DEFAULT 0,
	errors             TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS uploads (
	import_id    TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	file_name    TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	download_url TEXT NOT NULL DEFAULT '',
	uploaded_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_uploads_user ON uploads(user_id, uploaded_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertCompanies(ctx context.Context, records []model.CanonicalCompanyRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO companies (company_id, record, created_at, updated_at, imported_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(company_id) DO UPDATE SET
			record = excluded.record,
			updated_at = excluded.updated_at,
			imported_at = excluded.imported_at`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range records {
		rec := records[i]
		rec.CreatedAt, rec.UpdatedAt, rec.ImportedAt = &now, &now, &now
		doc, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal company %s", rec.CompanyID)
		}
		if _, err := stmt.ExecContext(ctx, rec.CompanyID, string(doc), now, now, now); err != nil {
			return eris.Wrapf(err, "sqlite: upsert company %s", rec.CompanyID)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit chunk")
	}
	return nil
}

func (s *SQLiteStore) PutJob(ctx context.Context, job *model.ImportJobStatus) error {
	errsJSON, err := json.Marshal(jobErrors(job))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal job errors")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO imports (job_id, status, file_name, start_time, end_time,
			total_records, processed_records, successful_records, failed_records, errors)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(job_id) DO UPDATE SET
			status = excluded.status,
			end_time = excluded.end_time,
			total_records = excluded.total_records,
			processed_records = excluded.processed_records,
			successful_records = excluded.successful_records,
			failed_records = excluded.failed_records,
			errors = excluded.errors`,
		job.JobID, string(job.Status), job.FileName, job.StartTime, job.EndTime,
		job.TotalRecords, job.ProcessedRecords, job.SuccessfulRecords, job.FailedRecords, string(errsJSON),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: put job %s", job.JobID)
	}
	return nil
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*model.ImportJobStatus, error) {
	var (
		job      model.ImportJobStatus
		status   string
		errsJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT job_id, status, file_name, start_time, end_time,
			total_records, processed_records, successful_records, failed_records, errors
		 FROM imports WHERE job_id = ?`,
		jobID,
	).Scan(&job.JobID, &status, &job.FileName, &job.StartTime, &job.EndTime,
		&job.TotalRecords, &job.ProcessedRecords, &job.SuccessfulRecords, &job.FailedRecords, &errsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get job %s", jobID)
	}
	job.Status = model.JobStatus(status)
	if err := json.Unmarshal([]byte(errsJSON), &job.Errors); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal errors for job %s", jobID)
	}
	return &job, nil
}

func (s *SQLiteStore) DeleteJob(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM imports WHERE job_id = ?`, jobID)
	return eris.Wrapf(err, "sqlite: delete job %s", jobID)
}

func (s *SQLiteStore) CreateUpload(ctx context.Context, rec *model.UploadRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO uploads (import_id, status, file_name, user_id, download_url, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ImportID, rec.Status, rec.FileName, rec.UserID, rec.DownloadURL, rec.Timestamp,
	)
	return eris.Wrapf(err, "sqlite: create upload %s", rec.ImportID)
}

func (s *SQLiteStore) GetUpload(ctx context.Context, importID string) (*model.UploadRecord, error) {
	var rec model.UploadRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT import_id, status, file_name, user_id, download_url, uploaded_at
		 FROM uploads WHERE import_id = ?`,
		importID,
	).Scan(&rec.ImportID, &rec.Status, &rec.FileName, &rec.UserID, &rec.DownloadURL, &rec.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get upload %s", importID)
	}
	return &rec, nil
}

func (s *SQLiteStore) ListUploads(ctx context.Context, userID string, limit int) ([]model.UploadRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT import_id, status, file_name, user_id, download_url, uploaded_at
		 FROM uploads WHERE user_id = ? ORDER BY uploaded_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list uploads for %s", userID)
	}
	defer rows.Close()

	var recs []model.UploadRecord
	for rows.Next() {
		var rec model.UploadRecord
		if err := rows.Scan(&rec.ImportID, &rec.Status, &rec.FileName, &rec.UserID, &rec.DownloadURL, &rec.Timestamp); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan upload")
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SQLiteStore) DeleteUpload(ctx context.Context, importID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM uploads WHERE import_id = ?`, importID)
	return eris.Wrapf(err, "sqlite: delete upload %s", importID)
}
