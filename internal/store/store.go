// Package store persists canonical company records, import job status
// documents, and the upload companion records, behind one interface with
// Postgres, SQLite and in-memory implementations.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/proffdata/import-cli/internal/model"
)

// Store is the persistence interface for the import pipeline.
// Get methods return (nil, nil) when the record does not exist; deletes of
// absent records are no-ops.
type Store interface {
	// UpsertCompanies writes one chunk of canonical records as a single
	// atomic operation, upserting by companyId and attaching
	// server-assigned timestamps. Either every record in the chunk lands
	// or none do.
	UpsertCompanies(ctx context.Context, records []model.CanonicalCompanyRecord) error

	// PutJob creates or replaces a job status document.
	PutJob(ctx context.Context, job *model.ImportJobStatus) error
	GetJob(ctx context.Context, jobID string) (*model.ImportJobStatus, error)
	DeleteJob(ctx context.Context, jobID string) error

	CreateUpload(ctx context.Context, rec *model.UploadRecord) error
	GetUpload(ctx context.Context, importID string) (*model.UploadRecord, error)
	// ListUploads returns the user's upload records, most recent first.
	ListUploads(ctx context.Context, userID string, limit int) ([]model.UploadRecord, error)
	DeleteUpload(ctx context.Context, importID string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a Store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(driver) {
	case "postgres":
		return NewPostgres(ctx, dsn)
	case "sqlite":
		return NewSQLite(dsn)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
