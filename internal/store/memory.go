package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/proffdata/import-cli/internal/model"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	companies map[string]model.CanonicalCompanyRecord
	jobs      map[string]model.ImportJobStatus
	uploads   map[string]model.UploadRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		companies: make(map[string]model.CanonicalCompanyRecord),
		jobs:      make(map[string]model.ImportJobStatus),
		uploads:   make(map[string]model.UploadRecord),
	}
}

func (s *MemoryStore) UpsertCompanies(_ context.Context, records []model.CanonicalCompanyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for i := range records {
		rec := records[i]
		if existing, ok := s.companies[rec.CompanyID]; ok {
			rec.CreatedAt = existing.CreatedAt
		} else {
			rec.CreatedAt = &now
		}
		rec.UpdatedAt, rec.ImportedAt = &now, &now
		s.companies[rec.CompanyID] = rec
	}
	return nil
}

// Company returns the stored record for an id, for assertions in tests.
func (s *MemoryStore) Company(companyID string) (model.CanonicalCompanyRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.companies[companyID]
	return rec, ok
}

// CompanyCount returns the number of stored company records.
func (s *MemoryStore) CompanyCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.companies)
}

func (s *MemoryStore) PutJob(_ context.Context, job *model.ImportJobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobID] = cloneJob(job)
	return nil
}

func (s *MemoryStore) GetJob(_ context.Context, jobID string) (*model.ImportJobStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, nil
	}
	out := cloneJob(&job)
	return &out, nil
}

func (s *MemoryStore) DeleteJob(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
	return nil
}

func (s *MemoryStore) CreateUpload(_ context.Context, rec *model.UploadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[rec.ImportID] = *rec
	return nil
}

func (s *MemoryStore) GetUpload(_ context.Context, importID string) (*model.UploadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.uploads[importID]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (s *MemoryStore) ListUploads(_ context.Context, userID string, limit int) ([]model.UploadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var recs []model.UploadRecord
	for _, rec := range s.uploads {
		if rec.UserID == userID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Timestamp.After(recs[j].Timestamp) })
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (s *MemoryStore) DeleteUpload(_ context.Context, importID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.uploads, importID)
	return nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func cloneJob(job *model.ImportJobStatus) model.ImportJobStatus {
	out := *job
	if job.Errors != nil {
		out.Errors = append([]string(nil), job.Errors...)
	}
	if job.EndTime != nil {
		t := *job.EndTime
		out.EndTime = &t
	}
	return out
}
