package api

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/proffdata/import-cli/internal/model"
	"github.com/proffdata/import-cli/internal/objstore"
	"github.com/proffdata/import-cli/internal/store"
)

// ListLimit caps how many upload records a listing returns.
const ListLimit = 50

// JobView is the merged status a caller sees for an import, resolved from
// the upload companion record and the job status record.
type JobView struct {
	ImportID          string     `json:"importId"`
	Status            string     `json:"status"`
	FileName          string     `json:"fileName"`
	StartTime         time.Time  `json:"startTime"`
	EndTime           *time.Time `json:"endTime,omitempty"`
	TotalRecords      int        `json:"totalRecords"`
	ProcessedRecords  int        `json:"processedRecords"`
	SuccessfulRecords int        `json:"successfulRecords"`
	FailedRecords     int        `json:"failedRecords"`
	Errors            []string   `json:"errors"`
}

// Service implements the status query operations over the store and the
// object store.
type Service struct {
	store   store.Store
	objects objstore.ObjectStore
	prefix  string // import namespace, for file cleanup on delete
}

// NewService creates a Service. objects may be nil when file cleanup is
// unavailable; deletes then skip it.
func NewService(st store.Store, objects objstore.ObjectStore, prefix string) *Service {
	return &Service{store: st, objects: objects, prefix: prefix}
}

// GetStatus resolves the status view for an import id. The upload
// companion record takes precedence: while it still says "uploaded" the
// job status record is consulted (or a transient processing view is
// synthesized if the job has not started); any other companion status is
// returned as-is. Without a companion record the id is tried directly as
// a job id.
func (s *Service) GetStatus(ctx context.Context, importID string) (*JobView, error) {
	if importID == "" {
		return nil, Errorf(CodeInvalidArgument, "import id is required")
	}

	up, err := s.store.GetUpload(ctx, importID)
	if err != nil {
		zap.L().Error("upload lookup failed", zap.String("import", importID), zap.Error(err))
		return nil, Errorf(CodeInternal, "upload lookup failed")
	}

	if up != nil {
		if up.Status != model.UploadStatusUploaded {
			return viewFromUpload(up), nil
		}

		jobStatus, err := s.store.GetJob(ctx, model.JobIDFromObjectName(up.FileName))
		if err != nil {
			zap.L().Error("job lookup failed", zap.String("import", importID), zap.Error(err))
			return nil, Errorf(CodeInternal, "job lookup failed")
		}
		if jobStatus == nil {
			// Uploaded but the pipeline has not created its status yet.
			view := viewFromUpload(up)
			view.Status = string(model.JobStatusProcessing)
			return view, nil
		}
		return viewFromJob(importID, jobStatus), nil
	}

	jobStatus, err := s.store.GetJob(ctx, importID)
	if err != nil {
		zap.L().Error("job lookup failed", zap.String("import", importID), zap.Error(err))
		return nil, Errorf(CodeInternal, "job lookup failed")
	}
	if jobStatus == nil {
		return nil, Errorf(CodeNotFound, "import %s not found", importID)
	}
	return viewFromJob(importID, jobStatus), nil
}

// ListImports returns the caller's upload records, most recent first.
func (s *Service) ListImports(ctx context.Context, caller Caller) ([]model.UploadRecord, error) {
	recs, err := s.store.ListUploads(ctx, caller.UserID, ListLimit)
	if err != nil {
		zap.L().Error("list uploads failed", zap.String("user", caller.UserID), zap.Error(err))
		return nil, Errorf(CodeInternal, "list uploads failed")
	}
	if recs == nil {
		recs = []model.UploadRecord{}
	}
	return recs, nil
}

// DeleteImport removes an import. The caller must own the upload record or
// be an admin. The uploaded file and the job status record are cleaned up
// best-effort; only failure to delete the upload record itself fails the
// operation.
func (s *Service) DeleteImport(ctx context.Context, caller Caller, importID string) error {
	if importID == "" {
		return Errorf(CodeInvalidArgument, "import id is required")
	}

	up, err := s.store.GetUpload(ctx, importID)
	if err != nil {
		zap.L().Error("upload lookup failed", zap.String("import", importID), zap.Error(err))
		return Errorf(CodeInternal, "upload lookup failed")
	}
	if up == nil {
		return Errorf(CodeNotFound, "import %s not found", importID)
	}
	if up.UserID != caller.UserID && !caller.Admin {
		return Errorf(CodePermissionDenied, "caller does not own import %s", importID)
	}

	log := zap.L().With(zap.String("import", importID))

	if s.objects != nil && up.FileName != "" {
		if err := s.objects.Delete(ctx, s.prefix+up.FileName); err != nil {
			log.Warn("failed to delete uploaded file", zap.Error(err))
		}
	}

	if err := s.store.DeleteUpload(ctx, importID); err != nil {
		log.Error("failed to delete upload record", zap.Error(err))
		return Errorf(CodeInternal, "delete upload record failed")
	}

	if err := s.store.DeleteJob(ctx, model.JobIDFromObjectName(up.FileName)); err != nil {
		log.Warn("failed to delete job status record", zap.Error(err))
	}

	log.Info("import deleted", zap.String("by", caller.UserID))
	return nil
}

func viewFromUpload(up *model.UploadRecord) *JobView {
	return &JobView{
		ImportID:  up.ImportID,
		Status:    up.Status,
		FileName:  up.FileName,
		StartTime: up.Timestamp,
		Errors:    []string{},
	}
}

func viewFromJob(importID string, job *model.ImportJobStatus) *JobView {
	errs := job.Errors
	if errs == nil {
		errs = []string{}
	}
	return &JobView{
		ImportID:          importID,
		Status:            string(job.Status),
		FileName:          job.FileName,
		StartTime:         job.StartTime,
		EndTime:           job.EndTime,
		TotalRecords:      job.TotalRecords,
		ProcessedRecords:  job.ProcessedRecords,
		SuccessfulRecords: job.SuccessfulRecords,
		FailedRecords:     job.FailedRecords,
		Errors:            errs,
	}
}
