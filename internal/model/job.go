package model

import (
	"path"
	"strings"
	"time"
)

// JobStatus represents the lifecycle state of an import job.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// MaxJobErrors bounds the error log kept on a job status record. Older
// entries are dropped first; the aggregate counters stay exact.
const MaxJobErrors = 20

// ImportJobStatus is the durable progress record for one import job,
// keyed by the uploaded file's base name without extension.
type ImportJobStatus struct {
	JobID             string     `json:"jobId"`
	Status            JobStatus  `json:"status"`
	FileName          string     `json:"fileName"`
	StartTime         time.Time  `json:"startTime"`
	EndTime           *time.Time `json:"endTime,omitempty"`
	TotalRecords      int        `json:"totalRecords"`
	ProcessedRecords  int        `json:"processedRecords"`
	SuccessfulRecords int        `json:"successfulRecords"`
	FailedRecords     int        `json:"failedRecords"`
	Errors            []string   `json:"errors"`
}

// UploadStatusUploaded is the companion-record status set by the dashboard
// once the file landed in object storage.
const UploadStatusUploaded = "uploaded"

// UploadRecord is the companion record the upload UI creates at submission
// time. The pipeline reads it for status resolution and deletion cascades
// but never creates it.
type UploadRecord struct {
	ImportID    string    `json:"importId"`
	Status      string    `json:"status"`
	FileName    string    `json:"fileName"`
	Timestamp   time.Time `json:"timestamp"`
	UserID      string    `json:"userId"`
	DownloadURL string    `json:"downloadURL"`
}

// JobIDFromObjectName derives the job identifier from an uploaded object
// name: the base name with the extension stripped.
func JobIDFromObjectName(name string) string {
	base := path.Base(name)
	return strings.TrimSuffix(base, path.Ext(base))
}
