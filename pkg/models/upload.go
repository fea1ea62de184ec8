package models

import "time"

// UploadRole distinguishes the primary contract document from supporting
// reference material.
type UploadRole string

const (
	RolePrimary   UploadRole = "primary"
	RoleReference UploadRole = "reference"
)

// UploadStatus is the top-level lifecycle state of an UploadJob.
type UploadStatus string

const (
	UploadQueued    UploadStatus = "queued"
	UploadRunning   UploadStatus = "running"
	UploadSucceeded UploadStatus = "succeeded"
	UploadFailed    UploadStatus = "failed"
)

// UploadStage is the fine-grained progress marker within UploadRunning.
type UploadStage string

const (
	StageUploaded UploadStage = "uploaded"
	StageLoading  UploadStage = "loading"
	StageParsing  UploadStage = "parsing"
	StageFinished UploadStage = "finished"
	StageFailed   UploadStage = "failed"
)

// UploadJob records one (task_id, role, filename) ingestion.
type UploadJob struct {
	JobID      string       `json:"job_id"`
	TaskID     string       `json:"task_id"`
	Role       UploadRole   `json:"role"`
	Filename   string       `json:"filename"`
	StorageKey string       `json:"storage_key"`
	Status     UploadStatus `json:"status"`
	Stage      UploadStage  `json:"stage"`
	Progress   int          `json:"progress"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ResultMeta map[string]any `json:"result_meta,omitempty"`
	OurParty   string       `json:"our_party,omitempty"`
	Language   string       `json:"language,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Recoverable reports whether a job in this status must be rescheduled (or
// failed outright) on process startup, per get_recoverable_jobs.
func (j *UploadJob) Recoverable() bool {
	return j.Status == UploadQueued || j.Status == UploadRunning
}
