package jobModel

import (
	"context"
	"time"

	"github.com/akolanti/docsync/internal/domain/commonModels"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	QueryInit        InternalStatus = "QueryInit"
	ExpandCall       InternalStatus = "Expand"
	RetrieveCall     InternalStatus = "Retrieve"
	EmbeddingAPICall InternalStatus = "EmbeddingAPI"
	VectorDBCall     InternalStatus = "VectorDB"

	SyncInit       InternalStatus = "SyncInit"
	SyncProcessing InternalStatus = "SyncProcessing"
	Error          InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeQuery JobType = "Query"
	JobTypeSync  JobType = "Sync"
)

type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	Collection string `json:"collection"`

	Goal   string                    `json:"goal,omitempty"`
	State  string                    `json:"state,omitempty"`
	TopK   int                       `json:"top_k,omitempty"`
	Result *commonModels.QueryResult `json:"result,omitempty"`

	SourceDir string                   `json:"source_dir,omitempty"`
	Report    *commonModels.SyncReport `json:"report,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}

// RunStore keeps the history of sync reports per collection.
type RunStore interface {
	SaveRun(ctx context.Context, report commonModels.SyncReport) error
	GetRun(ctx context.Context, runId string) (commonModels.SyncReport, bool)
	ListRuns(ctx context.Context, collection string, limit int) ([]commonModels.SyncReport, error)
	LatestRun(ctx context.Context, collection string) (commonModels.SyncReport, bool)
}
