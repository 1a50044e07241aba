package api

import (
	"time"

	"github.com/akolanti/docsync/internal/domain/commonModels"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id          string                   `json:"id"`
	Type        string                   `json:"type,omitempty"`
	Status      string                   `json:"status"`
	CurrentStep string                   `json:"current_step,omitempty"`
	Query       *QueryResponse           `json:"query,omitempty"`
	Report      *commonModels.SyncReport `json:"report,omitempty"`
	Error       *JobOutgoingError        `json:"error,omitempty"`
	StartTime   time.Time                `json:"start_time"`
	EndTime     time.Time                `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"can_retry"`
}

type QueryResponse struct {
	Queries     []string             `json:"queries"`
	UniqueCount int                  `json:"unique_count"`
	Matches     []commonModels.Match `json:"matches"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type RunsResponse struct {
	Collection string                    `json:"collection"`
	Runs       []commonModels.SyncReport `json:"runs"`
}

// requests---------------------

type SyncRequest struct {
	SourceDir  string `json:"source_dir,omitempty"`
	Collection string `json:"collection,omitempty"`
}

type QueryRequest struct {
	Goal       string `json:"goal"`
	State      string `json:"state,omitempty"`
	Collection string `json:"collection,omitempty"`
	TopK       int    `json:"top_k,omitempty"`
}
