package adapter

import (
	"fmt"

	"github.com/akolanti/docsync/internal/api"
	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	return api.JobResponse{
		Id:          job.Id,
		Type:        string(job.JobType),
		Status:      string(job.Status),
		CurrentStep: string(job.CurrentStep),
		Query:       ToQueryResponse(job.JobPayload.Result),
		Report:      job.JobPayload.Report,
		StartTime:   job.CreatedTime,
		EndTime:     job.EndTime,
		Error:       errorPtr,
	}
}

func ToQueryResponse(result *commonModels.QueryResult) *api.QueryResponse {
	if result == nil {
		return nil
	}
	return &api.QueryResponse{
		Queries:     result.Queries,
		UniqueCount: len(result.Matches),
		Matches:     result.Matches,
	}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:     id,
		Status: string(api.JobStatusError),
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
