package rag

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/domain/jobModel"
	"github.com/akolanti/docsync/internal/metrics"
	"github.com/akolanti/docsync/internal/rag/retrieve"
	"github.com/akolanti/docsync/internal/telemetry"
	"github.com/akolanti/docsync/pkg/logger_i"
)

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("processing job", "currentStep", job.CurrentStep)
	return job
}

// jobError maps the error kind onto the status code and retry hint callers see.
func (s *service) jobError(job jobModel.Job, err error, message string) jobModel.Job {
	s.logger.Error(message, "jobId", job.Id, "error", err)

	code, retry := http.StatusInternalServerError, false
	switch {
	case errors.Is(err, commonModels.ErrEmptyInput):
		code = http.StatusBadRequest
	case errors.Is(err, commonModels.ErrIO):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, commonModels.ErrService):
		code, retry = http.StatusBadGateway, true
	case errors.Is(err, commonModels.ErrStore):
		code, retry = http.StatusServiceUnavailable, true
	case errors.Is(err, context.DeadlineExceeded):
		code, retry = http.StatusGatewayTimeout, true
	}

	job.Error = jobModel.JobError{
		Code:    code,
		Message: err.Error(),
		Retry:   retry,
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	return job
}

func (s *service) executeExpandStep(ctx context.Context, log *logger_i.Logger, req QueryRequest) ([]string, error) {
	log.Debug("expanding question", "goal", req.Goal)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("query_expansion", time.Since(start)) }()

	queries, err := s.expander.Expand(ctx, req.Goal, req.State)
	if err != nil && !errors.Is(err, commonModels.ErrEmptyInput) {
		telemetry.CaptureError(ctx, err)
	}
	return queries, err
}

func (s *service) executeRetrieveStep(ctx context.Context, log *logger_i.Logger, req QueryRequest, queries []string) ([]commonModels.Match, error) {
	k := s.topK
	if req.TopK > 0 {
		k = req.TopK
	}
	log.Debug("retrieving", "queries", len(queries), "k", k)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("retrieval", time.Since(start)) }()

	matches, err := retrieve.NewAggregator(s.store, s.embedder, k).Retrieve(ctx, req.Collection, queries)
	if err != nil {
		telemetry.CaptureError(ctx, err)
	}
	return matches, err
}
