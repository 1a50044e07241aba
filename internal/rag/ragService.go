package rag

import (
	"context"
	"time"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/domain/jobModel"
	"github.com/akolanti/docsync/internal/metrics"
	"github.com/akolanti/docsync/internal/rag/embedding"
	"github.com/akolanti/docsync/internal/rag/ingest"
	"github.com/akolanti/docsync/internal/rag/llm"
	"github.com/akolanti/docsync/internal/rag/retrieve"
	"github.com/akolanti/docsync/internal/rag/vectorDB"
	"github.com/akolanti/docsync/pkg/logger_i"
)

/*
Service is the only thing callers (worker, CLI, MCP) see. The private
service struct holds the store, the model clients and the synchronizer so
they can be swapped for mocks without touching the callers.
*/
type Service interface {
	Sync(ctx context.Context, req ingest.SyncRequest) (commonModels.SyncReport, error)
	Query(ctx context.Context, req QueryRequest) (commonModels.QueryResult, error)

	ProcessSyncJob(ctx context.Context, job jobModel.Job) jobModel.Job
	ProcessQueryJob(ctx context.Context, job jobModel.Job) jobModel.Job
}

type QueryRequest struct {
	Collection string `json:"collection"`
	Goal       string `json:"goal"`
	State      string `json:"state"`
	TopK       int    `json:"top_k,omitempty"`
}

type Options struct {
	Splitter   ingest.Splitter
	QueryCount int
	TopK       int
}

type service struct {
	store    vectorDB.CollectionStore
	embedder embedding.Embedder
	sync     *ingest.Synchronizer
	expander *retrieve.Expander
	topK     int
	logger   *logger_i.Logger
}

func NewService(store vectorDB.CollectionStore, provider llm.Provider, em embedding.Embedder, opts Options) Service {
	return &service{
		store:    store,
		embedder: em,
		sync:     ingest.NewSynchronizer(store, em, opts.Splitter),
		expander: retrieve.NewExpander(provider, opts.QueryCount),
		topK:     vectorDB.NormalizeK(opts.TopK),
		logger:   logger_i.NewLogger("rag"),
	}
}

func (s *service) Sync(ctx context.Context, req ingest.SyncRequest) (commonModels.SyncReport, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("sync_run", time.Since(start)) }()

	return s.sync.SyncDirectory(ctx, req)
}

func (s *service) Query(ctx context.Context, req QueryRequest) (commonModels.QueryResult, error) {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("collection", req.Collection)

	queries, err := s.executeExpandStep(ctx, log, req)
	if err != nil {
		return commonModels.QueryResult{}, err
	}

	matches, err := s.executeRetrieveStep(ctx, log, req, queries)
	if err != nil {
		return commonModels.QueryResult{Queries: queries}, err
	}

	log.Info("query complete", "queries", len(queries), "unique_chunks", len(matches))
	return commonModels.QueryResult{Queries: queries, Matches: matches}, nil
}

func (s *service) ProcessSyncJob(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("jobId", job.Id)
	job = logOutput(job, jobModel.SyncProcessing, log)

	report, err := s.Sync(ctx, ingest.SyncRequest{
		SourceDir:  job.JobPayload.SourceDir,
		Collection: job.JobPayload.Collection,
	})
	job.JobPayload.Report = &report
	if err != nil {
		return s.jobError(job, err, "SYNC_FAILURE")
	}
	job.CurrentStep = jobModel.Complete
	return job
}

func (s *service) ProcessQueryJob(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("jobId", job.Id)
	job = logOutput(job, jobModel.ExpandCall, log)

	result, err := s.Query(ctx, QueryRequest{
		Collection: job.JobPayload.Collection,
		Goal:       job.JobPayload.Goal,
		State:      job.JobPayload.State,
		TopK:       job.JobPayload.TopK,
	})
	if err != nil {
		return s.jobError(job, err, "QUERY_FAILURE")
	}
	job.JobPayload.Result = &result
	job.CurrentStep = jobModel.Complete
	return job
}
