package handlers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/domain/jobModel"
	"github.com/akolanti/docsync/internal/job"
	"github.com/akolanti/docsync/internal/metrics"
	"github.com/akolanti/docsync/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           = logger_i.NewLogger("job-handler")
	errQueueClosed  = errors.New("request cancelled before the job was queued")
)

// Defaults fill in fields a request leaves empty.
type Defaults struct {
	SourceDir  string
	Collection string
	TopK       int
}

type JobHandler struct {
	service  *job.Service
	defaults Defaults
}

func InitJobHandler(jobService *job.Service, defaults Defaults) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService, defaults: defaults}
		logJH.Info("Starting job handler")
	})
}

func CreateNewJob(ctx context.Context, newJob newJobData) error {
	logJH.With("traceId", newJob.traceId, "jobId", newJob.id).Debug("Creating new job", "type", newJob.jobType)
	return handlerInstance.pushToJobChannel(ctx, newJob)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

func ListRuns(ctx context.Context, collection string) ([]commonModels.SyncReport, error) {
	if handlerInstance == nil || handlerInstance.service.RunStore == nil {
		return nil, nil
	}
	if collection == "" {
		collection = handlerInstance.defaults.Collection
	}
	return handlerInstance.service.RunStore.ListRuns(ctx, collection, config.RunHistoryLimit)
}

func defaults() Defaults {
	if handlerInstance == nil {
		return Defaults{}
	}
	return handlerInstance.defaults
}

// private methods
func (h *JobHandler) pushToJobChannel(ctx context.Context, newJob newJobData) error {
	_job := jobModel.Job{
		Id:          newJob.id,
		TraceId:     newJob.traceId,
		JobType:     newJob.jobType,
		JobPayload:  newJob.payload,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
	}

	queue := h.service.QueryChannel
	_job.CurrentStep = jobModel.QueryInit
	if _job.JobType == jobModel.JobTypeSync {
		queue = h.service.SyncChannel
		_job.CurrentStep = jobModel.SyncInit
	}

	// status must be visible before a worker can pick the job up
	if err := h.service.JobStore.SaveJob(ctx, _job); err != nil {
		logJH.Error("Failed to save queued job", "jobId", _job.Id, "error", err)
	}

	// blocking send so a full queue pushes back on callers
	select {
	case queue <- _job:
	case <-ctx.Done():
		return errQueueClosed
	}
	metrics.IncrementJobsInQueue()
	logJH.Debug("Queued job", "jobId", _job.Id)

	//a new reader joins every RequestsPerNewWorkerCount queries; idle readers retire on their own
	if _job.JobType == jobModel.JobTypeQuery {
		accurateCount := atomic.AddInt64(&h.service.RequestCount, 1)
		if accurateCount%config.RequestsPerNewWorkerCount == 0 {
			metrics.StartDispatcherSignalCount()
			select {
			case h.service.DispatcherChannel <- true:
			default:
			}
		}
	}
	return nil
}
