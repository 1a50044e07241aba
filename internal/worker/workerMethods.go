package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/docsync/internal/config"
	jobmodel "github.com/akolanti/docsync/internal/domain/jobModel"
	"github.com/akolanti/docsync/internal/metrics"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()

	timeout := config.QueryJobTimeout
	if job.JobType == jobmodel.JobTypeSync {
		timeout = config.SyncJobTimeout
	}
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, timeout)
	defer cancel()

	log := logger.With("traceId", job.TraceId, "jobId", job.Id, "jobType", job.JobType)
	log.Debug("Processing job")

	job = saveJobState(ctx, job, jobmodel.JobStatusRunning)

	if job.JobType == jobmodel.JobTypeSync {
		job = _ragService.ProcessSyncJob(ctx, job)
		if job.JobPayload.Report != nil && _jobService.RunStore != nil {
			if err := _jobService.RunStore.SaveRun(ctx, *job.JobPayload.Report); err != nil {
				log.Error("Failed to record sync report", "error", err)
			}
		}
	} else {
		job = _ragService.ProcessQueryJob(ctx, job)
	}

	job.EndTime = time.Now()
	if job.Status == jobmodel.JobStatusError {
		saveJobState(ctx, job, jobmodel.JobStatusError)
		return
	}
	saveJobState(ctx, job, jobmodel.JobStatusComplete)
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	count := atomic.AddInt64(&currentWorkerCount, -1)
	logger.Debug("Removed worker", "reason", reason, "workerCount", count)
	metrics.DecrementActiveWorkerCount()
}

func saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) jobmodel.Job {
	job.Status = jobStatus
	// the final state must be written even when the job ran out of time
	if err := _jobService.JobStore.SaveJob(context.WithoutCancel(ctx), job); err != nil {
		logger.Error("Failed to update job status", "jobId", job.Id, "error", err)
	}
	return job
}
