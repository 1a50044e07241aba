package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/docsync/internal/data/store"
	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/domain/jobModel"
	"github.com/akolanti/docsync/internal/job"
	"github.com/akolanti/docsync/internal/rag"
	"github.com/akolanti/docsync/internal/rag/ingest"
)

// MockRagService tracks executed jobs and how many syncs overlapped.
type MockRagService struct {
	QueryCount    int32
	SyncCount     int32
	activeSyncs   int32
	MaxConcurrent int32
	SyncDelay     time.Duration
}

func (m *MockRagService) Sync(ctx context.Context, req ingest.SyncRequest) (commonModels.SyncReport, error) {
	return commonModels.SyncReport{}, nil
}

func (m *MockRagService) Query(ctx context.Context, req rag.QueryRequest) (commonModels.QueryResult, error) {
	return commonModels.QueryResult{}, nil
}

func (m *MockRagService) ProcessQueryJob(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.QueryCount, 1)
	j.JobPayload.Result = &commonModels.QueryResult{Queries: []string{j.JobPayload.Goal}}
	return j
}

func (m *MockRagService) ProcessSyncJob(ctx context.Context, j jobModel.Job) jobModel.Job {
	active := atomic.AddInt32(&m.activeSyncs, 1)
	for {
		prev := atomic.LoadInt32(&m.MaxConcurrent)
		if active <= prev || atomic.CompareAndSwapInt32(&m.MaxConcurrent, prev, active) {
			break
		}
	}
	time.Sleep(m.SyncDelay)
	atomic.AddInt32(&m.activeSyncs, -1)
	atomic.AddInt32(&m.SyncCount, 1)
	j.JobPayload.Report = &commonModels.SyncReport{RunID: "run-" + j.Id, Collection: j.JobPayload.Collection}
	return j
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWorkerPool_Flow(t *testing.T) {
	jobStore := store.InitInMemoryJobStore()
	runStore := store.InitInMemoryRunStore()
	jobSvc := job.InitJobService(job.ServiceConfig{BufferLimit: 10, JobStore: jobStore, RunStore: runStore})
	mockRag := &MockRagService{SyncDelay: 20 * time.Millisecond}
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	atomic.StoreInt64(&currentWorkerCount, 0)
	InitServices(jobSvc, mockRag)
	InitWorkerPool(stopChan, wg)

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		jobSvc.DispatcherChannel <- true
		waitFor(t, func() bool { return atomic.LoadInt64(&currentWorkerCount) >= 2 })
	})

	t.Run("Worker processes a query job", func(t *testing.T) {
		jobSvc.QueryChannel <- jobModel.Job{Id: "query-1", JobType: jobModel.JobTypeQuery, JobPayload: jobModel.JobPayload{Goal: "portal"}}

		waitFor(t, func() bool {
			j, ok := jobStore.GetJob(context.Background(), "query-1")
			return ok && j.Status == jobModel.JobStatusComplete
		})
		j, _ := jobStore.GetJob(context.Background(), "query-1")
		if j.JobPayload.Result == nil || j.JobPayload.Result.Queries[0] != "portal" {
			t.Errorf("query result not stored: %+v", j.JobPayload.Result)
		}
	})

	t.Run("Sync jobs never overlap", func(t *testing.T) {
		for _, id := range []string{"sync-1", "sync-2", "sync-3"} {
			jobSvc.SyncChannel <- jobModel.Job{Id: id, JobType: jobModel.JobTypeSync, JobPayload: jobModel.JobPayload{Collection: "knowledge"}}
		}
		waitFor(t, func() bool { return atomic.LoadInt32(&mockRag.SyncCount) == 3 })

		if got := atomic.LoadInt32(&mockRag.MaxConcurrent); got != 1 {
			t.Errorf("Expected one sync at a time, saw %d", got)
		}
		waitFor(t, func() bool {
			runs, _ := runStore.ListRuns(context.Background(), "knowledge", 0)
			return len(runs) == 3
		})
		latest, ok := runStore.LatestRun(context.Background(), "knowledge")
		if !ok || latest.RunID != "run-sync-3" {
			t.Errorf("latest run got %q", latest.RunID)
		}
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		close(stopChan)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestWorker_IdleTimeout(t *testing.T) {
	atomic.StoreInt64(&currentWorkerCount, 0)
	oldMin, oldIdle := atomic.LoadInt64(&minWorkerCount), idleWorkerTimeout
	atomic.StoreInt64(&minWorkerCount, 0)
	idleWorkerTimeout = 20 * time.Millisecond
	t.Cleanup(func() {
		atomic.StoreInt64(&minWorkerCount, oldMin)
		idleWorkerTimeout = oldIdle
	})

	jobSvc := job.InitJobService(job.ServiceConfig{JobStore: store.InitInMemoryJobStore()})
	InitServices(jobSvc, &MockRagService{})

	wg := &sync.WaitGroup{}
	workerWaitGroup = wg
	stopWorkerChannel = make(chan bool)

	createWorker()
	waitFor(t, func() bool { return atomic.LoadInt64(&currentWorkerCount) == 0 })
	wg.Wait()
}
