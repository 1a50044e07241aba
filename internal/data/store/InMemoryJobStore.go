package store

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/domain/jobModel"
	"github.com/akolanti/docsync/pkg/logger_i"
)

var inMemLogger = logger_i.NewLogger("inmem-store")

type storedJob struct {
	job     jobModel.Job
	expires time.Time
}

// InMemoryJobStore expires jobs after TTL like the Redis store does.
type InMemoryJobStore struct {
	jobMutex *sync.RWMutex
	jobMap   map[string]storedJob
	TTL      time.Duration
	now      func() time.Time
}

func InitInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		jobMutex: new(sync.RWMutex),
		jobMap:   make(map[string]storedJob),
		TTL:      config.RedisJobStoreTTL,
		now:      time.Now,
	}
}

func (store *InMemoryJobStore) SaveJob(ctx context.Context, jobToStore jobModel.Job) error {
	store.jobMutex.Lock()
	defer store.jobMutex.Unlock()

	now := store.now()
	store.evictExpired(now)
	store.jobMap[jobToStore.Id] = storedJob{job: jobToStore, expires: now.Add(store.TTL)}
	inMemLogger.Debug("Saved job to store", "jobId", jobToStore.Id)
	return nil
}

func (store *InMemoryJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	store.jobMutex.RLock()
	defer store.jobMutex.RUnlock()
	entry, found := store.jobMap[jobId]
	if found && !store.now().Before(entry.expires) {
		found = false
	}
	inMemLogger.Debug("Job lookup", "jobId", jobId, "found", found)
	if !found {
		return jobModel.Job{}, false
	}
	return entry.job, true
}

func (store *InMemoryJobStore) DeleteJob(ctx context.Context, jobID string) {
	store.jobMutex.Lock()
	defer store.jobMutex.Unlock()
	delete(store.jobMap, jobID)
}

// Len counts stored jobs, expired ones included until the next save sweeps them.
func (store *InMemoryJobStore) Len() int {
	store.jobMutex.RLock()
	defer store.jobMutex.RUnlock()
	return len(store.jobMap)
}

func (store *InMemoryJobStore) evictExpired(now time.Time) {
	for id, entry := range store.jobMap {
		if !now.Before(entry.expires) {
			delete(store.jobMap, id)
		}
	}
}
