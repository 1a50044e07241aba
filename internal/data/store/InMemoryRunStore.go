package store

import (
	"context"
	"sync"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/domain/commonModels"
)

// InMemoryRunStore keeps the newest config.RunHistoryLimit reports per collection.
type InMemoryRunStore struct {
	mu      sync.RWMutex
	runs    map[string]commonModels.SyncReport
	history map[string][]string
}

func InitInMemoryRunStore() *InMemoryRunStore {
	return &InMemoryRunStore{
		runs:    make(map[string]commonModels.SyncReport),
		history: make(map[string][]string),
	}
}

func (store *InMemoryRunStore) SaveRun(ctx context.Context, report commonModels.SyncReport) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.runs[report.RunID] = report
	ids := append([]string{report.RunID}, store.history[report.Collection]...)
	if len(ids) > config.RunHistoryLimit {
		for _, dropped := range ids[config.RunHistoryLimit:] {
			delete(store.runs, dropped)
		}
		ids = ids[:config.RunHistoryLimit]
	}
	store.history[report.Collection] = ids
	inMemLogger.Debug("Saved sync report", "runId", report.RunID, "collection", report.Collection)
	return nil
}

func (store *InMemoryRunStore) GetRun(ctx context.Context, runId string) (commonModels.SyncReport, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	report, ok := store.runs[runId]
	return report, ok
}

func (store *InMemoryRunStore) ListRuns(ctx context.Context, collection string, limit int) ([]commonModels.SyncReport, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	ids := store.history[collection]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	out := make([]commonModels.SyncReport, 0, len(ids))
	for _, id := range ids {
		out = append(out, store.runs[id])
	}
	return out, nil
}

func (store *InMemoryRunStore) LatestRun(ctx context.Context, collection string) (commonModels.SyncReport, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	ids := store.history[collection]
	if len(ids) == 0 {
		return commonModels.SyncReport{}, false
	}
	return store.runs[ids[0]], true
}
