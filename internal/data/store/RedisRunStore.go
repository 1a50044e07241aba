package store

import (
	"context"
	"encoding/json"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/data/redisStore"
	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/pkg/logger_i"
)

/*
Keys:
  run:{id}            JSON sync report
  runs:{collection}   list of run ids, newest first, capped at RunHistoryLimit
  latest:{collection} id of the newest run
*/
func runKey(id string) string             { return "run:" + id }
func historyKey(collection string) string { return "runs:" + collection }
func latestKey(collection string) string  { return "latest:" + collection }

type RedisRunStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

// GetRedisRunStore returns nil when Redis cannot be reached.
func GetRedisRunStore(ctx context.Context, opts redisStore.Options) *RedisRunStore {
	s := redisStore.GetRedisStore(ctx, opts, config.RedisRunStore)
	if s == nil {
		return nil
	}
	return NewRedisRunStore(s)
}

func NewRedisRunStore(s *redisStore.Store) *RedisRunStore {
	return &RedisRunStore{
		store:  s,
		logger: logger_i.NewLogger("run-store"),
	}
}

func (s *RedisRunStore) SaveRun(ctx context.Context, report commonModels.SyncReport) error {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("runId", report.RunID, "collection", report.Collection)
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	if err = s.store.Set(ctx, runKey(report.RunID), data, config.RedisRunStoreTTL); err != nil {
		return err
	}
	if err = s.store.PushCapped(ctx, historyKey(report.Collection), report.RunID, config.RunHistoryLimit, config.RedisRunStoreTTL); err != nil {
		return err
	}
	if err = s.store.Set(ctx, latestKey(report.Collection), report.RunID, config.RedisRunStoreTTL); err != nil {
		return err
	}
	log.Debug("Saved sync report")
	return nil
}

func (s *RedisRunStore) GetRun(ctx context.Context, runId string) (commonModels.SyncReport, bool) {
	var report commonModels.SyncReport
	val, err := s.store.Get(ctx, runKey(runId))
	if err != nil {
		if !s.store.IsNil(err) {
			s.logger.Error("Failed to read run", "runId", runId, "error", err)
		}
		return report, false
	}
	if err = json.Unmarshal([]byte(val), &report); err != nil {
		s.logger.Error("Failed to decode run", "runId", runId, "error", err)
		return report, false
	}
	return report, true
}

// ListRuns returns the newest runs first. Ids whose report already expired are skipped.
func (s *RedisRunStore) ListRuns(ctx context.Context, collection string, limit int) ([]commonModels.SyncReport, error) {
	ids, err := s.store.ListRange(ctx, historyKey(collection), int64(limit))
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = runKey(id)
	}
	values, err := s.store.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}

	out := make([]commonModels.SyncReport, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var report commonModels.SyncReport
		if err := json.Unmarshal([]byte(raw), &report); err != nil {
			s.logger.Warn("Skipping undecodable run", "runId", ids[i], "error", err)
			continue
		}
		out = append(out, report)
	}
	return out, nil
}

func (s *RedisRunStore) LatestRun(ctx context.Context, collection string) (commonModels.SyncReport, bool) {
	id, err := s.store.Get(ctx, latestKey(collection))
	if err != nil {
		return commonModels.SyncReport{}, false
	}
	return s.GetRun(ctx, id)
}
