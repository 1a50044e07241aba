package store

import (
	"context"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/data/redisStore"
	"github.com/akolanti/docsync/internal/domain/jobModel"
)

// NewJobStore prefers Redis and falls back to memory when it is offline.
func NewJobStore(ctx context.Context, opts redisStore.Options) jobModel.JobStore {
	if s := GetRedisJobStore(ctx, opts); s != nil {
		return s
	}
	if !config.FALLBACK_REDIS_TO_INTERNALSTORE {
		return nil
	}
	inMemLogger.Warn("Redis job store offline, using in-memory store")
	return InitInMemoryJobStore()
}

// NewRunStore prefers Redis and falls back to memory when it is offline.
func NewRunStore(ctx context.Context, opts redisStore.Options) jobModel.RunStore {
	if s := GetRedisRunStore(ctx, opts); s != nil {
		return s
	}
	if !config.FALLBACK_REDIS_TO_INTERNALSTORE {
		return nil
	}
	inMemLogger.Warn("Redis run store offline, using in-memory store")
	return InitInMemoryRunStore()
}
