package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/data/redisStore"
	"github.com/akolanti/docsync/internal/data/store"
	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/domain/jobModel"
)

func report(id, collection string) commonModels.SyncReport {
	return commonModels.SyncReport{
		RunID:      id,
		Collection: collection,
		SourceDir:  "./knowledge/original_src",
		StartedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Files: []commonModels.FileReport{
			{Path: "doc.txt", Filename: "doc", Outcome: commonModels.OutcomeIngested, Chunks: 3},
		},
	}
}

func runStores(t *testing.T) map[string]jobModel.RunStore {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return map[string]jobModel.RunStore{
		"redis":  store.NewRedisRunStore(redisStore.NewTestStore(client)),
		"memory": store.InitInMemoryRunStore(),
	}
}

func TestRunStores(t *testing.T) {
	for name, runs := range runStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok := runs.LatestRun(ctx, "knowledge")
			assert.False(t, ok)

			require.NoError(t, runs.SaveRun(ctx, report("run-1", "knowledge")))
			require.NoError(t, runs.SaveRun(ctx, report("run-2", "knowledge")))
			require.NoError(t, runs.SaveRun(ctx, report("other-1", "other")))

			got, ok := runs.GetRun(ctx, "run-1")
			require.True(t, ok)
			assert.Equal(t, 3, got.Files[0].Chunks)
			assert.Equal(t, commonModels.OutcomeIngested, got.Files[0].Outcome)

			latest, ok := runs.LatestRun(ctx, "knowledge")
			require.True(t, ok)
			assert.Equal(t, "run-2", latest.RunID)

			list, err := runs.ListRuns(ctx, "knowledge", 0)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "run-2", list[0].RunID, "newest first")
			assert.Equal(t, "run-1", list[1].RunID)

			list, err = runs.ListRuns(ctx, "knowledge", 1)
			require.NoError(t, err)
			assert.Len(t, list, 1)

			_, ok = runs.GetRun(ctx, "ghost")
			assert.False(t, ok)
		})
	}
}

func TestRunStores_HistoryIsCapped(t *testing.T) {
	for name, runs := range runStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < config.RunHistoryLimit+5; i++ {
				require.NoError(t, runs.SaveRun(ctx, report(fmt.Sprintf("run-%d", i), "knowledge")))
			}

			list, err := runs.ListRuns(ctx, "knowledge", 0)
			require.NoError(t, err)
			require.Len(t, list, config.RunHistoryLimit)
			assert.Equal(t, fmt.Sprintf("run-%d", config.RunHistoryLimit+4), list[0].RunID)
		})
	}
}
