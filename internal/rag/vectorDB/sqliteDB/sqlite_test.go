package sqliteDB

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/rag/vectorDB"
	"github.com/akolanti/docsync/internal/rag/vectorDB/sqliteDB/migrations"
	"github.com/akolanti/docsync/internal/rag/vectorDB/storetest"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorage_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) vectorDB.CollectionStore {
		return newTestStorage(t)
	})
}

func TestStorage_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "store")

	s, err := NewStorage(dir)
	require.NoError(t, err)
	_, err = s.EnsureCollection(ctx, "docs")
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, "docs", commonModels.Record{
		ID:        "guide_0",
		Text:      "hello",
		Metadata:  commonModels.Metadata{commonModels.MetaFilename: "guide", commonModels.MetaFileHash: "abc"},
		Embedding: []float32{0.25, -1.5, 3},
	}))
	require.NoError(t, s.Close())

	s, err = NewStorage(dir)
	require.NoError(t, err)
	defer s.Close()

	h, err := s.EnsureCollection(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, commonModels.CollectionExisted, h.State)

	matches, err := s.SimilaritySearch(ctx, "docs", []float32{0.25, -1.5, 3}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "guide_0", matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestStorage_MigrationsAreRecorded(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.migrate(migrations.FS), "re-running migrations is a no-op")

	var version int
	require.NoError(t, s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestStorage_UpsertUnknownCollection(t *testing.T) {
	s := newTestStorage(t)
	err := s.Upsert(context.Background(), "ghost", commonModels.Record{ID: "x_0", Text: "t"})
	assert.ErrorIs(t, err, commonModels.ErrStore)
}

func TestStorage_ManyIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	_, err := s.EnsureCollection(ctx, "docs")
	require.NoError(t, err)

	var ids []string
	for i := 0; i < 1200; i++ {
		id := commonModels.ChunkID("big", i)
		ids = append(ids, id)
		require.NoError(t, s.Upsert(ctx, "docs", commonModels.Record{
			ID:       id,
			Text:     "t",
			Metadata: commonModels.Metadata{commonModels.MetaFilename: "big"},
		}))
	}

	metas, err := s.Metadata(ctx, "docs", ids)
	require.NoError(t, err)
	assert.Len(t, metas, 1200)

	require.NoError(t, s.Delete(ctx, "docs", ids))
	left, err := s.IDsByMetadata(ctx, "docs", commonModels.Metadata{commonModels.MetaFilename: "big"})
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestFloat32Bytes(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.4e38}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Nil(t, float32SliceToBytes(nil))
}
