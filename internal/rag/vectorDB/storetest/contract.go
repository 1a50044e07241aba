// Package storetest holds the behaviour every CollectionStore backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/rag/vectorDB"
)

func record(filename string, index int, hash string, vec ...float32) commonModels.Record {
	return commonModels.Record{
		ID:   commonModels.ChunkID(filename, index),
		Text: filename + " chunk text",
		Metadata: commonModels.Metadata{
			commonModels.MetaFilename: filename,
			commonModels.MetaFileHash: hash,
		},
		Embedding: vec,
	}
}

// Run exercises a fresh store returned by newStore. Embeddings are 3-dimensional.
func Run(t *testing.T, newStore func(t *testing.T) vectorDB.CollectionStore) {
	ctx := context.Background()

	t.Run("ensure collection is idempotent", func(t *testing.T) {
		store := newStore(t)
		h, err := store.EnsureCollection(ctx, "docs")
		require.NoError(t, err)
		assert.Equal(t, commonModels.CollectionCreated, h.State)

		h, err = store.EnsureCollection(ctx, "docs")
		require.NoError(t, err)
		assert.Equal(t, commonModels.CollectionExisted, h.State)
		assert.Equal(t, "docs", h.Name)
	})

	t.Run("ids by metadata in chunk order", func(t *testing.T) {
		store := newStore(t)
		_, err := store.EnsureCollection(ctx, "docs")
		require.NoError(t, err)

		for _, i := range []int{10, 2, 0, 1} {
			require.NoError(t, store.Upsert(ctx, "docs", record("guide", i, "h1", 1, 0, 0)))
		}
		require.NoError(t, store.Upsert(ctx, "docs", record("other", 0, "h2", 0, 1, 0)))

		ids, err := store.IDsByMetadata(ctx, "docs", commonModels.Metadata{commonModels.MetaFilename: "guide"})
		require.NoError(t, err)
		assert.Equal(t, []string{"guide_0", "guide_1", "guide_2", "guide_10"}, ids)

		ids, err = store.IDsByMetadata(ctx, "docs", commonModels.Metadata{
			commonModels.MetaFilename: "other",
			commonModels.MetaFileHash: "nope",
		})
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("metadata lookup", func(t *testing.T) {
		store := newStore(t)
		_, err := store.EnsureCollection(ctx, "docs")
		require.NoError(t, err)
		require.NoError(t, store.Upsert(ctx, "docs", record("guide", 0, "h1", 1, 0, 0)))

		metas, err := store.Metadata(ctx, "docs", []string{"guide_0", "missing_0"})
		require.NoError(t, err)
		require.Len(t, metas, 1)
		assert.Equal(t, "h1", metas["guide_0"][commonModels.MetaFileHash])
	})

	t.Run("upsert overwrites", func(t *testing.T) {
		store := newStore(t)
		_, err := store.EnsureCollection(ctx, "docs")
		require.NoError(t, err)
		require.NoError(t, store.Upsert(ctx, "docs", record("guide", 0, "h1", 1, 0, 0)))
		require.NoError(t, store.Upsert(ctx, "docs", record("guide", 0, "h2", 1, 0, 0)))

		ids, err := store.IDsByMetadata(ctx, "docs", commonModels.Metadata{commonModels.MetaFilename: "guide"})
		require.NoError(t, err)
		assert.Len(t, ids, 1)

		metas, err := store.Metadata(ctx, "docs", ids)
		require.NoError(t, err)
		assert.Equal(t, "h2", metas["guide_0"][commonModels.MetaFileHash])
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store := newStore(t)
		_, err := store.EnsureCollection(ctx, "docs")
		require.NoError(t, err)
		require.NoError(t, store.Upsert(ctx, "docs", record("guide", 0, "h1", 1, 0, 0)))

		require.NoError(t, store.Delete(ctx, "docs", []string{"guide_0", "ghost_3"}))
		require.NoError(t, store.Delete(ctx, "docs", []string{"guide_0"}))
		require.NoError(t, store.Delete(ctx, "docs", nil))

		ids, err := store.IDsByMetadata(ctx, "docs", commonModels.Metadata{commonModels.MetaFilename: "guide"})
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("similarity search ranks by relevance", func(t *testing.T) {
		store := newStore(t)
		_, err := store.EnsureCollection(ctx, "docs")
		require.NoError(t, err)
		require.NoError(t, store.Upsert(ctx, "docs", record("near", 0, "h", 1, 0.1, 0)))
		require.NoError(t, store.Upsert(ctx, "docs", record("mid", 0, "h", 0.5, 0.5, 0)))
		require.NoError(t, store.Upsert(ctx, "docs", record("far", 0, "h", 0, 0, 1)))

		matches, err := store.SimilaritySearch(ctx, "docs", []float32{1, 0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "near_0", matches[0].ID)
		assert.Equal(t, "mid_0", matches[1].ID)
		assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
		assert.Equal(t, "near", matches[0].Metadata[commonModels.MetaFilename])
		assert.Equal(t, "near chunk text", matches[0].Text)
	})

	t.Run("non-positive k falls back to the default", func(t *testing.T) {
		store := newStore(t)
		_, err := store.EnsureCollection(ctx, "docs")
		require.NoError(t, err)
		for i, name := range []string{"a", "b", "c", "d", "e", "f"} {
			require.NoError(t, store.Upsert(ctx, "docs", record(name, 0, "h", 1, float32(i)*0.1, 0)))
		}

		for _, k := range []int{0, -1} {
			matches, err := store.SimilaritySearch(ctx, "docs", []float32{1, 0, 0}, k)
			require.NoError(t, err)
			assert.Len(t, matches, vectorDB.DefaultTopK, "k=%d", k)
			assert.Equal(t, "a_0", matches[0].ID, "k=%d", k)
		}
	})

	t.Run("collections are isolated", func(t *testing.T) {
		store := newStore(t)
		_, err := store.EnsureCollection(ctx, "a")
		require.NoError(t, err)
		_, err = store.EnsureCollection(ctx, "b")
		require.NoError(t, err)
		require.NoError(t, store.Upsert(ctx, "a", record("guide", 0, "h", 1, 0, 0)))

		ids, err := store.IDsByMetadata(ctx, "b", commonModels.Metadata{commonModels.MetaFilename: "guide"})
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}
