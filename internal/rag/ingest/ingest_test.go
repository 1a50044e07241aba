package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/rag/fingerprint"
	"github.com/akolanti/docsync/internal/rag/vectorDB/memoryDB"
)

// --- Mocks ---

type mockEmbedder struct {
	mu        sync.Mutex
	calls     int
	texts     int
	OnBatch   func(ctx context.Context, texts []string) ([][]float32, error)
	batchSize []int
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1, 0}, nil
}

func (m *mockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.texts += len(texts)
	m.batchSize = append(m.batchSize, len(texts))
	m.mu.Unlock()
	if m.OnBatch != nil {
		return m.OnBatch(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1, 0}
	}
	return out, nil
}

func (m *mockEmbedder) Dimension() int { return 3 }

func (m *mockEmbedder) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls, m.texts, m.batchSize = 0, 0, nil
}

// countingStore wraps the in-memory store and counts mutations.
type countingStore struct {
	*memoryDB.Storage
	upserts  int
	deletes  int
	OnUpsert func(record commonModels.Record) error
}

func newCountingStore() *countingStore {
	return &countingStore{Storage: memoryDB.NewStorage()}
}

func (c *countingStore) Upsert(ctx context.Context, collection string, record commonModels.Record) error {
	if c.OnUpsert != nil {
		if err := c.OnUpsert(record); err != nil {
			return err
		}
	}
	c.upserts++
	return c.Storage.Upsert(ctx, collection, record)
}

func (c *countingStore) Delete(ctx context.Context, collection string, ids []string) error {
	c.deletes += len(ids)
	return c.Storage.Delete(ctx, collection, ids)
}

func (c *countingStore) writes() int { return c.upserts + c.deletes }

func (c *countingStore) resetCounts() { c.upserts, c.deletes = 0, 0 }

// --- Helpers ---

func threeParagraphs(fill byte) string {
	para := strings.Repeat(string(fill), 398) + "\n\n"
	return para + para + para
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestSync(t *testing.T, store *countingStore, emb *mockEmbedder) *Synchronizer {
	t.Helper()
	splitter, err := NewSplitter(500, 200)
	require.NoError(t, err)
	return NewSynchronizer(store, emb, splitter)
}

func idsFor(t *testing.T, store *countingStore, filename string) []string {
	t.Helper()
	ids, err := store.IDsByMetadata(context.Background(), "knowledge", commonModels.Metadata{commonModels.MetaFilename: filename})
	require.NoError(t, err)
	return ids
}

func hashesFor(t *testing.T, store *countingStore, filename string) map[string]bool {
	t.Helper()
	metas, err := store.Metadata(context.Background(), "knowledge", idsFor(t, store, filename))
	require.NoError(t, err)
	hashes := map[string]bool{}
	for _, m := range metas {
		hashes[m[commonModels.MetaFileHash]] = true
	}
	return hashes
}

// --- Tests ---

func TestSyncDirectory_Scenario(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.txt", threeParagraphs('a'))

	store := newCountingStore()
	emb := &mockEmbedder{}
	s := newTestSync(t, store, emb)
	req := SyncRequest{SourceDir: dir, Collection: "knowledge"}

	report, err := s.SyncDirectory(ctx, req)
	require.NoError(t, err)
	assert.True(t, report.Created)
	require.Len(t, report.Files, 1)
	assert.Equal(t, commonModels.OutcomeIngested, report.Files[0].Outcome)
	assert.Equal(t, 3, report.Files[0].Chunks)
	assert.Equal(t, []string{"doc_0", "doc_1", "doc_2"}, idsFor(t, store, "doc"))
	assert.NotEmpty(t, report.RunID)

	t.Run("rerun is a no-op", func(t *testing.T) {
		store.resetCounts()
		emb.reset()

		report, err := s.SyncDirectory(ctx, req)
		require.NoError(t, err)
		assert.False(t, report.Created)
		assert.Equal(t, commonModels.OutcomeUnchanged, report.Files[0].Outcome)
		assert.Equal(t, 0, emb.calls)
		assert.Equal(t, 0, store.writes())
		assert.Equal(t, 0, report.Writes())
	})

	t.Run("one changed character replaces every chunk", func(t *testing.T) {
		store.resetCounts()
		emb.reset()
		oldHash := report.Files[0].Hash

		content := []byte(threeParagraphs('a'))
		content[10] = 'b'
		require.NoError(t, os.WriteFile(path, content, 0o644))

		report, err := s.SyncDirectory(ctx, req)
		require.NoError(t, err)
		f := report.Files[0]
		assert.Equal(t, commonModels.OutcomeReplaced, f.Outcome)
		assert.Equal(t, 3, f.Deleted)
		assert.Equal(t, 3, f.Chunks)
		assert.Equal(t, 3, store.deletes)
		assert.Equal(t, 3, store.upserts)
		assert.NotEqual(t, oldHash, f.Hash)

		hashes := hashesFor(t, store, "doc")
		assert.Len(t, hashes, 1)
		assert.True(t, hashes[f.Hash])
	})
}

func TestSyncDirectory_SkipsUnsupported(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "image.png", "not text")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	writeFile(t, dir, "notes.txt", "short note")

	store := newCountingStore()
	emb := &mockEmbedder{}
	report, err := newTestSync(t, store, emb).SyncDirectory(context.Background(), SyncRequest{SourceDir: dir, Collection: "knowledge"})
	require.NoError(t, err)

	require.Len(t, report.Files, 2)
	assert.Equal(t, commonModels.OutcomeSkipped, report.Files[0].Outcome)
	assert.Empty(t, report.Files[0].Hash)
	assert.Equal(t, commonModels.OutcomeIngested, report.Files[1].Outcome)
	assert.Equal(t, 1, emb.texts)
}

func TestSyncDirectory_EmbeddingFailureKeepsOldChunks(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.txt", threeParagraphs('a'))
	writeFile(t, dir, "later.txt", "another file")

	store := newCountingStore()
	emb := &mockEmbedder{}
	s := newTestSync(t, store, emb)
	req := SyncRequest{SourceDir: dir, Collection: "knowledge"}

	first, err := s.SyncDirectory(ctx, req)
	require.NoError(t, err)
	oldHash := first.Files[0].Hash

	require.NoError(t, os.WriteFile(path, []byte(threeParagraphs('z')), 0o644))
	writeFile(t, dir, "later.txt", "another file, edited")
	store.resetCounts()
	emb.OnBatch = func(ctx context.Context, texts []string) ([][]float32, error) {
		if strings.HasPrefix(texts[0], "zzz") {
			return nil, errors.New("rate limited")
		}
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0, 0}
		}
		return out, nil
	}

	report, err := s.SyncDirectory(ctx, req)
	require.NoError(t, err, "embedding failures are per-file")
	require.Len(t, report.Files, 2)
	assert.Equal(t, commonModels.OutcomeFailed, report.Files[0].Outcome)
	assert.Contains(t, report.Files[0].Err, "service error")
	assert.Equal(t, commonModels.OutcomeReplaced, report.Files[1].Outcome, "the run continues")

	assert.Equal(t, []string{"doc_0", "doc_1", "doc_2"}, idsFor(t, store, "doc"))
	assert.Equal(t, map[string]bool{oldHash: true}, hashesFor(t, store, "doc"))
}

func TestSyncDirectory_StoreFailureAborts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "first file")
	writeFile(t, dir, "b.txt", "second file")

	store := newCountingStore()
	store.OnUpsert = func(record commonModels.Record) error {
		return errors.New("connection refused")
	}

	report, err := newTestSync(t, store, &mockEmbedder{}).SyncDirectory(context.Background(), SyncRequest{SourceDir: dir, Collection: "knowledge"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, commonModels.ErrStore))
	require.Len(t, report.Files, 1, "b.txt is never visited")
	assert.Equal(t, commonModels.OutcomeFailed, report.Files[0].Outcome)
	assert.NotEmpty(t, report.Err)
	assert.False(t, report.FinishedAt.IsZero())
}

func TestSyncDirectory_MissingDirectory(t *testing.T) {
	_, err := newTestSync(t, newCountingStore(), &mockEmbedder{}).SyncDirectory(context.Background(), SyncRequest{
		SourceDir:  filepath.Join(t.TempDir(), "missing"),
		Collection: "knowledge",
	})
	assert.True(t, errors.Is(err, commonModels.ErrIO))
}

func TestSyncDirectory_EmptiedFileDropsOldChunks(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.txt", threeParagraphs('a'))

	store := newCountingStore()
	s := newTestSync(t, store, &mockEmbedder{})
	req := SyncRequest{SourceDir: dir, Collection: "knowledge"}
	_, err := s.SyncDirectory(ctx, req)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("  \n\n "), 0o644))
	report, err := s.SyncDirectory(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, commonModels.OutcomeReplaced, report.Files[0].Outcome)
	assert.Equal(t, 3, report.Files[0].Deleted)
	assert.Equal(t, 0, report.Files[0].Chunks)
	assert.Empty(t, idsFor(t, store, "doc"))
}

func TestSyncDirectory_EmbedsInBatches(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	for i := 0; i < 250; i++ {
		b.WriteString("line" + strings.Repeat("x", 4) + "\n")
	}
	writeFile(t, dir, "lines.txt", b.String())

	store := newCountingStore()
	emb := &mockEmbedder{}
	splitter, err := NewSplitter(10, 0)
	require.NoError(t, err)
	s := NewSynchronizer(store, emb, splitter)

	report, err := s.SyncDirectory(context.Background(), SyncRequest{SourceDir: dir, Collection: "knowledge"})
	require.NoError(t, err)
	assert.Equal(t, 250, report.Files[0].Chunks)
	assert.Equal(t, []int{100, 100, 50}, emb.batchSize)
	assert.Equal(t, 250, store.Len("knowledge"))
}

func TestSyncDirectory_ConsistentHashPerFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.txt", threeParagraphs('a'))
	writeFile(t, dir, "other.txt", "unrelated")

	store := newCountingStore()
	s := newTestSync(t, store, &mockEmbedder{})
	req := SyncRequest{SourceDir: dir, Collection: "knowledge"}

	for _, fill := range []byte{'a', 'b', 'c'} {
		require.NoError(t, os.WriteFile(path, []byte(threeParagraphs(fill)), 0o644))
		_, err := s.SyncDirectory(ctx, req)
		require.NoError(t, err)
		assert.Len(t, hashesFor(t, store, "doc"), 1)
		assert.Len(t, hashesFor(t, store, "other"), 1)
	}
}

func TestSyncDirectory_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", "text")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newTestSync(t, newCountingStore(), &mockEmbedder{}).SyncDirectory(ctx, SyncRequest{SourceDir: dir, Collection: "knowledge"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Files)
}

func TestSyncDirectory_AnyRecordedHashCountsAsUnchanged(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.txt", "A nether portal needs obsidian.")
	current, err := fingerprint.File(path)
	require.NoError(t, err)

	store := newCountingStore()
	_, err = store.EnsureCollection(ctx, "knowledge")
	require.NoError(t, err)
	// chunks left behind by an older version of the file sit next to current ones
	for i, hash := range []string{"stale-hash", current} {
		require.NoError(t, store.Storage.Upsert(ctx, "knowledge", commonModels.Record{
			ID:   commonModels.ChunkID("doc", i),
			Text: "seeded",
			Metadata: commonModels.Metadata{
				commonModels.MetaFilename: "doc",
				commonModels.MetaFileHash: hash,
			},
			Embedding: []float32{1, 1, 0},
		}))
	}

	emb := &mockEmbedder{}
	report, err := newTestSync(t, store, emb).SyncDirectory(ctx, SyncRequest{SourceDir: dir, Collection: "knowledge"})
	require.NoError(t, err)

	require.Len(t, report.Files, 1)
	assert.Equal(t, commonModels.OutcomeUnchanged, report.Files[0].Outcome)
	assert.Equal(t, 0, emb.calls)
	assert.Equal(t, 0, store.writes())
	assert.Len(t, idsFor(t, store, "doc"), 2)
}
