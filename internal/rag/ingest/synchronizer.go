package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/metrics"
	"github.com/akolanti/docsync/internal/rag/embedding"
	"github.com/akolanti/docsync/internal/rag/fingerprint"
	"github.com/akolanti/docsync/internal/rag/vectorDB"
	"github.com/akolanti/docsync/internal/telemetry"
	"github.com/akolanti/docsync/pkg/logger_i"
)

var logger = logger_i.NewLogger("ingest")

type SyncRequest struct {
	SourceDir  string `json:"source_dir"`
	Collection string `json:"collection"`
}

// Synchronizer brings a collection in line with the files of a directory.
// It assumes it is the only writer of the collection while it runs.
type Synchronizer struct {
	Store     vectorDB.CollectionStore
	Embedder  embedding.Embedder
	Splitter  Splitter
	Logger    *logger_i.Logger
	BatchSize int
}

func NewSynchronizer(store vectorDB.CollectionStore, embedder embedding.Embedder, splitter Splitter) *Synchronizer {
	return &Synchronizer{
		Store:     store,
		Embedder:  embedder,
		Splitter:  splitter,
		Logger:    logger,
		BatchSize: config.EmbeddingBatchSize,
	}
}

// SyncDirectory visits every regular file directly under req.SourceDir in name
// order. Per-file failures are recorded in the report and the run continues;
// a store failure aborts the run and the partial report is returned with it.
func (s *Synchronizer) SyncDirectory(ctx context.Context, req SyncRequest) (commonModels.SyncReport, error) {
	log := s.logger().WithTrace(ctx, config.TRACE_ID_KEY).With("collection", req.Collection)
	report := commonModels.SyncReport{
		RunID:      uuid.NewString(),
		Collection: req.Collection,
		SourceDir:  req.SourceDir,
		StartedAt:  time.Now().UTC(),
	}
	finish := func(err error) (commonModels.SyncReport, error) {
		report.FinishedAt = time.Now().UTC()
		if err != nil {
			report.Err = err.Error()
		}
		return report, err
	}

	ctx, span := telemetry.StartSpan(ctx, "sync", "sync "+req.Collection)
	defer span.End()

	handle, err := s.Store.EnsureCollection(ctx, req.Collection)
	if err != nil {
		span.SetError(err)
		return finish(commonModels.StoreError("ensure collection", err))
	}
	report.Created = handle.State == commonModels.CollectionCreated
	log.Info("collection ready", "state", handle.State.String())

	entries, err := os.ReadDir(req.SourceDir)
	if err != nil {
		return finish(fmt.Errorf("%w: list %s: %v", commonModels.ErrIO, req.SourceDir, err))
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		if !entry.Type().IsRegular() {
			continue
		}

		doc := commonModels.NewSourceDocument(filepath.Join(req.SourceDir, entry.Name()))
		fileReport, err := s.syncFile(ctx, req.Collection, doc, log)
		report.Files = append(report.Files, fileReport)
		metrics.CaptureSyncOutcome(string(fileReport.Outcome))

		if err != nil && errors.Is(err, commonModels.ErrStore) {
			log.Error("store failure, aborting sync", "file", doc.Path, "error", err)
			span.SetError(err)
			return finish(err)
		}
		if err != nil {
			log.Error("file failed", "file", doc.Path, "error", err)
			telemetry.CaptureError(ctx, &commonModels.FileError{Path: doc.Path, Err: err})
		}
	}

	log.Info("sync finished",
		"ingested", report.Count(commonModels.OutcomeIngested),
		"replaced", report.Count(commonModels.OutcomeReplaced),
		"unchanged", report.Count(commonModels.OutcomeUnchanged),
		"skipped", report.Count(commonModels.OutcomeSkipped),
		"failed", report.Count(commonModels.OutcomeFailed),
	)
	return finish(nil)
}

func (s *Synchronizer) syncFile(ctx context.Context, collection string, doc commonModels.SourceDocument, log *logger_i.Logger) (commonModels.FileReport, error) {
	fr := commonModels.FileReport{Path: doc.Path, Filename: doc.Name}
	fail := func(err error) (commonModels.FileReport, error) {
		fr.Outcome = commonModels.OutcomeFailed
		fr.Err = err.Error()
		return fr, err
	}

	loader, err := LoaderFor(doc.Kind)
	if err != nil {
		log.Warn("skipping unsupported file", "file", doc.Path, "ext", doc.Ext)
		fr.Outcome = commonModels.OutcomeSkipped
		return fr, nil
	}

	hash, err := fingerprint.File(doc.Path)
	if err != nil {
		return fail(err)
	}
	fr.Hash = hash

	existing, err := s.Store.IDsByMetadata(ctx, collection, commonModels.Metadata{commonModels.MetaFilename: doc.Name})
	if err != nil {
		return fail(commonModels.StoreError("lookup ids", err))
	}

	if len(existing) > 0 {
		recorded, err := s.recordedHashes(ctx, collection, existing)
		if err != nil {
			return fail(err)
		}
		// Any recorded hash matching counts as unchanged, even if older
		// chunks of the same filename carry a different one.
		if slices.Contains(recorded, hash) {
			log.Info("unchanged", "file", doc.Name)
			fr.Outcome = commonModels.OutcomeUnchanged
			return fr, nil
		}
	}

	segments, err := loader.ExtractSegments(doc.Path)
	if err != nil {
		return fail(err)
	}
	chunks := s.Splitter.ChunkSegments(doc.Name, hash, doc.Path, segments)

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return fail(err)
	}

	if len(existing) > 0 {
		if err := s.Store.Delete(ctx, collection, existing); err != nil {
			return fail(commonModels.StoreError("delete stale chunks", err))
		}
		fr.Deleted = len(existing)
	}

	for i, chunk := range chunks {
		record := commonModels.Record{
			ID:        chunk.ID(),
			Text:      chunk.Text,
			Metadata:  chunk.Metadata,
			Embedding: vectors[i],
		}
		if err := s.Store.Upsert(ctx, collection, record); err != nil {
			fr.Chunks = i
			return fail(commonModels.StoreError("upsert "+record.ID, err))
		}
	}
	fr.Chunks = len(chunks)
	metrics.AddChunksWritten(fr.Chunks, fr.Deleted)

	if len(existing) > 0 {
		log.Info("replaced", "file", doc.Name, "deleted", fr.Deleted, "chunks", fr.Chunks)
		fr.Outcome = commonModels.OutcomeReplaced
	} else {
		log.Info("ingested", "file", doc.Name, "chunks", fr.Chunks)
		fr.Outcome = commonModels.OutcomeIngested
	}
	return fr, nil
}

func (s *Synchronizer) recordedHashes(ctx context.Context, collection string, ids []string) ([]string, error) {
	metas, err := s.Store.Metadata(ctx, collection, ids)
	if err != nil {
		return nil, commonModels.StoreError("read metadata", err)
	}
	var hashes []string
	for _, m := range metas {
		if h := m[commonModels.MetaFileHash]; h != "" && !slices.Contains(hashes, h) {
			hashes = append(hashes, h)
		}
	}
	return hashes, nil
}

// embedChunks embeds every chunk before the store is touched, so a failing
// embedding service leaves the previous chunk set in place.
func (s *Synchronizer) embedChunks(ctx context.Context, chunks []commonModels.Chunk) ([][]float32, error) {
	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = config.EmbeddingBatchSize
	}

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		t := time.Now()
		batch, err := s.Embedder.BatchEmbedding(ctx, texts)
		metrics.CaptureExecutionMetrics("embedding_batch", time.Since(t))
		if err != nil {
			return nil, commonModels.ServiceError("embed batch", err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("%w: embedder returned %d vectors for %d texts", commonModels.ErrService, len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (s *Synchronizer) logger() *logger_i.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logger
}
