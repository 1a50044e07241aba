package retrieve

import (
	"context"
	"strings"
	"time"

	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/metrics"
	"github.com/akolanti/docsync/internal/rag/embedding"
	"github.com/akolanti/docsync/internal/rag/vectorDB"
)

// Aggregator runs every query against the store and merges the hits.
type Aggregator struct {
	Store    vectorDB.CollectionStore
	Embedder embedding.Embedder
	TopK     int
}

func NewAggregator(store vectorDB.CollectionStore, embedder embedding.Embedder, topK int) *Aggregator {
	return &Aggregator{Store: store, Embedder: embedder, TopK: vectorDB.NormalizeK(topK)}
}

// Retrieve keeps the first occurrence of every chunk in query order. There is no re-ranking.
func (a *Aggregator) Retrieve(ctx context.Context, collection string, queries []string) ([]commonModels.Match, error) {
	var unique []commonModels.Match
	seen := map[string]bool{}

	for _, q := range queries {
		t := time.Now()
		vec, err := a.Embedder.GetEmbedding(ctx, q)
		metrics.CaptureExecutionMetrics("embedding_query", time.Since(t))
		if err != nil {
			return nil, commonModels.ServiceError("embed query", err)
		}

		t = time.Now()
		hits, err := a.Store.SimilaritySearch(ctx, collection, vec, a.TopK)
		metrics.CaptureExecutionMetrics("vector_search", time.Since(t))
		if err != nil {
			return nil, commonModels.StoreError("similarity search", err)
		}

		for _, h := range hits {
			key := dedupKey(h)
			if seen[key] {
				continue
			}
			seen[key] = true
			unique = append(unique, h)
		}
	}
	return unique, nil
}

func dedupKey(m commonModels.Match) string {
	if m.ID != "" {
		return "id:" + m.ID
	}
	return "text:" + strings.Join(strings.Fields(m.Text), " ")
}
