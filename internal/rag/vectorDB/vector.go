package vectorDB

import (
	"context"

	"github.com/akolanti/docsync/internal/domain/commonModels"
)

// CollectionStore is the contract every vector backend fulfils.
// Transport and availability failures are reported as commonModels.ErrStore.
type CollectionStore interface {
	// EnsureCollection is idempotent and reports whether the collection was created.
	EnsureCollection(ctx context.Context, name string) (commonModels.CollectionHandle, error)
	// IDsByMetadata returns ids whose metadata equals every filter pair.
	IDsByMetadata(ctx context.Context, collection string, filter commonModels.Metadata) ([]string, error)
	Metadata(ctx context.Context, collection string, ids []string) (map[string]commonModels.Metadata, error)
	// Delete ignores ids that are not present.
	Delete(ctx context.Context, collection string, ids []string) error
	Upsert(ctx context.Context, collection string, record commonModels.Record) error
	// SimilaritySearch returns at most k matches, most relevant first.
	SimilaritySearch(ctx context.Context, collection string, query []float32, k int) ([]commonModels.Match, error)
	Close() error
}

const DefaultTopK = 4

func NormalizeK(k int) int {
	if k <= 0 {
		return DefaultTopK
	}
	return k
}
