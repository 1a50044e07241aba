// Package chromaDB stores collections on a Chroma server through the v2 HTTP API.
package chromaDB

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/rag/vectorDB"
	"github.com/akolanti/docsync/pkg/logger_i"
)

var logger = logger_i.NewLogger("chroma")

type Storage struct {
	client chromago.Client

	mu          sync.RWMutex
	collections map[string]chromago.Collection
}

var _ vectorDB.CollectionStore = (*Storage)(nil)

func NewStorage(baseURL string, httpClient *http.Client) (*Storage, error) {
	opts := []chromago.ClientOption{chromago.WithBaseURL(baseURL)}
	if httpClient != nil {
		opts = append(opts, chromago.WithHTTPClient(httpClient))
	}
	client, err := chromago.NewHTTPClient(opts...)
	if err != nil {
		return nil, commonModels.StoreError("connect chroma", err)
	}
	logger.Info("chroma client created", "url", baseURL)
	return &Storage{client: client, collections: map[string]chromago.Collection{}}, nil
}

func (s *Storage) EnsureCollection(ctx context.Context, name string) (commonModels.CollectionHandle, error) {
	existing, err := s.client.ListCollections(ctx)
	if err != nil {
		return commonModels.CollectionHandle{}, commonModels.StoreError("list collections", err)
	}
	state := commonModels.CollectionCreated
	for _, c := range existing {
		if c.Name() == name {
			state = commonModels.CollectionExisted
			break
		}
	}

	col, err := s.client.GetOrCreateCollection(ctx, name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("hnsw:space", "cosine"),
				chromago.NewStringAttribute("created_by", "docsync"),
			),
		),
	)
	if err != nil {
		return commonModels.CollectionHandle{}, commonModels.StoreError("get or create collection", err)
	}

	s.mu.Lock()
	s.collections[name] = col
	s.mu.Unlock()
	return commonModels.CollectionHandle{Name: name, State: state}, nil
}

func (s *Storage) collection(ctx context.Context, name string) (chromago.Collection, error) {
	s.mu.RLock()
	col, ok := s.collections[name]
	s.mu.RUnlock()
	if ok {
		return col, nil
	}

	col, err := s.client.GetCollection(ctx, name)
	if err != nil {
		return nil, commonModels.StoreError("get collection "+name, err)
	}
	s.mu.Lock()
	s.collections[name] = col
	s.mu.Unlock()
	return col, nil
}

// IDsByMetadata filters server-side on one key, the remaining keys are checked here.
func (s *Storage) IDsByMetadata(ctx context.Context, collection string, filter commonModels.Metadata) ([]string, error) {
	col, err := s.collection(ctx, collection)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	opts := []chromago.CollectionGetOption{chromago.WithIncludeGet(chromago.IncludeMetadatas)}
	if len(keys) > 0 {
		opts = append(opts, chromago.WithWhereGet(chromago.EqString(keys[0], filter[keys[0]])))
	}
	res, err := col.Get(ctx, opts...)
	if err != nil {
		return nil, commonModels.StoreError("get by metadata", err)
	}

	ids := res.GetIDs()
	metas := res.GetMetadatas()
	var out []string
	for i, id := range ids {
		var meta commonModels.Metadata
		if i < len(metas) {
			meta = toMetadata(metas[i])
		}
		if meta.Matches(filter) {
			out = append(out, string(id))
		}
	}
	vectorDB.SortChunkIDs(out)
	return out, nil
}

func (s *Storage) Metadata(ctx context.Context, collection string, ids []string) (map[string]commonModels.Metadata, error) {
	out := make(map[string]commonModels.Metadata, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	col, err := s.collection(ctx, collection)
	if err != nil {
		return nil, err
	}

	res, err := col.Get(ctx, chromago.WithIDsGet(documentIDs(ids)...), chromago.WithIncludeGet(chromago.IncludeMetadatas))
	if err != nil {
		return nil, commonModels.StoreError("get metadata", err)
	}
	metas := res.GetMetadatas()
	for i, id := range res.GetIDs() {
		if i < len(metas) {
			out[string(id)] = toMetadata(metas[i])
		}
	}
	return out, nil
}

func (s *Storage) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	col, err := s.collection(ctx, collection)
	if err != nil {
		return err
	}
	return commonModels.StoreError("delete", col.Delete(ctx, chromago.WithIDsDelete(documentIDs(ids)...)))
}

func (s *Storage) Upsert(ctx context.Context, collection string, record commonModels.Record) error {
	col, err := s.collection(ctx, collection)
	if err != nil {
		return err
	}

	attrs := make([]*chromago.MetaAttribute, 0, len(record.Metadata))
	for k, v := range record.Metadata {
		attrs = append(attrs, chromago.NewStringAttribute(k, v))
	}
	err = col.Upsert(ctx,
		chromago.WithIDs(chromago.DocumentID(record.ID)),
		chromago.WithTexts(record.Text),
		chromago.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(record.Embedding)),
		chromago.WithMetadatas(chromago.NewDocumentMetadata(attrs...)),
	)
	return commonModels.StoreError("upsert "+record.ID, err)
}

func (s *Storage) SimilaritySearch(ctx context.Context, collection string, query []float32, k int) ([]commonModels.Match, error) {
	col, err := s.collection(ctx, collection)
	if err != nil {
		return nil, err
	}

	res, err := col.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(query)),
		chromago.WithNResults(vectorDB.NormalizeK(k)),
		chromago.WithIncludeQuery(chromago.IncludeDocuments, chromago.IncludeMetadatas, chromago.IncludeDistances),
	)
	if err != nil {
		return nil, commonModels.StoreError("query", err)
	}

	idGroups := res.GetIDGroups()
	if len(idGroups) == 0 {
		return nil, nil
	}
	var docs chromago.Documents
	if g := res.GetDocumentsGroups(); len(g) > 0 {
		docs = g[0]
	}
	var metas chromago.DocumentMetadatas
	if g := res.GetMetadatasGroups(); len(g) > 0 {
		metas = g[0]
	}
	var dists embeddings.Distances
	if g := res.GetDistancesGroups(); len(g) > 0 {
		dists = g[0]
	}

	matches := make([]commonModels.Match, 0, len(idGroups[0]))
	for i, id := range idGroups[0] {
		m := commonModels.Match{ID: string(id)}
		if i < len(docs) {
			m.Text = docs[i].ContentString()
		}
		if i < len(metas) {
			m.Metadata = toMetadata(metas[i])
		}
		if i < len(dists) {
			// cosine distance, so 1 - d is the similarity
			m.Score = 1 - float32(dists[i])
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (s *Storage) Close() error {
	return s.client.Close()
}

func documentIDs(ids []string) []chromago.DocumentID {
	out := make([]chromago.DocumentID, len(ids))
	for i, id := range ids {
		out[i] = chromago.DocumentID(id)
	}
	return out
}

// toMetadata goes through JSON because DocumentMetadata exposes no iterator.
func toMetadata(meta chromago.DocumentMetadata) commonModels.Metadata {
	out := commonModels.Metadata{}
	if meta == nil {
		return out
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		logger.Warn("could not marshal chroma metadata", "error", err)
		return out
	}
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		logger.Warn("could not unmarshal chroma metadata", "error", err)
		return out
	}
	for k, v := range values {
		if s, ok := v.(string); ok {
			out[k] = s
		} else {
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}
