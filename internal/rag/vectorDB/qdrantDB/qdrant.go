package qdrantDB

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/rag/vectorDB"
	"github.com/akolanti/docsync/pkg/logger_i"
)

const (
	payloadChunkID = "chunk_id"
	payloadContent = "content"
	scrollPageSize = 256
)

// pointNamespace makes point ids a pure function of the chunk id.
var pointNamespace = uuid.MustParse("6f1d9a8e-3f5c-4a0e-9a55-4c2b0d7e91aa")

var logger = logger_i.NewLogger("qdrant")

type Options struct {
	Host      string
	Port      int
	APIKey    string
	UseTLS    bool
	Dimension int
}

type ClientHolder struct {
	QObj      *qdrant.Client
	dimension uint64

	mu      sync.Mutex
}

var _ vectorDB.CollectionStore = (*ClientHolder)(nil)

// NewClientHolder connects over gRPC. The client is closed when ctx is done or Close is called.
func NewClientHolder(ctx context.Context, opts Options) (*ClientHolder, error) {
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("qdrant needs a positive vector dimension, got %d", opts.Dimension)
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     opts.Host,
		Port:     opts.Port,
		APIKey:   opts.APIKey,
		UseTLS:   opts.UseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		return nil, commonModels.StoreError("connect qdrant", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.QdrantConnectionTimeout)
	defer cancel()
	if _, err := client.HealthCheck(pingCtx); err != nil {
		client.Close()
		return nil, commonModels.StoreError("qdrant health check", err)
	}

	holder := &ClientHolder{QObj: client, dimension: uint64(opts.Dimension)}
	go closeQdrant(ctx, holder)
	logger.Info("qdrant client created", "host", opts.Host, "port", opts.Port)
	return holder, nil
}

func closeQdrant(ctx context.Context, db *ClientHolder) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	if err := db.Close(); err != nil {
		logger.Error("could not close Qdrant", "error", err)
	}
}

func (db *ClientHolder) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.QObj == nil {
		return nil
	}
	err := db.QObj.Close()
	db.QObj = nil
	return err
}

// PointID maps a chunk id such as "guide_3" to its UUIDv5 point id.
func PointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}

func (db *ClientHolder) EnsureCollection(ctx context.Context, name string) (commonModels.CollectionHandle, error) {
	if name == "" {
		return commonModels.CollectionHandle{}, commonModels.StoreError("ensure collection", fmt.Errorf("empty collection name"))
	}

	exists, err := db.QObj.CollectionExists(ctx, name)
	if err != nil {
		return commonModels.CollectionHandle{}, commonModels.StoreError("collection exists", err)
	}
	if exists {
		return commonModels.CollectionHandle{Name: name, State: commonModels.CollectionExisted}, nil
	}

	err = db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     db.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return commonModels.CollectionHandle{}, commonModels.StoreError("create collection", err)
	}

	_, err = db.QObj.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: name,
		FieldName:      commonModels.MetaFilename,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		logger.Warn("could not index filename payload", "collection", name, "error", err)
	}
	return commonModels.CollectionHandle{Name: name, State: commonModels.CollectionCreated}, nil
}

func (db *ClientHolder) IDsByMetadata(ctx context.Context, collection string, filter commonModels.Metadata) ([]string, error) {
	conditions := make([]*qdrant.Condition, 0, len(filter))
	for k, v := range filter {
		conditions = append(conditions, qdrant.NewMatch(k, v))
	}

	var ids []string
	var offset *qdrant.PointId
	for {
		points, err := db.QObj.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: collection,
			Filter:         &qdrant.Filter{Must: conditions},
			Limit:          qdrant.PtrOf(uint32(scrollPageSize)),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayloadInclude(payloadChunkID),
		})
		if err != nil {
			return nil, commonModels.StoreError("scroll", err)
		}

		for i, p := range points {
			// the offset point is returned again as the first item of the next page
			if offset != nil && i == 0 {
				continue
			}
			ids = append(ids, p.Payload[payloadChunkID].GetStringValue())
		}
		if len(points) < scrollPageSize {
			break
		}
		offset = points[len(points)-1].Id
	}

	vectorDB.SortChunkIDs(ids)
	return ids, nil
}

func (db *ClientHolder) Metadata(ctx context.Context, collection string, ids []string) (map[string]commonModels.Metadata, error) {
	out := make(map[string]commonModels.Metadata, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	points, err := db.QObj.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            pointIDs(ids),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, commonModels.StoreError("get points", err)
	}
	for _, p := range points {
		id, meta, _ := fromPayload(p.Payload)
		out[id] = meta
	}
	return out, nil
}

func (db *ClientHolder) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pointIDs(ids)...),
	})
	return commonModels.StoreError("delete points", err)
}

func (db *ClientHolder) Upsert(ctx context.Context, collection string, record commonModels.Record) error {
	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(PointID(record.ID)),
			Vectors: qdrant.NewVectors(record.Embedding...),
			Payload: qdrant.NewValueMap(toPayload(record)),
		}},
	})
	return commonModels.StoreError("upsert "+record.ID, err)
}

func (db *ClientHolder) SimilaritySearch(ctx context.Context, collection string, query []float32, k int) ([]commonModels.Match, error) {
	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(vectorDB.NormalizeK(k))),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, commonModels.StoreError("query", err)
	}

	matches := make([]commonModels.Match, 0, len(result))
	for _, hit := range result {
		id, meta, text := fromPayload(hit.Payload)
		matches = append(matches, commonModels.Match{ID: id, Text: text, Metadata: meta, Score: hit.Score})
	}
	return matches, nil
}

func pointIDs(ids []string) []*qdrant.PointId {
	out := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		out[i] = qdrant.NewID(PointID(id))
	}
	return out
}

func toPayload(record commonModels.Record) map[string]any {
	payload := make(map[string]any, len(record.Metadata)+2)
	for k, v := range record.Metadata {
		payload[k] = v
	}
	payload[payloadChunkID] = record.ID
	payload[payloadContent] = record.Text
	return payload
}

func fromPayload(payload map[string]*qdrant.Value) (id string, meta commonModels.Metadata, text string) {
	meta = commonModels.Metadata{}
	for k, v := range payload {
		switch k {
		case payloadChunkID:
			id = v.GetStringValue()
		case payloadContent:
			text = v.GetStringValue()
		default:
			meta[k] = v.GetStringValue()
		}
	}
	return id, meta, text
}
