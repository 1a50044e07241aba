// Package memoryDB is a process-local collection store using brute-force cosine similarity.
package memoryDB

import (
	"context"
	"errors"
	"sync"

	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/rag/vectorDB"
)

type Storage struct {
	mu          sync.RWMutex
	collections map[string]map[string]commonModels.Record
	closed      bool
}

var _ vectorDB.CollectionStore = (*Storage)(nil)

func NewStorage() *Storage {
	return &Storage{collections: make(map[string]map[string]commonModels.Record)}
}

var errClosed = errors.New("memory store closed")

func (s *Storage) EnsureCollection(_ context.Context, name string) (commonModels.CollectionHandle, error) {
	if name == "" {
		return commonModels.CollectionHandle{}, commonModels.StoreError("ensure collection", errors.New("empty collection name"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return commonModels.CollectionHandle{}, commonModels.StoreError("ensure collection", errClosed)
	}
	if _, ok := s.collections[name]; ok {
		return commonModels.CollectionHandle{Name: name, State: commonModels.CollectionExisted}, nil
	}
	s.collections[name] = make(map[string]commonModels.Record)
	return commonModels.CollectionHandle{Name: name, State: commonModels.CollectionCreated}, nil
}

func (s *Storage) collection(name string) (map[string]commonModels.Record, error) {
	if s.closed {
		return nil, errClosed
	}
	c, ok := s.collections[name]
	if !ok {
		return nil, errors.New("collection " + name + " does not exist")
	}
	return c, nil
}

func (s *Storage) IDsByMetadata(_ context.Context, collection string, filter commonModels.Metadata) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.collection(collection)
	if err != nil {
		return nil, commonModels.StoreError("ids by metadata", err)
	}
	var ids []string
	for id, rec := range c {
		if rec.Metadata.Matches(filter) {
			ids = append(ids, id)
		}
	}
	vectorDB.SortChunkIDs(ids)
	return ids, nil
}

func (s *Storage) Metadata(_ context.Context, collection string, ids []string) (map[string]commonModels.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.collection(collection)
	if err != nil {
		return nil, commonModels.StoreError("metadata", err)
	}
	out := make(map[string]commonModels.Metadata, len(ids))
	for _, id := range ids {
		if rec, ok := c[id]; ok {
			out[id] = rec.Metadata.Clone()
		}
	}
	return out, nil
}

func (s *Storage) Delete(_ context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.collection(collection)
	if err != nil {
		return commonModels.StoreError("delete", err)
	}
	for _, id := range ids {
		delete(c, id)
	}
	return nil
}

func (s *Storage) Upsert(_ context.Context, collection string, record commonModels.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.collection(collection)
	if err != nil {
		return commonModels.StoreError("upsert", err)
	}
	record.Metadata = record.Metadata.Clone()
	record.Embedding = append([]float32(nil), record.Embedding...)
	c[record.ID] = record
	return nil
}

func (s *Storage) SimilaritySearch(_ context.Context, collection string, query []float32, k int) ([]commonModels.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.collection(collection)
	if err != nil {
		return nil, commonModels.StoreError("similarity search", err)
	}
	matches := make([]commonModels.Match, 0, len(c))
	for id, rec := range c {
		matches = append(matches, commonModels.Match{
			ID:       id,
			Text:     rec.Text,
			Metadata: rec.Metadata.Clone(),
			Score:    vectorDB.Cosine(query, rec.Embedding),
		})
	}
	return vectorDB.TopK(matches, vectorDB.NormalizeK(k)), nil
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len reports the number of records in a collection.
func (s *Storage) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}
