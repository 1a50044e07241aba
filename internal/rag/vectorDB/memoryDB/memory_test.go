package memoryDB

import (
	"context"
	"errors"
	"testing"

	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/rag/vectorDB"
	"github.com/akolanti/docsync/internal/rag/vectorDB/storetest"
)

func TestStorage_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) vectorDB.CollectionStore {
		return NewStorage()
	})
}

func TestStorage_Closed(t *testing.T) {
	s := NewStorage()
	_ = s.Close()
	_, err := s.EnsureCollection(context.Background(), "docs")
	if !errors.Is(err, commonModels.ErrStore) {
		t.Errorf("expected ErrStore after close, got %v", err)
	}
}

func TestStorage_UnknownCollection(t *testing.T) {
	s := NewStorage()
	_, err := s.IDsByMetadata(context.Background(), "ghost", nil)
	if !errors.Is(err, commonModels.ErrStore) {
		t.Errorf("expected ErrStore for unknown collection, got %v", err)
	}
}
