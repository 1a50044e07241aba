// Package open selects and connects the configured collection store backend.
package open

import (
	"context"
	"fmt"
	"net/http"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/customHttpClient"
	"github.com/akolanti/docsync/internal/rag/vectorDB"
	"github.com/akolanti/docsync/internal/rag/vectorDB/chromaDB"
	"github.com/akolanti/docsync/internal/rag/vectorDB/memoryDB"
	"github.com/akolanti/docsync/internal/rag/vectorDB/pgvectorDB"
	"github.com/akolanti/docsync/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/docsync/internal/rag/vectorDB/sqliteDB"
)

type StoreConfig struct {
	Backend      string
	Dir          string
	Dimension    int
	QdrantHost   string
	QdrantPort   int
	QdrantAPIKey string
	QdrantUseTLS bool
	ChromaURL    string
	PostgresURL  string
	HTTPClient   *http.Client
}

func FromConfig(cfg *config.Config) StoreConfig {
	return StoreConfig{
		Backend:      cfg.Backend,
		Dir:          cfg.StoreDir,
		Dimension:    cfg.EmbeddingDimension,
		QdrantHost:   cfg.QdrantHost,
		QdrantPort:   cfg.QdrantPort,
		QdrantAPIKey: cfg.QdrantAPIKey,
		QdrantUseTLS: cfg.QdrantUseTLS,
		ChromaURL:    cfg.ChromaURL,
		PostgresURL:  cfg.PostgresURL,
		HTTPClient:   customHttpClient.GetClient(),
	}
}

func Open(ctx context.Context, cfg StoreConfig) (vectorDB.CollectionStore, error) {
	var store vectorDB.CollectionStore
	var err error
	switch cfg.Backend {
	case config.BackendSQLite, "":
		store, err = orNil(sqliteDB.NewStorage(cfg.Dir))
	case config.BackendQdrant:
		store, err = orNil(qdrantDB.NewClientHolder(ctx, qdrantDB.Options{
			Host:      cfg.QdrantHost,
			Port:      cfg.QdrantPort,
			APIKey:    cfg.QdrantAPIKey,
			UseTLS:    cfg.QdrantUseTLS,
			Dimension: cfg.Dimension,
		}))
	case config.BackendChroma:
		store, err = orNil(chromaDB.NewStorage(cfg.ChromaURL, cfg.HTTPClient))
	case config.BackendPgvector:
		store, err = orNil(pgvectorDB.NewStorage(ctx, cfg.PostgresURL))
	case config.BackendMemory:
		store = memoryDB.NewStorage()
	default:
		err = fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// orNil keeps a failed constructor from leaking a typed nil into the interface.
func orNil[T vectorDB.CollectionStore](store T, err error) (vectorDB.CollectionStore, error) {
	if err != nil {
		return nil, err
	}
	return store, nil
}
