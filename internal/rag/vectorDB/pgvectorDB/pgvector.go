// Package pgvectorDB keeps collections in PostgreSQL with the vector extension.
package pgvectorDB

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/rag/vectorDB"
	"github.com/akolanti/docsync/internal/rag/vectorDB/pgvectorDB/migrations"
	"github.com/akolanti/docsync/pkg/logger_i"
)

var logger = logger_i.NewLogger("pgvector")

type Storage struct {
	pool *pgxpool.Pool
}

var _ vectorDB.CollectionStore = (*Storage)(nil)

// NewStorage applies pending migrations and opens a connection pool.
func NewStorage(ctx context.Context, databaseURL string) (*Storage, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, commonModels.StoreError("migrate postgres", err)
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, commonModels.StoreError("connect postgres", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, commonModels.StoreError("ping postgres", err)
	}
	return &Storage{pool: pool}, nil
}

func RunMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	}
	logger.Debug("migrations applied", "version", version)
	return nil
}

func (s *Storage) EnsureCollection(ctx context.Context, name string) (commonModels.CollectionHandle, error) {
	tag, err := s.pool.Exec(ctx, `INSERT INTO collections (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return commonModels.CollectionHandle{}, commonModels.StoreError("ensure collection", err)
	}
	state := commonModels.CollectionExisted
	if tag.RowsAffected() > 0 {
		state = commonModels.CollectionCreated
	}
	return commonModels.CollectionHandle{Name: name, State: state}, nil
}

func (s *Storage) IDsByMetadata(ctx context.Context, collection string, filter commonModels.Metadata) ([]string, error) {
	if filter == nil {
		filter = commonModels.Metadata{}
	}
	want, err := json.Marshal(filter)
	if err != nil {
		return nil, commonModels.StoreError("encode filter", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id FROM records WHERE collection = $1 AND metadata @> $2::jsonb`,
		collection, string(want))
	if err != nil {
		return nil, commonModels.StoreError("ids by metadata", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, commonModels.StoreError("scan id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, commonModels.StoreError("ids by metadata", err)
	}
	vectorDB.SortChunkIDs(ids)
	return ids, nil
}

func (s *Storage) Metadata(ctx context.Context, collection string, ids []string) (map[string]commonModels.Metadata, error) {
	out := make(map[string]commonModels.Metadata, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, metadata FROM records WHERE collection = $1 AND id = ANY($2)`,
		collection, ids)
	if err != nil {
		return nil, commonModels.StoreError("read metadata", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, commonModels.StoreError("scan metadata", err)
		}
		meta := commonModels.Metadata{}
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, commonModels.StoreError("decode metadata", err)
		}
		out[id] = meta
	}
	return out, commonModels.StoreError("read metadata", rows.Err())
}

func (s *Storage) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM records WHERE collection = $1 AND id = ANY($2)`, collection, ids)
	return commonModels.StoreError("delete", err)
}

func (s *Storage) Upsert(ctx context.Context, collection string, record commonModels.Record) error {
	meta, err := json.Marshal(record.Metadata)
	if err != nil {
		return commonModels.StoreError("encode metadata", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO records (collection, id, text, metadata, embedding)
		 VALUES ($1, $2, $3, $4::jsonb, $5)
		 ON CONFLICT (collection, id) DO UPDATE SET
			text = EXCLUDED.text,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			updated_at = now()`,
		collection, record.ID, record.Text, string(meta), pgvector.NewVector(record.Embedding))
	return commonModels.StoreError("upsert "+record.ID, err)
}

func (s *Storage) SimilaritySearch(ctx context.Context, collection string, query []float32, k int) ([]commonModels.Match, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, text, metadata, 1 - (embedding <=> $2) AS score
		 FROM records
		 WHERE collection = $1 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $2, id
		 LIMIT $3`,
		collection, pgvector.NewVector(query), vectorDB.NormalizeK(k))
	if err != nil {
		return nil, commonModels.StoreError("similarity search", err)
	}
	defer rows.Close()

	var matches []commonModels.Match
	for rows.Next() {
		var m commonModels.Match
		var raw []byte
		var score float64
		if err := rows.Scan(&m.ID, &m.Text, &raw, &score); err != nil {
			return nil, commonModels.StoreError("scan match", err)
		}
		m.Metadata = commonModels.Metadata{}
		if err := json.Unmarshal(raw, &m.Metadata); err != nil {
			return nil, commonModels.StoreError("decode metadata", err)
		}
		m.Score = float32(score)
		matches = append(matches, m)
	}
	return matches, commonModels.StoreError("similarity search", rows.Err())
}

func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}
