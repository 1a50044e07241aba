// Package sqliteDB is the default, file-backed collection store.
// Similarity is computed in process over the vectors of a collection.
package sqliteDB

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/domain/commonModels"
	"github.com/akolanti/docsync/internal/rag/vectorDB"
	"github.com/akolanti/docsync/internal/rag/vectorDB/sqliteDB/migrations"
	"github.com/akolanti/docsync/pkg/logger_i"
)

// maxParams keeps IN lists under SQLite's bound-variable limit.
const maxParams = 500

var logger = logger_i.NewLogger("sqlite_store")

type Storage struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

var _ vectorDB.CollectionStore = (*Storage)(nil)

// NewStorage opens (creating if needed) {dir}/vectors.db and applies migrations.
func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, commonModels.StoreError("create store dir", err)
	}
	path := filepath.Join(dir, config.SQLiteFileName)

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, commonModels.StoreError("open sqlite", err)
	}
	s := &Storage{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, commonModels.StoreError("migrate sqlite", err)
	}
	logger.Debug("sqlite store opened", "path", path)
	return s, nil
}

func (s *Storage) Path() string {
	return s.path
}

func (s *Storage) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) EnsureCollection(ctx context.Context, name string) (commonModels.CollectionHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO collections (name) VALUES (?)", name)
	if err != nil {
		return commonModels.CollectionHandle{}, commonModels.StoreError("ensure collection", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return commonModels.CollectionHandle{}, commonModels.StoreError("ensure collection", err)
	}

	state := commonModels.CollectionExisted
	if n > 0 {
		state = commonModels.CollectionCreated
	}
	return commonModels.CollectionHandle{Name: name, State: state}, nil
}

func (s *Storage) IDsByMetadata(ctx context.Context, collection string, filter commonModels.Metadata) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	query := "SELECT id FROM records WHERE collection = ?"
	args := []any{collection}
	for _, k := range keys {
		query += " AND json_extract(metadata, ?) = ?"
		args = append(args, jsonPath(k), filter[k])
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]commonModels.Metadata, len(ids))
	for _, batch := range batches(ids) {
		query := "SELECT id, metadata FROM records WHERE collection = ? AND id IN (" + placeholders(len(batch)) + ")"
		rows, err := s.db.QueryContext(ctx, query, append([]any{collection}, toArgs(batch)...)...)
		if err != nil {
			return nil, commonModels.StoreError("read metadata", err)
		}
		for rows.Next() {
			var id, raw string
			if err := rows.Scan(&id, &raw); err != nil {
				rows.Close()
				return nil, commonModels.StoreError("scan metadata", err)
			}
			meta, err := decodeMetadata(raw)
			if err != nil {
				rows.Close()
				return nil, commonModels.StoreError("decode metadata", err)
			}
			out[id] = meta
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, commonModels.StoreError("read metadata", err)
		}
	}
	return out, nil
}

func (s *Storage) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return commonModels.StoreError("delete", err)
	}
	for _, batch := range batches(ids) {
		query := "DELETE FROM records WHERE collection = ? AND id IN (" + placeholders(len(batch)) + ")"
		if _, err := tx.ExecContext(ctx, query, append([]any{collection}, toArgs(batch)...)...); err != nil {
			tx.Rollback()
			return commonModels.StoreError("delete", err)
		}
	}
	return commonModels.StoreError("delete", tx.Commit())
}

func (s *Storage) Upsert(ctx context.Context, collection string, record commonModels.Record) error {
	meta, err := json.Marshal(record.Metadata)
	if err != nil {
		return commonModels.StoreError("encode metadata", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (collection, id, text, metadata, embedding)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			text = excluded.text,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			updated_at = CURRENT_TIMESTAMP`,
		collection, record.ID, record.Text, string(meta), float32SliceToBytes(record.Embedding))
	return commonModels.StoreError("upsert "+record.ID, err)
}

func (s *Storage) SimilaritySearch(ctx context.Context, collection string, query []float32, k int) ([]commonModels.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, text, metadata, embedding FROM records WHERE collection = ?", collection)
	if err != nil {
		return nil, commonModels.StoreError("similarity search", err)
	}
	defer rows.Close()

	var matches []commonModels.Match
	for rows.Next() {
		var id, text, raw string
		var blob []byte
		if err := rows.Scan(&id, &text, &raw, &blob); err != nil {
			return nil, commonModels.StoreError("scan record", err)
		}
		meta, err := decodeMetadata(raw)
		if err != nil {
			return nil, commonModels.StoreError("decode metadata", err)
		}
		matches = append(matches, commonModels.Match{
			ID:       id,
			Text:     text,
			Metadata: meta,
			Score:    vectorDB.Cosine(query, bytesToFloat32Slice(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, commonModels.StoreError("similarity search", err)
	}
	return vectorDB.TopK(matches, vectorDB.NormalizeK(k)), nil
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func jsonPath(key string) string {
	return `$."` + strings.ReplaceAll(key, `"`, `\"`) + `"`
}

func decodeMetadata(raw string) (commonModels.Metadata, error) {
	meta := commonModels.Metadata{}
	if raw == "" {
		return meta, nil
	}
	err := json.Unmarshal([]byte(raw), &meta)
	return meta, err
}

func batches(ids []string) [][]string {
	var out [][]string
	for start := 0; start < len(ids); start += maxParams {
		out = append(out, ids[start:min(start+maxParams, len(ids))])
	}
	return out
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
