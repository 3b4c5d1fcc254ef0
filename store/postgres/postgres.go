// Package postgres implements the vector store contract on PostgreSQL with
// the pgvector extension. The database is the durable unit, so Persist and
// Load are no-ops.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pharmaintellect/ragengine/helper"
	"github.com/pharmaintellect/ragengine/model"
	"github.com/pharmaintellect/ragengine/store"
)

// Store is a pgvector-backed vector store. Each collection gets its own
// table created with the collection's dimension, plus an HNSW cosine
// index.
type Store struct {
	db *helper.Database

	mu         sync.RWMutex
	dimensions map[string]int
}

// NewStore initializes the store: enables the vector extension and creates
// the collections registry table.
func NewStore(db *helper.Database) (*Store, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	s := &Store{
		db:         db,
		dimensions: make(map[string]int),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := db.Instance.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector;`); err != nil {
		return nil, helper.NewError("create vector extension", err)
	}
	if _, err := db.Instance.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			dimension INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`); err != nil {
		return nil, helper.NewError("create collections table", err)
	}

	db.Logger.Info("Initialized pgvector store")

	return s, nil
}

// CreateCollection registers the collection and creates its vector table.
// Idempotent for matching dimensions.
func (s *Store) CreateCollection(name string, dimension int) error {
	if err := store.ValidateCollectionName(name); err != nil {
		return helper.NewError("create collection", err)
	}
	if dimension <= 0 {
		return helper.NewError("create collection", fmt.Errorf("dimension must be positive, got %d", dimension))
	}

	existing, err := s.dimension(name)
	if err != nil {
		return err
	}
	if existing > 0 {
		if existing != dimension {
			return helper.NewError("create collection",
				fmt.Errorf("%w: collection %q has dimension %d, requested %d",
					model.ErrDimensionMismatch, name, existing, dimension))
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.db.Instance.ExecContext(ctx,
		`INSERT INTO collections (name, dimension) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING;`,
		name, dimension); err != nil {
		return helper.NewError("register collection", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d) NOT NULL
		);`, tableName(name), dimension)
	if _, err := s.db.Instance.ExecContext(ctx, createTable); err != nil {
		return helper.NewError("create collection table", err)
	}

	createIndex := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS idx_%s_embedding ON %s USING hnsw (embedding vector_cosine_ops);`,
		name, tableName(name))
	if _, err := s.db.Instance.ExecContext(ctx, createIndex); err != nil {
		return helper.NewError("create vector index", err)
	}

	s.mu.Lock()
	s.dimensions[name] = dimension
	s.mu.Unlock()

	s.db.Logger.Info("Created collection", slog.String("collection", name), slog.Int("dimension", dimension))
	return nil
}

// Upsert inserts or overwrites a record by id.
func (s *Store) Upsert(collection string, rec model.VectorRecord) error {
	dim, err := s.dimension(collection)
	if err != nil {
		return err
	}
	if dim == 0 {
		return helper.NewError("upsert", fmt.Errorf("%w: %q", model.ErrUnknownCollection, collection))
	}
	if len(rec.Vector) != dim {
		return helper.NewError("upsert",
			fmt.Errorf("%w: vector has %d dimensions, collection %q expects %d",
				model.ErrDimensionMismatch, len(rec.Vector), collection, dim))
	}

	upsert := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding;`,
		tableName(collection))

	if _, err := s.db.Instance.Exec(upsert, rec.ID, rec.Text, rec.Metadata, pgvector.NewVector(rec.Vector)); err != nil {
		return helper.NewError("upsert", err)
	}
	return nil
}

// Query returns up to k records ordered by ascending cosine distance,
// ties broken by ascending id.
func (s *Store) Query(collection string, vector []float32, k int) ([]model.RetrievedChunk, error) {
	dim, err := s.dimension(collection)
	if err != nil {
		return nil, err
	}
	if dim == 0 {
		return nil, helper.NewError("query", fmt.Errorf("%w: %q", model.ErrUnknownCollection, collection))
	}
	if len(vector) != dim {
		return nil, helper.NewError("query",
			fmt.Errorf("%w: query vector has %d dimensions, collection %q expects %d",
				model.ErrDimensionMismatch, len(vector), collection, dim))
	}
	if k <= 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, content, metadata, embedding, embedding <=> $1 AS distance
		FROM %s
		ORDER BY embedding <=> $1 ASC, id ASC
		LIMIT $2;`, tableName(collection))

	rows, err := s.db.Instance.Query(query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []model.RetrievedChunk
	for rows.Next() {
		var rec model.VectorRecord
		var embedding pgvector.Vector
		var distance float64
		if err := rows.Scan(&rec.ID, &rec.Text, &rec.Metadata, &embedding, &distance); err != nil {
			return nil, helper.NewError("scan", err)
		}
		rec.Collection = collection
		rec.Vector = embedding.Slice()
		if distance < 0 {
			distance = 0
		}
		results = append(results, model.RetrievedChunk{Record: rec, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("query", err)
	}
	return results, nil
}

// Persist is a no-op; PostgreSQL is the durable unit.
func (s *Store) Persist() error { return nil }

// Load is a no-op; collection dimensions are looked up lazily.
func (s *Store) Load() error { return nil }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db != nil && s.db.Instance != nil {
		return s.db.Instance.Close()
	}
	return nil
}

// dimension looks up a collection's dimension, caching hits. Returns 0
// when the collection does not exist.
func (s *Store) dimension(name string) (int, error) {
	s.mu.RLock()
	dim, ok := s.dimensions[name]
	s.mu.RUnlock()
	if ok {
		return dim, nil
	}

	err := s.db.Instance.QueryRow(`SELECT dimension FROM collections WHERE name = $1;`, name).Scan(&dim)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, helper.NewError("lookup collection", err)
	}

	s.mu.Lock()
	s.dimensions[name] = dim
	s.mu.Unlock()
	return dim, nil
}

func tableName(collection string) string {
	return "vectors_" + collection
}
