// Package memory implements an in-process vector store with brute-force
// cosine search and per-collection JSON snapshots.
package memory

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pharmaintellect/ragengine/helper"
	"github.com/pharmaintellect/ragengine/model"
	"github.com/pharmaintellect/ragengine/store"
)

const snapshotExt = ".json"

// Store keeps all collections in memory, guarded by a single RWMutex.
// Writes to the same id are serialized (last write wins); queries run
// concurrently with writes and see a consistent copy of each record.
type Store struct {
	mu          sync.RWMutex
	dir         string
	log         *slog.Logger
	collections map[string]*collection
}

type collection struct {
	dimension int
	records   map[string]model.VectorRecord
}

// snapshot is the durable layout of one collection: its dimension plus the
// full record set. One file per collection.
type snapshot struct {
	Name      string               `json:"name"`
	Dimension int                  `json:"dimension"`
	Records   []model.VectorRecord `json:"records"`
}

// NewStore creates a store that snapshots into dir on Persist.
func NewStore(dir string, log *slog.Logger) *Store {
	return &Store{
		dir:         dir,
		log:         log,
		collections: make(map[string]*collection),
	}
}

// CreateCollection registers a collection with a fixed vector dimension.
// Idempotent for matching dimensions.
func (s *Store) CreateCollection(name string, dimension int) error {
	if err := store.ValidateCollectionName(name); err != nil {
		return helper.NewError("create collection", err)
	}
	if dimension <= 0 {
		return helper.NewError("create collection", fmt.Errorf("dimension must be positive, got %d", dimension))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.collections[name]; ok {
		if existing.dimension != dimension {
			return helper.NewError("create collection",
				fmt.Errorf("%w: collection %q has dimension %d, requested %d",
					model.ErrDimensionMismatch, name, existing.dimension, dimension))
		}
		return nil
	}

	s.collections[name] = &collection{
		dimension: dimension,
		records:   make(map[string]model.VectorRecord),
	}
	s.log.Info("Created collection", slog.String("collection", name), slog.Int("dimension", dimension))
	return nil
}

// Upsert inserts or overwrites a record by id.
func (s *Store) Upsert(collectionName string, rec model.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[collectionName]
	if !ok {
		return helper.NewError("upsert", fmt.Errorf("%w: %q", model.ErrUnknownCollection, collectionName))
	}
	if len(rec.Vector) != col.dimension {
		return helper.NewError("upsert",
			fmt.Errorf("%w: vector has %d dimensions, collection %q expects %d",
				model.ErrDimensionMismatch, len(rec.Vector), collectionName, col.dimension))
	}

	stored := rec
	stored.Collection = collectionName
	stored.Vector = append([]float32(nil), rec.Vector...)
	stored.Metadata = rec.Metadata.Clone()
	col.records[rec.ID] = stored
	return nil
}

// Query returns up to k records ordered by ascending cosine distance,
// ties broken by ascending id.
func (s *Store) Query(collectionName string, vector []float32, k int) ([]model.RetrievedChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[collectionName]
	if !ok {
		return nil, helper.NewError("query", fmt.Errorf("%w: %q", model.ErrUnknownCollection, collectionName))
	}
	if len(vector) != col.dimension {
		return nil, helper.NewError("query",
			fmt.Errorf("%w: query vector has %d dimensions, collection %q expects %d",
				model.ErrDimensionMismatch, len(vector), collectionName, col.dimension))
	}
	if k <= 0 {
		return nil, nil
	}

	results := make([]model.RetrievedChunk, 0, len(col.records))
	for _, rec := range col.records {
		results = append(results, model.RetrievedChunk{
			Record:   rec,
			Distance: cosineDistance(vector, rec.Vector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Record.ID < results[j].Record.ID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Persist writes one snapshot file per collection, atomically replacing
// any previous snapshot.
func (s *Store) Persist() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return helper.NewError("persist", err)
	}

	for name, col := range s.collections {
		snap := snapshot{
			Name:      name,
			Dimension: col.dimension,
			Records:   make([]model.VectorRecord, 0, len(col.records)),
		}
		for _, rec := range col.records {
			snap.Records = append(snap.Records, rec)
		}
		sort.Slice(snap.Records, func(i, j int) bool { return snap.Records[i].ID < snap.Records[j].ID })

		data, err := json.Marshal(snap)
		if err != nil {
			return helper.NewError("persist", err)
		}

		target := filepath.Join(s.dir, name+snapshotExt)
		tmp := target + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return helper.NewError("persist", err)
		}
		if err := os.Rename(tmp, target); err != nil {
			return helper.NewError("persist", err)
		}

		s.log.Info("Persisted collection snapshot",
			slog.String("collection", name), slog.Int("records", len(snap.Records)))
	}
	return nil
}

// Load replaces the in-memory state with the snapshots found in the
// snapshot directory. A missing directory means a fresh store.
func (s *Store) Load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return helper.NewError("load", err)
	}

	loaded := make(map[string]*collection)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), snapshotExt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return helper.NewError("load", err)
		}
		var snap snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return helper.NewError("load", fmt.Errorf("snapshot %s: %w", entry.Name(), err))
		}

		col := &collection{
			dimension: snap.Dimension,
			records:   make(map[string]model.VectorRecord, len(snap.Records)),
		}
		for _, rec := range snap.Records {
			col.records[rec.ID] = rec
		}
		loaded[snap.Name] = col

		s.log.Info("Loaded collection snapshot",
			slog.String("collection", snap.Name), slog.Int("records", len(snap.Records)))
	}

	s.mu.Lock()
	s.collections = loaded
	s.mu.Unlock()
	return nil
}

// Close persists all collections before the store goes away.
func (s *Store) Close() error {
	return s.Persist()
}

// cosineDistance returns 1 - cosine similarity, clamped to be
// non-negative. Vectors with zero norm are maximally distant from
// everything.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	d := 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
	if d < 0 {
		return 0
	}
	return d
}
