// Package store defines the vector store contract shared by the in-process
// snapshot store and the PostgreSQL/pgvector store.
package store

import (
	"fmt"
	"regexp"

	"github.com/pharmaintellect/ragengine/model"
)

// VectorStore persists chunk vectors per named collection and answers
// nearest-neighbor queries by cosine distance.
//
// CreateCollection is idempotent; recreating an existing collection with a
// different dimension fails with model.ErrDimensionMismatch. A collection's
// dimension is fixed for its lifetime. Upsert overwrites by id. Query
// returns up to k results ordered by ascending distance, ties broken by
// ascending id, and fewer than k when the collection is smaller.
type VectorStore interface {
	CreateCollection(name string, dimension int) error
	Upsert(collection string, rec model.VectorRecord) error
	Query(collection string, vector []float32, k int) ([]model.RetrievedChunk, error)
	Persist() error
	Load() error
	Close() error
}

var collectionNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateCollectionName rejects names that cannot serve as snapshot file
// names or SQL identifiers.
func ValidateCollectionName(name string) error {
	if !collectionNameRe.MatchString(name) {
		return fmt.Errorf("invalid collection name %q (want lowercase letters, digits, underscores)", name)
	}
	return nil
}
