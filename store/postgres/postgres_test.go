package postgres

import (
	"fmt"
	"testing"

	"github.com/pharmaintellect/ragengine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var collectionCounter int

// freshCollection returns a unique collection name so tests sharing the
// container don't interfere.
func freshCollection() string {
	collectionCounter++
	return fmt.Sprintf("test_collection_%d", collectionCounter)
}

func record(id string, vector []float32) model.VectorRecord {
	return model.VectorRecord{
		ID:       id,
		Text:     "text for " + id,
		Vector:   vector,
		Metadata: model.Metadata{"doc_id": id},
	}
}

func TestPostgresCreateCollection(t *testing.T) {
	st := initStore(t)
	name := freshCollection()

	t.Run("Create and recreate with same dimension", func(t *testing.T) {
		require.NoError(t, st.CreateCollection(name, 3))
		require.NoError(t, st.CreateCollection(name, 3))
	})

	t.Run("Recreate with different dimension fails", func(t *testing.T) {
		err := st.CreateCollection(name, 5)
		assert.ErrorIs(t, err, model.ErrDimensionMismatch)
	})

	t.Run("Invalid name is rejected", func(t *testing.T) {
		assert.Error(t, st.CreateCollection("no;drop", 3))
	})
}

func TestPostgresUpsert(t *testing.T) {
	st := initStore(t)
	name := freshCollection()
	require.NoError(t, st.CreateCollection(name, 2))

	t.Run("Unknown collection fails", func(t *testing.T) {
		err := st.Upsert("missing_collection", record("a:0", []float32{1, 0}))
		assert.ErrorIs(t, err, model.ErrUnknownCollection)
	})

	t.Run("Wrong dimension fails", func(t *testing.T) {
		err := st.Upsert(name, record("a:0", []float32{1, 0, 0}))
		assert.ErrorIs(t, err, model.ErrDimensionMismatch)
	})

	t.Run("Same id overwrites", func(t *testing.T) {
		require.NoError(t, st.Upsert(name, record("a:0", []float32{1, 0})))
		require.NoError(t, st.Upsert(name, record("a:0", []float32{0, 1})))

		results, err := st.Query(name, []float32{0, 1}, 10)
		require.NoError(t, err)
		require.Equal(t, 1, len(results))
		assert.Equal(t, []float32{0, 1}, results[0].Record.Vector)
	})
}

func TestPostgresQuery(t *testing.T) {
	st := initStore(t)
	name := freshCollection()
	require.NoError(t, st.CreateCollection(name, 2))
	require.NoError(t, st.Upsert(name, record("pubmed_1:0", []float32{1, 0})))
	require.NoError(t, st.Upsert(name, record("pubmed_2:0", []float32{0, 1})))
	require.NoError(t, st.Upsert(name, record("pubmed_3:0", []float32{0.7, 0.7})))

	t.Run("Results ordered by ascending distance", func(t *testing.T) {
		results, err := st.Query(name, []float32{1, 0}, 3)

		require.NoError(t, err)
		require.Equal(t, 3, len(results))
		assert.Equal(t, "pubmed_1:0", results[0].Record.ID)
		assert.Equal(t, "pubmed_3:0", results[1].Record.ID)
		assert.Equal(t, "pubmed_2:0", results[2].Record.ID)
		for i := 1; i < len(results); i++ {
			assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
		}
	})

	t.Run("K larger than collection returns everything", func(t *testing.T) {
		results, err := st.Query(name, []float32{1, 0}, 50)

		require.NoError(t, err)
		assert.Equal(t, 3, len(results))
	})

	t.Run("Metadata round trips through jsonb", func(t *testing.T) {
		results, err := st.Query(name, []float32{1, 0}, 1)

		require.NoError(t, err)
		assert.Equal(t, "pubmed_1:0", results[0].Record.Metadata["doc_id"])
		assert.Equal(t, "text for pubmed_1:0", results[0].Record.Text)
	})

	t.Run("Wrong query dimension fails", func(t *testing.T) {
		_, err := st.Query(name, []float32{1, 0, 0}, 1)
		assert.ErrorIs(t, err, model.ErrDimensionMismatch)
	})
}
