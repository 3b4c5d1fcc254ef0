package memory

import (
	"io"
	"log/slog"
	"testing"

	"github.com/pharmaintellect/ragengine/helper"
	"github.com/pharmaintellect/ragengine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return helper.NewLogger(io.Discard, slog.LevelError)
}

func record(id string, vector []float32) model.VectorRecord {
	return model.VectorRecord{ID: id, Text: "text for " + id, Vector: vector}
}

func TestCreateCollection(t *testing.T) {
	t.Run("Create and recreate with same dimension", func(t *testing.T) {
		st := NewStore(t.TempDir(), testLogger())

		require.NoError(t, st.CreateCollection("pubmed_abstracts", 4))
		require.NoError(t, st.CreateCollection("pubmed_abstracts", 4))
	})

	t.Run("Recreate with different dimension fails", func(t *testing.T) {
		st := NewStore(t.TempDir(), testLogger())

		require.NoError(t, st.CreateCollection("pubmed_abstracts", 4))
		err := st.CreateCollection("pubmed_abstracts", 8)

		assert.ErrorIs(t, err, model.ErrDimensionMismatch)
	})

	t.Run("Invalid names are rejected", func(t *testing.T) {
		st := NewStore(t.TempDir(), testLogger())

		assert.Error(t, st.CreateCollection("", 4))
		assert.Error(t, st.CreateCollection("Has Spaces", 4))
		assert.Error(t, st.CreateCollection("../escape", 4))
	})

	t.Run("Non-positive dimension is rejected", func(t *testing.T) {
		st := NewStore(t.TempDir(), testLogger())

		assert.Error(t, st.CreateCollection("pubmed_abstracts", 0))
	})
}

func TestUpsert(t *testing.T) {
	t.Run("Unknown collection fails", func(t *testing.T) {
		st := NewStore(t.TempDir(), testLogger())

		err := st.Upsert("missing", record("a:0", []float32{1, 0}))

		assert.ErrorIs(t, err, model.ErrUnknownCollection)
	})

	t.Run("Wrong dimension fails", func(t *testing.T) {
		st := NewStore(t.TempDir(), testLogger())
		require.NoError(t, st.CreateCollection("clinical_trials", 4))

		err := st.Upsert("clinical_trials", record("a:0", []float32{1, 0}))

		assert.ErrorIs(t, err, model.ErrDimensionMismatch)
	})

	t.Run("Same id overwrites", func(t *testing.T) {
		st := NewStore(t.TempDir(), testLogger())
		require.NoError(t, st.CreateCollection("clinical_trials", 2))

		require.NoError(t, st.Upsert("clinical_trials", record("a:0", []float32{1, 0})))
		require.NoError(t, st.Upsert("clinical_trials", record("a:0", []float32{0, 1})))

		results, err := st.Query("clinical_trials", []float32{0, 1}, 10)
		require.NoError(t, err)
		require.Equal(t, 1, len(results))
		assert.Equal(t, []float32{0, 1}, results[0].Record.Vector)
	})

	t.Run("Stored record is isolated from caller mutation", func(t *testing.T) {
		st := NewStore(t.TempDir(), testLogger())
		require.NoError(t, st.CreateCollection("clinical_trials", 2))

		vector := []float32{1, 0}
		require.NoError(t, st.Upsert("clinical_trials", record("a:0", vector)))
		vector[0] = 99

		results, err := st.Query("clinical_trials", []float32{1, 0}, 1)
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0}, results[0].Record.Vector)
	})
}

func TestQuery(t *testing.T) {
	setup := func(t *testing.T) *Store {
		st := NewStore(t.TempDir(), testLogger())
		require.NoError(t, st.CreateCollection("pubmed_abstracts", 2))
		require.NoError(t, st.Upsert("pubmed_abstracts", record("pubmed_1:0", []float32{1, 0})))
		require.NoError(t, st.Upsert("pubmed_abstracts", record("pubmed_2:0", []float32{0, 1})))
		require.NoError(t, st.Upsert("pubmed_abstracts", record("pubmed_3:0", []float32{0.7, 0.7})))
		return st
	}

	t.Run("Results ordered by ascending distance", func(t *testing.T) {
		st := setup(t)

		results, err := st.Query("pubmed_abstracts", []float32{1, 0}, 3)

		require.NoError(t, err)
		require.Equal(t, 3, len(results))
		assert.Equal(t, "pubmed_1:0", results[0].Record.ID)
		assert.Equal(t, "pubmed_3:0", results[1].Record.ID)
		assert.Equal(t, "pubmed_2:0", results[2].Record.ID)
		for i := 1; i < len(results); i++ {
			assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
		}
	})

	t.Run("Ties break by ascending id", func(t *testing.T) {
		st := NewStore(t.TempDir(), testLogger())
		require.NoError(t, st.CreateCollection("pubmed_abstracts", 2))
		require.NoError(t, st.Upsert("pubmed_abstracts", record("pubmed_b:0", []float32{1, 0})))
		require.NoError(t, st.Upsert("pubmed_abstracts", record("pubmed_a:0", []float32{1, 0})))

		results, err := st.Query("pubmed_abstracts", []float32{1, 0}, 2)

		require.NoError(t, err)
		assert.Equal(t, "pubmed_a:0", results[0].Record.ID)
		assert.Equal(t, "pubmed_b:0", results[1].Record.ID)
	})

	t.Run("K larger than collection returns everything", func(t *testing.T) {
		st := setup(t)

		results, err := st.Query("pubmed_abstracts", []float32{1, 0}, 50)

		require.NoError(t, err)
		assert.Equal(t, 3, len(results))
	})

	t.Run("Identical vector has distance zero", func(t *testing.T) {
		st := setup(t)

		results, err := st.Query("pubmed_abstracts", []float32{1, 0}, 1)

		require.NoError(t, err)
		assert.InDelta(t, 0, results[0].Distance, 1e-9)
	})

	t.Run("Unknown collection fails", func(t *testing.T) {
		st := NewStore(t.TempDir(), testLogger())

		_, err := st.Query("missing", []float32{1, 0}, 1)

		assert.ErrorIs(t, err, model.ErrUnknownCollection)
	})

	t.Run("Wrong query dimension fails", func(t *testing.T) {
		st := setup(t)

		_, err := st.Query("pubmed_abstracts", []float32{1, 0, 0}, 1)

		assert.ErrorIs(t, err, model.ErrDimensionMismatch)
	})
}

func TestPersistAndLoad(t *testing.T) {
	t.Run("Round trip preserves collections and rankings", func(t *testing.T) {
		dir := t.TempDir()

		first := NewStore(dir, testLogger())
		require.NoError(t, first.CreateCollection("pubmed_abstracts", 2))
		require.NoError(t, first.CreateCollection("clinical_trials", 2))
		require.NoError(t, first.Upsert("pubmed_abstracts", record("pubmed_1:0", []float32{1, 0})))
		require.NoError(t, first.Upsert("pubmed_abstracts", record("pubmed_2:0", []float32{0, 1})))
		require.NoError(t, first.Upsert("clinical_trials", record("trial_NCT1:0", []float32{0.5, 0.5})))
		require.NoError(t, first.Persist())

		second := NewStore(dir, testLogger())
		require.NoError(t, second.Load())

		want, err := first.Query("pubmed_abstracts", []float32{0.9, 0.1}, 2)
		require.NoError(t, err)
		got, err := second.Query("pubmed_abstracts", []float32{0.9, 0.1}, 2)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		trials, err := second.Query("clinical_trials", []float32{0.5, 0.5}, 1)
		require.NoError(t, err)
		assert.Equal(t, "trial_NCT1:0", trials[0].Record.ID)
	})

	t.Run("Load from missing directory is a fresh store", func(t *testing.T) {
		st := NewStore("/nonexistent/snapshot/dir", testLogger())

		require.NoError(t, st.Load())
		_, err := st.Query("pubmed_abstracts", []float32{1, 0}, 1)
		assert.ErrorIs(t, err, model.ErrUnknownCollection)
	})

	t.Run("Load replaces in-memory state", func(t *testing.T) {
		dir := t.TempDir()

		st := NewStore(dir, testLogger())
		require.NoError(t, st.CreateCollection("pubmed_abstracts", 2))
		require.NoError(t, st.Upsert("pubmed_abstracts", record("pubmed_1:0", []float32{1, 0})))
		require.NoError(t, st.Persist())

		require.NoError(t, st.CreateCollection("clinical_trials", 2))
		require.NoError(t, st.Load())

		_, err := st.Query("clinical_trials", []float32{1, 0}, 1)
		assert.ErrorIs(t, err, model.ErrUnknownCollection)
	})
}
