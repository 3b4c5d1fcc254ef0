package pipeline

import (
	"strings"
	"testing"

	"github.com/pharmaintellect/ragengine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText(t *testing.T) {
	t.Run("Windows of 300 with 50 overlap over 1000 characters", func(t *testing.T) {
		text := strings.Repeat("a", 1000)

		spans, err := ChunkText(text, 300, 50)

		require.NoError(t, err)
		require.Equal(t, 4, len(spans))
		assert.Equal(t, model.Span{Start: 0, End: 300}, spans[0])
		assert.Equal(t, model.Span{Start: 250, End: 550}, spans[1])
		assert.Equal(t, model.Span{Start: 500, End: 800}, spans[2])
		assert.Equal(t, model.Span{Start: 750, End: 1000}, spans[3])
	})

	t.Run("Consecutive windows share the overlap", func(t *testing.T) {
		text := strings.Repeat("b", 900)

		spans, err := ChunkText(text, 300, 50)

		require.NoError(t, err)
		for i := 1; i < len(spans); i++ {
			assert.Equal(t, 50, spans[i-1].End-spans[i].Start)
		}
	})

	t.Run("Text shorter than max gives one full span", func(t *testing.T) {
		spans, err := ChunkText("short text", 300, 50)

		require.NoError(t, err)
		require.Equal(t, 1, len(spans))
		assert.Equal(t, model.Span{Start: 0, End: 10}, spans[0])
	})

	t.Run("Text exactly max long gives one window plus the remainder", func(t *testing.T) {
		text := strings.Repeat("c", 300)

		spans, err := ChunkText(text, 300, 50)

		require.NoError(t, err)
		require.Equal(t, 2, len(spans))
		assert.Equal(t, model.Span{Start: 0, End: 300}, spans[0])
		assert.Equal(t, model.Span{Start: 250, End: 300}, spans[1])
	})

	t.Run("Empty text gives no spans", func(t *testing.T) {
		spans, err := ChunkText("", 300, 50)

		require.NoError(t, err)
		assert.Empty(t, spans)
	})

	t.Run("Every character is covered", func(t *testing.T) {
		text := strings.Repeat("d", 1234)

		spans, err := ChunkText(text, 300, 50)

		require.NoError(t, err)
		covered := make([]bool, len(text))
		for _, span := range spans {
			for i := span.Start; i < span.End; i++ {
				covered[i] = true
			}
		}
		for i, c := range covered {
			require.True(t, c, "character %d not covered", i)
		}
	})

	t.Run("Error with non-positive max size", func(t *testing.T) {
		_, err := ChunkText("text", 0, 0)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})

	t.Run("Error with overlap not below max size", func(t *testing.T) {
		_, err := ChunkText("text", 100, 100)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "overlap")
	})
}

func TestChunkDocument(t *testing.T) {
	t.Run("Chunks carry document id and sequential indices", func(t *testing.T) {
		doc := model.Document{
			ID:         "pubmed_12345678",
			SourceType: model.SourceTypeLiterature,
			Body:       strings.Repeat("x", 1000),
		}

		chunks, err := ChunkDocument(doc, 300, 50)

		require.NoError(t, err)
		require.Equal(t, 4, len(chunks))
		for i, chunk := range chunks {
			assert.Equal(t, "pubmed_12345678", chunk.DocID)
			assert.Equal(t, i, chunk.Index)
			assert.Equal(t, doc.Body[chunk.CharStart:chunk.CharEnd], chunk.Text)
		}
	})

	t.Run("Chunk ids are stable across runs", func(t *testing.T) {
		doc := model.Document{ID: "trial_NCT01234567", Body: strings.Repeat("y", 600)}

		first, err := ChunkDocument(doc, 300, 50)
		require.NoError(t, err)
		second, err := ChunkDocument(doc, 300, 50)
		require.NoError(t, err)

		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].ID(), second[i].ID())
		}
	})
}
