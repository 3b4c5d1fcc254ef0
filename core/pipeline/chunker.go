package pipeline

import (
	"fmt"

	"github.com/pharmaintellect/ragengine/helper"
	"github.com/pharmaintellect/ragengine/model"
)

// ChunkText splits text into overlapping byte windows. Each window is
// maxChars long and starts overlapChars before the previous window's end,
// except the last, which covers whatever remains once fewer than maxChars
// are left. Empty input yields no spans.
func ChunkText(text string, maxChars, overlapChars int) ([]model.Span, error) {
	if maxChars <= 0 {
		return nil, helper.NewError("chunking", fmt.Errorf("max chunk size must be positive, got %d", maxChars))
	}
	if overlapChars <= 0 || overlapChars >= maxChars {
		return nil, helper.NewError("chunking",
			fmt.Errorf("overlap must be in (0, %d), got %d", maxChars, overlapChars))
	}
	if len(text) == 0 {
		return nil, nil
	}

	step := maxChars - overlapChars
	var spans []model.Span
	start := 0
	for len(text)-start >= maxChars {
		spans = append(spans, model.Span{Start: start, End: start + maxChars})
		start += step
	}
	if start < len(text) {
		spans = append(spans, model.Span{Start: start, End: len(text)})
	}
	return spans, nil
}

// ChunkDocument chunks a document's body and assigns sequential chunk
// indices starting at zero.
func ChunkDocument(doc model.Document, maxChars, overlapChars int) ([]model.Chunk, error) {
	spans, err := ChunkText(doc.Body, maxChars, overlapChars)
	if err != nil {
		return nil, err
	}

	chunks := make([]model.Chunk, 0, len(spans))
	for i, span := range spans {
		chunks = append(chunks, model.Chunk{
			DocID:     doc.ID,
			Index:     i,
			Text:      doc.Body[span.Start:span.End],
			CharStart: span.Start,
			CharEnd:   span.End,
		})
	}
	return chunks, nil
}
