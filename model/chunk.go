package model

import "fmt"

// Span is a half-open [Start, End) byte range within a document body.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Chunk is one overlapping window cut from a document body.
type Chunk struct {
	DocID     string `json:"doc_id"`
	Index     int    `json:"index"`
	Text      string `json:"text"`
	CharStart int    `json:"char_start"`
	CharEnd   int    `json:"char_end"`
}

// ChunkID builds the stable record id for a (document, chunk index) pair.
// Re-ingesting a document reproduces the same ids, which is what makes
// ingestion idempotent.
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s:%d", docID, index)
}

// ID returns the chunk's identity within a collection.
func (c *Chunk) ID() string {
	return ChunkID(c.DocID, c.Index)
}

// VectorRecord is a persisted chunk vector. Text is carried alongside the
// vector so retrieval can hand the chunk content to the context builder
// without a second lookup.
type VectorRecord struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection,omitempty"`
	Text       string    `json:"text"`
	Vector     []float32 `json:"vector"`
	Metadata   Metadata  `json:"metadata,omitempty"`
}

// RetrievedChunk pairs a stored record with its cosine distance to the
// query vector. Produced only at query time, never persisted.
type RetrievedChunk struct {
	Record   VectorRecord `json:"record"`
	Distance float64      `json:"distance"`
}
