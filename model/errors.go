package model

import "errors"

// Error kinds surfaced by the engine. DimensionMismatch and
// UnknownCollection are configuration errors and are never retried;
// EmbeddingUnavailable and GenerationUnavailable are transient and are
// retried with bounded backoff before surfacing; EmptyCorpus is the
// user-visible "no data available" condition, distinct from a query that
// retrieved data but produced no answer.
var (
	ErrDimensionMismatch     = errors.New("vector dimension mismatch")
	ErrUnknownCollection     = errors.New("unknown collection")
	ErrEmptyCorpus           = errors.New("empty corpus")
	ErrEmbeddingUnavailable  = errors.New("embedding service unavailable")
	ErrGenerationUnavailable = errors.New("generation service unavailable")
)
