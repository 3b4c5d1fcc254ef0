// Package retrieval embeds questions and merges nearest-neighbor results
// across all configured collections.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pharmaintellect/ragengine/core/pipeline"
	"github.com/pharmaintellect/ragengine/helper"
	"github.com/pharmaintellect/ragengine/model"
	"github.com/pharmaintellect/ragengine/store"
)

// Orchestrator runs the retrieval stage: one question embedding, one
// top-k query per collection, then a k-way merge into a single ranking.
type Orchestrator struct {
	store    store.VectorStore
	embedder pipeline.Embedder
	cfg      *model.Config
	log      *slog.Logger
}

// NewOrchestrator wires the retrieval stage.
func NewOrchestrator(st store.VectorStore, embedder pipeline.Embedder, cfg *model.Config, log *slog.Logger) *Orchestrator {
	return &Orchestrator{store: st, embedder: embedder, cfg: cfg, log: log}
}

// Retrieve returns the top k chunks across all configured collections,
// ordered by ascending cosine distance with ties broken by ascending id.
// The question is embedded exactly once. A corpus with no retrievable
// chunks yields model.ErrEmptyCorpus.
func (o *Orchestrator) Retrieve(ctx context.Context, question string, k int) ([]model.RetrievedChunk, error) {
	if question == "" {
		return nil, helper.NewError("retrieve", fmt.Errorf("question must not be empty"))
	}
	if k <= 0 {
		return nil, helper.NewError("retrieve", fmt.Errorf("k must be positive, got %d", k))
	}

	vectors, err := pipeline.EmbedWithRetry(ctx, o.embedder, []string{question})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d embeddings for one question", model.ErrEmbeddingUnavailable, len(vectors))
	}
	queryVector := vectors[0]

	perCollection := make([][]model.RetrievedChunk, 0, len(o.cfg.Collections))
	for _, collection := range o.cfg.Collections {
		results, err := o.store.Query(collection, queryVector, k)
		if err != nil {
			// A collection nothing has been ingested into yet is not an
			// error for the query as a whole.
			if errors.Is(err, model.ErrUnknownCollection) {
				o.log.Debug("Collection not yet populated", slog.String("collection", collection))
				continue
			}
			return nil, err
		}
		perCollection = append(perCollection, results)
	}

	merged := mergeRankings(perCollection, k)
	if len(merged) == 0 {
		return nil, fmt.Errorf("%w: no chunks retrievable for question", model.ErrEmptyCorpus)
	}

	o.log.Info("Retrieved chunks",
		slog.Int("requested", k),
		slog.Int("returned", len(merged)),
		slog.Float64("best_distance", merged[0].Distance))

	return merged, nil
}

// mergeRankings merges per-collection rankings, each already sorted by
// (distance, id), into a single ranking of at most k entries.
func mergeRankings(rankings [][]model.RetrievedChunk, k int) []model.RetrievedChunk {
	heads := make([]int, len(rankings))
	var merged []model.RetrievedChunk

	for len(merged) < k {
		best := -1
		for i, ranking := range rankings {
			if heads[i] >= len(ranking) {
				continue
			}
			if best == -1 || less(ranking[heads[i]], rankings[best][heads[best]]) {
				best = i
			}
		}
		if best == -1 {
			break
		}
		merged = append(merged, rankings[best][heads[best]])
		heads[best]++
	}
	return merged
}

func less(a, b model.RetrievedChunk) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Record.ID < b.Record.ID
}
