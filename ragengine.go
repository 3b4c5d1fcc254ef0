// Package ragengine answers biomedical research questions over a local
// corpus of PubMed abstracts and ClinicalTrials.gov studies. Documents are
// chunked, embedded and stored per collection; questions retrieve the
// nearest chunks across all collections, a language model answers from
// those chunks only, and every answered query lands in an append-only
// history log.
package ragengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pharmaintellect/ragengine/core/answer"
	"github.com/pharmaintellect/ragengine/core/pipeline"
	"github.com/pharmaintellect/ragengine/core/retrieval"
	"github.com/pharmaintellect/ragengine/helper"
	"github.com/pharmaintellect/ragengine/history"
	"github.com/pharmaintellect/ragengine/model"
	"github.com/pharmaintellect/ragengine/store"
)

// Engine is the top-level query engine. All components share one config
// and one logger; the engine owns the store and the history log and
// closes them on Close.
type Engine struct {
	Config    *model.Config
	Store     store.VectorStore
	Embedder  pipeline.Embedder
	Generator answer.Generator
	History   *history.Log

	ingestor  *pipeline.Ingestor
	retriever *retrieval.Orchestrator
	builder   *answer.ContextBuilder
	assembler *answer.Assembler
	log       *slog.Logger
}

// New wires an engine from its components. A nil logger gets the default
// pretty handler on stdout.
func New(cfg *model.Config, st store.VectorStore, embedder pipeline.Embedder, generator answer.Generator, hist *history.Log, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, helper.NewError("engine setup", err)
	}
	if st == nil || embedder == nil || generator == nil || hist == nil {
		return nil, helper.NewError("engine setup", fmt.Errorf("store, embedder, generator and history are required"))
	}
	if logger == nil {
		logger = helper.NewLogger(os.Stdout, slog.LevelInfo)
	}

	return &Engine{
		Config:    cfg,
		Store:     st,
		Embedder:  embedder,
		Generator: generator,
		History:   hist,
		ingestor:  pipeline.NewIngestor(st, embedder, cfg, logger),
		retriever: retrieval.NewOrchestrator(st, embedder, cfg, logger),
		builder:   answer.NewContextBuilder(cfg.ContextCharBudget, logger),
		assembler: answer.NewAssembler(logger),
		log:       logger,
	}, nil
}

// Ingest chunks, embeds and stores documents into one of the configured
// collections. Safe to call repeatedly with the same documents.
func (e *Engine) Ingest(ctx context.Context, docs []model.Document, collection string) (model.IngestReport, error) {
	if !e.knownCollection(collection) {
		return model.IngestReport{}, fmt.Errorf("%w: %q not in configured collections", model.ErrUnknownCollection, collection)
	}
	return e.ingestor.Ingest(ctx, docs, collection)
}

// Query answers one research question. k is clamped to [1, MaxTopK]; zero
// or negative k means the configured default. An empty corpus returns
// model.ErrEmptyCorpus without touching the history log; a cancelled
// context aborts without writing history. Each successful query appends
// exactly one history entry.
func (e *Engine) Query(ctx context.Context, question string, k int) (*model.QueryResult, error) {
	if question == "" {
		return nil, helper.NewError("query", fmt.Errorf("question must not be empty"))
	}
	if k <= 0 {
		k = e.Config.DefaultTopK
	}
	if k > e.Config.MaxTopK {
		k = e.Config.MaxTopK
	}

	retrieved, err := e.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return nil, err
	}

	contextBlock, included := e.builder.Build(retrieved)
	e.log.Debug("Built generation context",
		slog.Int("chunks", len(included)), slog.Int("chars", len(contextBlock)))

	generated, err := answer.GenerateWithRetry(ctx, e.Generator, answer.SystemPrompt, answer.BuildUserPrompt(question, contextBlock))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	citations, noAnswer := e.assembler.Assemble(generated, retrieved)

	result := &model.QueryResult{
		ID:        uuid.New(),
		Question:  question,
		Retrieved: retrieved,
		Answer:    generated,
		Citations: citations,
		NoAnswer:  noAnswer,
		CreatedAt: time.Now().UTC(),
	}

	if err := e.History.Append(*result); err != nil {
		return nil, err
	}

	e.log.Info("Answered query",
		slog.String("id", result.ID.String()),
		slog.Int("retrieved", len(retrieved)),
		slog.Int("citations", len(citations)),
		slog.Bool("no_answer", noAnswer))

	return result, nil
}

// ListHistory returns answered queries, most recent first.
func (e *Engine) ListHistory(limit, offset int) ([]history.Entry, error) {
	return e.History.List(limit, offset)
}

// Close persists the store and closes the history log.
func (e *Engine) Close() error {
	storeErr := e.Store.Close()
	historyErr := e.History.Close()
	return errors.Join(storeErr, historyErr)
}

func (e *Engine) knownCollection(name string) bool {
	for _, c := range e.Config.Collections {
		if c == name {
			return true
		}
	}
	return false
}
