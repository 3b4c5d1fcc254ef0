package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/pharmaintellect/ragengine/helper"
	"github.com/pharmaintellect/ragengine/model"
	"github.com/pharmaintellect/ragengine/store"
	"golang.org/x/sync/errgroup"
)

// Ingestor chunks documents, embeds the chunks in concurrent batches and
// upserts the vectors into one collection. Re-ingesting the same documents
// overwrites the same chunk ids, so ingestion is idempotent.
type Ingestor struct {
	store    store.VectorStore
	embedder Embedder
	cfg      *model.Config
	log      *slog.Logger
}

// NewIngestor wires the ingestor to a store and an embedder.
func NewIngestor(st store.VectorStore, embedder Embedder, cfg *model.Config, log *slog.Logger) *Ingestor {
	return &Ingestor{store: st, embedder: embedder, cfg: cfg, log: log}
}

// chunkEntry ties a chunk back to its source document.
type chunkEntry struct {
	chunk model.Chunk
	doc   model.Document
}

// Ingest processes documents into the named collection. Malformed
// documents are skipped and counted. A batch whose embedding fails after
// retries marks every document touching that batch as failed; none of a
// failed document's chunks are upserted. Cancellation aborts the whole
// call with the context error.
func (ing *Ingestor) Ingest(ctx context.Context, docs []model.Document, collection string) (model.IngestReport, error) {
	var report model.IngestReport

	var entries []chunkEntry
	for _, doc := range docs {
		if !doc.Valid() {
			report.SkippedDocuments++
			ing.log.Warn("Skipping malformed document", slog.String("doc_id", doc.ID))
			continue
		}
		chunks, err := ChunkDocument(doc, ing.cfg.MaxChunkSize, ing.cfg.ChunkOverlap)
		if err != nil {
			return report, err
		}
		report.Documents++
		for _, c := range chunks {
			entries = append(entries, chunkEntry{chunk: c, doc: doc})
		}
	}

	if err := ing.store.CreateCollection(collection, ing.embedder.Dimension()); err != nil {
		return report, err
	}
	if len(entries) == 0 {
		return report, nil
	}

	batchSize := ing.cfg.EmbeddingBatchSize
	batchCount := (len(entries) + batchSize - 1) / batchSize
	vectors := make([][][]float32, batchCount)

	var mu sync.Mutex
	failedDocs := make(map[string]bool)

	group, groupCtx := errgroup.WithContext(ctx)
	concurrency := ing.cfg.EmbedConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	group.SetLimit(concurrency)

	for b := 0; b < batchCount; b++ {
		start := b * batchSize
		end := min(start+batchSize, len(entries))
		batch := entries[start:end]

		group.Go(func() error {
			texts := make([]string, len(batch))
			for i, e := range batch {
				texts[i] = e.chunk.Text
			}

			vecs, err := EmbedWithRetry(groupCtx, ing.embedder, texts)
			if err != nil {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}
				mu.Lock()
				for _, e := range batch {
					failedDocs[e.doc.ID] = true
				}
				mu.Unlock()
				ing.log.Error("Embedding batch failed",
					slog.Int("batch_size", len(batch)), slog.String("error", err.Error()))
				return nil
			}

			mu.Lock()
			vectors[start/batchSize] = vecs
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return report, helper.NewError("ingest", err)
	}

	for i, entry := range entries {
		if failedDocs[entry.doc.ID] {
			continue
		}
		batchVecs := vectors[i/batchSize]
		if batchVecs == nil {
			continue
		}

		chunk := entry.chunk
		doc := entry.doc
		meta := doc.Metadata.Clone()
		meta["doc_id"] = doc.ID
		meta["chunk_index"] = strconv.Itoa(chunk.Index)
		meta["char_start"] = strconv.Itoa(chunk.CharStart)
		meta["char_end"] = strconv.Itoa(chunk.CharEnd)
		meta["title"] = doc.Title
		meta["source_type"] = string(doc.SourceType)

		rec := model.VectorRecord{
			ID:       model.ChunkID(doc.ID, chunk.Index),
			Text:     chunk.Text,
			Vector:   batchVecs[i%batchSize],
			Metadata: meta,
		}
		if err := ing.store.Upsert(collection, rec); err != nil {
			return report, err
		}
		report.Chunks++
	}

	for id := range failedDocs {
		report.Documents--
		report.FailedDocuments++
		report.FailedDocIDs = append(report.FailedDocIDs, id)
	}
	sort.Strings(report.FailedDocIDs)

	ing.log.Info("Ingested documents",
		slog.String("collection", collection),
		slog.Int("documents", report.Documents),
		slog.Int("chunks", report.Chunks),
		slog.Int("skipped", report.SkippedDocuments),
		slog.Int("failed", report.FailedDocuments))

	return report, nil
}
