package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/pharmaintellect/ragengine"
	"github.com/pharmaintellect/ragengine/core/answer"
	"github.com/pharmaintellect/ragengine/core/pipeline"
	"github.com/pharmaintellect/ragengine/helper"
	"github.com/pharmaintellect/ragengine/history"
	"github.com/pharmaintellect/ragengine/model"
	"github.com/pharmaintellect/ragengine/store/memory"
)

var sampleDocs = []model.Document{
	{
		ID:         "pubmed_31645286",
		SourceType: model.SourceTypeLiterature,
		Title:      "Aspirin for primary prevention of cardiovascular events",
		Body: `Low-dose aspirin has been widely used for primary prevention of cardiovascular events. ` +
			`Meta-analyses show a modest reduction in nonfatal myocardial infarction, offset by an increased ` +
			`risk of major bleeding. Current guidance favors individualized assessment of bleeding risk before ` +
			`initiating long-term aspirin therapy in patients without established cardiovascular disease.`,
	},
	{
		ID:         "trial_NCT00000620",
		SourceType: model.SourceTypeTrial,
		Title:      "Action to Control Cardiovascular Risk in Diabetes (ACCORD)",
		Body: `Action to Control Cardiovascular Risk in Diabetes (ACCORD). Condition: Type 2 Diabetes. ` +
			`Status: Completed. Phase: Phase 3.`,
	},
}

func main() {
	// Loads OPENAI_API_KEY from .env if present.
	_ = godotenv.Load()

	cfg := model.DefaultConfig()
	cfg.Generation.APIKey = os.Getenv("OPENAI_API_KEY")

	logger := helper.NewLogger(os.Stdout, slog.LevelInfo)

	embedder, err := pipeline.NewLocalEmbedder()
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	defer embedder.Close()

	generator, err := answer.NewOpenAIGenerator(cfg.Generation)
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}

	hist, err := history.Open(cfg.HistoryPath, logger)
	if err != nil {
		log.Fatalf("Failed to open history: %v", err)
	}

	st := memory.NewStore(cfg.SnapshotDir, logger)
	if err := st.Load(); err != nil {
		log.Fatalf("Failed to load snapshots: %v", err)
	}

	engine, err := ragengine.New(cfg, st, embedder, generator, hist, logger)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()

	report, err := engine.Ingest(ctx, sampleDocs[:1], model.CollectionLiterature)
	if err != nil {
		log.Fatalf("Failed to ingest literature: %v", err)
	}
	fmt.Printf("Ingested %d literature documents (%d chunks)\n", report.Documents, report.Chunks)

	report, err = engine.Ingest(ctx, sampleDocs[1:], model.CollectionTrials)
	if err != nil {
		log.Fatalf("Failed to ingest trials: %v", err)
	}
	fmt.Printf("Ingested %d trial documents (%d chunks)\n", report.Documents, report.Chunks)

	result, err := engine.Query(ctx, "Does aspirin prevent cardiovascular events in healthy adults?", 5)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}

	fmt.Printf("\nAnswer:\n%s\n\nCitations: %v\n", result.Answer, result.Citations)

	entries, err := engine.ListHistory(5, 0)
	if err != nil {
		log.Fatalf("Failed to list history: %v", err)
	}
	fmt.Printf("\nHistory entries: %d\n", len(entries))
}
