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
	"github.com/pharmaintellect/ragengine/store/postgres"
)

func main() {
	_ = godotenv.Load()

	// Start a pgvector-enabled PostgreSQL container for the demo.
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	logger := helper.NewLogger(os.Stdout, slog.LevelInfo)

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}
	db := helper.NewDatabase("ragengine", dbConfig, logger)

	st, err := postgres.NewStore(db)
	if err != nil {
		log.Fatalf("Failed to create store: %v", err)
	}

	cfg := model.DefaultConfig()
	cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Generation.APIKey = os.Getenv("OPENAI_API_KEY")

	embedder, err := pipeline.NewOpenAIEmbedder(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	generator, err := answer.NewOpenAIGenerator(cfg.Generation)
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}
	hist, err := history.Open(cfg.HistoryPath, logger)
	if err != nil {
		log.Fatalf("Failed to open history: %v", err)
	}

	engine, err := ragengine.New(cfg, st, embedder, generator, hist, logger)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()

	docs := []model.Document{
		{
			ID:         "pubmed_29562145",
			SourceType: model.SourceTypeLiterature,
			Title:      "SGLT2 inhibitors and heart failure outcomes",
			Body: `Sodium-glucose cotransporter 2 inhibitors reduce hospitalization for heart failure ` +
				`in patients with type 2 diabetes, with consistent effects across baseline cardiovascular risk.`,
		},
		{
			ID:         "pubmed_31535829",
			SourceType: model.SourceTypeLiterature,
			Title:      "DAPA-HF trial results",
			Body: `In patients with heart failure and reduced ejection fraction, dapagliflozin reduced the ` +
				`risk of worsening heart failure or cardiovascular death, regardless of diabetes status.`,
		},
	}

	report, err := engine.Ingest(ctx, docs, model.CollectionLiterature)
	if err != nil {
		log.Fatalf("Failed to ingest: %v", err)
	}
	fmt.Printf("Ingested %d documents (%d chunks)\n", report.Documents, report.Chunks)

	result, err := engine.Query(ctx, "Do SGLT2 inhibitors help in heart failure?", 5)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}

	fmt.Printf("\nAnswer:\n%s\n\nCitations: %v\n", result.Answer, result.Citations)
}
