package model

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default collection names, carried over from the knowledge base layout of
// the original corpus (PubMed abstracts + ClinicalTrials.gov studies).
const (
	CollectionLiterature = "pubmed_abstracts"
	CollectionTrials     = "clinical_trials"
)

// ServiceConfig holds endpoint and credential settings for one
// OpenAI-compatible service (embeddings or chat completions).
type ServiceConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
	// Dimension overrides the vector size reported by the embedding
	// service; 0 means use the model's known default.
	Dimension int `yaml:"dimension"`
	// RequestsPerSecond caps outbound calls; 0 disables rate limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// UnmarshalYAML decodes the service section with a human readable timeout
// ("60s", "2m"). Fields absent from the yaml keep their current values,
// so file settings layer over the defaults.
func (s *ServiceConfig) UnmarshalYAML(value *yaml.Node) error {
	type raw struct {
		BaseURL           *string  `yaml:"base_url"`
		APIKey            *string  `yaml:"api_key"`
		Model             *string  `yaml:"model"`
		Timeout           *string  `yaml:"timeout"`
		Dimension         *int     `yaml:"dimension"`
		RequestsPerSecond *float64 `yaml:"requests_per_second"`
	}
	var r raw
	if err := value.Decode(&r); err != nil {
		return err
	}

	if r.BaseURL != nil {
		s.BaseURL = *r.BaseURL
	}
	if r.APIKey != nil {
		s.APIKey = *r.APIKey
	}
	if r.Model != nil {
		s.Model = *r.Model
	}
	if r.Dimension != nil {
		s.Dimension = *r.Dimension
	}
	if r.RequestsPerSecond != nil {
		s.RequestsPerSecond = *r.RequestsPerSecond
	}
	if r.Timeout != nil {
		timeout, err := time.ParseDuration(*r.Timeout)
		if err != nil {
			return fmt.Errorf("parse timeout: %w", err)
		}
		s.Timeout = timeout
	}
	return nil
}

// Config is the single immutable configuration value handed to each
// component at construction. Core components never read process
// environment directly; callers populate credentials before handing the
// config over.
type Config struct {
	// Chunking
	MaxChunkSize int `yaml:"max_chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	// Embedding
	EmbeddingBatchSize int `yaml:"embedding_batch_size"`
	EmbedConcurrency   int `yaml:"embed_concurrency"`

	// Retrieval
	DefaultTopK int      `yaml:"default_top_k"`
	MaxTopK     int      `yaml:"max_top_k"`
	Collections []string `yaml:"collections"`

	// Generation context
	ContextCharBudget int `yaml:"context_char_budget"`

	// Storage
	SnapshotDir string `yaml:"snapshot_dir"`
	HistoryPath string `yaml:"history_path"`

	// External services
	Embedding  ServiceConfig `yaml:"embedding"`
	Generation ServiceConfig `yaml:"generation"`
}

// DefaultConfig returns the settings the original system ran with:
// 300 character chunks with 50 character overlap, 5 retrieved sources,
// MiniLM-sized batches.
func DefaultConfig() *Config {
	return &Config{
		MaxChunkSize:       300,
		ChunkOverlap:       50,
		EmbeddingBatchSize: 32,
		EmbedConcurrency:   4,
		DefaultTopK:        5,
		MaxTopK:            20,
		Collections:        []string{CollectionLiterature, CollectionTrials},
		ContextCharBudget:  6000,
		SnapshotDir:        "./snapshots",
		HistoryPath:        "./history.db",
		Embedding: ServiceConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "text-embedding-3-small",
			Timeout: 60 * time.Second,
		},
		Generation: ServiceConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: 120 * time.Second,
		},
	}
}

// LoadConfig reads a yaml config file over the defaults. A missing file is
// not an error; the defaults are returned.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the invariants the chunker and retrieval layers rely on.
func (c *Config) Validate() error {
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("max_chunk_size must be positive, got %d", c.MaxChunkSize)
	}
	if c.ChunkOverlap <= 0 || c.ChunkOverlap >= c.MaxChunkSize {
		return fmt.Errorf("chunk_overlap must be in (0, max_chunk_size), got %d", c.ChunkOverlap)
	}
	if c.EmbeddingBatchSize <= 0 {
		return fmt.Errorf("embedding_batch_size must be positive, got %d", c.EmbeddingBatchSize)
	}
	if c.DefaultTopK <= 0 || c.MaxTopK < c.DefaultTopK {
		return fmt.Errorf("invalid top-k bounds: default %d, max %d", c.DefaultTopK, c.MaxTopK)
	}
	if c.ContextCharBudget <= 0 {
		return fmt.Errorf("context_char_budget must be positive, got %d", c.ContextCharBudget)
	}
	if len(c.Collections) == 0 {
		return fmt.Errorf("at least one collection must be configured")
	}
	return nil
}
