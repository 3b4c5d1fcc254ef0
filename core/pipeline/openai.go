package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pharmaintellect/ragengine/helper"
	"github.com/pharmaintellect/ragengine/model"
	"golang.org/x/time/rate"
)

// Known vector sizes of the OpenAI embedding models.
var openAIModelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint. Works
// against api.openai.com as well as Azure or local compatible servers via
// the base URL.
type OpenAIEmbedder struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	dimension int
	limiter   *rate.Limiter
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIEmbedder builds the client from the embedding service config.
func NewOpenAIEmbedder(cfg model.ServiceConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, helper.NewError("embedding client setup", fmt.Errorf("api key is required"))
	}
	if cfg.BaseURL == "" || cfg.Model == "" {
		return nil, helper.NewError("embedding client setup", fmt.Errorf("base url and model are required"))
	}

	dimension := cfg.Dimension
	if dimension == 0 {
		var ok bool
		dimension, ok = openAIModelDimensions[cfg.Model]
		if !ok {
			return nil, helper.NewError("embedding client setup",
				fmt.Errorf("unknown model %q, set dimension explicitly", cfg.Model))
		}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &OpenAIEmbedder{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		dimension: dimension,
		limiter:   limiter,
	}, nil
}

// Embed generates one vector per text, ordered by the response index field
// so results line up with the input regardless of response order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	jsonBody, err := json.Marshal(embeddingRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, helper.NewError("marshal embedding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, helper.NewError("create embedding request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, helper.NewError("send embedding request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, helper.NewError("read embedding response", err)
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, helper.NewError("decode embedding response", err)
	}
	if embedResp.Error != nil {
		return nil, helper.NewError("embedding request", fmt.Errorf("%s", embedResp.Error.Message))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, helper.NewError("embedding request",
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}
	if len(embedResp.Data) != len(texts) {
		return nil, helper.NewError("embedding request",
			fmt.Errorf("got %d embeddings for %d texts", len(embedResp.Data), len(texts)))
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range embedResp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, helper.NewError("embedding request",
				fmt.Errorf("embedding index %d out of range", data.Index))
		}
		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		embeddings[data.Index] = vec
	}
	return embeddings, nil
}

// Dimension returns the vector size of the configured model.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}
