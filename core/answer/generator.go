package answer

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

// Sampling settings carried over from the original system.
const (
	generationTemperature = 0.7
	generationMaxTokens   = 1000
)

// Generator produces an answer from a system prompt and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// OpenAIGenerator calls an OpenAI-compatible /chat/completions endpoint.
type OpenAIGenerator struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	limiter *rate.Limiter
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIGenerator builds the client from the generation service config.
func NewOpenAIGenerator(cfg model.ServiceConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, helper.NewError("generation client setup", fmt.Errorf("api key is required"))
	}
	if cfg.BaseURL == "" || cfg.Model == "" {
		return nil, helper.NewError("generation client setup", fmt.Errorf("base url and model are required"))
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &OpenAIGenerator{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		limiter: limiter,
	}, nil
}

// Generate sends one chat completion request and returns the first
// choice's content.
func (g *OpenAIGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	jsonBody, err := json.Marshal(chatCompletionRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: generationTemperature,
		MaxTokens:   generationMaxTokens,
	})
	if err != nil {
		return "", helper.NewError("marshal completion request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", helper.NewError("create completion request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", helper.NewError("send completion request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", helper.NewError("read completion response", err)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", helper.NewError("decode completion response", err)
	}
	if completion.Error != nil {
		return "", helper.NewError("completion request", fmt.Errorf("%s", completion.Error.Message))
	}
	if resp.StatusCode != http.StatusOK {
		return "", helper.NewError("completion request",
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}
	if len(completion.Choices) == 0 {
		return "", helper.NewError("completion request", fmt.Errorf("no choices returned"))
	}

	return completion.Choices[0].Message.Content, nil
}
