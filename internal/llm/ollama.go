package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Veraticus/the-listings-must-flow/internal/common"
)

const defaultOllamaURL = "http://127.0.0.1:11434"

// ollamaClient talks to a local Ollama server.
type ollamaClient struct {
	httpClient  *http.Client
	baseURL     string
	model       string
	temperature float64
}

func newOllamaClient(cfg Config) (Client, error) {
	return &ollamaClient{
		httpClient:  newHTTPClient(cfg.timeout()),
		baseURL:     strings.TrimRight(cfg.baseURLOr(defaultOllamaURL), "/"),
		model:       cfg.modelOr("llama3.1"),
		temperature: cfg.temperature(),
	}, nil
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate calls /api/generate without streaming.
func (c *ollamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": c.temperature,
		},
	}

	var resp ollamaResponse
	if err := postJSON(ctx, c.httpClient, ProviderOllama, c.baseURL+"/api/generate", nil, body, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Response) == "" {
		return "", fmt.Errorf("ollama returned no text: %w", common.ErrInvalidResponse)
	}
	return resp.Response, nil
}
