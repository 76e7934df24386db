package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Veraticus/the-listings-must-flow/internal/common"
)

const defaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta"

// geminiClient implements the Client interface for the Gemini generateContent API.
type geminiClient struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
}

func newGeminiClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required: %w", common.ErrMissingConfig)
	}

	return &geminiClient{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.baseURLOr(defaultGeminiURL), "/"),
		model:       cfg.modelOr("gemini-1.5-flash"),
		temperature: cfg.temperature(),
		maxTokens:   cfg.maxTokens(),
		httpClient:  newHTTPClient(cfg.timeout()),
	}, nil
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// Generate asks for a JSON answer via responseMimeType.
func (c *geminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":      c.temperature,
			"topP":             0.95,
			"topK":             40,
			"maxOutputTokens":  c.maxTokens,
			"responseMimeType": "application/json",
		},
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))

	var resp geminiResponse
	if err := postJSON(ctx, c.httpClient, ProviderGemini, endpoint, nil, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates returned: %w", common.ErrInvalidResponse)
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
