package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Veraticus/the-listings-must-flow/internal/common"
)

const maxResponseBytes = 1 << 20

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// postJSON sends body to url and decodes the JSON answer into out.
// Rate limiting and server errors are retryable; other failures are not.
func postJSON(ctx context.Context, hc *http.Client, provider, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("%s request failed: %w", provider, err), Retryable: ctx.Err() == nil}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("failed to read response: %w", err), Retryable: true}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &common.RetryableError{Err: fmt.Errorf("%s API: %w", provider, common.ErrRateLimit), Retryable: true}
	case resp.StatusCode >= http.StatusInternalServerError:
		return &common.RetryableError{Err: fmt.Errorf("%s API error (status %d): %s", provider, resp.StatusCode, truncate(data)), Retryable: true}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &common.RetryableError{Err: fmt.Errorf("%s API error (status %d): %s", provider, resp.StatusCode, truncate(data))}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &common.RetryableError{Err: fmt.Errorf("failed to parse %s response: %w", provider, err)}
	}
	return nil
}

func truncate(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
