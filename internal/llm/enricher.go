package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/the-listings-must-flow/internal/classification"
	"github.com/Veraticus/the-listings-must-flow/internal/common"
	"github.com/Veraticus/the-listings-must-flow/internal/metrics"
	"github.com/Veraticus/the-listings-must-flow/internal/service"
)

// Enricher asks a language model for the fields the rules could not decide.
// It never returns an error; every failure means "no suggestion".
type Enricher struct {
	client  Client
	cache   *suggestionCache
	limiter *rateLimiter
	metrics *metrics.Metrics
	logger  *slog.Logger
	retry   service.RetryOptions
	timeout time.Duration
}

// NewEnricher wraps client with caching, rate limiting and retries.
func NewEnricher(client Client, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Enricher {
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 500 * time.Millisecond
	}
	return &Enricher{
		client:  client,
		cache:   newSuggestionCache(cfg.CacheTTL),
		limiter: newRateLimiter(cfg.RequestsPerMinute),
		metrics: m,
		logger:  common.LoggerOrDefault(logger),
		timeout: cfg.timeout(),
		retry: service.RetryOptions{
			MaxAttempts:  cfg.MaxRetries + 1,
			InitialDelay: retryDelay,
			MaxDelay:     4 * retryDelay,
			Multiplier:   2,
		},
	}
}

// Enrich returns the model's classification of text. The bool is false when
// the model was unreachable, answered with something unusable or resolved
// nothing.
func (e *Enricher) Enrich(ctx context.Context, text string) (classification.Result, bool) {
	if e == nil || e.client == nil {
		return classification.Result{}, false
	}

	key := cacheKey(text)
	if s, ok := e.cache.get(key); ok {
		e.metrics.ObserveEnrichment(metrics.OutcomeCached, 0)
		return s, hasResolved(s)
	}

	start := time.Now()
	prompt := BuildPrompt(text)
	var answer string
	err := common.WithRetry(ctx, func() error {
		if err := e.limiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err}
		}
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		out, err := e.client.Generate(callCtx, prompt)
		if err != nil {
			return err
		}
		answer = out
		return nil
	}, e.retry)
	elapsed := time.Since(start)

	if err != nil {
		outcome := metrics.OutcomeError
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			outcome = metrics.OutcomeTimeout
		case errors.Is(err, common.ErrRateLimit):
			outcome = metrics.OutcomeLimited
		}
		e.metrics.ObserveEnrichment(outcome, elapsed)
		e.logger.Debug("Enrichment unavailable", "outcome", outcome, "error", err)
		return classification.Result{}, false
	}

	s, err := ParseSuggestion(answer)
	if err != nil {
		e.metrics.ObserveEnrichment(metrics.OutcomeInvalid, elapsed)
		e.logger.Debug("Discarding enrichment answer", "error", err, "answer", truncate([]byte(answer)))
		return classification.Result{}, false
	}

	e.cache.set(key, s)
	if !hasResolved(s) {
		e.metrics.ObserveEnrichment(metrics.OutcomeEmpty, elapsed)
		return s, false
	}
	e.metrics.ObserveEnrichment(metrics.OutcomeFilled, elapsed)
	return s, true
}

// Close releases the cache's background goroutine.
func (e *Enricher) Close() {
	if e != nil {
		e.cache.Close()
	}
}

func hasResolved(r classification.Result) bool {
	return len(r.Unresolved()) < 4
}
