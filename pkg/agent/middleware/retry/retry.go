// Package retry provides the retry middleware for LLM clients. Classified
// errors are retried with per-type exponential backoff; non-retryable
// errors pass through immediately.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"agentd/pkg/agent/llm"
	"agentd/pkg/agent/llmerrors"
	"agentd/pkg/logx"
)

// Middleware returns a middleware that retries failed completions according
// to the retry configuration of the classified error type.
func Middleware(logger *logx.Logger) llm.Middleware {
	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				attempt := 0
				for {
					resp, err := next.Complete(ctx, req)
					if err == nil {
						return resp, nil
					}

					var classified *llmerrors.Error
					if !errors.As(err, &classified) || !classified.IsRetryable() {
						return llm.CompletionResponse{}, err
					}

					cfg := classified.GetRetryConfig()
					if attempt >= cfg.MaxRetries {
						return llm.CompletionResponse{}, llmerrors.NewServiceUnavailableError(err, attempt)
					}

					delay := backoffDelay(cfg, attempt)
					if logger != nil {
						logger.Warn("retrying %s after %s error (attempt %d/%d, backoff %s)",
							next.GetModelName(), classified.Type, attempt+1, cfg.MaxRetries, delay)
					}

					select {
					case <-ctx.Done():
						return llm.CompletionResponse{}, ctx.Err()
					case <-time.After(delay):
					}
					attempt++
				}
			},
			next.Stream,
			next.GetModelName,
		)
	}
}

// backoffDelay computes the exponential backoff delay for an attempt,
// capped at MaxDelay, with optional jitter in [50%, 100%] of the delay.
func backoffDelay(cfg llmerrors.RetryConfig, attempt int) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffFactor, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		delay *= 0.5 + rand.Float64()/2 //nolint:gosec // jitter does not need crypto randomness
	}
	return time.Duration(delay)
}
