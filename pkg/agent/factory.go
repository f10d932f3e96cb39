// Package agent provides the chat and search agents: LLM client
// construction, system prompts, and the run/resume lifecycle around the
// tool loop.
package agent

import (
	"fmt"
	"strings"

	"agentd/pkg/agent/internal/llmimpl/anthropic"
	"agentd/pkg/agent/internal/llmimpl/google"
	"agentd/pkg/agent/internal/llmimpl/ollama"
	"agentd/pkg/agent/internal/llmimpl/openai"
	"agentd/pkg/agent/llm"
	metricsmw "agentd/pkg/agent/middleware/metrics"
	"agentd/pkg/agent/middleware/retry"
	"agentd/pkg/config"
	"agentd/pkg/logx"
	"agentd/pkg/metrics"
)

// NewLLMClient creates a client for the given model, wrapped with the
// metrics and retry middleware. The API key is resolved from secrets or
// the environment based on the model's provider.
func NewLLMClient(model, agentName string, recorder metrics.Recorder, logger *logx.Logger) (llm.LLMClient, error) {
	provider, err := config.GetModelProvider(model)
	if err != nil {
		return nil, fmt.Errorf("failed to determine provider for model %s: %w", model, err)
	}

	apiKey, err := config.GetAPIKey(provider)
	if err != nil {
		return nil, err
	}

	var raw llm.LLMClient
	switch provider {
	case config.ProviderAnthropic:
		raw = anthropic.NewClientWithModel(apiKey, model)
	case config.ProviderOpenAI:
		raw = openai.NewClientWithModel(apiKey, model)
	case config.ProviderDashScope:
		raw = openai.NewClientWithBaseURL(apiKey, config.GetDashScopeBaseURL(), model)
	case config.ProviderGoogle:
		raw = google.NewClientWithModel(apiKey, model)
	case config.ProviderOllama:
		raw = ollama.NewClientWithModel(config.GetOllamaHost(), strings.TrimPrefix(model, "ollama:"))
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	if recorder == nil {
		recorder = metrics.NewNoopRecorder()
	}

	// Metrics outermost so it observes the final result after retries.
	return llm.Chain(raw,
		metricsmw.Middleware(recorder, agentName),
		retry.Middleware(logger),
	), nil
}
