// Package metrics provides the metrics middleware for LLM clients. It
// records request latency, token usage, estimated cost, and error types
// through a metrics.Recorder.
package metrics

import (
	"context"
	"time"

	"agentd/pkg/agent/llm"
	"agentd/pkg/agent/llmerrors"
	"agentd/pkg/config"
	"agentd/pkg/metrics"
)

// Middleware returns a middleware that records metrics for each completion.
// The agent label distinguishes which agent issued the request.
func Middleware(recorder metrics.Recorder, agent string) llm.Middleware {
	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				start := time.Now()
				resp, err := next.Complete(ctx, req)
				duration := time.Since(start)

				model := next.GetModelName()
				promptTokens := resp.Usage.PromptTokens
				completionTokens := resp.Usage.CompletionTokens
				if err == nil && promptTokens == 0 && completionTokens == 0 {
					promptTokens, completionTokens = estimateUsage(req, resp)
				}

				errorType := ""
				if err != nil {
					errorType = llmerrors.TypeOf(err).String()
				}

				cost := estimateCost(model, promptTokens, completionTokens)
				recorder.ObserveRequest(model, agent, promptTokens, completionTokens, cost, err == nil, errorType, duration)

				return resp, err
			},
			next.Stream,
			next.GetModelName,
		)
	}
}

// estimateUsage approximates token counts when the provider reports none.
// Four characters per token is close enough for cost accounting.
func estimateUsage(req llm.CompletionRequest, resp llm.CompletionResponse) (promptTokens, completionTokens int) {
	var promptChars int
	for i := range req.Messages {
		promptChars += len(req.Messages[i].Content)
	}
	return promptChars / 4, len(resp.Content) / 4
}

// estimateCost computes the USD cost of a request from the per-million-token
// pricing in the model table. Unknown models cost zero.
func estimateCost(model string, promptTokens, completionTokens int) float64 {
	info, known := config.GetModelInfo(model)
	if !known {
		return 0
	}
	return float64(promptTokens)*info.InputCPM/1e6 + float64(completionTokens)*info.OutputCPM/1e6
}
