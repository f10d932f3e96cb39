package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"agentd/pkg/agent/llm"
	"agentd/pkg/agent/llmerrors"
)

// captureRecorder records the last observation for assertions.
type captureRecorder struct {
	model            string
	agent            string
	promptTokens     int
	completionTokens int
	cost             float64
	success          bool
	errorType        string
	observed         int
}

func (c *captureRecorder) ObserveRequest(model, agent string, promptTokens, completionTokens int, cost float64, success bool, errorType string, _ time.Duration) {
	c.model = model
	c.agent = agent
	c.promptTokens = promptTokens
	c.completionTokens = completionTokens
	c.cost = cost
	c.success = success
	c.errorType = errorType
	c.observed++
}

func (c *captureRecorder) IncRun(_, _ string)            {}
func (c *captureRecorder) IncToolInvocation(_, _ string) {}

type fixedClient struct {
	resp llm.CompletionResponse
	err  error
}

func (f *fixedClient) Complete(_ context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
	return f.resp, f.err
}

func (f *fixedClient) Stream(_ context.Context, _ llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	return nil, errors.New("not implemented")
}

func (f *fixedClient) GetModelName() string { return "qwen-plus" }

func TestMiddlewareRecordsProviderUsage(t *testing.T) {
	rec := &captureRecorder{}
	base := &fixedClient{resp: llm.CompletionResponse{
		Content: "hello",
		Usage:   llm.Usage{PromptTokens: 120, CompletionTokens: 40},
	}}
	client := llm.Chain(base, Middleware(rec, "chat"))

	if _, err := client.Complete(context.Background(), llm.CompletionRequest{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if rec.observed != 1 || !rec.success {
		t.Fatalf("observed=%d success=%v", rec.observed, rec.success)
	}
	if rec.model != "qwen-plus" || rec.agent != "chat" {
		t.Errorf("labels = %q/%q", rec.model, rec.agent)
	}
	if rec.promptTokens != 120 || rec.completionTokens != 40 {
		t.Errorf("tokens = %d/%d", rec.promptTokens, rec.completionTokens)
	}
	if rec.cost <= 0 {
		t.Errorf("cost = %v, want > 0 for a known model", rec.cost)
	}
}

func TestMiddlewareEstimatesWhenUsageMissing(t *testing.T) {
	rec := &captureRecorder{}
	base := &fixedClient{resp: llm.CompletionResponse{Content: "12345678"}}
	client := llm.Chain(base, Middleware(rec, "chat"))

	req := llm.CompletionRequest{Messages: []llm.CompletionMessage{llm.NewUserMessage("0123456789abcdef")}}
	if _, err := client.Complete(context.Background(), req); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if rec.promptTokens != 4 || rec.completionTokens != 2 {
		t.Errorf("estimated tokens = %d/%d, want 4/2", rec.promptTokens, rec.completionTokens)
	}
}

func TestMiddlewareRecordsErrorType(t *testing.T) {
	rec := &captureRecorder{}
	base := &fixedClient{err: llmerrors.NewError(llmerrors.ErrorTypeRateLimit, "slow down")}
	client := llm.Chain(base, Middleware(rec, "search"))

	if _, err := client.Complete(context.Background(), llm.CompletionRequest{}); err == nil {
		t.Fatal("expected error")
	}
	if rec.success || rec.errorType != "rate_limit" {
		t.Errorf("success=%v errorType=%q", rec.success, rec.errorType)
	}
}
