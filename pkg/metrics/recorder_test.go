package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRequest_Success(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorderWithRegistry(reg)

	rec.ObserveRequest("qwen-plus", "search", 120, 40, 0.0002, true, "", 750*time.Millisecond)

	requests := testutil.ToFloat64(rec.requestsTotal.WithLabelValues("qwen-plus", "search", "success", ""))
	if requests != 1 {
		t.Errorf("llm_requests_total = %v, want 1", requests)
	}

	promptTokens := testutil.ToFloat64(rec.tokensTotal.WithLabelValues("qwen-plus", "search", "prompt"))
	if promptTokens != 120 {
		t.Errorf("prompt tokens = %v, want 120", promptTokens)
	}
	completionTokens := testutil.ToFloat64(rec.tokensTotal.WithLabelValues("qwen-plus", "search", "completion"))
	if completionTokens != 40 {
		t.Errorf("completion tokens = %v, want 40", completionTokens)
	}
}

func TestObserveRequest_ErrorSkipsTokens(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorderWithRegistry(reg)

	rec.ObserveRequest("qwen-plus", "chat", 100, 0, 0, false, "timeout", time.Second)

	requests := testutil.ToFloat64(rec.requestsTotal.WithLabelValues("qwen-plus", "chat", "error", "timeout"))
	if requests != 1 {
		t.Errorf("llm_requests_total = %v, want 1", requests)
	}

	tokens := testutil.ToFloat64(rec.tokensTotal.WithLabelValues("qwen-plus", "chat", "prompt"))
	if tokens != 0 {
		t.Errorf("Expected no token counting on error, got %v", tokens)
	}
}

func TestIncRunAndToolInvocation(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorderWithRegistry(reg)

	rec.IncRun("search", "completed")
	rec.IncRun("search", "completed")
	rec.IncRun("search", "awaiting_user_input")
	rec.IncToolInvocation("ask_user_question", "success")

	completed := testutil.ToFloat64(rec.runsTotal.WithLabelValues("search", "completed"))
	if completed != 2 {
		t.Errorf("agent_runs_total{completed} = %v, want 2", completed)
	}
	awaiting := testutil.ToFloat64(rec.runsTotal.WithLabelValues("search", "awaiting_user_input"))
	if awaiting != 1 {
		t.Errorf("agent_runs_total{awaiting_user_input} = %v, want 1", awaiting)
	}
	tools := testutil.ToFloat64(rec.toolsTotal.WithLabelValues("ask_user_question", "success"))
	if tools != 1 {
		t.Errorf("tool_invocations_total = %v, want 1", tools)
	}
}

func TestNoopRecorder(t *testing.T) {
	rec := NewNoopRecorder()

	// Just exercise the interface, nothing should panic
	rec.ObserveRequest("m", "a", 1, 1, 0.1, true, "", time.Second)
	rec.IncRun("a", "completed")
	rec.IncToolInvocation("t", "success")

	var _ Recorder = rec
}
