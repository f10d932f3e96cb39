package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"agentd/pkg/agent/llm"
	"agentd/pkg/config"
	"agentd/pkg/contextmgr"
)

func testConfig() config.Config {
	return config.Config{
		Agents: &config.AgentConfig{
			ChatModel:         config.DefaultChatModel,
			SearchModel:       config.DefaultSearchModel,
			MaxTokens:         4096,
			Temperature:       0.7,
			MaxToolIterations: 10,
		},
	}
}

// scriptedClient replays a fixed sequence of responses.
type scriptedClient struct {
	responses []llm.CompletionResponse
	calls     int
	requests  []llm.CompletionRequest
}

func (s *scriptedClient) Complete(_ context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	s.requests = append(s.requests, req)
	idx := s.calls
	s.calls++
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return s.responses[idx], nil
}

func (s *scriptedClient) Stream(_ context.Context, _ llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	return nil, errors.New("not implemented")
}

func (s *scriptedClient) GetModelName() string { return "scripted" }

func TestNewChatAgentDefaults(t *testing.T) {
	a, err := NewChatAgent(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewChatAgent: %v", err)
	}
	if a.Name != ChatAgentName || a.Model != config.DefaultChatModel {
		t.Errorf("agent = %+v", a)
	}
	if len(a.Tools) != 0 {
		t.Errorf("chat agent should have no tools, got %v", a.Tools)
	}
}

func TestNewSearchAgentTools(t *testing.T) {
	a, err := NewSearchAgent(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewSearchAgent: %v", err)
	}
	if a.Model != config.DefaultSearchModel {
		t.Errorf("model = %q", a.Model)
	}
	want := map[string]bool{"web_search": true, "ask_user_question": true, "collect_user_feedback": true}
	for _, name := range a.Tools {
		delete(want, name)
	}
	if len(want) != 0 {
		t.Errorf("missing tools: %v", want)
	}
	if !strings.Contains(a.Instructions, "ask_user_question") {
		t.Error("search instructions should reference the clarification tool")
	}
}

func TestProfileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	profile := `agents:
  chat:
    model: qwen-turbo
    instructions: Always answer in haiku.
    max_tokens: 512
    temperature: 0.1
`
	if err := os.WriteFile(path, []byte(profile), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.Agents.ProfilesPath = path
	a, err := NewChatAgent(cfg, nil)
	if err != nil {
		t.Fatalf("NewChatAgent: %v", err)
	}
	if a.Model != "qwen-turbo" || a.MaxTokens != 512 {
		t.Errorf("overrides not applied: %+v", a)
	}
	if a.Temperature != 0.1 {
		t.Errorf("temperature = %v", a.Temperature)
	}
	if !strings.Contains(a.Instructions, "haiku") {
		t.Error("profile instructions should be appended")
	}
}

func TestRunRejectsEmptyInput(t *testing.T) {
	a, err := NewChatAgent(testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Run(context.Background(), ""); err == nil {
		t.Error("empty input should fail")
	}
}

func TestRunCompletes(t *testing.T) {
	a, err := NewChatAgent(testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	a.client = &scriptedClient{responses: []llm.CompletionResponse{{Content: "hello there"}}}

	result, err := a.Run(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != StatusCompleted || result.Content != "hello there" {
		t.Errorf("result = %+v", result)
	}
	if len(result.Messages) != 2 {
		t.Errorf("transcript = %+v", result.Messages)
	}
}

func TestRunPausesOnQuestion(t *testing.T) {
	questions := `[{"question":"Which environment?","header":"Env","options":[{"label":"Prod","description":"Production"},{"label":"Dev","description":"Development"}],"multiSelect":false}]`
	a, err := NewSearchAgent(testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	a.client = &scriptedClient{responses: []llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{{
			ID:         "1",
			Name:       "ask_user_question",
			Parameters: map[string]any{"questions": questions},
		}}},
	}}

	result, err := a.Run(context.Background(), "deploy it")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != StatusAwaitingUserInput {
		t.Fatalf("status = %q", result.Status)
	}
	if result.PendingTool != "ask_user_question" {
		t.Errorf("PendingTool = %q", result.PendingTool)
	}
	if !strings.Contains(result.PendingPayload, "Which environment?") {
		t.Errorf("PendingPayload = %q", result.PendingPayload)
	}
	if !strings.Contains(result.Content, "awaiting_user_input") {
		t.Errorf("Content = %q", result.Content)
	}
}

func TestResumeCompletesRun(t *testing.T) {
	questions := `[{"question":"Which environment?","header":"Env","options":[{"label":"Prod","description":"Production"},{"label":"Dev","description":"Development"}],"multiSelect":false}]`
	history := []contextmgr.Message{{Role: "user", Content: "deploy it"}}

	a, err := NewSearchAgent(testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	client := &scriptedClient{responses: []llm.CompletionResponse{{Content: "deploying to Prod"}}}
	a.client = client

	result, err := a.Resume(context.Background(), history, "ask_user_question", questions, `{"question_0":["Prod"]}`)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if result.Status != StatusCompleted || result.Content != "deploying to Prod" {
		t.Errorf("result = %+v", result)
	}

	// The completed tool result must be visible to the model.
	req := client.requests[0]
	var sawAnswer bool
	for _, msg := range req.Messages {
		if strings.Contains(msg.Content, `"Env"`) && strings.Contains(msg.Content, "Prod") {
			sawAnswer = true
		}
	}
	if !sawAnswer {
		t.Error("resumed conversation should contain the completed answers")
	}
}

func TestResumeCollectFeedback(t *testing.T) {
	a, err := NewSearchAgent(testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	a.client = &scriptedClient{responses: []llm.CompletionResponse{{Content: "thanks for the feedback"}}}

	result, err := a.Resume(context.Background(), nil, "collect_user_feedback", "How did the search go?", "worked great")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if result.Status != StatusCompleted {
		t.Errorf("status = %q", result.Status)
	}
}

func TestResumeUnknownToolFails(t *testing.T) {
	a, err := NewSearchAgent(testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Resume(context.Background(), nil, "web_search", "{}", "answer"); err == nil {
		t.Error("web_search is not resumable and should fail")
	}
}
