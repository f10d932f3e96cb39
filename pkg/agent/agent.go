package agent

import (
	"context"
	"fmt"

	"agentd/pkg/agent/llm"
	"agentd/pkg/agent/toolloop"
	"agentd/pkg/config"
	"agentd/pkg/contextmgr"
	"agentd/pkg/logx"
	"agentd/pkg/metrics"
	"agentd/pkg/tools"
)

// Run status values reported by agents.
const (
	StatusCompleted         = "completed"
	StatusAwaitingUserInput = "awaiting_user_input"
	StatusFailed            = "failed"
)

// Agent names for the two built-in agents.
const (
	ChatAgentName   = "chat"
	SearchAgentName = "search"
)

// Agent runs conversations against a model with a fixed tool allow-list.
//
//nolint:govet // fieldalignment: grouped for readability
type Agent struct {
	Name          string
	Model         string
	Instructions  string
	Tools         []string
	MaxTokens     int
	Temperature   float32
	MaxIterations int

	cfg      config.Config
	recorder metrics.Recorder
	logger   *logx.Logger

	// client overrides the factory-built LLM client when set (tests).
	client llm.LLMClient
}

// Result is the outcome of a run or a resume.
//
//nolint:govet // fieldalignment: grouped for readability
type Result struct {
	Status  string
	Content string

	// PendingTool and PendingPayload are set when Status is
	// awaiting_user_input: the paused tool's name and the payload it
	// needs to complete (question set or feedback prompt).
	PendingTool    string
	PendingPayload string

	// Messages is the full conversation transcript for persistence.
	Messages []contextmgr.Message

	Iterations int
}

// NewChatAgent creates the general-purpose chat agent.
func NewChatAgent(cfg config.Config, recorder metrics.Recorder) (*Agent, error) {
	return newAgent(ChatAgentName, cfg.Agents.ChatModel, chatInstructions, tools.ChatTools, cfg, recorder)
}

// NewSearchAgent creates the web search agent with HITL tools.
func NewSearchAgent(cfg config.Config, recorder metrics.Recorder) (*Agent, error) {
	return newAgent(SearchAgentName, cfg.Agents.SearchModel, searchInstructions, tools.SearchTools, cfg, recorder)
}

func newAgent(name, model, instructions string, toolNames []string, cfg config.Config, recorder metrics.Recorder) (*Agent, error) {
	if recorder == nil {
		recorder = metrics.NewNoopRecorder()
	}

	a := &Agent{
		Name:          name,
		Model:         model,
		Instructions:  instructions,
		Tools:         append([]string(nil), toolNames...),
		MaxTokens:     cfg.Agents.MaxTokens,
		Temperature:   float32(cfg.Agents.Temperature),
		MaxIterations: cfg.Agents.MaxToolIterations,
		cfg:           cfg,
		recorder:      recorder,
		logger:        logx.NewLogger("agent-" + name),
	}

	if err := a.applyProfile(cfg.Agents.ProfilesPath); err != nil {
		return nil, err
	}
	return a, nil
}

// applyProfile overlays per-agent overrides from the profiles file.
func (a *Agent) applyProfile(path string) error {
	profiles, err := config.LoadProfiles(path)
	if err != nil {
		return fmt.Errorf("agent %s: %w", a.Name, err)
	}
	profile, ok := profiles[a.Name]
	if !ok {
		return nil
	}

	if profile.Model != "" {
		a.Model = profile.Model
	}
	if profile.Instructions != "" {
		a.Instructions += "\n\n" + profile.Instructions
	}
	if len(profile.Tools) > 0 {
		a.Tools = append([]string(nil), profile.Tools...)
	}
	if profile.MaxTokens > 0 {
		a.MaxTokens = profile.MaxTokens
	}
	if profile.Temperature != nil {
		a.Temperature = float32(*profile.Temperature)
	}
	return nil
}

// Run starts a fresh conversation with the given user input.
func (a *Agent) Run(ctx context.Context, input string) (Result, error) {
	if input == "" {
		return Result{}, fmt.Errorf("input cannot be empty")
	}
	cm := contextmgr.NewContextManager(a.Model)
	return a.runLoop(ctx, cm, input)
}

// Resume continues a paused conversation. history is the persisted
// transcript, pendingTool and pendingPayload identify the paused tool and
// its stored payload, and userInput carries the answers JSON (for
// ask_user_question) or the feedback text (for collect_user_feedback).
//
// The pending tool is re-executed in its completing phase and its result is
// fed back into the conversation before the loop continues.
func (a *Agent) Resume(ctx context.Context, history []contextmgr.Message, pendingTool, pendingPayload, userInput string) (Result, error) {
	provider := a.newProvider()
	tool, err := provider.Get(pendingTool)
	if err != nil {
		return Result{}, fmt.Errorf("pending tool: %w", err)
	}

	var args map[string]any
	switch pendingTool {
	case tools.ToolAskUserQuestion:
		args = map[string]any{"questions": pendingPayload, "answers": userInput}
	case tools.ToolCollectFeedback:
		args = map[string]any{"prompt": pendingPayload, "feedback": userInput}
	default:
		return Result{}, fmt.Errorf("tool %s cannot be resumed", pendingTool)
	}

	if a.Name != "" {
		ctx = context.WithValue(ctx, tools.AgentIDContextKey, a.Name)
	}
	result, err := tool.Exec(ctx, args)
	if err != nil {
		return Result{}, fmt.Errorf("resuming %s: %w", pendingTool, err)
	}
	if result.ProcessEffect != nil && result.ProcessEffect.Signal == tools.SignalAwaitUser {
		// Still incomplete, e.g. empty feedback. Stay paused.
		return Result{
			Status:         StatusAwaitingUserInput,
			Content:        result.Content,
			PendingTool:    pendingTool,
			PendingPayload: pendingPayload,
			Messages:       history,
		}, nil
	}

	cm := contextmgr.NewContextManager(a.Model)
	for i := range history {
		cm.AddMessage(history[i].Role, history[i].Content)
	}
	cm.AddMessage("user", fmt.Sprintf("Tool result (%s):\n%s", pendingTool, result.Content))

	return a.runLoop(ctx, cm, "")
}

// runLoop executes the tool loop and converts the outcome to a Result.
func (a *Agent) runLoop(ctx context.Context, cm *contextmgr.ContextManager, initialPrompt string) (Result, error) {
	client := a.client
	if client == nil {
		var err error
		client, err = NewLLMClient(a.Model, a.Name, a.recorder, a.logger)
		if err != nil {
			return Result{}, err
		}
	}
	provider := a.newProvider()

	outcome := toolloop.Run(ctx, &toolloop.Config{
		Client:           client,
		Provider:         provider,
		Context:          cm,
		SystemPrompt:     a.Instructions,
		InitialPrompt:    initialPrompt,
		AgentID:          a.Name,
		MaxIterations:    a.MaxIterations,
		MaxTokens:        a.MaxTokens,
		Temperature:      a.Temperature,
		Logger:           a.logger,
		Recorder:         a.recorder,
		DebugLLMMessages: config.GetDebugLLMMessages(),
	})

	result := Result{
		Content:    outcome.Content,
		Messages:   cm.GetMessages(),
		Iterations: outcome.Iterations,
	}
	switch outcome.Kind {
	case toolloop.OutcomeSuccess:
		result.Status = StatusCompleted
	case toolloop.OutcomeMaxIterations:
		a.logger.Warn("run hit the iteration limit, returning last content")
		result.Status = StatusCompleted
	case toolloop.OutcomeAwaitUser:
		result.Status = StatusAwaitingUserInput
		result.PendingTool = outcome.Effect.Data["tool"]
		result.PendingPayload = pendingPayload(outcome.Effect)
	case toolloop.OutcomeLLMError:
		a.recorder.IncRun(a.Name, StatusFailed)
		return Result{}, outcome.Err
	}

	a.recorder.IncRun(a.Name, result.Status)
	return result, nil
}

// newProvider builds the tool provider for this agent's allow-list.
func (a *Agent) newProvider() *tools.Provider {
	cfg := a.cfg
	return tools.NewProvider(tools.AgentContext{Config: &cfg, AgentID: a.Name}, a.Tools)
}

// pendingPayload extracts the payload a paused tool needs on resume.
func pendingPayload(effect *tools.ProcessEffect) string {
	if effect == nil {
		return ""
	}
	if q, ok := effect.Data["questions"]; ok {
		return q
	}
	return effect.Data["prompt"]
}
