// Package toolloop implements the agent's completion/tool-execution cycle.
// Each iteration sends the conversation to the model, executes any tool
// calls it makes, and feeds the results back until the model answers in
// plain text, a tool pauses the run, or the iteration budget runs out.
package toolloop

import (
	"context"
	"fmt"

	"agentd/pkg/agent/llm"
	"agentd/pkg/contextmgr"
	"agentd/pkg/logx"
	"agentd/pkg/metrics"
	"agentd/pkg/tools"
)

const (
	// DefaultMaxIterations bounds the number of completion/tool cycles per run.
	DefaultMaxIterations = 10
)

// ToolProvider supplies tool instances and their metadata for a run.
//
//nolint:revive // stuttering name kept for clarity at call sites
type ToolProvider interface {
	Get(name string) (tools.Tool, error)
	List() []tools.ToolMeta
}

// Config carries everything a tool loop run needs.
//
//nolint:govet // fieldalignment: grouped for readability
type Config struct {
	Client   llm.LLMClient
	Provider ToolProvider
	Context  *contextmgr.ContextManager

	// SystemPrompt is prepended to every completion request.
	SystemPrompt string

	// InitialPrompt, when set, is appended to the context as a user
	// message before the first iteration.
	InitialPrompt string

	// AgentID identifies the agent for tools that read it from context.
	AgentID string

	MaxIterations int
	MaxTokens     int
	Temperature   float32

	Logger *logx.Logger

	// Recorder, when set, counts tool invocations.
	Recorder metrics.Recorder

	// DebugLLMMessages logs full request/response content when set.
	DebugLLMMessages bool
}

// Run executes the tool loop until a terminal outcome.
func Run(ctx context.Context, cfg *Config) Outcome {
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = llm.DefaultMaxTokens
	}
	if cfg.AgentID != "" {
		ctx = context.WithValue(ctx, tools.AgentIDContextKey, cfg.AgentID)
	}

	if cfg.InitialPrompt != "" {
		cfg.Context.AddMessage(string(llm.RoleUser), cfg.InitialPrompt)
	}

	defs := toolDefinitions(cfg.Provider)

	var lastContent string
	for iteration := 1; iteration <= maxIterations; iteration++ {
		cfg.Context.CompactIfNeeded()

		req := llm.CompletionRequest{
			Messages:    buildMessages(cfg.SystemPrompt, cfg.Context),
			Tools:       defs,
			MaxTokens:   maxTokens,
			Temperature: cfg.Temperature,
		}
		if cfg.DebugLLMMessages && cfg.Logger != nil {
			cfg.Logger.Debug("iteration %d: sending %d messages, %d tools", iteration, len(req.Messages), len(req.Tools))
		}

		resp, err := cfg.Client.Complete(ctx, req)
		if err != nil {
			return Outcome{Kind: OutcomeLLMError, Err: err, Iterations: iteration}
		}

		if resp.Content != "" {
			cfg.Context.AddMessage(string(llm.RoleAssistant), resp.Content)
			lastContent = resp.Content
		}

		if len(resp.ToolCalls) == 0 {
			return Outcome{Kind: OutcomeSuccess, Content: resp.Content, Iterations: iteration}
		}

		for i := range resp.ToolCalls {
			call := &resp.ToolCalls[i]
			result, effect := executeTool(ctx, cfg, call)
			if effect != nil && effect.Signal == tools.SignalAwaitUser {
				return Outcome{
					Kind:       OutcomeAwaitUser,
					Content:    result,
					Effect:     effect,
					Iterations: iteration,
				}
			}
			cfg.Context.AddMessage(string(llm.RoleUser), fmt.Sprintf("Tool result (%s):\n%s", call.Name, result))
		}
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("iteration limit reached after %d iterations", maxIterations)
	}
	return Outcome{Kind: OutcomeMaxIterations, Content: lastContent, Iterations: maxIterations}
}

// executeTool runs a single tool call. Errors are reported back to the model
// as result text rather than aborting the loop.
func executeTool(ctx context.Context, cfg *Config, call *llm.ToolCall) (string, *tools.ProcessEffect) {
	tool, err := cfg.Provider.Get(call.Name)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("tool lookup failed: %v", err)
		}
		recordTool(cfg, call.Name, "error")
		return fmt.Sprintf("error: %v", err), nil
	}

	result, err := tool.Exec(ctx, call.Parameters)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("tool %s failed: %v", call.Name, err)
		}
		recordTool(cfg, call.Name, "error")
		return fmt.Sprintf("error: %v", err), nil
	}
	recordTool(cfg, call.Name, "success")
	if cfg.DebugLLMMessages && cfg.Logger != nil {
		cfg.Logger.Debug("tool %s returned %d bytes", call.Name, len(result.Content))
	}
	return result.Content, result.ProcessEffect
}

func recordTool(cfg *Config, name, status string) {
	if cfg.Recorder != nil {
		cfg.Recorder.IncToolInvocation(name, status)
	}
}

// buildMessages assembles the completion request messages from the system
// prompt and the conversation context.
func buildMessages(systemPrompt string, cm *contextmgr.ContextManager) []llm.CompletionMessage {
	stored := cm.GetMessages()
	messages := make([]llm.CompletionMessage, 0, len(stored)+1)
	if systemPrompt != "" {
		messages = append(messages, llm.NewSystemMessage(systemPrompt))
	}
	for i := range stored {
		messages = append(messages, llm.CompletionMessage{
			Role:    llm.CompletionRole(stored[i].Role),
			Content: stored[i].Content,
		})
	}
	return messages
}

// toolDefinitions converts provider metadata to tool definitions.
func toolDefinitions(provider ToolProvider) []tools.ToolDefinition {
	metas := provider.List()
	defs := make([]tools.ToolDefinition, len(metas))
	for i := range metas {
		defs[i] = tools.ToolDefinition{
			Name:        metas[i].Name,
			Description: metas[i].Description,
			InputSchema: metas[i].InputSchema,
		}
	}
	return defs
}
