// Package tools provides the tool implementations and registry exposed to agents.
package tools

import "context"

// Signal values carried by a ProcessEffect. The agent loop inspects these to
// decide whether to keep iterating or hand control back to the host.
const (
	// SignalAwaitUser pauses the run until the human supplies input.
	SignalAwaitUser = "AWAIT_USER"
)

// contextKey is a private type for context values set during tool execution.
type contextKey string

// AgentIDContextKey carries the executing agent's identifier into tool Exec calls.
const AgentIDContextKey contextKey = "agent_id"

// Property describes a single parameter in a tool's input schema.
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Enum        []string             `json:"enum,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
}

// InputSchema is the JSON-schema object describing a tool's parameters.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// ToolDefinition is the provider-neutral tool declaration sent to LLM APIs.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// ProcessEffect is an out-of-band signal attached to a tool result.
// It does not travel to the LLM; the agent loop consumes it.
type ProcessEffect struct {
	Signal string            `json:"signal"`
	Data   map[string]string `json:"data,omitempty"`
}

// ExecResult is the outcome of a tool execution. Content is returned to the
// LLM verbatim; ProcessEffect, when set, requests a loop-level action.
type ExecResult struct {
	Content       string
	ProcessEffect *ProcessEffect
}

// Tool is the interface all agent tools implement.
type Tool interface {
	// Name returns the tool identifier.
	Name() string
	// Definition returns the tool's declaration for LLM APIs.
	Definition() ToolDefinition
	// PromptDocumentation returns markdown documentation for LLM prompts.
	PromptDocumentation() string
	// Exec executes the tool with the given arguments.
	Exec(ctx context.Context, args map[string]any) (*ExecResult, error)
}

// ToolMeta contains metadata about a registered tool for discovery.
type ToolMeta struct {
	Name        string
	Description string
	InputSchema InputSchema
}
