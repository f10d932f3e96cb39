package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// ToolCollectFeedback is the constant name for the free-text feedback tool.
const ToolCollectFeedback = "collect_user_feedback"

// CollectFeedbackTool lets an agent request open-ended input from the human
// when no predefined option set fits. The complement of ask_user_question:
// one free-text prompt instead of structured choices, same pause/resume shape.
type CollectFeedbackTool struct{}

// NewCollectFeedbackTool creates a new collect_user_feedback tool instance.
func NewCollectFeedbackTool() *CollectFeedbackTool {
	return &CollectFeedbackTool{}
}

// Name returns the tool identifier.
func (t *CollectFeedbackTool) Name() string {
	return ToolCollectFeedback
}

// Definition returns the tool's declaration for LLM APIs.
func (t *CollectFeedbackTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolCollectFeedback,
		Description: "Collect dynamic user feedback during task execution. Use this when you need open-ended user input or specific details that are not predefined options.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"prompt": {
					Type:        "string",
					Description: "The question or prompt to show to the user. Clearly explain what information you need.",
				},
				"feedback": {
					Type:        "string",
					Description: "The user's response. Leave unset on the first call; the host supplies it when resuming.",
				},
			},
			Required: []string{"prompt"},
		},
	}
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *CollectFeedbackTool) PromptDocumentation() string {
	return `- **collect_user_feedback** - Ask the user an open-ended question
  - Parameters:
    - prompt (string, required): what information you need from the user
    - feedback (string, optional): supplied by the host when the run resumes
  - Use for details that have no sensible predefined options (names, addresses, free text)
  - For a small set of concrete choices, prefer ask_user_question instead`
}

// Exec executes the tool. Without feedback the run pauses; with feedback it
// completes, echoing the user's input back to the agent.
func (t *CollectFeedbackTool) Exec(_ context.Context, args map[string]any) (*ExecResult, error) {
	prompt, ok := args["prompt"].(string)
	if !ok || prompt == "" {
		return nil, fmt.Errorf("prompt parameter is required")
	}

	feedback, _ := args["feedback"].(string)
	if feedback == "" {
		content, err := json.Marshal(map[string]any{
			"status":  "awaiting_input",
			"prompt":  prompt,
			"message": "Pausing execution to collect user feedback",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
		return &ExecResult{
			Content: string(content),
			ProcessEffect: &ProcessEffect{
				Signal: SignalAwaitUser,
				Data: map[string]string{
					"tool":   ToolCollectFeedback,
					"prompt": prompt,
				},
			},
		}, nil
	}

	content, err := json.Marshal(map[string]any{
		"status":   StatusCompleted,
		"feedback": feedback,
		"message":  fmt.Sprintf("User provided feedback: %s", feedback),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &ExecResult{Content: string(content)}, nil
}
