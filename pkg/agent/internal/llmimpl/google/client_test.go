package google

import (
	"testing"

	"agentd/pkg/agent/llm"
	"agentd/pkg/tools"
)

func TestConvertMessages(t *testing.T) {
	contents, system, err := convertMessages([]llm.CompletionMessage{
		llm.NewSystemMessage("instructions"),
		llm.NewUserMessage("hello"),
		llm.NewAssistantMessage("hi there"),
	})
	if err != nil {
		t.Fatalf("convertMessages: %v", err)
	}
	if system != "instructions" {
		t.Errorf("system = %q", system)
	}
	if len(contents) != 2 {
		t.Fatalf("len(contents) = %d, want 2", len(contents))
	}
	if contents[0].Role != "user" || contents[1].Role != "model" {
		t.Errorf("roles = %q, %q", contents[0].Role, contents[1].Role)
	}
}

func TestConvertMessagesEmpty(t *testing.T) {
	if _, _, err := convertMessages(nil); err == nil {
		t.Error("empty message list should fail")
	}
}

func TestConvertToolsSchema(t *testing.T) {
	defs := []tools.ToolDefinition{{
		Name:        "ask_user_question",
		Description: "Ask the user questions",
		InputSchema: tools.InputSchema{
			Type: "object",
			Properties: map[string]tools.Property{
				"questions": {
					Type:        "array",
					Description: "Questions to ask",
					Items:       &tools.Property{Type: "object"},
				},
			},
			Required: []string{"questions"},
		},
	}}

	decls := convertTools(defs)
	if len(decls) != 1 {
		t.Fatalf("len(decls) = %d", len(decls))
	}
	params := decls[0].Parameters
	if params.Properties["questions"].Type != "ARRAY" {
		t.Errorf("questions type = %q", params.Properties["questions"].Type)
	}
	if len(params.Required) != 1 || params.Required[0] != "questions" {
		t.Errorf("required = %v", params.Required)
	}
}
