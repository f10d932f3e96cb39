package openai

import (
	"testing"

	"agentd/pkg/agent/llmerrors"
	"agentd/pkg/tools"
)

func TestReasoningModel(t *testing.T) {
	cases := []struct {
		model string
		want  bool
	}{
		{"o1", true},
		{"o3-mini", true},
		{"o4-mini", true},
		{"gpt-4o", false},
		{"gpt-4o-mini", false},
		{"qwen-max", false},
	}
	for _, tc := range cases {
		if got := reasoningModel(tc.model); got != tc.want {
			t.Errorf("reasoningModel(%q) = %v, want %v", tc.model, got, tc.want)
		}
	}
}

func TestConvertTools(t *testing.T) {
	defs := []tools.ToolDefinition{
		{
			Name:        "ask_user_question",
			Description: "Ask the user structured questions",
			InputSchema: tools.InputSchema{
				Type: "object",
				Properties: map[string]tools.Property{
					"questions": {Type: "string", Description: "JSON array of questions"},
					"answers":   {Type: "string"},
				},
				Required: []string{"questions"},
			},
		},
	}

	out := convertTools(defs)
	if len(out) != 1 {
		t.Fatalf("converted %d tools, want 1", len(out))
	}

	fn := out[0].Function
	if fn.Name != "ask_user_question" {
		t.Errorf("Name = %q", fn.Name)
	}
	props, ok := fn.Parameters["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties missing: %#v", fn.Parameters)
	}
	q, ok := props["questions"].(map[string]any)
	if !ok {
		t.Fatalf("questions property missing: %#v", props)
	}
	if q["type"] != "string" {
		t.Errorf("questions type = %v", q["type"])
	}
	required, ok := fn.Parameters["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "questions" {
		t.Errorf("required = %#v", fn.Parameters["required"])
	}
}

func TestPropertyToSchemaNested(t *testing.T) {
	prop := tools.Property{
		Type: "array",
		Items: &tools.Property{
			Type: "object",
			Properties: map[string]*tools.Property{
				"label": {Type: "string", Enum: []string{"a", "b"}},
			},
		},
	}

	schema := propertyToSchema(&prop)
	items, ok := schema["items"].(map[string]any)
	if !ok {
		t.Fatalf("items missing: %#v", schema)
	}
	nested, ok := items["properties"].(map[string]any)
	if !ok {
		t.Fatalf("nested properties missing: %#v", items)
	}
	label, ok := nested["label"].(map[string]any)
	if !ok {
		t.Fatalf("label missing: %#v", nested)
	}
	if got, ok := label["enum"].([]string); !ok || len(got) != 2 {
		t.Errorf("enum = %#v", label["enum"])
	}
}

func TestClassifyErrorStrings(t *testing.T) {
	cases := []struct {
		msg  string
		want llmerrors.ErrorType
	}{
		{"connection refused", llmerrors.ErrorTypeTransient},
		{"quota exhausted for project", llmerrors.ErrorTypeRateLimit},
		{"invalid api key provided", llmerrors.ErrorTypeAuth},
		{"something odd happened", llmerrors.ErrorTypeUnknown},
	}
	for _, tc := range cases {
		err := classifyError(errString(tc.msg))
		if !llmerrors.Is(err, tc.want) {
			t.Errorf("classifyError(%q) = %v, want type %v", tc.msg, err, tc.want)
		}
	}
}

type errString string

func (e errString) Error() string { return string(e) }
