package ollama

import (
	"testing"

	"github.com/ollama/ollama/api"

	"agentd/pkg/tools"
)

func TestStopReason(t *testing.T) {
	cases := []struct {
		resp api.ChatResponse
		want string
	}{
		{api.ChatResponse{Done: false}, "incomplete"},
		{api.ChatResponse{Done: true, DoneReason: "stop"}, "end_turn"},
		{api.ChatResponse{Done: true, DoneReason: ""}, "end_turn"},
		{api.ChatResponse{Done: true, DoneReason: "length"}, "max_tokens"},
		{api.ChatResponse{Done: true, DoneReason: "load"}, "load"},
	}
	for _, tc := range cases {
		if got := stopReason(&tc.resp); got != tc.want {
			t.Errorf("stopReason(%+v) = %q, want %q", tc.resp, got, tc.want)
		}
	}
}

func TestConvertTools(t *testing.T) {
	defs := []tools.ToolDefinition{{
		Name:        "web_search",
		Description: "Search the web",
		InputSchema: tools.InputSchema{
			Type: "object",
			Properties: map[string]tools.Property{
				"query": {Type: "string", Description: "Search query"},
			},
			Required: []string{"query"},
		},
	}}

	converted := convertTools(defs)
	if len(converted) != 1 {
		t.Fatalf("len = %d", len(converted))
	}
	fn := converted[0].Function
	if fn.Name != "web_search" {
		t.Errorf("name = %q", fn.Name)
	}
	prop, ok := fn.Parameters.Properties.Get("query")
	if !ok {
		t.Fatal("query property missing")
	}
	if len(prop.Type) != 1 || prop.Type[0] != "string" {
		t.Errorf("query type = %v", prop.Type)
	}
	if len(fn.Parameters.Required) != 1 || fn.Parameters.Required[0] != "query" {
		t.Errorf("required = %v", fn.Parameters.Required)
	}
}

func TestConvertToolCallsGeneratesIDs(t *testing.T) {
	args := api.NewToolCallFunctionArguments()
	args.Set("query", "go")
	calls := []api.ToolCall{
		{Function: api.ToolCallFunction{Name: "web_search", Arguments: args}},
	}
	out := convertToolCalls(calls)
	if out[0].ID != "call_0" {
		t.Errorf("ID = %q", out[0].ID)
	}
	if out[0].Parameters["query"] != "go" {
		t.Errorf("Parameters = %v", out[0].Parameters)
	}
}
