package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWebSearchTool_Definition(t *testing.T) {
	tool := NewWebSearchTool()

	if tool.Name() != ToolWebSearch {
		t.Errorf("Name() = %q, want %q", tool.Name(), ToolWebSearch)
	}
	def := tool.Definition()
	if len(def.InputSchema.Required) != 1 || def.InputSchema.Required[0] != "query" {
		t.Errorf("Expected 'query' to be required, got: %v", def.InputSchema.Required)
	}
	if _, ok := def.InputSchema.Properties["query"]; !ok {
		t.Error("Expected 'query' property in input schema")
	}
	if !strings.Contains(tool.PromptDocumentation(), "web_search") {
		t.Error("PromptDocumentation should mention 'web_search'")
	}
}

func TestWebSearchTool_Exec_MissingQuery(t *testing.T) {
	tool := NewWebSearchTool()

	if _, err := tool.Exec(context.Background(), map[string]any{}); err == nil {
		t.Error("Expected error for missing query parameter")
	}
	if _, err := tool.Exec(context.Background(), map[string]any{"query": ""}); err == nil {
		t.Error("Expected error for empty query parameter")
	}
	if _, err := tool.Exec(context.Background(), map[string]any{"query": 123}); err == nil {
		t.Error("Expected error for non-string query parameter")
	}
}

func TestTavilyProvider_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}

		var req tavilySearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Query != "golang generics" {
			t.Errorf("query = %q", req.Query)
		}
		if req.SearchDepth != "advanced" {
			t.Errorf("search_depth = %q, want advanced", req.SearchDepth)
		}

		_ = json.NewEncoder(w).Encode(tavilySearchResponse{
			Results: []tavilySearchItem{
				{Title: "Go generics", URL: "https://go.dev/doc", Content: "Type parameters"},
			},
		})
	}))
	defer server.Close()

	provider := NewTavilyProvider("test-key")
	provider.endpoint = server.URL

	results, err := provider.Search(context.Background(), "golang generics", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Title != "Go generics" || results[0].URL != "https://go.dev/doc" {
		t.Errorf("unexpected result: %+v", results[0])
	}
	if results[0].Description != "Type parameters" {
		t.Errorf("Description = %q", results[0].Description)
	}
}

func TestTavilyProvider_SearchAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid api key"}`))
	}))
	defer server.Close()

	provider := NewTavilyProvider("bad-key")
	provider.endpoint = server.URL

	_, err := provider.Search(context.Background(), "anything", 5)
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error %v should carry the status code", err)
	}
}

// stubProvider returns canned results for tool-level tests.
type stubProvider struct {
	results []SearchResult
	err     error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Search(context.Context, string, int) ([]SearchResult, error) {
	return s.results, s.err
}

func TestWebSearchTool_ExecFormatsResults(t *testing.T) {
	tool := NewWebSearchToolWithProvider(&stubProvider{
		results: []SearchResult{{Title: "A", Description: "a", URL: "https://a.example"}},
	})

	result, err := tool.Exec(context.Background(), map[string]any{"query": "a"})
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content), &payload); err != nil {
		t.Fatalf("content is not valid JSON: %v", err)
	}
	if payload["success"] != true {
		t.Errorf("success = %v", payload["success"])
	}
	if payload["result_count"] != float64(1) {
		t.Errorf("result_count = %v", payload["result_count"])
	}
	if payload["provider"] != "stub" {
		t.Errorf("provider = %v", payload["provider"])
	}
}

func TestWebSearchTool_ExecNoResultsAddsNote(t *testing.T) {
	tool := NewWebSearchToolWithProvider(&stubProvider{})

	result, err := tool.Exec(context.Background(), map[string]any{"query": "obscure"})
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	var payload map[string]any
	_ = json.Unmarshal([]byte(result.Content), &payload)
	if payload["note"] == nil {
		t.Error("expected note for empty result set")
	}
}
