package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"agentd/pkg/config"
)

// ToolWebSearch is the constant name for the web search tool.
const ToolWebSearch = "web_search"

// SearchResult represents a single search result from any provider.
type SearchResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// SearchProvider defines the interface for web search backends.
type SearchProvider interface {
	// Name returns a human-readable name for the provider.
	Name() string
	// Search performs a web search and returns results.
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// WebSearchTool lets agents search the web for current information and cite
// sources. Tavily is the primary backend; DuckDuckGo's instant answer API is
// the keyless fallback.
type WebSearchTool struct {
	provider   SearchProvider
	maxResults int
}

// NewWebSearchTool creates a web search tool using the best available
// provider for the environment.
func NewWebSearchTool() *WebSearchTool {
	return NewWebSearchToolWithProvider(selectProvider())
}

// NewWebSearchToolWithProvider creates a web search tool with a specific
// provider. Useful for testing or overriding the default selection.
func NewWebSearchToolWithProvider(provider SearchProvider) *WebSearchTool {
	return &WebSearchTool{
		provider:   provider,
		maxResults: 5,
	}
}

// selectProvider chooses the best available search provider.
// Priority: Tavily > DuckDuckGo (fallback).
func selectProvider() SearchProvider {
	status := config.DetectSearchAPIs()
	if status.Available && status.Provider == config.SearchProviderTavily {
		return NewTavilyProvider(status.TavilyAPIKey)
	}
	return NewDuckDuckGoProvider()
}

// Name returns the tool identifier.
func (t *WebSearchTool) Name() string {
	return ToolWebSearch
}

// Definition returns the tool's declaration for LLM APIs.
func (t *WebSearchTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolWebSearch,
		Description: `Search the web for current information. Use this tool when:
- The user asks about recent events or anything after your training cutoff
- You need to verify facts, figures, or current versions before answering
- The user's question needs sources you can cite
Returns search results with titles, descriptions, and URLs for citation.`,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "Search query string (e.g., 'latest WHO guidance on air quality', 'Go 1.24 release notes')",
				},
			},
			Required: []string{"query"},
		},
	}
}

// PromptDocumentation returns formatted tool documentation for prompts.
func (t *WebSearchTool) PromptDocumentation() string {
	return `- **web_search** - Search the web for current information
  - Parameters: query (string, REQUIRED)
  - Use for recent events, fact verification, and anything needing cited sources
  - Returns structured search results with titles, descriptions, and URLs`
}

// Exec executes the web search tool.
func (t *WebSearchTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, fmt.Errorf("query is required and must be a string")
	}

	results, err := t.provider.Search(ctx, query, t.maxResults)
	if err != nil {
		return t.errorResult(fmt.Sprintf("search failed: %v", err))
	}

	response := map[string]any{
		"success":      true,
		"query":        query,
		"provider":     t.provider.Name(),
		"result_count": len(results),
		"results":      results,
	}
	if len(results) == 0 {
		response["note"] = "No results found. Try a different search query or rephrase your question."
	}

	content, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &ExecResult{Content: string(content)}, nil
}

// errorResult creates an error result response.
func (t *WebSearchTool) errorResult(errMsg string) (*ExecResult, error) {
	content, err := json.Marshal(map[string]any{
		"success": false,
		"error":   errMsg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal error response: %w", err)
	}
	return &ExecResult{Content: string(content)}, nil
}

// =============================================================================
// Tavily Provider
// =============================================================================

const tavilyEndpoint = "https://api.tavily.com/search"

// TavilyProvider implements SearchProvider using the Tavily search API.
type TavilyProvider struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
}

// NewTavilyProvider creates a new Tavily search provider.
func NewTavilyProvider(apiKey string) *TavilyProvider {
	return &TavilyProvider{
		apiKey:   apiKey,
		endpoint: tavilyEndpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the provider name.
func (p *TavilyProvider) Name() string {
	return "tavily"
}

// tavilySearchRequest is the request body for the Tavily search API.
type tavilySearchRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

// tavilySearchItem represents a single result in the Tavily response.
type tavilySearchItem struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// tavilySearchResponse represents the Tavily API response.
type tavilySearchResponse struct {
	Answer  string             `json:"answer"`
	Results []tavilySearchItem `json:"results"`
}

// Search performs a web search using the Tavily API.
// API docs: https://docs.tavily.com/docs/rest-api/api-reference
func (p *TavilyProvider) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	payload, err := json.Marshal(tavilySearchRequest{
		Query:         query,
		SearchDepth:   "advanced",
		MaxResults:    maxResults,
		IncludeAnswer: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var tavilyResp tavilySearchResponse
	if unmarshalErr := json.Unmarshal(body, &tavilyResp); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse response: %w", unmarshalErr)
	}

	results := make([]SearchResult, 0, len(tavilyResp.Results))
	for i := range tavilyResp.Results {
		item := &tavilyResp.Results[i]
		results = append(results, SearchResult{
			Title:       item.Title,
			Description: item.Content,
			URL:         item.URL,
		})
	}
	return results, nil
}

// =============================================================================
// DuckDuckGo Provider (Fallback)
// =============================================================================

// DuckDuckGoProvider implements SearchProvider using DuckDuckGo's Instant
// Answer API. Limited to encyclopedic/instant answers; used only when no
// Tavily key is configured.
type DuckDuckGoProvider struct {
	httpClient *http.Client
}

// NewDuckDuckGoProvider creates a new DuckDuckGo provider.
func NewDuckDuckGoProvider() *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the provider name.
func (p *DuckDuckGoProvider) Name() string {
	return "duckduckgo"
}

// duckDuckGoResponse represents the response from the instant answer API.
type duckDuckGoResponse struct {
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	Heading       string `json:"Heading"`
	Answer        string `json:"Answer"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
	Results []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"Results"`
}

// Search performs a search using DuckDuckGo's Instant Answer API.
func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	searchURL := fmt.Sprintf("https://api.duckduckgo.com/?q=%s&format=json&no_html=1&skip_disambig=1",
		url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "agentd/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var ddgResp duckDuckGoResponse
	if unmarshalErr := json.Unmarshal(body, &ddgResp); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse response: %w", unmarshalErr)
	}

	var results []SearchResult
	if ddgResp.AbstractText != "" {
		results = append(results, SearchResult{
			Title:       ddgResp.Heading,
			Description: ddgResp.AbstractText,
			URL:         ddgResp.AbstractURL,
		})
	}
	if ddgResp.Answer != "" {
		results = append(results, SearchResult{
			Title:       "Instant Answer",
			Description: ddgResp.Answer,
		})
	}
	for i := range ddgResp.RelatedTopics {
		topic := &ddgResp.RelatedTopics[i]
		if topic.Text != "" && len(results) < maxResults {
			results = append(results, SearchResult{
				Description: topic.Text,
				URL:         topic.FirstURL,
			})
		}
	}
	for i := range ddgResp.Results {
		ddgResult := &ddgResp.Results[i]
		if ddgResult.Text != "" && len(results) < maxResults {
			results = append(results, SearchResult{
				Description: ddgResult.Text,
				URL:         ddgResult.FirstURL,
			})
		}
	}
	return results, nil
}
