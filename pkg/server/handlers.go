package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agentd/pkg/agent"
	"agentd/pkg/contextmgr"
	"agentd/pkg/logx"
	"agentd/pkg/persistence"
	"agentd/pkg/tools"
)

// runRequest is the body for starting a new agent run.
type runRequest struct {
	Input string `json:"input"`
}

// answersRequest is the body for resuming a paused run. Answers carries the
// user's responses for ask_user_question; Feedback carries free-form text
// for collect_user_feedback. Which one applies follows from the run's
// pending tool.
type answersRequest struct {
	Answers  json.RawMessage `json:"answers,omitempty"`
	Feedback string          `json:"feedback,omitempty"`
}

// runResponse describes a run's state after a create or resume call.
type runResponse struct {
	RunID       string          `json:"run_id"`
	Agent       string          `json:"agent"`
	Status      string          `json:"status"`
	Content     string          `json:"content,omitempty"`
	PendingTool string          `json:"pending_tool,omitempty"`
	Questions   json.RawMessage `json:"questions,omitempty"`
	Prompt      string          `json:"prompt,omitempty"`
	Iterations  int             `json:"iterations,omitempty"`
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// handleAgentRuns handles POST /v1/agents/{name}/runs.
func (s *Server) handleAgentRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// Expected: v1/agents/{name}/runs
	if len(parts) != 4 || parts[3] != "runs" {
		http.NotFound(w, r)
		return
	}
	name := parts[2]

	runner, ok := s.agents[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown agent: "+name)
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(w, http.StatusBadRequest, "input must not be empty")
		return
	}

	run, err := s.runs.CreateRun(name, req.Input)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create run: "+err.Error())
		return
	}

	result, err := runner.Run(r.Context(), req.Input)
	if err != nil {
		s.failRun(w, run.ID, name, err)
		return
	}

	s.persistMessages(run.ID, result.Messages, 0)
	s.finishRun(w, run.ID, name, result)
}

// handleListRuns handles GET /v1/runs.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit: "+v)
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs: "+err.Error())
		return
	}
	if runs == nil {
		runs = []*persistence.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleRun routes GET /v1/runs/{id} and POST /v1/runs/{id}/answers.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 3 && r.Method == http.MethodGet:
		s.handleGetRun(w, r, parts[2])
	case len(parts) == 4 && parts[3] == "answers" && r.Method == http.MethodPost:
		s.handleAnswers(w, r, parts[2])
	case len(parts) == 4 && parts[3] == "answers":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request, runID string) {
	run, err := s.runs.GetRun(runID)
	if errors.Is(err, persistence.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found: "+runID)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load run: "+err.Error())
		return
	}

	messages, err := s.runs.GetMessages(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load messages: "+err.Error())
		return
	}
	if messages == nil {
		messages = []*persistence.RunMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"run": run, "messages": messages})
}

// handleAnswers resumes a run that paused for user input.
func (s *Server) handleAnswers(w http.ResponseWriter, r *http.Request, runID string) {
	var req answersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	run, err := s.runs.ResumeRun(runID)
	if errors.Is(err, persistence.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found: "+runID)
		return
	}
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	runner, ok := s.agents[run.Agent]
	if !ok {
		writeError(w, http.StatusInternalServerError, "no runner for agent: "+run.Agent)
		return
	}

	userInput := req.Feedback
	if run.PendingTool == tools.ToolAskUserQuestion {
		if len(req.Answers) == 0 {
			writeError(w, http.StatusBadRequest, "answers must not be empty")
			return
		}
		userInput = string(req.Answers)
	}

	stored, err := s.runs.GetMessages(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load messages: "+err.Error())
		return
	}
	history := make([]contextmgr.Message, 0, len(stored))
	for _, m := range stored {
		history = append(history, contextmgr.Message{Role: m.Role, Content: m.Content})
	}

	result, err := runner.Resume(r.Context(), history, run.PendingTool, run.PendingPayload, userInput)
	if err != nil {
		s.failRun(w, runID, run.Agent, err)
		return
	}

	s.persistMessages(runID, result.Messages, len(stored))
	s.finishRun(w, runID, run.Agent, result)
}

// persistMessages appends transcript entries past the already-stored prefix.
func (s *Server) persistMessages(runID string, messages []contextmgr.Message, stored int) {
	for i := stored; i < len(messages); i++ {
		if err := s.runs.AppendMessage(runID, messages[i].Role, messages[i].Content); err != nil {
			s.logger.Warn("Failed to persist message for run %s: %v", runID, err)
		}
	}
}

// finishRun applies the run's status transition and writes the response.
func (s *Server) finishRun(w http.ResponseWriter, runID, agentName string, result agent.Result) {
	resp := runResponse{
		RunID:      runID,
		Agent:      agentName,
		Status:     result.Status,
		Iterations: result.Iterations,
	}

	switch result.Status {
	case agent.StatusAwaitingUserInput:
		if err := s.runs.MarkAwaitingUserInput(runID, result.PendingTool, result.PendingPayload); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to update run: "+err.Error())
			return
		}
		resp.PendingTool = result.PendingTool
		if result.PendingTool == tools.ToolCollectFeedback {
			resp.Prompt = result.PendingPayload
		} else if json.Valid([]byte(result.PendingPayload)) {
			resp.Questions = json.RawMessage(result.PendingPayload)
		}
	default:
		if err := s.runs.CompleteRun(runID, result.Content); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to update run: "+err.Error())
			return
		}
		resp.Content = result.Content
	}

	writeJSON(w, http.StatusOK, resp)
}

// failRun records the failure and reports it to the caller.
func (s *Server) failRun(w http.ResponseWriter, runID, agentName string, runErr error) {
	if err := s.runs.FailRun(runID, runErr.Error()); err != nil {
		s.logger.Warn("Failed to mark run %s failed: %v", runID, err)
	}
	s.logger.Error("Run %s (%s) failed: %v", runID, agentName, runErr)
	writeJSON(w, http.StatusInternalServerError, runResponse{
		RunID:   runID,
		Agent:   agentName,
		Status:  agent.StatusFailed,
		Content: runErr.Error(),
	})
}

// handleUsage handles GET /v1/usage?agent=<name>. With by_model=true the
// response is broken down per model.
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.usage == nil {
		writeError(w, http.StatusServiceUnavailable, "usage reporting is not configured (set metrics.prometheus_url)")
		return
	}

	agentName := r.URL.Query().Get("agent")
	if agentName == "" {
		writeError(w, http.StatusBadRequest, "agent query parameter is required")
		return
	}

	if r.URL.Query().Get("by_model") == "true" {
		byModel, err := s.usage.GetAgentUsageByModel(r.Context(), agentName)
		if err != nil {
			writeError(w, http.StatusBadGateway, "failed to query usage: "+err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"agent": agentName, "models": byModel})
		return
	}

	usage, err := s.usage.GetAgentUsage(r.Context(), agentName)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to query usage: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLogs handles GET /api/logs with optional component and since filters.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	component := r.URL.Query().Get("component")
	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since timestamp: "+v)
			return
		}
		since = t
	}

	entries := logx.RecentEntries(component, since)
	if entries == nil {
		entries = []logx.LogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
