package persistence

import "time"

// Run status constants. A run transitions running -> completed/failed, or
// running -> awaiting_user_input -> running when a tool pauses for the user.
const (
	RunStatusRunning           = "running"
	RunStatusCompleted         = "completed"
	RunStatusFailed            = "failed"
	RunStatusAwaitingUserInput = "awaiting_user_input"
)

// Run represents a single agent run and its lifecycle state.
type Run struct {
	ID             string    `json:"run_id"`
	SessionID      string    `json:"session_id"`
	Agent          string    `json:"agent"`
	Status         string    `json:"status"`
	Input          string    `json:"input"`
	Output         string    `json:"output,omitempty"`
	PendingTool    string    `json:"pending_tool,omitempty"`
	PendingPayload string    `json:"pending_payload,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RunMessage is one entry in a run's conversation transcript.
type RunMessage struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
