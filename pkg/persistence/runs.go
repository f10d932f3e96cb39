package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// RunStore provides methods for run storage operations.
type RunStore struct {
	db        *sql.DB
	sessionID string
}

// NewRunStore creates a new RunStore instance.
func NewRunStore(db *sql.DB, sessionID string) *RunStore {
	return &RunStore{db: db, sessionID: sessionID}
}

// CreateRun inserts a new run in the running state and returns its ID.
func (s *RunStore) CreateRun(agent, input string) (*Run, error) {
	now := time.Now().UTC()
	run := &Run{
		ID:        uuid.New().String(),
		SessionID: s.sessionID,
		Agent:     agent,
		Status:    RunStatusRunning,
		Input:     input,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (id, session_id, agent, status, input, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SessionID, run.Agent, run.Status, run.Input, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	return run, nil
}

// GetRun retrieves a run by ID.
func (s *RunStore) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT id, session_id, agent, status, input,
		       COALESCE(output, ''), COALESCE(pending_tool, ''), COALESCE(pending_payload, ''),
		       created_at, updated_at
		FROM runs WHERE id = ?`, runID)

	var run Run
	err := row.Scan(&run.ID, &run.SessionID, &run.Agent, &run.Status, &run.Input,
		&run.Output, &run.PendingTool, &run.PendingPayload,
		&run.CreatedAt, &run.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	return &run, nil
}

// CompleteRun marks a run as completed with its final output.
func (s *RunStore) CompleteRun(runID, output string) error {
	return s.updateRun(runID, RunStatusCompleted, output, "", "")
}

// FailRun marks a run as failed with an error description.
func (s *RunStore) FailRun(runID, errMsg string) error {
	return s.updateRun(runID, RunStatusFailed, errMsg, "", "")
}

// MarkAwaitingUserInput records that a run paused waiting for user input.
// The payload carries whatever the pausing tool needs to resume, such as the
// pending question set.
func (s *RunStore) MarkAwaitingUserInput(runID, tool, payload string) error {
	return s.updateRun(runID, RunStatusAwaitingUserInput, "", tool, payload)
}

// ResumeRun transitions an awaiting run back to running and clears its
// pending state. Fails if the run is not awaiting user input.
func (s *RunStore) ResumeRun(runID string) (*Run, error) {
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if run.Status != RunStatusAwaitingUserInput {
		return nil, fmt.Errorf("run %s is not awaiting user input (status: %s)", runID, run.Status)
	}

	if err := s.updateRun(runID, RunStatusRunning, "", "", ""); err != nil {
		return nil, err
	}
	return run, nil
}

// updateRun applies a status transition with the given fields.
func (s *RunStore) updateRun(runID, status, output, tool, payload string) error {
	result, err := s.db.Exec(`
		UPDATE runs
		SET status = ?, output = ?, pending_tool = ?, pending_payload = ?, updated_at = ?
		WHERE id = ?`,
		status, output, tool, payload, time.Now().UTC(), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrRunNotFound
	}
	return nil
}

// ListRuns returns runs for the current session, newest first.
func (s *RunStore) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT id, session_id, agent, status, input,
		       COALESCE(output, ''), COALESCE(pending_tool, ''), COALESCE(pending_payload, ''),
		       created_at, updated_at
		FROM runs WHERE session_id = ?
		ORDER BY created_at DESC LIMIT ?`, s.sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.SessionID, &run.Agent, &run.Status, &run.Input,
			&run.Output, &run.PendingTool, &run.PendingPayload,
			&run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

// AppendMessage adds an entry to a run's transcript.
func (s *RunStore) AppendMessage(runID, role, content string) error {
	_, err := s.db.Exec(`
		INSERT INTO run_messages (run_id, role, content, created_at)
		VALUES (?, ?, ?, ?)`,
		runID, role, content, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// GetMessages returns a run's transcript in insertion order.
func (s *RunStore) GetMessages(runID string) ([]*RunMessage, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, role, content, created_at
		FROM run_messages WHERE run_id = ?
		ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []*RunMessage
	for rows.Next() {
		var msg RunMessage
		if err := rows.Scan(&msg.ID, &msg.RunID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}
