package persistence

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *RunStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_foreign_keys=ON")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := initializeSchema(db); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}
	db.SetMaxOpenConns(1)

	return NewRunStore(db, "test-session")
}

func TestCreateAndGetRun(t *testing.T) {
	store := newTestStore(t)

	run, err := store.CreateRun("search", "What is Go?")
	if err != nil {
		t.Fatalf("CreateRun() error: %v", err)
	}
	if run.ID == "" {
		t.Fatal("Expected run ID to be generated")
	}
	if run.Status != RunStatusRunning {
		t.Errorf("Status = %q, want running", run.Status)
	}

	loaded, err := store.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun() error: %v", err)
	}
	if loaded.Agent != "search" || loaded.Input != "What is Go?" {
		t.Errorf("Unexpected run: %+v", loaded)
	}
	if loaded.SessionID != "test-session" {
		t.Errorf("SessionID = %q", loaded.SessionID)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetRun("nonexistent-id")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
}

func TestCompleteRun(t *testing.T) {
	store := newTestStore(t)
	run, _ := store.CreateRun("chat", "hello")

	if err := store.CompleteRun(run.ID, "Hi there!"); err != nil {
		t.Fatalf("CompleteRun() error: %v", err)
	}

	loaded, _ := store.GetRun(run.ID)
	if loaded.Status != RunStatusCompleted {
		t.Errorf("Status = %q, want completed", loaded.Status)
	}
	if loaded.Output != "Hi there!" {
		t.Errorf("Output = %q", loaded.Output)
	}
}

func TestFailRun(t *testing.T) {
	store := newTestStore(t)
	run, _ := store.CreateRun("chat", "hello")

	if err := store.FailRun(run.ID, "model unavailable"); err != nil {
		t.Fatalf("FailRun() error: %v", err)
	}

	loaded, _ := store.GetRun(run.ID)
	if loaded.Status != RunStatusFailed {
		t.Errorf("Status = %q, want failed", loaded.Status)
	}
}

func TestAwaitAndResumeRun(t *testing.T) {
	store := newTestStore(t)
	run, _ := store.CreateRun("search", "research Go frameworks")

	payload := `{"questions":[{"question":"Which framework?"}]}`
	if err := store.MarkAwaitingUserInput(run.ID, "ask_user_question", payload); err != nil {
		t.Fatalf("MarkAwaitingUserInput() error: %v", err)
	}

	loaded, _ := store.GetRun(run.ID)
	if loaded.Status != RunStatusAwaitingUserInput {
		t.Errorf("Status = %q, want awaiting_user_input", loaded.Status)
	}
	if loaded.PendingTool != "ask_user_question" {
		t.Errorf("PendingTool = %q", loaded.PendingTool)
	}
	if loaded.PendingPayload != payload {
		t.Errorf("PendingPayload = %q", loaded.PendingPayload)
	}

	resumed, err := store.ResumeRun(run.ID)
	if err != nil {
		t.Fatalf("ResumeRun() error: %v", err)
	}
	// ResumeRun returns the pre-transition state so the caller can inspect
	// the pending payload
	if resumed.PendingPayload != payload {
		t.Errorf("Resumed payload = %q", resumed.PendingPayload)
	}

	loaded, _ = store.GetRun(run.ID)
	if loaded.Status != RunStatusRunning {
		t.Errorf("Status after resume = %q, want running", loaded.Status)
	}
	if loaded.PendingTool != "" {
		t.Errorf("Expected pending tool cleared, got %q", loaded.PendingTool)
	}
}

func TestResumeRun_NotAwaiting(t *testing.T) {
	store := newTestStore(t)
	run, _ := store.CreateRun("chat", "hello")

	if _, err := store.ResumeRun(run.ID); err == nil {
		t.Error("Expected error when resuming a run that is not awaiting input")
	}
}

func TestListRuns(t *testing.T) {
	store := newTestStore(t)
	for _, input := range []string{"one", "two", "three"} {
		if _, err := store.CreateRun("chat", input); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns() error: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("Expected 3 runs, got %d", len(runs))
	}
}

func TestRunTranscript(t *testing.T) {
	store := newTestStore(t)
	run, _ := store.CreateRun("chat", "hello")

	if err := store.AppendMessage(run.ID, "user", "hello"); err != nil {
		t.Fatal(err)
	}
	if err := store.AppendMessage(run.ID, "assistant", "Hi!"); err != nil {
		t.Fatal(err)
	}

	messages, err := store.GetMessages(run.ID)
	if err != nil {
		t.Fatalf("GetMessages() error: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != "user" || messages[1].Role != "assistant" {
		t.Errorf("Unexpected transcript order: %+v", messages)
	}
}
