package logx

import (
	"testing"
	"time"
)

func TestLoggerBuffersEntries(t *testing.T) {
	logger := NewLogger("test-component")
	start := time.Now().Add(-time.Second)

	logger.Info("hello %s", "world")
	logger.Warn("watch out")

	entries := RecentEntries("test-component", start)
	if len(entries) < 2 {
		t.Fatalf("expected at least 2 entries, got %d", len(entries))
	}

	last := entries[len(entries)-1]
	if last.Level != string(LevelWarn) {
		t.Errorf("Level = %q, want %q", last.Level, LevelWarn)
	}
	if last.Message != "watch out" {
		t.Errorf("Message = %q, want %q", last.Message, "watch out")
	}
}

func TestSetBufferSizeCapsRetention(t *testing.T) {
	SetBufferSize(2)
	t.Cleanup(func() { SetBufferSize(1000) })

	logger := NewLogger("ring-test")
	start := time.Now().Add(-time.Second)
	logger.Info("first")
	logger.Info("second")
	logger.Info("third")

	entries := RecentEntries("ring-test", start)
	if len(entries) != 2 {
		t.Fatalf("retained %d entries, want 2", len(entries))
	}
	if entries[0].Message != "second" || entries[1].Message != "third" {
		t.Errorf("retained messages = %q, %q; want second, third", entries[0].Message, entries[1].Message)
	}

	// Values below 1 leave the cap untouched.
	SetBufferSize(0)
	logger.Info("fourth")
	if got := len(RecentEntries("ring-test", start)); got != 2 {
		t.Errorf("retained %d entries after no-op resize, want 2", got)
	}
}

func TestRecentEntriesFiltersByComponent(t *testing.T) {
	start := time.Now().Add(-time.Second)
	NewLogger("alpha").Info("from alpha")
	NewLogger("beta").Info("from beta")

	for _, e := range RecentEntries("alpha", start) {
		if e.Component != "alpha" {
			t.Errorf("unexpected component %q in filtered results", e.Component)
		}
	}
}

func TestDebugDisabledByDefault(t *testing.T) {
	SetDebug(false)
	defer SetDebug(false)

	logger := NewLogger("debug-test")
	start := time.Now().Add(-time.Second)
	logger.Debug("should not appear")

	for _, e := range RecentEntries("debug-test", start) {
		if e.Level == string(LevelDebug) {
			t.Error("debug entry recorded while debug disabled")
		}
	}

	SetDebug(true)
	logger.Debug("should appear")
	found := false
	for _, e := range RecentEntries("debug-test", start) {
		if e.Level == string(LevelDebug) {
			found = true
		}
	}
	if !found {
		t.Error("debug entry missing while debug enabled")
	}
}
