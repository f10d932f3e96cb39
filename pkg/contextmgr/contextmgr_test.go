package contextmgr

import (
	"strings"
	"testing"
)

func TestNewContextManager(t *testing.T) {
	cm := NewContextManager("qwen-plus")

	if cm == nil {
		t.Fatal("Expected NewContextManager to return non-nil instance")
	}
	if cm.MessageCount() != 0 {
		t.Errorf("Expected new context manager to have 0 messages, got %d", cm.MessageCount())
	}
	if cm.CountTokens() != 0 {
		t.Errorf("Expected new context manager to have 0 tokens, got %d", cm.CountTokens())
	}
	if cm.MaxReplyTokens() != 8192 {
		t.Errorf("Expected reply budget from model registry, got %d", cm.MaxReplyTokens())
	}
}

func TestAddMessage(t *testing.T) {
	cm := NewContextManager("qwen-plus")

	cm.AddMessage("user", "Hello world")
	cm.AddMessage("assistant", "Hi there")

	if cm.MessageCount() != 2 {
		t.Errorf("Expected 2 messages, got %d", cm.MessageCount())
	}

	messages := cm.GetMessages()
	if messages[0].Role != "user" || messages[0].Content != "Hello world" {
		t.Errorf("Unexpected first message: %+v", messages[0])
	}
	if messages[1].Role != "assistant" {
		t.Errorf("Unexpected second message role: %q", messages[1].Role)
	}
}

func TestCountTokensGrows(t *testing.T) {
	cm := NewContextManager("qwen-plus")

	before := cm.CountTokens()
	cm.AddMessage("user", "The quick brown fox jumps over the lazy dog")
	after := cm.CountTokens()

	if after <= before {
		t.Errorf("Expected token count to grow, before=%d after=%d", before, after)
	}
}

func TestGetMessagesReturnsCopy(t *testing.T) {
	cm := NewContextManager("qwen-plus")
	cm.AddMessage("user", "original")

	messages := cm.GetMessages()
	messages[0].Content = "mutated"

	if cm.GetMessages()[0].Content != "original" {
		t.Error("GetMessages should return a copy, not a reference")
	}
}

func TestClear(t *testing.T) {
	cm := NewContextManager("qwen-plus")
	cm.AddMessage("user", "one")
	cm.AddMessage("assistant", "two")

	cm.Clear()

	if cm.MessageCount() != 0 {
		t.Errorf("Expected 0 messages after Clear, got %d", cm.MessageCount())
	}
	if cm.CountTokens() != 0 {
		t.Errorf("Expected 0 tokens after Clear, got %d", cm.CountTokens())
	}
}

func TestCompactIfNeeded(t *testing.T) {
	// Unknown model gets the conservative 32000-token window
	cm := NewContextManager("mystery-model")

	cm.AddMessage("system", "You are a helpful assistant.")
	filler := strings.Repeat("lorem ipsum dolor sit amet ", 2000)
	for i := 0; i < 10; i++ {
		cm.AddMessage("user", filler)
	}

	if !cm.ShouldCompact() {
		t.Fatal("Expected compaction to be needed")
	}

	cm.CompactIfNeeded()

	if cm.ShouldCompact() {
		t.Error("Expected context to fit after compaction")
	}
	// The first message survives compaction
	if cm.MessageCount() == 0 || cm.GetMessages()[0].Role != "system" {
		t.Error("Expected first message to be preserved during compaction")
	}
}

func TestSummary(t *testing.T) {
	cm := NewContextManager("qwen-plus")

	if cm.Summary() != "Empty context" {
		t.Errorf("Summary() = %q", cm.Summary())
	}

	cm.AddMessage("user", "hello")
	summary := cm.Summary()
	if !strings.Contains(summary, "1 messages") || !strings.Contains(summary, "user: 1") {
		t.Errorf("Summary() = %q", summary)
	}
}
