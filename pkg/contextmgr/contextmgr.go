// Package contextmgr manages conversation context and token counting for
// agent runs.
package contextmgr

import (
	"fmt"
	"strings"

	"github.com/tiktoken-go/tokenizer"

	"agentd/pkg/config"
)

// compactionBuffer is the safety margin reserved on top of the reply budget
// when deciding whether to compact.
const compactionBuffer = 1024

// Message represents a single message in the conversation context.
type Message struct {
	Role    string
	Content string
}

// ContextManager manages conversation context and token counting.
type ContextManager struct {
	messages         []Message
	codec            tokenizer.Codec
	maxContextTokens int
	maxReplyTokens   int
}

// NewContextManager creates a context manager sized for the given model.
// Unknown models get conservative limits from the model registry.
func NewContextManager(model string) *ContextManager {
	info, _ := config.GetModelInfo(model)

	// All supported providers are approximated with the GPT-4 encoding.
	// A nil codec falls back to character-based estimation.
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		codec = nil
	}

	return &ContextManager{
		messages:         make([]Message, 0),
		codec:            codec,
		maxContextTokens: info.MaxContextTokens,
		maxReplyTokens:   info.MaxOutputTokens,
	}
}

// AddMessage stores a role/content pair in the context.
func (cm *ContextManager) AddMessage(role, content string) {
	cm.messages = append(cm.messages, Message{Role: role, Content: content})
}

// CountTokens returns the token count across all messages.
func (cm *ContextManager) CountTokens() int {
	total := 0
	for i := range cm.messages {
		total += cm.countText(cm.messages[i].Role) + cm.countText(cm.messages[i].Content)
	}
	return total
}

// countText counts tokens in a single string, falling back to character-based
// estimation (4 chars per token) when no codec is available.
func (cm *ContextManager) countText(text string) int {
	if cm.codec == nil {
		return len(text) / 4
	}
	count, err := cm.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}

// ShouldCompact checks if compaction is needed without performing it.
func (cm *ContextManager) ShouldCompact() bool {
	return cm.CountTokens()+cm.maxReplyTokens+compactionBuffer > cm.maxContextTokens
}

// CompactIfNeeded drops oldest messages until the context plus a full reply
// fits in the model's window. The first message is preserved when possible
// since it usually carries the run's grounding.
func (cm *ContextManager) CompactIfNeeded() {
	if !cm.ShouldCompact() {
		return
	}

	target := cm.maxContextTokens - cm.maxReplyTokens - compactionBuffer
	for cm.CountTokens() > target && len(cm.messages) > 1 {
		if len(cm.messages) > 2 {
			cm.messages = append(cm.messages[:1], cm.messages[2:]...)
		} else {
			cm.messages = cm.messages[1:]
		}
	}
}

// GetMessages returns a copy of all messages in the context.
func (cm *ContextManager) GetMessages() []Message {
	result := make([]Message, len(cm.messages))
	copy(result, cm.messages)
	return result
}

// Clear removes all messages from the context.
func (cm *ContextManager) Clear() {
	cm.messages = cm.messages[:0]
}

// MessageCount returns the number of messages in the context.
func (cm *ContextManager) MessageCount() int {
	return len(cm.messages)
}

// MaxReplyTokens returns the reply budget for this model.
func (cm *ContextManager) MaxReplyTokens() int {
	return cm.maxReplyTokens
}

// Summary returns a brief description of the context state.
func (cm *ContextManager) Summary() string {
	if len(cm.messages) == 0 {
		return "Empty context"
	}

	roleCounts := make(map[string]int)
	for i := range cm.messages {
		roleCounts[cm.messages[i].Role]++
	}

	var breakdown []string
	for role, count := range roleCounts {
		breakdown = append(breakdown, fmt.Sprintf("%s: %d", role, count))
	}

	return fmt.Sprintf("%d messages (%d tokens) - %s",
		len(cm.messages), cm.CountTokens(), strings.Join(breakdown, ", "))
}
