package chatmodel

import (
	"strings"
	"sync"

	"github.com/effective-security/mcpagent/pkg/llms"
	"github.com/effective-security/mcpagent/pkg/llmutils"
)

// ContentProvider provides the content of a message for the chat history.
type ContentProvider interface {
	GetContent() string
}

// Conversation is an append-only, ordered history of chat messages.
// It is safe for concurrent use.
type Conversation struct {
	mu       sync.RWMutex
	messages []llms.Message
}

// NewConversation returns an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// NewConversationWithSystem returns a conversation seeded with a system prompt.
func NewConversationWithSystem(systemPrompt string) *Conversation {
	c := &Conversation{}
	if systemPrompt != "" {
		c.messages = append(c.messages, llms.MessageFromTextParts(llms.RoleSystem, systemPrompt))
	}
	return c
}

// Append adds messages to the end of the conversation.
func (c *Conversation) Append(msgs ...llms.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msgs...)
}

// AppendHuman adds a human message with the given text.
func (c *Conversation) AppendHuman(text string) {
	c.Append(llms.MessageFromTextParts(llms.RoleHuman, text))
}

// Messages returns a snapshot copy of the conversation history.
func (c *Conversation) Messages() []llms.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]llms.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Last returns the most recent message, if any.
func (c *Conversation) Last() (llms.Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.messages) == 0 {
		return llms.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Len returns the number of messages in the conversation.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Transcript renders the conversation as a numbered, human-readable text.
func (c *Conversation) Transcript() string {
	var sb strings.Builder
	llmutils.PrintConversation(&sb, c.Messages())
	return sb.String()
}
