package store

import (
	"context"

	"github.com/effective-security/mcpagent/pkg/llms"
)

// ChatHistory keeps chat messages between agent runs,
// keyed by the chat ID from the context.
type ChatHistory interface {
	Messages(ctx context.Context) []llms.Message
	Add(ctx context.Context, msgs ...llms.Message) error
	Reset(ctx context.Context) error
}
