package bedrockclient

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpagent/pkg/llms"
)

// Message type attributes.
const (
	MessageTypeText       = "text"
	MessageTypeToolUse    = "tool_use"
	MessageTypeToolResult = "tool_result"
)

// Client is a Bedrock client.
type Client struct {
	client *bedrockruntime.Client
}

// Message is a chunk of content that will be sent to the provider.
//
// The provider transforms the message to its own format before sending it to
// the model API.
type Message struct {
	Role    llms.Role
	Content string
	// Type is one of MessageTypeText, MessageTypeToolUse, MessageTypeToolResult.
	Type string

	// ToolCallID is set for tool use and tool result messages.
	ToolCallID string
	// ToolName is set for tool use messages.
	ToolName string
	// ToolInput carries the JSON arguments of a tool use message.
	ToolInput string
}

// NewClient creates a new Bedrock client.
func NewClient(client *bedrockruntime.Client) *Client {
	return &Client{
		client: client,
	}
}

// CreateCompletion sends the messages to the provider and returns the
// completion response.
func (c *Client) CreateCompletion(ctx context.Context,
	modelID string,
	messages []Message,
	options llms.CallOptions,
) (*llms.ContentResponse, error) {
	switch getProvider(modelID) {
	case "anthropic":
		return createAnthropicCompletion(ctx, c.client, modelID, messages, options)
	default:
		return nil, errors.Newf("bedrock: unsupported provider in model ID %q", modelID)
	}
}

func getProvider(modelID string) string {
	// Handle inference profiles (e.g. "us.anthropic.claude-3-5-sonnet-20241022-v2:0")
	// and direct model IDs (e.g. "anthropic.claude-3-sonnet-20240229-v1:0").
	parts := strings.Split(modelID, ".")
	if len(parts) >= 2 && len(parts[0]) == 2 && strings.ToLower(parts[0]) == parts[0] {
		return parts[1]
	}
	return parts[0]
}

func getMaxTokens(maxTokens, defaultValue int) int {
	if maxTokens <= 0 {
		return defaultValue
	}
	return maxTokens
}
