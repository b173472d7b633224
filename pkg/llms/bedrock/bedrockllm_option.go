package bedrock

import (
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Model IDs for the Anthropic models available on Bedrock.
const (
	ModelAnthropicClaudeV3Haiku   = "anthropic.claude-3-haiku-20240307-v1:0"
	ModelAnthropicClaudeV3Sonnet  = "anthropic.claude-3-sonnet-20240229-v1:0"
	ModelAnthropicClaudeV35Sonnet = "anthropic.claude-3-5-sonnet-20240620-v1:0"
	ModelAnthropicClaudeV37Sonnet = "anthropic.claude-3-7-sonnet-20250219-v1:0"
)

type options struct {
	modelID string
	client  *bedrockruntime.Client
}

// Option is a functional option for the Bedrock LLM.
type Option func(*options)

// WithModel sets the model ID to use. If not set, the default model is used.
func WithModel(modelID string) Option {
	return func(opts *options) {
		opts.modelID = modelID
	}
}

// WithClient sets the Bedrock runtime client to use. If not set, a client is
// created from the default AWS configuration.
func WithClient(client *bedrockruntime.Client) Option {
	return func(opts *options) {
		opts.client = client
	}
}
