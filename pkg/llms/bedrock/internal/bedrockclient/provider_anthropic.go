package bedrockclient

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpagent/pkg/llms"
)

// Ref: https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-anthropic-claude-messages.html

// anthropicTextGenerationInputContent is a single content block in the input.
type anthropicTextGenerationInputContent struct {
	// The type of the content.
	// One of: "text", "tool_use", "tool_result"
	Type string `json:"type"`
	// The text content. Required if type is "text"
	Text string `json:"text,omitempty"`
	// Tool use fields
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Input any    `json:"input,omitempty"`
	// Tool result fields
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

type anthropicTextGenerationInputMessage struct {
	// The role of the message, one of ["user", "assistant"].
	// For the system prompt, use the system field in the input.
	Role string `json:"role"`
	// The content of the message.
	Content []anthropicTextGenerationInputContent `json:"content"`
}

// anthropicTool describes a tool the model can use.
type anthropicTool struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	InputSchema anthropicInputSchema `json:"input_schema"`
}

// anthropicInputSchema is the JSON schema for tool input.
type anthropicInputSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required,omitempty"`
}

// anthropicTextGenerationInput is the input to the model.
type anthropicTextGenerationInput struct {
	AnthropicVersion string                                 `json:"anthropic_version"`
	MaxTokens        int                                    `json:"max_tokens"`
	System           string                                 `json:"system,omitempty"`
	Messages         []*anthropicTextGenerationInputMessage `json:"messages"`
	Temperature      float64                                `json:"temperature,omitempty"`
	TopP             float64                                `json:"top_p,omitempty"`
	TopK             int                                    `json:"top_k,omitempty"`
	StopSequences    []string                               `json:"stop_sequences,omitempty"`
	Tools            []anthropicTool                        `json:"tools,omitempty"`
}

// anthropicTextGenerationOutputContent is a content block in the output,
// either "text" or "tool_use".
type anthropicTextGenerationOutputContent struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Input any    `json:"input,omitempty"`
}

// anthropicTextGenerationOutput is the generated output.
type anthropicTextGenerationOutput struct {
	Type    string                                 `json:"type"`
	Role    string                                 `json:"role"`
	Content []anthropicTextGenerationOutputContent `json:"content"`
	// StopReason is one of ["end_turn", "max_tokens", "stop_sequence", "tool_use"].
	StopReason   string `json:"stop_reason"`
	StopSequence string `json:"stop_sequence"`
	Usage        struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Finish reasons for the completion of the generation.
const (
	AnthropicCompletionReasonEndTurn      = "end_turn"
	AnthropicCompletionReasonMaxTokens    = "max_tokens"
	AnthropicCompletionReasonStopSequence = "stop_sequence"
	AnthropicCompletionReasonToolUse      = "tool_use"
)

// AnthropicLatestVersion is the latest version of the messages API.
const AnthropicLatestVersion = "bedrock-2023-05-31"

// Role attribute for the anthropic message.
const (
	AnthropicSystem        = "system"
	AnthropicRoleUser      = "user"
	AnthropicRoleAssistant = "assistant"
)

func createAnthropicCompletion(ctx context.Context,
	client *bedrockruntime.Client,
	modelID string,
	messages []Message,
	options llms.CallOptions,
) (*llms.ContentResponse, error) {
	inputContents, systemPrompt, err := processInputMessagesAnthropic(messages)
	if err != nil {
		return nil, err
	}

	tools, err := toolsFromCallOptions(options.Tools)
	if err != nil {
		return nil, err
	}

	input := anthropicTextGenerationInput{
		AnthropicVersion: AnthropicLatestVersion,
		MaxTokens:        getMaxTokens(options.MaxTokens, 2048),
		System:           systemPrompt,
		Messages:         inputContents,
		Temperature:      options.Temperature,
		TopP:             options.TopP,
		TopK:             options.TopK,
		StopSequences:    options.StopWords,
		Tools:            tools,
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload")
	}

	modelInput := &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Accept:      aws.String("*/*"),
		ContentType: aws.String("application/json"),
		Body:        body,
	}
	resp, err := client.InvokeModel(ctx, modelInput)
	if err != nil {
		return nil, errors.Wrap(err, "invoke model")
	}

	var output anthropicTextGenerationOutput
	err = json.Unmarshal(resp.Body, &output)
	if err != nil {
		return nil, errors.Wrap(err, "decode response")
	}

	if len(output.Content) == 0 {
		return nil, errors.New("no results")
	} else if stopReason := output.StopReason; stopReason != AnthropicCompletionReasonEndTurn &&
		stopReason != AnthropicCompletionReasonStopSequence &&
		stopReason != AnthropicCompletionReasonToolUse {
		return nil, errors.New("completed due to " + stopReason + ". Maybe try increasing max tokens")
	}

	usage := map[string]any{
		"InputTokens":  output.Usage.InputTokens,
		"OutputTokens": output.Usage.OutputTokens,
		"TotalTokens":  output.Usage.InputTokens + output.Usage.OutputTokens,
	}

	var textContent string
	var toolCalls []llms.ToolCall
	for _, c := range output.Content {
		switch c.Type {
		case MessageTypeText:
			textContent += c.Text
		case MessageTypeToolUse:
			argumentsJSON, err := json.Marshal(c.Input)
			if err != nil {
				return nil, errors.Wrap(err, "failed to marshal tool arguments")
			}
			toolCalls = append(toolCalls, llms.ToolCall{
				ID:   c.ID,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      c.Name,
					Arguments: string(argumentsJSON),
				},
			})
		}
	}

	var choices []*llms.ContentChoice
	if textContent != "" {
		choices = append(choices, &llms.ContentChoice{
			Content:        textContent,
			StopReason:     output.StopReason,
			GenerationInfo: usage,
		})
	}
	if len(toolCalls) > 0 {
		choices = append(choices, &llms.ContentChoice{
			ToolCalls:      toolCalls,
			StopReason:     output.StopReason,
			GenerationInfo: usage,
		})
	}
	if len(choices) == 0 {
		choices = append(choices, &llms.ContentChoice{
			Content:        output.Content[0].Text,
			StopReason:     output.StopReason,
			GenerationInfo: usage,
		})
	}

	return &llms.ContentResponse{
		Choices: choices,
	}, nil
}

// toolsFromCallOptions converts the generic tool definitions to the Anthropic
// input schema via a JSON round trip, since the function parameters may come
// from reflection or from a remote tool catalog.
func toolsFromCallOptions(list []llms.Tool) ([]anthropicTool, error) {
	if len(list) == 0 {
		return nil, nil
	}
	tools := make([]anthropicTool, 0, len(list))
	for _, tool := range list {
		if tool.Function == nil {
			continue
		}
		var schema anthropicInputSchema
		if tool.Function.Parameters != nil {
			raw, err := json.Marshal(tool.Function.Parameters)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to marshal parameters for tool %q", tool.Function.Name)
			}
			if err := json.Unmarshal(raw, &schema); err != nil {
				return nil, errors.Wrapf(err, "failed to convert parameters for tool %q", tool.Function.Name)
			}
		}
		if schema.Type == "" {
			schema.Type = "object"
		}
		tools = append(tools, anthropicTool{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			InputSchema: schema,
		})
	}
	return tools, nil
}

// processInputMessagesAnthropic converts the generic messages to the
// anthropic input format, chunking consecutive messages with the same role
// into a single input message, and extracting the system prompt.
func processInputMessagesAnthropic(messages []Message) ([]*anthropicTextGenerationInputMessage, string, error) {
	chunkedMessages := make([][]Message, 0, len(messages))
	currentChunk := make([]Message, 0, len(messages))
	var lastRole llms.Role
	for _, message := range messages {
		if message.Role != lastRole {
			if len(currentChunk) > 0 {
				chunkedMessages = append(chunkedMessages, currentChunk)
			}
			currentChunk = make([]Message, 0, len(messages))
		}
		currentChunk = append(currentChunk, message)
		lastRole = message.Role
	}
	if len(currentChunk) > 0 {
		chunkedMessages = append(chunkedMessages, currentChunk)
	}

	inputContents := make([]*anthropicTextGenerationInputMessage, 0, len(messages))
	var systemPrompt string
	for _, chunk := range chunkedMessages {
		role, err := getAnthropicRole(chunk[0].Role)
		if err != nil {
			return nil, "", err
		}
		if role == AnthropicSystem {
			if systemPrompt != "" {
				return nil, "", errors.New("multiple system prompts")
			}
			for _, message := range chunk {
				if message.Type != MessageTypeText {
					return nil, "", errors.New("system prompt must be text")
				}
				systemPrompt += message.Content
			}
			continue
		}
		content := make([]anthropicTextGenerationInputContent, 0, len(chunk))
		for _, message := range chunk {
			content = append(content, getAnthropicInputContent(message))
		}
		inputContents = append(inputContents, &anthropicTextGenerationInputMessage{
			Role:    role,
			Content: content,
		})
	}
	return inputContents, systemPrompt, nil
}

func getAnthropicRole(role llms.Role) (string, error) {
	switch role {
	case llms.RoleSystem:
		return AnthropicSystem, nil
	case llms.RoleAI:
		return AnthropicRoleAssistant, nil
	case llms.RoleHuman:
		return AnthropicRoleUser, nil
	case llms.RoleTool:
		return AnthropicRoleUser, nil
	default:
		return "", errors.WithMessagef(llms.ErrUnexpectedRole, "role %v not supported", role)
	}
}

func getAnthropicInputContent(message Message) anthropicTextGenerationInputContent {
	var c anthropicTextGenerationInputContent
	switch message.Type {
	case MessageTypeText:
		c = anthropicTextGenerationInputContent{
			Type: message.Type,
			Text: message.Content,
		}
	case MessageTypeToolUse:
		var input any
		if message.ToolInput != "" {
			_ = json.Unmarshal([]byte(message.ToolInput), &input)
		}
		c = anthropicTextGenerationInputContent{
			Type:  message.Type,
			ID:    message.ToolCallID,
			Name:  message.ToolName,
			Input: input,
		}
	case MessageTypeToolResult:
		c = anthropicTextGenerationInputContent{
			Type:      message.Type,
			ToolUseID: message.ToolCallID,
			Content:   message.Content,
		}
	}
	return c
}
