package anthropic_test

import (
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/effective-security/mcpagent/pkg/llms"
	"github.com/effective-security/mcpagent/pkg/llms/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := anthropic.New(anthropic.WithModel("claude-3-5-sonnet-latest"))
	require.Error(t, err)
	assert.ErrorIs(t, err, anthropic.ErrMissingToken)

	_, err = anthropic.New(anthropic.WithToken("sk-ant-test"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model is required")

	llm, err := anthropic.New(
		anthropic.WithToken("sk-ant-test"),
		anthropic.WithModel("claude-3-5-sonnet-latest"),
	)
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-sonnet-latest", llm.GetName())
	assert.Equal(t, llms.ProviderAnthropic, llm.GetProviderType())
}

func Test_ProcessMessages(t *testing.T) {
	messages := []llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, "You are a math assistant."),
		llms.MessageFromTextParts(llms.RoleHuman, "What is 5 plus 3?"),
		llms.MessageFromParts(llms.RoleAI,
			llms.TextPart("Let me calculate that."),
			llms.ToolCall{
				ID:   "call_1",
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      "calculate",
					Arguments: `{"operation":"add","a":5,"b":3}`,
				},
			},
		),
		llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{
			ToolCallID: "call_1",
			Name:       "calculate",
			Content:    "Result: 5 + 3 = 8",
		}),
	}

	sdkMessages, systemPrompt, err := anthropic.ProcessMessages(messages)
	require.NoError(t, err)
	assert.Equal(t, "You are a math assistant.", systemPrompt)
	require.Len(t, sdkMessages, 3)

	assert.Equal(t, sdk.MessageParamRoleUser, sdkMessages[0].Role)
	require.Len(t, sdkMessages[0].Content, 1)
	assert.Equal(t, "What is 5 plus 3?", sdkMessages[0].Content[0].OfText.Text)

	assert.Equal(t, sdk.MessageParamRoleAssistant, sdkMessages[1].Role)
	require.Len(t, sdkMessages[1].Content, 2)
	assert.NotNil(t, sdkMessages[1].Content[0].OfText)
	require.NotNil(t, sdkMessages[1].Content[1].OfToolUse)
	assert.Equal(t, "call_1", sdkMessages[1].Content[1].OfToolUse.ID)
	assert.Equal(t, "calculate", sdkMessages[1].Content[1].OfToolUse.Name)

	// tool results go back as user messages
	assert.Equal(t, sdk.MessageParamRoleUser, sdkMessages[2].Role)
	require.Len(t, sdkMessages[2].Content, 1)
	require.NotNil(t, sdkMessages[2].Content[0].OfToolResult)
	assert.Equal(t, "call_1", sdkMessages[2].Content[0].OfToolResult.ToolUseID)
}

func Test_ProcessMessages_MultipleSystem(t *testing.T) {
	messages := []llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, "one"),
		llms.MessageFromTextParts(llms.RoleSystem, "two"),
		llms.MessageFromTextParts(llms.RoleHuman, "hi"),
	}
	_, systemPrompt, err := anthropic.ProcessMessages(messages)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", systemPrompt)
}

func Test_ProcessMessages_Errors(t *testing.T) {
	_, _, err := anthropic.ProcessMessages([]llms.Message{
		{Role: llms.Role("generic"), Parts: []llms.ContentPart{llms.TextPart("x")}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, anthropic.ErrUnsupportedMessageType)

	// tool call arguments must be valid JSON
	_, _, err = anthropic.ProcessMessages([]llms.Message{
		llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{
			ID:           "call_1",
			Type:         "function",
			FunctionCall: &llms.FunctionCall{Name: "calculate", Arguments: "not json {"},
		}),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal tool call arguments")

	// a tool message part must be a tool response
	_, _, err = anthropic.ProcessMessages([]llms.Message{
		llms.MessageFromTextParts(llms.RoleTool, "oops"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, anthropic.ErrInvalidContentType)
}

func Test_ToTools(t *testing.T) {
	tools, err := anthropic.ToTools(nil)
	require.NoError(t, err)
	assert.Nil(t, tools)

	tools, err = anthropic.ToTools([]llms.Tool{
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "calculate",
				Description: "Performs basic arithmetic.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"operation": map[string]any{"type": "string"},
					},
					"required": []string{"operation"},
				},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, tools, 1)

	tool := tools[0].OfTool
	require.NotNil(t, tool)
	assert.Equal(t, "calculate", tool.Name)
	assert.Equal(t, []string{"operation"}, tool.InputSchema.Required)
	assert.Contains(t, tool.InputSchema.Properties, "operation")
}
