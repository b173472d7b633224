package llms_test

import (
	"testing"

	"github.com/effective-security/mcpagent/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MessageFromTextParts(t *testing.T) {
	msg := llms.MessageFromTextParts(llms.RoleHuman, "foo", "bar")
	assert.Equal(t, llms.RoleHuman, msg.Role)
	require.Len(t, msg.Parts, 2)
	assert.Equal(t, llms.TextContent{Text: "foo"}, msg.Parts[0])
	assert.Equal(t, "foo\nbar\n", msg.GetContent())
}

func Test_MessageFromToolCalls(t *testing.T) {
	call := llms.ToolCall{
		ID:   "call_1",
		Type: "function",
		FunctionCall: &llms.FunctionCall{
			Name:      "calculate",
			Arguments: `{"operation":"add","a":5,"b":3}`,
		},
	}
	msg := llms.MessageFromToolCalls(llms.RoleAI, call)
	assert.Equal(t, llms.RoleAI, msg.Role)
	require.Len(t, msg.Parts, 1)

	calls := msg.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, "ToolCall: call_1 (calculate), input: {\"operation\":\"add\",\"a\":5,\"b\":3}", calls[0].String())
}

func Test_MessageFromToolResponse(t *testing.T) {
	resp := llms.ToolCallResponse{
		ToolCallID: "call_1",
		Name:       "calculate",
		Content:    "Result: 5 + 3 = 8",
	}
	msg := llms.MessageFromToolResponse(llms.RoleTool, resp)
	assert.Equal(t, llms.RoleTool, msg.Role)
	require.Len(t, msg.Parts, 1)
	assert.Empty(t, msg.ToolCalls())
	assert.Equal(t, "ToolCallResponse: call_1 (calculate), response size: 17", resp.String())
}

func Test_Message_GetContent_Mixed(t *testing.T) {
	msg := llms.MessageFromParts(llms.RoleAI,
		llms.TextPart("thinking"),
		llms.ToolCall{
			ID:           "call_1",
			Type:         "function",
			FunctionCall: &llms.FunctionCall{Name: "calculate", Arguments: "{}"},
		},
	)
	content := msg.GetContent()
	assert.Contains(t, content, "thinking\n")
	assert.Contains(t, content, "Tool Call: ")
}

func Test_ProviderCapabilities(t *testing.T) {
	for _, p := range []llms.ProviderType{llms.ProviderOpenAI, llms.ProviderAnthropic, llms.ProviderBedrock} {
		assert.True(t, p.Supports(llms.CapabilityText), "provider %s", p)
		assert.True(t, p.Supports(llms.CapabilityFunctionCalling), "provider %s", p)
		assert.True(t, p.Supports(llms.CapabilitySystemPrompt), "provider %s", p)
	}
	assert.False(t, llms.ProviderType("LEGACY").Supports(llms.CapabilityFunctionCalling))
}
