package llmutils_test

import (
	"strings"
	"testing"

	"github.com/effective-security/mcpagent/pkg/llms"
	"github.com/effective-security/mcpagent/pkg/llmutils"
	"github.com/stretchr/testify/assert"
)

func Test_CleanJSON(t *testing.T) {
	llmOutput := "\n```json\n\n{\"city\": \"Paris\", \"country\": \"France\"}\n\n```\n\n"
	clean := llmutils.CleanJSON([]byte(llmOutput))

	expected := "{\"city\": \"Paris\", \"country\": \"France\"}"
	assert.Equal(t, expected, string(clean))

	llmOutput = "Here you go:\n```json\n\n[{\"city\": \"Paris\", \"country\": \"France\"}]\n```\n\n"
	clean = llmutils.CleanJSON([]byte(llmOutput))

	expected = "[{\"city\": \"Paris\", \"country\": \"France\"}]"
	assert.Equal(t, expected, string(clean))

	// no JSON at all is returned unchanged
	assert.Equal(t, "no json here", string(llmutils.CleanJSON([]byte("no json here"))))
}

func Test_TrimBackticks(t *testing.T) {
	expected := "{\"city\": \"Paris\", \"country\": \"France\"}"

	assert.Equal(t, expected, llmutils.TrimBackticks("\n```json\n\n{\"city\": \"Paris\", \"country\": \"France\"}\n\n```\n\n"))
	// the same
	assert.Equal(t, expected, llmutils.TrimBackticks(expected))
	assert.Equal(t, expected, llmutils.TrimBackticks("\n```\n\n{\"city\": \"Paris\", \"country\": \"France\"}\n\n```\n\n"))
	assert.Equal(t, expected, llmutils.TrimBackticks("\n```{\"city\": \"Paris\", \"country\": \"France\"}\n\n```\n\n"))
}

func Test_BackticksJSON(t *testing.T) {
	json := "{\"city\": \"Paris\", \"country\": \"France\"}"
	wrapped := llmutils.BackticksJSON(json)

	expected := "\n```json\n{\"city\": \"Paris\", \"country\": \"France\"}\n```\n"
	assert.Equal(t, expected, wrapped)
}

func Test_PrintConversation(t *testing.T) {
	msgs := []llms.Message{
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
		llms.MessageFromTextParts(llms.RoleAI, "5 plus 3 is 8."),
	}

	var sb strings.Builder
	llmutils.PrintConversation(&sb, msgs)

	expected := `
[1] Human:
    What is 5 plus 3?

[2] AI:
    Content: Let me calculate that.
    Tool Calls:
      - calculate({"operation":"add","a":5,"b":3})

[3] Tool:
    Name: calculate
    Result: Result: 5 + 3 = 8

[4] AI:
    Content: 5 plus 3 is 8.
`
	assert.Equal(t, expected, sb.String())
}

func Test_PrintConversation_Defaults(t *testing.T) {
	msgs := []llms.Message{
		llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{ID: "call_2"}),
		llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{
			ToolCallID: "call_2",
			Content:    "done",
		}),
	}

	var sb strings.Builder
	llmutils.PrintConversation(&sb, msgs)

	expected := `
[1] AI:
    Tool Calls:
      - unknown({})

[2] Tool:
    Name: unknown
    Result: done
`
	assert.Equal(t, expected, sb.String())
}

func Test_CountContentSize(t *testing.T) {
	msgs := []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "hello"),
	}
	assert.Equal(t, uint64(len("human")+len("hello")), llmutils.CountMessagesContentSize(msgs))

	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{Content: "result"},
		},
	}
	assert.Equal(t, uint64(len("result")), llmutils.CountResponseContentSize(resp))
}

func Test_CountTokens(t *testing.T) {
	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				GenerationInfo: map[string]any{
					"InputTokens":  10,
					"OutputTokens": 20,
					"TotalTokens":  30,
				},
			},
		},
	}
	in, out, total := llmutils.CountTokens(resp)
	assert.Equal(t, int64(10), in)
	assert.Equal(t, int64(20), out)
	assert.Equal(t, int64(30), total)
}

func Test_FindLastUserQuestion(t *testing.T) {
	msgs := []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "first"),
		llms.MessageFromTextParts(llms.RoleAI, "answer"),
		llms.MessageFromTextParts(llms.RoleHuman, "second"),
	}
	assert.Equal(t, "second", llmutils.FindLastUserQuestion(msgs))
	assert.Empty(t, llmutils.FindLastUserQuestion(nil))
}

func Test_EnsureEndsWithNewline(t *testing.T) {
	assert.Equal(t, "hello\n", llmutils.EnsureEndsWithNewline("  hello "))
	assert.Empty(t, llmutils.EnsureEndsWithNewline("   "))
}
