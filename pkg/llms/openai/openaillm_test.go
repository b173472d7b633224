package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/effective-security/mcpagent/pkg/llms"
	"github.com/effective-security/mcpagent/pkg/llms/openai"
	"github.com/effective-security/mcpagent/pkg/llms/openai/internal/openaiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLLM(t *testing.T, handler http.HandlerFunc) *openai.LLM {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	llm, err := openai.New(
		openai.WithToken("test-token"),
		openai.WithModel("gpt-4o-mini"),
		openai.WithBaseURL(srv.URL),
		openai.WithOrganization("org-test"),
	)
	require.NoError(t, err)
	return llm
}

func Test_New_MissingToken(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := openai.New()
	require.Error(t, err)
	assert.ErrorIs(t, err, openai.ErrMissingToken)
}

func Test_GenerateContent(t *testing.T) {
	var gotReq openaiclient.ChatRequest
	llm := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "org-test", r.Header.Get("OpenAI-Organization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"choices": [
				{
					"index": 0,
					"message": {
						"role": "assistant",
						"content": "",
						"tool_calls": [
							{
								"id": "call_1",
								"type": "function",
								"function": {
									"name": "calculate",
									"arguments": "{\"operation\":\"add\",\"a\":5,\"b\":3}"
								}
							}
						]
					},
					"finish_reason": "tool_calls"
				}
			],
			"usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30}
		}`))
	})

	resp, err := llm.GenerateContent(context.Background(),
		[]llms.Message{
			llms.MessageFromTextParts(llms.RoleSystem, "You are a math assistant."),
			llms.MessageFromTextParts(llms.RoleHuman, "What is 5 plus 3?"),
		},
		llms.WithTemperature(0.5),
		llms.WithMaxTokens(512),
		llms.WithTools([]llms.Tool{
			{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        "calculate",
					Description: "Performs basic arithmetic.",
					Parameters:  map[string]any{"type": "object"},
				},
			},
		}),
	)
	require.NoError(t, err)

	// the request carried the configured model, sampling options and tools
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	require.NotNil(t, gotReq.Temperature)
	assert.InDelta(t, 0.5, *gotReq.Temperature, 0.0001)
	assert.Equal(t, 512, gotReq.MaxCompletionTokens)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, openai.RoleSystem, gotReq.Messages[0].Role)
	assert.Equal(t, openai.RoleUser, gotReq.Messages[1].Role)
	require.Len(t, gotReq.Tools, 1)
	assert.Equal(t, "calculate", gotReq.Tools[0].Function.Name)

	require.Len(t, resp.Choices, 1)
	choice := resp.Choices[0]
	assert.Equal(t, "tool_calls", choice.StopReason)
	require.Len(t, choice.ToolCalls, 1)
	assert.Equal(t, "call_1", choice.ToolCalls[0].ID)
	assert.Equal(t, "calculate", choice.ToolCalls[0].FunctionCall.Name)
	assert.Equal(t, 10, choice.GenerationInfo["InputTokens"])
	assert.Equal(t, 30, choice.GenerationInfo["TotalTokens"])
	assert.Equal(t, "chatcmpl-1", choice.GenerationInfo["ID"])
}

func Test_GenerateContent_ToolHistory(t *testing.T) {
	var gotReq openaiclient.ChatRequest
	llm := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{
			"choices": [
				{
					"index": 0,
					"message": {"role": "assistant", "content": "5 plus 3 is 8."},
					"finish_reason": "stop"
				}
			]
		}`))
	})

	resp, err := llm.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "What is 5 plus 3?"),
		llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{
			ID:   "call_1",
			Type: "function",
			FunctionCall: &llms.FunctionCall{
				Name:      "calculate",
				Arguments: `{"operation":"add","a":5,"b":3}`,
			},
		}),
		llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{
			ToolCallID: "call_1",
			Name:       "calculate",
			Content:    "Result: 5 + 3 = 8",
		}),
	})
	require.NoError(t, err)

	require.Len(t, gotReq.Messages, 3)
	assistant := gotReq.Messages[1]
	assert.Equal(t, openai.RoleAssistant, assistant.Role)
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "call_1", assistant.ToolCalls[0].ID)

	toolMsg := gotReq.Messages[2]
	assert.Equal(t, openai.RoleTool, toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Equal(t, "calculate", toolMsg.Name)
	assert.Equal(t, "Result: 5 + 3 = 8", toolMsg.Content)

	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "5 plus 3 is 8.", resp.Choices[0].Content)
}

func Test_GenerateContent_APIError(t *testing.T) {
	llm := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
	})

	_, err := llm.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "hello"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code: 401")
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func Test_GenerateContent_UnexpectedRole(t *testing.T) {
	llm := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := llm.GenerateContent(context.Background(), []llms.Message{
		{Role: llms.Role("generic")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, llms.ErrUnexpectedRole)
}

func Test_GetName(t *testing.T) {
	llm, err := openai.New(openai.WithToken("test-token"), openai.WithModel("gpt-4o"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", llm.GetName())
	assert.Equal(t, llms.ProviderOpenAI, llm.GetProviderType())
}
