// Package agent implements the model/tool turn-taking loop: send the
// conversation to the LLM, execute any requested tool calls, fold the
// results back into the conversation, and repeat until the model
// produces a final answer with no further tool requests.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpagent/chatmodel"
	"github.com/effective-security/mcpagent/pkg/llms"
	"github.com/effective-security/mcpagent/pkg/llmutils"
	"github.com/effective-security/mcpagent/pkg/metricskey"
	"github.com/effective-security/mcpagent/tools"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
)

// loopState is the state of the orchestration loop.
type loopState int

const (
	// stateAwaitingModel sends the conversation to the LLM and inspects the response.
	stateAwaitingModel loopState = iota
	// stateDispatchingTools executes the tool calls requested by the model.
	stateDispatchingTools
	// stateTerminated means the model produced a turn with no tool requests.
	stateTerminated
)

// Agent runs conversations against an LLM with a set of tools.
type Agent struct {
	LLM llms.Model

	registry     *tools.Registry
	cfg          *Config
	name         string
	description  string
	systemPrompt string
	runMessages  []llms.Message
}

var _ IAgent = (*Agent)(nil)

// NewAgent initializes the Agent.
func NewAgent(llmModel llms.Model, options ...Option) *Agent {
	return &Agent{
		LLM:         llmModel,
		cfg:         NewConfig(options...),
		registry:    tools.NewRegistry(),
		name:        "Generic Agent",
		description: "An AI agent that can perform various tasks.",
	}
}

// WithName sets the name of the Agent.
func (a *Agent) WithName(name string) *Agent {
	a.name = name
	return a
}

// WithDescription sets the description of the Agent.
func (a *Agent) WithDescription(description string) *Agent {
	a.description = description
	return a
}

// WithSystemPrompt sets the system prompt sent as the first message.
func (a *Agent) WithSystemPrompt(systemPrompt string) *Agent {
	a.systemPrompt = systemPrompt
	return a
}

// WithTools registers tools with the Agent.
// Returns tools.ErrDuplicateTool if a tool name is already registered.
func (a *Agent) WithTools(list ...tools.ITool) error {
	return a.registry.Register(list...)
}

// Name returns the name of the Agent.
func (a *Agent) Name() string {
	return a.name
}

// Description returns the description of the Agent.
func (a *Agent) Description() string {
	return a.description
}

// Registry returns the tool registry of the Agent.
func (a *Agent) Registry() *tools.Registry {
	return a.registry
}

// GetTools returns the registered tools in registration order.
func (a *Agent) GetTools() []tools.ITool {
	return a.registry.Tools()
}

// LastRunMessages returns the messages produced by the last run.
func (a *Agent) LastRunMessages() []llms.Message {
	return a.runMessages
}

// Call runs a single-question conversation and returns the final answer text.
func (a *Agent) Call(ctx context.Context, input string, options ...Option) (string, error) {
	conv := chatmodel.NewConversation()
	conv.AppendHuman(input)
	resp, err := a.Run(ctx, conv, options...)
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

// Run executes the orchestration loop over the conversation until the model
// produces a final answer. The conversation must end with a Human turn.
// All assistant and tool turns are appended to the conversation in order.
func (a *Agent) Run(ctx context.Context, conv *chatmodel.Conversation, options ...Option) (*llms.ContentResponse, error) {
	started := time.Now()
	defer metricskey.PerfAgentCall.MeasureSince(started, a.name)

	// reset the run messages
	a.runMessages = nil
	if last, ok := conv.Last(); ok && last.Role == llms.RoleHuman {
		a.runMessages = append(a.runMessages, last)
	}
	// create a per call config
	cfg := a.cfg.Apply(options...)

	input := llmutils.FindLastUserQuestion(conv.Messages())

	callback := cfg.CallbackHandler
	if callback != nil {
		callback.OnAgentStart(ctx, a, input)
	}

	resp, err := a.run(ctx, cfg, conv, input)
	if err != nil {
		metricskey.StatsAgentCallsFailed.IncrCounter(1, a.name)
		if callback != nil {
			callback.OnAgentError(ctx, a, input, err, conv.Messages())
		}
		return nil, err
	}
	metricskey.StatsAgentCallsSucceeded.IncrCounter(1, a.name)
	if callback != nil {
		callback.OnAgentEnd(ctx, a, input, resp, conv.Messages())
	}
	return resp, nil
}

func (a *Agent) run(ctx context.Context, cfg *Config, conv *chatmodel.Conversation, input string) (*llms.ContentResponse, error) {
	agentName := a.name
	modelName := a.LLM.GetName()

	var callOpts []llms.CallOption
	if a.registry.Len() > 0 {
		prov := a.LLM.GetProviderType()
		if !prov.Supports(llms.CapabilityFunctionCalling) {
			return nil, errors.Newf("agent %s: the LLM does not support function calling", agentName)
		}
		callOpts = append(callOpts, llms.WithTools(a.registry.Definitions()))
	}
	callOpts = cfg.GetCallOptions(callOpts...)

	var resp *llms.ContentResponse
	var pendingToolCalls []llms.ToolCall
	var totalToolExecuted int
	retryCount := 0
	consecutiveNotFoundCount := 0

	state := stateAwaitingModel
	for state != stateTerminated {
		switch state {
		case stateAwaitingModel:
			messageHistory := a.history(ctx, cfg, conv)
			if len(messageHistory) >= cfg.MaxMessages {
				return nil, errors.Newf("agent %s: the messages count exceeded limit", agentName)
			}
			bytesSent := llmutils.CountMessagesContentSize(messageHistory)
			if bytesSent > cfg.MaxContentSize {
				return nil, errors.Newf("agent %s: the content size exceeded limit", agentName)
			}

			if cfg.CallbackHandler != nil {
				cfg.CallbackHandler.OnAgentLLMCallStart(ctx, a, a.LLM, messageHistory)
			}

			metricskey.StatsLLMMessagesSent.IncrCounter(float64(len(messageHistory)), agentName, modelName)
			metricskey.StatsLLMBytesSent.IncrCounter(float64(bytesSent), agentName, modelName)

			var err error
			resp, err = a.LLM.GenerateContent(ctx, messageHistory, callOpts...)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to generate content from LLM")
			}

			if cfg.CallbackHandler != nil {
				cfg.CallbackHandler.OnAgentLLMCallEnd(ctx, a, a.LLM, resp)
			}

			metricskey.StatsLLMBytesReceived.IncrCounter(float64(llmutils.CountResponseContentSize(resp)), agentName, modelName)
			tokensIn, tokensOut, _ := llmutils.CountTokens(resp)
			metricskey.StatsLLMInputTokens.IncrCounter(float64(tokensIn), agentName, modelName)
			metricskey.StatsLLMOutputTokens.IncrCounter(float64(tokensOut), agentName, modelName)

			// Check for empty response and retry if needed
			if len(resp.Choices) == 0 {
				retryCount++
				if retryCount >= DefaultMaxRetries {
					logger.ContextKV(ctx, xlog.ERROR,
						"agent", agentName,
						"status", "max_retries_exceeded",
						"input", slices.StringUpto(input, 64),
						"retry_count", retryCount,
					)
					return nil, errors.Newf("agent %s: LLM returned empty response after %d retries", agentName, retryCount)
				}
				metricskey.StatsAgentCallsRetried.IncrCounter(1, agentName)
				logger.ContextKV(ctx, xlog.WARNING,
					"agent", agentName,
					"status", "retrying_empty_response",
					"retry_count", retryCount,
				)
				continue
			}

			pendingToolCalls = a.collectToolCalls(ctx, conv, resp)
			if len(pendingToolCalls) == 0 {
				a.appendFinalAnswer(conv, resp)
				state = stateTerminated
			} else {
				state = stateDispatchingTools
			}

		case stateDispatchingTools:
			notFoundCount := a.executeToolCalls(ctx, cfg, conv, pendingToolCalls)
			totalToolExecuted += len(pendingToolCalls)
			pendingToolCalls = nil

			consecutiveNotFoundCount += notFoundCount
			if consecutiveNotFoundCount > 3 {
				return nil, errors.Newf("agent %s: the number of not found tools is exceeded", agentName)
			}
			if notFoundCount == 0 {
				consecutiveNotFoundCount = 0
			}
			if totalToolExecuted >= cfg.MaxToolCalls {
				return nil, errors.Newf("agent %s: the tool calls limit is exceeded", agentName)
			}
			state = stateAwaitingModel
		}
	}

	if cfg.Store != nil && !cfg.SkipMessageHistory && len(a.runMessages) > 0 {
		_ = cfg.Store.Add(ctx, a.runMessages...)

		logger.ContextKV(ctx, xlog.DEBUG,
			"agent", agentName,
			"chat_id", chatmodel.GetChatID(ctx),
			"status", "added_message_history",
			"message_history", len(a.runMessages),
			"human", slices.StringUpto(input, 64),
		)
	}

	return resp, nil
}

// history builds the message list sent to the LLM: the system prompt,
// the stored chat history, then the conversation turns.
func (a *Agent) history(ctx context.Context, cfg *Config, conv *chatmodel.Conversation) []llms.Message {
	var messageHistory []llms.Message
	if a.systemPrompt != "" {
		messageHistory = append(messageHistory, llms.MessageFromTextParts(llms.RoleSystem, a.systemPrompt))
	}
	if cfg.Store != nil {
		prevMessages := cfg.Store.Messages(ctx)
		if len(prevMessages) > 0 {
			logger.ContextKV(ctx, xlog.DEBUG,
				"agent", a.name,
				"chat_id", chatmodel.GetChatID(ctx),
				"message_history", len(prevMessages))
			messageHistory = append(messageHistory, prevMessages...)
		}
	}
	return append(messageHistory, conv.Messages()...)
}

// collectToolCalls extracts the tool calls requested by the model and
// appends the assistant turn holding them to the conversation.
func (a *Agent) collectToolCalls(ctx context.Context, conv *chatmodel.Conversation, resp *llms.ContentResponse) []llms.ToolCall {
	var toolCalls []llms.ToolCall
	for _, choice := range resp.Choices {
		var choiceToolCalls []llms.ToolCall
		for _, toolCall := range choice.ToolCalls {
			if toolCall.FunctionCall == nil {
				continue
			}
			if toolCall.ID == "" {
				toolCall.ID = uuid.NewString()
			}
			if toolCall.Type == "" {
				toolCall.Type = "function"
			}
			choiceToolCalls = append(choiceToolCalls, toolCall)

			logger.ContextKV(ctx, xlog.DEBUG,
				"agent", a.name,
				"status", "tool_call_found",
				"tool_call_id", toolCall.ID,
				"tool_call_name", toolCall.FunctionCall.Name,
			)
		}
		if len(choiceToolCalls) == 0 {
			continue
		}

		toolCalls = append(toolCalls, choiceToolCalls...)
		assistantTurn := llms.MessageFromToolCalls(llms.RoleAI, choiceToolCalls...)
		if choice.Content != "" {
			assistantTurn.Parts = append([]llms.ContentPart{llms.TextContent{Text: choice.Content}}, assistantTurn.Parts...)
		}
		conv.Append(assistantTurn)
		a.runMessages = append(a.runMessages, assistantTurn)
	}
	return toolCalls
}

func (a *Agent) appendFinalAnswer(conv *chatmodel.Conversation, resp *llms.ContentResponse) {
	msg := llms.MessageFromTextParts(llms.RoleAI, responseText(resp))
	conv.Append(msg)
	a.runMessages = append(a.runMessages, msg)
}

// executeToolCalls executes the tool calls and appends one tool result turn
// per call to the conversation, in request order. Calls run concurrently,
// out-of-order completions are buffered and committed in request order.
// Failures of individual calls are folded into the result text so the model
// can recover conversationally, they never abort the run.
func (a *Agent) executeToolCalls(ctx context.Context, cfg *Config, conv *chatmodel.Conversation, toolCalls []llms.ToolCall) int {
	var notFound int32

	type toolCallResult struct {
		toolCall llms.ToolCall
		response string
		err      error
		index    int // Index in the original toolCalls slice
	}

	// Channel to collect results - buffered to prevent deadlock
	resultChan := make(chan toolCallResult, len(toolCalls))

	var wg sync.WaitGroup
	wg.Add(len(toolCalls))

	for i, toolCall := range toolCalls {
		go func(index int, tc llms.ToolCall) {
			defer wg.Done()
			toolName := tc.FunctionCall.Name
			toolArgs := tc.FunctionCall.Arguments

			tool, err := a.registry.Get(toolName)
			if err != nil {
				atomic.AddInt32(&notFound, 1)
				metricskey.StatsToolCallsNotFound.IncrCounter(1, toolName)
				if cfg.CallbackHandler != nil {
					cfg.CallbackHandler.OnToolNotFound(ctx, a, toolName)
				}

				availableTools := strings.Join(a.registry.Names(), ", ")
				logger.ContextKV(ctx, xlog.WARNING,
					"agent", a.name,
					"status", "tool_not_found",
					"tool_name", toolName,
					"available_tools", availableTools,
				)

				resultChan <- toolCallResult{
					toolCall: tc,
					response: fmt.Sprintf("Tool `%s` not found. Please check the tool name and try again with exact match. Available tools: %s", toolName, availableTools),
					index:    index,
				}
				return
			}

			if cfg.CallbackHandler != nil {
				cfg.CallbackHandler.OnToolStart(ctx, tool, a.name, toolArgs)
			}

			started := time.Now()
			res, err := tool.Call(ctx, toolArgs)
			metricskey.PerfToolCall.MeasureSince(started, toolName)

			if err != nil {
				metricskey.StatsToolCallsFailed.IncrCounter(1, toolName)
				if cfg.CallbackHandler != nil {
					cfg.CallbackHandler.OnToolError(ctx, tool, a.name, toolArgs, err)
				}
				resultChan <- toolCallResult{
					toolCall: tc,
					err:      errors.WithMessagef(err, "failed to call tool %s", toolName),
					index:    index,
				}
				return
			}
			metricskey.StatsToolCallsSucceeded.IncrCounter(1, toolName)

			if cfg.CallbackHandler != nil {
				cfg.CallbackHandler.OnToolEnd(ctx, tool, a.name, toolArgs, res)
			}

			resultChan <- toolCallResult{
				toolCall: tc,
				response: res,
				index:    index,
			}
		}(i, toolCall)
	}

	wg.Wait()
	close(resultChan)

	// Collect results in order using the index
	results := make([]toolCallResult, len(toolCalls))
	for result := range resultChan {
		if result.index >= 0 && result.index < len(results) {
			results[result.index] = result
		}
	}

	// Commit results in the same order as the original tool calls
	for i, result := range results {
		if result.toolCall.FunctionCall == nil {
			result = toolCallResult{
				toolCall: toolCalls[i],
				response: "Tool call failed: No response received",
				index:    i,
			}
		}

		content := result.response
		if result.err != nil {
			// Format error as a message for the LLM
			content = fmt.Sprintf("Tool call failed: %s", result.err.Error())
			logger.ContextKV(ctx, xlog.WARNING,
				"agent", a.name,
				"status", "tool_call_failed",
				"tool", result.toolCall.FunctionCall.Name,
				"err", result.err.Error(),
			)
		}

		toolTurn := llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{
			ToolCallID: result.toolCall.ID,
			Name:       result.toolCall.FunctionCall.Name,
			Content:    content,
		})
		conv.Append(toolTurn)
		a.runMessages = append(a.runMessages, toolTurn)
	}

	return int(atomic.LoadInt32(&notFound))
}

// responseText combines the content of all choices into a single answer.
func responseText(resp *llms.ContentResponse) string {
	if len(resp.Choices) == 1 {
		return resp.Choices[0].Content
	}
	var combined strings.Builder
	for i, choice := range resp.Choices {
		if i > 0 {
			combined.WriteString("\n\n")
		}
		combined.WriteString(choice.Content)
	}
	return combined.String()
}
