package agent

import (
	"context"

	"github.com/effective-security/mcpagent/pkg/llms"
	"github.com/effective-security/mcpagent/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mcpagent", "agent")

//go:generate mockgen -destination=../mocks/mockllms/llm_mock.gen.go -package mockllms github.com/effective-security/mcpagent/pkg/llms Model
//go:generate mockgen -source=interfaces.go -destination=../mocks/mockagent/agent_mock.gen.go -package mockagent

const (
	// DefaultMaxRetries is the number of retries on an empty LLM response.
	DefaultMaxRetries = 3
	// DefaultMaxToolCalls limits the total number of tool calls in one run.
	DefaultMaxToolCalls = 100
	// DefaultMaxMessages limits the number of messages sent to the LLM in one run.
	DefaultMaxMessages = 100
	// DefaultMaxContentSize limits the total content size sent to the LLM in one run.
	DefaultMaxContentSize = uint64(512 * 1024)
)

// IAgent describes an agent for callbacks and composition.
type IAgent interface {
	// Name returns the name of the agent.
	Name() string
	// Description returns the description of the agent.
	Description() string
}

// Callback receives notifications about the agent run progress.
type Callback interface {
	OnAgentStart(ctx context.Context, agent IAgent, input string)
	OnAgentEnd(ctx context.Context, agent IAgent, input string, resp *llms.ContentResponse, messages []llms.Message)
	OnAgentError(ctx context.Context, agent IAgent, input string, err error, messages []llms.Message)
	OnAgentLLMCallStart(ctx context.Context, agent IAgent, llm llms.Model, messages []llms.Message)
	OnAgentLLMCallEnd(ctx context.Context, agent IAgent, llm llms.Model, resp *llms.ContentResponse)
	OnToolStart(ctx context.Context, tool tools.ITool, agentName string, input string)
	OnToolEnd(ctx context.Context, tool tools.ITool, agentName string, input string, output string)
	OnToolError(ctx context.Context, tool tools.ITool, agentName string, input string, err error)
	OnToolNotFound(ctx context.Context, agent IAgent, tool string)
}
