package callbacks_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpagent/callbacks"
	"github.com/effective-security/mcpagent/mocks/mockagent"
	"github.com/effective-security/mcpagent/mocks/mockllms"
	"github.com/effective-security/mcpagent/mocks/mocktools"
	"github.com/effective-security/mcpagent/pkg/llms"
	"github.com/effective-security/xlog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func Test_Printer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ag := mockagent.NewMockIAgent(ctrl)
	ag.EXPECT().Name().Return("Math Agent").AnyTimes()

	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetName().Return("gpt-4o-mini").AnyTimes()

	mockTool := mocktools.NewMockITool(ctrl)
	mockTool.EXPECT().Name().Return("calculate").AnyTimes()

	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "8"}},
	}
	messages := []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "What is 5 plus 3?"),
	}

	ctx := context.Background()
	var out bytes.Buffer
	cb := callbacks.NewPrinter(&out, callbacks.ModeVerbose)

	cb.OnAgentStart(ctx, ag, "What is 5 plus 3?")
	cb.OnAgentLLMCallStart(ctx, ag, mockLLM, messages)
	cb.OnAgentLLMCallEnd(ctx, ag, mockLLM, resp)
	cb.OnToolStart(ctx, mockTool, "Math Agent", `{"a": 5, "b": 3}`)
	cb.OnToolEnd(ctx, mockTool, "Math Agent", `{"a": 5, "b": 3}`, "Result: 5 + 3 = 8")
	cb.OnToolError(ctx, mockTool, "Math Agent", "{}", errors.New("backend unavailable"))
	cb.OnToolNotFound(ctx, ag, "compute")
	cb.OnAgentEnd(ctx, ag, "What is 5 plus 3?", resp, messages)
	cb.OnAgentError(ctx, ag, "What is 5 plus 3?", errors.New("boom"), messages)

	exp := `Agent Start: Math Agent
Input: What is 5 plus 3?
Agent LLM Call: Math Agent: gpt-4o-mini model, 1 messages
Agent LLM Call End: Math Agent: gpt-4o-mini model, 1 messages
Tool Start: calculate (Math Agent)
Input: {"a": 5, "b": 3}
Tool End: calculate (Math Agent)
Output: Result: 5 + 3 = 8
Tool Error: calculate (Math Agent): backend unavailable
Tool Not Found: compute
Agent End: Math Agent
8
Agent Error: Math Agent: boom
`
	assert.Equal(t, exp, out.String())
}

func Test_Printer_DefaultMode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ag := mockagent.NewMockIAgent(ctrl)
	ag.EXPECT().Name().Return("Math Agent").AnyTimes()

	mockTool := mocktools.NewMockITool(ctrl)
	mockTool.EXPECT().Name().Return("calculate").AnyTimes()

	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "8"}},
	}

	ctx := context.Background()
	var out bytes.Buffer
	cb := callbacks.NewPrinter(&out, callbacks.ModeDefault)

	cb.OnAgentEnd(ctx, ag, "question", resp, nil)
	cb.OnToolEnd(ctx, mockTool, "Math Agent", "{}", "Result: 5 + 3 = 8")

	// the default mode suppresses response content and tool output
	exp := `Agent End: Math Agent
Tool End: calculate (Math Agent)
`
	assert.Equal(t, exp, out.String())
}

func Test_Fanout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ag := mockagent.NewMockIAgent(ctrl)
	mockLLM := mockllms.NewMockModel(ctrl)
	mockTool := mocktools.NewMockITool(ctrl)

	resp := &llms.ContentResponse{}
	failure := errors.New("boom")

	mockCB := mockagent.NewMockCallback(ctrl)
	mockCB.EXPECT().OnAgentStart(gomock.Any(), ag, "question")
	mockCB.EXPECT().OnAgentLLMCallStart(gomock.Any(), ag, mockLLM, gomock.Any())
	mockCB.EXPECT().OnAgentLLMCallEnd(gomock.Any(), ag, mockLLM, resp)
	mockCB.EXPECT().OnToolStart(gomock.Any(), mockTool, "Math Agent", "{}")
	mockCB.EXPECT().OnToolEnd(gomock.Any(), mockTool, "Math Agent", "{}", "ok")
	mockCB.EXPECT().OnToolError(gomock.Any(), mockTool, "Math Agent", "{}", failure)
	mockCB.EXPECT().OnToolNotFound(gomock.Any(), ag, "compute")
	mockCB.EXPECT().OnAgentEnd(gomock.Any(), ag, "question", resp, gomock.Any())
	mockCB.EXPECT().OnAgentError(gomock.Any(), ag, "question", failure, gomock.Any())

	ctx := context.Background()
	fanout := callbacks.NewFanout(callbacks.NewNoop())
	fanout.Add(mockCB)

	fanout.OnAgentStart(ctx, ag, "question")
	fanout.OnAgentLLMCallStart(ctx, ag, mockLLM, nil)
	fanout.OnAgentLLMCallEnd(ctx, ag, mockLLM, resp)
	fanout.OnToolStart(ctx, mockTool, "Math Agent", "{}")
	fanout.OnToolEnd(ctx, mockTool, "Math Agent", "{}", "ok")
	fanout.OnToolError(ctx, mockTool, "Math Agent", "{}", failure)
	fanout.OnToolNotFound(ctx, ag, "compute")
	fanout.OnAgentEnd(ctx, ag, "question", resp, nil)
	fanout.OnAgentError(ctx, ag, "question", failure, nil)
}

func Test_PackageLogger(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ag := mockagent.NewMockIAgent(ctrl)
	ag.EXPECT().Name().Return("Math Agent").AnyTimes()

	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetName().Return("gpt-4o-mini").AnyTimes()

	mockTool := mocktools.NewMockITool(ctrl)
	mockTool.EXPECT().Name().Return("calculate").AnyTimes()

	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "8"}},
	}

	ctx := context.Background()
	cb := callbacks.NewPackageLogger(xlog.NewPackageLogger("test", "callbacks"))

	cb.OnAgentStart(ctx, ag, "question")
	cb.OnAgentLLMCallStart(ctx, ag, mockLLM, nil)
	cb.OnAgentLLMCallEnd(ctx, ag, mockLLM, resp)
	cb.OnToolStart(ctx, mockTool, "Math Agent", "{}")
	cb.OnToolEnd(ctx, mockTool, "Math Agent", "{}", "ok")
	cb.OnToolError(ctx, mockTool, "Math Agent", "{}", errors.New("boom"))
	cb.OnToolNotFound(ctx, ag, "compute")
	cb.OnAgentEnd(ctx, ag, "question", resp, nil)
	cb.OnAgentError(ctx, ag, "question", errors.New("boom"), nil)
}
