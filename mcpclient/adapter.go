package mcpclient

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpagent/chatmodel"
	"github.com/effective-security/mcpagent/pkg/llmutils"
	"github.com/effective-security/mcpagent/tools"
)

// RemoteTool presents one remote MCP tool with the same invocation
// contract as locally defined tools. Every call is a fresh remote round
// trip, results are not cached.
type RemoteTool struct {
	client      *Client
	name        string
	description string
	funcParams  any
}

var _ tools.ITool = (*RemoteTool)(nil)

func (t *RemoteTool) Name() string {
	return t.name
}

func (t *RemoteTool) Description() string {
	return t.description
}

func (t *RemoteTool) Parameters() any {
	return t.funcParams
}

// Call invokes the remote tool with the given JSON-encoded arguments.
// A connection failure of the underlying session is reported as a tool
// execution failure, the adapter never retries.
func (t *RemoteTool) Call(ctx context.Context, input string) (string, error) {
	var args map[string]any
	if input != "" {
		if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &args); err != nil {
			return "", errors.WithMessage(chatmodel.ErrFailedUnmarshalInput, err.Error())
		}
	}

	res, err := t.client.CallTool(ctx, t.name, args)
	if err != nil {
		if errors.Is(err, ErrConnection) || errors.Is(err, ErrNotConnected) {
			return "", errors.Mark(err, ErrToolExecution)
		}
		return "", err
	}
	return res, nil
}

// AdaptTools wraps the connected client's tool catalog as agent tools,
// preserving server order.
func (c *Client) AdaptTools() ([]tools.ITool, error) {
	catalog, err := c.Tools()
	if err != nil {
		return nil, err
	}
	out := make([]tools.ITool, 0, len(catalog))
	for _, tool := range catalog {
		out = append(out, &RemoteTool{
			client:      c,
			name:        tool.Name,
			description: tool.Description,
			funcParams:  tool.InputSchema,
		})
	}
	return out, nil
}
