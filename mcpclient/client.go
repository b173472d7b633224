// Package mcpclient manages sessions with external MCP tool servers:
// connect and initialize, discover the tool catalog, invoke tools by name,
// and disconnect. Remote tools are exposed to the agent through the
// RemoteTool adapter.
package mcpclient

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpagent/pkg/metricskey"
	"github.com/effective-security/xlog"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mcpagent", "mcpclient")

var (
	// ErrNotConnected is returned when an operation requires a connected session.
	ErrNotConnected = errors.New("session is not connected")
	// ErrConnection is returned on transport-level failures.
	// The session is failed and a new client is required to recover.
	ErrConnection = errors.New("connection failed")
	// ErrToolExecution is returned when the remote server reports an
	// application-level tool failure. The session remains connected.
	ErrToolExecution = errors.New("tool execution failed")
)

// State is the lifecycle state of a client session.
type State int

const (
	// StateUnconnected is the initial state, also entered after Disconnect.
	StateUnconnected State = iota
	// StateConnected means the session is initialized and the tool catalog is loaded.
	StateConnected
	// StateFailed is terminal. A transport error failed the session,
	// a new client instance is required to recover.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "unconnected"
	}
}

// Option configures a Client.
type Option func(*Client)

// WithTransport overrides the transport built from the endpoint spec.
// Used by tests with in-memory transports.
func WithTransport(t mcp.Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithImplementation sets the client name and version sent in the
// initialize handshake.
func WithImplementation(name, version string) Option {
	return func(c *Client) {
		c.impl = &mcp.Implementation{Name: name, Version: version}
	}
}

// Client owns one session with an MCP tool server.
// At most one live session per instance, no automatic reconnect.
type Client struct {
	endpoint  string
	impl      *mcp.Implementation
	transport mcp.Transport

	mu      sync.Mutex
	state   State
	session *mcp.ClientSession
	catalog []*mcp.Tool
}

// NewClient returns an unconnected client for the given endpoint spec.
// Supported endpoint forms: "stdio://<command>", "sse://<host>",
// "http://<host>" or "https://<host>" (streamable HTTP).
func NewClient(endpoint string, ops ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		impl:     &mcp.Implementation{Name: "mcpagent", Version: "v1"},
	}
	for _, op := range ops {
		op(c)
	}
	return c
}

// Endpoint returns the endpoint spec this client was created with.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// State returns the current session state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect opens the transport, performs the initialize handshake,
// and eagerly fetches the remote tool catalog so that catalog failures
// surface immediately rather than mid-conversation.
// Valid only in Unconnected state.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateConnected:
		return errors.WithMessagef(ErrConnection, "already connected: %s", c.endpoint)
	case StateFailed:
		return errors.WithMessagef(ErrNotConnected, "session failed: %s", c.endpoint)
	}

	transport := c.transport
	if transport == nil {
		t, err := buildTransport(ctx, c.endpoint)
		if err != nil {
			return err
		}
		transport = t
	}

	client := mcp.NewClient(c.impl, nil)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		metricskey.StatsMCPConnectFailed.IncrCounter(1, c.endpoint)
		return errors.WithMessagef(errors.Mark(err, ErrConnection),
			"failed to connect to MCP server: %s, check the endpoint and that the server is running", c.endpoint)
	}

	var catalog []*mcp.Tool
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			_ = session.Close()
			c.state = StateFailed
			metricskey.StatsMCPConnectFailed.IncrCounter(1, c.endpoint)
			return errors.WithMessagef(errors.Mark(err, ErrConnection),
				"failed to list tools from MCP server: %s", c.endpoint)
		}
		catalog = append(catalog, tool)
	}

	c.session = session
	c.catalog = catalog
	c.state = StateConnected

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "connected",
		"endpoint", c.endpoint,
		"tools", len(catalog),
	)
	return nil
}

// Tools returns the tool catalog discovered at connect time,
// in server order. Valid only in Connected state.
func (c *Client) Tools() ([]*mcp.Tool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected {
		return nil, errors.WithMessagef(ErrNotConnected, "state: %s", c.state)
	}
	out := make([]*mcp.Tool, len(c.catalog))
	copy(out, c.catalog)
	return out, nil
}

// CallTool invokes a remote tool by name and returns the textual result.
// Text content items are joined by newlines, other content kinds are
// stringified. An application-level failure reported by the server returns
// ErrToolExecution and leaves the session connected. A transport failure
// returns ErrConnection and fails the session, subsequent calls fail fast
// with ErrNotConnected.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return "", errors.WithMessagef(ErrNotConnected, "state: %s", c.state)
	}
	session := c.session
	c.mu.Unlock()

	defer metricskey.PerfMCPCall.MeasureSince(time.Now(), c.endpoint, name)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return "", errors.WithMessagef(err, "tool call canceled: %s", name)
		}
		if !sessionBroken(session, err) {
			// JSON-RPC error from the server over a live transport,
			// unknown tool name or invalid params among them
			return "", errors.WithMessagef(errors.Mark(err, ErrToolExecution),
				"tool: %s", name)
		}
		c.failSession(session)
		metricskey.StatsMCPSessionsFailed.IncrCounter(1, c.endpoint)
		return "", errors.WithMessagef(errors.Mark(err, ErrConnection),
			"tool call transport failed: %s", name)
	}

	text := contentText(res.Content)
	if res.IsError {
		return "", errors.WithMessagef(ErrToolExecution, "tool: %s, error: %s", name, text)
	}
	return text, nil
}

// pingTimeout bounds the health check used to classify call errors.
const pingTimeout = 5 * time.Second

// sessionBroken reports whether a call error means the transport is lost.
// The SDK surfaces server-reported JSON-RPC errors through the same error
// return as transport failures, and a call that was in flight when the
// connection dropped carries only the raw read error, so an error that is
// not a known connection closure is classified with a short ping.
func sessionBroken(session *mcp.ClientSession, err error) bool {
	if errors.Is(err, mcp.ErrConnectionClosed) {
		return true
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return session.Ping(pingCtx, nil) != nil
}

func (c *Client) failSession(session *mcp.ClientSession) {
	_ = session.Close()
	c.mu.Lock()
	if c.session == session {
		c.state = StateFailed
		c.session = nil
	}
	c.mu.Unlock()
}

// Disconnect releases the transport and returns the client to Unconnected.
// Idempotent, always succeeds.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		if err := c.session.Close(); err != nil {
			logger.KV(xlog.DEBUG, "reason", "session_close", "endpoint", c.endpoint, "err", err.Error())
		}
		c.session = nil
	}
	c.catalog = nil
	c.state = StateUnconnected
}

func contentText(content []mcp.Content) string {
	var parts []string
	for _, item := range content {
		switch v := item.(type) {
		case *mcp.TextContent:
			parts = append(parts, v.Text)
		default:
			parts = append(parts, fmt.Sprintf("%v", v))
		}
	}
	return strings.Join(parts, "\n")
}
