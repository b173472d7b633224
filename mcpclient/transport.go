package mcpclient

import (
	"context"
	"net/url"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	stdioSchemePrefix = "stdio://"
	sseSchemePrefix   = "sse://"
)

// buildTransport maps an endpoint spec to an MCP transport.
// "stdio://<command args>" launches a subprocess speaking stdio,
// "sse://<host>" uses SSE, and plain http/https URLs use streamable HTTP.
func buildTransport(ctx context.Context, endpoint string) (mcp.Transport, error) {
	spec := strings.TrimSpace(endpoint)
	if spec == "" {
		return nil, errors.WithMessage(ErrConnection, "endpoint is empty")
	}

	lowered := strings.ToLower(spec)
	switch {
	case strings.HasPrefix(lowered, stdioSchemePrefix):
		return stdioTransport(ctx, spec[len(stdioSchemePrefix):])
	case strings.HasPrefix(lowered, sseSchemePrefix):
		endpoint, err := normalizeHTTPURL(spec[len(sseSchemePrefix):], true)
		if err != nil {
			return nil, errors.WithMessagef(ErrConnection, "invalid SSE endpoint: %s", err.Error())
		}
		return &mcp.SSEClientTransport{Endpoint: endpoint}, nil
	case strings.HasPrefix(lowered, "http://"), strings.HasPrefix(lowered, "https://"):
		endpoint, err := normalizeHTTPURL(spec, false)
		if err != nil {
			return nil, errors.WithMessagef(ErrConnection, "invalid HTTP endpoint: %s", err.Error())
		}
		return &mcp.StreamableClientTransport{Endpoint: endpoint}, nil
	}

	return stdioTransport(ctx, spec)
}

func stdioTransport(ctx context.Context, cmdSpec string) (mcp.Transport, error) {
	parts := strings.Fields(strings.TrimSpace(cmdSpec))
	if len(parts) == 0 {
		return nil, errors.WithMessage(ErrConnection, "stdio command is empty")
	}
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	return &mcp.CommandTransport{Command: cmd}, nil
}

func normalizeHTTPURL(raw string, allowSchemeGuess bool) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("endpoint is empty")
	}
	if allowSchemeGuess && !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", errors.Newf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", errors.New("missing host")
	}
	parsed.Scheme = scheme
	return parsed.String(), nil
}
