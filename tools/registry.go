package tools

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpagent/pkg/llms"
)

var (
	// ErrDuplicateTool is returned when a tool with the same name is already registered.
	ErrDuplicateTool = errors.New("tool with this name is already registered")
	// ErrUnknownTool is returned when a tool is not found in the registry.
	ErrUnknownTool = errors.New("tool not found")
)

// Registry holds the tools available to an agent, keyed by name.
// Registration order is preserved for tool definitions sent to the model.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]ITool
	names []string
}

// NewRegistry returns an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]ITool),
	}
}

// Register adds a tool to the registry.
// Returns ErrDuplicateTool if a tool with the same name is already registered.
func (r *Registry) Register(list ...ITool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tool := range list {
		name := tool.Name()
		if _, ok := r.tools[name]; ok {
			return errors.WithMessagef(ErrDuplicateTool, "tool: %s", name)
		}
		r.tools[name] = tool
		r.names = append(r.names, name)
	}
	return nil
}

// Get returns the tool with the given name.
// Returns ErrUnknownTool if no such tool is registered.
func (r *Registry) Get(name string) (ITool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	if !ok {
		return nil, errors.WithMessagef(ErrUnknownTool, "tool: %s", name)
	}
	return tool, nil
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []ITool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ITool, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.tools[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Definitions returns the function definitions for all registered tools,
// in registration order, for passing to the model.
func (r *Registry) Definitions() []llms.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]llms.Tool, 0, len(r.names))
	for _, name := range r.names {
		tool := r.tools[name]
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  tool.Parameters(),
			},
		})
	}
	return out
}
