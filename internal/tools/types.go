// Package tools provides shared plumbing for MCP tool handlers: the tool
// context, registration types, response helpers, and output formatting.
package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notekit/notebook-mcp/internal/host"
	"github.com/notekit/notebook-mcp/internal/notebook"
)

// Logger defines the logging interface for tools.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	WithTool(toolName string) Logger
}

// Context contains the dependencies every tool handler works through.
type Context struct {
	Logger    Logger
	Workspace host.Workspace
	Guard     *notebook.Guard
	Gateway   *notebook.Gateway
	Waiter    notebook.Waiter
}

// ServerTool couples a tool schema with its registration function. The
// RegisterFunc indirection keeps the generic mcp.AddTool call, which needs
// the handler's concrete argument type, inside the package defining it.
type ServerTool struct {
	Tool         *mcp.Tool
	RegisterFunc func(server *mcp.Server)
}

// Resolve runs the access guard for the given operation class and explicit
// URI. On denial it returns a ready-made tool error result.
func (c *Context) Resolve(op notebook.Op, explicitURI string) (host.Document, *mcp.CallToolResultFor[any]) {
	doc, decision := c.Guard.Check(op, explicitURI)
	if !decision.Allowed {
		return nil, ErrorResponse(decision.Reason)
	}
	return doc, nil
}
