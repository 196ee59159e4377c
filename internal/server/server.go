// Package server assembles the MCP server, its HTTP endpoints, and the
// single-owner port protocol that decides which editor-window process
// serves them.
package server

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notekit/notebook-mcp/internal/collections"
	"github.com/notekit/notebook-mcp/internal/config"
	"github.com/notekit/notebook-mcp/internal/host"
	"github.com/notekit/notebook-mcp/internal/logging"
	"github.com/notekit/notebook-mcp/internal/notebook"
	"github.com/notekit/notebook-mcp/internal/tools"
	"github.com/notekit/notebook-mcp/internal/tools/cells"
	"github.com/notekit/notebook-mcp/internal/tools/docs"
	"github.com/notekit/notebook-mcp/internal/tools/kernel"
	"github.com/notekit/notebook-mcp/internal/tools/search"
	"github.com/notekit/notebook-mcp/pkg/version"
)

// ServerName identifies this server in MCP handshakes and health probes.
const ServerName = "notebook-mcp"

// loggerAdapter wraps logging.Logger to implement tools.Logger. The
// indirection avoids a circular dependency between logging and tools.
type loggerAdapter struct {
	*logging.Logger
}

// WithTool implements tools.Logger.
func (a *loggerAdapter) WithTool(toolName string) tools.Logger {
	return &loggerAdapter{Logger: a.Logger.WithTool(toolName)}
}

// Server is the notebook MCP server for one editor window.
type Server struct {
	mcpServer  *mcp.Server
	logger     *logging.Logger
	cfg        config.Config
	workspace  host.Workspace
	instanceID string
	toolCount  int
}

// Options configures the server instance.
type Options struct {
	Config    config.Config
	Logger    *logging.Logger
	Workspace host.Workspace
}

// New creates a notebook MCP server with all tools registered.
func New(opts *Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger(opts.Config.LogLevel)
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: version.GetVersion().Version,
	}, nil)

	server := &Server{
		mcpServer:  mcpServer,
		logger:     opts.Logger,
		cfg:        opts.Config,
		workspace:  opts.Workspace,
		instanceID: uuid.NewString(),
	}

	server.registerTools()

	return server, nil
}

// InstanceID returns the unique identifier of this server process instance.
func (s *Server) InstanceID() string {
	return s.instanceID
}

// registerTools wires all notebook tools into the MCP server.
func (s *Server) registerTools() {
	toolCtx := &tools.Context{
		Logger:    &loggerAdapter{Logger: s.logger},
		Workspace: s.workspace,
		Guard:     notebook.NewGuard(s.workspace),
		Gateway:   notebook.NewGateway(s.logger),
		Waiter: notebook.Waiter{
			Interval: s.cfg.PollInterval.Duration,
			Timeout:  s.cfg.ExecutionTimeout.Duration,
		},
	}

	cellTools := cells.CreateCellTools(toolCtx)
	docTools := docs.CreateDocTools(toolCtx)
	searchTools := search.CreateSearchTools(toolCtx)
	kernelTools := kernel.CreateKernelTools(toolCtx)

	allTools := collections.Concat(
		cellTools,
		docTools,
		searchTools,
		kernelTools,
	)

	var toolNames []string
	for _, tool := range allTools {
		// RegisterFunc keeps the generic mcp.AddTool call next to the
		// handler's concrete argument type.
		tool.RegisterFunc(s.mcpServer)
		toolNames = append(toolNames, tool.Tool.Name)
	}
	s.toolCount = len(allTools)

	s.logger.Info("Registered tools",
		slog.Int("count", len(allTools)),
		slog.Any("tools", toolNames),
	)
}

// MCPHandler returns the streamable HTTP handler serving the MCP endpoint.
func (s *Server) MCPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

// NewOwnership builds the port ownership controller wired to this server's
// HTTP routes.
func (s *Server) NewOwnership() *Ownership {
	own := newOwnership(s.cfg, s.logger, s.workspace)
	own.handler = s.routes(own)
	return own
}
