// Package main implements the notebook MCP server executable. It exposes
// notebook cell operations of one editor window as MCP tools over a local
// HTTP endpoint on a shared well-known port.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/notekit/notebook-mcp/internal/config"
	"github.com/notekit/notebook-mcp/internal/host/fshost"
	"github.com/notekit/notebook-mcp/internal/logging"
	"github.com/notekit/notebook-mcp/internal/security"
	"github.com/notekit/notebook-mcp/internal/server"
	"github.com/notekit/notebook-mcp/pkg/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notebook-mcp",
	Short: "Notebook MCP server",
	Long: `Notebook MCP server exposes the notebook cells of one editor window as
MCP tools (insert, edit, delete, move, run) over a local HTTP endpoint.
All windows share one well-known port; the focused window serves it.`,
	RunE: runServer,
}

// serverFlags holds the flags for the server command
type serverFlags struct {
	configPath string
	port       int
	workspace  string
	logLevel   string
}

var serverOpts = &serverFlags{}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information and exit")

	rootCmd.Flags().StringVar(&serverOpts.configPath, "config", "", "Path to a TOML config file")
	rootCmd.Flags().IntVar(&serverOpts.port, "port", 0, "Shared well-known port to contend for")
	rootCmd.Flags().StringVar(&serverOpts.workspace, "workspace", "", "Directory scanned for notebooks")
	rootCmd.Flags().StringVar(&serverOpts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// runServer starts the notebook MCP server
func runServer(cmd *cobra.Command, args []string) error {
	if versionFlag, _ := cmd.Flags().GetBool("version"); versionFlag {
		fmt.Println(version.GetVersion().String())
		return nil
	}

	overrides := &config.Overrides{}
	if cmd.Flags().Changed("port") {
		overrides.Port = &serverOpts.port
	}
	if cmd.Flags().Changed("workspace") {
		overrides.WorkspaceRoot = &serverOpts.workspace
	}
	if cmd.Flags().Changed("log-level") {
		overrides.LogLevel = &serverOpts.logLevel
	}

	cfg, err := config.Load(serverOpts.configPath, overrides)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	validator, err := security.NewDefaultValidator(cfg.WorkspaceRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	workspace, err := fshost.NewWorkspace(cfg.WorkspaceRoot, validator, logger)
	if err != nil {
		logger.Error("Failed to open workspace", slog.Any("error", err))
		return fmt.Errorf("failed to open workspace: %w", err)
	}
	defer func() {
		if err := workspace.Close(); err != nil {
			logger.Warn("Failed to close workspace", slog.Any("error", err))
		}
	}()

	srv, err := server.New(&server.Options{
		Config:    *cfg,
		Logger:    logger,
		Workspace: workspace,
	})
	if err != nil {
		logger.Error("Failed to create server", slog.Any("error", err))
		return fmt.Errorf("failed to create server: %w", err)
	}

	ownership := srv.NewOwnership()
	if err := ownership.Start(ctx); err != nil {
		logger.Error("Failed to contend for port", slog.Any("error", err))
		return err
	}

	logger.Info("Notebook MCP server started",
		slog.String("version", version.GetVersion().Version),
		slog.String("instance", srv.InstanceID()),
		slog.String("addr", ownership.Addr()),
		slog.String("state", ownership.State().String()),
	)

	if err := ownership.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", slog.Any("error", err))
		return err
	}

	logger.Info("Notebook MCP server stopped")
	return nil
}
