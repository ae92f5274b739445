package cli

import (
	"context"
	"errors"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/docsearch/documenter-mcp/internal/api"
	"github.com/docsearch/documenter-mcp/internal/config"
	"github.com/docsearch/documenter-mcp/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func newCmdServe(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio (default)",
		Args:  cobra.NoArgs,
		RunE:  a.run(a.runMCP),
	}
}

func newCmdHTTP(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Run the JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE:  a.run(a.runHTTP),
	}
	cmd.Flags().String("addr", ":18080", "listen address")
	a.v.BindPFlag(config.KeyHTTPAddr, cmd.Flags().Lookup("addr"))
	return cmd
}

// runMCP serves the documentation tools on stdin/stdout until the client
// disconnects or the process is signalled.
func (a *app) runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info().Str("version", a.version).Msgf("%s starting...", ServerName)

	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: a.version,
		},
		nil, // Default options
	)
	tools.RegisterDocSearchTools(ctx, server, tools.NewDocSearch(a.svc, &a.logger))

	a.logger.Info().Msg("✓ Server ready and waiting for connections")

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		// EOF / "server is closing" is expected when stdin closes
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "server is closing") {
			a.logger.Debug().Err(err).Msg("MCP server stopped")
			return nil
		}
		a.logger.Error().Err(err).Msg("Server error")
		return err
	}
	return nil
}

// runHTTP serves the JSON API until the process is signalled
func (a *app) runHTTP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.svc.Initialize(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("Warning: Documentation search initialization failed, will retry on first request")
	}

	container := api.NewContainer(api.NewHandler(a.svc, a.version, &a.logger), &a.logger)
	return api.Serve(ctx, a.cfg.HTTPAddr, api.NewHTTPHandler(container), &a.logger)
}
