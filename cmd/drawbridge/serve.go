package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/rpggio/drawbridge/internal/config"
	"github.com/rpggio/drawbridge/internal/domain/session"
	"github.com/rpggio/drawbridge/internal/mcp"
	"github.com/rpggio/drawbridge/internal/transport"
)

// serveTransport overrides the configured transport mode when set.
var serveTransport string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the storage engine over MCP",
	Long: `Serve the storage engine. In stdio mode MCP runs over stdin/stdout
and every request belongs to the local user. In http mode JSON-RPC is served
at /mcp, MCP streamable HTTP at /mcp/stream, plus /health and /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		handler := a.handler(logger)
		mcpServer := mcp.NewServer(mcp.Config{
			Handler:       handler,
			Resolver:      a.apiKeys,
			AuthEnabled:   cfg.Auth.Enabled,
			TransportMode: cfg.Transport.Mode,
			LocalUser:     session.LocalUserID,
			Logger:        logger,
			Version:       version,
		})

		if cfg.Transport.Mode == config.TransportStdio {
			return runStdio(ctx, mcpServer)
		}
		return runHTTP(ctx, a, handler, mcpServer)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "transport mode: stdio or http (default from config)")
}

func runStdio(ctx context.Context, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or the context is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTP(ctx context.Context, a *app, handler *mcp.Handler, mcpServer *sdkmcp.Server) error {
	auth := transport.LocalUserMiddleware(session.LocalUserID)
	if cfg.Auth.Enabled {
		auth = transport.AuthMiddleware(a.apiKeys)
	}

	streamable := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)

	router := transport.NewServer(handler, transport.Options{
		Auth:       auth,
		Metrics:    a.metrics,
		Gatherer:   a.registry,
		Streamable: streamable,
		Logger:     logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr, "auth", cfg.Auth.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
