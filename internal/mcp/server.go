package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/drawbridge/internal/domain/session"
)

// Config contains server configuration.
type Config struct {
	Handler     *Handler
	Resolver    UserResolver
	AuthEnabled bool
	// TransportMode is "stdio" or "http". Stdio never authenticates.
	TransportMode string
	// LocalUser owns requests when auth is off. Defaults to session.LocalUserID.
	LocalUser uuid.UUID
	Logger    *slog.Logger
	Version   string
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.LocalUser == uuid.Nil {
		cfg.LocalUser = session.LocalUserID
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "drawbridge",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	if cfg.TransportMode != "stdio" && cfg.AuthEnabled && cfg.Resolver != nil {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware(cfg.LocalUser))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Handler, cfg.LocalUser)

	return server
}

// registerTools exposes every catalog entry as an SDK tool backed by h.
func registerTools(server *sdkmcp.Server, h *Handler, fallbackUser uuid.UUID) {
	for _, def := range buildToolCatalog() {
		name := def.Name
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			userID, ok := userFromContext(ctx)
			if !ok {
				userID = fallbackUser
			}
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := h.Handle(ctx, userID, name, args)
			if err != nil {
				return toolError(err), nil
			}
			return toolResult(result)
		})
	}
}

func toolResult(result any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}

func toolError(err error) *sdkmcp.CallToolResult {
	payload := MapError(err)
	if payload == nil {
		payload = &APIError{Code: "INTERNAL", Message: err.Error()}
	}
	data, _ := json.Marshal(payload)
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}
