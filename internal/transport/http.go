package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rpggio/drawbridge/internal/metrics"
)

// MCPHandler handles MCP method dispatch.
type MCPHandler interface {
	Handle(ctx context.Context, userID uuid.UUID, method string, params json.RawMessage) (any, error)
}

// coded is implemented by tool errors that carry a stable error code.
type coded interface {
	error
	CodeValue() string
}

// Options configures the HTTP router. Zero values disable the feature.
type Options struct {
	// Auth resolves the caller. Requests to /mcp without a user are rejected.
	Auth func(http.Handler) http.Handler
	// Metrics records request counts and latency.
	Metrics *metrics.Metrics
	// Gatherer backs GET /metrics.
	Gatherer prometheus.Gatherer
	// Streamable is mounted at /mcp/stream for MCP clients speaking the
	// streamable HTTP transport. It authenticates on its own.
	Streamable http.Handler
	Logger   *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	handler MCPHandler
	logger  *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(handler MCPHandler, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}

	srv := &Server{handler: handler, logger: logger}

	r.Get("/health", srv.handleHealth)
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	if opts.Streamable != nil {
		r.Handle("/mcp/stream", opts.Streamable)
	}

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		r.Post("/mcp", srv.handleMCP)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		WriteError(w, nil, requestErrorCode(err), err.Error(), nil)
		return
	}

	userID, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	result, err := s.handler.Handle(r.Context(), userID, req.Method, req.Params)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var ce coded
		if errors.As(err, &ce) {
			code := ErrInternal
			switch ce.CodeValue() {
			case "UNKNOWN_TOOL":
				code = ErrMethodNotFound
			case "INVALID_PARAMS":
				code = ErrInvalidParams
			}
			WriteError(w, req.ID, code, err.Error(), ce)
			return
		}
		s.logger.Error("tool call failed", "method", req.Method, "user_id", userID, "error", err)
		WriteError(w, req.ID, ErrInternal, err.Error(), nil)
		return
	}

	WriteResult(w, req.ID, result)
}
