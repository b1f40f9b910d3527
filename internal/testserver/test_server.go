// Package testserver runs the full HTTP stack over in-memory databases.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rpggio/drawbridge/internal/domain/activity"
	"github.com/rpggio/drawbridge/internal/domain/namespace"
	"github.com/rpggio/drawbridge/internal/domain/session"
	"github.com/rpggio/drawbridge/internal/domain/table"
	"github.com/rpggio/drawbridge/internal/mcp"
	"github.com/rpggio/drawbridge/internal/metrics"
	"github.com/rpggio/drawbridge/internal/physical"
	"github.com/rpggio/drawbridge/internal/sqlite"
	"github.com/rpggio/drawbridge/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Store    *physical.Store
	Registry *prometheus.Registry
	Token    string
	UserID   uuid.UUID

	apiKeys *sqlite.APIKeyRepository
}

// New starts a server that requires bearer auth and registers token for
// userID.
func New(t *testing.T, token string, userID uuid.UUID) *TestServer {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(ctx))

	store, err := physical.Open("sqlite", ":memory:", nil)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	activityRepo := sqlite.NewActivityRepository(db)
	handler := mcp.NewHandler(mcp.Services{
		Tables: table.NewService(sqlite.NewTableRepository(db), store, nil, table.Options{
			Activities: activityRepo,
			Metrics:    m,
		}),
		Namespaces: namespace.NewService(sqlite.NewNamespaceRepository(db), nil),
		Sessions: session.NewService(sqlite.NewSessionRepository(db), nil, session.Options{
			Activities: activityRepo,
			Metrics:    m,
		}),
		Activity: activity.NewService(activityRepo, nil),
	}, nil)

	apiKeys := sqlite.NewAPIKeyRepository(db)
	server := httptest.NewServer(transport.NewServer(handler, transport.Options{
		Auth:     transport.AuthMiddleware(apiKeys),
		Metrics:  m,
		Gatherer: registry,
	}))

	ts := &TestServer{
		Server:   server,
		DB:       db,
		Store:    store,
		Registry: registry,
		Token:    token,
		UserID:   userID,
		apiKeys:  apiKeys,
	}

	require.NoError(t, ts.AddAPIKey(token, userID))

	t.Cleanup(func() {
		server.Close()
		_ = store.Close()
		_ = db.Close()
	})

	return ts
}

func (ts *TestServer) AddAPIKey(token string, userID uuid.UUID) error {
	return ts.apiKeys.Add(context.Background(), token, userID, "test")
}

// Call posts a JSON-RPC request with the server's token.
func (ts *TestServer) Call(t *testing.T, method string, params any) transport.Response {
	t.Helper()
	return ts.CallAs(t, ts.Token, method, params)
}

// CallAs posts a JSON-RPC request with the given token. It fails the test
// unless the server answers 200.
func (ts *TestServer) CallAs(t *testing.T, token, method string, params any) transport.Response {
	t.Helper()
	resp := ts.post(t, token, method, params)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out transport.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// Status posts a JSON-RPC request and returns only the HTTP status.
func (ts *TestServer) Status(t *testing.T, token, method string, params any) int {
	t.Helper()
	resp := ts.post(t, token, method, params)
	resp.Body.Close()
	return resp.StatusCode
}

// Result calls method and decodes a successful result into out.
func (ts *TestServer) Result(t *testing.T, method string, params, out any) {
	t.Helper()
	resp := ts.Call(t, method, params)
	require.Nil(t, resp.Error, "%s failed: %+v", method, resp.Error)
	data, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func (ts *TestServer) post(t *testing.T, token, method string, params any) *http.Response {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/mcp", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}
