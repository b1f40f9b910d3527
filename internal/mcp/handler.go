package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/rpggio/drawbridge/internal/domain/activity"
	"github.com/rpggio/drawbridge/internal/domain/namespace"
	"github.com/rpggio/drawbridge/internal/domain/session"
	"github.com/rpggio/drawbridge/internal/domain/table"
)

// TableService defines table storage operations needed by MCP.
type TableService interface {
	CreateTable(ctx context.Context, def *table.UnsavedTable) (*table.Table, error)
	UpdateTable(ctx context.Context, tbl *table.Table) (*table.Table, error)
	GetTable(ctx context.Context, id int64) (*table.Table, error)
	ListTables(ctx context.Context) ([]table.Table, error)
	FetchPage(ctx context.Context, tbl *table.Table, opts table.FetchOptions) (*table.Page, error)
	InsertRows(ctx context.Context, rows []table.InsertRow) ([]table.Row, error)
	UpdateRows(ctx context.Context, rows []table.UpdateRow) ([]table.Row, error)
	DeleteRows(ctx context.Context, tbl *table.Table, rowIDs []int64) (int64, error)
	Reconcile(ctx context.Context, repair bool) ([]table.ReconcileStatus, error)
}

// NamespaceService defines namespace operations needed by MCP.
type NamespaceService interface {
	Create(ctx context.Context, req namespace.CreateRequest) (*namespace.Namespace, error)
	Get(ctx context.Context, id int64) (*namespace.Namespace, error)
	List(ctx context.Context) ([]namespace.Namespace, error)
	Update(ctx context.Context, req namespace.UpdateRequest) (*namespace.Namespace, error)
	Delete(ctx context.Context, id int64) error
}

// SessionService defines edit session operations needed by MCP.
type SessionService interface {
	CreateSession(ctx context.Context, userID uuid.UUID, tableID int64) (*session.Session, error)
	CloseSession(ctx context.Context, id int64) error
	ListSessions(ctx context.Context, filter session.ListFilter) ([]session.Session, error)
	OpenSessionsForUser(ctx context.Context, userID uuid.UUID) ([]session.Session, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Tables     TableService
	Namespaces NamespaceService
	Sessions   SessionService
	Activity   ActivityService
}

// Handler dispatches tool calls to domain services.
type Handler struct {
	tables     TableService
	namespaces NamespaceService
	sessions   SessionService
	activity   ActivityService
	logger     *slog.Logger
}

// NewHandler creates a new MCP handler.
func NewHandler(services Services, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		tables:     services.Tables,
		namespaces: services.Namespaces,
		sessions:   services.Sessions,
		activity:   services.Activity,
		logger:     logger,
	}
}

// Handle runs the named tool on behalf of userID.
func (h *Handler) Handle(ctx context.Context, userID uuid.UUID, method string, params json.RawMessage) (any, error) {
	switch method {
	case "tools/list":
		return ToolListResponse{Tools: buildToolCatalog()}, nil

	// Tables
	case "list_tables":
		var req ListTablesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		tables, err := h.tables.ListTables(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		if req.NamespaceID == nil {
			return tables, nil
		}
		filtered := make([]table.Table, 0, len(tables))
		for _, t := range tables {
			if t.NamespaceID != nil && *t.NamespaceID == *req.NamespaceID {
				filtered = append(filtered, t)
			}
		}
		return filtered, nil
	case "get_table":
		var req GetTableParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		tbl, err := h.tables.GetTable(ctx, req.TableID)
		if err != nil {
			return nil, mapError(err)
		}
		return tbl, nil
	case "create_table":
		var req table.UnsavedTable
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		tbl, err := h.tables.CreateTable(ctx, &req)
		if err != nil {
			return nil, mapError(err)
		}
		return tbl, nil
	case "update_table":
		var req UpdateTableParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		tbl, err := h.tables.GetTable(ctx, req.TableID)
		if err != nil {
			return nil, mapError(err)
		}
		if req.Name != nil {
			tbl.Name = strings.TrimSpace(*req.Name)
		}
		if req.VerboseName != nil {
			tbl.VerboseName = *req.VerboseName
		}
		if req.Description != nil {
			tbl.Description = req.Description
		}
		updated, err := h.tables.UpdateTable(ctx, tbl)
		if err != nil {
			return nil, mapError(err)
		}
		return updated, nil
	case "reconcile_tables":
		var req ReconcileTablesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		report, err := h.tables.Reconcile(ctx, req.Repair)
		if err != nil {
			return nil, mapError(err)
		}
		return ReconcileResponse{Repair: req.Repair, Tables: report}, nil

	// Rows
	case "fetch_rows":
		var req FetchRowsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		tbl, err := h.tables.GetTable(ctx, req.TableID)
		if err != nil {
			return nil, mapError(err)
		}
		page, err := h.tables.FetchPage(ctx, tbl, table.FetchOptions{
			Limit:     req.Limit,
			Offset:    req.Offset,
			Ordering:  req.OrderingParams,
			Filtering: req.FilterParams,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return FetchRowsResponse{Total: page.Total, Rows: encodeRows(tbl, page.Rows)}, nil
	case "insert_rows":
		var req InsertRowsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.insertRows(ctx, req), nil
	case "update_rows":
		var req UpdateRowsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.updateRows(ctx, req), nil
	case "delete_rows":
		var req DeleteRowsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.deleteRows(ctx, req), nil

	// Namespaces
	case "list_namespaces":
		list, err := h.namespaces.List(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return list, nil
	case "create_namespace":
		var req CreateNamespaceParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		ns, err := h.namespaces.Create(ctx, namespace.CreateRequest{Name: req.Name, Description: req.Description})
		if err != nil {
			return nil, mapError(err)
		}
		return ns, nil
	case "get_namespace":
		var req NamespaceIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		ns, err := h.namespaces.Get(ctx, req.ID)
		if err != nil {
			return nil, mapError(err)
		}
		return ns, nil
	case "update_namespace":
		var req UpdateNamespaceParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		ns, err := h.namespaces.Update(ctx, namespace.UpdateRequest{ID: req.ID, Name: req.Name, Description: req.Description})
		if err != nil {
			return nil, mapError(err)
		}
		return ns, nil
	case "delete_namespace":
		var req NamespaceIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.namespaces.Delete(ctx, req.ID); err != nil {
			return nil, mapError(err)
		}
		return StatusResponse{Status: "deleted"}, nil

	// Sessions
	case "create_session":
		var req CreateSessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.sessions.CreateSession(ctx, userID, req.TableID)
		if err != nil {
			return nil, mapError(err)
		}
		return sess, nil
	case "close_session":
		var req CloseSessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.sessions.CloseSession(ctx, req.SessionID); err != nil {
			return nil, mapError(err)
		}
		return StatusResponse{Status: "closed"}, nil
	case "list_sessions":
		var req ListSessionsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		list, err := h.sessions.ListSessions(ctx, session.ListFilter{
			TableID:  req.TableID,
			UserID:   req.UserID,
			IsClosed: req.IsClosed,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return list, nil
	case "my_sessions":
		list, err := h.sessions.OpenSessionsForUser(ctx, userID)
		if err != nil {
			return nil, mapError(err)
		}
		return list, nil

	// Activity
	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		entries, err := h.activity.GetRecentActivity(ctx, activity.ListActivityOptions{
			TableID:      req.TableID,
			ActivityType: req.Type,
			Limit:        req.Limit,
			Offset:       req.Offset,
		})
		if err != nil {
			return nil, mapError(err)
		}
		resp := make([]ActivityEntryResponse, 0, len(entries))
		for _, entry := range entries {
			resp = append(resp, ActivityEntryResponse{
				ID:        entry.ID,
				Timestamp: entry.CreatedAt,
				Type:      entry.ActivityType,
				TableID:   entry.TableID,
				SessionID: entry.SessionID,
				Summary:   entry.Summary,
			})
		}
		return resp, nil
	default:
		return nil, mapError(fmt.Errorf("%w: %s", ErrUnknownTool, method))
	}
}

func (h *Handler) insertRows(ctx context.Context, req InsertRowsParams) BulkRowsResponse {
	tbl, err := h.tables.GetTable(ctx, req.TableID)
	if err != nil {
		return h.bulkFailure("insert_rows", err)
	}
	rows := make([]table.InsertRow, 0, len(req.Rows))
	for _, r := range req.Rows {
		rows = append(rows, table.InsertRow{Table: tbl, Values: decodeValues(tbl, r.Values)})
	}
	inserted, err := h.tables.InsertRows(ctx, rows)
	if err != nil {
		return h.bulkFailure("insert_rows", err)
	}
	return BulkRowsResponse{Success: true, Errors: []string{}, Rows: encodeRows(tbl, inserted)}
}

func (h *Handler) updateRows(ctx context.Context, req UpdateRowsParams) BulkRowsResponse {
	tbl, err := h.tables.GetTable(ctx, req.TableID)
	if err != nil {
		return h.bulkFailure("update_rows", err)
	}
	rows := make([]table.UpdateRow, 0, len(req.UpdatedRows))
	for _, r := range req.UpdatedRows {
		rows = append(rows, table.UpdateRow{Table: tbl, RowID: r.RowID, Values: decodeValues(tbl, r.NewValues)})
	}
	updated, err := h.tables.UpdateRows(ctx, rows)
	if err != nil {
		return h.bulkFailure("update_rows", err)
	}
	return BulkRowsResponse{Success: true, Errors: []string{}, Rows: encodeRows(tbl, updated)}
}

func (h *Handler) deleteRows(ctx context.Context, req DeleteRowsParams) BulkRowsResponse {
	tbl, err := h.tables.GetTable(ctx, req.TableID)
	if err != nil {
		return h.bulkFailure("delete_rows", err)
	}
	n, err := h.tables.DeleteRows(ctx, tbl, req.RowIDs)
	if err != nil {
		return h.bulkFailure("delete_rows", err)
	}
	return BulkRowsResponse{Success: true, Errors: []string{}, Deleted: &n}
}

func (h *Handler) bulkFailure(tool string, err error) BulkRowsResponse {
	h.logger.Debug("bulk row tool failed", "tool", tool, "error", err)
	msg := err.Error()
	if apiErr := MapError(err); apiErr != nil {
		msg = apiErr.Error()
	}
	return BulkRowsResponse{Success: false, Errors: []string{msg}}
}

func decodeJSON(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}
