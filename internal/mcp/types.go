package mcp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/drawbridge/internal/domain/activity"
	"github.com/rpggio/drawbridge/internal/domain/table"
)

type ListTablesParams struct {
	NamespaceID *int64 `json:"namespace_id,omitempty"`
}

type GetTableParams struct {
	TableID int64 `json:"table_id"`
}

type UpdateTableParams struct {
	TableID     int64   `json:"table_id"`
	Name        *string `json:"name,omitempty"`
	VerboseName *string `json:"verbose_name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type FetchRowsParams struct {
	TableID        int64                  `json:"table_id"`
	Limit          int                    `json:"limit,omitempty"`
	Offset         int                    `json:"offset,omitempty"`
	OrderingParams []table.OrderingParam  `json:"ordering_params,omitempty"`
	FilterParams   []table.FilteringParam `json:"filter_params,omitempty"`
}

// ValueParam is one incoming cell value. Value is kept raw and parsed
// against the field's data type.
type ValueParam struct {
	FieldID int64 `json:"field_id"`
	Value   any   `json:"value"`
}

type InsertRowParams struct {
	Values []ValueParam `json:"values"`
}

type InsertRowsParams struct {
	TableID int64             `json:"table_id"`
	Rows    []InsertRowParams `json:"rows"`
}

type UpdateRowParams struct {
	RowID     int64        `json:"row_id"`
	NewValues []ValueParam `json:"new_values"`
}

type UpdateRowsParams struct {
	TableID     int64             `json:"table_id"`
	UpdatedRows []UpdateRowParams `json:"updated_rows"`
}

type DeleteRowsParams struct {
	TableID int64   `json:"table_id"`
	RowIDs  []int64 `json:"row_ids"`
}

type ReconcileTablesParams struct {
	Repair bool `json:"repair,omitempty"`
}

type CreateNamespaceParams struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type NamespaceIDParams struct {
	ID int64 `json:"id"`
}

type UpdateNamespaceParams struct {
	ID          int64   `json:"id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type CreateSessionParams struct {
	TableID int64 `json:"table_id"`
}

type CloseSessionParams struct {
	SessionID int64 `json:"session_id"`
}

type ListSessionsParams struct {
	TableID  *int64     `json:"table_id,omitempty"`
	UserID   *uuid.UUID `json:"user_id,omitempty"`
	IsClosed *bool      `json:"is_closed,omitempty"`
}

type GetRecentActivityParams struct {
	TableID *int64                 `json:"table_id,omitempty"`
	Type    *activity.ActivityType `json:"type,omitempty"`
	Limit   int                    `json:"limit,omitempty"`
	Offset  int                    `json:"offset,omitempty"`
}

// ValueResponse is one outgoing cell value. Display carries the choice
// text for choice fields.
type ValueResponse struct {
	FieldID int64          `json:"field_id"`
	Type    table.DataType `json:"type"`
	Value   any            `json:"value"`
	Display string         `json:"display,omitempty"`
}

type RowResponse struct {
	ID     int64           `json:"id"`
	Values []ValueResponse `json:"values"`
}

type FetchRowsResponse struct {
	Total int64         `json:"total"`
	Rows  []RowResponse `json:"rows"`
}

// BulkRowsResponse reports the outcome of a bulk row tool. Failures are
// reported in Errors rather than as a call error.
type BulkRowsResponse struct {
	Success bool          `json:"success"`
	Errors  []string      `json:"errors"`
	Rows    []RowResponse `json:"rows,omitempty"`
	Deleted *int64        `json:"deleted,omitempty"`
}

type ReconcileResponse struct {
	Repair bool                    `json:"repair"`
	Tables []table.ReconcileStatus `json:"tables"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ActivityEntryResponse struct {
	ID        int64                 `json:"id"`
	Timestamp time.Time             `json:"timestamp"`
	Type      activity.ActivityType `json:"type"`
	TableID   *int64                `json:"table_id,omitempty"`
	SessionID *int64                `json:"session_id,omitempty"`
	Summary   string                `json:"summary"`
}

// ToolDefinition describes a callable tool.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type ToolListResponse struct {
	Tools []ToolDefinition `json:"tools"`
}

func encodeRow(tbl *table.Table, row table.Row) RowResponse {
	out := RowResponse{ID: row.RowID, Values: make([]ValueResponse, 0, len(row.Values))}
	for _, rd := range row.Values {
		vr := ValueResponse{FieldID: rd.FieldID, Value: nil}
		if f, ok := tbl.FieldByID(rd.FieldID); ok {
			vr.Type = f.DataType
			if text, ok := table.ChoiceDisplay(f, rd.Value); ok {
				vr.Display = text
			}
		}
		if !table.IsNull(rd.Value) {
			vr.Value = rd.Value.Raw()
			if vr.Type == "" {
				vr.Type = rd.Value.Type()
			}
		}
		out.Values = append(out.Values, vr)
	}
	return out
}

func encodeRows(tbl *table.Table, rows []table.Row) []RowResponse {
	out := make([]RowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, encodeRow(tbl, row))
	}
	return out
}

// decodeValues resolves wire values against tbl. Unknown field ids are
// passed through so the engine can reject them. A choice field also
// accepts the choice text in place of its id.
func decodeValues(tbl *table.Table, params []ValueParam) []table.RowData {
	out := make([]table.RowData, 0, len(params))
	for _, p := range params {
		f, ok := tbl.FieldByID(p.FieldID)
		if !ok {
			out = append(out, table.RowData{FieldID: p.FieldID, Value: table.ParseValue(table.TypeNull, p.Value)})
			continue
		}
		if text, isText := p.Value.(string); isText && f.DataType == table.TypeChoice {
			if c, found := choiceByText(f, text); found {
				out = append(out, table.RowData{FieldID: f.ID, Value: table.ChoiceValue(c.ID)})
				continue
			}
		}
		out = append(out, table.RowData{FieldID: f.ID, Value: table.ParseValue(f.DataType, p.Value)})
	}
	return out
}

func choiceByText(f *table.Field, text string) (table.Choice, bool) {
	for _, c := range f.Choices {
		if c.Value == text {
			return c, true
		}
	}
	return table.Choice{}, false
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := decodeJSON(params, out); err != nil {
		return invalidParams(err)
	}
	return nil
}
