package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/drawbridge/internal/domain/activity"
	"github.com/rpggio/drawbridge/internal/domain/namespace"
	"github.com/rpggio/drawbridge/internal/domain/session"
	"github.com/rpggio/drawbridge/internal/domain/table"
)

// ErrUnknownTool indicates a call to a tool that isn't in the catalog.
var ErrUnknownTool = errors.New("unknown tool")

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// MapError maps domain errors to MCP error codes. It returns nil for
// errors it doesn't recognize.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	msg := err.Error()
	switch {
	case errors.Is(err, table.ErrStorage):
		return &APIError{Code: "STORAGE_ERROR", Message: msg, RecoveryHint: "Retry; run reconcile_tables if a table is missing its data"}
	case errors.Is(err, table.ErrTableNotFound), errors.Is(err, session.ErrTableNotFound):
		return &APIError{Code: "TABLE_NOT_FOUND", Message: "table not found", RecoveryHint: "Call list_tables for valid ids"}
	case errors.Is(err, table.ErrFieldNotFound):
		return &APIError{Code: "FIELD_NOT_FOUND", Message: msg, RecoveryHint: "Call get_table for the table's field ids"}
	case errors.Is(err, table.ErrRowNotFound):
		return &APIError{Code: "ROW_NOT_FOUND", Message: "row not found"}
	case errors.Is(err, table.ErrInvalidValue):
		return &APIError{Code: "INVALID_VALUE", Message: msg, RecoveryHint: "Send values matching each field's data type"}
	case errors.Is(err, table.ErrTableExists):
		return &APIError{Code: "TABLE_EXISTS", Message: "a table with this name already exists"}
	case errors.Is(err, table.ErrMixedTables):
		return &APIError{Code: "MIXED_TABLES", Message: msg, RecoveryHint: "Send one batch per table"}
	case errors.Is(err, table.ErrNamespaceNotFound), errors.Is(err, namespace.ErrNamespaceNotFound):
		return &APIError{Code: "NAMESPACE_NOT_FOUND", Message: "namespace not found", RecoveryHint: "Call list_namespaces for valid ids"}
	case errors.Is(err, namespace.ErrNamespaceExists):
		return &APIError{Code: "NAMESPACE_EXISTS", Message: "a namespace with this name already exists"}
	case errors.Is(err, session.ErrSessionNotFound):
		return &APIError{Code: "SESSION_NOT_FOUND", Message: "session not found", RecoveryHint: "Start a new session"}
	case errors.Is(err, table.ErrInvalidInput), errors.Is(err, namespace.ErrInvalidInput),
		errors.Is(err, session.ErrInvalidInput), errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: msg}
	case errors.Is(err, ErrUnknownTool):
		return &APIError{Code: "UNKNOWN_TOOL", Message: msg, RecoveryHint: "Call tools/list for available tools"}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}

func invalidParams(err error) error {
	return &APIError{Code: "INVALID_PARAMS", Message: err.Error()}
}
