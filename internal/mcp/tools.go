package mcp

import "github.com/rpggio/drawbridge/internal/domain/table"

func object(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func dataTypeNames() []string {
	names := make([]string, 0, len(table.DataTypes))
	for _, dt := range table.DataTypes {
		names = append(names, string(dt))
	}
	return names
}

var valueSchema = object(map[string]any{
	"field_id": prop("integer", "Field ID"),
	"value": map[string]any{
		"description": "Cell value; parsed per the field's data type. Choice fields take a choice id or its text. Null clears a nullable field",
	},
}, "field_id", "value")

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Tables
		{
			Name:        "list_tables",
			Description: "List all tables with their fields and choices",
			InputSchema: object(map[string]any{
				"namespace_id": prop("integer", "Only return tables in this namespace"),
			}),
		},
		{
			Name:        "get_table",
			Description: "Get a table definition with its fields and choices",
			InputSchema: object(map[string]any{
				"table_id": prop("integer", "Table ID"),
			}, "table_id"),
		},
		{
			Name:        "create_table",
			Description: "Create a table and its backing storage. Field named 'id' is reserved for the row identifier",
			InputSchema: object(map[string]any{
				"name":         prop("string", "Unique table name"),
				"verbose_name": prop("string", "Display name (defaults to name)"),
				"description":  prop("string", "Table description"),
				"namespace_id": prop("integer", "Namespace to place the table in"),
				"fields": map[string]any{
					"type":        "array",
					"description": "Field definitions, in column order",
					"items": object(map[string]any{
						"name":         prop("string", "Field name, unique within the table"),
						"verbose_name": prop("string", "Display name (defaults to name)"),
						"data_type": map[string]any{
							"type":        "string",
							"description": "Field data type",
							"enum":        dataTypeNames(),
						},
						"is_nullable":   prop("boolean", "Whether the field accepts null"),
						"default_value": prop("string", "Default as text; for choice fields a choice text or id"),
						"choices": map[string]any{
							"type":        "array",
							"description": "Allowed values of a choice field",
							"items":       map[string]any{"type": "string"},
						},
					}, "name", "data_type"),
				},
			}, "name"),
		},
		{
			Name:        "update_table",
			Description: "Rename a table or change its description. Fields are not changed",
			InputSchema: object(map[string]any{
				"table_id":     prop("integer", "Table ID"),
				"name":         prop("string", "New table name"),
				"verbose_name": prop("string", "New display name"),
				"description":  prop("string", "New description"),
			}, "table_id"),
		},
		{
			Name:        "reconcile_tables",
			Description: "Check every table has backing storage; with repair, create what is missing",
			InputSchema: object(map[string]any{
				"repair": prop("boolean", "Create missing storage tables"),
			}),
		},

		// Rows
		{
			Name:        "fetch_rows",
			Description: "Fetch a page of rows in insertion order, with the table's total row count",
			InputSchema: object(map[string]any{
				"table_id": prop("integer", "Table ID"),
				"limit":    prop("integer", "Maximum rows to return (default 100)"),
				"offset":   prop("integer", "Rows to skip"),
				"ordering_params": map[string]any{
					"type":        "array",
					"description": "Accepted but not applied yet",
					"items": object(map[string]any{
						"field_id":   prop("integer", "Field ID"),
						"descending": prop("boolean", "Descending order"),
					}),
				},
				"filter_params": map[string]any{
					"type":        "array",
					"description": "Accepted but not applied yet",
					"items": object(map[string]any{
						"field_id": prop("integer", "Field ID"),
						"operator": prop("string", "Comparison operator"),
						"value":    prop("string", "Value to compare with"),
					}),
				},
			}, "table_id"),
		},
		{
			Name:        "insert_rows",
			Description: "Insert rows into one table. Omitted fields take their default or null",
			InputSchema: object(map[string]any{
				"table_id": prop("integer", "Table ID"),
				"rows": map[string]any{
					"type":        "array",
					"description": "Rows to insert",
					"items": object(map[string]any{
						"values": map[string]any{"type": "array", "items": valueSchema},
					}, "values"),
				},
			}, "table_id", "rows"),
		},
		{
			Name:        "update_rows",
			Description: "Update rows of one table. Omitted fields keep their value",
			InputSchema: object(map[string]any{
				"table_id": prop("integer", "Table ID"),
				"updated_rows": map[string]any{
					"type":        "array",
					"description": "Row changes",
					"items": object(map[string]any{
						"row_id":     prop("integer", "Row ID"),
						"new_values": map[string]any{"type": "array", "items": valueSchema},
					}, "row_id", "new_values"),
				},
			}, "table_id", "updated_rows"),
		},
		{
			Name:        "delete_rows",
			Description: "Delete rows by id. Unknown ids are ignored",
			InputSchema: object(map[string]any{
				"table_id": prop("integer", "Table ID"),
				"row_ids": map[string]any{
					"type":        "array",
					"description": "Row IDs to delete",
					"items":       map[string]any{"type": "integer"},
				},
			}, "table_id", "row_ids"),
		},

		// Namespaces
		{
			Name:        "list_namespaces",
			Description: "List namespaces with the ids of their tables",
			InputSchema: object(map[string]any{}),
		},
		{
			Name:        "create_namespace",
			Description: "Create a namespace to group tables",
			InputSchema: object(map[string]any{
				"name":        prop("string", "Unique namespace name"),
				"description": prop("string", "Namespace description"),
			}, "name"),
		},
		{
			Name:        "get_namespace",
			Description: "Get a namespace with the ids of its tables",
			InputSchema: object(map[string]any{
				"id": prop("integer", "Namespace ID"),
			}, "id"),
		},
		{
			Name:        "update_namespace",
			Description: "Rename a namespace or change its description",
			InputSchema: object(map[string]any{
				"id":          prop("integer", "Namespace ID"),
				"name":        prop("string", "New name"),
				"description": prop("string", "New description"),
			}, "id"),
		},
		{
			Name:        "delete_namespace",
			Description: "Delete a namespace. Its tables are kept without a namespace",
			InputSchema: object(map[string]any{
				"id": prop("integer", "Namespace ID"),
			}, "id"),
		},

		// Edit sessions
		{
			Name:        "create_session",
			Description: "Mark that you are editing a table. Sessions expire after a few minutes",
			InputSchema: object(map[string]any{
				"table_id": prop("integer", "Table ID"),
			}, "table_id"),
		},
		{
			Name:        "close_session",
			Description: "Close an edit session",
			InputSchema: object(map[string]any{
				"session_id": prop("integer", "Session ID"),
			}, "session_id"),
		},
		{
			Name:        "list_sessions",
			Description: "List edit sessions. Expired sessions are closed first",
			InputSchema: object(map[string]any{
				"table_id":  prop("integer", "Only sessions on this table"),
				"user_id":   prop("string", "Only sessions of this user (UUID)"),
				"is_closed": prop("boolean", "Only open (false) or closed (true) sessions"),
			}),
		},
		{
			Name:        "my_sessions",
			Description: "List your open edit sessions",
			InputSchema: object(map[string]any{}),
		},

		// Activity
		{
			Name:        "get_recent_activity",
			Description: "Get recent schema, row and session changes, newest first",
			InputSchema: object(map[string]any{
				"table_id": prop("integer", "Only activity on this table"),
				"type":     prop("string", "Only this activity type"),
				"limit":    prop("integer", "Maximum entries (default 50)"),
				"offset":   prop("integer", "Entries to skip"),
			}),
		},
	}
}
