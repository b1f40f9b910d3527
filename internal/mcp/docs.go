package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `drawbridge stores rows in user-defined tables.

Core concepts:
- Table: a named schema of typed fields, backed by its own storage table. Every row has an engine-assigned id.
- Field: int, string, bool, float, datetime or choice. Choice fields store the id of one of their choices.
- Namespace: optional grouping of tables.
- Edit session: an advisory marker that you are editing a table. It expires after a few minutes and never blocks writes.

Default workflow:
1) Orient: list_tables (or get_table) to learn field ids and types.
2) Read: fetch_rows pages through rows in insertion order and reports the total count.
3) Write: insert_rows / update_rows / delete_rows take one table per call. They return {success, errors}; check success.
4) Coordinate: create_session before a long edit, close_session when done, list_sessions to see who else is editing.

Docs:
- drawbridge://docs/values (how cell values are sent and returned)
- drawbridge://docs/errors (error codes and what to do)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "drawbridge://docs/values",
		Name:        "docs_values",
		Title:       "Cell values",
		Description: "Wire format of row values for each data type.",
		Content: `# Cell values

Rows are sent as a list of {field_id, value} pairs and returned as {field_id, type, value, display}.

| type     | send                                   | returned            |
|----------|----------------------------------------|---------------------|
| int      | number or numeric text                 | number              |
| string   | text (numbers and booleans are converted) | text             |
| bool     | true/false, "true"/"false", 0/1        | boolean             |
| float    | number or numeric text                 | number              |
| datetime | RFC 3339 text or unix seconds          | RFC 3339 text (UTC) |
| choice   | choice id or choice text               | choice id, display = choice text |

- null clears a nullable field; a non-nullable field rejects it with INVALID_VALUE.
- On insert, omitted fields take their default or null.
- On update, omitted fields keep their value.
- A field id the table doesn't have fails the whole call with FIELD_NOT_FOUND and writes nothing.
`,
	},
	{
		URI:         "drawbridge://docs/errors",
		Name:        "docs_errors",
		Title:       "Error codes",
		Description: "Error codes returned by tools and how to recover.",
		Content: `# Error codes

- TABLE_NOT_FOUND / NAMESPACE_NOT_FOUND / SESSION_NOT_FOUND / ROW_NOT_FOUND: check ids with the list tools.
- FIELD_NOT_FOUND: a value names a field the table doesn't have; call get_table.
- INVALID_VALUE: a value doesn't fit its field's type, choices or nullability.
- INVALID_INPUT / INVALID_PARAMS: malformed request.
- TABLE_EXISTS / NAMESPACE_EXISTS: pick another name.
- MIXED_TABLES: split the batch per table.
- STORAGE_ERROR: the storage database failed. Writes in insert_rows are all-or-nothing; update_rows may have
  applied earlier rows. If a table has no storage table, reconcile_tables with repair=true recreates it.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
