// Package migrations holds the metadata store schema.
package migrations

import "embed"

// FS contains the ordered *.up.sql migration files.
//
//go:embed *.up.sql
var FS embed.FS
