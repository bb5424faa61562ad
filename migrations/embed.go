// Package migrations holds the versioned SQL schema of the resale ERP.
package migrations

import "embed"

// FS contains every *.up.sql and *.down.sql file of the schema.
//
//go:embed *.sql
var FS embed.FS
