// Package migrations embeds the SQL schema for connection run history.
package migrations

import "embed"

// FS holds the numbered up and down scripts, passed to database.Migrate.
//
//go:embed *.sql
var FS embed.FS
