// Package migrations embeds SQL migration files for the SQLite store.
package migrations

import "embed"

// FS holds the numbered up and down scripts applied by Store.migrate.
//
//go:embed *.sql
var FS embed.FS
