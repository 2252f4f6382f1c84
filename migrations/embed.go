// Package migrations embeds the SQL schema so binaries can migrate without
// shipping the files separately.
package migrations

import "embed"

// FS holds every *.sql migration.
//
//go:embed *.sql
var FS embed.FS
