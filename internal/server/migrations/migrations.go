// Package migrations embeds the server's goose migrations (postgres).
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
