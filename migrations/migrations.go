// Package migrations embeds the goose SQL migrations for the queue database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
