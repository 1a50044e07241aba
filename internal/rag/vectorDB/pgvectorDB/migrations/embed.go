// Package migrations embeds the golang-migrate schema for the pgvector store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
