// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contains the postgres migrations for the otp/notify schema.
//
//go:embed *.sql
var FS embed.FS
