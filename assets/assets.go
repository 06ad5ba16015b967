// Package assets embeds files shipped inside the binary.
package assets

import "embed"

// Migrations holds the Postgres schema for the records store.
//
//go:embed migrations/*.sql
var Migrations embed.FS
