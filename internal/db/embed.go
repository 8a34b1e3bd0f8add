package db

import "embed"

// EmbedMigrations holds the local store schema.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS
