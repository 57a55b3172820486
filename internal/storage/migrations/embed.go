package migrations

import "embed"

// PostgresFS embeds the PostgreSQL schema: tokens, metadata, stats, listings, royalties.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the ClickHouse analytics schema.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
