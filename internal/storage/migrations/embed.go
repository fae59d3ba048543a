package migrations

import "embed"

// PostgresFS embeds all PostgreSQL migration files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds all ClickHouse schema files. The pipeline itself only
// reads the warehouse; these exist for local development and tests.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
