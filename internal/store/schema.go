package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// schemaV1 is the initial schema for the SQLite snapshot store.
const schemaV1 = `
-- One row per portal, replaced wholesale on every save
CREATE TABLE IF NOT EXISTS portal_scores (
    name TEXT PRIMARY KEY,
    evolution_score REAL NOT NULL DEFAULT 0,
    evolution_stage TEXT NOT NULL,
    last_updated TEXT NOT NULL
);

-- Single-row table holding snapshot-wide metadata
CREATE TABLE IF NOT EXISTS snapshot_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    last_saved TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// InitSchema creates the schema if it does not exist yet.
func InitSchema(ctx context.Context, db *sql.DB) error {
	version, err := getSchemaVersion(ctx, db)
	if err == nil {
		if version > SchemaVersion {
			return fmt.Errorf("database schema version %d is newer than supported version %d", version, SchemaVersion)
		}
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}

// getSchemaVersion returns the current schema version from the database.
// Returns 0 and an error if the schema_version table doesn't exist.
func getSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, fmt.Errorf("schema_version is empty")
	}
	return int(version.Int64), nil
}
