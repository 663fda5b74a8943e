package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS sub_areas (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    room       TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE TABLE IF NOT EXISTS assets (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    tag         TEXT,
    sub_area_id INTEGER REFERENCES sub_areas(id),
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at  DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_assets_tag_active
    ON assets(tag) WHERE deleted_at IS NULL AND tag IS NOT NULL AND tag <> '';

CREATE TABLE IF NOT EXISTS transfer_records (
    id             INTEGER PRIMARY KEY,
    status         TEXT NOT NULL DEFAULT 'pending_review' CHECK (status IN
                   ('pending_review', 'upcoming', 'in_progress', 'completed', 'overdue', 'cancelled')),
    scheduled_date DATETIME,
    remarks        TEXT,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS transfer_items (
    id               INTEGER PRIMARY KEY,
    record_id        INTEGER NOT NULL REFERENCES transfer_records(id),
    asset_id         INTEGER NOT NULL REFERENCES assets(id),
    status           TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'transferred', 'cancelled')),
    from_sub_area_id INTEGER REFERENCES sub_areas(id),
    to_sub_area_id   INTEGER REFERENCES sub_areas(id),
    moved_at         DATETIME,
    remarks          TEXT,
    UNIQUE (record_id, asset_id)
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
