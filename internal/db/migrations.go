package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: asset history and open-transfer checks look items up by asset.
	`CREATE INDEX IF NOT EXISTS idx_transfer_items_asset ON transfer_items(asset_id)`,
	// Migration 2: listings filter and sort on status and scheduled date.
	`CREATE INDEX IF NOT EXISTS idx_transfer_records_status ON transfer_records(status, scheduled_date)`,
}

// Migrate ensures the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
