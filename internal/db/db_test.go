package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func TestMigrateIdempotent(t *testing.T) {
	database := NewTestDB(t)

	if err := Migrate(database); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	var n int
	err := database.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'
		 AND name IN ('sub_areas', 'assets', 'transfer_records', 'transfer_items', 'settings')`,
	).Scan(&n)
	if err != nil {
		t.Fatalf("counting tables: %v", err)
	}
	if n != 5 {
		t.Errorf("expected 5 tables, got %d", n)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(`INSERT INTO transfer_items (record_id, asset_id) VALUES (999, 999)`)
	if err == nil {
		t.Error("expected foreign key violation")
	}
}

func TestOpenConfiguresEveryConnection(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "premik.sqlite3"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	ctx := context.Background()
	first, err := database.Conn(ctx)
	if err != nil {
		t.Fatalf("first conn: %v", err)
	}
	defer first.Close()
	second, err := database.Conn(ctx)
	if err != nil {
		t.Fatalf("second conn: %v", err)
	}
	defer second.Close()

	for i, c := range []interface {
		QueryRowContext(context.Context, string, ...any) *sql.Row
	}{first, second} {
		var fk int
		if err := c.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk); err != nil {
			t.Fatalf("conn %d: reading foreign_keys: %v", i, err)
		}
		if fk != 1 {
			t.Errorf("conn %d: expected foreign_keys on, got %d", i, fk)
		}

		var mode string
		if err := c.QueryRowContext(ctx, `PRAGMA journal_mode`).Scan(&mode); err != nil {
			t.Fatalf("conn %d: reading journal_mode: %v", i, err)
		}
		if mode != "wal" {
			t.Errorf("conn %d: expected wal journal, got %q", i, mode)
		}
	}
}
