package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// GetConfirmSecret retrieves the key used to sign conflict confirmation
// tokens. If no secret exists, it generates one, stores it, and returns it.
// Uses INSERT OR IGNORE + re-SELECT to avoid TOCTOU race on concurrent startup.
func GetConfirmSecret(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating confirm secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES ('confirm_secret', ?)`,
		candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing confirm_secret: %w", err)
	}

	// Always read back (either our insert or the existing value).
	var secret string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'confirm_secret'`,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying confirm_secret: %w", err)
	}

	return secret, nil
}
