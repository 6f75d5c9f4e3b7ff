package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

const jwtSecretKey = "jwt_secret"

// GetJWTSecret returns the token signing secret shared by every
// instance of the equipment server. The secret is minted on first
// startup and persisted in the settings table so tokens survive
// restarts. INSERT OR IGNORE keeps concurrent first starts from
// overwriting each other; whichever insert lands first wins and the
// re-read returns it.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating signing secret: %w", err)
	}

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		jwtSecretKey, hex.EncodeToString(buf),
	)
	if err != nil {
		return "", fmt.Errorf("storing signing secret: %w", err)
	}

	var secret string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, jwtSecretKey,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("reading signing secret: %w", err)
	}
	return secret, nil
}
