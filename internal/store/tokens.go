package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RevokeToken blacklists a token ID until the token would have
// expired on its own. Logout calls this so a stolen or stale token
// stops working immediately even though JWTs are otherwise stateless.
// Revoking the same token twice is harmless.
func RevokeToken(ctx context.Context, db *sql.DB, jti string, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		jti, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("revoking token %s: %w", jti, err)
	}

	// Piggyback cleanup of entries whose tokens have since expired;
	// the auth middleware rejects those on the expiry claim anyway.
	_, _ = db.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, time.Now().UTC(),
	)
	return nil
}

// IsTokenRevoked reports whether a token ID is on the blacklist. The
// auth middleware consults this on every authenticated request.
func IsTokenRevoked(ctx context.Context, db *sql.DB, jti string) (bool, error) {
	var revoked bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("checking token %s: %w", jti, err)
	}
	return revoked, nil
}
