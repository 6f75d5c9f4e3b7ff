package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatanTal2/sayeret-givati-sub001/internal/db"
)

func TestRevokeToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	revoked, err := IsTokenRevoked(ctx, database, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, RevokeToken(ctx, database, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = IsTokenRevoked(ctx, database, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Revoking the same token twice is harmless.
	assert.NoError(t, RevokeToken(ctx, database, "jti-1", time.Now().Add(time.Hour)))
}
