package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatanTal2/sayeret-givati-sub001/internal/db"
)

func TestGetJWTSecret(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	secret, err := GetJWTSecret(ctx, database)
	require.NoError(t, err)
	assert.NotEmpty(t, secret)

	// Stable across calls.
	again, err := GetJWTSecret(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, secret, again)
}
