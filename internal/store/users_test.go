package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatanTal2/sayeret-givati-sub001/internal/db"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "dan", "Dan Levi", "hash", model.RoleSoldier)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "dan", user.Username)
	assert.Equal(t, "Dan Levi", user.Name)
	assert.Equal(t, model.RoleSoldier, user.Role)

	got, err := GetUser(ctx, database, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)

	byName, err := GetUserByUsername(ctx, database, "dan")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, user.ID, byName.ID)
	assert.Equal(t, "hash", byName.PasswordHash)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := CreateUser(ctx, database, "dan", "Dan Levi", "hash", model.RoleSoldier)
	require.NoError(t, err)

	_, err = CreateUser(ctx, database, "dan", "Other Dan", "hash2", model.RoleSoldier)
	assert.Error(t, err)
}

func TestUpdateUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "noa", "Noa Bar", "hash", model.RoleSoldier)
	require.NoError(t, err)

	require.NoError(t, UpdateUser(ctx, database, user.ID, "Noa Bar-Lev", model.RoleManager))
	require.NoError(t, UpdateUserPassword(ctx, database, user.ID, "newhash"))

	got, err := GetUser(ctx, database, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Noa Bar-Lev", got.Name)
	assert.Equal(t, model.RoleManager, got.Role)

	byName, _ := GetUserByUsername(ctx, database, "noa")
	assert.Equal(t, "newhash", byName.PasswordHash)
}

func TestSoftDeleteUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "avi", "Avi Cohen", "hash", model.RoleSoldier)
	require.NoError(t, err)
	require.NoError(t, DeleteUser(ctx, database, user.ID))

	// Gone from login and listings, username freed for reuse.
	byName, err := GetUserByUsername(ctx, database, "avi")
	require.NoError(t, err)
	assert.Nil(t, byName)

	users, err := ListUsers(ctx, database)
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = CreateUser(ctx, database, "avi", "New Avi", "hash2", model.RoleSoldier)
	assert.NoError(t, err)
}

func TestListUsers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := CreateUser(ctx, database, "dan", "Dan Levi", "hash", model.RoleSoldier)
	require.NoError(t, err)
	_, err = CreateUser(ctx, database, "noa", "Noa Bar", "hash", model.RoleManager)
	require.NoError(t, err)

	users, err := ListUsers(ctx, database)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
