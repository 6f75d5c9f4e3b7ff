package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatanTal2/sayeret-givati-sub001/internal/db"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/model"
)

func recordTestAction(t *testing.T, database *sql.DB, actionType, actorID string, equipmentID int64) string {
	t.Helper()
	id, err := RecordAction(context.Background(), database, model.ActionEntry{
		ActionType:      actionType,
		EquipmentID:     equipmentID,
		EquipmentSerial: "SN-0001",
		EquipmentName:   "Radio PRC-710",
		ActorID:         actorID,
		ActorName:       "Dan Levi",
	})
	require.NoError(t, err)
	return id
}

func TestRecordAction(t *testing.T) {
	database := db.NewTestDB(t)
	before := time.Now().UTC().Add(-time.Second)

	id := recordTestAction(t, database, model.ActionTransferRequested, "user-dan", 1)
	assert.NotEmpty(t, id)

	entries, err := RecentActions(context.Background(), database)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, id, e.ID)
	assert.Equal(t, model.ActionTransferRequested, e.ActionType)
	assert.Equal(t, "SN-0001", e.EquipmentSerial)
	assert.True(t, e.Timestamp.After(before), "timestamp is stamped by the server")
}

func TestActionQueries(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	recordTestAction(t, database, model.ActionTransferRequested, "user-dan", 1)
	recordTestAction(t, database, model.ActionTransferApproved, "user-noa", 1)
	recordTestAction(t, database, model.ActionEquipmentCreated, "user-admin", 2)

	byEquipment, err := ActionsByEquipment(ctx, database, 1)
	require.NoError(t, err)
	require.Len(t, byEquipment, 2)
	assert.Equal(t, model.ActionTransferApproved, byEquipment[0].ActionType, "newest first")

	byActor, err := ActionsByActor(ctx, database, "user-admin")
	require.NoError(t, err)
	require.Len(t, byActor, 1)
	assert.Equal(t, model.ActionEquipmentCreated, byActor[0].ActionType)

	byType, err := ActionsByType(ctx, database, model.ActionTransferRequested)
	require.NoError(t, err)
	assert.Len(t, byType, 1)

	inRange, err := ActionsInRange(ctx, database,
		time.Now().UTC().Add(-time.Minute), time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, inRange, 3)

	empty, err := ActionsInRange(ctx, database,
		time.Now().UTC().Add(time.Hour), time.Now().UTC().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRecentActionsLimit(t *testing.T) {
	database := db.NewTestDB(t)

	for i := 0; i < ActionQueryLimit+10; i++ {
		recordTestAction(t, database, model.ActionDailyCheckIn, "user-dan", 1)
	}

	entries, err := RecentActions(context.Background(), database)
	require.NoError(t, err)
	assert.Len(t, entries, ActionQueryLimit)
}
