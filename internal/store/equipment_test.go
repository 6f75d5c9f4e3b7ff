package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatanTal2/sayeret-givati-sub001/internal/db"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/model"
)

func createTestEquipment(t *testing.T, database *sql.DB) *model.Equipment {
	t.Helper()
	eq, err := CreateEquipment(context.Background(), database,
		"SN-0001", "Radio PRC-710", "comms", "Storage B", model.ConditionNew,
		"user-dan", "Dan Levi", "user-admin")
	require.NoError(t, err)
	return eq
}

func TestCreateEquipment(t *testing.T) {
	database := db.NewTestDB(t)

	eq := createTestEquipment(t, database)
	assert.Equal(t, "SN-0001", eq.Serial)
	assert.Equal(t, "Radio PRC-710", eq.ProductName)
	assert.Equal(t, model.StatusAvailable, eq.Status)
	assert.Equal(t, model.ConditionNew, eq.Condition)
	assert.Equal(t, "user-dan", eq.HolderID)

	require.Len(t, eq.TrackingHistory, 1)
	assert.Equal(t, model.ActionEquipmentCreated, eq.TrackingHistory[0].Action)
	assert.Equal(t, "user-admin", eq.TrackingHistory[0].UpdatedBy)
	assert.False(t, eq.TrackingHistory[0].Timestamp.IsZero())
}

func TestCreateEquipmentDuplicateSerial(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	createTestEquipment(t, database)

	_, err := CreateEquipment(ctx, database, "SN-0001", "Another", "", "", "", "", "", "user-admin")
	assert.Error(t, err)
}

func TestGetEquipmentBySerial(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	created := createTestEquipment(t, database)

	eq, err := GetEquipmentBySerial(ctx, database, "SN-0001")
	require.NoError(t, err)
	require.NotNil(t, eq)
	assert.Equal(t, created.ID, eq.ID)

	missing, err := GetEquipmentBySerial(ctx, database, "SN-XXXX")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListEquipmentFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	eq := createTestEquipment(t, database)

	_, err := CreateEquipment(ctx, database, "SN-0002", "Night Vision", "optics", "", "",
		"user-noa", "Noa Bar", "user-admin")
	require.NoError(t, err)
	require.NoError(t, StartMaintenance(ctx, database, eq.ID, "user-admin", ""))

	all, err := ListEquipment(ctx, database, "", "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	inMaintenance, err := ListEquipment(ctx, database, model.StatusInMaintenance, "", "")
	require.NoError(t, err)
	require.Len(t, inMaintenance, 1)
	assert.Equal(t, eq.ID, inMaintenance[0].ID)

	optics, err := ListEquipment(ctx, database, "", "optics", "")
	require.NoError(t, err)
	assert.Len(t, optics, 1)

	held, err := ListEquipment(ctx, database, "", "", "user-noa")
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, "SN-0002", held[0].Serial)
}

func TestUpdateStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	eq := createTestEquipment(t, database)

	require.NoError(t, UpdateStatus(ctx, database, eq.ID, model.StatusRetired, "user-admin"))

	got, err := GetEquipment(ctx, database, eq.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRetired, got.Status)
	require.Len(t, got.TrackingHistory, 2)
	assert.Equal(t, model.ActionStatusUpdate, got.TrackingHistory[1].Action)
}

func TestUpdateStatusRejectsPendingTransfer(t *testing.T) {
	database := db.NewTestDB(t)
	eq := createTestEquipment(t, database)

	err := UpdateStatus(context.Background(), database, eq.ID, model.StatusPendingTransfer, "user-admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "managed by the transfer workflow")
}

func TestUpdateStatusInvalid(t *testing.T) {
	database := db.NewTestDB(t)
	eq := createTestEquipment(t, database)

	assert.Error(t, UpdateStatus(context.Background(), database, eq.ID, "broken", "user-admin"))
}

func TestUpdateConditionAndLocation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	eq := createTestEquipment(t, database)

	require.NoError(t, UpdateCondition(ctx, database, eq.ID, model.ConditionPoor, "user-dan"))
	require.NoError(t, UpdateLocation(ctx, database, eq.ID, "Field Depot", "user-dan"))

	got, err := GetEquipment(ctx, database, eq.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConditionPoor, got.Condition)
	assert.Equal(t, "Field Depot", got.Location)

	require.Len(t, got.TrackingHistory, 3)
	assert.Equal(t, model.ActionConditionUpdate, got.TrackingHistory[1].Action)
	assert.Equal(t, model.ActionLocationUpdate, got.TrackingHistory[2].Action)
	assert.Equal(t, "Field Depot", got.TrackingHistory[2].Location)
}

func TestMaintenanceCycle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	eq := createTestEquipment(t, database)

	require.NoError(t, StartMaintenance(ctx, database, eq.ID, "user-admin", "annual service"))
	got, _ := GetEquipment(ctx, database, eq.ID)
	assert.Equal(t, model.StatusInMaintenance, got.Status)

	require.NoError(t, CompleteMaintenance(ctx, database, eq.ID, "user-admin", ""))
	got, _ = GetEquipment(ctx, database, eq.ID)
	assert.Equal(t, model.StatusAvailable, got.Status)

	require.Len(t, got.TrackingHistory, 3)
	assert.Equal(t, model.ActionMaintenanceStart, got.TrackingHistory[1].Action)
	assert.Equal(t, "annual service", got.TrackingHistory[1].Notes)
	assert.Equal(t, model.ActionMaintenanceComplete, got.TrackingHistory[2].Action)
}

func TestDailyCheckIn(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	eq := createTestEquipment(t, database)

	require.NoError(t, DailyCheckIn(ctx, database, eq.ID, "user-dan"))

	got, err := GetEquipment(ctx, database, eq.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, got.Status, "check-in changes no fields")
	require.Len(t, got.TrackingHistory, 2)
	assert.Equal(t, model.ActionDailyCheckIn, got.TrackingHistory[1].Action)
}

func TestSoftDeleteEquipment(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	eq := createTestEquipment(t, database)

	require.NoError(t, DeleteEquipment(ctx, database, eq.ID))

	list, err := ListEquipment(ctx, database, "", "", "")
	require.NoError(t, err)
	assert.Empty(t, list)

	// Still fetchable by ID for audit, but updates are refused.
	got, err := GetEquipment(ctx, database, eq.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotNil(t, got.DeletedAt)
	assert.Error(t, UpdateLocation(ctx, database, eq.ID, "Nowhere", "user-admin"))

	// Serial becomes reusable.
	_, err = CreateEquipment(ctx, database, "SN-0001", "Replacement", "", "", "", "", "", "user-admin")
	assert.NoError(t, err)
}

func TestEquipmentImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	eq := createTestEquipment(t, database)

	data, mime, err := GetEquipmentImage(ctx, database, eq.ID)
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Empty(t, mime)

	require.NoError(t, SetEquipmentImage(ctx, database, eq.ID, []byte{0xff, 0xd8, 0xff}, "image/jpeg"))

	data, mime, err = GetEquipmentImage(ctx, database, eq.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, data)
	assert.Equal(t, "image/jpeg", mime)
}
