package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MatanTal2/sayeret-givati-sub001/internal/model"
)

// ActionQueryLimit caps every action log query result.
const ActionQueryLimit = 100

// RecordAction stamps the entry with server time, persists it, and
// returns the generated identifier. Entries are append-only and are
// never mutated or deleted afterwards.
func RecordAction(ctx context.Context, db *sql.DB, entry model.ActionEntry) (string, error) {
	entry.ID = uuid.NewString()
	entry.Timestamp = time.Now().UTC()

	_, err := db.ExecContext(ctx,
		`INSERT INTO action_log (id, action_type, equipment_id, equipment_serial, equipment_name,
		                         actor_id, actor_name, target_id, target_name, note, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ActionType, entry.EquipmentID, entry.EquipmentSerial, entry.EquipmentName,
		entry.ActorID, entry.ActorName, entry.TargetID, entry.TargetName, entry.Note, entry.Timestamp,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create action log entry: %w", err)
	}
	return entry.ID, nil
}

// RecentActions returns the latest entries across the whole system.
func RecentActions(ctx context.Context, db *sql.DB) ([]model.ActionEntry, error) {
	return queryActions(ctx, db,
		`SELECT `+actionColumns+` FROM action_log ORDER BY timestamp DESC LIMIT ?`,
		ActionQueryLimit)
}

// ActionsByEquipment returns entries for one equipment record, newest first.
func ActionsByEquipment(ctx context.Context, db *sql.DB, equipmentID int64) ([]model.ActionEntry, error) {
	return queryActions(ctx, db,
		`SELECT `+actionColumns+` FROM action_log WHERE equipment_id = ? ORDER BY timestamp DESC LIMIT ?`,
		equipmentID, ActionQueryLimit)
}

// ActionsByActor returns entries performed by one actor, newest first.
func ActionsByActor(ctx context.Context, db *sql.DB, actorID string) ([]model.ActionEntry, error) {
	return queryActions(ctx, db,
		`SELECT `+actionColumns+` FROM action_log WHERE actor_id = ? ORDER BY timestamp DESC LIMIT ?`,
		actorID, ActionQueryLimit)
}

// ActionsByType returns entries of one action type, newest first.
func ActionsByType(ctx context.Context, db *sql.DB, actionType string) ([]model.ActionEntry, error) {
	return queryActions(ctx, db,
		`SELECT `+actionColumns+` FROM action_log WHERE action_type = ? ORDER BY timestamp DESC LIMIT ?`,
		actionType, ActionQueryLimit)
}

// ActionsInRange returns entries within [from, to] inclusive, newest first.
func ActionsInRange(ctx context.Context, db *sql.DB, from, to time.Time) ([]model.ActionEntry, error) {
	return queryActions(ctx, db,
		`SELECT `+actionColumns+` FROM action_log WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp DESC LIMIT ?`,
		from, to, ActionQueryLimit)
}

const actionColumns = `id, action_type, equipment_id, equipment_serial, equipment_name,
                       actor_id, actor_name, target_id, target_name, note, timestamp`

func queryActions(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.ActionEntry, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying action log: %w", err)
	}
	defer rows.Close()

	var entries []model.ActionEntry
	for rows.Next() {
		var e model.ActionEntry
		var targetID, targetName, note sql.NullString
		if err := rows.Scan(&e.ID, &e.ActionType, &e.EquipmentID, &e.EquipmentSerial, &e.EquipmentName,
			&e.ActorID, &e.ActorName, &targetID, &targetName, &note, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning action log entry: %w", err)
		}
		e.TargetID = targetID.String
		e.TargetName = targetName.String
		e.Note = note.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
