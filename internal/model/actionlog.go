package model

import "time"

// ActionEntry is one immutable row in the system-wide audit trail,
// independent of any single equipment's tracking history. Entries are
// append-only and never mutated or deleted.
type ActionEntry struct {
	ID              string    `json:"id"`
	ActionType      string    `json:"action_type"`
	EquipmentID     int64     `json:"equipment_id"`
	EquipmentSerial string    `json:"equipment_serial"`
	EquipmentName   string    `json:"equipment_name"`
	ActorID         string    `json:"actor_id"`
	ActorName       string    `json:"actor_name"`
	TargetID        string    `json:"target_id,omitempty"`
	TargetName      string    `json:"target_name,omitempty"`
	Note            string    `json:"note,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// actionEntry builds the common part of an audit entry for an equipment record.
func actionEntry(actionType string, eq *Equipment, actorID, actorName, note string) ActionEntry {
	return ActionEntry{
		ActionType:      actionType,
		EquipmentID:     eq.ID,
		EquipmentSerial: eq.Serial,
		EquipmentName:   eq.ProductName,
		ActorID:         actorID,
		ActorName:       actorName,
		Note:            note,
	}
}

// NewTransferRequestedAction builds an audit entry for a new transfer request.
func NewTransferRequestedAction(eq *Equipment, actorID, actorName, targetID, targetName, note string) ActionEntry {
	e := actionEntry(ActionTransferRequested, eq, actorID, actorName, note)
	e.TargetID = targetID
	e.TargetName = targetName
	return e
}

// NewTransferApprovedAction builds an audit entry for an approved transfer.
func NewTransferApprovedAction(eq *Equipment, actorID, actorName, targetID, targetName, note string) ActionEntry {
	e := actionEntry(ActionTransferApproved, eq, actorID, actorName, note)
	e.TargetID = targetID
	e.TargetName = targetName
	return e
}

// NewTransferRejectedAction builds an audit entry for a rejected transfer.
func NewTransferRejectedAction(eq *Equipment, actorID, actorName, note string) ActionEntry {
	return actionEntry(ActionTransferRejected, eq, actorID, actorName, note)
}

// NewTransferCancelledAction builds an audit entry for a cancelled transfer.
func NewTransferCancelledAction(eq *Equipment, actorID, actorName, note string) ActionEntry {
	return actionEntry(ActionTransferCancelled, eq, actorID, actorName, note)
}

// NewEquipmentCreatedAction builds an audit entry for newly registered equipment.
func NewEquipmentCreatedAction(eq *Equipment, actorID, actorName, note string) ActionEntry {
	return actionEntry(ActionEquipmentCreated, eq, actorID, actorName, note)
}

// NewStatusUpdateAction builds an audit entry for a manual status change.
func NewStatusUpdateAction(eq *Equipment, actorID, actorName, note string) ActionEntry {
	return actionEntry(ActionStatusUpdate, eq, actorID, actorName, note)
}
