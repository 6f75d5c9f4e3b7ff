package history

import (
	"fmt"

	"github.com/MatanTal2/sayeret-givati-sub001/internal/model"
)

// Entry factories. Each builds the action-specific payload for one
// tracking-history entry from semantic parameters. The timestamp is
// stamped later by Append.

// EquipmentCreated records the initial registration of an item.
func EquipmentCreated(holder, location, actorID string) model.HistoryEntry {
	return model.HistoryEntry{
		Action:    model.ActionEquipmentCreated,
		Holder:    holder,
		Location:  location,
		Notes:     "equipment registered",
		UpdatedBy: actorID,
	}
}

// TransferRequested records a new custody transfer request to toName.
func TransferRequested(holder, location, actorID, toName string) model.HistoryEntry {
	return model.HistoryEntry{
		Action:    model.ActionTransferRequested,
		Holder:    holder,
		Location:  location,
		Notes:     fmt.Sprintf("transfer requested to %s", toName),
		UpdatedBy: actorID,
	}
}

// TransferApproved records an approved transfer; holder is the new holder.
func TransferApproved(holder, location, actorID, note string) model.HistoryEntry {
	if note == "" {
		note = fmt.Sprintf("transfer approved, new holder %s", holder)
	}
	return model.HistoryEntry{
		Action:    model.ActionTransferApproved,
		Holder:    holder,
		Location:  location,
		Notes:     note,
		UpdatedBy: actorID,
	}
}

// TransferRejected records a rejected transfer; the holder is unchanged.
func TransferRejected(holder, location, actorID, reason string) model.HistoryEntry {
	if reason == "" {
		reason = "transfer rejected"
	}
	return model.HistoryEntry{
		Action:    model.ActionTransferRejected,
		Holder:    holder,
		Location:  location,
		Notes:     reason,
		UpdatedBy: actorID,
	}
}

// TransferCancelled records a cancelled transfer; the holder is unchanged.
func TransferCancelled(holder, location, actorID, reason string) model.HistoryEntry {
	if reason == "" {
		reason = "transfer cancelled by requester"
	}
	return model.HistoryEntry{
		Action:    model.ActionTransferCancelled,
		Holder:    holder,
		Location:  location,
		Notes:     reason,
		UpdatedBy: actorID,
	}
}

// StatusUpdate records a manual status change.
func StatusUpdate(holder, location, actorID, newStatus string) model.HistoryEntry {
	return model.HistoryEntry{
		Action:    model.ActionStatusUpdate,
		Holder:    holder,
		Location:  location,
		Notes:     fmt.Sprintf("status changed to %s", newStatus),
		UpdatedBy: actorID,
	}
}

// ConditionUpdate records a condition change.
func ConditionUpdate(holder, location, actorID, newCondition string) model.HistoryEntry {
	return model.HistoryEntry{
		Action:    model.ActionConditionUpdate,
		Holder:    holder,
		Location:  location,
		Notes:     fmt.Sprintf("condition changed to %s", newCondition),
		UpdatedBy: actorID,
	}
}

// LocationUpdate records a location change to newLocation.
func LocationUpdate(holder, newLocation, actorID string) model.HistoryEntry {
	return model.HistoryEntry{
		Action:    model.ActionLocationUpdate,
		Holder:    holder,
		Location:  newLocation,
		Notes:     fmt.Sprintf("moved to %s", newLocation),
		UpdatedBy: actorID,
	}
}

// MaintenanceStart records an item entering maintenance.
func MaintenanceStart(holder, location, actorID, note string) model.HistoryEntry {
	if note == "" {
		note = "maintenance started"
	}
	return model.HistoryEntry{
		Action:    model.ActionMaintenanceStart,
		Holder:    holder,
		Location:  location,
		Notes:     note,
		UpdatedBy: actorID,
	}
}

// MaintenanceComplete records an item returning from maintenance.
func MaintenanceComplete(holder, location, actorID, note string) model.HistoryEntry {
	if note == "" {
		note = "maintenance completed"
	}
	return model.HistoryEntry{
		Action:    model.ActionMaintenanceComplete,
		Holder:    holder,
		Location:  location,
		Notes:     note,
		UpdatedBy: actorID,
	}
}

// DailyCheckIn records a routine daily verification of the item.
func DailyCheckIn(holder, location, actorID string) model.HistoryEntry {
	return model.HistoryEntry{
		Action:    model.ActionDailyCheckIn,
		Holder:    holder,
		Location:  location,
		Notes:     "daily check-in",
		UpdatedBy: actorID,
	}
}
