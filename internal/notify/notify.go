// Package notify defines the contract between the transfer workflow
// and whatever actually delivers notifications (SMS, push, email).
// Delivery is best effort: callers fire events after the durable state
// change commits and swallow any error.
package notify

import (
	"context"
	"log/slog"
)

// Event kinds.
const (
	KindTransferRequested = "transfer_requested"
	KindTransferApproved  = "transfer_approved"
	KindTransferRejected  = "transfer_rejected"
	KindTransferCompleted = "transfer_completed"
	KindTransferReminder  = "transfer_reminder"
)

// Event describes one notification to deliver. Completed events fan
// out to both parties; all other kinds carry a single recipient.
type Event struct {
	Kind              string
	RecipientIDs      []string
	ActorName         string
	EquipmentName     string
	EquipmentSerial   string
	EquipmentID       int64
	TransferRequestID string
}

// Notifier delivers a single event. Implementations must not assume
// the caller retries or even observes the error beyond logging it.
type Notifier interface {
	Send(ctx context.Context, event Event) error
}

// LogNotifier writes events to the structured log instead of
// delivering them. It stands in for the real delivery channel in
// deployments without one configured.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, event Event) error {
	slog.Info("notification",
		"kind", event.Kind,
		"recipients", event.RecipientIDs,
		"actor", event.ActorName,
		"equipment", event.EquipmentName,
		"serial", event.EquipmentSerial,
		"transfer", event.TransferRequestID,
	)
	return nil
}
