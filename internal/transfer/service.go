// Package transfer owns the custody transfer workflow: the lifecycle of
// a transfer request (pending → approved/rejected/cancelled) and the
// transactional coupling between each transition and the equipment
// record it affects. No other component mutates a request's status or
// an equipment's status/holder as a consequence of a transfer.
package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MatanTal2/sayeret-givati-sub001/internal/history"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/model"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/notify"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/store"
)

// Service executes transfer transitions. Every state-changing operation
// is one SQLite transaction spanning the transfer request row(s) and
// the equipment row: it reads both, validates preconditions against the
// just-read state, and writes both or writes nothing. The action log
// and notifications are dispatched after commit, best effort.
type Service struct {
	db       *sql.DB
	notifier notify.Notifier
}

// NewService creates a transfer service. A nil notifier falls back to
// the logging sink.
func NewService(db *sql.DB, notifier notify.Notifier) *Service {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Service{db: db, notifier: notifier}
}

// Create opens a new transfer request for an equipment record.
// Atomically: inserts the request with a one-entry status history,
// flips the equipment to pending_transfer, and appends a
// transfer_requested tracking entry. Fails if the equipment does not
// exist or already has a pending request. Returns the new request ID.
func (s *Service) Create(ctx context.Context, equipmentID int64, toUserID, toUserName, reason, fromUserID, fromUserName, note string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	eq, err := store.GetEquipmentTx(ctx, tx, equipmentID)
	if err != nil {
		return "", err
	}
	if eq == nil {
		return "", ErrEquipmentNotFound
	}

	// One pending request per equipment: status pending_transfer and an
	// open request must appear and disappear together.
	var pending int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfer_requests WHERE equipment_id = ? AND status = ?`,
		equipmentID, model.TransferPending,
	).Scan(&pending)
	if err != nil {
		return "", fmt.Errorf("checking pending transfers: %w", err)
	}
	if pending > 0 || eq.Status == model.StatusPendingTransfer {
		return "", ErrAlreadyPending
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transfer_requests (id, equipment_id, equipment_serial, from_user_id, from_user_name,
		                                to_user_id, to_user_name, reason, note, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, equipmentID, eq.Serial, fromUserID, fromUserName, toUserID, toUserName,
		reason, note, model.TransferPending, now,
	)
	if err != nil {
		return "", fmt.Errorf("creating transfer request: %w", err)
	}

	if err := appendStatusTx(ctx, tx, id, model.StatusChange{
		Status:        model.TransferPending,
		Timestamp:     now,
		UpdatedBy:     fromUserID,
		UpdatedByName: fromUserName,
		Note:          note,
	}); err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE equipment SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.StatusPendingTransfer, equipmentID,
	)
	if err != nil {
		return "", fmt.Errorf("updating equipment status: %w", err)
	}

	entry := history.TransferRequested(eq.HolderName, eq.Location, fromUserID, toUserName)
	if err := store.AppendHistoryTx(ctx, tx, equipmentID, entry); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing transfer request: %w", err)
	}

	s.dispatch(ctx,
		model.NewTransferRequestedAction(eq, fromUserID, fromUserName, toUserID, toUserName, reason),
		notify.Event{
			Kind:              notify.KindTransferRequested,
			RecipientIDs:      []string{toUserID},
			ActorName:         fromUserName,
			EquipmentName:     eq.ProductName,
			EquipmentSerial:   eq.Serial,
			EquipmentID:       eq.ID,
			TransferRequestID: id,
		},
	)

	return id, nil
}

// Approve resolves a pending request in the recipient's favor.
// Atomically: appends the approved status entry, hands the equipment to
// the recipient with status available, and appends a transfer_approved
// tracking entry. The requester is then notified of the approval and
// both parties of the completion.
func (s *Service) Approve(ctx context.Context, transferID, approverID, approverName, note string) error {
	tr, eq, err := s.transition(ctx, transferID, model.TransferApproved, approverID, approverName, note,
		func(ctx context.Context, tx *sql.Tx, tr *model.TransferRequest, eq *model.Equipment) error {
			_, err := tx.ExecContext(ctx,
				`UPDATE equipment SET current_holder_id = ?, current_holder_name = ?, status = ?, updated_at = CURRENT_TIMESTAMP
				 WHERE id = ?`,
				tr.ToUserID, tr.ToUserName, model.StatusAvailable, eq.ID,
			)
			if err != nil {
				return fmt.Errorf("updating equipment holder: %w", err)
			}
			entry := history.TransferApproved(tr.ToUserName, eq.Location, approverID, note)
			return store.AppendHistoryTx(ctx, tx, eq.ID, entry)
		})
	if err != nil {
		return err
	}

	base := notify.Event{
		ActorName:         approverName,
		EquipmentName:     eq.ProductName,
		EquipmentSerial:   eq.Serial,
		EquipmentID:       eq.ID,
		TransferRequestID: tr.ID,
	}
	approved := base
	approved.Kind = notify.KindTransferApproved
	approved.RecipientIDs = []string{tr.FromUserID}
	completed := base
	completed.Kind = notify.KindTransferCompleted
	completed.RecipientIDs = []string{tr.FromUserID, tr.ToUserID}

	s.dispatch(ctx,
		model.NewTransferApprovedAction(eq, approverID, approverName, tr.ToUserID, tr.ToUserName, note),
		approved, completed,
	)
	return nil
}

// Reject resolves a pending request against the recipient. The holder
// is unchanged; the equipment returns to available. The requester is
// notified of the rejection and reason.
func (s *Service) Reject(ctx context.Context, transferID, rejectorID, rejectorName, reason string) error {
	tr, eq, err := s.transition(ctx, transferID, model.TransferRejected, rejectorID, rejectorName, reason,
		func(ctx context.Context, tx *sql.Tx, tr *model.TransferRequest, eq *model.Equipment) error {
			if err := equipmentBackToAvailableTx(ctx, tx, eq.ID); err != nil {
				return err
			}
			entry := history.TransferRejected(eq.HolderName, eq.Location, rejectorID, reason)
			return store.AppendHistoryTx(ctx, tx, eq.ID, entry)
		})
	if err != nil {
		return err
	}

	s.dispatch(ctx,
		model.NewTransferRejectedAction(eq, rejectorID, rejectorName, reason),
		notify.Event{
			Kind:              notify.KindTransferRejected,
			RecipientIDs:      []string{tr.FromUserID},
			ActorName:         rejectorName,
			EquipmentName:     eq.ProductName,
			EquipmentSerial:   eq.Serial,
			EquipmentID:       eq.ID,
			TransferRequestID: tr.ID,
		},
	)
	return nil
}

// Cancel withdraws a pending request. Only the original requester may
// cancel. The holder is unchanged; the equipment returns to available.
// No notification is sent, but the cancellation is logged in the audit trail.
func (s *Service) Cancel(ctx context.Context, transferID, cancellerID, cancellerName, reason string) error {
	_, eq, err := s.transition(ctx, transferID, model.TransferCancelled, cancellerID, cancellerName, reason,
		func(ctx context.Context, tx *sql.Tx, tr *model.TransferRequest, eq *model.Equipment) error {
			if cancellerID != tr.FromUserID {
				return ErrNotRequester
			}
			if err := equipmentBackToAvailableTx(ctx, tx, eq.ID); err != nil {
				return err
			}
			entry := history.TransferCancelled(eq.HolderName, eq.Location, cancellerID, reason)
			return store.AppendHistoryTx(ctx, tx, eq.ID, entry)
		})
	if err != nil {
		return err
	}

	s.dispatch(ctx, model.NewTransferCancelledAction(eq, cancellerID, cancellerName, reason))
	return nil
}

// SendReminder re-notifies the recipient of a pending request. Not a
// state transition: only the original requester may trigger it, and no
// document is written.
func (s *Service) SendReminder(ctx context.Context, transferID, senderID, senderName string) error {
	tr, err := s.GetRequest(ctx, transferID)
	if err != nil {
		return err
	}
	if tr == nil {
		return ErrTransferNotFound
	}
	if tr.Status != model.TransferPending {
		return ErrNotPending
	}
	if senderID != tr.FromUserID {
		return ErrNotRequester
	}

	event := notify.Event{
		Kind:              notify.KindTransferReminder,
		RecipientIDs:      []string{tr.ToUserID},
		ActorName:         senderName,
		EquipmentName:     tr.EquipmentName,
		EquipmentSerial:   tr.EquipmentSerial,
		EquipmentID:       tr.EquipmentID,
		TransferRequestID: tr.ID,
	}
	if err := s.notifier.Send(ctx, event); err != nil {
		slog.Warn("reminder notification failed", "transfer", tr.ID, "error", err)
	}
	return nil
}

// transitionFunc applies the equipment-side effects of one terminal
// transition inside the shared transaction.
type transitionFunc func(ctx context.Context, tx *sql.Tx, tr *model.TransferRequest, eq *model.Equipment) error

// transition moves a pending request to a terminal state: it reads the
// request and its equipment inside one transaction, validates the
// request is still pending, appends the status history entry, and runs
// the transition-specific equipment mutation. Any failure aborts with
// zero writes.
func (s *Service) transition(ctx context.Context, transferID, newStatus, actorID, actorName, note string, apply transitionFunc) (*model.TransferRequest, *model.Equipment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	tr, err := getRequestTx(ctx, tx, transferID)
	if err != nil {
		return nil, nil, err
	}
	if tr == nil {
		return nil, nil, ErrTransferNotFound
	}
	if tr.Status != model.TransferPending {
		return nil, nil, ErrNotPending
	}

	eq, err := store.GetEquipmentTx(ctx, tx, tr.EquipmentID)
	if err != nil {
		return nil, nil, err
	}
	if eq == nil {
		return nil, nil, ErrEquipmentNotFound
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE transfer_requests SET status = ? WHERE id = ?`, newStatus, transferID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("updating transfer status: %w", err)
	}

	if err := appendStatusTx(ctx, tx, transferID, model.StatusChange{
		Status:        newStatus,
		Timestamp:     time.Now().UTC(),
		UpdatedBy:     actorID,
		UpdatedByName: actorName,
		Note:          note,
	}); err != nil {
		return nil, nil, err
	}

	if err := apply(ctx, tx, tr, eq); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("committing transfer transition: %w", err)
	}

	tr.Status = newStatus
	return tr, eq, nil
}

// dispatch writes the audit entry and fires notifications after a
// successful commit. Failures are logged and swallowed: the durable
// state change already succeeded and is never rolled back for a missing
// notification or audit row.
func (s *Service) dispatch(ctx context.Context, entry model.ActionEntry, events ...notify.Event) {
	if _, err := store.RecordAction(ctx, s.db, entry); err != nil {
		slog.Error("action log write failed", "action", entry.ActionType, "equipment", entry.EquipmentSerial, "error", err)
	}
	for _, event := range events {
		if err := s.notifier.Send(ctx, event); err != nil {
			slog.Warn("notification failed", "kind", event.Kind, "transfer", event.TransferRequestID, "error", err)
		}
	}
}

func equipmentBackToAvailableTx(ctx context.Context, tx *sql.Tx, equipmentID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE equipment SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.StatusAvailable, equipmentID,
	)
	if err != nil {
		return fmt.Errorf("restoring equipment status: %w", err)
	}
	return nil
}

func appendStatusTx(ctx context.Context, tx *sql.Tx, transferID string, change model.StatusChange) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transfer_status_history (transfer_id, status, note, updated_by, updated_by_name, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		transferID, change.Status, change.Note, change.UpdatedBy, change.UpdatedByName, change.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("appending status history: %w", err)
	}
	return nil
}
