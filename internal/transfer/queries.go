package transfer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MatanTal2/sayeret-givati-sub001/internal/model"
)

const requestColumns = `t.id, t.equipment_id, t.equipment_serial, t.from_user_id, t.from_user_name,
                        t.to_user_id, t.to_user_name, t.reason, t.note, t.status, t.created_at,
                        e.product_name`

const requestJoin = `FROM transfer_requests t JOIN equipment e ON e.id = t.equipment_id`

// GetRequest returns a transfer request with its status history, or nil
// if it does not exist.
func (s *Service) GetRequest(ctx context.Context, id string) (*model.TransferRequest, error) {
	tr, err := scanRequest(s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` `+requestJoin+` WHERE t.id = ?`, id,
	))
	if err != nil || tr == nil {
		return tr, err
	}

	tr.StatusHistory, err = s.statusHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return tr, nil
}

// ListForEquipment returns every transfer request ever made for an
// equipment record, all statuses, newest first.
func (s *Service) ListForEquipment(ctx context.Context, equipmentID int64) ([]model.TransferRequest, error) {
	return s.listRequests(ctx,
		`SELECT `+requestColumns+` `+requestJoin+` WHERE t.equipment_id = ? ORDER BY t.created_at DESC`,
		equipmentID)
}

// ListPendingForRecipient returns pending requests addressed to a user,
// newest first.
func (s *Service) ListPendingForRecipient(ctx context.Context, userID string) ([]model.TransferRequest, error) {
	return s.listRequests(ctx,
		`SELECT `+requestColumns+` `+requestJoin+` WHERE t.to_user_id = ? AND t.status = ? ORDER BY t.created_at DESC`,
		userID, model.TransferPending)
}

// ListPending returns every pending request in the system, newest first
// (privileged view).
func (s *Service) ListPending(ctx context.Context) ([]model.TransferRequest, error) {
	return s.listRequests(ctx,
		`SELECT `+requestColumns+` `+requestJoin+` WHERE t.status = ? ORDER BY t.created_at DESC`,
		model.TransferPending)
}

// GetPendingForEquipment returns the single pending request for an
// equipment record, or nil if there is none. At most one exists.
func (s *Service) GetPendingForEquipment(ctx context.Context, equipmentID int64) (*model.TransferRequest, error) {
	return scanRequest(s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` `+requestJoin+` WHERE t.equipment_id = ? AND t.status = ? LIMIT 1`,
		equipmentID, model.TransferPending,
	))
}

func (s *Service) listRequests(ctx context.Context, query string, args ...any) ([]model.TransferRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transfer requests: %w", err)
	}
	defer rows.Close()

	var requests []model.TransferRequest
	for rows.Next() {
		tr, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *tr)
	}
	return requests, rows.Err()
}

func (s *Service) statusHistory(ctx context.Context, transferID string) ([]model.StatusChange, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, note, updated_by, updated_by_name, timestamp
		 FROM transfer_status_history WHERE transfer_id = ? ORDER BY timestamp, id`, transferID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting status history: %w", err)
	}
	defer rows.Close()

	var changes []model.StatusChange
	for rows.Next() {
		var c model.StatusChange
		var note sql.NullString
		if err := rows.Scan(&c.Status, &note, &c.UpdatedBy, &c.UpdatedByName, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning status change: %w", err)
		}
		c.Note = note.String
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// getRequestTx reads a transfer request row inside a transaction,
// without status history or joined fields.
func getRequestTx(ctx context.Context, tx *sql.Tx, id string) (*model.TransferRequest, error) {
	tr := &model.TransferRequest{}
	var reason, note sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT id, equipment_id, equipment_serial, from_user_id, from_user_name,
		        to_user_id, to_user_name, reason, note, status, created_at
		 FROM transfer_requests WHERE id = ?`, id,
	).Scan(&tr.ID, &tr.EquipmentID, &tr.EquipmentSerial, &tr.FromUserID, &tr.FromUserName,
		&tr.ToUserID, &tr.ToUserName, &reason, &note, &tr.Status, &tr.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer request: %w", err)
	}
	tr.Reason = reason.String
	tr.Note = note.String
	return tr, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRequest scans one joined request row. Absent rows map to (nil, nil).
func scanRequest(s rowScanner) (*model.TransferRequest, error) {
	tr := &model.TransferRequest{}
	var reason, note sql.NullString
	err := s.Scan(&tr.ID, &tr.EquipmentID, &tr.EquipmentSerial, &tr.FromUserID, &tr.FromUserName,
		&tr.ToUserID, &tr.ToUserName, &reason, &note, &tr.Status, &tr.CreatedAt, &tr.EquipmentName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning transfer request: %w", err)
	}
	tr.Reason = reason.String
	tr.Note = note.String
	return tr, nil
}
