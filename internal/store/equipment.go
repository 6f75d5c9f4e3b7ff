package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MatanTal2/sayeret-givati-sub001/internal/history"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/model"
)

// CreateEquipment registers a new serialized item and writes its initial
// tracking-history entry in a single transaction.
func CreateEquipment(ctx context.Context, db *sql.DB, serial, productName, category, location, condition, holderID, holderName, actorID string) (*model.Equipment, error) {
	if condition == "" {
		condition = model.ConditionGood
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO equipment (serial, product_name, category, location, condition, current_holder_id, current_holder_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		serial, productName, category, location, condition, holderID, holderName,
	)
	if err != nil {
		return nil, fmt.Errorf("creating equipment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting equipment id: %w", err)
	}

	if err := AppendHistoryTx(ctx, tx, id, history.EquipmentCreated(holderName, location, actorID)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing equipment creation: %w", err)
	}

	return GetEquipment(ctx, db, id)
}

// GetEquipment returns an equipment record with its tracking history.
func GetEquipment(ctx context.Context, db *sql.DB, id int64) (*model.Equipment, error) {
	eq, err := scanEquipment(db.QueryRowContext(ctx,
		`SELECT id, serial, product_name, category, location, status, condition,
		        current_holder_id, current_holder_name, image_mime, created_at, updated_at, deleted_at
		 FROM equipment WHERE id = ?`, id,
	))
	if err != nil || eq == nil {
		return eq, err
	}

	eq.TrackingHistory, err = GetTrackingHistory(ctx, db, id)
	if err != nil {
		return nil, err
	}
	return eq, nil
}

// GetEquipmentBySerial returns a non-deleted equipment record by its
// human-facing serial number, without history.
func GetEquipmentBySerial(ctx context.Context, db *sql.DB, serial string) (*model.Equipment, error) {
	return scanEquipment(db.QueryRowContext(ctx,
		`SELECT id, serial, product_name, category, location, status, condition,
		        current_holder_id, current_holder_name, image_mime, created_at, updated_at, deleted_at
		 FROM equipment WHERE serial = ? AND deleted_at IS NULL`, serial,
	))
}

// ListEquipment returns all non-deleted equipment, optionally filtered
// by status, category, or current holder.
func ListEquipment(ctx context.Context, db *sql.DB, status, category, holderID string) ([]model.Equipment, error) {
	query := `SELECT id, serial, product_name, category, location, status, condition,
	                 current_holder_id, current_holder_name, image_mime, created_at, updated_at, deleted_at
	          FROM equipment WHERE deleted_at IS NULL`
	var args []any

	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	if holderID != "" {
		query += ` AND current_holder_id = ?`
		args = append(args, holderID)
	}

	query += ` ORDER BY product_name, serial`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing equipment: %w", err)
	}
	defer rows.Close()

	var out []model.Equipment
	for rows.Next() {
		eq, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *eq)
	}
	return out, rows.Err()
}

// UpdateStatus manually changes an equipment's status and records it in
// the tracking history. pending_transfer is owned by the transfer
// workflow and cannot be set here.
func UpdateStatus(ctx context.Context, db *sql.DB, id int64, newStatus, actorID string) error {
	if newStatus == model.StatusPendingTransfer {
		return fmt.Errorf("status %s is managed by the transfer workflow", newStatus)
	}
	if !model.ValidStatus(newStatus) {
		return fmt.Errorf("invalid status %q", newStatus)
	}
	return updateWithHistory(ctx, db, id,
		`UPDATE equipment SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		[]any{newStatus, id},
		func(eq *model.Equipment) model.HistoryEntry {
			return history.StatusUpdate(eq.HolderName, eq.Location, actorID, newStatus)
		},
	)
}

// UpdateCondition changes an equipment's condition and records it.
func UpdateCondition(ctx context.Context, db *sql.DB, id int64, newCondition, actorID string) error {
	if !model.ValidCondition(newCondition) {
		return fmt.Errorf("invalid condition %q", newCondition)
	}
	return updateWithHistory(ctx, db, id,
		`UPDATE equipment SET condition = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		[]any{newCondition, id},
		func(eq *model.Equipment) model.HistoryEntry {
			return history.ConditionUpdate(eq.HolderName, eq.Location, actorID, newCondition)
		},
	)
}

// UpdateLocation moves an equipment to a new location and records it.
func UpdateLocation(ctx context.Context, db *sql.DB, id int64, newLocation, actorID string) error {
	return updateWithHistory(ctx, db, id,
		`UPDATE equipment SET location = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		[]any{newLocation, id},
		func(eq *model.Equipment) model.HistoryEntry {
			return history.LocationUpdate(eq.HolderName, newLocation, actorID)
		},
	)
}

// StartMaintenance moves an equipment into maintenance.
func StartMaintenance(ctx context.Context, db *sql.DB, id int64, actorID, note string) error {
	return updateWithHistory(ctx, db, id,
		`UPDATE equipment SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		[]any{model.StatusInMaintenance, id},
		func(eq *model.Equipment) model.HistoryEntry {
			return history.MaintenanceStart(eq.HolderName, eq.Location, actorID, note)
		},
	)
}

// CompleteMaintenance returns an equipment from maintenance to available.
func CompleteMaintenance(ctx context.Context, db *sql.DB, id int64, actorID, note string) error {
	return updateWithHistory(ctx, db, id,
		`UPDATE equipment SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		[]any{model.StatusAvailable, id},
		func(eq *model.Equipment) model.HistoryEntry {
			return history.MaintenanceComplete(eq.HolderName, eq.Location, actorID, note)
		},
	)
}

// DailyCheckIn records a routine verification without changing any field.
func DailyCheckIn(ctx context.Context, db *sql.DB, id int64, actorID string) error {
	return updateWithHistory(ctx, db, id,
		`UPDATE equipment SET updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		[]any{id},
		func(eq *model.Equipment) model.HistoryEntry {
			return history.DailyCheckIn(eq.HolderName, eq.Location, actorID)
		},
	)
}

// ErrPendingTransfer is returned when an operation would orphan a
// pending transfer request.
var ErrPendingTransfer = errors.New("equipment has a pending transfer request")

// DeleteEquipment soft-deletes an equipment record. Its tracking
// history and transfer records are retained for audit. Deletion is
// refused while a pending transfer exists: the transfer workflow reads
// only non-deleted rows, so deleting out from under a pending request
// would leave it unresolvable.
func DeleteEquipment(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var pending int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfer_requests WHERE equipment_id = ? AND status = ?`,
		id, model.TransferPending,
	).Scan(&pending)
	if err != nil {
		return fmt.Errorf("checking pending transfers: %w", err)
	}
	if pending > 0 {
		return ErrPendingTransfer
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE equipment SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting equipment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing equipment deletion: %w", err)
	}
	return nil
}

// SetEquipmentImage sets an equipment's photo.
func SetEquipmentImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE equipment SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting equipment image: %w", err)
	}
	return nil
}

// GetEquipmentImage returns an equipment's photo data and MIME type.
func GetEquipmentImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM equipment WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting equipment image: %w", err)
	}
	return image, mime.String, nil
}

// GetTrackingHistory returns an equipment's tracking history, oldest first.
func GetTrackingHistory(ctx context.Context, db *sql.DB, equipmentID int64) ([]model.HistoryEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT action, holder, location, notes, updated_by, timestamp
		 FROM tracking_history WHERE equipment_id = ? ORDER BY timestamp, id`, equipmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting tracking history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var holder, location, notes sql.NullString
		if err := rows.Scan(&e.Action, &holder, &location, &notes, &e.UpdatedBy, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		e.Holder = holder.String
		e.Location = location.String
		e.Notes = notes.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetEquipmentTx reads a non-deleted equipment row inside a transaction,
// without history. Preconditions must be validated against this
// just-read state, never against state read before the transaction.
func GetEquipmentTx(ctx context.Context, tx *sql.Tx, id int64) (*model.Equipment, error) {
	return scanEquipment(tx.QueryRowContext(ctx,
		`SELECT id, serial, product_name, category, location, status, condition,
		        current_holder_id, current_holder_name, image_mime, created_at, updated_at, deleted_at
		 FROM equipment WHERE id = ? AND deleted_at IS NULL`, id,
	))
}

// AppendHistoryTx appends entry to the equipment's stored tracking
// history inside tx. It loads the current entries, lets history.Append
// decide eviction and stamp the timestamp, and mirrors the result into
// rows: evicted oldest rows are deleted, the new entry is inserted.
func AppendHistoryTx(ctx context.Context, tx *sql.Tx, equipmentID int64, entry model.HistoryEntry) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, action, holder, location, notes, updated_by, timestamp
		 FROM tracking_history WHERE equipment_id = ? ORDER BY timestamp, id`, equipmentID,
	)
	if err != nil {
		return fmt.Errorf("reading tracking history: %w", err)
	}

	var rowIDs []int64
	var current []model.HistoryEntry
	for rows.Next() {
		var rowID int64
		var e model.HistoryEntry
		var holder, location, notes sql.NullString
		if err := rows.Scan(&rowID, &e.Action, &holder, &location, &notes, &e.UpdatedBy, &e.Timestamp); err != nil {
			rows.Close()
			return fmt.Errorf("scanning history entry: %w", err)
		}
		e.Holder = holder.String
		e.Location = location.String
		e.Notes = notes.String
		rowIDs = append(rowIDs, rowID)
		current = append(current, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading tracking history: %w", err)
	}

	updated := history.Append(current, entry)

	// Delete the rows Append evicted (everything before the survivors).
	for _, rowID := range rowIDs[:len(rowIDs)-(len(updated)-1)] {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tracking_history WHERE id = ?`, rowID); err != nil {
			return fmt.Errorf("evicting history entry: %w", err)
		}
	}

	stamped := updated[len(updated)-1]
	_, err = tx.ExecContext(ctx,
		`INSERT INTO tracking_history (equipment_id, action, holder, location, notes, updated_by, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		equipmentID, stamped.Action, stamped.Holder, stamped.Location, stamped.Notes, stamped.UpdatedBy, stamped.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("appending history entry: %w", err)
	}
	return nil
}

// updateWithHistory runs a single-row equipment update and appends the
// matching tracking-history entry in one transaction. The entry is
// built from the just-read row so holder/location reflect current state.
func updateWithHistory(ctx context.Context, db *sql.DB, id int64, query string, args []any, buildEntry func(*model.Equipment) model.HistoryEntry) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	eq, err := GetEquipmentTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if eq == nil {
		return fmt.Errorf("equipment not found")
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating equipment: %w", err)
	}

	if err := AppendHistoryTx(ctx, tx, id, buildEntry(eq)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing equipment update: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEquipment scans one equipment row. Absent rows map to (nil, nil).
func scanEquipment(s rowScanner) (*model.Equipment, error) {
	eq := &model.Equipment{}
	var category, location, holderID, holderName, imageMime sql.NullString
	err := s.Scan(&eq.ID, &eq.Serial, &eq.ProductName, &category, &location, &eq.Status, &eq.Condition,
		&holderID, &holderName, &imageMime, &eq.CreatedAt, &eq.UpdatedAt, &eq.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning equipment: %w", err)
	}
	eq.Category = category.String
	eq.Location = location.String
	eq.HolderID = holderID.String
	eq.HolderName = holderName.String
	eq.ImageMime = imageMime.String
	return eq, nil
}
