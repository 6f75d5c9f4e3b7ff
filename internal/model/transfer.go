package model

import "time"

// TransferRequest represents one attempt to move custody of an
// equipment record from one holder to another. Requests are never
// deleted; resolved requests remain as audit records.
type TransferRequest struct {
	ID              string `json:"id"`
	EquipmentID     int64  `json:"equipment_id"`
	EquipmentSerial string `json:"equipment_serial"`
	FromUserID      string `json:"from_user_id"`
	FromUserName    string `json:"from_user_name"`
	ToUserID        string `json:"to_user_id"`
	ToUserName      string `json:"to_user_name"`
	Reason          string `json:"reason,omitempty"`
	Note            string `json:"note,omitempty"`
	Status          string `json:"status"`

	// StatusHistory is append-only: the first entry is always the
	// pending entry written at creation, followed by at most one
	// terminal transition.
	StatusHistory []StatusChange `json:"status_history,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// Joined field (not always populated).
	EquipmentName string `json:"equipment_name,omitempty"`
}

// Transfer request statuses. Only pending requests may transition.
const (
	TransferPending   = "pending"
	TransferApproved  = "approved"
	TransferRejected  = "rejected"
	TransferCancelled = "cancelled"
)

// TransferTerminal reports whether status is a terminal transfer state.
func TransferTerminal(status string) bool {
	switch status {
	case TransferApproved, TransferRejected, TransferCancelled:
		return true
	}
	return false
}

// StatusChange is one entry in a transfer request's status history.
type StatusChange struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	UpdatedBy     string    `json:"updated_by"`
	UpdatedByName string    `json:"updated_by_name"`
	Note          string    `json:"note,omitempty"`
}
