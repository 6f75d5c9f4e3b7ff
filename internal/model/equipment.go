package model

import "time"

// Equipment represents one serialized physical item and its current
// custody state. The numeric ID is the storage key; Serial is the
// human-facing serial number printed on the item (the two may differ).
type Equipment struct {
	ID          int64  `json:"id"`
	Serial      string `json:"serial"`
	ProductName string `json:"product_name"`
	Category    string `json:"category,omitempty"`
	Location    string `json:"location,omitempty"`
	Status      string `json:"status"`
	Condition   string `json:"condition"`
	HolderID    string `json:"current_holder_id,omitempty"`
	HolderName  string `json:"current_holder_name,omitempty"`
	ImageMime   string `json:"image_mime,omitempty"`

	// TrackingHistory is only populated on single-item reads.
	TrackingHistory []HistoryEntry `json:"tracking_history,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Equipment statuses.
const (
	StatusAvailable       = "available"
	StatusPendingTransfer = "pending_transfer"
	StatusInMaintenance   = "in_maintenance"
	StatusRetired         = "retired"
)

// Equipment conditions.
const (
	ConditionNew  = "new"
	ConditionGood = "good"
	ConditionFair = "fair"
	ConditionPoor = "poor"
)

// ValidStatus reports whether s is a known equipment status.
func ValidStatus(s string) bool {
	switch s {
	case StatusAvailable, StatusPendingTransfer, StatusInMaintenance, StatusRetired:
		return true
	}
	return false
}

// ValidCondition reports whether c is a known equipment condition.
func ValidCondition(c string) bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// HistoryEntry is one immutable, timestamped event in an equipment's
// bounded tracking history. Entries are appended by the store and
// evicted oldest-first once capacity is reached; they are never edited.
type HistoryEntry struct {
	Action    string    `json:"action"`
	Holder    string    `json:"holder,omitempty"`
	Location  string    `json:"location,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	UpdatedBy string    `json:"updated_by"`
	Timestamp time.Time `json:"timestamp"`
}

// History / action log action kinds.
const (
	ActionEquipmentCreated    = "equipment_created"
	ActionTransferRequested   = "transfer_requested"
	ActionTransferApproved    = "transfer_approved"
	ActionTransferRejected    = "transfer_rejected"
	ActionTransferCancelled   = "transfer_cancelled"
	ActionStatusUpdate        = "status_update"
	ActionConditionUpdate     = "condition_update"
	ActionLocationUpdate      = "location_update"
	ActionMaintenanceStart    = "maintenance_start"
	ActionMaintenanceComplete = "maintenance_complete"
	ActionDailyCheckIn        = "daily_check_in"
)
