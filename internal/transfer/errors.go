package transfer

import "errors"

// Domain errors surfaced to callers. All abort the operation before
// any write is committed.
var (
	// ErrEquipmentNotFound is returned when the referenced equipment
	// record does not exist (or is deleted).
	ErrEquipmentNotFound = errors.New("equipment not found")

	// ErrTransferNotFound is returned when the referenced transfer
	// request does not exist.
	ErrTransferNotFound = errors.New("transfer request not found")

	// ErrNotPending is returned when a transition is attempted on a
	// request that already reached a terminal state.
	ErrNotPending = errors.New("transfer request is not pending")

	// ErrNotRequester is returned when someone other than the original
	// requester tries to cancel a request or send a reminder.
	ErrNotRequester = errors.New("only the original requester may perform this action")

	// ErrAlreadyPending is returned when a request is created for
	// equipment that already has a pending transfer.
	ErrAlreadyPending = errors.New("equipment already has a pending transfer request")
)
