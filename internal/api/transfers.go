package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/MatanTal2/sayeret-givati-sub001/internal/model"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/store"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/transfer"
)

// TransfersHandler handles the transfer request endpoints. The state
// machine itself lives in the transfer package; the handler only maps
// requests and errors.
type TransfersHandler struct {
	DB      *sql.DB
	Service *transfer.Service
}

type createTransferRequest struct {
	EquipmentID int64  `json:"equipment_id"`
	ToUserID    string `json:"to_user_id"`
	Reason      string `json:"reason"`
	Note        string `json:"note"`
}

type transferDecisionRequest struct {
	Note string `json:"note"`
}

// Create handles POST /api/transfers.
func (h *TransfersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EquipmentID == 0 || req.ToUserID == "" {
		jsonError(w, http.StatusBadRequest, "equipment_id and to_user_id required")
		return
	}

	claims := GetClaims(r.Context())
	if req.ToUserID == claims.UserID {
		jsonError(w, http.StatusBadRequest, "cannot transfer equipment to yourself")
		return
	}

	toUser, err := store.GetUser(r.Context(), h.DB, req.ToUserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to look up recipient")
		return
	}
	if toUser == nil {
		jsonError(w, http.StatusNotFound, "recipient not found")
		return
	}

	id, err := h.Service.Create(r.Context(), req.EquipmentID, toUser.ID, toUser.Name,
		req.Reason, claims.UserID, claims.Name, req.Note)
	if err != nil {
		transferError(w, err)
		return
	}

	tr, err := h.Service.GetRequest(r.Context(), id)
	if err != nil || tr == nil {
		jsonError(w, http.StatusInternalServerError, "failed to get transfer request")
		return
	}

	slog.Info("transfer requested", "transfer", id, "equipment", req.EquipmentID, "by", claims.Username)
	jsonResponse(w, http.StatusCreated, tr)
}

// Get handles GET /api/transfers/{id}.
func (h *TransfersHandler) Get(w http.ResponseWriter, r *http.Request) {
	tr, err := h.Service.GetRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get transfer request")
		return
	}
	if tr == nil {
		jsonError(w, http.StatusNotFound, "transfer request not found")
		return
	}
	jsonResponse(w, http.StatusOK, tr)
}

// Approve handles POST /api/transfers/{id}/approve. Only the
// designated recipient may approve.
func (h *TransfersHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(id, note string) error {
		claims := GetClaims(r.Context())
		tr, err := h.Service.GetRequest(r.Context(), id)
		if err != nil {
			return err
		}
		if tr != nil && tr.ToUserID != claims.UserID {
			return errNotRecipient
		}
		return h.Service.Approve(r.Context(), id, claims.UserID, claims.Name, note)
	})
}

// Reject handles POST /api/transfers/{id}/reject. Only the designated
// recipient may reject.
func (h *TransfersHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(id, note string) error {
		claims := GetClaims(r.Context())
		tr, err := h.Service.GetRequest(r.Context(), id)
		if err != nil {
			return err
		}
		if tr != nil && tr.ToUserID != claims.UserID {
			return errNotRecipient
		}
		return h.Service.Reject(r.Context(), id, claims.UserID, claims.Name, note)
	})
}

// Cancel handles POST /api/transfers/{id}/cancel. The service checks
// that the caller is the original requester.
func (h *TransfersHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(id, note string) error {
		claims := GetClaims(r.Context())
		return h.Service.Cancel(r.Context(), id, claims.UserID, claims.Name, note)
	})
}

// Remind handles POST /api/transfers/{id}/remind.
func (h *TransfersHandler) Remind(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if err := h.Service.SendReminder(r.Context(), r.PathValue("id"), claims.UserID, claims.Name); err != nil {
		transferError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "reminder sent"})
}

// ListPendingForMe handles GET /api/transfers/pending, the requests
// awaiting the caller's decision.
func (h *TransfersHandler) ListPendingForMe(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	requests, err := h.Service.ListPendingForRecipient(r.Context(), claims.UserID)
	h.list(w, requests, err)
}

// ListAllPending handles GET /api/transfers/pending/all (manager and up).
func (h *TransfersHandler) ListAllPending(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Service.ListPending(r.Context())
	h.list(w, requests, err)
}

// ListForEquipment handles GET /api/equipment/{id}/transfers.
func (h *TransfersHandler) ListForEquipment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}
	requests, err := h.Service.ListForEquipment(r.Context(), id)
	h.list(w, requests, err)
}

func (h *TransfersHandler) list(w http.ResponseWriter, requests []model.TransferRequest, err error) {
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list transfer requests")
		return
	}
	if requests == nil {
		requests = []model.TransferRequest{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// decide wraps the approve/reject/cancel endpoints, which share the
// same request body and error mapping.
func (h *TransfersHandler) decide(w http.ResponseWriter, r *http.Request, op func(id, note string) error) {
	var req transferDecisionRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	id := r.PathValue("id")
	if err := op(id, req.Note); err != nil {
		transferError(w, err)
		return
	}

	tr, err := h.Service.GetRequest(r.Context(), id)
	if err != nil || tr == nil {
		jsonError(w, http.StatusInternalServerError, "failed to get transfer request")
		return
	}
	jsonResponse(w, http.StatusOK, tr)
}

var errNotRecipient = errors.New("only the designated recipient may perform this action")

// transferError maps the transfer package's sentinel errors to HTTP
// status codes.
func transferError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transfer.ErrEquipmentNotFound),
		errors.Is(err, transfer.ErrTransferNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, transfer.ErrNotPending),
		errors.Is(err, transfer.ErrAlreadyPending):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, transfer.ErrNotRequester),
		errors.Is(err, errNotRecipient):
		jsonError(w, http.StatusForbidden, err.Error())
	default:
		slog.Error("transfer operation failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "transfer operation failed")
	}
}
