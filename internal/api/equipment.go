package api

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MatanTal2/sayeret-givati-sub001/internal/history"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/imaging"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/model"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/store"
)

// EquipmentHandler handles equipment endpoints.
type EquipmentHandler struct {
	DB *sql.DB
}

type createEquipmentRequest struct {
	Serial      string `json:"serial"`
	ProductName string `json:"product_name"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Condition   string `json:"condition"`
	HolderID    string `json:"current_holder_id"`
	HolderName  string `json:"current_holder_name"`
}

type fieldUpdateRequest struct {
	Value string `json:"value"`
}

type maintenanceRequest struct {
	Note string `json:"note"`
}

// List handles GET /api/equipment.
func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	equipment, err := store.ListEquipment(r.Context(), h.DB, q.Get("status"), q.Get("category"), q.Get("holder_id"))
	if err != nil {
		slog.Error("failed to list equipment", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list equipment")
		return
	}
	if equipment == nil {
		equipment = []model.Equipment{}
	}
	jsonResponse(w, http.StatusOK, equipment)
}

// Create handles POST /api/equipment.
func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEquipmentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Serial == "" || req.ProductName == "" {
		jsonError(w, http.StatusBadRequest, "serial and product_name required")
		return
	}
	if req.Condition != "" && !model.ValidCondition(req.Condition) {
		jsonError(w, http.StatusBadRequest, "invalid condition")
		return
	}

	claims := GetClaims(r.Context())
	eq, err := store.CreateEquipment(r.Context(), h.DB, req.Serial, req.ProductName, req.Category,
		req.Location, req.Condition, req.HolderID, req.HolderName, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "failed to create equipment (serial may be taken)")
		return
	}

	// Audit entry is best effort; the equipment record already committed.
	entry := model.NewEquipmentCreatedAction(eq, claims.UserID, claims.Name, "")
	if _, err := store.RecordAction(r.Context(), h.DB, entry); err != nil {
		slog.Error("action log write failed", "action", entry.ActionType, "error", err)
	}

	slog.Info("equipment created", "serial", eq.Serial, "by", claims.Username)
	jsonResponse(w, http.StatusCreated, eq)
}

// Get handles GET /api/equipment/{id}. The response includes the
// tracking history.
func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := equipmentID(w, r)
	if !ok {
		return
	}

	eq, err := store.GetEquipment(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get equipment")
		return
	}
	if eq == nil {
		jsonError(w, http.StatusNotFound, "equipment not found")
		return
	}
	jsonResponse(w, http.StatusOK, eq)
}

// Delete handles DELETE /api/equipment/{id}.
func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := equipmentID(w, r)
	if !ok {
		return
	}

	if err := store.DeleteEquipment(r.Context(), h.DB, id); err != nil {
		if errors.Is(err, store.ErrPendingTransfer) {
			jsonError(w, http.StatusConflict, err.Error())
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to delete equipment")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "equipment deleted"})
}

// UpdateStatus handles PUT /api/equipment/{id}/status.
func (h *EquipmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	h.fieldUpdate(w, r, store.UpdateStatus, func(eq *model.Equipment, value string) {
		claims := GetClaims(r.Context())
		entry := model.NewStatusUpdateAction(eq, claims.UserID, claims.Name, "status changed to "+value)
		if _, err := store.RecordAction(r.Context(), h.DB, entry); err != nil {
			slog.Error("action log write failed", "action", entry.ActionType, "error", err)
		}
	})
}

// UpdateCondition handles PUT /api/equipment/{id}/condition.
func (h *EquipmentHandler) UpdateCondition(w http.ResponseWriter, r *http.Request) {
	h.fieldUpdate(w, r, store.UpdateCondition, nil)
}

// UpdateLocation handles PUT /api/equipment/{id}/location.
func (h *EquipmentHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	h.fieldUpdate(w, r, store.UpdateLocation, nil)
}

// fieldUpdate factors the shared shape of the single-field update
// endpoints. The optional after hook runs once the update committed.
func (h *EquipmentHandler) fieldUpdate(w http.ResponseWriter, r *http.Request,
	update func(ctx context.Context, db *sql.DB, id int64, value, actorID string) error,
	after func(*model.Equipment, string)) {
	id, ok := equipmentID(w, r)
	if !ok {
		return
	}

	var req fieldUpdateRequest
	if err := decodeJSON(r, &req); err != nil || req.Value == "" {
		jsonError(w, http.StatusBadRequest, "value required")
		return
	}

	claims := GetClaims(r.Context())
	if err := update(r.Context(), h.DB, id, req.Value, claims.UserID); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	eq, err := store.GetEquipment(r.Context(), h.DB, id)
	if err != nil || eq == nil {
		jsonError(w, http.StatusInternalServerError, "failed to get equipment")
		return
	}
	if after != nil {
		after(eq, req.Value)
	}
	jsonResponse(w, http.StatusOK, eq)
}

// StartMaintenance handles POST /api/equipment/{id}/maintenance.
func (h *EquipmentHandler) StartMaintenance(w http.ResponseWriter, r *http.Request) {
	h.maintenance(w, r, store.StartMaintenance)
}

// CompleteMaintenance handles POST /api/equipment/{id}/maintenance/complete.
func (h *EquipmentHandler) CompleteMaintenance(w http.ResponseWriter, r *http.Request) {
	h.maintenance(w, r, store.CompleteMaintenance)
}

func (h *EquipmentHandler) maintenance(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, db *sql.DB, id int64, actorID, note string) error) {
	id, ok := equipmentID(w, r)
	if !ok {
		return
	}

	var req maintenanceRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	claims := GetClaims(r.Context())
	if err := op(r.Context(), h.DB, id, claims.UserID, req.Note); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	eq, err := store.GetEquipment(r.Context(), h.DB, id)
	if err != nil || eq == nil {
		jsonError(w, http.StatusInternalServerError, "failed to get equipment")
		return
	}
	jsonResponse(w, http.StatusOK, eq)
}

// CheckIn handles POST /api/equipment/{id}/checkin, the daily
// presence confirmation by the current holder.
func (h *EquipmentHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	id, ok := equipmentID(w, r)
	if !ok {
		return
	}

	claims := GetClaims(r.Context())
	if err := store.DailyCheckIn(r.Context(), h.DB, id, claims.UserID); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "check-in recorded"})
}

// equipmentID parses the {id} path value, writing an error response on failure.
func equipmentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return 0, false
	}
	return id, true
}

// UploadImage handles PUT /api/equipment/{id}/image.
func (h *EquipmentHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := equipmentID(w, r)
	if !ok {
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	processed, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetEquipmentImage(r.Context(), h.DB, id, processed.Data, processed.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/equipment/{id}/image.
func (h *EquipmentHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := equipmentID(w, r)
	if !ok {
		return
	}

	data, mime, err := store.GetEquipmentImage(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// GetHistory handles GET /api/equipment/{id}/history. Optional query
// parameters: action (filter by action type), from/to (inclusive date
// range, RFC 3339 or YYYY-MM-DD).
func (h *EquipmentHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := equipmentID(w, r)
	if !ok {
		return
	}

	entries, err := store.GetTrackingHistory(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get tracking history")
		return
	}

	q := r.URL.Query()
	if action := q.Get("action"); action != "" {
		entries = history.ByAction(entries, action)
	}
	if q.Get("from") != "" || q.Get("to") != "" {
		from, to, err := parseRange(q.Get("from"), q.Get("to"))
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		entries = history.InRange(entries, from, to)
	}

	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// parseRange parses from/to query values. Either side may be empty,
// which leaves that bound open. Date-only values cover the whole day.
func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from, err := parseTimeParam(fromStr, false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseTimeParam(toStr, true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	return from, to, nil
}

func parseTimeParam(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.New("invalid time format, want RFC 3339 or YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
