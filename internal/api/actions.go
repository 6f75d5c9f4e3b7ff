package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/MatanTal2/sayeret-givati-sub001/internal/model"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/store"
)

// ActionsHandler serves read-only views over the audit action log.
// Entries are never modified or deleted through the API.
type ActionsHandler struct {
	DB *sql.DB
}

// List handles GET /api/actions. Query parameters narrow the result:
// equipment_id, actor_id, type, or from/to. Without parameters the
// most recent entries are returned.
func (h *ActionsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		entries []model.ActionEntry
		err     error
	)
	switch {
	case q.Get("equipment_id") != "":
		var id int64
		id, err = strconv.ParseInt(q.Get("equipment_id"), 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid equipment_id")
			return
		}
		entries, err = store.ActionsByEquipment(r.Context(), h.DB, id)
	case q.Get("actor_id") != "":
		entries, err = store.ActionsByActor(r.Context(), h.DB, q.Get("actor_id"))
	case q.Get("type") != "":
		entries, err = store.ActionsByType(r.Context(), h.DB, q.Get("type"))
	case q.Get("from") != "" || q.Get("to") != "":
		from, to, perr := parseRange(q.Get("from"), q.Get("to"))
		if perr != nil {
			jsonError(w, http.StatusBadRequest, perr.Error())
			return
		}
		entries, err = store.ActionsInRange(r.Context(), h.DB, from, to)
	default:
		entries, err = store.RecentActions(r.Context(), h.DB)
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to query action log")
		return
	}

	if entries == nil {
		entries = []model.ActionEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}
