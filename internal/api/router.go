package api

import (
	"database/sql"
	"net/http"

	"github.com/MatanTal2/sayeret-givati-sub001/internal/model"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/notify"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/transfer"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, notifier notify.Notifier) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	equipmentHandler := &EquipmentHandler{DB: db}
	transfersHandler := &TransfersHandler{DB: db, Service: transfer.NewService(db, notifier)}
	actionsHandler := &ActionsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Equipment: read and day-to-day updates (all roles), create and
	// administrative changes (manager+).
	mux.Handle("GET /api/equipment", authMW(http.HandlerFunc(equipmentHandler.List)))
	mux.Handle("POST /api/equipment", authMW(requireManager(http.HandlerFunc(equipmentHandler.Create))))
	mux.Handle("GET /api/equipment/{id}", authMW(http.HandlerFunc(equipmentHandler.Get)))
	mux.Handle("DELETE /api/equipment/{id}", authMW(requireManager(http.HandlerFunc(equipmentHandler.Delete))))
	mux.Handle("PUT /api/equipment/{id}/status", authMW(requireManager(http.HandlerFunc(equipmentHandler.UpdateStatus))))
	mux.Handle("PUT /api/equipment/{id}/condition", authMW(http.HandlerFunc(equipmentHandler.UpdateCondition)))
	mux.Handle("PUT /api/equipment/{id}/location", authMW(http.HandlerFunc(equipmentHandler.UpdateLocation)))
	mux.Handle("POST /api/equipment/{id}/maintenance", authMW(requireManager(http.HandlerFunc(equipmentHandler.StartMaintenance))))
	mux.Handle("POST /api/equipment/{id}/maintenance/complete", authMW(requireManager(http.HandlerFunc(equipmentHandler.CompleteMaintenance))))
	mux.Handle("POST /api/equipment/{id}/checkin", authMW(http.HandlerFunc(equipmentHandler.CheckIn)))
	mux.Handle("PUT /api/equipment/{id}/image", authMW(requireManager(http.HandlerFunc(equipmentHandler.UploadImage))))
	mux.Handle("GET /api/equipment/{id}/image", authMW(http.HandlerFunc(equipmentHandler.GetImage)))
	mux.Handle("GET /api/equipment/{id}/history", authMW(http.HandlerFunc(equipmentHandler.GetHistory)))
	mux.Handle("GET /api/equipment/{id}/transfers", authMW(http.HandlerFunc(transfersHandler.ListForEquipment)))

	// Transfers (all roles; the service enforces per-request authorization).
	mux.Handle("POST /api/transfers", authMW(http.HandlerFunc(transfersHandler.Create)))
	mux.Handle("GET /api/transfers/pending", authMW(http.HandlerFunc(transfersHandler.ListPendingForMe)))
	mux.Handle("GET /api/transfers/pending/all", authMW(requireManager(http.HandlerFunc(transfersHandler.ListAllPending))))
	mux.Handle("GET /api/transfers/{id}", authMW(http.HandlerFunc(transfersHandler.Get)))
	mux.Handle("POST /api/transfers/{id}/approve", authMW(http.HandlerFunc(transfersHandler.Approve)))
	mux.Handle("POST /api/transfers/{id}/reject", authMW(http.HandlerFunc(transfersHandler.Reject)))
	mux.Handle("POST /api/transfers/{id}/cancel", authMW(http.HandlerFunc(transfersHandler.Cancel)))
	mux.Handle("POST /api/transfers/{id}/remind", authMW(http.HandlerFunc(transfersHandler.Remind)))

	// Action log (manager+).
	mux.Handle("GET /api/actions", authMW(requireManager(http.HandlerFunc(actionsHandler.List))))

	return mux
}
