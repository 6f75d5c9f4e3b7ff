package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/MatanTal2/sayeret-givati-sub001/internal/model"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	DB *sql.DB
}

type createUserRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Name == "" || req.Password == "" || req.Role == "" {
		jsonError(w, http.StatusBadRequest, "username, name, password, and role required")
		return
	}
	if !validRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, req.Name, string(hash), req.Role)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "failed to create user (username may be taken)")
		return
	}

	slog.Info("user created", "user", user.Username, "role", user.Role)
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := store.GetUser(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || !validRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "name and a valid role required")
		return
	}

	if err := store.UpdateUser(r.Context(), h.DB, id, req.Name, req.Role); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	user, _ := store.GetUser(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, user)
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, id, string(hash)); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteUser(r.Context(), h.DB, r.PathValue("id")); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func validRole(role string) bool {
	return role == model.RoleAdmin || role == model.RoleManager || role == model.RoleSoldier
}
