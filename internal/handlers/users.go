package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ukydev/transportpro/internal/apperr"
	"github.com/ukydev/transportpro/internal/authz"
	"github.com/ukydev/transportpro/internal/models"
	"github.com/ukydev/transportpro/internal/users"
)

// UserService manages accounts.
type UserService interface {
	List(ctx context.Context, caller authz.Caller, filter users.Filter) ([]models.User, users.Stats, error)
	Get(ctx context.Context, caller authz.Caller, id string) (*models.User, error)
	Create(ctx context.Context, caller authz.Caller, req models.CreateUserRequest) (*models.User, error)
	Update(ctx context.Context, caller authz.Caller, id string, req models.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, caller authz.Caller, id string) error
	ResetPassword(ctx context.Context, caller authz.Caller, id, newPassword string) error
	ToggleStatus(ctx context.Context, caller authz.Caller, id string) (*models.User, error)
}

// UserHandler serves /api/users.
type UserHandler struct {
	users UserService
}

// NewUserHandler creates a user handler.
func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

type userList struct {
	Users []models.User `json:"users"`
	Stats users.Stats   `json:"stats"`
}

// List returns users filtered by role and status, with stats over all users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := users.Filter{
		Role:   models.Role(q.Get("role")),
		Status: models.UserStatus(q.Get("status")),
	}
	list, stats, err := h.users.List(r.Context(), caller, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userList{Users: list, Stats: stats})
}

// Get returns one user.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.users.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Create adds a user.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req models.CreateUserRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.users.Create(r.Context(), caller, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Update applies a partial user update.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req models.UpdateUserRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.users.Update(r.Context(), caller, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Delete removes a user.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.users.Delete(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "User deleted")
}

// ResetPassword sets another user's password.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		NewPassword string `json:"newPassword"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.NewPassword == "" {
		writeError(w, r, apperr.Validation("newPassword is required"))
		return
	}
	if err := h.users.ResetPassword(r.Context(), caller, chi.URLParam(r, "id"), req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset successfully")
}

// ToggleStatus flips a user between active and inactive.
func (h *UserHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.users.ToggleStatus(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
