package handlers

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/transportpro/internal/apperr"
	"github.com/ukydev/transportpro/internal/auth"
	"github.com/ukydev/transportpro/internal/db"
	"github.com/ukydev/transportpro/internal/middleware"
	"github.com/ukydev/transportpro/internal/models"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
	}
}

// Login exchanges an email and password for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq models.LoginRequest
	if err := decodeBody(r, &loginReq); err != nil {
		writeError(w, r, err)
		return
	}

	loginReq.Email = strings.ToLower(strings.TrimSpace(loginReq.Email))
	if loginReq.Email == "" || loginReq.Password == "" {
		writeError(w, r, apperr.Validation("email and password are required"))
		return
	}

	user, err := h.userCollection.FindUserByEmail(r.Context(), loginReq.Email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			unauthorized(w, auth.ErrInvalidCredentials)
			return
		}
		writeError(w, r, err)
		return
	}
	if !h.authService.CheckPassword(loginReq.Password, user.PasswordHash) {
		log.WithField("email", loginReq.Email).Warn("Failed login attempt")
		unauthorized(w, auth.ErrInvalidCredentials)
		return
	}
	if !user.IsActive() {
		unauthorized(w, auth.ErrUserInactive)
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID); err != nil {
		log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("Failed to update last login")
	}

	log.WithField("user_id", user.ID.Hex()).Info("User logged in")
	writeJSON(w, http.StatusOK, models.LoginResponse{
		Success: true,
		Token:   token,
		User:    *user,
	})
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, r, errNoCaller)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ChangePassword changes the current user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, r, errNoCaller)
		return
	}

	var passwordReq struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeBody(r, &passwordReq); err != nil {
		writeError(w, r, err)
		return
	}
	if passwordReq.CurrentPassword == "" || passwordReq.NewPassword == "" {
		writeError(w, r, apperr.Validation("current password and new password are required"))
		return
	}
	if err := h.authService.ValidatePassword(passwordReq.NewPassword); err != nil {
		writeError(w, r, apperr.Validation("new %s", err.Error()))
		return
	}
	if !h.authService.CheckPassword(passwordReq.CurrentPassword, user.PasswordHash) {
		writeError(w, r, apperr.Validation("current password is incorrect"))
		return
	}

	hash, err := h.authService.HashPassword(passwordReq.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user.PasswordHash = hash
	if err := h.userCollection.UpdateUser(r.Context(), user); err != nil {
		writeError(w, r, err)
		return
	}

	log.WithField("user_id", user.ID.Hex()).Info("Password changed")
	writeMessage(w, http.StatusOK, "Password changed successfully")
}

func unauthorized(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
}
