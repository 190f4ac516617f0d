// Package http provides the HTTP handlers of the climbing log API:
// user registration and login, the catalog of areas, routes and
// ascents, cascade deletes and per-user statistics.
package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/CragLog/internal/middleware"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Register creates a user and returns an access token.
	Register(ctx context.Context, username, password string) (string, error)
	// Login checks the password and returns an access token.
	Login(ctx context.Context, username, password string) (string, error)
	// UpdatePassword replaces the password of an authenticated user.
	UpdatePassword(ctx context.Context, userID, current, next string) error
}

// AuthHandler handles HTTP requests for user registration and login.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	Log         *zap.Logger
}

// CredentialsRequest represents the JSON payload for registration and login.
type CredentialsRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Password string `json:"password" validate:"required,min=6"`
}

// PasswordRequest represents the JSON payload of a password change.
type PasswordRequest struct {
	Current string `json:"currentPassword" validate:"required"`
	Next    string `json:"newPassword" validate:"required,min=6"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register handles user registration requests.
// It responds 201 with a bearer token, or 409 if the username is taken.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decode(w, r, &req) {
		return
	}

	token, err := h.AuthService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

// Login handles password login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeBody(r, &req); err != nil || req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
		return
	}

	token, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// UpdatePassword changes the password of the authenticated user.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if !decode(w, r, &req) {
		return
	}

	userID := middleware.GetUserIDFromContext(r.Context())
	if err := h.AuthService.UpdatePassword(r.Context(), userID, req.Current, req.Next); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
