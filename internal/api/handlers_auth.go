// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/tabula/internal/auth"
	"github.com/tomtom215/tabula/internal/logging"
	"github.com/tomtom215/tabula/internal/metrics"
	"github.com/tomtom215/tabula/internal/models"
	"github.com/tomtom215/tabula/internal/store"
)

type loginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=1,max=200"`
}

type loginResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	ExpiresIn int64  `json:"expiresIn"`
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=8,max=200"`
	Role     string `json:"role" validate:"required,oneof=admin editor viewer"`
}

// Login handles POST /api/v1/auth/login. Failed lookups and failed
// password checks produce the same response so usernames cannot be
// probed.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.RecordLoginAttempt("invalid_credentials")
			NewResponseWriter(w, r).Unauthorized("Invalid username or password")
			return
		}
		metrics.RecordLoginAttempt("error")
		WriteStoreError(w, r, err)
		return
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		metrics.RecordLoginAttempt("invalid_credentials")
		logging.Warn().Str("username", req.Username).Msg("login failed")
		NewResponseWriter(w, r).Unauthorized("Invalid username or password")
		return
	}

	token, err := h.jwt.GenerateToken(user.Username, user.Role)
	if err != nil {
		metrics.RecordLoginAttempt("error")
		WriteInternalError(w, r, "Failed to issue token")
		return
	}

	metrics.RecordLoginAttempt("success")
	logging.Info().Str("username", user.Username).Str("role", user.Role).Msg("login succeeded")
	WriteSuccess(w, r, loginResponse{
		Token:     token,
		Username:  user.Username,
		Role:      user.Role,
		ExpiresIn: int64(h.cfg.Security.SessionTimeout.Seconds()),
	})
}

// ListUsers handles GET /api/v1/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		WriteStoreError(w, r, err)
		return
	}
	NewResponseWriter(w, r).SuccessWithPagination(users, &PaginationMeta{
		Count: len(users),
		Total: int64(len(users)),
	})
}

// CreateUser handles POST /api/v1/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		WriteInternalError(w, r, "Failed to hash password")
		return
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		writeStoreErr(w, r, err, "user")
		return
	}

	logging.Info().Str("username", user.Username).Str("role", user.Role).Msg("user created")
	NewResponseWriter(w, r).Created(user)
}

// GetUser handles GET /api/v1/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		writeStoreErr(w, r, err, "user")
		return
	}
	WriteSuccess(w, r, user)
}

// DeleteUser handles DELETE /api/v1/users/{id}. An admin cannot delete
// their own account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		if target, err := h.store.GetUser(r.Context(), id); err == nil && target.Username == claims.Username {
			WriteBadRequest(w, r, "Cannot delete your own account")
			return
		}
	}

	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		writeStoreErr(w, r, err, "user")
		return
	}

	logging.Info().Str("user_id", id).Msg("user deleted")
	NewResponseWriter(w, r).NoContent()
}
