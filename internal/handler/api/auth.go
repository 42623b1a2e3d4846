// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/traceofthetides/tides-go/internal/middleware"
	"github.com/traceofthetides/tides-go/internal/model"
	"github.com/traceofthetides/tides-go/internal/session"
)

// UserResponse is the public shape of an account.
type UserResponse struct {
	UID            string `json:"uid"`
	Email          string `json:"email"`
	DisplayName    string `json:"display_name"`
	Role           string `json:"role"`
	AuthorApproved bool   `json:"author_approved"`
	EmailVerified  bool   `json:"email_verified"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		UID:            u.UID,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		Role:           u.Role,
		AuthorApproved: u.AuthorApproved,
		EmailVerified:  u.EmailVerified,
	}
}

// SignupRequest is the request body for account creation.
type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// Signup creates a new account and signs the session in.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	user, err := h.identity.SignUpWithEmail(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	if err := h.sessions.RenewToken(r.Context()); err != nil {
		WriteInternalError(w, "Session error")
		return
	}
	h.sessions.Put(r.Context(), session.KeyUserUID, user.UID)

	h.logAuth(r, model.EventLevelInfo, "account created", user)
	WriteCreated(w, toUserResponse(user))
}

// LoginRequest is the request body for sign-in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an account and establishes a session. Repeated
// failures lock the account with exponential backoff.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	if h.loginGuard != nil {
		if locked, remaining := h.loginGuard.IsAccountLocked(req.Email); locked {
			WriteError(w, http.StatusTooManyRequests, "account_locked",
				"Account temporarily locked, try again in "+remaining.Round(time.Second).String(), nil)
			return
		}
	}

	user, err := h.identity.SignInWithEmail(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.loginGuard != nil {
			h.loginGuard.RecordFailedAttempt(req.Email)
		}
		h.logAuth(r, model.EventLevelWarning, "sign-in failed", nil)
		writeAuthError(w, err)
		return
	}

	if h.loginGuard != nil {
		h.loginGuard.RecordSuccessfulLogin(req.Email)
	}

	// New token on privilege change prevents session fixation.
	if err := h.sessions.RenewToken(r.Context()); err != nil {
		WriteInternalError(w, "Session error")
		return
	}
	h.sessions.Put(r.Context(), session.KeyUserUID, user.UID)

	h.logAuth(r, model.EventLevelInfo, "user signed in", user)
	WriteSuccess(w, toUserResponse(user), nil)
}

// Logout ends the session. Idempotent: works for anonymous callers too.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	uid := h.sessions.GetString(r.Context(), session.KeyUserUID)
	if uid != "" {
		h.identity.SignOut(r.Context(), uid)
	}
	if err := h.sessions.Destroy(r.Context()); err != nil {
		WriteInternalError(w, "Session error")
		return
	}
	WriteSuccess(w, map[string]bool{"signed_out": true}, nil)
}

// ResetRequest is the request body for starting a password reset.
type ResetRequest struct {
	Email string `json:"email"`
}

// ResetPassword starts a password reset. The response never reveals
// whether the address is registered.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	if err := h.identity.ResetPassword(r.Context(), req.Email); err != nil {
		writeAuthError(w, err)
		return
	}
	WriteSuccess(w, map[string]bool{"reset_requested": true}, nil)
}

// ConfirmResetRequest carries a reset token with the new password.
type ConfirmResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ConfirmReset completes a password reset.
func (h *Handler) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req ConfirmResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	if err := h.identity.ConfirmReset(r.Context(), req.Token, req.NewPassword); err != nil {
		writeAuthError(w, err)
		return
	}
	WriteSuccess(w, map[string]bool{"password_reset": true}, nil)
}

// VerifyEmailRequest carries an email verification token.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// VerifyEmail marks the account's email verified.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	if err := h.identity.VerifyEmail(r.Context(), req.Token); err != nil {
		writeAuthError(w, err)
		return
	}
	WriteSuccess(w, map[string]bool{"email_verified": true}, nil)
}

// logAuth records an auth event, when the event service is wired.
func (h *Handler) logAuth(r *http.Request, level, message string, user *model.User) {
	if h.events == nil {
		return
	}
	var userID *int64
	if user != nil {
		id := user.ID
		userID = &id
	} else {
		userID = middleware.GetUserIDPtr(r)
	}
	_ = h.events.LogAuthEvent(r.Context(), level, message, userID, clientIP(r), nil)
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
