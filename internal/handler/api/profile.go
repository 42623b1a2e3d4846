// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/traceofthetides/tides-go/internal/middleware"
	"github.com/traceofthetides/tides-go/internal/model"
)

// Profile returns the signed-in account.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}
	WriteSuccess(w, toUserResponse(user), nil)
}

// RequestAuthorRole lets the signed-in account request author status.
// The role becomes author immediately but stays unapproved until an
// admin confirms it.
func (h *Handler) RequestAuthorRole(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	if err := h.identity.RequestAuthorRole(r.Context(), user.UID, user.UID); err != nil {
		writeAuthError(w, err)
		return
	}

	if h.events != nil {
		userID := user.ID
		_ = h.events.LogUserEvent(r.Context(), model.EventLevelInfo,
			"author role requested", &userID, clientIP(r), nil)
	}

	updated, err := h.identity.Profile(r.Context(), user.UID)
	if err != nil {
		WriteInternalError(w, "Failed to reload profile")
		return
	}
	WriteSuccess(w, toUserResponse(updated), nil)
}

// ApproveAuthor grants publishing rights to a pending author. Admin only;
// the route is additionally gated by middleware.
func (h *Handler) ApproveAuthor(w http.ResponseWriter, r *http.Request) {
	approver := middleware.GetUser(r)
	if approver == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	uid := chi.URLParam(r, "uid")
	if err := h.identity.ApproveAuthor(r.Context(), approver, uid); err != nil {
		writeAuthError(w, err)
		return
	}

	if h.events != nil {
		approverID := approver.ID
		_ = h.events.LogUserEvent(r.Context(), model.EventLevelInfo,
			"author approved", &approverID, clientIP(r),
			map[string]any{"approved_uid": uid})
	}

	updated, err := h.identity.Profile(r.Context(), uid)
	if err != nil {
		WriteInternalError(w, "Failed to reload profile")
		return
	}
	WriteSuccess(w, toUserResponse(updated), nil)
}
