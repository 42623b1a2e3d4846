// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/traceofthetides/tides-go/internal/middleware"
	"github.com/traceofthetides/tides-go/internal/model"
	"github.com/traceofthetides/tides-go/internal/service"
)

const defaultPerPage = 20

// SubmitContributionRequest is the request body for a new contribution.
type SubmitContributionRequest struct {
	Kind        string     `json:"kind"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Section     string     `json:"section,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// SubmitContribution accepts a new contribution from an approved author.
func (h *Handler) SubmitContribution(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req SubmitContributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	c, err := h.contributions.Submit(r.Context(), service.SubmitParams{
		Kind:        req.Kind,
		Title:       req.Title,
		Body:        req.Body,
		AuthorUID:   user.UID,
		Section:     req.Section,
		Tags:        req.Tags,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		WriteValidationError(w, map[string]string{"submission": err.Error()})
		return
	}

	if h.events != nil {
		userID := user.ID
		_ = h.events.LogContentEvent(r.Context(), model.EventLevelInfo,
			"contribution submitted", &userID, clientIP(r),
			map[string]any{"contribution_id": c.ID, "kind": c.Kind})
	}
	WriteCreated(w, c)
}

// MyContributions lists the caller's own contributions.
func (h *Handler) MyContributions(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	list, err := h.contributions.ListByAuthor(r.Context(), user.UID)
	if err != nil {
		WriteInternalError(w, "Failed to list contributions")
		return
	}
	WriteSuccess(w, list, &Meta{Total: int64(len(list))})
}

// UploadContributionFile attaches a file to one of the caller's own
// contributions.
func (h *Handler) UploadContributionFile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteBadRequest(w, "Invalid contribution ID", nil)
		return
	}

	c, err := h.contributions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Contribution not found")
		} else {
			WriteInternalError(w, "Failed to load contribution")
		}
		return
	}
	if c.AuthorUID != user.UID && !user.IsAdmin() {
		WriteForbidden(w, "Not your contribution")
		return
	}

	if err := r.ParseMultipartForm(service.MaxUploadSize); err != nil {
		WriteBadRequest(w, "Invalid multipart form", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteBadRequest(w, "Missing file field", nil)
		return
	}
	defer func() { _ = file.Close() }()

	rec, err := h.contributions.AttachFile(r.Context(), id, file, header)
	if err != nil {
		WriteValidationError(w, map[string]string{"file": err.Error()})
		return
	}
	WriteCreated(w, rec)
}

// ListPendingContributions returns contributions awaiting review.
// Admin only.
func (h *Handler) ListPendingContributions(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	offset := int64((page - 1) * defaultPerPage)

	list, err := h.contributions.ListByStatus(r.Context(), model.ContributionStatusPending, defaultPerPage, offset)
	if err != nil {
		WriteInternalError(w, "Failed to list contributions")
		return
	}

	total, err := h.contributions.PendingCount(r.Context())
	if err != nil {
		WriteInternalError(w, "Failed to count contributions")
		return
	}

	WriteSuccess(w, list, &Meta{Total: total, Page: page, PerPage: defaultPerPage})
}

// reviewAction applies publish or reject to a pending contribution.
func (h *Handler) reviewAction(w http.ResponseWriter, r *http.Request, action string, apply func(int64) error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteBadRequest(w, "Invalid contribution ID", nil)
		return
	}

	if err := apply(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Contribution not found or not pending")
		} else {
			WriteInternalError(w, "Failed to "+action+" contribution")
		}
		return
	}

	if h.events != nil {
		_ = h.events.LogContentEvent(r.Context(), model.EventLevelInfo,
			"contribution "+action+"ed", middleware.GetUserIDPtr(r), clientIP(r),
			map[string]any{"contribution_id": id})
	}

	c, err := h.contributions.Get(r.Context(), id)
	if err != nil {
		WriteInternalError(w, "Failed to reload contribution")
		return
	}
	WriteSuccess(w, c, nil)
}

// PublishContribution publishes a pending contribution. Admin only.
func (h *Handler) PublishContribution(w http.ResponseWriter, r *http.Request) {
	h.reviewAction(w, r, "publish", func(id int64) error {
		return h.contributions.Publish(r.Context(), id)
	})
}

// RejectContribution rejects a pending contribution. Admin only.
func (h *Handler) RejectContribution(w http.ResponseWriter, r *http.Request) {
	h.reviewAction(w, r, "reject", func(id int64) error {
		return h.contributions.Reject(r.Context(), id)
	})
}
