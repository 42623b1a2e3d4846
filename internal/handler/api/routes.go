// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/traceofthetides/tides-go/internal/middleware"
	"github.com/traceofthetides/tides-go/internal/model"
)

// Routes mounts every API route under /api/v1. Transport-level
// middleware (sessions, CORS, rate limiting, tracking) is applied by the
// caller around the returned router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/status", h.Status)

	// Public catalog surface.
	r.Get("/sections", h.ListSections)
	r.Get("/sections/{section}/items", h.SectionItems)
	r.Get("/sections/{section}/items/{id}", h.GetItem)
	r.Get("/maps/points", h.MapPoints)
	r.Get("/maps/baselayer", h.MapBaseLayer)

	// Authentication.
	r.Route("/auth", func(r chi.Router) {
		if h.loginGuard != nil {
			r.With(h.loginGuard.Middleware()).Post("/login", h.Login)
		} else {
			r.Post("/login", h.Login)
		}
		r.Post("/signup", h.Signup)
		r.Post("/logout", h.Logout)
		r.Post("/reset-password", h.ResetPassword)
		r.Post("/confirm-reset", h.ConfirmReset)
		r.Post("/verify-email", h.VerifyEmail)
	})

	// Signed-in surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.sessions))
		r.Use(middleware.LoadUser(h.sessions, h.db))

		r.Get("/profile", h.Profile)
		r.Post("/profile/request-author", h.RequestAuthorRole)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireApprovedAuthor())
			r.Post("/contributions", h.SubmitContribution)
			r.Post("/contributions/{id}/files", h.UploadContributionFile)
		})
		r.Get("/contributions/mine", h.MyContributions)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoleWithEventLog(model.RoleAdmin, h.events))
			r.Get("/admin/contributions", h.ListPendingContributions)
			r.Post("/admin/contributions/{id}/publish", h.PublishContribution)
			r.Post("/admin/contributions/{id}/reject", h.RejectContribution)
			r.Post("/admin/authors/{uid}/approve", h.ApproveAuthor)
		})
	})

	return r
}
