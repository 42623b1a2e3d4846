// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON REST surface consumed by the SPA
// frontend: catalog browsing and filtering, map data, authentication,
// profiles, and the contribution pipeline.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/traceofthetides/tides-go/internal/cache"
	"github.com/traceofthetides/tides-go/internal/catalog"
	"github.com/traceofthetides/tides-go/internal/identity"
	"github.com/traceofthetides/tides-go/internal/middleware"
	"github.com/traceofthetides/tides-go/internal/service"
	"github.com/traceofthetides/tides-go/internal/store"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db            *sql.DB
	queries       *store.Queries
	catalog       *catalog.Catalog
	cache         *cache.Manager
	identity      *identity.Provider
	sessions      *scs.SessionManager
	contributions *service.ContributionService
	events        *service.EventService
	loginGuard    *middleware.LoginProtection
}

// HandlerConfig bundles the dependencies for NewHandler.
type HandlerConfig struct {
	DB            *sql.DB
	Catalog       *catalog.Catalog
	Cache         *cache.Manager
	Identity      *identity.Provider
	Sessions      *scs.SessionManager
	Contributions *service.ContributionService
	Events        *service.EventService
	LoginGuard    *middleware.LoginProtection
}

// NewHandler creates a new API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		db:            cfg.DB,
		queries:       store.New(cfg.DB),
		catalog:       cfg.Catalog,
		cache:         cfg.Cache,
		identity:      cfg.Identity,
		sessions:      cfg.Sessions,
		contributions: cfg.Contributions,
		events:        cfg.Events,
		loginGuard:    cfg.LoginGuard,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination and other metadata.
type Meta struct {
	Total   int64 `json:"total,omitempty"`
	Page    int   `json:"page,omitempty"`
	PerPage int   `json:"per_page,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message, Details: details},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message, nil)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// writeAuthError maps an identity.AuthError to an HTTP error response.
func writeAuthError(w http.ResponseWriter, err error) {
	var authErr *identity.AuthError
	if !errors.As(err, &authErr) {
		WriteInternalError(w, "Internal error")
		return
	}

	switch authErr.Code {
	case identity.CodeInvalidCredentials:
		WriteUnauthorized(w, authErr.Message)
	case identity.CodeNotAuthorized:
		WriteForbidden(w, authErr.Message)
	case identity.CodeUserNotFound, identity.CodeInvalidToken:
		WriteNotFound(w, authErr.Message)
	case identity.CodeEmailInUse, identity.CodeInvalidEmail, identity.CodeWeakPassword:
		WriteValidationError(w, map[string]string{"field": authErr.Message})
	default:
		WriteInternalError(w, "Internal error")
	}
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Status returns the API status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, StatusResponse{Status: "ok", Version: "v1"}, nil)
}
