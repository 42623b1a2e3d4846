// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, rate limiting, and request hardening.
package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/traceofthetides/tides-go/internal/model"
	"github.com/traceofthetides/tides-go/internal/service"
	"github.com/traceofthetides/tides-go/internal/session"
	"github.com/traceofthetides/tides-go/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyUser holds the loaded user in the request context.
const ContextKeyUser ContextKey = "user"

// writeJSONError writes a minimal JSON error body. The api handler
// package has a richer envelope; middleware rejections happen before a
// handler runs and only need code and message.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": status, "message": message},
	})
}

// Auth requires an authenticated session. Requests without a signed-in
// user get 401 with a JSON body.
func Auth(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := sm.GetString(r.Context(), session.KeyUserUID)
			if uid == "" {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoadUser loads the session's user into the request context. A session
// pointing at a deleted account is destroyed and rejected. Use after Auth.
func LoadUser(sm *scs.SessionManager, db store.DBTX) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := sm.GetString(r.Context(), session.KeyUserUID)
			if uid == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := queries.GetUserByUID(r.Context(), uid)
			if err != nil {
				_ = sm.Destroy(r.Context())
				writeJSONError(w, http.StatusUnauthorized, "session is no longer valid")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalLoadUser loads the user into context when a session exists but
// never rejects the request. For public routes that personalize output.
func OptionalLoadUser(sm *scs.SessionManager, db store.DBTX) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := sm.GetString(r.Context(), session.KeyUserUID)
			if uid == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := queries.GetUserByUID(r.Context(), uid)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *model.User {
	user, ok := r.Context().Value(ContextKeyUser).(model.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserIDPtr returns a pointer to the current user's ID, or nil.
// Useful for optional user ID parameters in event logging.
func GetUserIDPtr(r *http.Request) *int64 {
	if user := GetUser(r); user != nil {
		id := user.ID
		return &id
	}
	return nil
}

// roleLevel returns a numeric level for role hierarchy. Higher level
// means more permissions; unknown roles have none.
func roleLevel(role string) int {
	switch role {
	case model.RoleAdmin:
		return 3
	case model.RoleAuthor:
		return 2
	case model.RoleUser:
		return 1
	default:
		return 0
	}
}

// RequireRole requires a minimum user role. Roles are hierarchical:
// admin > author > user. RequireRole(model.RoleAuthor) admits both
// authors and admins.
func RequireRole(minRole string) func(http.Handler) http.Handler {
	return RequireRoleWithEventLog(minRole, nil)
}

// RequireRoleWithEventLog is RequireRole plus event-log records for
// rejected requests, so repeated probing is visible to admins.
func RequireRoleWithEventLog(minRole string, events *service.EventService) func(http.Handler) http.Handler {
	minLevel := roleLevel(minRole)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if roleLevel(user.Role) < minLevel {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", user.ID,
					"user_role", user.Role,
					"required_role", minRole,
				)
				if events != nil {
					userID := user.ID
					_ = events.LogAuthEvent(r.Context(), model.EventLevelWarning,
						"Access denied: insufficient permissions", &userID, getClientIP(r),
						map[string]any{
							"method":        r.Method,
							"path":          r.URL.Path,
							"user_role":     user.Role,
							"required_role": minRole,
						})
				}
				writeJSONError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin requires the admin role.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)
}

// RequireApprovedAuthor admits approved authors and admins. An author
// whose approval is still pending gets 403.
func RequireApprovedAuthor() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !user.IsApprovedAuthor() {
				writeJSONError(w, http.StatusForbidden, "author approval required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request, honoring common
// reverse-proxy headers.
func getClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// X-Forwarded-For can contain multiple IPs; take the first one
		return ip
	}
	return r.RemoteAddr
}
