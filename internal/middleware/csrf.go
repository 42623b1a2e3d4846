// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"

	"filippo.io/csrf/gorilla"
)

// CSRFConfig holds configuration for CSRF protection.
// filippo.io/csrf/gorilla uses Fetch metadata headers instead of cookies,
// so no cookie options apply.
type CSRFConfig struct {
	// AuthKey is a 32-byte key used to authenticate the CSRF token.
	AuthKey []byte

	// ErrorHandler is called when CSRF validation fails.
	ErrorHandler http.Handler

	// TrustedOrigins lists origins allowed to make cross-origin requests.
	// The SPA origin must be included here for state-changing calls.
	TrustedOrigins []string
}

// CSRF returns middleware providing CSRF protection for state-changing
// requests.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	errHandler := cfg.ErrorHandler
	if errHandler == nil {
		errHandler = http.HandlerFunc(rejectCrossOrigin)
	}
	opts := []csrf.Option{csrf.ErrorHandler(errHandler)}
	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}
	return csrf.Protect(cfg.AuthKey, opts...)
}

// rejectCrossOrigin is the default failure handler. It logs the reason
// the library recorded and answers with the API error envelope.
func rejectCrossOrigin(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("cross-origin request rejected",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	writeJSONError(w, http.StatusForbidden, "cross-origin request rejected")
}
