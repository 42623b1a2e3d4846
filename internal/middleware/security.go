// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// SecurityHeadersConfig holds configuration for security headers.
type SecurityHeadersConfig struct {
	// IsDevelopment disables HSTS for local HTTP serving.
	IsDevelopment bool

	// ContentSecurityPolicy is the CSP header value. If empty, a default
	// API-oriented policy is used.
	ContentSecurityPolicy string

	// HSTSMaxAge is the max-age for Strict-Transport-Security in seconds.
	// Set to 0 to disable HSTS.
	HSTSMaxAge int

	// HSTSIncludeSubDomains includes subdomains in the HSTS policy.
	HSTSIncludeSubDomains bool

	// FrameOptions controls X-Frame-Options: "DENY", "SAMEORIGIN", or
	// empty to disable.
	FrameOptions string

	// ReferrerPolicy controls the Referrer-Policy header.
	ReferrerPolicy string
}

// DefaultSecurityHeadersConfig returns defaults for a JSON API that never
// serves HTML: everything framed or scripted is denied outright.
func DefaultSecurityHeadersConfig(isDev bool) SecurityHeadersConfig {
	cfg := SecurityHeadersConfig{
		IsDevelopment:  isDev,
		HSTSMaxAge:     31536000, // 1 year
		FrameOptions:   "DENY",
		ReferrerPolicy: "strict-origin-when-cross-origin",
	}
	cfg.ContentSecurityPolicy = strings.Join([]string{
		"default-src 'none'",
		"frame-ancestors 'none'",
		"base-uri 'none'",
	}, "; ")
	if !isDev {
		cfg.HSTSIncludeSubDomains = true
	}
	return cfg
}

// SecurityHeaders adds security headers to every response. Header
// values are static per config, so they are assembled once up front.
func SecurityHeaders(cfg SecurityHeadersConfig) func(http.Handler) http.Handler {
	type header struct{ name, value string }
	headers := []header{{"X-Content-Type-Options", "nosniff"}}
	if cfg.ContentSecurityPolicy != "" {
		headers = append(headers, header{"Content-Security-Policy", cfg.ContentSecurityPolicy})
	}
	if !cfg.IsDevelopment && cfg.HSTSMaxAge > 0 {
		hsts := "max-age=" + strconv.Itoa(cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubDomains {
			hsts += "; includeSubDomains"
		}
		headers = append(headers, header{"Strict-Transport-Security", hsts})
	}
	if cfg.FrameOptions != "" {
		headers = append(headers, header{"X-Frame-Options", cfg.FrameOptions})
	}
	if cfg.ReferrerPolicy != "" {
		headers = append(headers, header{"Referrer-Policy", cfg.ReferrerPolicy})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, hdr := range headers {
				h.Set(hdr.name, hdr.value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
