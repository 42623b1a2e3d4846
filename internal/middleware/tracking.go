// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/traceofthetides/tides-go/internal/service"
)

// trackingWriter wraps http.ResponseWriter to capture the status code.
type trackingWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (tw *trackingWriter) WriteHeader(code int) {
	if !tw.wroteHeader {
		tw.status = code
		tw.wroteHeader = true
	}
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *trackingWriter) Write(b []byte) (int, error) {
	if !tw.wroteHeader {
		tw.status = http.StatusOK
		tw.wroteHeader = true
	}
	return tw.ResponseWriter.Write(b)
}

// Tracking records anonymous visit statistics for successful GET
// requests. Recording runs after the response is written so it never
// delays the client.
func Tracking(visits *service.VisitService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !shouldTrack(r) {
				next.ServeHTTP(w, r)
				return
			}

			tw := &trackingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(tw, r)

			if tw.status != http.StatusOK {
				return
			}

			path := r.URL.Path
			ua := r.UserAgent()
			ip := getClientIP(r)
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				visits.Track(ctx, path, ua, ip)
			}()
		})
	}
}

// shouldTrack filters out requests that carry no audience signal.
func shouldTrack(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}

	path := r.URL.Path
	skipPrefixes := []string{
		"/static/",
		"/uploads/",
		"/favicon",
	}
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	// Health and status probes would dominate the numbers.
	return !strings.HasSuffix(path, "/status")
}
