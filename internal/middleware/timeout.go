// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"
)

// Timeout applies a request timeout. If the handler doesn't complete
// within the duration, a 503 is sent.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			tw := &timeoutWriter{ResponseWriter: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if tw.claim() {
					h := w.Header()
					h.Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusServiceUnavailable)
					_, _ = w.Write([]byte(`{"error":{"code":"timeout","message":"request timed out"}}`))
				}
			}
		})
	}
}

// timeoutWriter lets exactly one writer, handler or timeout path, reach
// the underlying ResponseWriter's header.
type timeoutWriter struct {
	http.ResponseWriter
	started atomic.Bool
}

// claim reports whether the caller won the right to write the header.
func (tw *timeoutWriter) claim() bool {
	return tw.started.CompareAndSwap(false, true)
}

func (tw *timeoutWriter) WriteHeader(code int) {
	if tw.claim() {
		tw.ResponseWriter.WriteHeader(code)
	}
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	if tw.claim() {
		tw.ResponseWriter.WriteHeader(http.StatusOK)
	}
	return tw.ResponseWriter.Write(b)
}
