// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const maxLockout = 24 * time.Hour

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	// IPRateLimit is requests per second per IP.
	IPRateLimit float64
	// IPBurst is the maximum burst size for IP rate limiting.
	IPBurst int
	// MaxFailedAttempts before account lockout.
	MaxFailedAttempts int
	// LockoutDuration is the base lockout time, doubling with each lockout.
	LockoutDuration time.Duration
	// AttemptWindow is the time window for counting failed attempts.
	AttemptWindow time.Duration
}

// DefaultLoginProtectionConfig returns sensible defaults.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5, // 1 request per 2 seconds
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

// normalized fills zero or negative fields with the defaults.
func (c LoginProtectionConfig) normalized() LoginProtectionConfig {
	d := DefaultLoginProtectionConfig()
	if c.IPRateLimit <= 0 {
		c.IPRateLimit = d.IPRateLimit
	}
	if c.IPBurst <= 0 {
		c.IPBurst = d.IPBurst
	}
	if c.MaxFailedAttempts <= 0 {
		c.MaxFailedAttempts = d.MaxFailedAttempts
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = d.LockoutDuration
	}
	if c.AttemptWindow <= 0 {
		c.AttemptWindow = d.AttemptWindow
	}
	return c
}

// accountState tracks one account's failure history.
type accountState struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtection pairs per-IP rate limiting with per-account lockout
// for the sign-in endpoint. Accounts are keyed by lowercased email so
// case variants of the same address share one failure history.
type LoginProtection struct {
	cfg LoginProtectionConfig

	ipLimiters *limiterCache[string]

	stop      chan struct{}
	closeOnce sync.Once

	mu       sync.RWMutex
	accounts map[string]*accountState
}

// NewLoginProtection creates a new login protection instance. Callers
// release its cleanup goroutine with Close.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	cfg = cfg.normalized()
	lp := &LoginProtection{
		cfg:        cfg,
		ipLimiters: newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		stop:       make(chan struct{}),
		accounts:   make(map[string]*accountState),
	}
	go lp.cleanupLoop()
	return lp
}

// Close stops the cleanup goroutine. Recorded limits stay enforced, so
// the instance remains usable after closing. Safe to call twice.
func (lp *LoginProtection) Close() {
	lp.closeOnce.Do(func() { close(lp.stop) })
}

func accountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckIPRateLimit reports whether a request from ip should be allowed.
func (lp *LoginProtection) CheckIPRateLimit(ip string) bool {
	return lp.ipLimiters.get(ip).Allow()
}

// IsAccountLocked checks if an account is currently locked.
// Returns (locked, remainingTime).
func (lp *LoginProtection) IsAccountLocked(email string) (bool, time.Duration) {
	lp.mu.RLock()
	state, ok := lp.accounts[accountKey(email)]
	lp.mu.RUnlock()

	if !ok || !time.Now().Before(state.lockedUntil) {
		return false, 0
	}
	return true, time.Until(state.lockedUntil)
}

// RecordFailedAttempt records a failed login attempt.
// Returns (locked, lockDuration) if the account is now locked.
func (lp *LoginProtection) RecordFailedAttempt(email string) (bool, time.Duration) {
	key := accountKey(email)
	now := time.Now()

	lp.mu.Lock()
	defer lp.mu.Unlock()

	state, ok := lp.accounts[key]
	if !ok || now.Sub(state.windowStart) > lp.cfg.AttemptWindow {
		// First failure, or the previous window expired.
		lockouts := 0
		if ok {
			lockouts = state.lockouts
		}
		lp.accounts[key] = &accountState{failures: 1, windowStart: now, lockouts: lockouts}
		return false, 0
	}

	state.failures++
	if state.failures < lp.cfg.MaxFailedAttempts {
		return false, 0
	}

	dur := lp.lockDuration(state.lockouts)
	state.lockedUntil = now.Add(dur)
	state.lockouts++
	state.failures = 0

	slog.Warn("account locked due to failed attempts",
		"email", email,
		"lockouts", state.lockouts,
		"duration", dur,
	)
	return true, dur
}

// lockDuration doubles the base duration per prior lockout, capped.
func (lp *LoginProtection) lockDuration(priorLockouts int) time.Duration {
	dur := lp.cfg.LockoutDuration
	for ; priorLockouts > 0 && dur < maxLockout; priorLockouts-- {
		dur *= 2
	}
	if dur > maxLockout {
		dur = maxLockout
	}
	return dur
}

// RecordSuccessfulLogin clears failed attempt tracking for an account.
func (lp *LoginProtection) RecordSuccessfulLogin(email string) {
	lp.mu.Lock()
	delete(lp.accounts, accountKey(email))
	lp.mu.Unlock()
}

// GetRemainingAttempts returns the number of attempts left before lockout.
func (lp *LoginProtection) GetRemainingAttempts(email string) int {
	lp.mu.RLock()
	state, ok := lp.accounts[accountKey(email)]
	lp.mu.RUnlock()

	if !ok || time.Since(state.windowStart) > lp.cfg.AttemptWindow {
		return lp.cfg.MaxFailedAttempts
	}
	if remaining := lp.cfg.MaxFailedAttempts - state.failures; remaining > 0 {
		return remaining
	}
	return 0
}

func (lp *LoginProtection) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-lp.stop:
			return
		case <-ticker.C:
		}

		if lp.ipLimiters.clearIfExceeds(10000) {
			slog.Info("cleared IP rate limiters due to size")
		}

		now := time.Now()
		lp.mu.Lock()
		for key, state := range lp.accounts {
			if now.After(state.lockedUntil) && now.Sub(state.windowStart) > lp.cfg.AttemptWindow {
				delete(lp.accounts, key)
			}
		}
		lp.mu.Unlock()
	}
}

// Middleware rate limits sign-in POSTs per client IP.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)
			if !lp.CheckIPRateLimit(ip) {
				slog.Warn("login rate limit exceeded", "ip", ip)
				writeJSONError(w, http.StatusTooManyRequests, "too many attempts, slow down")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
