// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package identity implements the first-party identity provider behind
// the session bridge: email sign-in/sign-up, password reset, role
// requests and a session-change observer stream.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/traceofthetides/tides-go/internal/auth"
	"github.com/traceofthetides/tides-go/internal/model"
	"github.com/traceofthetides/tides-go/internal/store"
)

// AuthError codes surfaced to API clients.
const (
	CodeInvalidCredentials = "invalid-credentials"
	CodeEmailInUse         = "email-in-use"
	CodeInvalidEmail       = "invalid-email"
	CodeWeakPassword       = "weak-password"
	CodeInvalidToken       = "invalid-token"
	CodeUserNotFound       = "user-not-found"
	CodeNotAuthorized      = "not-authorized"
	CodeInternal           = "internal"
)

// AuthError is the provider-facing error shape: a stable code for the
// client plus a human-readable message.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func authErr(code, message string) *AuthError {
	return &AuthError{Code: code, Message: message}
}

// Token lifetimes.
const (
	verifyTokenTTL = 24 * time.Hour
	resetTokenTTL  = time.Hour
)

// Event is delivered to observers on every session change. User is
// nil when the session ended.
type Event struct {
	UID  string
	User *model.User
}

// Provider implements the identity operations over the user store.
type Provider struct {
	queries *store.Queries

	mu        sync.Mutex
	observers map[int]func(Event)
	nextObs   int
}

// New creates a provider backed by db.
func New(db store.DBTX) *Provider {
	return &Provider{
		queries:   store.New(db),
		observers: make(map[int]func(Event)),
	}
}

// Observe registers cb on the session-change stream and returns its
// release function. Events are delivered in emission order.
func (p *Provider) Observe(cb func(Event)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextObs
	p.nextObs++
	p.observers[id] = cb
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.observers, id)
	}
}

func (p *Provider) notify(ev Event) {
	p.mu.Lock()
	cbs := make([]func(Event), 0, len(p.observers))
	for _, cb := range p.observers {
		cbs = append(cbs, cb)
	}
	p.mu.Unlock()
	for _, cb := range cbs {
		cb(ev)
	}
}

// SignInWithEmail verifies credentials and emits a signed-in event.
func (p *Provider) SignInWithEmail(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, authErr(CodeInvalidCredentials, "email and password are required")
	}

	user, err := p.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Debug("sign-in attempt for unknown email", "email", email)
			return nil, authErr(CodeInvalidCredentials, "invalid email or password")
		}
		slog.Error("database error during sign-in", "error", err)
		return nil, authErr(CodeInternal, "sign-in failed")
	}

	valid, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err)
		return nil, authErr(CodeInvalidCredentials, "invalid email or password")
	}
	if !valid {
		slog.Debug("invalid password attempt", "email", email)
		return nil, authErr(CodeInvalidCredentials, "invalid email or password")
	}

	// Re-hash if the stored hash uses outdated parameters
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := p.queries.UpdateUserPasswordHash(ctx, user.ID, newHash); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			}
		}
	}

	if err := p.queries.UpdateUserLastLogin(ctx, user.ID, time.Now()); err != nil {
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
		// Don't block sign-in on this error
	}

	slog.Info("user signed in", "user_id", user.ID, "email", user.Email)
	p.notify(Event{UID: user.UID, User: &user})
	return &user, nil
}

// SignUpWithEmail creates an account with role user, records a
// verification token and emits a signed-in event.
func (p *Provider) SignUpWithEmail(ctx context.Context, email, password, displayName string) (*model.User, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, authErr(CodeInvalidEmail, "invalid email address")
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, authErr(CodeWeakPassword, err.Error())
	}

	if _, err := p.queries.GetUserByEmail(ctx, email); err == nil {
		return nil, authErr(CodeEmailInUse, "an account with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		slog.Error("database error during sign-up", "error", err)
		return nil, authErr(CodeInternal, "sign-up failed")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.Error("password hash error", "error", err)
		return nil, authErr(CodeInternal, "sign-up failed")
	}

	now := time.Now()
	user, err := p.queries.CreateUser(ctx, store.CreateUserParams{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// Unique constraint race with a concurrent sign-up
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, authErr(CodeEmailInUse, "an account with this email already exists")
		}
		slog.Error("failed to create user", "error", err)
		return nil, authErr(CodeInternal, "sign-up failed")
	}

	if err := p.queries.CreateUserToken(ctx, store.CreateUserTokenParams{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Purpose:   store.TokenPurposeVerify,
		ExpiresAt: now.Add(verifyTokenTTL),
	}); err != nil {
		slog.Error("failed to record verification token", "error", err, "user_id", user.ID)
	}

	slog.Info("user signed up", "user_id", user.ID, "email", user.Email)
	p.notify(Event{UID: user.UID, User: &user})
	return &user, nil
}

// SignOut emits a signed-out event. Idempotent: signing out an
// already-ended session is a no-op that still notifies observers.
func (p *Provider) SignOut(_ context.Context, uid string) {
	slog.Info("user signed out", "uid", uid)
	p.notify(Event{UID: uid, User: nil})
}

// ResetPassword records a reset token for the address. The result
// never reveals whether the account exists.
func (p *Provider) ResetPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	user, err := p.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Debug("reset requested for unknown email", "email", email)
			return nil
		}
		slog.Error("database error during password reset", "error", err)
		return authErr(CodeInternal, "reset failed")
	}

	if err := p.queries.CreateUserToken(ctx, store.CreateUserTokenParams{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Purpose:   store.TokenPurposeReset,
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}); err != nil {
		slog.Error("failed to record reset token", "error", err, "user_id", user.ID)
		return authErr(CodeInternal, "reset failed")
	}
	return nil
}

// ConfirmReset sets a new password for the account owning a live
// reset token and consumes the token.
func (p *Provider) ConfirmReset(ctx context.Context, token, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return authErr(CodeWeakPassword, err.Error())
	}

	ut, err := p.queries.GetUserToken(ctx, token, store.TokenPurposeReset)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authErr(CodeInvalidToken, "invalid or expired reset token")
		}
		return authErr(CodeInternal, "reset failed")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return authErr(CodeInternal, "reset failed")
	}
	if err := p.queries.UpdateUserPasswordHash(ctx, ut.UserID, hash); err != nil {
		return authErr(CodeInternal, "reset failed")
	}
	if err := p.queries.DeleteUserToken(ctx, token); err != nil {
		slog.Error("failed to delete used reset token", "error", err)
	}
	return nil
}

// VerifyEmail marks the token owner's address verified.
func (p *Provider) VerifyEmail(ctx context.Context, token string) error {
	ut, err := p.queries.GetUserToken(ctx, token, store.TokenPurposeVerify)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authErr(CodeInvalidToken, "invalid or expired verification token")
		}
		return authErr(CodeInternal, "verification failed")
	}
	if err := p.queries.SetUserEmailVerified(ctx, ut.UserID); err != nil {
		return authErr(CodeInternal, "verification failed")
	}
	if err := p.queries.DeleteUserToken(ctx, token); err != nil {
		slog.Error("failed to delete used verification token", "error", err)
	}
	return nil
}

// RequestAuthorRole marks the caller's own account as an unapproved
// author. Callers cannot elevate anyone else.
func (p *Provider) RequestAuthorRole(ctx context.Context, callerUID, uid string) error {
	if callerUID == "" || callerUID != uid {
		return authErr(CodeNotAuthorized, "author role can only be requested for your own account")
	}

	caller, err := p.queries.GetUserByUID(ctx, callerUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authErr(CodeNotAuthorized, "unknown account")
		}
		return authErr(CodeInternal, "request failed")
	}
	if caller.IsAdmin() {
		// Admins already hold author privileges
		return nil
	}

	err = p.queries.UpdateUserRole(ctx, store.UpdateUserRoleParams{
		UID:            uid,
		Role:           model.RoleAuthor,
		AuthorApproved: false,
	})
	if err != nil {
		return authErr(CodeInternal, "request failed")
	}
	slog.Info("author role requested", "uid", uid)
	return nil
}

// ApproveAuthor grants the approval flag. Admin only.
func (p *Provider) ApproveAuthor(ctx context.Context, approver *model.User, uid string) error {
	if approver == nil || !approver.IsAdmin() {
		return authErr(CodeNotAuthorized, "only administrators can approve authors")
	}

	target, err := p.queries.GetUserByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authErr(CodeUserNotFound, "unknown account")
		}
		return authErr(CodeInternal, "approval failed")
	}
	if !target.IsAuthor() {
		return authErr(CodeNotAuthorized, "account has not requested the author role")
	}

	err = p.queries.UpdateUserRole(ctx, store.UpdateUserRoleParams{
		UID:            uid,
		Role:           target.Role,
		AuthorApproved: true,
	})
	if err != nil {
		return authErr(CodeInternal, "approval failed")
	}
	slog.Info("author approved", "uid", uid, "approved_by", approver.UID)
	return nil
}

// Profile fetches the profile for a session identity.
func (p *Provider) Profile(ctx context.Context, uid string) (*model.User, error) {
	user, err := p.queries.GetUserByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("fetching profile %s: %w", uid, err)
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
