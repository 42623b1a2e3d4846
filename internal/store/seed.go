// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/traceofthetides/tides-go/internal/auth"
	"github.com/traceofthetides/tides-go/internal/model"
)

// Default admin credentials
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme1"
	DefaultAdminName     = "Administrator"
)

// Seed creates the initial admin account. Running it against an already
// seeded database is a no-op.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	switch _, err := queries.GetUserByEmail(ctx, DefaultAdminEmail); {
	case err == nil:
		slog.Info("seed: admin account already present")
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("looking up admin account: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		UID:          uuid.NewString(),
		Email:        DefaultAdminEmail,
		PasswordHash: passwordHash,
		DisplayName:  DefaultAdminName,
		Role:         model.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("inserting admin account: %w", err)
	}

	slog.Info("seed: created default admin account",
		"id", user.ID,
		"email", user.Email,
		"password", DefaultAdminPassword,
	)
	return nil
}
