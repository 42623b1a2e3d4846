// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including User, Contribution, Event, and visit structures.
package model

import (
	"database/sql"
	"time"
)

// User roles. Admin implies author privileges; approval only matters for
// plain authors.
const (
	RoleUser   = "user"
	RoleAuthor = "author"
	RoleAdmin  = "admin"
)

// User represents a site account.
type User struct {
	ID             int64        `json:"id"`
	UID            string       `json:"uid"` // Stable external handle used by the SPA
	Email          string       `json:"email"`
	PasswordHash   string       `json:"-"` // Never expose in JSON
	DisplayName    string       `json:"display_name"`
	PhotoURL       string       `json:"photo_url,omitempty"`
	Role           string       `json:"role"`
	AuthorApproved bool         `json:"author_approved"`
	EmailVerified  bool         `json:"email_verified"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	LastLoginAt    sql.NullTime `json:"last_login_at,omitempty"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsAuthor returns true if the user has author role. Admins are authors.
func (u *User) IsAuthor() bool {
	return u.Role == RoleAuthor || u.IsAdmin()
}

// IsApprovedAuthor returns true if the user may publish contributions:
// an approved author, or any admin.
func (u *User) IsApprovedAuthor() bool {
	return u.IsAuthor() && (u.AuthorApproved || u.IsAdmin())
}
