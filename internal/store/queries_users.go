// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/traceofthetides/tides-go/internal/model"
)

// DBTX is the interface shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries provides typed access to the database.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to the given database or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const userColumns = `id, uid, email, password_hash, display_name, photo_url,
	role, author_approved, email_verified, created_at, updated_at, last_login_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.UID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.PhotoURL,
		&u.Role, &u.AuthorApproved, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	return u, err
}

// CreateUserParams holds parameters for CreateUser.
type CreateUserParams struct {
	UID          string
	Email        string
	PasswordHash string
	DisplayName  string
	PhotoURL     string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser inserts a new user and returns the stored row.
func (q *Queries) CreateUser(ctx context.Context, p CreateUserParams) (model.User, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO users (uid, email, password_hash, display_name, photo_url, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UID, p.Email, p.PasswordHash, p.DisplayName, p.PhotoURL, p.Role, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return q.GetUserByID(ctx, id)
}

// GetUserByID returns the user with the given database ID.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByUID returns the user with the given external handle.
func (q *Queries) GetUserByUID(ctx context.Context, uid string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE uid = ?`, uid))
}

// GetUserByEmail returns the user with the given email address.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// UpdateUserLastLogin records a successful login time.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`, at, at, id)
	return err
}

// UpdateUserPasswordHash replaces the stored password hash.
func (q *Queries) UpdateUserPasswordHash(ctx context.Context, id int64, hash string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, hash, time.Now(), id)
	return err
}

// UpdateUserRoleParams holds parameters for UpdateUserRole.
type UpdateUserRoleParams struct {
	UID            string
	Role           string
	AuthorApproved bool
}

// UpdateUserRole sets the role and approval flag for a user identified by UID.
func (q *Queries) UpdateUserRole(ctx context.Context, p UpdateUserRoleParams) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE users SET role = ?, author_approved = ?, updated_at = ? WHERE uid = ?`,
		p.Role, p.AuthorApproved, time.Now(), p.UID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetUserEmailVerified marks the user's email address as verified.
func (q *Queries) SetUserEmailVerified(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET email_verified = 1, updated_at = ? WHERE id = ?`, time.Now(), id)
	return err
}

// CountUsers returns the total number of accounts.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// UserToken purposes.
const (
	TokenPurposeVerify = "verify"
	TokenPurposeReset  = "reset"
)

// UserToken is a single-use verification or password-reset token.
type UserToken struct {
	ID        int64
	Token     string
	UserID    int64
	Purpose   string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// CreateUserTokenParams holds parameters for CreateUserToken.
type CreateUserTokenParams struct {
	Token     string
	UserID    int64
	Purpose   string
	ExpiresAt time.Time
}

// CreateUserToken stores a verification or reset token.
func (q *Queries) CreateUserToken(ctx context.Context, p CreateUserTokenParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO user_tokens (token, user_id, purpose, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.Token, p.UserID, p.Purpose, p.ExpiresAt, time.Now())
	return err
}

// GetUserToken returns an unexpired token with the given value and purpose.
func (q *Queries) GetUserToken(ctx context.Context, token, purpose string) (UserToken, error) {
	var t UserToken
	err := q.db.QueryRowContext(ctx, `
		SELECT id, token, user_id, purpose, expires_at, created_at
		FROM user_tokens
		WHERE token = ? AND purpose = ? AND expires_at > ?`,
		token, purpose, time.Now(),
	).Scan(&t.ID, &t.Token, &t.UserID, &t.Purpose, &t.ExpiresAt, &t.CreatedAt)
	return t, err
}

// DeleteUserToken removes a consumed token.
func (q *Queries) DeleteUserToken(ctx context.Context, token string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE token = ?`, token)
	return err
}

// DeleteExpiredUserTokens prunes tokens past their expiry. Returns the
// number of rows removed.
func (q *Queries) DeleteExpiredUserTokens(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE expires_at <= ?`, time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
