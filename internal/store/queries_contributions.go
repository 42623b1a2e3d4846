// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/traceofthetides/tides-go/internal/model"
)

const contributionColumns = `id, kind, title, slug, body, body_html, author_uid,
	status, section, tags, created_at, updated_at, scheduled_at, published_at`

func scanContribution(scan func(dest ...any) error) (model.Contribution, error) {
	var c model.Contribution
	err := scan(
		&c.ID, &c.Kind, &c.Title, &c.Slug, &c.Body, &c.BodyHTML, &c.AuthorUID,
		&c.Status, &c.Section, &c.Tags, &c.CreatedAt, &c.UpdatedAt, &c.ScheduledAt, &c.PublishedAt,
	)
	return c, err
}

// CreateContributionParams holds parameters for CreateContribution.
type CreateContributionParams struct {
	Kind        string
	Title       string
	Slug        string
	Body        string
	BodyHTML    string
	AuthorUID   string
	Section     string
	Tags        string
	ScheduledAt sql.NullTime
}

// CreateContribution inserts a pending contribution and returns the stored row.
func (q *Queries) CreateContribution(ctx context.Context, p CreateContributionParams) (model.Contribution, error) {
	now := time.Now()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO contributions (kind, title, slug, body, body_html, author_uid, status, section, tags, created_at, updated_at, scheduled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Kind, p.Title, p.Slug, p.Body, p.BodyHTML, p.AuthorUID,
		model.ContributionStatusPending, p.Section, p.Tags, now, now, p.ScheduledAt,
	)
	if err != nil {
		return model.Contribution{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Contribution{}, err
	}
	return q.GetContributionByID(ctx, id)
}

// GetContributionByID returns a contribution by database ID.
func (q *Queries) GetContributionByID(ctx context.Context, id int64) (model.Contribution, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+contributionColumns+` FROM contributions WHERE id = ?`, id)
	return scanContribution(row.Scan)
}

// ListContributionsByStatus returns contributions with the given status,
// newest first.
func (q *Queries) ListContributionsByStatus(ctx context.Context, status string, limit, offset int64) ([]model.Contribution, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+contributionColumns+` FROM contributions
		 WHERE status = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Contribution
	for rows.Next() {
		c, err := scanContribution(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListContributionsByAuthor returns every contribution by the given author,
// newest first.
func (q *Queries) ListContributionsByAuthor(ctx context.Context, authorUID string) ([]model.Contribution, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+contributionColumns+` FROM contributions
		 WHERE author_uid = ? ORDER BY created_at DESC`, authorUID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Contribution
	for rows.Next() {
		c, err := scanContribution(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountContributionsByStatus returns the number of contributions with the given status.
func (q *Queries) CountContributionsByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contributions WHERE status = ?`, status).Scan(&n)
	return n, err
}

// PublishContribution marks a contribution as published at the given time.
func (q *Queries) PublishContribution(ctx context.Context, id int64, at time.Time) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE contributions SET status = ?, published_at = ?, updated_at = ?
		WHERE id = ?`,
		model.ContributionStatusPublished, at, at, id)
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

// RejectContribution marks a contribution as rejected.
func (q *Queries) RejectContribution(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE contributions SET status = ?, updated_at = ? WHERE id = ?`,
		model.ContributionStatusRejected, time.Now(), id)
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

// GetScheduledContributionsDue returns pending contributions whose scheduled
// time has passed.
func (q *Queries) GetScheduledContributionsDue(ctx context.Context, now time.Time) ([]model.Contribution, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+contributionColumns+` FROM contributions
		 WHERE status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?`,
		model.ContributionStatusPending, now)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Contribution
	for rows.Next() {
		c, err := scanContribution(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateContributionFileParams holds parameters for CreateContributionFile.
type CreateContributionFileParams struct {
	ContributionID int64
	FileName       string
	StoredPath     string
	MimeType       string
	SizeBytes      int64
}

// CreateContributionFile records an uploaded attachment.
func (q *Queries) CreateContributionFile(ctx context.Context, p CreateContributionFileParams) (model.ContributionFile, error) {
	now := time.Now()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO contribution_files (contribution_id, file_name, stored_path, mime_type, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ContributionID, p.FileName, p.StoredPath, p.MimeType, p.SizeBytes, now)
	if err != nil {
		return model.ContributionFile{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ContributionFile{}, err
	}
	return model.ContributionFile{
		ID:             id,
		ContributionID: p.ContributionID,
		FileName:       p.FileName,
		StoredPath:     p.StoredPath,
		MimeType:       p.MimeType,
		SizeBytes:      p.SizeBytes,
		CreatedAt:      now,
	}, nil
}

// ListContributionFiles returns the attachments for a contribution.
func (q *Queries) ListContributionFiles(ctx context.Context, contributionID int64) ([]model.ContributionFile, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, contribution_id, file_name, stored_path, mime_type, size_bytes, created_at
		FROM contribution_files WHERE contribution_id = ? ORDER BY id`, contributionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.ContributionFile
	for rows.Next() {
		var f model.ContributionFile
		if err := rows.Scan(&f.ID, &f.ContributionID, &f.FileName, &f.StoredPath, &f.MimeType, &f.SizeBytes, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
