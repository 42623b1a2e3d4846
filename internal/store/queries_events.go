// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/traceofthetides/tides-go/internal/model"
)

// CreateEventParams holds parameters for CreateEvent.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	IPAddress string
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent inserts an event log entry.
func (q *Queries) CreateEvent(ctx context.Context, p CreateEventParams) (model.Event, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO events (level, category, message, user_id, ip_address, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Level, p.Category, p.Message, p.UserID, p.IPAddress, p.Metadata, p.CreatedAt)
	if err != nil {
		return model.Event{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Event{}, err
	}
	return model.Event{
		ID:        id,
		Level:     p.Level,
		Category:  p.Category,
		Message:   p.Message,
		UserID:    p.UserID,
		IPAddress: p.IPAddress,
		Metadata:  p.Metadata,
		CreatedAt: p.CreatedAt,
	}, nil
}

// ListRecentEvents returns the newest events, most recent first.
func (q *Queries) ListRecentEvents(ctx context.Context, limit int64) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, level, category, message, user_id, ip_address, metadata, created_at
		FROM events ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.IPAddress, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteOldEvents removes events older than the cutoff and returns the
// number of rows deleted.
func (q *Queries) DeleteOldEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CreateVisitParams holds parameters for CreateVisit.
type CreateVisitParams struct {
	Path    string
	Section string
	Browser string
	OS      string
	Device  string
	Country string
	Day     string
}

// CreateVisit inserts a page-view record.
func (q *Queries) CreateVisit(ctx context.Context, p CreateVisitParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO visits (path, section, browser, os, device, country, day, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Path, p.Section, p.Browser, p.OS, p.Device, p.Country, p.Day, time.Now())
	return err
}

// CountVisitsByDay returns the number of visits recorded on a YYYY-MM-DD day.
func (q *Queries) CountVisitsByDay(ctx context.Context, day string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visits WHERE day = ?`, day).Scan(&n)
	return n, err
}

// VisitSectionCount is a per-section visit aggregate.
type VisitSectionCount struct {
	Section string
	Count   int64
}

// CountVisitsBySection aggregates visits per section for a day range.
func (q *Queries) CountVisitsBySection(ctx context.Context, fromDay, toDay string) ([]VisitSectionCount, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT section, COUNT(*) FROM visits
		WHERE day >= ? AND day <= ?
		GROUP BY section ORDER BY COUNT(*) DESC`, fromDay, toDay)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []VisitSectionCount
	for rows.Next() {
		var v VisitSectionCount
		if err := rows.Scan(&v.Section, &v.Count); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
