// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Contribution statuses
const (
	ContributionStatusPending   = "pending"
	ContributionStatusPublished = "published"
	ContributionStatusRejected  = "rejected"
)

// Contribution kinds accepted from the contribute form.
const (
	ContributionKindBiography   = "biography"
	ContributionKindStory       = "story"
	ContributionKindTestimony   = "testimony"
	ContributionKindMap         = "map"
	ContributionKindPhotograph  = "photograph"
	ContributionKindArtwork     = "artwork"
	ContributionKindMusic       = "music"
	ContributionKindLiterature  = "literature"
)

// ContributionKinds lists every accepted kind, in form order.
var ContributionKinds = []string{
	ContributionKindBiography,
	ContributionKindStory,
	ContributionKindTestimony,
	ContributionKindMap,
	ContributionKindPhotograph,
	ContributionKindArtwork,
	ContributionKindMusic,
	ContributionKindLiterature,
}

// IsValidContributionKind reports whether kind is one of the accepted kinds.
func IsValidContributionKind(kind string) bool {
	for _, k := range ContributionKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Contribution represents a user-submitted piece of content awaiting review.
type Contribution struct {
	ID          int64        `json:"id"`
	Kind        string       `json:"kind"`
	Title       string       `json:"title"`
	Slug        string       `json:"slug"`
	Body        string       `json:"body"`      // Sanitized source text
	BodyHTML    string       `json:"body_html"` // Rendered markdown
	AuthorUID   string       `json:"author_uid"`
	Status      string       `json:"status"`
	Section     string       `json:"section,omitempty"`
	Tags        string       `json:"tags,omitempty"` // Comma-separated
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	ScheduledAt sql.NullTime `json:"scheduled_at,omitempty"`
	PublishedAt sql.NullTime `json:"published_at,omitempty"`
}

// IsPublished returns true if the contribution has been published.
func (c *Contribution) IsPublished() bool {
	return c.Status == ContributionStatusPublished
}

// ContributionFile is an uploaded attachment belonging to a contribution.
type ContributionFile struct {
	ID             int64     `json:"id"`
	ContributionID int64     `json:"contribution_id"`
	FileName       string    `json:"file_name"`
	StoredPath     string    `json:"stored_path"`
	MimeType       string    `json:"mime_type"`
	SizeBytes      int64     `json:"size_bytes"`
	CreatedAt      time.Time `json:"created_at"`
}
