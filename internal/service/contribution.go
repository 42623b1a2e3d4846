// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/traceofthetides/tides-go/internal/imaging"
	"github.com/traceofthetides/tides-go/internal/model"
	"github.com/traceofthetides/tides-go/internal/store"
	"github.com/traceofthetides/tides-go/internal/util"
)

const (
	// MaxUploadSize bounds attachment size.
	MaxUploadSize = 20 * 1024 * 1024 // 20MB

	// MaxTitleLength bounds submitted titles.
	MaxTitleLength = 200

	// MaxBodyLength bounds submitted body text.
	MaxBodyLength = 50000
)

// htmlSanitizer strips unsafe markup from rendered contribution HTML.
// UGCPolicy allows the formatting tags user-generated content needs while
// removing scripts and event handlers.
var htmlSanitizer = bluemonday.UGCPolicy()

// ContributionService handles the submission and review pipeline for
// user-contributed content.
type ContributionService struct {
	queries   *store.Queries
	processor *imaging.Processor
	uploadDir string
}

// NewContributionService creates a contribution service storing
// attachments under uploadDir.
func NewContributionService(db store.DBTX, uploadDir string) *ContributionService {
	return &ContributionService{
		queries:   store.New(db),
		processor: imaging.NewProcessor(uploadDir),
		uploadDir: uploadDir,
	}
}

// SubmitParams carries a contribution submission.
type SubmitParams struct {
	Kind        string
	Title       string
	Body        string // Markdown source
	AuthorUID   string
	Section     string
	Tags        []string
	ScheduledAt *time.Time
}

// Submit validates a submission, renders and sanitizes its body, and
// stores it as a pending contribution.
func (s *ContributionService) Submit(ctx context.Context, p SubmitParams) (model.Contribution, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return model.Contribution{}, fmt.Errorf("title is required")
	}
	if len(title) > MaxTitleLength {
		return model.Contribution{}, fmt.Errorf("title exceeds %d characters", MaxTitleLength)
	}
	if !model.IsValidContributionKind(p.Kind) {
		return model.Contribution{}, fmt.Errorf("unknown contribution kind %q", p.Kind)
	}
	body := strings.TrimSpace(p.Body)
	if body == "" {
		return model.Contribution{}, fmt.Errorf("body is required")
	}
	if len(body) > MaxBodyLength {
		return model.Contribution{}, fmt.Errorf("body exceeds %d characters", MaxBodyLength)
	}
	if p.ScheduledAt != nil && p.ScheduledAt.Before(time.Now()) {
		return model.Contribution{}, fmt.Errorf("scheduled time must be in the future")
	}

	bodyHTML, err := renderMarkdown(body)
	if err != nil {
		return model.Contribution{}, fmt.Errorf("rendering body: %w", err)
	}

	var scheduledAt sql.NullTime
	if p.ScheduledAt != nil {
		scheduledAt = sql.NullTime{Time: *p.ScheduledAt, Valid: true}
	}

	return s.queries.CreateContribution(ctx, store.CreateContributionParams{
		Kind:        p.Kind,
		Title:       title,
		Slug:        util.Slugify(title),
		Body:        body,
		BodyHTML:    bodyHTML,
		AuthorUID:   p.AuthorUID,
		Section:     p.Section,
		Tags:        strings.Join(p.Tags, ","),
		ScheduledAt: scheduledAt,
	})
}

// renderMarkdown converts markdown to HTML and sanitizes the result.
func renderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return htmlSanitizer.Sanitize(buf.String()), nil
}

// AttachFile validates and stores an uploaded attachment for a
// contribution. Image attachments are re-encoded without EXIF metadata
// and get resized variants; other allowed types are stored as-is.
func (s *ContributionService) AttachFile(ctx context.Context, contributionID int64, file multipart.File, header *multipart.FileHeader) (model.ContributionFile, error) {
	if header.Size > MaxUploadSize {
		return model.ContributionFile{}, fmt.Errorf("file size exceeds maximum allowed (%d bytes)", MaxUploadSize)
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mimeTypeFromExtension(header.Filename)
	}
	if !model.IsSupportedMimeType(mimeType) {
		return model.ContributionFile{}, fmt.Errorf("file type %s is not allowed", mimeType)
	}

	// The contribution must exist before files can be attached.
	if _, err := s.queries.GetContributionByID(ctx, contributionID); err != nil {
		return model.ContributionFile{}, fmt.Errorf("contribution lookup: %w", err)
	}

	fileUUID := uuid.New().String()
	filename := sanitizeFilename(header.Filename)

	var storedPath string
	var size int64

	if s.processor.IsImage(mimeType) {
		result, err := s.processor.ProcessImage(file, fileUUID, filename)
		if err != nil {
			return model.ContributionFile{}, fmt.Errorf("processing image: %w", err)
		}
		storedPath = result.FilePath
		size = result.Size
		mimeType = result.MimeType

		if _, err := s.processor.CreateAllVariants(result.FilePath, fileUUID, filename); err != nil {
			// The original is saved; missing variants are regenerable.
			slog.Warn("failed to create image variants", "uuid", fileUUID, "error", err)
		}
	} else {
		path, n, err := util.SaveUploadedFile(file, s.uploadDir, filepath.Join("files", fileUUID), filename)
		if err != nil {
			return model.ContributionFile{}, fmt.Errorf("saving file: %w", err)
		}
		storedPath = path
		size = n
	}

	rec, err := s.queries.CreateContributionFile(ctx, store.CreateContributionFileParams{
		ContributionID: contributionID,
		FileName:       filename,
		StoredPath:     storedPath,
		MimeType:       mimeType,
		SizeBytes:      size,
	})
	if err != nil {
		_ = s.processor.DeleteFiles(fileUUID)
		return model.ContributionFile{}, fmt.Errorf("recording attachment: %w", err)
	}
	return rec, nil
}

// Get returns a contribution by ID.
func (s *ContributionService) Get(ctx context.Context, id int64) (model.Contribution, error) {
	return s.queries.GetContributionByID(ctx, id)
}

// Files returns the attachments for a contribution.
func (s *ContributionService) Files(ctx context.Context, contributionID int64) ([]model.ContributionFile, error) {
	return s.queries.ListContributionFiles(ctx, contributionID)
}

// ListByStatus returns contributions in the given status, newest first.
func (s *ContributionService) ListByStatus(ctx context.Context, status string, limit, offset int64) ([]model.Contribution, error) {
	return s.queries.ListContributionsByStatus(ctx, status, limit, offset)
}

// ListByAuthor returns every contribution submitted by an author.
func (s *ContributionService) ListByAuthor(ctx context.Context, authorUID string) ([]model.Contribution, error) {
	return s.queries.ListContributionsByAuthor(ctx, authorUID)
}

// PendingCount returns the number of contributions awaiting review.
func (s *ContributionService) PendingCount(ctx context.Context) (int64, error) {
	return s.queries.CountContributionsByStatus(ctx, model.ContributionStatusPending)
}

// Publish moves a pending contribution to published.
func (s *ContributionService) Publish(ctx context.Context, id int64) error {
	return s.queries.PublishContribution(ctx, id, time.Now())
}

// Reject marks a pending contribution rejected.
func (s *ContributionService) Reject(ctx context.Context, id int64) error {
	return s.queries.RejectContribution(ctx, id)
}

// PublishDue publishes every scheduled contribution whose time has
// arrived and returns how many were published. Called by the scheduler.
func (s *ContributionService) PublishDue(ctx context.Context) (int, error) {
	due, err := s.queries.GetScheduledContributionsDue(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	published := 0
	for _, c := range due {
		if err := s.queries.PublishContribution(ctx, c.ID, time.Now()); err != nil {
			return published, fmt.Errorf("publishing contribution %d: %w", c.ID, err)
		}
		published++
	}
	return published, nil
}

// sanitizeFilename strips path components and unsafe characters from an
// uploaded filename.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." || name == ".." {
		name = "file"
	}
	return name
}

// mimeTypeFromExtension guesses a MIME type when the client omitted one.
func mimeTypeFromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return model.MimeTypeJPEG
	case ".png":
		return model.MimeTypePNG
	case ".gif":
		return model.MimeTypeGIF
	case ".webp":
		return model.MimeTypeWebP
	case ".pdf":
		return model.MimeTypePDF
	case ".mp3":
		return model.MimeTypeMP3
	case ".mp4":
		return model.MimeTypeMP4
	case ".webm":
		return model.MimeTypeWebM
	case ".doc":
		return model.MimeTypeDOC
	case ".docx":
		return model.MimeTypeDOCX
	default:
		return "application/octet-stream"
	}
}
