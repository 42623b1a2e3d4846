// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mileusna/useragent"

	"github.com/traceofthetides/tides-go/internal/geoip"
	"github.com/traceofthetides/tides-go/internal/store"
)

// VisitService records privacy-bounded page views. The raw IP address is
// used once to resolve a country code and is never written to the database.
type VisitService struct {
	queries  *store.Queries
	resolver *geoip.Resolver
}

// NewVisitService creates a visit tracker. resolver may be nil, in which
// case the country column stays empty.
func NewVisitService(db store.DBTX, resolver *geoip.Resolver) *VisitService {
	return &VisitService{
		queries:  store.New(db),
		resolver: resolver,
	}
}

// ParsedUA holds the fields extracted from a User-Agent header.
type ParsedUA struct {
	Browser string
	OS      string
	Device  string
}

// ParseUserAgent extracts browser, OS, and device type from a user agent
// string. Unknown values are normalized to "Unknown".
func ParseUserAgent(uaString string) ParsedUA {
	ua := useragent.Parse(uaString)

	result := ParsedUA{
		Browser: ua.Name,
		OS:      ua.OS,
	}
	if result.Browser == "" {
		result.Browser = "Unknown"
	}
	if result.OS == "" {
		result.OS = "Unknown"
	}

	switch {
	case ua.Mobile:
		result.Device = "mobile"
	case ua.Tablet:
		result.Device = "tablet"
	case ua.Bot:
		result.Device = "bot"
	default:
		result.Device = "desktop"
	}
	return result
}

// SectionFromPath maps a request path to the catalog section it serves,
// or "" for paths outside the catalog.
func SectionFromPath(path string) string {
	trimmed := strings.TrimPrefix(path, "/api/v1/sections/")
	if trimmed == path {
		return ""
	}
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return trimmed
}

// Track records a page view. Failures are logged, not returned: tracking
// must never affect request handling.
func (s *VisitService) Track(ctx context.Context, path, uaString, ip string) {
	parsed := ParseUserAgent(uaString)
	if parsed.Device == "bot" {
		return
	}

	country := ""
	if s.resolver != nil {
		country = s.resolver.Country(ip)
	}

	err := s.queries.CreateVisit(ctx, store.CreateVisitParams{
		Path:    path,
		Section: SectionFromPath(path),
		Browser: parsed.Browser,
		OS:      parsed.OS,
		Device:  parsed.Device,
		Country: country,
		Day:     time.Now().Format("2006-01-02"),
	})
	if err != nil {
		slog.Warn("failed to record visit", "path", path, "error", err)
	}
}

// VisitsOnDay returns the visit count for a YYYY-MM-DD day.
func (s *VisitService) VisitsOnDay(ctx context.Context, day string) (int64, error) {
	return s.queries.CountVisitsByDay(ctx, day)
}

// SectionCounts aggregates visits per section over an inclusive day range.
func (s *VisitService) SectionCounts(ctx context.Context, fromDay, toDay string) ([]store.VisitSectionCount, error) {
	return s.queries.CountVisitsBySection(ctx, fromDay, toDay)
}
