// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"
	"time"

	"github.com/traceofthetides/tides-go/internal/testutil"
)

const (
	chromeDesktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	safariMobileUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	googlebotUA     = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		name       string
		ua         string
		wantDevice string
	}{
		{"desktop chrome", chromeDesktopUA, "desktop"},
		{"mobile safari", safariMobileUA, "mobile"},
		{"bot", googlebotUA, "bot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseUserAgent(tt.ua)
			if got.Device != tt.wantDevice {
				t.Errorf("Device = %q, want %q", got.Device, tt.wantDevice)
			}
			if got.Browser == "" || got.OS == "" {
				t.Errorf("browser/OS should never be empty: %+v", got)
			}
		})
	}
}

func TestParseUserAgentEmpty(t *testing.T) {
	got := ParseUserAgent("")
	if got.Browser != "Unknown" || got.OS != "Unknown" {
		t.Errorf("empty UA should normalize to Unknown, got %+v", got)
	}
}

func TestSectionFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/sections/voice-of-the-stone/items", "voice-of-the-stone"},
		{"/api/v1/sections/maps", "maps"},
		{"/api/v1/status", ""},
		{"/", ""},
	}

	for _, tt := range tests {
		if got := SectionFromPath(tt.path); got != tt.want {
			t.Errorf("SectionFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestTrackRecordsVisit(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewVisitService(db, nil)
	ctx := context.Background()

	svc.Track(ctx, "/api/v1/sections/maps/items", chromeDesktopUA, "127.0.0.1")

	day := time.Now().Format("2006-01-02")
	n, err := svc.VisitsOnDay(ctx, day)
	if err != nil {
		t.Fatalf("VisitsOnDay: %v", err)
	}
	if n != 1 {
		t.Fatalf("got %d visits, want 1", n)
	}

	counts, err := svc.SectionCounts(ctx, day, day)
	if err != nil {
		t.Fatalf("SectionCounts: %v", err)
	}
	if len(counts) != 1 || counts[0].Section != "maps" {
		t.Errorf("SectionCounts = %+v, want one entry for maps", counts)
	}
}

func TestTrackSkipsBots(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewVisitService(db, nil)
	ctx := context.Background()

	svc.Track(ctx, "/api/v1/sections/maps", googlebotUA, "203.0.113.7")

	day := time.Now().Format("2006-01-02")
	n, err := svc.VisitsOnDay(ctx, day)
	if err != nil {
		t.Fatalf("VisitsOnDay: %v", err)
	}
	if n != 0 {
		t.Errorf("got %d visits, want 0 for bot traffic", n)
	}
}
