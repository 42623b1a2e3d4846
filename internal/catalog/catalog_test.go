// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, section := range c.Sections() {
		items, ok := c.Section(section)
		if !ok {
			t.Fatalf("section %q missing", section)
		}
		if len(items) == 0 {
			t.Errorf("section %q is empty", section)
		}
		for _, it := range items {
			if it.Section != section {
				t.Errorf("item %d: Section = %q, want %q", it.ID, it.Section, section)
			}
		}
	}
}

func TestLoadMapsHaveTemporalRanges(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, pt := range c.Points() {
		if pt.Kind != KindMapPoint {
			t.Errorf("point %d: Kind = %q, want %q", pt.ID, pt.Kind, KindMapPoint)
		}
		if pt.Temporal == nil {
			t.Errorf("point %d has no temporal range", pt.ID)
		}
		if len(pt.Coordinates) != 2 {
			t.Errorf("point %d has no coordinates", pt.ID)
		}
	}
}

func TestItemLookup(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	it, ok := c.Item(SectionStone, 2)
	if !ok {
		t.Fatal("stone item 2 not found")
	}
	if it.Title != "Razan Al-Najjar" {
		t.Errorf("Title = %q", it.Title)
	}

	if _, ok := c.Item(SectionStone, 999); ok {
		t.Error("lookup of missing id should fail")
	}
	if _, ok := c.Item("unknown", 1); ok {
		t.Error("lookup in unknown section should fail")
	}
}

func TestItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		wantErr string
	}{
		{
			name:    "missing id",
			item:    Item{Kind: KindBiography, Title: "x"},
			wantErr: "no id",
		},
		{
			name:    "empty title",
			item:    Item{ID: 1, Kind: KindBiography},
			wantErr: "empty title",
		},
		{
			name:    "unknown kind",
			item:    Item{ID: 1, Kind: "poster", Title: "x"},
			wantErr: "unknown kind",
		},
		{
			name:    "inverted temporal range",
			item:    Item{ID: 1, Kind: KindMapPoint, Title: "x", Temporal: &Temporal{StartYear: 1967, EndYear: 1948}},
			wantErr: "inverted",
		},
		{
			name:    "bad coordinates",
			item:    Item{ID: 1, Kind: KindMapPoint, Title: "x", Coordinates: []float64{31.7}},
			wantErr: "coordinates",
		},
		{
			name: "valid",
			item: Item{ID: 1, Kind: KindMapPoint, Title: "x", Temporal: &Temporal{StartYear: 1948, EndYear: 1948}, Coordinates: []float64{31.7, 35.2}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestBaseLayerForYear(t *testing.T) {
	tests := []struct {
		year   int
		period string
	}{
		{2023, "current"},
		{1967, "current"},
		{1966, "1967"},
		{1948, "1967"},
		{1947, "1948"},
		{1900, "1948"},
	}
	for _, tt := range tests {
		if got := BaseLayerForYear(tt.year); got.Period != tt.period {
			t.Errorf("BaseLayerForYear(%d) = %q, want %q", tt.year, got.Period, tt.period)
		}
	}
}

func TestExcerpt(t *testing.T) {
	body := strings.Repeat("water and salt. ", 30) + "The Jenin refugee camp testimony. " + strings.Repeat("stone and tide. ", 30)

	got := Excerpt(body, "jenin", 120)
	if !strings.Contains(got, "Jenin") {
		t.Errorf("excerpt %q does not contain the match", got)
	}
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
		t.Errorf("centered excerpt %q should be elided on both sides", got)
	}

	// No match truncates from the start
	got = Excerpt(body, "zzz", 40)
	if !strings.HasPrefix(got, "water and salt.") || !strings.HasSuffix(got, "...") {
		t.Errorf("unmatched excerpt = %q", got)
	}

	if Excerpt("", "x", 100) != "" {
		t.Error("empty body should give empty excerpt")
	}

	// Short body passes through untouched
	if got := Excerpt("short text", "short", 100); got != "short text" {
		t.Errorf("short body = %q", got)
	}

	// Arabic text must not be cut mid-rune
	arabic := strings.Repeat("الحياة تحت الحصار ", 20)
	got = Excerpt(arabic, "الحصار", 60)
	if !strings.Contains(got, "الحصار") {
		t.Errorf("arabic excerpt %q missed the match", got)
	}
}

func TestExcerptFoldChangesByteLength(t *testing.T) {
	// The capital sharp s folds to two letters, shrinking the folded
	// text by one byte per occurrence. Offsets computed on the folded
	// text would drift the window off the match.
	body := strings.Repeat("ẞ", 30) + " needle and some trailing words"
	got := Excerpt(body, "needle", 30)
	if !strings.Contains(got, "needle") {
		t.Errorf("excerpt %q drifted off the match", got)
	}

	// A folding query must still match the unfolded body.
	got = Excerpt("die große Flut kam im Winter", "grosse", 40)
	if !strings.Contains(got, "große") {
		t.Errorf("excerpt %q missed the folded match", got)
	}
}
