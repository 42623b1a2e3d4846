// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package catalog holds the embedded content catalogs and the filter
// predicate engine that computes the visible subset for a section.
package catalog

import "fmt"

// Item kinds, one per content variant.
const (
	KindBiography = "biography"
	KindTestimony = "testimony"
	KindGeoMap    = "geomap"
	KindArchive   = "archive"
	KindMapPoint  = "mappoint"
)

// Section names, one catalog per section.
const (
	SectionStone    = "stone"
	SectionSalt     = "salt"
	SectionCompass  = "compass"
	SectionArchives = "archives"
	SectionMaps     = "maps"
)

// Media holds opaque references to an item's media assets.
type Media struct {
	Image    string `json:"image,omitempty"`
	AudioURL string `json:"audio_url,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
}

// Temporal is the year range during which a map point existed.
// A zero EndYear means the point persists to the present.
type Temporal struct {
	StartYear int `json:"start_year"`
	EndYear   int `json:"end_year,omitempty"`
}

// Item is the shared shape for every catalog record. Kind-specific
// fields stay zero-valued for kinds that do not use them.
type Item struct {
	ID             int64     `json:"id"`
	Kind           string    `json:"kind"`
	Section        string    `json:"section"`
	Title          string    `json:"title"`
	LocalizedTitle string    `json:"localized_title,omitempty"`
	Author         string    `json:"author,omitempty"`
	Location       string    `json:"location,omitempty"`
	Category       string    `json:"category,omitempty"`
	Date           string    `json:"date,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	Media          Media     `json:"media"`
	Description    string    `json:"description,omitempty"`
	Details        string    `json:"details,omitempty"`
	Temporal       *Temporal `json:"temporal,omitempty"`
	Coordinates    []float64 `json:"coordinates,omitempty"` // [lat, lng]
}

var knownKinds = map[string]bool{
	KindBiography: true,
	KindTestimony: true,
	KindGeoMap:    true,
	KindArchive:   true,
	KindMapPoint:  true,
}

// Validate checks the invariants every catalog record must satisfy.
func (it Item) Validate() error {
	if it.ID == 0 {
		return fmt.Errorf("item has no id")
	}
	if it.Title == "" {
		return fmt.Errorf("item %d: empty title", it.ID)
	}
	if !knownKinds[it.Kind] {
		return fmt.Errorf("item %d: unknown kind %q", it.ID, it.Kind)
	}
	if t := it.Temporal; t != nil {
		if t.StartYear == 0 {
			return fmt.Errorf("item %d: temporal range without start year", it.ID)
		}
		if t.EndYear != 0 && t.EndYear < t.StartYear {
			return fmt.Errorf("item %d: temporal range %d-%d inverted", it.ID, t.StartYear, t.EndYear)
		}
	}
	if len(it.Coordinates) != 0 && len(it.Coordinates) != 2 {
		return fmt.Errorf("item %d: coordinates must be [lat, lng]", it.ID)
	}
	return nil
}
