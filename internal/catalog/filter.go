// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"strings"

	"golang.org/x/text/cases"
)

// Year slider bounds, matching the map timeline control.
const (
	MinYear = 1900
	MaxYear = 2023
)

// Sentinel values that deactivate a filter dimension.
const (
	CategoryAll = "all"
	RegionAll   = "all-regions"
)

// FilterState is the set of user-selected constraints applied to a
// catalog. Dimensions compose with AND; the fields a single dimension
// matches against compose with OR.
type FilterState struct {
	Category string
	Query    string
	Year     int
	Region   string
}

// Reset returns the neutral filter state: every dimension inactive,
// year at the top of the slider. Reset of a reset state is identical.
func (FilterState) Reset() FilterState {
	return FilterState{
		Category: CategoryAll,
		Query:    "",
		Year:     MaxYear,
		Region:   RegionAll,
	}
}

// Neutral reports whether no filter dimension is active, meaning
// Visible would return the catalog unchanged.
func (s FilterState) Neutral() bool {
	return (s.Category == "" || s.Category == CategoryAll) &&
		s.Query == "" &&
		s.Year == 0 &&
		(s.Region == "" || s.Region == RegionAll)
}

// fold lowercases with full Unicode case folding so Arabic titles
// match the same way Latin ones do. Casers are stateful, so one is
// created per call rather than shared across request goroutines.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Visible computes the subset of items satisfying every active
// dimension of state, preserving catalog order. The result is never
// nil, so an empty catalog or a miss serializes as [] rather than null.
func Visible(items []Item, state FilterState) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if matchesCategory(it, state.Category) &&
			matchesRegion(it, state.Region) &&
			matchesQuery(it, state.Query) &&
			matchesYear(it, state.Year) {
			out = append(out, it)
		}
	}
	return out
}

// matchesCategory accepts the sentinel, an exact category or kind
// match, or a substring hit on location or any tag.
func matchesCategory(it Item, category string) bool {
	if category == "" || category == CategoryAll {
		return true
	}
	token := fold(category)
	if fold(it.Category) == token || fold(it.Kind) == token {
		return true
	}
	if it.Location != "" && strings.Contains(fold(it.Location), token) {
		return true
	}
	return anyTagContains(it.Tags, token)
}

func matchesRegion(it Item, region string) bool {
	if region == "" || region == RegionAll {
		return true
	}
	token := fold(region)
	if it.Location != "" && strings.Contains(fold(it.Location), token) {
		return true
	}
	return anyTagContains(it.Tags, token)
}

// matchesQuery searches title, localized title, description, author
// and tags for the folded query as a substring.
func matchesQuery(it Item, query string) bool {
	if query == "" {
		return true
	}
	q := fold(query)
	for _, field := range []string{it.Title, it.LocalizedTitle, it.Description, it.Author} {
		if field != "" && strings.Contains(fold(field), q) {
			return true
		}
	}
	return anyTagContains(it.Tags, q)
}

// matchesYear applies the temporal rule to items carrying a range:
// visible iff the range had started by year and has not yet ended.
// Items without a range are unaffected by the year dimension.
func matchesYear(it Item, year int) bool {
	if year == 0 || it.Temporal == nil {
		return true
	}
	t := it.Temporal
	if t.StartYear > year {
		return false
	}
	return t.EndYear == 0 || t.EndYear >= year
}

func anyTagContains(tags []string, token string) bool {
	for _, tag := range tags {
		if strings.Contains(fold(tag), token) {
			return true
		}
	}
	return false
}
