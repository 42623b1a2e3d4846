// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/traceofthetides/tides-go/internal/catalog"
)

// excerptLen bounds generated search excerpts, in bytes.
const excerptLen = 240

// SectionInfo summarizes one catalog section in the listing endpoint.
type SectionInfo struct {
	Name  string `json:"name"`
	Items int    `json:"items"`
}

// ListSections returns every catalog section and its item count.
func (h *Handler) ListSections(w http.ResponseWriter, _ *http.Request) {
	var out []SectionInfo
	for _, name := range h.catalog.Sections() {
		items, _ := h.catalog.Section(name)
		out = append(out, SectionInfo{Name: name, Items: len(items)})
	}
	WriteSuccess(w, out, nil)
}

// parseFilterState builds a catalog.FilterState from query parameters.
// Missing parameters keep their neutral values; a malformed year is an
// error.
func parseFilterState(r *http.Request) (catalog.FilterState, map[string]string) {
	q := r.URL.Query()

	state := catalog.FilterState{
		Category: q.Get("category"),
		Query:    q.Get("q"),
		Region:   q.Get("region"),
	}
	if state.Category == "" {
		state.Category = catalog.CategoryAll
	}
	if state.Region == "" {
		state.Region = catalog.RegionAll
	}

	if raw := q.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return state, map[string]string{"year": "must be an integer"}
		}
		if year < catalog.MinYear || year > catalog.MaxYear {
			return state, map[string]string{"year": "out of range"}
		}
		state.Year = year
	}

	return state, nil
}

// SearchResult decorates a catalog item with a plain-text excerpt
// centered on the first query match.
type SearchResult struct {
	catalog.Item
	Excerpt string `json:"excerpt,omitempty"`
}

// searchResults attaches excerpts built from each item's prose fields.
func searchResults(items []catalog.Item, query string) []SearchResult {
	out := make([]SearchResult, 0, len(items))
	for _, item := range items {
		body := item.Description
		if item.Details != "" {
			if body != "" {
				body += " "
			}
			body += item.Details
		}
		out = append(out, SearchResult{
			Item:    item,
			Excerpt: catalog.Excerpt(body, query, excerptLen),
		})
	}
	return out
}

// SectionItems returns a section's items filtered by the query
// parameters category, q, region, and year.
func (h *Handler) SectionItems(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "section")
	items, ok := h.catalog.Section(section)
	if !ok {
		WriteNotFound(w, "Section not found")
		return
	}

	state, fieldErrs := parseFilterState(r)
	if fieldErrs != nil {
		WriteValidationError(w, fieldErrs)
		return
	}

	// The unfiltered listing is the hot path for page loads; serve the
	// preloaded serialized section straight from the cache backend.
	if state.Neutral() && h.cache != nil {
		if raw, err := h.cache.Section(r.Context(), section); err == nil {
			WriteSuccess(w, json.RawMessage(raw), &Meta{Total: int64(len(items))})
			return
		}
	}

	visible := catalog.Visible(items, state)
	meta := &Meta{Total: int64(len(visible))}
	if state.Query != "" && section == catalog.SectionArchives {
		WriteSuccess(w, searchResults(visible, state.Query), meta)
		return
	}
	WriteSuccess(w, visible, meta)
}

// GetItem returns one catalog item by section and ID.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "section")
	if _, ok := h.catalog.Section(section); !ok {
		WriteNotFound(w, "Section not found")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteBadRequest(w, "Invalid item ID", nil)
		return
	}

	item, ok := h.catalog.Item(section, id)
	if !ok {
		WriteNotFound(w, "Item not found")
		return
	}
	WriteSuccess(w, item, nil)
}

// MapPoints returns the map points visible for the year parameter. With
// no year, every point is returned.
func (h *Handler) MapPoints(w http.ResponseWriter, r *http.Request) {
	state, fieldErrs := parseFilterState(r)
	if fieldErrs != nil {
		WriteValidationError(w, fieldErrs)
		return
	}

	visible := catalog.Visible(h.catalog.Points(), state)
	WriteSuccess(w, visible, &Meta{Total: int64(len(visible))})
}

// BaseLayerResponse pairs the selected tile layer with the full list so
// the SPA can preload alternatives.
type BaseLayerResponse struct {
	Selected catalog.BaseLayer   `json:"selected"`
	Layers   []catalog.BaseLayer `json:"layers"`
}

// MapBaseLayer returns the tile layer matching the year parameter.
func (h *Handler) MapBaseLayer(w http.ResponseWriter, r *http.Request) {
	year := catalog.MaxYear
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			WriteValidationError(w, map[string]string{"year": "must be an integer"})
			return
		}
		year = parsed
	}

	WriteSuccess(w, BaseLayerResponse{
		Selected: catalog.BaseLayerForYear(year),
		Layers:   catalog.BaseLayers,
	}, nil)
}
