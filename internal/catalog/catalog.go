// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed data/*.json
var seedFS embed.FS

// sectionOrder fixes the section listing order used by the API.
var sectionOrder = []string{
	SectionStone,
	SectionSalt,
	SectionCompass,
	SectionArchives,
	SectionMaps,
}

// Catalog holds every section's items, loaded once at startup.
type Catalog struct {
	sections map[string][]Item
}

// Load parses and validates the embedded seed data. A section that
// fails validation returns an error so startup can abort.
func Load() (*Catalog, error) {
	c := &Catalog{sections: make(map[string][]Item, len(sectionOrder))}
	for _, section := range sectionOrder {
		items, err := loadSection(section)
		if err != nil {
			return nil, fmt.Errorf("loading catalog %s: %w", section, err)
		}
		c.sections[section] = items
	}
	return c, nil
}

func loadSection(section string) ([]Item, error) {
	raw, err := seedFS.ReadFile("data/" + section + ".json")
	if err != nil {
		return nil, err
	}

	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parsing seed data: %w", err)
	}

	seen := make(map[int64]bool, len(items))
	for i := range items {
		items[i].Section = section
		if err := items[i].Validate(); err != nil {
			return nil, err
		}
		if seen[items[i].ID] {
			return nil, fmt.Errorf("duplicate item id %d", items[i].ID)
		}
		seen[items[i].ID] = true
	}
	return items, nil
}

// Sections returns the section names in listing order.
func (c *Catalog) Sections() []string {
	out := make([]string, len(sectionOrder))
	copy(out, sectionOrder)
	return out
}

// Section returns a section's items in catalog order. The boolean is
// false for an unknown section name.
func (c *Catalog) Section(name string) ([]Item, bool) {
	items, ok := c.sections[name]
	return items, ok
}

// Item looks up a single record by section and id.
func (c *Catalog) Item(section string, id int64) (Item, bool) {
	for _, it := range c.sections[section] {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Points returns the maps section's points of interest.
func (c *Catalog) Points() []Item {
	return c.sections[SectionMaps]
}
