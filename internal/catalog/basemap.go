// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

// BaseLayer describes a raster tile source for the map page.
type BaseLayer struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	MaxZoom     int    `json:"max_zoom"`
	Period      string `json:"period"`
}

// BaseLayers lists the available tile sources, modern first.
var BaseLayers = []BaseLayer{
	{
		Name:        "Modern (Current)",
		URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
		MaxZoom:     19,
		Period:      "current",
	},
	{
		Name:        "Historical (1948)",
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Tiles &copy; Esri &mdash; Source: Esri, i-cubed, USDA, USGS, AEX, GeoEye, Getmapping, Aerogrid, IGN, IGP, UPR-EGP, and the GIS User Community",
		MaxZoom:     19,
		Period:      "1948",
	},
	{
		Name:        "Historical (1967)",
		URL:         "https://stamen-tiles-{s}.a.ssl.fastly.net/terrain/{z}/{x}/{y}{r}.jpg",
		Attribution: `Map tiles by <a href="http://stamen.com">Stamen Design</a>, <a href="http://creativecommons.org/licenses/by/3.0">CC BY 3.0</a> &mdash; Map data &copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
		MaxZoom:     18,
		Period:      "1967",
	},
}

// BaseLayerForYear selects the tile source for a slider year by the
// fixed threshold table: 1967 and later shows the current layer,
// 1948 through 1966 the 1967 layer, earlier years the 1948 layer.
func BaseLayerForYear(year int) BaseLayer {
	var period string
	switch {
	case year >= 1967:
		period = "current"
	case year >= 1948:
		period = "1967"
	default:
		period = "1948"
	}
	for _, layer := range BaseLayers {
		if layer.Period == period {
			return layer
		}
	}
	return BaseLayers[0]
}
