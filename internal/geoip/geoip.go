// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves visitor IP addresses to 2-letter country codes
// using a MaxMind GeoLite2-Country database. Lookups degrade gracefully:
// without a database file the resolver stays disabled and returns empty
// codes, so visit tracking keeps working on fresh installs.
package geoip

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

var privateCIDRs []*net.IPNet

func init() {
	blocks := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"fc00::/7",  // IPv6 unique local
		"fe80::/10", // IPv6 link-local
	}
	for _, block := range blocks {
		_, cidr, err := net.ParseCIDR(block)
		if err == nil {
			privateCIDRs = append(privateCIDRs, cidr)
		}
	}
}

// Resolver maps IP addresses to countries via a GeoLite2-Country database.
type Resolver struct {
	db        *maxminddb.Reader
	dbPath    string
	dbModTime time.Time
	enabled   bool
	mu        sync.RWMutex
}

// countryRecord matches the GeoLite2-Country record layout.
type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// NewResolver opens a resolver for the database at dbPath. An empty path
// returns a disabled resolver and no error.
func NewResolver(dbPath string) (*Resolver, error) {
	r := &Resolver{dbPath: dbPath}
	if dbPath == "" {
		return r, nil
	}
	if err := r.load(); err != nil {
		return r, err
	}
	return r, nil
}

// load opens or reloads the database file. Caller holds the write lock
// or has exclusive access during construction.
func (r *Resolver) load() error {
	info, err := os.Stat(r.dbPath)
	if err != nil {
		r.enabled = false
		if os.IsNotExist(err) {
			return fmt.Errorf("geoip database not found: %s", r.dbPath)
		}
		return fmt.Errorf("geoip database stat: %w", err)
	}

	if r.db != nil && info.ModTime().Equal(r.dbModTime) {
		return nil
	}

	if r.db != nil {
		_ = r.db.Close()
		r.db = nil
	}

	db, err := maxminddb.Open(r.dbPath)
	if err != nil {
		r.enabled = false
		return fmt.Errorf("open geoip database: %w", err)
	}

	r.db = db
	r.dbModTime = info.ModTime()
	r.enabled = true
	return nil
}

// Reload re-opens the database if the file changed on disk. Safe to call
// from a periodic job.
func (r *Resolver) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dbPath == "" {
		return nil
	}
	return r.load()
}

// Country returns the ISO country code for an IP, "LOCAL" for private or
// loopback addresses, and "" when the IP is invalid or the resolver is
// disabled.
func (r *Resolver) Country(ip string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if parsed.IsLoopback() || isPrivateIP(parsed) {
		return "LOCAL"
	}
	if !r.enabled || r.db == nil {
		return ""
	}

	var rec countryRecord
	if err := r.db.Lookup(parsed, &rec); err != nil {
		return ""
	}
	return rec.Country.ISOCode
}

// Enabled reports whether database lookups are available.
func (r *Resolver) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

// Close releases the underlying database.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		err := r.db.Close()
		r.db = nil
		r.enabled = false
		return err
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	for _, cidr := range privateCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}
