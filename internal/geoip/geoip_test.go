// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import "testing"

func TestDisabledResolver(t *testing.T) {
	r, err := NewResolver("")
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if r.Enabled() {
		t.Error("resolver without database should be disabled")
	}
	if got := r.Country("8.8.8.8"); got != "" {
		t.Errorf("Country() = %q, want empty for disabled resolver", got)
	}
}

func TestLocalAddresses(t *testing.T) {
	r, _ := NewResolver("")

	tests := []struct {
		ip   string
		want string
	}{
		{"127.0.0.1", "LOCAL"},
		{"::1", "LOCAL"},
		{"10.1.2.3", "LOCAL"},
		{"172.16.0.1", "LOCAL"},
		{"192.168.1.100", "LOCAL"},
		{"fe80::1", "LOCAL"},
		{"not-an-ip", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := r.Country(tt.ip); got != tt.want {
			t.Errorf("Country(%q) = %q, want %q", tt.ip, got, tt.want)
		}
	}
}

func TestMissingDatabase(t *testing.T) {
	r, err := NewResolver("/nonexistent/GeoLite2-Country.mmdb")
	if err == nil {
		t.Fatal("expected error for missing database file")
	}
	if r.Enabled() {
		t.Error("resolver should stay disabled after a failed load")
	}
}
