package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/traceofthetides/tides-go/internal/catalog"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	backend := NewSimpleMemoryCache(time.Minute)
	t.Cleanup(func() { _ = backend.Close() })
	return NewManagerWithBackend(backend, cat, time.Minute)
}

func TestManagerPreload(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	if err := m.Preload(ctx); err != nil {
		t.Fatalf("Preload: %v", err)
	}

	raw, err := m.Section(ctx, catalog.SectionStone)
	if err != nil {
		t.Fatalf("Section: %v", err)
	}

	var items []catalog.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(items) == 0 {
		t.Error("cached section is empty")
	}
	if items[0].Section != catalog.SectionStone {
		t.Errorf("Section = %q, want %q", items[0].Section, catalog.SectionStone)
	}
}

func TestManagerSectionRefillsOnMiss(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	// No preload: first read refills from the in-memory catalog
	raw, err := m.Section(ctx, catalog.SectionMaps)
	if err != nil {
		t.Fatalf("Section: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("empty payload")
	}

	if _, err := m.Section(ctx, "unknown"); err == nil {
		t.Error("unknown section should fail")
	}
}

func TestManagerInvalidate(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	if err := m.Preload(ctx); err != nil {
		t.Fatalf("Preload: %v", err)
	}
	if err := m.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	// Still serves after invalidation via refill
	if _, err := m.Section(ctx, catalog.SectionSalt); err != nil {
		t.Errorf("Section after invalidate: %v", err)
	}
}
