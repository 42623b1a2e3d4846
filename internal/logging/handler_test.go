package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/traceofthetides/tides-go/internal/model"
	"github.com/traceofthetides/tides-go/internal/store"
	"github.com/traceofthetides/tides-go/internal/testutil"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func TestEventLogHandlerErrorLevel(t *testing.T) {
	db := testutil.TestDB(t)

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Error("database connection failed", "host", "localhost")

	events, err := store.New(db).ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Level != model.EventLevelError {
		t.Errorf("Level = %q, want %q", events[0].Level, model.EventLevelError)
	}
	if events[0].Message != "database connection failed" {
		t.Errorf("Message = %q", events[0].Message)
	}
}

func TestEventLogHandlerInfoNotForwarded(t *testing.T) {
	db := testutil.TestDB(t)

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Info("routine message")

	events, err := store.New(db).ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events = %d, want 0 for INFO", len(events))
	}
}

func TestEventLogHandlerCategoryAttr(t *testing.T) {
	db := testutil.TestDB(t)

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Warn("quota exceeded", "category", model.EventCategoryCache)

	events, err := store.New(db).ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Category != model.EventCategoryCache {
		t.Errorf("Category = %q, want %q", events[0].Category, model.EventCategoryCache)
	}
}

func TestExtractCategoryInference(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"sign-in failed", model.EventCategoryAuth},
		{"contribution rejected", model.EventCategoryContent},
		{"profile fetch failed", model.EventCategoryUser},
		{"cache backend down", model.EventCategoryCache},
		{"disk almost full", model.EventCategorySystem},
	}
	for _, tt := range tests {
		r := slog.Record{Message: tt.message}
		if got := extractCategory(r); got != tt.want {
			t.Errorf("extractCategory(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}
