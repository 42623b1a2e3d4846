// Package logging provides a slog handler that mirrors WARN and ERROR
// records into the database event log, so operational problems show up
// in the same audit trail as application events.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/traceofthetides/tides-go/internal/model"
	"github.com/traceofthetides/tides-go/internal/store"
)

// EventLogHandler wraps an inner slog.Handler. Records at or above the
// configured level are additionally written to the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
}

// NewEventLogHandler mirrors WARN and above into the event log.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel mirrors records at or above level.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.inner.Handle(ctx, r)
	if r.Level >= h.level {
		h.mirror(r)
	}
	return err
}

func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithAttrs(attrs)
	return &clone
}

func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithGroup(name)
	return &clone
}

// mirror writes one record to the events table. A background context
// is used so the event survives request-context cancellation. Failures
// are swallowed: the inner handler already emitted the record, and a
// logging path must not log about itself.
func (h *EventLogHandler) mirror(r slog.Record) {
	_, _ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  extractCategory(r),
		Message:   r.Message,
		UserID:    sql.NullInt64{},
		Metadata:  attrsJSON(r),
		CreatedAt: r.Time,
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// messageCategories maps message keywords to event categories, checked
// in order. Used when no explicit "category" attribute is present.
var messageCategories = []struct {
	keywords []string
	category string
}{
	{[]string{"auth", "sign", "login"}, model.EventCategoryAuth},
	{[]string{"contribution", "catalog", "content"}, model.EventCategoryContent},
	{[]string{"user", "profile"}, model.EventCategoryUser},
	{[]string{"cache"}, model.EventCategoryCache},
}

func extractCategory(r slog.Record) string {
	var explicit string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			explicit = a.Value.String()
			return false
		}
		return true
	})
	if explicit != "" {
		return explicit
	}

	msg := strings.ToLower(r.Message)
	for _, mc := range messageCategories {
		for _, kw := range mc.keywords {
			if strings.Contains(msg, kw) {
				return mc.category
			}
		}
	}
	return model.EventCategorySystem
}

// attrsJSON serializes the record's attributes, minus the category, to
// a JSON object of string values.
func attrsJSON(r slog.Record) string {
	if r.NumAttrs() == 0 {
		return "{}"
	}

	attrs := make(map[string]string, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "category" {
			attrs[a.Key] = a.Value.String()
		}
		return true
	})
	if len(attrs) == 0 {
		return "{}"
	}

	raw, err := json.Marshal(attrs)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
