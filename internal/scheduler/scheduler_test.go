package scheduler

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/traceofthetides/tides-go/internal/service"
	"github.com/traceofthetides/tides-go/internal/testutil"
)

func TestSchedulerStartStop(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.Default()

	s := New(db, logger,
		service.NewContributionService(db, t.TempDir()),
		service.NewEventService(db),
		nil)
	if s.cron == nil {
		t.Fatal("scheduler has nil cron")
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(s.cron.Entries()) != 3 {
		t.Errorf("got %d cron entries, want 3", len(s.cron.Entries()))
	}
	s.Stop()
}

func TestPublishDueContributions(t *testing.T) {
	db := testutil.TestDB(t)
	contributions := service.NewContributionService(db, t.TempDir())
	events := service.NewEventService(db)

	s := New(db, slog.Default(), contributions, events, nil)

	ctx := context.Background()
	due := time.Now().Add(50 * time.Millisecond)
	if _, err := contributions.Submit(ctx, service.SubmitParams{
		Kind:        "testimony",
		Title:       "Scheduled Account",
		Body:        "Body text.",
		AuthorUID:   "author-uid",
		ScheduledAt: &due,
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Not yet due.
	if err := s.publishDueContributions(); err != nil {
		t.Fatalf("publishDueContributions: %v", err)
	}
	list, err := contributions.ListByStatus(ctx, "published", 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("published early: %d", len(list))
	}

	time.Sleep(100 * time.Millisecond)

	if err := s.publishDueContributions(); err != nil {
		t.Fatalf("publishDueContributions: %v", err)
	}
	list, err = contributions.ListByStatus(ctx, "published", 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d published, want 1", len(list))
	}

	// The automatic publish leaves an audit event behind.
	recent, err := events.RecentEvents(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) == 0 {
		t.Error("no audit event recorded")
	}
}

func TestTrimOldEvents(t *testing.T) {
	db := testutil.TestDB(t)
	events := service.NewEventService(db)
	s := New(db, slog.Default(), service.NewContributionService(db, t.TempDir()), events, nil)
	s.eventRetention = 0

	ctx := context.Background()
	if err := events.LogSystemEvent(ctx, "info", "old event", nil, "", nil); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	if err := s.trimOldEvents(); err != nil {
		t.Fatalf("trimOldEvents: %v", err)
	}
	recent, err := events.RecentEvents(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 0 {
		t.Errorf("events remaining after trim: %d", len(recent))
	}
}
