// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/traceofthetides/tides-go/internal/geoip"
	"github.com/traceofthetides/tides-go/internal/service"
	"github.com/traceofthetides/tides-go/internal/store"
)

// DefaultEventRetention is how long the events table is kept before
// the nightly cleanup trims it.
const DefaultEventRetention = 90 * 24 * time.Hour

// Scheduler runs background jobs: publishing scheduled contributions,
// expiring stale tokens, trimming old events, and refreshing the GeoIP
// database.
type Scheduler struct {
	cron           *cron.Cron
	logger         *slog.Logger
	queries        *store.Queries
	contributions  *service.ContributionService
	events         *service.EventService
	geo            *geoip.Resolver
	eventRetention time.Duration
}

// New creates a scheduler. geo may be nil when GeoIP is disabled.
func New(db *sql.DB, logger *slog.Logger, contributions *service.ContributionService, events *service.EventService, geo *geoip.Resolver) *Scheduler {
	return &Scheduler{
		cron:           cron.New(),
		logger:         logger,
		queries:        store.New(db),
		contributions:  contributions,
		events:         events,
		geo:            geo,
		eventRetention: DefaultEventRetention,
	}
}

// Start registers all jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	// Check for contributions due to publish every minute.
	if _, err := s.cron.AddFunc("* * * * *", func() {
		if err := s.publishDueContributions(); err != nil {
			s.logger.Error("failed to publish due contributions", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("registering publish job: %w", err)
	}

	// Expire stale auth tokens hourly.
	if _, err := s.cron.AddFunc("0 * * * *", func() {
		if err := s.deleteExpiredTokens(); err != nil {
			s.logger.Error("failed to delete expired tokens", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("registering token cleanup job: %w", err)
	}

	// Trim the events table nightly.
	if _, err := s.cron.AddFunc("30 3 * * *", func() {
		if err := s.trimOldEvents(); err != nil {
			s.logger.Error("failed to trim old events", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("registering event cleanup job: %w", err)
	}

	// Pick up GeoIP database updates daily.
	if s.geo != nil && s.geo.Enabled() {
		if _, err := s.cron.AddFunc("0 4 * * *", func() {
			if err := s.geo.Reload(); err != nil {
				s.logger.Error("failed to reload GeoIP database", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("registering GeoIP reload job: %w", err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// publishDueContributions publishes contributions whose scheduled time
// has passed and records an event for the audit trail.
func (s *Scheduler) publishDueContributions() error {
	ctx := context.Background()

	published, err := s.contributions.PublishDue(ctx)
	if err != nil {
		return err
	}
	if published == 0 {
		return nil
	}

	s.logger.Info("published scheduled contributions", "count", published)

	if err := s.events.LogContentEvent(ctx, "info",
		fmt.Sprintf("Published %d scheduled contribution(s)", published),
		nil, "", map[string]any{"count": published}); err != nil {
		s.logger.Warn("failed to log scheduled publish event", "error", err)
	}
	return nil
}

func (s *Scheduler) deleteExpiredTokens() error {
	deleted, err := s.queries.DeleteExpiredUserTokens(context.Background())
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("deleted expired tokens", "count", deleted)
	}
	return nil
}

func (s *Scheduler) trimOldEvents() error {
	deleted, err := s.events.DeleteOldEvents(context.Background(), s.eventRetention)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("trimmed old events", "count", deleted)
	}
	return nil
}
