package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultHousekeepingSchedule runs cleanup hourly.
const DefaultHousekeepingSchedule = "@every 1h"

// HousekeepingService periodically deletes stale refresh tokens, old login
// attempts and old activity log entries.
type HousekeepingService struct {
	Tokens   *RefreshTokens
	Ledger   *Ledger
	Activity *ActivityRecorder
	Clock    Clock
	Logger   *slog.Logger

	// Retention applies to login attempts and activity entries.
	Retention time.Duration
	Schedule  string

	cron *cron.Cron
}

// NewHousekeepingService wires housekeeping to the auth service's stores.
// An empty schedule defaults to hourly; a non-positive retention to 90 days.
func NewHousekeepingService(auth *AuthService, logger *slog.Logger, schedule string, retention time.Duration) *HousekeepingService {
	if schedule == "" {
		schedule = DefaultHousekeepingSchedule
	}
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}

	return &HousekeepingService{
		Tokens:    auth.RefreshTokens,
		Ledger:    auth.Ledger,
		Activity:  &ActivityRecorder{Store: auth.Store, Clock: auth.Clock},
		Clock:     auth.Clock,
		Logger:    logger,
		Retention: retention,
		Schedule:  schedule,
	}
}

// Start runs one cleanup immediately and then on the schedule. It does not
// block. Call Stop to shut the scheduler down.
func (s *HousekeepingService) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.Schedule, func() { s.Cleanup(context.Background()) }); err != nil {
		return err
	}

	go s.Cleanup(context.Background())
	s.cron.Start()

	s.Logger.Info("housekeeping service started", "schedule", s.Schedule, "retention", s.Retention)
	return nil
}

// Stop waits for a running cleanup to finish.
func (s *HousekeepingService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.Logger.Info("housekeeping service stopped")
}

// HousekeepingReport counts what one cleanup deleted.
type HousekeepingReport struct {
	RefreshTokens int64
	LoginAttempts int64
	Activity      int64
	Failures      int
}

// Cleanup performs one pass. Each deletion is independent; a failure in one
// does not stop the others.
func (s *HousekeepingService) Cleanup(ctx context.Context) HousekeepingReport {
	var report HousekeepingReport
	cutoff := s.Clock.Now().Add(-s.Retention)

	n, err := s.Tokens.Sweep(ctx)
	if err != nil {
		s.Logger.Error("failed to delete stale refresh tokens", "error", err)
		report.Failures++
	}
	report.RefreshTokens = n

	n, err = s.Ledger.SweepAttempts(ctx, cutoff)
	if err != nil {
		s.Logger.Error("failed to delete old login attempts", "error", err)
		report.Failures++
	}
	report.LoginAttempts = n

	n, err = s.Activity.Sweep(ctx, cutoff)
	if err != nil {
		s.Logger.Error("failed to delete old activity entries", "error", err)
		report.Failures++
	}
	report.Activity = n

	attrs := []any{
		"refresh_tokens", report.RefreshTokens,
		"login_attempts", report.LoginAttempts,
		"activity", report.Activity,
		"failures", report.Failures,
	}
	if stats, err := s.Tokens.Stats(ctx); err == nil {
		attrs = append(attrs, "active_tokens", stats.Active, "remember_me_tokens", stats.RememberMeActive)
	}
	s.Logger.Info("housekeeping cleanup completed", attrs...)

	return report
}
