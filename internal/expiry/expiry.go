// Package expiry runs the background entitlement sweep: it lapses past-due
// grants and emits tiered reminders as expiry approaches.
package expiry

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"mediadex/pkg/entitlement"
	"mediadex/pkg/logger"
	"mediadex/pkg/models"
	"mediadex/pkg/telemetry"
)

// Reminder horizons in hours with their tolerance windows. The windows are
// wider than the sweep interval so a tier cannot be skipped, and disjoint so
// a tier cannot double-fire.
var horizons = []struct {
	label    string
	min, max float64
}{
	{"24h", 23.5, 24.5},
	{"6h", 5.5, 6.5},
	{"1h", 0.5, 1.5},
}

// Config controls the sweep cadence.
type Config struct {
	// Interval between sweeps when no cron expression is set.
	Interval time.Duration
	// RetryDelay applies after a failed sweep before resuming the normal
	// cadence.
	RetryDelay time.Duration
	// Cron optionally overrides Interval with a cron schedule.
	Cron string
}

const (
	defaultInterval   = 20 * time.Minute
	defaultRetryDelay = time.Minute
)

// Scheduler owns the sweep loop.
type Scheduler struct {
	svc *entitlement.Service
	cfg Config
	now func() time.Time
}

// New validates cfg and returns a Scheduler.
func New(svc *entitlement.Service, cfg Config) (*Scheduler, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.Cron != "" && !gronx.IsValid(cfg.Cron) {
		return nil, fmt.Errorf("invalid expiry cron expression: %s", cfg.Cron)
	}
	return &Scheduler{svc: svc, cfg: cfg, now: time.Now}, nil
}

// SetClock overrides the time source. Intended for tests.
func (s *Scheduler) SetClock(now func() time.Time) { s.now = now }

// Start launches the sweep goroutine and returns its cancel func.
func (s *Scheduler) Start(ctx context.Context) context.CancelFunc {
	ctx2, cancel := context.WithCancel(ctx)
	go s.loop(ctx2)
	logger.Info("expiry_scheduler_started", "interval", s.cfg.Interval, "cron", s.cfg.Cron)
	return cancel
}

func (s *Scheduler) loop(ctx context.Context) {
	for {
		wait := s.cfg.Interval
		if err := s.SweepOnce(ctx); err != nil {
			logger.Error("expiry_sweep_error", "error", err)
			wait = s.cfg.RetryDelay
		} else if s.cfg.Cron != "" {
			next, err := gronx.NextTickAfter(s.cfg.Cron, s.now().UTC(), false)
			if err != nil {
				logger.Error("expiry_nexttick_failed", "cron", s.cfg.Cron, "error", err)
			} else if d := time.Until(next); d > 0 {
				wait = d
			}
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			logger.Info("expiry_scheduler_stopping")
			return
		}
	}
}

// SweepOnce examines every active grant exactly once. A failure handling
// one subscriber never aborts the rest of the sweep; only a failure to list
// the grants is reported as a sweep-level error.
func (s *Scheduler) SweepOnce(ctx context.Context) error {
	grants, err := s.svc.Active()
	if err != nil {
		return fmt.Errorf("list active entitlements: %w", err)
	}
	now := s.now()
	for _, e := range grants {
		s.sweepOne(ctx, e, now)
	}
	telemetry.ExpirySweeps.Inc()
	logger.Debug("expiry_sweep_done", "active", len(grants))
	return nil
}

func (s *Scheduler) sweepOne(ctx context.Context, e models.Entitlement, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("expiry_sweep_panic", "subject", e.Subject, "panic", r)
		}
	}()

	if e.Expired(now) {
		if err := s.svc.Lapse(ctx, e); err != nil {
			logger.Error("expiry_lapse_failed", "subject", e.Subject, "error", err)
			return
		}
		telemetry.Expirations.Inc()
		return
	}

	left := e.HoursLeft(now)
	for _, h := range horizons {
		if left < h.min || left > h.max || e.Reminded(h.label) {
			continue
		}
		if err := s.svc.Remind(ctx, e, h.label); err != nil {
			logger.Error("expiry_remind_failed", "subject", e.Subject, "horizon", h.label, "error", err)
			return
		}
		telemetry.Reminders.WithLabelValues(h.label).Inc()
		return
	}
}
