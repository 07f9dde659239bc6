// Package entitlement manages time-bounded access grants. Expiry is
// enforced twice: lazily on every IsEntitled check, and by the background
// sweep in internal/expiry, so a grant boundary holds even when the sweep
// has not run yet.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mediadex/pkg/logger"
	"mediadex/pkg/models"
	"mediadex/pkg/store"
)

// Notifier delivers a message to a subscriber. Delivery is best-effort
// everywhere in this package: the entitlement state change is authoritative
// regardless of whether the notification lands.
type Notifier interface {
	Notify(ctx context.Context, subject, message string) error
}

// NopNotifier discards notifications. Used when no bot transport is wired.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string) error { return nil }

// Service owns grant lifecycle operations against the store.
type Service struct {
	notifier Notifier
	now      func() time.Time
}

// NewService returns a Service. A nil notifier disables delivery.
func NewService(n Notifier) *Service {
	if n == nil {
		n = NopNotifier{}
	}
	return &Service{notifier: n, now: time.Now}
}

// SetClock overrides the time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Grant creates or overwrites a subject's entitlement for the given number
// of days. Reminder flags always reset so reminders fire again for the new
// grant.
func (s *Service) Grant(subject string, days int) (models.Entitlement, error) {
	if subject == "" {
		return models.Entitlement{}, fmt.Errorf("grant: empty subject")
	}
	if days <= 0 {
		return models.Entitlement{}, fmt.Errorf("grant: days must be positive, got %d", days)
	}
	exp := s.now().Add(time.Duration(days) * 24 * time.Hour)
	e := models.Entitlement{
		Subject:   subject,
		Active:    true,
		ExpiresAt: &exp,
		PlanLabel: fmt.Sprintf("%d Days", days),
	}
	if err := store.SaveEntitlement(e); err != nil {
		return models.Entitlement{}, err
	}
	logger.Info("entitlement_granted", "subject", subject, "plan", e.PlanLabel, "expires", exp)
	return e, nil
}

// Revoke resets a subject's grant to the inactive state.
func (s *Service) Revoke(subject string) error {
	e, err := store.GetEntitlement(subject)
	if errors.Is(err, store.ErrNotFound) {
		e = models.Entitlement{Subject: subject}
	} else if err != nil {
		return err
	}
	e.Reset()
	if err := store.SaveEntitlement(e); err != nil {
		return err
	}
	logger.Info("entitlement_revoked", "subject", subject)
	return nil
}

// Get returns the stored entitlement, or an inactive zero grant when the
// subject was never granted anything.
func (s *Service) Get(subject string) (models.Entitlement, error) {
	e, err := store.GetEntitlement(subject)
	if errors.Is(err, store.ErrNotFound) {
		return models.Entitlement{Subject: subject}, nil
	}
	return e, err
}

// IsEntitled reports whether the subject currently holds an active grant,
// lapsing it synchronously when it is past due.
func (s *Service) IsEntitled(ctx context.Context, subject string) (bool, error) {
	e, err := store.GetEntitlement(subject)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !e.Active {
		return false, nil
	}
	if e.Expired(s.now()) {
		if err := s.Lapse(ctx, e); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// Lapse clears an expired grant and sends the one expiry notification.
// Notification failures are swallowed; the reset is what matters.
func (s *Service) Lapse(ctx context.Context, e models.Entitlement) error {
	plan := e.PlanLabel
	e.Reset()
	if err := store.SaveEntitlement(e); err != nil {
		return err
	}
	msg := fmt.Sprintf("Your premium %s plan has expired.", plan)
	if nerr := s.notifier.Notify(ctx, e.Subject, msg); nerr != nil {
		logger.Warn("expiry_notify_failed", "subject", e.Subject, "error", nerr)
	}
	logger.Info("entitlement_lapsed", "subject", e.Subject, "plan", plan)
	return nil
}

// Remind sends one reminder tier and marks its idempotence flag.
func (s *Service) Remind(ctx context.Context, e models.Entitlement, horizon string) error {
	switch horizon {
	case "24h":
		e.Reminded24h = true
	case "6h":
		e.Reminded6h = true
	case "1h":
		e.Reminded1h = true
	default:
		return fmt.Errorf("unknown reminder horizon %q", horizon)
	}
	if err := store.SaveEntitlement(e); err != nil {
		return err
	}
	msg := fmt.Sprintf("Your premium %s plan expires in %s.", e.PlanLabel, horizon)
	if nerr := s.notifier.Notify(ctx, e.Subject, msg); nerr != nil {
		logger.Warn("reminder_notify_failed", "subject", e.Subject, "horizon", horizon, "error", nerr)
	}
	logger.Info("entitlement_reminder_sent", "subject", e.Subject, "horizon", horizon)
	return nil
}

// Active returns all grants currently marked active, for the sweep.
func (s *Service) Active() ([]models.Entitlement, error) {
	all, err := store.ListEntitlements()
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, e := range all {
		if e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}
