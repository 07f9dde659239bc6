package models

import "time"

// Entitlement is a subscriber's time-bounded access grant. A grant is never
// deleted, only reset to the inactive zero state when it lapses.
type Entitlement struct {
	Subject   string     `json:"subject"`
	Active    bool       `json:"premium"`
	ExpiresAt *time.Time `json:"expire,omitempty"`
	PlanLabel string     `json:"plan,omitempty"`

	// One-shot reminder flags for the current grant. Granting anew resets
	// all three so reminders fire again for the new grant.
	Reminded24h bool `json:"reminded_24h,omitempty"`
	Reminded6h  bool `json:"reminded_6h,omitempty"`
	Reminded1h  bool `json:"reminded_1h,omitempty"`
}

// Expired reports whether the grant is active but past its expiry time.
func (e Entitlement) Expired(now time.Time) bool {
	return e.Active && e.ExpiresAt != nil && e.ExpiresAt.Before(now)
}

// HoursLeft returns the hours remaining until expiry, negative when past
// due. Returns 0 when no expiry is set.
func (e Entitlement) HoursLeft(now time.Time) float64 {
	if e.ExpiresAt == nil {
		return 0
	}
	return e.ExpiresAt.Sub(now).Hours()
}

// Reminded reports whether the reminder for the given horizon ("24h",
// "6h", "1h") already fired for the current grant.
func (e Entitlement) Reminded(horizon string) bool {
	switch horizon {
	case "24h":
		return e.Reminded24h
	case "6h":
		return e.Reminded6h
	case "1h":
		return e.Reminded1h
	}
	return false
}

// Reset clears the grant back to the inactive state, including reminder
// flags. The subject is retained.
func (e *Entitlement) Reset() {
	e.Active = false
	e.ExpiresAt = nil
	e.PlanLabel = ""
	e.Reminded24h = false
	e.Reminded6h = false
	e.Reminded1h = false
}
