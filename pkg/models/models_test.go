package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFileRecordJSONFields(t *testing.T) {
	rec := FileRecord{ID: "abc", Name: "x", Size: 9}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// wire names are fixed; stored records depend on them
	for _, k := range []string{"_id", "file_name", "file_size"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("missing field %q in %s", k, b)
		}
	}
}

func TestHumanSize(t *testing.T) {
	if got := (FileRecord{Size: -1}).HumanSize(); got != "0 B" {
		t.Fatalf("negative size = %q", got)
	}
	if got := (FileRecord{Size: 0}).HumanSize(); got == "" {
		t.Fatalf("zero size rendered empty")
	}
}

func TestEntitlementExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	if (Entitlement{}).Expired(now) {
		t.Fatalf("zero grant cannot be expired")
	}
	if (Entitlement{Active: true}).Expired(now) {
		t.Fatalf("grant without expiry cannot be expired")
	}
	if !(Entitlement{Active: true, ExpiresAt: &past}).Expired(now) {
		t.Fatalf("past-due active grant must be expired")
	}
	if (Entitlement{Active: false, ExpiresAt: &past}).Expired(now) {
		t.Fatalf("inactive grant is never expired")
	}
	if (Entitlement{Active: true, ExpiresAt: &future}).Expired(now) {
		t.Fatalf("future grant must not be expired")
	}
}

func TestEntitlementReset(t *testing.T) {
	exp := time.Now()
	e := Entitlement{
		Subject: "u", Active: true, ExpiresAt: &exp, PlanLabel: "30 Days",
		Reminded24h: true, Reminded6h: true, Reminded1h: true,
	}
	e.Reset()
	if e.Subject != "u" {
		t.Fatalf("reset must keep the subject")
	}
	if e.Active || e.ExpiresAt != nil || e.PlanLabel != "" || e.Reminded24h || e.Reminded6h || e.Reminded1h {
		t.Fatalf("reset incomplete: %+v", e)
	}
}

func TestHoursLeft(t *testing.T) {
	now := time.Now()
	exp := now.Add(90 * time.Minute)
	e := Entitlement{ExpiresAt: &exp}
	if got := e.HoursLeft(now); got < 1.49 || got > 1.51 {
		t.Fatalf("hours left = %f", got)
	}
	if got := (Entitlement{}).HoursLeft(now); got != 0 {
		t.Fatalf("no expiry hours left = %f", got)
	}
}
