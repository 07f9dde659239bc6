package monitor

import (
	"testing"
	"time"

	"mediadex/pkg/models"
	"mediadex/pkg/store"
)

func openTestStore(t *testing.T) {
	t.Helper()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
}

func TestDisabledWhenNoWatermark(t *testing.T) {
	openTestStore(t)

	m := New(Config{})
	m.poll()
	if m.Degraded() {
		t.Fatalf("monitor without watermark must never degrade")
	}
}

func TestDegradeAndRecover(t *testing.T) {
	openTestStore(t)
	if err := store.InsertFile(models.FileRecord{ID: "a", Name: "x"}, store.ShardPrimary); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// any nonempty store exceeds a 1-byte watermark
	m := New(Config{DiskHighBytes: 1, DiskLowBytes: 1, RecoveryWindow: time.Millisecond})
	m.poll()
	if !m.Degraded() {
		t.Fatalf("store above watermark should degrade")
	}

	// raise the watermarks so usage sits below the recovery point
	m.cfg.DiskHighBytes = 1 << 40
	m.cfg.DiskLowBytes = 1 << 40
	m.lastHigh = time.Now().Add(-time.Second)
	m.poll()
	if m.Degraded() {
		t.Fatalf("store below recovery point should recover")
	}
}

func TestNewDefaultsLowWatermark(t *testing.T) {
	m := New(Config{DiskHighBytes: 1000})
	if m.cfg.DiskLowBytes != 750 {
		t.Fatalf("default low watermark = %d, want 750", m.cfg.DiskLowBytes)
	}
	if m.cfg.PollInterval != DefaultConfig().PollInterval {
		t.Fatalf("poll interval default not applied")
	}
}
