package settings

import (
	"testing"

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

func TestGetDefaults(t *testing.T) {
	openTestStore(t)

	s, err := NewService(0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := s.Get("chat1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.SearchEnabled || got.AutoDelete || got.FileSecure {
		t.Fatalf("defaults: %+v", got)
	}
	if got.ChatID != "chat1" {
		t.Fatalf("chat id = %q", got.ChatID)
	}
}

func TestUpdatePersists(t *testing.T) {
	openTestStore(t)

	s, err := NewService(4)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	updated, err := s.Update("chat1", func(cs *models.ChatSettings) {
		cs.AutoDelete = true
		cs.Caption = "via {filename}"
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.AutoDelete || updated.Caption != "via {filename}" {
		t.Fatalf("update result: %+v", updated)
	}

	// a fresh service sees the persisted value, not a stale cache
	s2, err := NewService(4)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := s2.Get("chat1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.AutoDelete || got.Caption != "via {filename}" {
		t.Fatalf("persisted: %+v", got)
	}
}

func TestCacheEviction(t *testing.T) {
	openTestStore(t)

	s, err := NewService(2)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.Update("a", func(cs *models.ChatSettings) { cs.FileSecure = true }); err != nil {
		t.Fatalf("update: %v", err)
	}
	// push "a" out of the LRU
	if _, err := s.Get("b"); err != nil {
		t.Fatalf("get b: %v", err)
	}
	if _, err := s.Get("c"); err != nil {
		t.Fatalf("get c: %v", err)
	}
	// evicted entry reloads from the store with its stored value
	got, err := s.Get("a")
	if err != nil {
		t.Fatalf("get a: %v", err)
	}
	if !got.FileSecure {
		t.Fatalf("reload lost stored value: %+v", got)
	}
}
