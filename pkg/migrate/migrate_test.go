package migrate

import (
	"context"
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

func TestSyncSanitizesLegacyNames(t *testing.T) {
	openTestStore(t)

	// records written before names were normalized at ingestion
	if err := store.InsertFile(models.FileRecord{ID: "a", Name: "The.Matrix.1999.mkv"}, store.ShardPrimary); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.InsertFile(models.FileRecord{ID: "b", Name: "already clean"}, store.ShardArchive); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	got, _, err := store.GetFileByID("a")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Name != "The Matrix 1999 mkv" {
		t.Fatalf("name = %q", got.Name)
	}
	got, _, err = store.GetFileByID("b")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Name != "already clean" {
		t.Fatalf("clean record rewritten: %q", got.Name)
	}

	v, err := store.GetCounter("schema_version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v != Current {
		t.Fatalf("version = %d, want %d", v, Current)
	}
}

func TestSyncIdempotent(t *testing.T) {
	openTestStore(t)

	if err := Sync(context.Background()); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if err := Sync(context.Background()); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	v, err := store.GetCounter("schema_version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v != Current {
		t.Fatalf("version = %d after resync, want %d", v, Current)
	}
}
