package ingest

import (
	"errors"
	"testing"

	"mediadex/pkg/fileid"
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

func TestIngestSavesSanitized(t *testing.T) {
	openTestStore(t)

	req := Request{
		Ref:     fileid.MediaReference{TypeTag: 5, DCID: 2, MediaID: 42, AccessHash: 7},
		Name:    "The.Matrix.1999@uploader.mkv",
		Size:    700 << 20,
		Caption: "shared_by @someone",
	}
	outcome, err := Ingest(req, store.ShardPrimary)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if outcome != Saved {
		t.Fatalf("outcome = %q, want saved", outcome)
	}

	id, _ := fileid.Encode(req.Ref)
	rec, shard, err := store.GetFileByID(id)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if shard != store.ShardPrimary {
		t.Fatalf("shard = %s", shard)
	}
	if rec.Name != "The Matrix 1999 mkv" {
		t.Fatalf("name not sanitized: %q", rec.Name)
	}
	if rec.Caption != "shared by" {
		t.Fatalf("caption not sanitized: %q", rec.Caption)
	}
	if rec.Size != req.Size {
		t.Fatalf("size = %d", rec.Size)
	}
}

func TestIngestDuplicate(t *testing.T) {
	openTestStore(t)

	req := Request{Ref: fileid.MediaReference{TypeTag: 5, MediaID: 42}, Name: "a"}
	if _, err := Ingest(req, store.ShardCloud); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	outcome, err := Ingest(req, store.ShardCloud)
	if err != nil {
		t.Fatalf("duplicate ingest must not error: %v", err)
	}
	if outcome != Duplicate {
		t.Fatalf("outcome = %q, want duplicate", outcome)
	}
}

func TestIngestInvalidReference(t *testing.T) {
	openTestStore(t)

	_, err := Ingest(Request{Name: "x"}, store.ShardPrimary)
	if !errors.Is(err, fileid.ErrInvalidMediaReference) {
		t.Fatalf("err = %v, want ErrInvalidMediaReference", err)
	}
}
