package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mediadex/pkg/models"
)

func openTestStore(t *testing.T) {
	t.Helper()
	require.NoError(t, Open(t.TempDir()))
	t.Cleanup(func() { require.NoError(t, Close()) })
}

// matcherFunc adapts a plain func to the Matcher interface for tests.
type matcherFunc func(rec models.FileRecord, includeCaption bool) bool

func (f matcherFunc) MatchRecord(rec models.FileRecord, includeCaption bool) bool {
	return f(rec, includeCaption)
}

func nameContains(sub string) Matcher {
	return matcherFunc(func(rec models.FileRecord, _ bool) bool {
		return rec.Name == sub
	})
}

func TestInsertAndLookup(t *testing.T) {
	openTestStore(t)

	rec := models.FileRecord{ID: "abc", Name: "The Matrix 1999", Size: 700 << 20}
	require.NoError(t, InsertFile(rec, ShardPrimary))

	got, shard, err := GetFileByID("abc")
	require.NoError(t, err)
	require.Equal(t, ShardPrimary, shard)
	require.Equal(t, rec, got)

	_, _, err = GetFileByID("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestInsertDuplicate(t *testing.T) {
	openTestStore(t)

	rec := models.FileRecord{ID: "dup", Name: "A"}
	require.NoError(t, InsertFile(rec, ShardPrimary))

	err := InsertFile(rec, ShardPrimary)
	require.ErrorIs(t, err, ErrDuplicateRecord)

	// same id in a different shard is a distinct record, not a duplicate
	require.NoError(t, InsertFile(rec, ShardCloud))
}

func TestGetFileByIDProbeOrder(t *testing.T) {
	openTestStore(t)

	rec := models.FileRecord{ID: "x", Name: "cloud copy"}
	require.NoError(t, InsertFile(rec, ShardArchive))
	require.NoError(t, InsertFile(models.FileRecord{ID: "x", Name: "primary copy"}, ShardPrimary))

	got, shard, err := GetFileByID("x")
	require.NoError(t, err)
	require.Equal(t, ShardPrimary, shard)
	require.Equal(t, "primary copy", got.Name)
}

func TestSearchFilesGroupedOrder(t *testing.T) {
	openTestStore(t)

	require.NoError(t, InsertFile(models.FileRecord{ID: "a", Name: "hit"}, ShardArchive))
	require.NoError(t, InsertFile(models.FileRecord{ID: "b", Name: "hit"}, ShardPrimary))
	require.NoError(t, InsertFile(models.FileRecord{ID: "c", Name: "hit"}, ShardCloud))
	require.NoError(t, InsertFile(models.FileRecord{ID: "d", Name: "miss"}, ShardPrimary))

	groups, err := SearchFilesGrouped(context.Background(), nameContains("hit"), ShardAll)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	require.Equal(t, ShardPrimary, groups[0].Shard)
	require.Equal(t, ShardCloud, groups[1].Shard)
	require.Equal(t, ShardArchive, groups[2].Shard)
	require.Len(t, groups[0].Records, 1)
	require.Len(t, groups[1].Records, 1)
	require.Len(t, groups[2].Records, 1)

	flat, err := SearchFiles(context.Background(), nameContains("hit"), ShardAll)
	require.NoError(t, err)
	require.Len(t, flat, 3)
	require.Equal(t, "b", flat[0].ID)
}

func TestSearchSingleShard(t *testing.T) {
	openTestStore(t)

	require.NoError(t, InsertFile(models.FileRecord{ID: "a", Name: "hit"}, ShardPrimary))
	require.NoError(t, InsertFile(models.FileRecord{ID: "b", Name: "hit"}, ShardCloud))

	groups, err := SearchFilesGrouped(context.Background(), nameContains("hit"), ShardCloud)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, ShardCloud, groups[0].Shard)
	require.Len(t, groups[0].Records, 1)
}

func TestSearchCanceledContext(t *testing.T) {
	openTestStore(t)

	for i := 0; i < 2048; i++ {
		rec := models.FileRecord{ID: fmt.Sprintf("id%04d", i), Name: "x"}
		require.NoError(t, InsertFile(rec, ShardPrimary))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := SearchFiles(ctx, nil, ShardPrimary)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDeleteMatching(t *testing.T) {
	openTestStore(t)

	require.NoError(t, InsertFile(models.FileRecord{ID: "a", Name: "old"}, ShardPrimary))
	require.NoError(t, InsertFile(models.FileRecord{ID: "b", Name: "old"}, ShardCloud))
	require.NoError(t, InsertFile(models.FileRecord{ID: "c", Name: "keep"}, ShardPrimary))

	perShard, total, err := DeleteMatching(context.Background(), nameContains("old"), ShardAll)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, 1, perShard[ShardPrimary])
	require.Equal(t, 1, perShard[ShardCloud])

	_, _, err = GetFileByID("a")
	require.ErrorIs(t, err, ErrNotFound)
	_, _, err = GetFileByID("c")
	require.NoError(t, err)
}

func TestMoveMatching(t *testing.T) {
	openTestStore(t)

	require.NoError(t, InsertFile(models.FileRecord{ID: "a", Name: "mv"}, ShardPrimary))
	require.NoError(t, InsertFile(models.FileRecord{ID: "b", Name: "mv"}, ShardPrimary))
	// destination already holds one of the ids
	require.NoError(t, InsertFile(models.FileRecord{ID: "b", Name: "mv"}, ShardArchive))

	moved, err := MoveMatching(context.Background(), nameContains("mv"), ShardPrimary, ShardArchive)
	require.NoError(t, err)
	require.Equal(t, 2, moved)

	_, shard, err := GetFileByID("a")
	require.NoError(t, err)
	require.Equal(t, ShardArchive, shard)

	counts, total, err := CountAll()
	require.NoError(t, err)
	require.Equal(t, 0, counts[ShardPrimary])
	require.Equal(t, 2, counts[ShardArchive])
	require.Equal(t, 2, total)
}

func TestUpdateFile(t *testing.T) {
	openTestStore(t)

	require.NoError(t, InsertFile(models.FileRecord{ID: "u", Name: "before"}, ShardPrimary))
	require.NoError(t, UpdateFile(models.FileRecord{ID: "u", Name: "after"}, ShardPrimary))

	got, _, err := GetFileByID("u")
	require.NoError(t, err)
	require.Equal(t, "after", got.Name)
}

func TestParseShard(t *testing.T) {
	cases := []struct {
		in       string
		allowAll bool
		want     Shard
		ok       bool
	}{
		{"", false, ShardPrimary, true},
		{"primary", false, ShardPrimary, true},
		{"cloud", false, ShardCloud, true},
		{"archive", false, ShardArchive, true},
		{"all", true, ShardAll, true},
		{"all", false, "", false},
		{"bogus", true, "", false},
	}
	for _, c := range cases {
		got, err := ParseShard(c.in, c.allowAll)
		if c.ok {
			require.NoError(t, err, "ParseShard(%q, %v)", c.in, c.allowAll)
			require.Equal(t, c.want, got)
		} else {
			require.Error(t, err, "ParseShard(%q, %v)", c.in, c.allowAll)
		}
	}
}

func TestStoreClosed(t *testing.T) {
	err := InsertFile(models.FileRecord{ID: "z", Name: "n"}, ShardPrimary)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("insert on closed store err = %v, want ErrUnavailable", err)
	}
}

func TestEntitlementsRoundTrip(t *testing.T) {
	openTestStore(t)

	exp := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	e := models.Entitlement{Subject: "u1", Active: true, ExpiresAt: &exp, PlanLabel: "30 Days"}
	require.NoError(t, SaveEntitlement(e))

	got, err := GetEntitlement("u1")
	require.NoError(t, err)
	require.Equal(t, e.Subject, got.Subject)
	require.True(t, got.Active)
	require.True(t, exp.Equal(*got.ExpiresAt))

	_, err = GetEntitlement("nobody")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, SaveEntitlement(models.Entitlement{Subject: "u2"}))
	all, err := ListEntitlements()
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestChatSettingsRoundTrip(t *testing.T) {
	openTestStore(t)

	_, err := GetChatSettings("c1")
	require.ErrorIs(t, err, ErrNotFound)

	s := models.DefaultChatSettings("c1")
	s.AutoDelete = true
	require.NoError(t, SaveChatSettings(s))

	got, err := GetChatSettings("c1")
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestCounters(t *testing.T) {
	openTestStore(t)

	n, err := GetCounter("hits")
	require.NoError(t, err)
	require.Equal(t, int64(0), n)

	n, err = IncrCounter("hits", 3)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	n, err = IncrCounter("hits", -1)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	n, err = GetCounter("hits")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestDiskUsage(t *testing.T) {
	openTestStore(t)
	require.NoError(t, InsertFile(models.FileRecord{ID: "a", Name: "x"}, ShardPrimary))
	require.NotZero(t, DiskUsage())
}
