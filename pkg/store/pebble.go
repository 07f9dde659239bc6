package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"golang.org/x/sync/errgroup"

	"mediadex/pkg/logger"
	"mediadex/pkg/models"
)

var (
	db            *pebble.DB
	dbPath        string
	captionSearch bool
	mu            sync.RWMutex
)

// Matcher decides whether a file record satisfies a compiled query. The
// includeCaption flag mirrors the store's caption-indexing toggle.
type Matcher interface {
	MatchRecord(rec models.FileRecord, includeCaption bool) bool
}

// Open opens (or creates) the Pebble database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	mu.Lock()
	defer mu.Unlock()
	logger.Info("opening_pebble_db", "path", path)
	d, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return fmt.Errorf("%w: open %s: %v", ErrUnavailable, path, err)
	}
	db = d
	dbPath = path
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	mu.RLock()
	defer mu.RUnlock()
	return db != nil
}

// SetCaptionSearch toggles whether captions participate in search matching.
func SetCaptionSearch(enabled bool) {
	mu.Lock()
	captionSearch = enabled
	mu.Unlock()
}

// CaptionSearch reports the caption-indexing toggle.
func CaptionSearch() bool {
	mu.RLock()
	defer mu.RUnlock()
	return captionSearch
}

func handle() (*pebble.DB, error) {
	mu.RLock()
	defer mu.RUnlock()
	if db == nil {
		return nil, fmt.Errorf("%w: pebble not opened; call store.Open first", ErrUnavailable)
	}
	return db, nil
}

func fileKey(shard Shard, id string) []byte {
	return []byte("file:" + string(shard) + ":" + id)
}

func filePrefix(shard Shard) []byte {
	return []byte("file:" + string(shard) + ":")
}

// InsertFile stores a record in the given shard, failing with
// ErrDuplicateRecord when the id already exists there. Records are immutable
// once stored.
func InsertFile(rec models.FileRecord, shard Shard) error {
	if !shard.valid() {
		return fmt.Errorf("insert: invalid shard %q", shard)
	}
	d, err := handle()
	if err != nil {
		return err
	}
	key := fileKey(shard, rec.ID)
	if _, closer, err := d.Get(key); err == nil {
		closer.Close()
		return fmt.Errorf("%w: %s in %s", ErrDuplicateRecord, rec.ID, shard)
	} else if !errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("%w: probe %s: %v", ErrUnavailable, rec.ID, err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := d.Set(key, data, pebble.Sync); err != nil {
		logger.Error("insert_file_failed", "shard", shard, "id", rec.ID, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	logger.Debug("file_inserted", "shard", shard, "id", rec.ID, "name", rec.Name)
	return nil
}

// UpdateFile overwrites a record in place. Unlike InsertFile it does not
// probe for an existing key; migrations use it to rewrite records.
func UpdateFile(rec models.FileRecord, shard Shard) error {
	if !shard.valid() {
		return fmt.Errorf("update: invalid shard %q", shard)
	}
	d, err := handle()
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := d.Set(fileKey(shard, rec.ID), data, pebble.Sync); err != nil {
		logger.Error("update_file_failed", "shard", shard, "id", rec.ID, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// scanShard walks one shard and appends every record accepted by m. A nil
// matcher accepts everything.
func scanShard(ctx context.Context, d *pebble.DB, shard Shard, m Matcher, withCaption bool) ([]models.FileRecord, error) {
	prefix := filePrefix(shard)
	iter, err := d.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: iter: %v", ErrUnavailable, err)
	}
	defer iter.Close()

	var out []models.FileRecord
	n := 0
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		if n++; n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		var rec models.FileRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			logger.Warn("skip_corrupt_record", "shard", shard, "key", string(iter.Key()), "error", err)
			continue
		}
		if m == nil || m.MatchRecord(rec, withCaption) {
			out = append(out, rec)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}

// ShardSlice pairs one shard with its matching records, in scan order.
type ShardSlice struct {
	Shard   Shard
	Records []models.FileRecord
}

// SearchFilesGrouped returns matching records grouped per shard. For
// ShardAll the shards are scanned concurrently but the returned slices are
// always ordered primary, cloud, archive.
func SearchFilesGrouped(ctx context.Context, m Matcher, sel Shard) ([]ShardSlice, error) {
	d, err := handle()
	if err != nil {
		return nil, err
	}
	withCaption := CaptionSearch()
	if sel != ShardAll {
		if !sel.valid() {
			return nil, fmt.Errorf("search: invalid shard %q", sel)
		}
		recs, err := scanShard(ctx, d, sel, m, withCaption)
		if err != nil {
			return nil, err
		}
		return []ShardSlice{{Shard: sel, Records: recs}}, nil
	}

	out := make([]ShardSlice, len(Shards))
	g, gctx := errgroup.WithContext(ctx)
	for i, shard := range Shards {
		i, shard := i, shard
		g.Go(func() error {
			recs, err := scanShard(gctx, d, shard, m, withCaption)
			if err != nil {
				return err
			}
			out[i] = ShardSlice{Shard: shard, Records: recs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchFiles returns all records in the selected shard(s) accepted by m,
// concatenated in canonical shard order.
func SearchFiles(ctx context.Context, m Matcher, sel Shard) ([]models.FileRecord, error) {
	groups, err := SearchFilesGrouped(ctx, m, sel)
	if err != nil {
		return nil, err
	}
	var out []models.FileRecord
	for _, g := range groups {
		out = append(out, g.Records...)
	}
	return out, nil
}

// DeleteMatching removes every record accepted by m from the selected
// shard(s) and returns removed counts per shard plus the total.
func DeleteMatching(ctx context.Context, m Matcher, sel Shard) (map[Shard]int, int, error) {
	d, err := handle()
	if err != nil {
		return nil, 0, err
	}
	shards := Shards[:]
	if sel != ShardAll {
		if !sel.valid() {
			return nil, 0, fmt.Errorf("delete: invalid shard %q", sel)
		}
		shards = []Shard{sel}
	}
	counts := make(map[Shard]int, len(shards))
	total := 0
	for _, shard := range shards {
		recs, err := scanShard(ctx, d, shard, m, CaptionSearch())
		if err != nil {
			return counts, total, err
		}
		for _, rec := range recs {
			if err := d.Delete(fileKey(shard, rec.ID), pebble.Sync); err != nil {
				return counts, total, fmt.Errorf("%w: delete %s: %v", ErrUnavailable, rec.ID, err)
			}
			counts[shard]++
			total++
		}
	}
	logger.Info("files_deleted", "selector", sel, "count", total)
	return counts, total, nil
}

// MoveMatching relocates every record accepted by m from one shard to
// another: insert into the destination, then remove from the source. A
// duplicate at the destination counts as already moved, so re-running a
// partially completed move converges instead of erroring.
func MoveMatching(ctx context.Context, m Matcher, from, to Shard) (int, error) {
	if !from.valid() || !to.valid() {
		return 0, fmt.Errorf("move: invalid shard pair %q -> %q", from, to)
	}
	if from == to {
		return 0, fmt.Errorf("move: source and destination are both %q", from)
	}
	d, err := handle()
	if err != nil {
		return 0, err
	}
	recs, err := scanShard(ctx, d, from, m, CaptionSearch())
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, rec := range recs {
		if err := InsertFile(rec, to); err != nil && !errors.Is(err, ErrDuplicateRecord) {
			return moved, err
		}
		if err := d.Delete(fileKey(from, rec.ID), pebble.Sync); err != nil {
			return moved, fmt.Errorf("%w: delete %s: %v", ErrUnavailable, rec.ID, err)
		}
		moved++
	}
	logger.Info("files_moved", "from", from, "to", to, "count", moved)
	return moved, nil
}

// GetFileByID probes the shards in canonical order and returns the first
// hit along with the shard holding it.
func GetFileByID(id string) (models.FileRecord, Shard, error) {
	d, err := handle()
	if err != nil {
		return models.FileRecord{}, "", err
	}
	for _, shard := range Shards {
		v, closer, err := d.Get(fileKey(shard, id))
		if errors.Is(err, pebble.ErrNotFound) {
			continue
		}
		if err != nil {
			return models.FileRecord{}, "", fmt.Errorf("%w: get %s: %v", ErrUnavailable, id, err)
		}
		var rec models.FileRecord
		uerr := json.Unmarshal(v, &rec)
		closer.Close()
		if uerr != nil {
			return models.FileRecord{}, "", fmt.Errorf("corrupt record %s: %w", id, uerr)
		}
		return rec, shard, nil
	}
	return models.FileRecord{}, "", ErrNotFound
}

// CountAll returns per-shard record counts and the total.
func CountAll() (map[Shard]int, int, error) {
	d, err := handle()
	if err != nil {
		return nil, 0, err
	}
	counts := make(map[Shard]int, len(Shards))
	total := 0
	for _, shard := range Shards {
		prefix := filePrefix(shard)
		iter, err := d.NewIter(&pebble.IterOptions{})
		if err != nil {
			return nil, 0, fmt.Errorf("%w: iter: %v", ErrUnavailable, err)
		}
		n := 0
		for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
			if !bytes.HasPrefix(iter.Key(), prefix) {
				break
			}
			n++
		}
		err = iter.Error()
		iter.Close()
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		counts[shard] = n
		total += n
	}
	return counts, total, nil
}
