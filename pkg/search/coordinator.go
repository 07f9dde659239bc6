// Package search orchestrates a paginated search: compile the query, scan
// the selected shard(s), slice a page, and park the session so stateless
// navigation callbacks can continue where they left off.
package search

import (
	"context"
	"errors"

	"mediadex/pkg/logger"
	"mediadex/pkg/models"
	"mediadex/pkg/query"
	"mediadex/pkg/session"
	"mediadex/pkg/store"
)

// ErrSessionExpired reports a navigation call against a session the cache
// no longer holds. Recoverable: the user searches again.
var ErrSessionExpired = errors.New("search session expired")

// DefaultPageSize is the number of results per page when unconfigured.
const DefaultPageSize = 10

// Result is one materialized page plus the numbers the UI layer renders.
type Result struct {
	Records []models.FileRecord
	// NextOffset is the offset of the following page, or -1 when this page
	// is the last one.
	NextOffset int
	Total      int
	// EffectiveShard is the shard the page's first record lives in. For a
	// single-shard query it is simply that shard.
	EffectiveShard store.Shard
	Page           int
	TotalPages     int
}

// Coordinator drives searches against the store and owns the session cache.
type Coordinator struct {
	cache    *session.Cache
	pageSize int
}

// New returns a coordinator with the given session cache and page size
// (DefaultPageSize when non-positive).
func New(cache *session.Cache, pageSize int) *Coordinator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Coordinator{cache: cache, pageSize: pageSize}
}

// PageSize reports the configured page size.
func (c *Coordinator) PageSize() int { return c.pageSize }

// SessionKey derives the stable session id for a request. Deterministic so
// concurrent callbacks for the same triggering message land on the same
// session.
func SessionKey(chatID, messageID string) string {
	return chatID + "-" + messageID
}

// Start runs a fresh search at offset 0 and records the session.
func (c *Coordinator) Start(ctx context.Context, key, rawQuery string, sel store.Shard) (Result, error) {
	res, err := c.run(ctx, rawQuery, sel, 0)
	if err != nil {
		return Result{}, err
	}
	c.cache.Put(key, session.Session{Query: rawQuery, LastPage: res.Records})
	logger.Debug("search_started", "key", key, "query", rawQuery, "shard", sel, "total", res.Total)
	return res, nil
}

// NextPage re-runs the session's stored query at the given offset. The page
// is recomputed from live data, so a write between two calls can shift
// offsets; that approximation is accepted, not a correctness guarantee.
func (c *Coordinator) NextPage(ctx context.Context, key string, offset int, sel store.Shard) (Result, error) {
	sess, ok := c.cache.Get(key)
	if !ok {
		return Result{}, ErrSessionExpired
	}
	if offset < 0 {
		offset = 0
	}
	res, err := c.run(ctx, sess.Query, sel, offset)
	if err != nil {
		return Result{}, err
	}
	c.cache.Put(key, session.Session{Query: sess.Query, LastPage: res.Records})
	return res, nil
}

// SwitchShard re-runs the session's stored query against another shard
// selector, from offset 0.
func (c *Coordinator) SwitchShard(ctx context.Context, key string, sel store.Shard) (Result, error) {
	sess, ok := c.cache.Get(key)
	if !ok {
		return Result{}, ErrSessionExpired
	}
	res, err := c.run(ctx, sess.Query, sel, 0)
	if err != nil {
		return Result{}, err
	}
	c.cache.Put(key, session.Session{Query: sess.Query, LastPage: res.Records})
	logger.Debug("search_shard_switched", "key", key, "shard", sel, "total", res.Total)
	return res, nil
}

// LastPage returns the session's most recent page without querying.
func (c *Coordinator) LastPage(key string) ([]models.FileRecord, error) {
	sess, ok := c.cache.Get(key)
	if !ok {
		return nil, ErrSessionExpired
	}
	return sess.LastPage, nil
}

func (c *Coordinator) run(ctx context.Context, rawQuery string, sel store.Shard, offset int) (Result, error) {
	pred := query.Compile(rawQuery)
	groups, err := store.SearchFilesGrouped(ctx, pred, sel)
	if err != nil {
		return Result{}, err
	}

	total := 0
	for _, g := range groups {
		total += len(g.Records)
	}

	start := offset
	if start > total {
		start = total
	}
	end := start + c.pageSize
	if end > total {
		end = total
	}

	records := make([]models.FileRecord, 0, end-start)
	effective := sel
	if sel == store.ShardAll {
		effective = store.ShardPrimary
	}
	pos := 0
	for _, g := range groups {
		for _, rec := range g.Records {
			if pos >= end {
				break
			}
			if pos >= start {
				if len(records) == 0 {
					effective = g.Shard
				}
				records = append(records, rec)
			}
			pos++
		}
	}

	next := -1
	if end < total {
		next = end
	}
	totalPages := (total + c.pageSize - 1) / c.pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	return Result{
		Records:        records,
		NextOffset:     next,
		Total:          total,
		EffectiveShard: effective,
		Page:           offset/c.pageSize + 1,
		TotalPages:     totalPages,
	}, nil
}
