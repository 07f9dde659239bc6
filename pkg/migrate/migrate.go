// Package migrate performs upgrade work between schema versions at startup.
package migrate

import (
	"context"
	"fmt"

	"mediadex/pkg/fileid"
	"mediadex/pkg/logger"
	"mediadex/pkg/store"
)

const versionCounter = "schema_version"

// Current is the schema version this build writes. Bump it together with a
// new case in Sync.
const Current = 2

// Sync runs any pending migrations and records the new version. It is
// idempotent and safe to run on every startup.
func Sync(ctx context.Context) error {
	v, err := store.GetCounter(versionCounter)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v >= Current {
		return nil
	}
	logger.Info("migrate_sync_start", "from", v, "to", Current)

	if v < 2 {
		if err := sanitizeStoredNames(ctx); err != nil {
			return err
		}
	}

	if _, err := store.IncrCounter(versionCounter, Current-v); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	logger.Info("migrate_sync_done", "version", Current)
	return nil
}

// sanitizeStoredNames rewrites records ingested before display names were
// normalized, so stored names match what the tokenizer expects.
func sanitizeStoredNames(ctx context.Context) error {
	groups, err := store.SearchFilesGrouped(ctx, nil, store.ShardAll)
	if err != nil {
		return fmt.Errorf("scan records: %w", err)
	}
	rewritten := 0
	for _, g := range groups {
		for _, rec := range g.Records {
			name := fileid.SanitizeName(rec.Name)
			caption := fileid.SanitizeName(rec.Caption)
			if name == rec.Name && caption == rec.Caption {
				continue
			}
			rec.Name = name
			rec.Caption = caption
			if err := store.UpdateFile(rec, g.Shard); err != nil {
				logger.Error("migrate_rewrite_failed", "shard", g.Shard, "id", rec.ID, "error", err)
				return err
			}
			rewritten++
		}
	}
	if rewritten > 0 {
		logger.Info("migrate_names_sanitized", "rewritten", rewritten)
	}
	return nil
}
