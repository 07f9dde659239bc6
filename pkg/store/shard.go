package store

import "fmt"

// Shard names one of the three fixed partitions of the file index. A given
// record id lives in at most one shard; cross-shard duplication is prevented
// by move semantics, not by the store.
type Shard string

const (
	ShardPrimary Shard = "primary"
	ShardCloud   Shard = "cloud"
	ShardArchive Shard = "archive"

	// ShardAll is a query-side selector, never a storage location. Queries
	// against it visit the shards in canonical order.
	ShardAll Shard = "all"
)

// Shards lists the real partitions in canonical query order. Primary first
// is intentional: primary is the curated shard and its results lead.
var Shards = [3]Shard{ShardPrimary, ShardCloud, ShardArchive}

// ParseShard validates a shard name from user input. allowAll permits the
// "all" selector for read/delete paths.
func ParseShard(s string, allowAll bool) (Shard, error) {
	switch Shard(s) {
	case ShardPrimary, ShardCloud, ShardArchive:
		return Shard(s), nil
	case ShardAll:
		if allowAll {
			return ShardAll, nil
		}
	case "":
		return ShardPrimary, nil
	}
	return "", fmt.Errorf("unknown shard %q", s)
}

func (s Shard) valid() bool {
	return s == ShardPrimary || s == ShardCloud || s == ShardArchive
}
