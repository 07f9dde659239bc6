package store

import "errors"

var (
	// ErrNotFound reports that no record exists under the requested key.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateRecord reports an insert whose id already exists in the
	// target shard. Non-fatal; callers decide whether to ignore or report.
	ErrDuplicateRecord = errors.New("duplicate record")

	// ErrUnavailable wraps infrastructure-level storage failures. The store
	// never retries; retry policy belongs to the caller.
	ErrUnavailable = errors.New("storage unavailable")
)
