package store

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/cockroachdb/pebble"
)

var counterMu sync.Mutex

// Aux counters for the moderation-adjacent bookkeeping the bot layer keeps
// (warn counts, broadcast stats). Stored as decimal strings so they stay
// inspectable with raw key dumps.

func counterKey(name string) []byte {
	return []byte("counter:" + name)
}

// IncrCounter adds delta to a named counter and returns the new value.
// Serialized in-process; the engine is single-process by design.
func IncrCounter(name string, delta int64) (int64, error) {
	counterMu.Lock()
	defer counterMu.Unlock()
	cur, err := GetCounter(name)
	if err != nil {
		return 0, err
	}
	d, err := handle()
	if err != nil {
		return 0, err
	}
	next := cur + delta
	if err := d.Set(counterKey(name), []byte(strconv.FormatInt(next, 10)), pebble.Sync); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return next, nil
}

// GetCounter returns the current value of a named counter. A counter that
// was never incremented reads as zero.
func GetCounter(name string) (int64, error) {
	d, err := handle()
	if err != nil {
		return 0, err
	}
	v, closer, err := d.Get(counterKey(name))
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer closer.Close()
	n, perr := strconv.ParseInt(string(v), 10, 64)
	if perr != nil {
		return 0, fmt.Errorf("corrupt counter %s: %w", name, perr)
	}
	return n, nil
}
