package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"mediadex/pkg/logger"
	"mediadex/pkg/models"
)

func entKey(subject string) []byte {
	return []byte("ent:" + subject)
}

// SaveEntitlement writes the full entitlement document for a subject,
// overwriting any previous grant.
func SaveEntitlement(e models.Entitlement) error {
	d, err := handle()
	if err != nil {
		return err
	}
	if e.Subject == "" {
		return fmt.Errorf("save entitlement: empty subject")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entitlement: %w", err)
	}
	if err := d.Set(entKey(e.Subject), data, pebble.Sync); err != nil {
		logger.Error("save_entitlement_failed", "subject", e.Subject, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// GetEntitlement returns the stored entitlement for a subject or
// ErrNotFound.
func GetEntitlement(subject string) (models.Entitlement, error) {
	d, err := handle()
	if err != nil {
		return models.Entitlement{}, err
	}
	v, closer, err := d.Get(entKey(subject))
	if errors.Is(err, pebble.ErrNotFound) {
		return models.Entitlement{}, ErrNotFound
	}
	if err != nil {
		return models.Entitlement{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer closer.Close()
	var e models.Entitlement
	if err := json.Unmarshal(v, &e); err != nil {
		return models.Entitlement{}, fmt.Errorf("corrupt entitlement %s: %w", subject, err)
	}
	return e, nil
}

// ListEntitlements returns every stored entitlement. The expiry sweeper
// filters for active grants itself.
func ListEntitlements() ([]models.Entitlement, error) {
	d, err := handle()
	if err != nil {
		return nil, err
	}
	prefix := []byte("ent:")
	iter, err := d.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: iter: %v", ErrUnavailable, err)
	}
	defer iter.Close()
	var out []models.Entitlement
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var e models.Entitlement
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			logger.Warn("skip_corrupt_entitlement", "key", string(iter.Key()), "error", err)
			continue
		}
		out = append(out, e)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}
