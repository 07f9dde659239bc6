// Package ingest turns platform media references into stored file records.
package ingest

import (
	"errors"
	"fmt"

	"mediadex/pkg/fileid"
	"mediadex/pkg/logger"
	"mediadex/pkg/models"
	"mediadex/pkg/store"
	"mediadex/pkg/telemetry"
)

// Outcome reports what happened to one submitted reference.
type Outcome string

const (
	Saved     Outcome = "saved"
	Duplicate Outcome = "duplicate"
)

// Request carries one media reference plus its display metadata.
type Request struct {
	Ref     fileid.MediaReference
	Name    string
	Size    int64
	Caption string
}

// Ingest encodes the reference, sanitizes the display fields and inserts
// the record into the given shard. A duplicate id in that shard is a normal
// outcome, not an error; an undecodable reference propagates
// fileid.ErrInvalidMediaReference and stores nothing.
func Ingest(req Request, shard store.Shard) (Outcome, error) {
	id, err := fileid.Encode(req.Ref)
	if err != nil {
		telemetry.IngestsTotal.WithLabelValues("invalid").Inc()
		return "", fmt.Errorf("encode media reference: %w", err)
	}
	rec := models.FileRecord{
		ID:      id,
		Name:    fileid.SanitizeName(req.Name),
		Size:    req.Size,
		Caption: fileid.SanitizeName(req.Caption),
	}
	if err := store.InsertFile(rec, shard); err != nil {
		if errors.Is(err, store.ErrDuplicateRecord) {
			telemetry.IngestsTotal.WithLabelValues(string(Duplicate)).Inc()
			return Duplicate, nil
		}
		return "", err
	}
	telemetry.IngestsTotal.WithLabelValues(string(Saved)).Inc()
	logger.Debug("file_ingested", "id", id, "shard", shard, "name", rec.Name)
	return Saved, nil
}
