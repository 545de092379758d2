package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"mturk-tools/internal/results"
	"mturk-tools/internal/shared/metrics"
	"mturk-tools/internal/shared/storage/object"
	"mturk-tools/internal/shared/telemetry"
)

// Service archives flattened batches. Store is optional; without it only
// the database copy is kept.
type Service struct {
	Repo  Repo
	Store object.Store
	Now   func() time.Time
}

// Archive uploads the serialized table and records the batch and its rows.
// fileName names the artifact within the batch directory. A table already
// archived under name is returned with created=false and is not uploaded again.
func (s *Service) Archive(ctx context.Context, name, fileName string, sandbox bool, b results.Batch, table []byte) (Batch, bool, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	record := NewBatch(name, sandbox, b, table, now())

	existing, err := s.Repo.FindBatch(ctx, record.Name, record.Digest)
	switch {
	case err == nil:
		telemetry.Info("archive.batch.exists", map[string]any{
			"batch_id": existing.ID,
			"name":     existing.Name,
		})
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return Batch{}, false, fmt.Errorf("find batch: %w", err)
	}

	if s.Store != nil {
		key, err := object.ArtifactKey(name, fileName, record.CreatedAt)
		if err != nil {
			return Batch{}, false, err
		}
		if _, err := s.Store.Put(ctx, key, object.ContentType(fileName), bytes.NewReader(table)); err != nil {
			return Batch{}, false, fmt.Errorf("upload results: %w", err)
		}
		record.ArtifactKey = key
	}

	stored, created, err := s.Repo.SaveBatch(ctx, record, StoredRows(b.Rows))
	if err != nil {
		return Batch{}, false, fmt.Errorf("save batch: %w", err)
	}
	if created {
		metrics.ObserveBatchArchived(stored.RowCount, stored.SkippedCount)
	}
	telemetry.Info("archive.batch.saved", map[string]any{
		"batch_id": stored.ID,
		"name":     stored.Name,
		"rows":     stored.RowCount,
		"created":  created,
	})
	return stored, created, nil
}
