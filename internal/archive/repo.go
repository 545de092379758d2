package archive

import "context"

// Repo persists archived batches and notification events.
type Repo interface {
	// SaveBatch stores b and its rows. When a batch with the same name and
	// digest exists it is returned unchanged with created=false.
	SaveBatch(ctx context.Context, b Batch, rows []StoredRow) (stored Batch, created bool, err error)
	// FindBatch returns the batch archived under name with digest, or ErrNotFound.
	FindBatch(ctx context.Context, name, digest string) (Batch, error)
	GetBatch(ctx context.Context, id string) (Batch, error)
	ListBatches(ctx context.Context, limit, offset int) ([]Batch, error)
	ListRows(ctx context.Context, batchID string) ([]StoredRow, error)
	// RecordEvent stores e once per message id and reports whether it was new.
	RecordEvent(ctx context.Context, e Event) (bool, error)
	ListEvents(ctx context.Context, hitID string) ([]Event, error)
}
