package archive

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores archives in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu      sync.RWMutex
	batches map[string]Batch
	rows    map[string][]StoredRow
	events  map[string]Event
	order   []string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		batches: make(map[string]Batch),
		rows:    make(map[string][]StoredRow),
		events:  make(map[string]Event),
	}
}

// SaveBatch stores b unless an identical batch was archived under the same name.
func (r *MemoryRepo) SaveBatch(ctx context.Context, b Batch, rows []StoredRow) (Batch, bool, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.batches {
		if existing.Name == b.Name && existing.Digest == b.Digest {
			return existing, false, nil
		}
	}
	r.batches[b.ID] = b
	r.rows[b.ID] = append([]StoredRow(nil), rows...)
	return b, true, nil
}

// FindBatch looks a batch up by name and content digest.
func (r *MemoryRepo) FindBatch(ctx context.Context, name, digest string) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.batches {
		if b.Name == name && b.Digest == digest {
			return b, nil
		}
	}
	return Batch{}, ErrNotFound
}

// GetBatch returns a batch by id.
func (r *MemoryRepo) GetBatch(ctx context.Context, id string) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.batches[id]
	if !ok {
		return Batch{}, ErrNotFound
	}
	return b, nil
}

// ListBatches returns batches newest first.
func (r *MemoryRepo) ListBatches(ctx context.Context, limit, offset int) ([]Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	all := make([]Batch, 0, len(r.batches))
	for _, b := range r.batches {
		all = append(all, b)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// ListRows returns the rows of a batch in table order.
func (r *MemoryRepo) ListRows(ctx context.Context, batchID string) ([]StoredRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.batches[batchID]; !ok {
		return nil, ErrNotFound
	}
	return append([]StoredRow(nil), r.rows[batchID]...), nil
}

// RecordEvent stores e once per message id.
func (r *MemoryRepo) RecordEvent(ctx context.Context, e Event) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, seen := r.events[e.MessageID]; seen {
		return false, nil
	}
	r.events[e.MessageID] = e
	r.order = append(r.order, e.MessageID)
	return true, nil
}

// ListEvents returns events for hitID in arrival order.
func (r *MemoryRepo) ListEvents(ctx context.Context, hitID string) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Event
	for _, id := range r.order {
		if e := r.events[id]; e.HITID == hitID {
			out = append(out, e)
		}
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
