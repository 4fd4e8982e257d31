package records

import (
	"context"
	"sync"
)

// MemoryRepo stores subject records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	recs []SubjectRecord
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Append adds records to the stored sequence.
func (r *MemoryRepo) Append(ctx context.Context, recs []SubjectRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, recs...)
	return nil
}

// Count returns the number of stored records.
func (r *MemoryRepo) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.recs), nil
}

// List returns the stored records in insertion order.
func (r *MemoryRepo) List(ctx context.Context) ([]SubjectRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SubjectRecord, len(r.recs))
	copy(out, r.recs)
	return out, nil
}

// Clear removes all stored records.
func (r *MemoryRepo) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = nil
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
