package reports

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores reports in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu    sync.RWMutex
	byID  map[string]Record
	byRun map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:  make(map[string]Record),
		byRun: make(map[string][]string),
	}
}

// Save stores or replaces the record.
func (r *MemoryRepo) Save(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := record.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[record.ReportID]; !exists {
		r.byRun[record.RunID] = append(r.byRun[record.RunID], record.ReportID)
	}
	r.byID[record.ReportID] = record
	return nil
}

// Get returns a record by report ID.
func (r *MemoryRepo) Get(ctx context.Context, reportID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.byID[reportID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return record, nil
}

// ListByRun returns the records of a run, oldest first.
func (r *MemoryRepo) ListByRun(ctx context.Context, runID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	ids := r.byRun[runID]
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
