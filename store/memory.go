package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]Run
}

// NewMemoryRepository keeps runs for the life of the process.
func NewMemoryRepository() Repository {
	return &memoryRepository{runs: make(map[uuid.UUID]Run)}
}

func (r *memoryRepository) SaveRun(ctx context.Context, run Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
	return nil
}

func (r *memoryRepository) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return Run{}, ErrNotFound
	}
	return run, nil
}

func (r *memoryRepository) ListRuns(ctx context.Context, limit, offset int) ([]Run, error) {
	limit, offset = page(limit, offset)
	r.mu.RLock()
	out := make([]Run, 0, len(r.runs))
	for _, run := range r.runs {
		run.Symbols, run.Charts = nil, nil
		out = append(out, run)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if offset >= len(out) {
		return []Run{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
