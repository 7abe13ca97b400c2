package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("run not found")

type Repository interface {
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id uuid.UUID) (Run, error)
	// ListRuns returns runs newest first, without their symbols and charts.
	ListRuns(ctx context.Context, limit, offset int) ([]Run, error)
}

const defaultPageSize = 100

// page normalizes ListRuns paging: a non-positive limit means the default
// page size and a negative offset starts at the first run.
func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
