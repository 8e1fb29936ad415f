package reports

import "context"

// Repo defines persistence operations for status reports.
type Repo interface {
	Save(ctx context.Context, record Record) error
	Get(ctx context.Context, reportID string) (Record, error)
	ListByRun(ctx context.Context, runID string) ([]Record, error)
}
