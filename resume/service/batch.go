package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"resume-formatter/internal/shared/telemetry"
	"resume-formatter/resume/model"
	"resume-formatter/resume/render"
)

// DefaultConcurrency bounds RunBatch when BatchOptions leaves it unset.
const DefaultConcurrency = 4

// BatchOptions tunes RunBatch.
type BatchOptions struct {
	Concurrency int
	// RunID groups the reports; empty generates one.
	RunID string
}

// BatchResult holds one Result per input, in input order.
type BatchResult struct {
	RunID   string
	Results []Result
}

// Reports returns the status report of every file.
func (b BatchResult) Reports() []model.StatusReport {
	out := make([]model.StatusReport, 0, len(b.Results))
	for _, res := range b.Results {
		out = append(out, res.Report)
	}
	return out
}

// Succeeded counts the files that produced output.
func (b BatchResult) Succeeded() int {
	n := 0
	for _, res := range b.Results {
		if res.Report.Success {
			n++
		}
	}
	return n
}

// RunBatch formats every input against templateData. Each file gets its own
// copy of the template; a failing file never stops the others. Only an
// unreadable template fails the whole batch. Files not yet started when ctx
// is cancelled are reported as failed.
func (p *Pipeline) RunBatch(ctx context.Context, templateData []byte, inputs []Input, opts BatchOptions) (BatchResult, error) {
	template, err := render.LoadDocument(templateData)
	if err != nil {
		return BatchResult{}, fmt.Errorf("load template: %w", err)
	}
	return p.RunBatchDocument(ctx, template, inputs, opts), nil
}

// RunBatchDocument is RunBatch over an already loaded template.
func (p *Pipeline) RunBatchDocument(ctx context.Context, template *render.Document, inputs []Input, opts BatchOptions) BatchResult {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	telemetry.Info("batch.start", map[string]any{"run_id": runID, "files": len(inputs), "concurrency": limit})

	results := make([]Result, len(inputs))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, in := range inputs {
		i, in := i, in
		in.RunID = runID
		if err := ctx.Err(); err != nil {
			results[i] = cancelled(in, err)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = cancelled(in, err)
				return nil
			}
			results[i] = p.Process(ctx, template, in)
			return nil
		})
	}
	_ = g.Wait()

	batch := BatchResult{RunID: runID, Results: results}
	telemetry.Info("batch.done", map[string]any{
		"run_id":    runID,
		"files":     len(inputs),
		"succeeded": batch.Succeeded(),
	})
	return batch
}

func cancelled(in Input, err error) Result {
	return Result{Report: model.StatusReport{
		ReportID:      uuid.NewString(),
		RunID:         in.RunID,
		File:          in.Name,
		FailureReason: fmt.Sprintf("not started: %v", err),
	}}
}
