// Package service runs resumes through extraction, classification,
// validation, model building and template mutation.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"resume-formatter/internal/extract"
	"resume-formatter/internal/shared/metrics"
	"resume-formatter/internal/shared/telemetry"
	"resume-formatter/resume/build"
	"resume-formatter/resume/classify"
	"resume-formatter/resume/model"
	"resume-formatter/resume/render"
	"resume-formatter/resume/segment"
	"resume-formatter/resume/skills"
	"resume-formatter/resume/taxonomy"
	"resume-formatter/resume/validate"
)

// Options configures every stage of the pipeline.
type Options struct {
	Classifier classify.Options
	Validator  validate.Options
	Render     render.Options
}

// Input is one resume file.
type Input struct {
	Name     string
	Data     []byte
	MimeType string
	RunID    string
}

// Result is the outcome of one file. Output is nil when the file failed.
type Result struct {
	Report model.StatusReport
	Resume model.StructuredResume
	Output []byte
}

// Pipeline is safe for concurrent use; per-resume state lives in each call.
type Pipeline struct {
	tax        *taxonomy.Taxonomy
	extractor  extract.RawLineExtractor
	segmenter  *segment.Segmenter
	classifier *classify.Classifier
	builder    *build.Builder
	opts       Options
}

// New wires a pipeline. A nil taxonomy uses the embedded default and a nil
// extractor uses extract.New.
func New(tax *taxonomy.Taxonomy, extractor extract.RawLineExtractor, opts Options) *Pipeline {
	if tax == nil {
		tax = taxonomy.MustDefault()
	}
	if extractor == nil {
		extractor = extract.New()
	}
	classifier := classify.New(tax, opts.Classifier)
	opts.Render.Matcher = classifier
	return &Pipeline{
		tax:        tax,
		extractor:  extractor,
		segmenter:  segment.New(tax),
		classifier: classifier,
		builder:    build.New(tax, skills.New(nil)),
		opts:       opts,
	}
}

// BuildResume extracts and classifies in and returns the structured resume.
// The warnings never stop processing; a non-nil error does.
func (p *Pipeline) BuildResume(ctx context.Context, in Input) (model.StructuredResume, []error, error) {
	lines, err := p.extractor.Extract(ctx, in.Data, in.MimeType, in.Name)
	if err != nil {
		return model.StructuredResume{}, nil, err
	}

	blocks := p.segmenter.Segment(lines)
	results, warnings := p.classifier.ClassifyAll(ctx, blocks)

	contents, conflicts := validate.New(p.tax, p.opts.Validator).ValidateAll(results)
	warnings = append(warnings, conflicts...)

	resume, err := p.builder.Build(contents)
	if err != nil {
		return model.StructuredResume{}, warnings, err
	}
	return resume, warnings, nil
}

// Process formats one file into a copy of template. It never returns an
// error and never panics; failures are described by the report.
func (p *Pipeline) Process(ctx context.Context, template *render.Document, in Input) (res Result) {
	start := time.Now()
	report := model.StatusReport{
		ReportID: uuid.NewString(),
		RunID:    in.RunID,
		File:     in.Name,
	}

	finish := func(res Result) Result {
		res.Report.Duration = time.Since(start)
		p.record(res.Report, start)
		return res
	}
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("pipeline.panic", map[string]any{
				"file":   in.Name,
				"run_id": in.RunID,
				"error":  fmt.Sprint(rec),
				"stack":  string(debug.Stack()),
			})
			res = finish(Result{Report: fail(report, fmt.Errorf("panic: %v", rec))})
		}
	}()

	resume, warnings, err := p.BuildResume(ctx, in)
	for _, w := range warnings {
		report.AddWarning(w)
	}
	if err != nil {
		return finish(Result{Report: fail(report, err)})
	}
	if template == nil {
		return finish(Result{Report: fail(report, errors.New("template not loaded")), Resume: resume})
	}

	doc := template.Clone()
	state := model.NewInsertionState()
	mutation, err := render.Mutate(ctx, doc, resume, &state, p.opts.Render)
	if err != nil {
		return finish(Result{Report: fail(report, fmt.Errorf("mutate template: %w", err)), Resume: resume})
	}
	for _, w := range mutation.Warnings {
		report.AddWarning(w)
	}
	warnings = append(warnings, mutation.Warnings...)

	out, err := doc.Bytes()
	if err != nil {
		return finish(Result{Report: fail(report, fmt.Errorf("serialize document: %w", err)), Resume: resume})
	}

	report.Success = true
	report.SectionsFilled = mutation.Filled
	countWarnings(in.Name, warnings)
	return finish(Result{Report: report, Resume: resume, Output: out})
}

func (p *Pipeline) record(report model.StatusReport, start time.Time) {
	metrics.ObserveDocumentDurationMs(metrics.Since(start))
	fields := map[string]any{
		"file":        report.File,
		"run_id":      report.RunID,
		"report_id":   report.ReportID,
		"warnings":    len(report.Warnings),
		"duration_ms": report.Duration.Milliseconds(),
	}
	if !report.Success {
		metrics.IncDocumentsFailed()
		fields["reason"] = report.FailureReason
		telemetry.Error("pipeline.document_failed", fields)
		return
	}
	metrics.IncDocumentsProcessed()
	metrics.AddSectionsFilled(len(report.SectionsFilled))
	fields["sections_filled"] = len(report.SectionsFilled)
	telemetry.Info("pipeline.document_done", fields)
}

func fail(report model.StatusReport, err error) model.StatusReport {
	report.Success = false
	report.FailureReason = err.Error()
	return report
}

func countWarnings(file string, warnings []error) {
	for _, w := range warnings {
		kind, section := warningKind(w)
		switch kind {
		case "anchor_not_found":
			metrics.IncAnchorsMissing()
		case "classification_ambiguous":
			metrics.IncClassificationAmbiguous()
		case "content_conflict":
			metrics.IncContentConflicts()
		}
		fields := map[string]any{"file": file, "kind": kind, "detail": w.Error()}
		if section != "" {
			fields["section"] = section
		}
		telemetry.Warn("pipeline.warning", fields)
	}
}

func warningKind(err error) (string, string) {
	var (
		ambiguous model.ErrClassificationAmbiguous
		conflict  model.ErrContentConflict
		duplicate model.ErrDuplicateContent
		anchor    model.ErrAnchorNotFound
		empty     model.ErrEmptySection
		style     model.ErrStyleCapture
	)
	switch {
	case errors.As(err, &anchor):
		return "anchor_not_found", anchor.Section.String()
	case errors.As(err, &ambiguous):
		return "classification_ambiguous", ""
	case errors.As(err, &conflict):
		return "content_conflict", conflict.Assigned.String()
	case errors.As(err, &duplicate):
		return "duplicate_content", duplicate.Section.String()
	case errors.As(err, &empty):
		return "empty_section", empty.Section.String()
	case errors.As(err, &style):
		return "style_capture", ""
	default:
		return "other", ""
	}
}
