package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-formatter/internal/queue"
	"resume-formatter/internal/reports"
	"resume-formatter/internal/shared/storage/object"
	"resume-formatter/internal/shared/telemetry"
	"resume-formatter/internal/shared/util"
	"resume-formatter/resume/model"
	"resume-formatter/resume/render"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// JobRunner formats resumes held in object storage and records a report for
// each one.
type JobRunner struct {
	Pipeline *Pipeline
	Store    object.ObjectStore
	Reports  reports.Repo
}

// ProcessJob formats the resume a queue message points at. Errors are
// returned only for failures a retry may fix (storage and persistence); a
// resume that cannot be formatted is recorded as a failed report.
func (j *JobRunner) ProcessJob(ctx context.Context, msg queue.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	template, err := j.loadTemplate(ctx, msg.TemplateKey)
	if err != nil {
		return err
	}

	runID := msg.RunID
	if runID == "" {
		runID = msg.JobID
	}
	if runID == "" {
		runID = uuid.NewString()
	}
	in := Input{Name: msg.InputKey, MimeType: msg.MimeType, RunID: runID}

	data, err := j.read(ctx, msg.InputKey)
	if err != nil {
		return j.save(ctx, failedRecord(in, model.ErrExtraction{File: msg.InputKey, Err: err}))
	}
	in.Data = data

	res := j.Pipeline.Process(ctx, template, in)
	outputKey := msg.OutputKey
	if outputKey == "" {
		outputKey, err = DefaultOutputKey(runID, msg.InputKey)
		if err != nil {
			res.Report = fail(res.Report, err)
			res.Output = nil
		}
	}
	return j.finish(ctx, res, outputKey)
}

// RunPrefix formats every object under inputPrefix against the template at
// templateKey, writing outputs under runs/<run id>/.
func (j *JobRunner) RunPrefix(ctx context.Context, templateKey, inputPrefix string, opts BatchOptions) (BatchResult, error) {
	template, err := j.loadTemplate(ctx, templateKey)
	if err != nil {
		return BatchResult{}, err
	}
	keys, err := j.Store.List(ctx, inputPrefix)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list inputs: %w", err)
	}

	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	inputs := make([]Input, 0, len(keys))
	var unreadable []Result
	for _, key := range keys {
		if key == templateKey {
			continue
		}
		data, err := j.read(ctx, key)
		if err != nil {
			in := Input{Name: key, RunID: opts.RunID}
			unreadable = append(unreadable, Result{Report: failedRecord(in, model.ErrExtraction{File: key, Err: err}).StatusReport})
			continue
		}
		inputs = append(inputs, Input{Name: key, Data: data})
	}

	batch := j.Pipeline.RunBatchDocument(ctx, template, inputs, opts)
	batch.Results = append(batch.Results, unreadable...)
	for i := range batch.Results {
		res := &batch.Results[i]
		outputKey, err := DefaultOutputKey(batch.RunID, res.Report.File)
		if err != nil {
			res.Report = fail(res.Report, err)
			res.Output = nil
		}
		if err := j.finish(ctx, *res, outputKey); err != nil {
			return batch, err
		}
	}
	return batch, nil
}

// DefaultOutputKey places the formatted copy of inputKey under the run.
func DefaultOutputKey(runID, inputKey string) (string, error) {
	name, err := util.OutputName(path.Base(strings.ReplaceAll(inputKey, "\\", "/")))
	if err != nil {
		return "", err
	}
	return path.Join("runs", runID, name), nil
}

func (j *JobRunner) finish(ctx context.Context, res Result, outputKey string) error {
	record := reports.Record{StatusReport: res.Report, CreatedAt: time.Now().UTC()}
	if res.Report.Success && res.Output != nil {
		if _, err := j.Store.SaveWithKey(ctx, outputKey, docxContentType, bytes.NewReader(res.Output)); err != nil {
			return fmt.Errorf("save output %s: %w", outputKey, err)
		}
		record.OutputKey = outputKey
	}
	return j.save(ctx, record)
}

func (j *JobRunner) save(ctx context.Context, record reports.Record) error {
	if j.Reports == nil {
		return nil
	}
	if err := j.Reports.Save(ctx, record); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	telemetry.Info("job.report_saved", map[string]any{
		"report_id":  record.ReportID,
		"run_id":     record.RunID,
		"file":       record.File,
		"success":    record.Success,
		"request_id": telemetry.RequestID(ctx),
	})
	return nil
}

func (j *JobRunner) loadTemplate(ctx context.Context, key string) (*render.Document, error) {
	data, err := j.read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", key, err)
	}
	doc, err := render.LoadDocument(data)
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", key, err)
	}
	return doc, nil
}

func (j *JobRunner) read(ctx context.Context, key string) ([]byte, error) {
	rc, err := j.Store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func failedRecord(in Input, err error) reports.Record {
	report := fail(model.StatusReport{ReportID: uuid.NewString(), RunID: in.RunID, File: in.Name}, err)
	return reports.Record{StatusReport: report, CreatedAt: time.Now().UTC()}
}
