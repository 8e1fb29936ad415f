package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"resume-formatter/resume/model"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `
SELECT id, run_id, file, success, sections_filled, warnings, failure_reason, duration_ms, output_key, created_at
FROM format_reports`

// Save inserts the record, replacing an existing row with the same ID.
func (r *PGRepo) Save(ctx context.Context, record Record) error {
	if err := record.validate(); err != nil {
		return err
	}
	const query = `
INSERT INTO format_reports (
	id, run_id, file, success, sections_filled, warnings, failure_reason, duration_ms, output_key, created_at
)
VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE
SET success = EXCLUDED.success,
    sections_filled = EXCLUDED.sections_filled,
    warnings = EXCLUDED.warnings,
    failure_reason = EXCLUDED.failure_reason,
    duration_ms = EXCLUDED.duration_ms,
    output_key = EXCLUDED.output_key`

	sections, err := marshalJSONB(record.SectionsFilled)
	if err != nil {
		return err
	}
	warnings, err := marshalJSONB(record.Warnings)
	if err != nil {
		return err
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.DB.ExecContext(ctx, query,
		record.ReportID,
		record.RunID,
		record.File,
		record.Success,
		sections,
		warnings,
		nullString(record.FailureReason),
		record.Duration.Milliseconds(),
		nullString(record.OutputKey),
		createdAt,
	)
	return err
}

// Get returns a record by report ID.
func (r *PGRepo) Get(ctx context.Context, reportID string) (Record, error) {
	row := r.DB.QueryRowContext(ctx, selectColumns+`
WHERE id = $1
LIMIT 1`, reportID)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return record, nil
}

// ListByRun returns the records of a run, oldest first.
func (r *PGRepo) ListByRun(ctx context.Context, runID string) ([]Record, error) {
	rows, err := r.DB.QueryContext(ctx, selectColumns+`
WHERE run_id = $1
ORDER BY created_at ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var rec Record
	var sections []byte
	var warnings []byte
	var failureReason sql.NullString
	var durationMs int64
	var outputKey sql.NullString
	if err := s.Scan(
		&rec.ReportID,
		&rec.RunID,
		&rec.File,
		&rec.Success,
		&sections,
		&warnings,
		&failureReason,
		&durationMs,
		&outputKey,
		&rec.CreatedAt,
	); err != nil {
		return Record{}, err
	}
	if len(sections) > 0 {
		var filled []model.Section
		if err := json.Unmarshal(sections, &filled); err == nil {
			rec.SectionsFilled = filled
		}
	}
	if len(warnings) > 0 {
		_ = json.Unmarshal(warnings, &rec.Warnings)
	}
	if failureReason.Valid {
		rec.FailureReason = failureReason.String
	}
	if outputKey.Valid {
		rec.OutputKey = outputKey.String
	}
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	return rec, nil
}

func marshalJSONB(value any) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	if string(payload) == "null" {
		return []byte("[]"), nil
	}
	return payload, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Repo = (*PGRepo)(nil)
