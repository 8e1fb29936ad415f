package reports

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-formatter/resume/model"
)

var reportColumns = []string{
	"id", "run_id", "file", "success", "sections_filled", "warnings",
	"failure_reason", "duration_ms", "output_key", "created_at",
}

func sampleRecord() Record {
	return Record{
		StatusReport: model.StatusReport{
			ReportID:       "0b8f5a0e-6a55-4c1e-9b8e-0f1c2d3e4f50",
			RunID:          "run-1",
			File:           "jane.pdf",
			Success:        true,
			SectionsFilled: []model.Section{model.SectionContact, model.SectionSkills},
			Warnings:       []string{"no template anchor for CERTIFICATIONS; section omitted"},
			Duration:       1500 * time.Millisecond,
		},
		OutputKey: "runs/run-1/jane.formatted.docx",
		CreatedAt: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	}
}

func TestPGRepoSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rec := sampleRecord()
	mock.ExpectExec("INSERT INTO format_reports").
		WithArgs(
			rec.ReportID,
			rec.RunID,
			rec.File,
			true,
			sqlmock.AnyArg(), // sections_filled
			sqlmock.AnyArg(), // warnings
			nil,              // failure_reason
			int64(1500),
			rec.OutputKey,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := &PGRepo{DB: db}
	require.NoError(t, repo.Save(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoSaveRejectsIncompleteRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rec := sampleRecord()
	rec.RunID = ""
	err = (&PGRepo{DB: db}).Save(context.Background(), rec)
	assert.ErrorIs(t, err, ErrInvalidInput)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rec := sampleRecord()
	mock.ExpectQuery("FROM format_reports").
		WithArgs(rec.ReportID).
		WillReturnRows(sqlmock.NewRows(reportColumns).AddRow(
			rec.ReportID, rec.RunID, rec.File, true,
			[]byte(`["CONTACT","SKILLS"]`), []byte(`["warn"]`),
			nil, int64(1500), rec.OutputKey, rec.CreatedAt,
		))

	got, err := (&PGRepo{DB: db}).Get(context.Background(), rec.ReportID)
	require.NoError(t, err)
	assert.Equal(t, []model.Section{model.SectionContact, model.SectionSkills}, got.SectionsFilled)
	assert.Equal(t, []string{"warn"}, got.Warnings)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Equal(t, rec.OutputKey, got.OutputKey)
	assert.Empty(t, got.FailureReason)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("FROM format_reports").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = (&PGRepo{DB: db}).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPGRepoListByRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	created := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("WHERE run_id = \\$1").
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows(reportColumns).
			AddRow("a", "run-1", "a.pdf", true, []byte(`["SUMMARY"]`), []byte(`[]`), nil, int64(10), "runs/run-1/a.formatted.docx", created).
			AddRow("b", "run-1", "b.pdf", false, []byte(`[]`), []byte(`[]`), "extract b.pdf: unsupported mime type", int64(2), nil, created.Add(time.Second)))

	got, err := (&PGRepo{DB: db}).ListByRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Success)
	assert.False(t, got[1].Success)
	assert.Equal(t, "extract b.pdf: unsupported mime type", got[1].FailureReason)
	assert.Empty(t, got[1].OutputKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()

	first := sampleRecord()
	second := sampleRecord()
	second.ReportID = "second"
	second.CreatedAt = first.CreatedAt.Add(-time.Minute)
	other := sampleRecord()
	other.ReportID = "other"
	other.RunID = "run-2"

	for _, rec := range []Record{first, second, other} {
		require.NoError(t, repo.Save(ctx, rec))
	}
	first.Success = false
	require.NoError(t, repo.Save(ctx, first))

	got, err := repo.Get(ctx, first.ReportID)
	require.NoError(t, err)
	assert.False(t, got.Success)

	list, err := repo.ListByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].ReportID)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Save(ctx, Record{}), ErrInvalidInput)
}
