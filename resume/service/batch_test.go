package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-formatter/internal/extract"
	"resume-formatter/resume/model"
)

// panickingExtractor blows up on one file name and delegates otherwise.
type panickingExtractor struct {
	name string
}

func (e panickingExtractor) Extract(ctx context.Context, data []byte, mimeType string, fileName string) ([]model.RawLine, error) {
	if fileName == e.name {
		panic("index out of range")
	}
	return extract.New().Extract(ctx, data, mimeType, fileName)
}

func TestRunBatchKeepsOrderAndIsolatesFailures(t *testing.T) {
	inputs := []Input{
		{Name: "a.txt", Data: []byte(resumeText)},
		{Name: "broken.bin", Data: []byte{0x00, 0x01}, MimeType: "application/x-unknown"},
		{Name: "c.txt", Data: []byte(resumeText)},
	}

	batch, err := New(nil, nil, Options{}).RunBatch(context.Background(), docx(t, templateBody()), inputs, BatchOptions{Concurrency: 2, RunID: "run-7"})
	require.NoError(t, err)

	require.Len(t, batch.Results, 3)
	assert.Equal(t, "run-7", batch.RunID)
	assert.Equal(t, 2, batch.Succeeded())
	for i, res := range batch.Results {
		assert.Equal(t, inputs[i].Name, res.Report.File)
		assert.Equal(t, "run-7", res.Report.RunID)
	}
	assert.False(t, batch.Results[1].Report.Success)
	assert.Nil(t, batch.Results[1].Output)
	assert.Equal(t, batch.Results[0].Output, batch.Results[2].Output)
	assert.Len(t, batch.Reports(), 3)
}

func TestRunBatchRejectsBadTemplate(t *testing.T) {
	_, err := New(nil, nil, Options{}).RunBatch(context.Background(), []byte("not a docx"), []Input{{Name: "a.txt", Data: []byte(resumeText)}}, BatchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load template")
}

func TestRunBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := New(nil, nil, Options{}).RunBatch(ctx, docx(t, templateBody()), []Input{
		{Name: "a.txt", Data: []byte(resumeText)},
		{Name: "b.txt", Data: []byte(resumeText)},
	}, BatchOptions{})
	require.NoError(t, err)

	assert.NotEmpty(t, batch.RunID)
	assert.Zero(t, batch.Succeeded())
	for _, res := range batch.Results {
		assert.Contains(t, res.Report.FailureReason, "not started")
	}
}

func TestRunBatchRecoversPanickingFile(t *testing.T) {
	inputs := []Input{
		{Name: "a.txt", Data: []byte(resumeText)},
		{Name: "boom.txt", Data: []byte(resumeText)},
		{Name: "c.txt", Data: []byte(resumeText)},
	}

	p := New(nil, panickingExtractor{name: "boom.txt"}, Options{})
	batch, err := p.RunBatch(context.Background(), docx(t, templateBody()), inputs, BatchOptions{Concurrency: 3})
	require.NoError(t, err)

	require.Len(t, batch.Results, 3)
	assert.Equal(t, 2, batch.Succeeded())
	failed := batch.Results[1].Report
	assert.Equal(t, "boom.txt", failed.File)
	assert.False(t, failed.Success)
	assert.Contains(t, failed.FailureReason, "panic: index out of range")
	assert.Nil(t, batch.Results[1].Output)
	assert.True(t, batch.Results[0].Report.Success)
	assert.True(t, batch.Results[2].Report.Success)
}
