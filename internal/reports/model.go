package reports

import (
	"strings"
	"time"

	"resume-formatter/resume/model"
)

// Record is a persisted StatusReport plus where its output went.
type Record struct {
	model.StatusReport
	OutputKey string    `json:"outputKey,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r Record) validate() error {
	if strings.TrimSpace(r.ReportID) == "" || strings.TrimSpace(r.RunID) == "" || strings.TrimSpace(r.File) == "" {
		return ErrInvalidInput
	}
	return nil
}
