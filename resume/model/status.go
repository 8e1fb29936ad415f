package model

import "time"

// StatusReport is the per-file outcome handed back to callers.
type StatusReport struct {
	ReportID       string        `json:"reportId"`
	RunID          string        `json:"runId"`
	File           string        `json:"file"`
	Success        bool          `json:"success"`
	SectionsFilled []Section     `json:"sectionsFilled"`
	Warnings       []string      `json:"warnings"`
	FailureReason  string        `json:"failureReason,omitempty"`
	Duration       time.Duration `json:"durationNs"`
}

// AddWarning appends err's message to the warnings list.
func (r *StatusReport) AddWarning(err error) {
	if err == nil {
		return
	}
	r.Warnings = append(r.Warnings, err.Error())
}
