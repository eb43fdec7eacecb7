package models

import "time"

// ItemFailure records why a single row failed.
type ItemFailure struct {
	Row     int    `json:"row"`
	URL     string `json:"url"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RunSummary aggregates the outcome of one pass over the sheet.
type RunSummary struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`

	// Reconciled counts rows whose link came from an earlier upload
	// instead of a fresh capture. They are included in Processed.
	Reconciled int `json:"reconciled"`

	// Failures lists failed rows in sheet order.
	Failures []ItemFailure `json:"failures,omitempty"`

	Duration time.Duration `json:"duration_ns"`

	// Interrupted is set when the run was cancelled before every item
	// had been visited.
	Interrupted bool `json:"interrupted,omitempty"`
}

// RecordFailure appends a failure and bumps the failed counter.
func (s *RunSummary) RecordFailure(item WorkItem, err error) {
	s.Failed++
	s.Failures = append(s.Failures, ItemFailure{
		Row:     item.Row,
		URL:     item.URL,
		Code:    CodeOf(err),
		Message: err.Error(),
	})
}
