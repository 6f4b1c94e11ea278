// Package run describes the outcome of one pipeline execution.
package run

import (
	"time"

	"tabprep/domain/core"
	"tabprep/domain/imputation"
	"tabprep/domain/profiling"
	"tabprep/domain/stage"
	"tabprep/domain/standardization"
	"tabprep/domain/table"
	"tabprep/domain/visualization"
)

// Status is the final state of a run
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPartial   Status = "partial" // finished, but a plot or export failed
	StatusFailed    Status = "failed"
)

// ExportOutcome is the result of one destination
type ExportOutcome struct {
	Kind        string `json:"kind"`
	Destination string `json:"destination"`
	OK          bool   `json:"ok"`
}

// Summary is everything a run produced
type Summary struct {
	RunID     core.RunID     `json:"run_id"`
	Name      string         `json:"name"`
	StartedAt core.Timestamp `json:"started_at"`
	Status    Status         `json:"status"`
	Error     string         `json:"error,omitempty"`

	Profile            *profiling.Report       `json:"profile,omitempty"`
	Imputed            []imputation.Record     `json:"imputed"`
	Dropped            []string                `json:"dropped"`
	Standardization    *standardization.Result `json:"standardization,omitempty"`
	Visualization      *visualization.Report   `json:"visualization,omitempty"`
	VisualizationError string                  `json:"visualization_error,omitempty"`
	Exports            []ExportOutcome         `json:"exports"`
	Stages             []stage.Timing          `json:"stages"`

	Table *table.Table `json:"-"`
}

// NewSummary starts a summary for a fresh run
func NewSummary(name string) *Summary {
	return &Summary{
		RunID:     core.NewRunID(),
		Name:      name,
		StartedAt: core.Now(),
		Imputed:   []imputation.Record{},
		Dropped:   []string{},
		Exports:   []ExportOutcome{},
		Stages:    []stage.Timing{},
	}
}

// Record appends a stage timing
func (s *Summary) Record(name stage.Name, status stage.Status, d time.Duration) {
	s.Stages = append(s.Stages, stage.Timing{Stage: name, Status: status, Duration: d})
}

// ExportsOK reports whether every destination succeeded
func (s *Summary) ExportsOK() bool {
	for _, e := range s.Exports {
		if !e.OK {
			return false
		}
	}
	return true
}

// Finish sets the final status from what was recorded. err is the error
// that aborted the run, if any.
func (s *Summary) Finish(err error) {
	switch {
	case err != nil:
		s.Status = StatusFailed
		s.Error = err.Error()
	case s.VisualizationError != "" || !s.ExportsOK():
		s.Status = StatusPartial
	default:
		s.Status = StatusSucceeded
	}
}

// Duration returns the time spent across all recorded stages
func (s *Summary) Duration() time.Duration {
	var total time.Duration
	for _, t := range s.Stages {
		total += t.Duration
	}
	return total
}
