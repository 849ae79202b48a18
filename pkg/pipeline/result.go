// pkg/pipeline/result.go
package pipeline

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// StageResult captures the outcome of one pipeline stage.
type StageResult struct {
	Stage       string        `json:"stage"`
	Success     bool          `json:"success"`
	RowsIn      int           `json:"rows_in"`
	RowsOut     int           `json:"rows_out"`
	Changes     int           `json:"changes"`
	Critical    int           `json:"critical"`
	DataQuality int           `json:"data_quality"`
	Warnings    []string      `json:"warnings,omitempty"`
	Error       string        `json:"error,omitempty"`
	Category    string        `json:"error_category,omitempty"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Duration    time.Duration `json:"duration"`
	Outputs     []string      `json:"outputs,omitempty"`
}

// NewStageResult initializes a result for a stage about to run.
func NewStageResult(stage string) *StageResult {
	return &StageResult{
		Stage:     stage,
		StartTime: time.Now(),
	}
}

// Complete marks the stage as finished and calculates its duration.
func (r *StageResult) Complete(success bool) *StageResult {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = success
	return r
}

// Fail records the stage error, tagging the result with the error's
// category when it carries one, and completes the result.
func (r *StageResult) Fail(err error) *StageResult {
	r.Error = err.Error()
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		r.Category = stageErr.Category.String()
	}
	return r.Complete(false)
}

// AddWarning appends a warning without failing the stage.
func (r *StageResult) AddWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// AddOutput records a file the stage wrote.
func (r *StageResult) AddOutput(path string) {
	r.Outputs = append(r.Outputs, path)
}

// RunSummary aggregates the stage results of one pipeline run.
type RunSummary struct {
	RunID       string        `json:"run_id"`
	Stages      []StageResult `json:"stages"`
	RowsIn      int           `json:"rows_in"`
	RowsOut     int           `json:"rows_out"`
	Changes     int           `json:"changes"`
	Critical    int           `json:"critical"`
	DataQuality int           `json:"data_quality"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Duration    time.Duration `json:"duration"`
}

// NewRunSummary initializes a summary with a fresh run identifier.
func NewRunSummary() *RunSummary {
	return &RunSummary{
		RunID:     uuid.New().String(),
		StartTime: time.Now(),
	}
}

// AddStageResult incorporates a stage result into the summary.
func (s *RunSummary) AddStageResult(result StageResult) {
	s.Stages = append(s.Stages, result)
	s.Changes += result.Changes
	s.Critical += result.Critical
	s.DataQuality += result.DataQuality
	if len(s.Stages) == 1 {
		s.RowsIn = result.RowsIn
	}
	s.RowsOut = result.RowsOut
}

// Complete marks the run as finished and calculates its duration.
func (s *RunSummary) Complete() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// Failed reports whether the run should exit nonzero: any stage
// failed outright or validation found critical problems.
func (s *RunSummary) Failed() bool {
	if s.Critical > 0 {
		return true
	}
	for _, stage := range s.Stages {
		if !stage.Success {
			return true
		}
	}
	return false
}
