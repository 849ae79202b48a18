// pkg/pipeline/error.go
package pipeline

import "fmt"

// Category classifies a problem encountered during a run. Only input
// problems are fatal; everything else is absorbed into the data or
// the reports.
type Category int

const (
	// CategoryInput covers missing or unreadable inputs and
	// unwritable destinations. Fatal to the run; no partial output is
	// written for the failing stage.
	CategoryInput Category = iota
	// CategoryValidationCritical covers email problems found by the
	// validator. The run finishes but reports failure.
	CategoryValidationCritical
)

func (c Category) String() string {
	switch c {
	case CategoryInput:
		return "Input"
	case CategoryValidationCritical:
		return "ValidationCritical"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Fatal reports whether the category aborts the run.
func (c Category) Fatal() bool {
	return c == CategoryInput
}

// StageError wraps a stage failure with its category so the runner
// can decide whether to stop.
type StageError struct {
	Stage    string
	Category Category
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s [%s]: %v", e.Stage, e.Category, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps an error with stage context.
func NewStageError(stage string, category Category, err error) *StageError {
	return &StageError{Stage: stage, Category: category, Err: err}
}
