// pkg/model/validation.go
package model

// ValidationError collects every problem found on a single row. Rows
// without problems produce no entry. Name carries the row's display
// name so a human can locate the record without counting rows.
type ValidationError struct {
	Row    int      `json:"row"`
	Name   string   `json:"name"`
	Errors []string `json:"errors"`
}

// Severity classifies a validation message for pipeline control flow.
// Critical problems fail the run; data-quality problems are reported
// and the run continues.
type Severity int

const (
	SeverityDataQuality Severity = iota
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityDataQuality:
		return "data_quality"
	default:
		return "unknown"
	}
}
