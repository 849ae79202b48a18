// pkg/validate/validate.go
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/model"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/normalize"
)

// Phone digit-count bounds for a plausible number.
const (
	MinPhoneDigits = 7
	MaxPhoneDigits = 15
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	digitsOnly   = regexp.MustCompile(`\D`)
)

// Report is the outcome of validating one dataset. Critical counts
// problems that should fail the run (email related); DataQuality
// counts everything else. MissingEmailColumn is set when the dataset
// has no email column at all, which is itself critical.
type Report struct {
	Errors             []model.ValidationError `json:"errors"`
	Critical           int                     `json:"critical"`
	DataQuality        int                     `json:"data_quality"`
	Skipped            int                     `json:"skipped"`
	MissingEmailColumn bool                    `json:"missing_email_column,omitempty"`
}

// Failed reports whether the run should end with failure status.
func (r *Report) Failed() bool {
	return r.Critical > 0
}

// Validator checks a finished dataset against format and completeness
// rules. Validation never aborts processing; every problem becomes a
// report entry.
type Validator struct {
	aliases model.Aliases
	logger  *zap.Logger
}

// NewValidator creates a validator.
func NewValidator(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{logger: logger}
}

// WithAliases overrides the default column alias table.
func (v *Validator) WithAliases(aliases model.Aliases) *Validator {
	v.aliases = aliases
	return v
}

// Validate checks every row. Rows whose first name, last name, email
// and all phone columns are empty are structurally blank and skipped
// without an entry.
func (v *Validator) Validate(ds *model.Dataset) *Report {
	fm := model.ResolveFieldMap(ds.Headers, v.aliases)
	report := &Report{}

	if fm.Email == "" {
		report.MissingEmailColumn = true
		report.Critical++
		v.logger.Warn("dataset has no email column",
			zap.String("dataset", ds.Name),
			zap.Strings("headers", ds.Headers))
	}

	for _, rec := range ds.Records {
		if isStructurallyBlank(rec, fm) {
			report.Skipped++
			continue
		}

		var errs []string
		addErr := func(msg string, severity model.Severity) {
			errs = append(errs, msg)
			if severity == model.SeverityCritical {
				report.Critical++
			} else {
				report.DataQuality++
			}
		}

		// Name checks only apply when the dataset carries the column;
		// a full-name-only export is not missing anything.
		if fm.FirstName != "" && model.IsAbsent(rec.Get(fm.FirstName)) {
			addErr("Missing first name", model.SeverityDataQuality)
		}
		if fm.LastName != "" && model.IsAbsent(rec.Get(fm.LastName)) {
			addErr("Missing last name", model.SeverityDataQuality)
		}

		if fm.Email != "" {
			email := model.Canonical(rec.Get(fm.Email))
			if email == "" {
				addErr("Missing email", model.SeverityCritical)
			} else if !emailPattern.MatchString(strings.ToLower(email)) {
				addErr("Invalid email format", model.SeverityCritical)
			}
		}

		hasPhone := false
		for _, col := range fm.Phones {
			value := model.Canonical(rec.Get(col))
			if value == "" {
				continue
			}
			// An invalid number still counts as a phone being
			// present; format problems are reported separately.
			hasPhone = true
			digits := digitsOnly.ReplaceAllString(value, "")
			if len(digits) < MinPhoneDigits || len(digits) > MaxPhoneDigits {
				addErr(fmt.Sprintf("Invalid phone number format (%s)", col), model.SeverityDataQuality)
			}
		}
		if !hasPhone {
			addErr("Missing phone number", model.SeverityDataQuality)
		}

		if len(errs) > 0 {
			report.Errors = append(report.Errors, model.ValidationError{
				Row:    rec.Row,
				Name:   displayName(rec, fm),
				Errors: errs,
			})
		}
	}

	v.logger.Info("validation complete",
		zap.String("dataset", ds.Name),
		zap.Int("rowsChecked", ds.Len()),
		zap.Int("rowsSkipped", report.Skipped),
		zap.Int("rowsWithErrors", len(report.Errors)),
		zap.Int("critical", report.Critical),
		zap.Int("dataQuality", report.DataQuality))

	return report
}

// isStructurallyBlank reports whether the row carries no identifying
// data at all: first name, last name, email and every phone column
// are absent.
func isStructurallyBlank(rec model.Record, fm model.FieldMap) bool {
	if !model.IsAbsent(rec.Get(fm.FirstName)) || !model.IsAbsent(rec.Get(fm.LastName)) {
		return false
	}
	if !model.IsAbsent(rec.Get(fm.Email)) {
		return false
	}
	for _, col := range fm.Phones {
		if !model.IsAbsent(rec.Get(col)) {
			return false
		}
	}
	return true
}

func displayName(rec model.Record, fm model.FieldMap) string {
	name := normalize.DisplayName(rec.Get(fm.FirstName) + " " + rec.Get(fm.LastName))
	if name == "" {
		name = normalize.DisplayName(rec.Get(fm.FullName))
	}
	return name
}
