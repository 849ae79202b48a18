// pkg/model/absent.go
package model

import "strings"

// Textual placeholders that spreadsheets and exports use for a missing
// value. The canonical absent representation everywhere in the
// pipeline is the empty string.
var absentValues = map[string]struct{}{
	"":     {},
	"nan":  {},
	"none": {},
	"null": {},
	"n/a":  {},
}

// IsAbsent reports whether a raw value represents a missing field.
// Comparison is case-insensitive after trimming whitespace.
func IsAbsent(value string) bool {
	_, ok := absentValues[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// Canonical maps any absent value to "" and trims present values.
func Canonical(value string) string {
	if IsAbsent(value) {
		return ""
	}
	return strings.TrimSpace(value)
}
