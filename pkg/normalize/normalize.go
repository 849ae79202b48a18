// pkg/normalize/normalize.go
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/model"
)

// PhoneMode selects how many digits of a phone number participate in
// matching.
type PhoneMode int

const (
	// PhoneModeAllDigits keeps every digit of the number.
	PhoneModeAllDigits PhoneMode = iota
	// PhoneModeLast10 keeps only the last 10 digits, so numbers with
	// and without a country prefix compare equal.
	PhoneModeLast10
)

func (m PhoneMode) String() string {
	switch m {
	case PhoneModeAllDigits:
		return "all_digits"
	case PhoneModeLast10:
		return "last_10"
	default:
		return "unknown"
	}
}

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	nonDigits    = regexp.MustCompile(`\D`)
	spaceRuns    = regexp.MustCompile(`\s+`)

	titleCaser = cases.Title(language.English)
)

// Email canonicalizes an email address for matching: trim, lowercase,
// and verify the local@domain.tld shape. Anything that does not look
// like an address becomes "".
func Email(v string) string {
	v = strings.ToLower(model.Canonical(v))
	if !emailPattern.MatchString(v) {
		return ""
	}
	return v
}

// Phone canonicalizes a phone number for matching by stripping every
// non-digit character. Under PhoneModeLast10 only the trailing 10
// digits are kept. A value with no digits becomes "".
func Phone(v string, mode PhoneMode) string {
	digits := nonDigits.ReplaceAllString(model.Canonical(v), "")
	if digits == "" {
		return ""
	}
	if mode == PhoneModeLast10 && len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

// Name canonicalizes a person name for matching: collapse whitespace
// runs, trim, lowercase.
func Name(v string) string {
	v = model.Canonical(v)
	if v == "" {
		return ""
	}
	return strings.ToLower(spaceRuns.ReplaceAllString(v, " "))
}

// DisplayName produces the storage form of a name: whitespace
// collapsed and title-cased.
func DisplayName(v string) string {
	v = model.Canonical(v)
	if v == "" {
		return ""
	}
	return titleCaser.String(spaceRuns.ReplaceAllString(v, " "))
}

// FullName joins first and last into one normalized matching name,
// falling back to a single full-name value when either part is
// missing. Returns "" when no name can be derived.
func FullName(first, last, full string) string {
	f := Name(first)
	l := Name(last)
	if f != "" && l != "" {
		return f + " " + l
	}
	return Name(full)
}
