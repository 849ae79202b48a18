package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims and lowercases", "  Jane.Doe@Example.COM ", "jane.doe@example.com"},
		{"missing at sign", "jane.doe.example.com", ""},
		{"missing domain dot", "jane@examplecom", ""},
		{"two at signs", "jane@@example.com", ""},
		{"empty", "", ""},
		{"nan placeholder", "NaN", ""},
		{"plain valid", "a@x.com", "a@x.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Email(tt.input))
		})
	}
}

func TestEmailIdempotent(t *testing.T) {
	for _, v := range []string{"  A@X.com ", "bad-email", "jane@site.org"} {
		once := Email(v)
		assert.Equal(t, once, Email(once))
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		mode  PhoneMode
		want  string
	}{
		{"strips punctuation", "(555) 123-4567", PhoneModeAllDigits, "5551234567"},
		{"keeps country code", "+61 412 345 678", PhoneModeAllDigits, "61412345678"},
		{"last 10 drops prefix", "+61 412 345 678", PhoneModeLast10, "1412345678"},
		{"no digits", "call me", PhoneModeAllDigits, ""},
		{"empty", "", PhoneModeLast10, ""},
		{"none placeholder", "None", PhoneModeAllDigits, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Phone(tt.input, tt.mode))
		})
	}
}

func TestPhoneDigitsOnlyAndIdempotent(t *testing.T) {
	inputs := []string{"+1 (555) 123-4567", "0412 345 678", "ext. 42", "nan", "12345"}
	for _, v := range inputs {
		for _, mode := range []PhoneMode{PhoneModeAllDigits, PhoneModeLast10} {
			out := Phone(v, mode)
			for _, r := range out {
				assert.True(t, r >= '0' && r <= '9', "non-digit %q in %q", r, out)
			}
			assert.Equal(t, out, Phone(out, mode))
		}
	}
}

func TestName(t *testing.T) {
	assert.Equal(t, "jane doe", Name("  Jane   DOE "))
	assert.Equal(t, "", Name("nan"))
	assert.Equal(t, Name("Jane Doe"), Name(Name("Jane Doe")))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Jane Doe", DisplayName("jane   doe"))
	assert.Equal(t, "", DisplayName(""))
}

func TestFullName(t *testing.T) {
	tests := []struct {
		name              string
		first, last, full string
		want              string
	}{
		{"prefers first+last", "Jane", "Doe", "Someone Else", "jane doe"},
		{"falls back to full", "Jane", "", "Jane Doe", "jane doe"},
		{"no name at all", "", "", "", ""},
		{"placeholder parts", "nan", "nan", "Jane Doe", "jane doe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FullName(tt.first, tt.last, tt.full))
		})
	}
}

func TestTimestamp(t *testing.T) {
	if ts, ok := Timestamp("2024-03-01 10:30:00"); assert.True(t, ok) {
		assert.Equal(t, 2024, ts.Year())
	}
	_, ok := Timestamp("not a date")
	assert.False(t, ok)
	_, ok = Timestamp("")
	assert.False(t, ok)
}
