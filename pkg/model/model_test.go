package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAbsent(t *testing.T) {
	for _, v := range []string{"", "  ", "nan", "NaN", "None", "NULL", "n/a", " N/A "} {
		assert.True(t, IsAbsent(v), "%q should be absent", v)
	}
	for _, v := range []string{"0", "x", "nanette", "none@x.com"} {
		assert.False(t, IsAbsent(v), "%q should be present", v)
	}
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "", Canonical("NaN"))
	assert.Equal(t, "Jane", Canonical("  Jane "))
}

func TestResolveFieldMapAliasPrecedence(t *testing.T) {
	// Both FIRSTNAME and "First Name" present; the higher-priority
	// alias wins and keeps the dataset's spelling.
	fm := ResolveFieldMap([]string{"First Name", "FIRSTNAME", "Email Address"}, nil)
	assert.Equal(t, "FIRSTNAME", fm.FirstName)
	assert.Equal(t, "Email Address", fm.Email)
}

func TestResolveFieldMapCaseInsensitive(t *testing.T) {
	fm := ResolveFieldMap([]string{"email", "last name"}, nil)
	assert.Equal(t, "email", fm.Email)
	assert.Equal(t, "last name", fm.LastName)
}

func TestResolveFieldMapPhones(t *testing.T) {
	fm := ResolveFieldMap([]string{"MOBILE", "DIRECTPHONE", "HOMEPHONE", "Notes"}, nil)
	assert.Equal(t, []string{"MOBILE", "DIRECTPHONE", "HOMEPHONE"}, fm.Phones)
	assert.Equal(t, "MOBILE", fm.PrimaryPhone())
}

func TestCanIdentify(t *testing.T) {
	assert.True(t, ResolveFieldMap([]string{"Full Name", "Email"}, nil).CanIdentify())
	assert.True(t, ResolveFieldMap([]string{"First Name", "Last Name", "Mobile"}, nil).CanIdentify())
	assert.False(t, ResolveFieldMap([]string{"Email", "Mobile"}, nil).CanIdentify(), "no name column")
	assert.False(t, ResolveFieldMap([]string{"Full Name", "Company"}, nil).CanIdentify(), "no email or phone")
}

func TestCustomAliases(t *testing.T) {
	aliases := DefaultAliases()
	aliases[RoleEmail] = []string{"Primary Email"}
	fm := ResolveFieldMap([]string{"Primary Email", "EMAIL"}, aliases)
	assert.Equal(t, "Primary Email", fm.Email)
}

func TestDatasetClone(t *testing.T) {
	ds := NewDataset("a.csv", []string{"Name"})
	rec := NewRecord(2)
	rec.Set("Name", "Jane")
	ds.Append(rec)

	clone := ds.Clone()
	clone.Records[0].Set("Name", "Changed")
	assert.Equal(t, "Jane", ds.Records[0].Get("Name"))
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "critical", SeverityCritical.String())
	assert.Equal(t, "data_quality", SeverityDataQuality.String())
}

func TestRecordIsBlank(t *testing.T) {
	rec := NewRecord(2)
	rec.Set("A", "nan")
	rec.Set("B", "  ")
	assert.True(t, rec.IsBlank())
	rec.Set("C", "x")
	assert.False(t, rec.IsBlank())
}
