// pkg/model/fieldmap.go
package model

import "strings"

// Role identifies the logical meaning of a column, independent of how
// a particular dataset spells its header.
type Role string

const (
	RoleFirstName Role = "first_name"
	RoleLastName  Role = "last_name"
	RoleFullName  Role = "full_name"
	RoleEmail     Role = "email"
	RolePhone     Role = "phone"
	RoleCompany   Role = "company"
	RoleUpdated   Role = "updated"
)

// Aliases lists candidate header spellings per role, in priority
// order. The first alias found in a dataset's header row wins.
type Aliases map[Role][]string

// DefaultAliases covers the header variants seen across the known
// sources (CRM export, Mailchimp export, ad-hoc spreadsheets).
func DefaultAliases() Aliases {
	return Aliases{
		RoleFirstName: {"FIRSTNAME", "First Name", "FirstName", "firstname"},
		RoleLastName:  {"LASTNAME", "Last Name", "LastName", "lastname"},
		RoleFullName:  {"FULLNAME", "Full Name", "FullName", "fullname", "Name"},
		RoleEmail:     {"EMAIL", "Email Address", "Email", "e-mail", "X_EMAIL2"},
		RoleCompany:   {"COMPANY", "Company", "Organisation"},
		RoleUpdated:   {"LAST_UPDATED", "Last Updated", "updated_at", "Updated At"},
	}
}

// phoneTokens mark a header as a phone-role column when the header
// contains one of them, compared case-insensitively. Phone columns
// are matched by substring because sources carry many variants
// (MOBILE, DIRECTPHONE, X_PHONE1, "Phone Number", ...).
var phoneTokens = []string{"mobile", "phone"}

// FieldMap is the per-dataset resolution of roles to actual column
// names. It is computed once at load time; empty strings mean the
// dataset has no column for that role. Phones holds every phone-role
// column in header order.
type FieldMap struct {
	FirstName string
	LastName  string
	FullName  string
	Email     string
	Company   string
	Updated   string
	Phones    []string
}

// ResolveFieldMap resolves the prioritized alias lists against a
// header row. Matching is case-insensitive; the dataset's own
// spelling is preserved in the result.
func ResolveFieldMap(headers []string, aliases Aliases) FieldMap {
	if aliases == nil {
		aliases = DefaultAliases()
	}

	byLower := make(map[string]string, len(headers))
	for _, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, exists := byLower[key]; !exists {
			byLower[key] = h
		}
	}

	resolve := func(role Role) string {
		for _, alias := range aliases[role] {
			if header, ok := byLower[strings.ToLower(alias)]; ok {
				return header
			}
		}
		return ""
	}

	fm := FieldMap{
		FirstName: resolve(RoleFirstName),
		LastName:  resolve(RoleLastName),
		FullName:  resolve(RoleFullName),
		Email:     resolve(RoleEmail),
		Company:   resolve(RoleCompany),
		Updated:   resolve(RoleUpdated),
	}

	for _, h := range headers {
		lower := strings.ToLower(h)
		for _, token := range phoneTokens {
			if strings.Contains(lower, token) {
				fm.Phones = append(fm.Phones, h)
				break
			}
		}
	}

	return fm
}

// PrimaryPhone returns the highest-priority phone column, or "".
func (fm FieldMap) PrimaryPhone() string {
	if len(fm.Phones) == 0 {
		return ""
	}
	return fm.Phones[0]
}

// HasName reports whether the dataset can produce a person name,
// either from a first+last pair or a single full-name column.
func (fm FieldMap) HasName() bool {
	return (fm.FirstName != "" && fm.LastName != "") || fm.FullName != ""
}

// CanIdentify reports whether the dataset carries enough identifying
// columns to participate in cross-source matching: a name plus at
// least one of email or phone.
func (fm FieldMap) CanIdentify() bool {
	return fm.HasName() && (fm.Email != "" || len(fm.Phones) > 0)
}
