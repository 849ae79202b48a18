// pkg/merge/key.go
package merge

import (
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/model"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/normalize"
)

// KeyFields is the normalized identifying triple derived from one
// record. Each part may be empty.
type KeyFields struct {
	Name  string
	Email string
	Phone string
}

// ExtractKeyFields derives the normalized triple using the dataset's
// resolved field map. Name prefers first+last and falls back to a
// full-name column; phone uses the highest-priority phone column.
func ExtractKeyFields(rec model.Record, fm model.FieldMap, mode normalize.PhoneMode) KeyFields {
	return KeyFields{
		Name:  normalize.FullName(rec.Get(fm.FirstName), rec.Get(fm.LastName), rec.Get(fm.FullName)),
		Email: normalize.Email(rec.Get(fm.Email)),
		Phone: normalize.Phone(rec.Get(fm.PrimaryPhone()), mode),
	}
}

// Key returns the merge key for the triple: the email when present,
// otherwise name joined to phone. Records with no email, no name and
// no phone get no key at all and are never grouped with each other;
// the second return reports whether a key exists.
func (kf KeyFields) Key() (string, bool) {
	if kf.Email != "" {
		return kf.Email, true
	}
	if kf.Name == "" && kf.Phone == "" {
		return "", false
	}
	return kf.Name + "-" + kf.Phone, true
}
