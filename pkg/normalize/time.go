// pkg/normalize/time.go
package normalize

import (
	"time"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/model"
)

// timeLayouts are tried in order when parsing a recency timestamp.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
}

// Timestamp parses a recency value from any of the layouts the known
// sources produce. The second return is false when the value is
// absent or unparseable; callers treat such records as "no recency
// information" rather than failing.
func Timestamp(v string) (time.Time, bool) {
	v = model.Canonical(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
