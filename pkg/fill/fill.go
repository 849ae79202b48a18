// pkg/fill/fill.go
package fill

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/merge"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/model"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/normalize"
)

// DefaultFuzzyThreshold is the minimum 0-100 name similarity score
// for a fuzzy name agreement.
const DefaultFuzzyThreshold = 90

// Mapping pairs a target column with the auxiliary column whose
// values may fill it.
type Mapping struct {
	TargetField string
	SourceField string
}

// RoleMappings derives mappings from two resolved field maps: like
// roles fill like columns. Used when no explicit mapping is
// configured, since auxiliary sources spell their headers
// differently.
func RoleMappings(target, source model.FieldMap) []Mapping {
	var out []Mapping
	add := func(t, s string) {
		if t != "" && s != "" {
			out = append(out, Mapping{TargetField: t, SourceField: s})
		}
	}
	add(target.FirstName, source.FirstName)
	add(target.LastName, source.LastName)
	add(target.FullName, source.FullName)
	add(target.Email, source.Email)
	add(target.Company, source.Company)
	add(target.PrimaryPhone(), source.PrimaryPhone())
	return out
}

// Filler copies values from auxiliary datasets into target records
// whose mapped fields are empty, one accepted match per record per
// pass, logging every copied field.
type Filler struct {
	phoneMode      normalize.PhoneMode
	fuzzyThreshold int
	aliases        model.Aliases
	logger         *zap.Logger
}

// NewFiller creates a filler with the default fuzzy-name threshold.
func NewFiller(phoneMode normalize.PhoneMode, logger *zap.Logger) *Filler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filler{
		phoneMode:      phoneMode,
		fuzzyThreshold: DefaultFuzzyThreshold,
		logger:         logger,
	}
}

// WithFuzzyThreshold overrides the name-similarity threshold.
func (f *Filler) WithFuzzyThreshold(threshold int) *Filler {
	f.fuzzyThreshold = threshold
	return f
}

// WithAliases overrides the default column alias table.
func (f *Filler) WithAliases(aliases model.Aliases) *Filler {
	f.aliases = aliases
	return f
}

// Fill runs one pass per auxiliary dataset, in the given order,
// against the progressively updated target. A later source can fill
// what an earlier one left empty. The input dataset is not mutated.
func (f *Filler) Fill(target *model.Dataset, auxiliaries []*model.Dataset, mappings []Mapping) (*model.Dataset, model.ChangeLog, error) {
	updated := target.Clone()
	var log model.ChangeLog

	for _, aux := range auxiliaries {
		entries, err := f.fillPass(updated, aux, mappings)
		if err != nil {
			return nil, nil, err
		}
		log = append(log, entries...)
	}
	return updated, log, nil
}

// fillPass applies one auxiliary dataset to the target in place.
func (f *Filler) fillPass(target *model.Dataset, aux *model.Dataset, mappings []Mapping) (model.ChangeLog, error) {
	targetFM := model.ResolveFieldMap(target.Headers, f.aliases)
	auxFM := model.ResolveFieldMap(aux.Headers, f.aliases)

	// An auxiliary source that cannot identify its own records has
	// nothing trustworthy to contribute; skip the whole pass.
	if !auxFM.CanIdentify() {
		f.logger.Warn("skipping auxiliary source without identifying columns",
			zap.String("source", aux.Name),
			zap.Strings("headers", aux.Headers))
		return nil, nil
	}

	if len(mappings) == 0 {
		mappings = RoleMappings(targetFM, auxFM)
	}

	idx := buildIndex(aux, auxFM, f.phoneMode)
	var log model.ChangeLog
	filled := 0

	for i := range target.Records {
		rec := &target.Records[i]
		if !f.needsFill(*rec, mappings) {
			continue
		}

		keys := merge.ExtractKeyFields(*rec, targetFM, f.phoneMode)
		for _, candidate := range idx.candidates(keys) {
			auxRec := aux.Records[candidate]
			matched := f.agreement(keys, merge.ExtractKeyFields(auxRec, auxFM, f.phoneMode))
			if len(matched) < 2 {
				continue
			}

			entries := copyMissing(rec, auxRec, mappings, aux.Name, strings.Join(matched, " & "))
			if len(entries) > 0 {
				log = append(log, entries...)
				filled++
				break
			}
		}
	}

	f.logger.Info("fill pass complete",
		zap.String("source", aux.Name),
		zap.Int("recordsFilled", filled),
		zap.Int("fieldsCopied", len(log)))
	return log, nil
}

// needsFill reports whether any mapped target field is still empty.
func (f *Filler) needsFill(rec model.Record, mappings []Mapping) bool {
	for _, m := range mappings {
		if model.IsAbsent(rec.Get(m.TargetField)) {
			return true
		}
	}
	return false
}

// agreement lists the identity fields on which target and candidate
// agree, each with the candidate's normalized value so the change log
// shows what matched. Email and phone require exact normalized
// equality; names also accept a fuzzy similarity at or above the
// threshold.
func (f *Filler) agreement(target, candidate merge.KeyFields) []string {
	var matched []string
	if target.Name != "" && candidate.Name != "" {
		if target.Name == candidate.Name || similarity(target.Name, candidate.Name) >= f.fuzzyThreshold {
			matched = append(matched, fmt.Sprintf("name: '%s'", candidate.Name))
		}
	}
	if target.Email != "" && target.Email == candidate.Email {
		matched = append(matched, fmt.Sprintf("email: '%s'", candidate.Email))
	}
	if target.Phone != "" && target.Phone == candidate.Phone {
		matched = append(matched, fmt.Sprintf("phone: '%s'", candidate.Phone))
	}
	return matched
}

// copyMissing copies each mapped source value into the target where
// the target field is empty and the source value is present. It never
// overwrites a non-empty target field.
func copyMissing(rec *model.Record, auxRec model.Record, mappings []Mapping, sourceName, matchedOn string) model.ChangeLog {
	var entries model.ChangeLog
	for _, m := range mappings {
		if !model.IsAbsent(rec.Get(m.TargetField)) {
			continue
		}
		value := model.Canonical(auxRec.Get(m.SourceField))
		if value == "" {
			continue
		}
		entries = append(entries, model.ChangeLogEntry{
			Row:        rec.Row,
			Field:      m.TargetField,
			OldValue:   rec.Get(m.TargetField),
			NewValue:   value,
			SourceFile: sourceName,
			MatchedOn:  matchedOn,
		})
		rec.Set(m.TargetField, value)
	}
	return entries
}

// similarity is a 0-100 normalized Levenshtein score.
func similarity(a, b string) int {
	if a == b {
		return 100
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return int((1 - float64(dist)/float64(maxLen)) * 100)
}

// index holds the auxiliary lookup maps, each from a normalized value
// to the record positions carrying it. Build once per pass, read only
// afterwards.
type index struct {
	byName  map[string][]int
	byEmail map[string][]int
	byPhone map[string][]int
}

func buildIndex(aux *model.Dataset, fm model.FieldMap, mode normalize.PhoneMode) *index {
	idx := &index{
		byName:  make(map[string][]int),
		byEmail: make(map[string][]int),
		byPhone: make(map[string][]int),
	}
	for i, rec := range aux.Records {
		keys := merge.ExtractKeyFields(rec, fm, mode)
		if keys.Name != "" {
			idx.byName[keys.Name] = append(idx.byName[keys.Name], i)
		}
		if keys.Email != "" {
			idx.byEmail[keys.Email] = append(idx.byEmail[keys.Email], i)
		}
		if keys.Phone != "" {
			idx.byPhone[keys.Phone] = append(idx.byPhone[keys.Phone], i)
		}
	}
	return idx
}

// candidates returns the union of the three lookups, in ascending
// record position so candidate order is deterministic.
func (idx *index) candidates(keys merge.KeyFields) []int {
	seen := make(map[int]struct{})
	var out []int
	add := func(positions []int) {
		for _, p := range positions {
			if _, dup := seen[p]; !dup {
				seen[p] = struct{}{}
				out = append(out, p)
			}
		}
	}
	if keys.Name != "" {
		add(idx.byName[keys.Name])
	}
	if keys.Email != "" {
		add(idx.byEmail[keys.Email])
	}
	if keys.Phone != "" {
		add(idx.byPhone[keys.Phone])
	}
	sort.Ints(out)
	return out
}
