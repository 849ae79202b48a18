// pkg/merge/merge.go
package merge

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/model"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/normalize"
)

// Policy selects how a group's conflicting column values collapse
// into one output value.
type Policy int

const (
	// PolicyFirstMatch takes the first non-empty value in sort order,
	// i.e. from the most recent record. Used when recency is
	// authoritative.
	PolicyFirstMatch Policy = iota
	// PolicyMostComplete takes the longest non-empty value, on the
	// theory that longer values carry fuller data. Length ties go to
	// the first-encountered value.
	PolicyMostComplete
)

func (p Policy) String() string {
	switch p {
	case PolicyFirstMatch:
		return "first_match"
	case PolicyMostComplete:
		return "most_complete"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// ParsePolicy maps a configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first_match", "first-match", "recent":
		return PolicyFirstMatch, nil
	case "most_complete", "most-complete", "complete":
		return PolicyMostComplete, nil
	default:
		return PolicyFirstMatch, fmt.Errorf("unknown reconcile policy %q", s)
	}
}

// Engine groups records by merge key and reconciles each group into a
// single output record. One engine instance applies one policy for a
// whole run; policies are never mixed within a dataset.
type Engine struct {
	policy    Policy
	phoneMode normalize.PhoneMode
	aliases   model.Aliases
	logger    *zap.Logger
}

// NewEngine creates a merge engine.
func NewEngine(policy Policy, phoneMode normalize.PhoneMode, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		policy:    policy,
		phoneMode: phoneMode,
		logger:    logger,
	}
}

// WithAliases overrides the default column alias table.
func (e *Engine) WithAliases(aliases model.Aliases) *Engine {
	e.aliases = aliases
	return e
}

// Merge deduplicates a dataset. The input is not mutated; the output
// contains one record per match group, in key-encounter order after
// the recency sort.
func (e *Engine) Merge(ds *model.Dataset) *model.Dataset {
	fm := model.ResolveFieldMap(ds.Headers, e.aliases)

	records := sortByRecency(ds.Records, fm)

	type group struct {
		key     string
		records []model.Record
	}
	var groups []*group
	index := make(map[string]*group)

	for _, rec := range records {
		key, ok := ExtractKeyFields(rec, fm, e.phoneMode).Key()
		if !ok {
			// No identifying fields at all. Keep the record as its
			// own singleton rather than pooling blank rows together.
			groups = append(groups, &group{records: []model.Record{rec}})
			continue
		}
		if g, exists := index[key]; exists {
			g.records = append(g.records, rec)
			continue
		}
		g := &group{key: key, records: []model.Record{rec}}
		index[key] = g
		groups = append(groups, g)
	}

	out := model.NewDataset(ds.Name, ds.Headers)
	for _, g := range groups {
		out.Append(e.reconcile(g.records, ds.Headers))
	}

	e.logger.Info("merge complete",
		zap.String("dataset", ds.Name),
		zap.String("policy", e.policy.String()),
		zap.Int("recordsIn", ds.Len()),
		zap.Int("recordsOut", out.Len()),
		zap.Int("duplicatesCollapsed", ds.Len()-out.Len()))

	return out
}

// sortByRecency orders records most-recent first by the resolved
// recency column. Records without a parseable timestamp sort after
// all records with one; the sort is stable so original relative order
// survives among ties.
func sortByRecency(records []model.Record, fm model.FieldMap) []model.Record {
	sorted := make([]model.Record, len(records))
	copy(sorted, records)
	if fm.Updated == "" {
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		ti, oki := normalize.Timestamp(sorted[i].Get(fm.Updated))
		tj, okj := normalize.Timestamp(sorted[j].Get(fm.Updated))
		if oki != okj {
			return oki
		}
		if !oki {
			return false
		}
		return ti.After(tj)
	})
	return sorted
}

// reconcile collapses a group into one record. Every column draws
// from the group's non-absent values in sort order; a column with
// none stays at the canonical absent value.
func (e *Engine) reconcile(records []model.Record, headers []string) model.Record {
	out := model.NewRecord(records[0].Row)
	for _, h := range headers {
		var values []string
		for _, rec := range records {
			if v := model.Canonical(rec.Get(h)); v != "" {
				values = append(values, v)
			}
		}
		out.Set(h, e.pick(values))
	}
	return out
}

func (e *Engine) pick(values []string) string {
	if len(values) == 0 {
		return ""
	}
	if e.policy == PolicyFirstMatch {
		return values[0]
	}
	best := values[0]
	for _, v := range values[1:] {
		if len(v) > len(best) {
			best = v
		}
	}
	return best
}
