// pkg/segment/segment.go
package segment

import (
	"strings"

	"go.uber.org/zap"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/model"
)

// SegmentColumn is the output column segments are written to.
const SegmentColumn = "Segment"

// DefaultSegment is assigned when no rule matches.
const DefaultSegment = "Uncategorized"

// Rule assigns a segment when a column's value contains any of the
// given substrings (case-insensitive) or, with Equals set, matches
// one exactly.
type Rule struct {
	Segment  string   `mapstructure:"segment"`
	Column   string   `mapstructure:"column"`
	Contains []string `mapstructure:"contains"`
	Equals   []string `mapstructure:"equals"`
}

func (r Rule) matches(rec model.Record) bool {
	value := strings.ToLower(model.Canonical(rec.Get(r.Column)))
	if value == "" {
		return false
	}
	for _, want := range r.Equals {
		if value == strings.ToLower(want) {
			return true
		}
	}
	for _, want := range r.Contains {
		if strings.Contains(value, strings.ToLower(want)) {
			return true
		}
	}
	return false
}

// DefaultRules tags known supplier companies and classifies records
// by their originating system.
func DefaultRules() []Rule {
	return []Rule{
		{Segment: "Supplier", Column: "Company", Contains: []string{"bunnings"}},
		{Segment: "Past Customer", Column: "Source", Equals: []string{"myob"}},
		{Segment: "Prospect", Column: "Source", Equals: []string{"mailchimp"}},
	}
}

// Segmenter applies tagging rules to a dataset. Rules are evaluated
// in order; the first match wins.
type Segmenter struct {
	rules          []Rule
	defaultSegment string
	logger         *zap.Logger
}

// NewSegmenter creates a segmenter. Nil rules fall back to the
// default rule set.
func NewSegmenter(rules []Rule, logger *zap.Logger) *Segmenter {
	if rules == nil {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Segmenter{
		rules:          rules,
		defaultSegment: DefaultSegment,
		logger:         logger,
	}
}

// Apply tags every record with its segment. The input is not
// mutated; the output gains the segment column when missing.
func (s *Segmenter) Apply(ds *model.Dataset) *model.Dataset {
	out := ds.Clone()
	if !out.HasHeader(SegmentColumn) {
		out.Headers = append(out.Headers, SegmentColumn)
	}

	counts := make(map[string]int)
	for i := range out.Records {
		segment := s.defaultSegment
		for _, rule := range s.rules {
			if rule.matches(out.Records[i]) {
				segment = rule.Segment
				break
			}
		}
		out.Records[i].Set(SegmentColumn, segment)
		counts[segment]++
	}

	fields := []zap.Field{
		zap.String("dataset", ds.Name),
		zap.Int("records", out.Len()),
	}
	for segment, n := range counts {
		fields = append(fields, zap.Int(segment, n))
	}
	s.logger.Info("segmentation complete", fields...)

	return out
}
