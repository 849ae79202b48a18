package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/model"
)

func makeDataset(rows ...[2]string) *model.Dataset {
	ds := model.NewDataset("t.csv", []string{"Company", "Source"})
	for i, row := range rows {
		rec := model.NewRecord(i + 2)
		rec.Set("Company", row[0])
		rec.Set("Source", row[1])
		ds.Append(rec)
	}
	return ds
}

func TestDefaultRules(t *testing.T) {
	ds := makeDataset(
		[2]string{"Bunnings Warehouse", ""},
		[2]string{"", "myob"},
		[2]string{"", "mailchimp"},
		[2]string{"Acme Pty Ltd", "spreadsheet"},
	)

	out := NewSegmenter(nil, nil).Apply(ds)
	require.True(t, out.HasHeader(SegmentColumn))

	want := []string{"Supplier", "Past Customer", "Prospect", "Uncategorized"}
	for i, w := range want {
		assert.Equal(t, w, out.Records[i].Get(SegmentColumn), "row %d", i)
	}
}

func TestFirstMatchingRuleWins(t *testing.T) {
	// Supplier rule precedes the source rules.
	ds := makeDataset([2]string{"Bunnings", "myob"})
	out := NewSegmenter(nil, nil).Apply(ds)
	assert.Equal(t, "Supplier", out.Records[0].Get(SegmentColumn))
}

func TestCustomRules(t *testing.T) {
	rules := []Rule{{Segment: "VIP", Column: "Company", Contains: []string{"acme"}}}
	ds := makeDataset([2]string{"ACME Holdings", ""})

	out := NewSegmenter(rules, nil).Apply(ds)
	assert.Equal(t, "VIP", out.Records[0].Get(SegmentColumn))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	ds := makeDataset([2]string{"Bunnings", ""})
	NewSegmenter(nil, nil).Apply(ds)
	assert.False(t, ds.HasHeader(SegmentColumn))
	assert.Equal(t, "", ds.Records[0].Get(SegmentColumn))
}
