package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/config"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/model"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/tabular"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	sourcesDir := filepath.Join(dir, "sources")
	require.NoError(t, os.Mkdir(sourcesDir, 0o755))

	target := filepath.Join(dir, "contacts.csv")
	writeFile(t, target,
		"First Name,Last Name,Email,Mobile,Last Updated\n"+
			"Jane,Doe,JANE@x.com,,2024-01-01\n"+
			"Jane,Doe,jane@x.com,5551234567,2024-02-01\n"+
			"Bob,Smith,bob@y.com,,2023-06-01\n")

	writeFile(t, filepath.Join(sourcesDir, "crm.csv"),
		"Full Name,Email Address,Phone Number\n"+
			"Bob Smith,bob@y.com,7778889999\n")

	return &config.Config{
		TargetFile:      target,
		SourcesDir:      sourcesDir,
		OutputDir:       filepath.Join(dir, "output"),
		ChunkSize:       100,
		ReconcilePolicy: "first_match",
		PhoneMatchMode:  "all_digits",
		FuzzyThreshold:  90,
		Mailchimp:       &config.MailchimpConfig{},
		Server:          config.ServerConfig{Port: 5000},
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

func TestRunProducesAllOutputs(t *testing.T) {
	cfg := testConfig(t)
	summary, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	for _, name := range []string{FilledFile, ChangeLogFile, CleanedFile, SegmentedFile, ReportFile, RunSummaryFile} {
		_, statErr := os.Stat(filepath.Join(cfg.OutputDir, name))
		assert.NoError(t, statErr, name)
	}

	require.Len(t, summary.Stages, 4)
	assert.Equal(t, 3, summary.RowsIn)
	assert.Equal(t, 2, summary.RowsOut, "the two Jane Doe rows merge")
	assert.False(t, summary.Failed())
}

func TestRunFillsFromAuxiliarySource(t *testing.T) {
	cfg := testConfig(t)
	_, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	var log model.ChangeLog
	raw, err := os.ReadFile(filepath.Join(cfg.OutputDir, ChangeLogFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &log))

	// Bob Smith's mobile comes from crm.csv on a name and email match.
	require.Len(t, log, 1)
	assert.Equal(t, "Mobile", log[0].Field)
	assert.Equal(t, "7778889999", log[0].NewValue)
	assert.Equal(t, "crm.csv", log[0].SourceFile)
	assert.Equal(t, "name: 'bob smith' & email: 'bob@y.com'", log[0].MatchedOn)
}

func TestRunLargeModeMatchesSmallMode(t *testing.T) {
	small := testConfig(t)
	_, err := New(small, nil).Run(context.Background())
	require.NoError(t, err)

	large := testConfig(t)
	large.LargeMode = true
	large.ChunkSize = 1
	_, err = New(large, nil).Run(context.Background())
	require.NoError(t, err)

	smallOut, err := tabular.ReadFile(filepath.Join(small.OutputDir, FilledFile))
	require.NoError(t, err)
	largeOut, err := tabular.ReadFile(filepath.Join(large.OutputDir, FilledFile))
	require.NoError(t, err)

	require.Equal(t, smallOut.Len(), largeOut.Len())
	for i := range smallOut.Records {
		assert.Equal(t, smallOut.Records[i].Fields, largeOut.Records[i].Fields)
	}
}

func TestRunReportsFailureOnCriticalValidation(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.TargetFile,
		"First Name,Last Name,Email,Mobile,Last Updated\n"+
			"Jane,Doe,not-an-email,5551234567,2024-01-01\n")

	summary, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err, "validation findings never abort the run")
	assert.True(t, summary.Failed())
	assert.Greater(t, summary.Critical, 0)

	require.Len(t, summary.Stages, 4)
	last := summary.Stages[3]
	assert.False(t, last.Success)
	assert.Equal(t, CategoryValidationCritical.String(), last.Category)

	_, statErr := os.Stat(filepath.Join(cfg.OutputDir, ReportFile))
	assert.NoError(t, statErr, "report written before failure status")
}

func TestRunMissingTargetIsFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.TargetFile = filepath.Join(cfg.OutputDir, "nope.csv")

	summary, err := New(cfg, nil).Run(context.Background())
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.True(t, stageErr.Category.Fatal())

	require.Len(t, summary.Stages, 1)
	assert.Equal(t, CategoryInput.String(), summary.Stages[0].Category)
}

func TestRunSingleStage(t *testing.T) {
	cfg := testConfig(t)
	result, err := New(cfg, nil).RunStage(context.Background(), StageValidate)
	require.NoError(t, err)
	assert.Equal(t, StageValidate, result.Stage)
	_, statErr := os.Stat(filepath.Join(cfg.OutputDir, ReportFile))
	assert.NoError(t, statErr)
}

func TestUnknownStage(t *testing.T) {
	cfg := testConfig(t)
	_, err := New(cfg, nil).RunStage(context.Background(), "bogus")
	require.Error(t, err)
}
