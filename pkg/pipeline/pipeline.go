// pkg/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/config"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/fill"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/merge"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/model"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/normalize"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/segment"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/sources"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/tabular"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/validate"
)

// Stage names, in run order.
const (
	StageFill     = "fill_missing"
	StageMerge    = "clean_merge"
	StageSegment  = "segment"
	StageValidate = "validate"
)

// Output file names within the configured output directory.
const (
	FilledFile     = "contacts_filled.csv"
	ChangeLogFile  = "fill_changes.json"
	CleanedFile    = "contacts_cleaned.csv"
	SegmentedFile  = "contacts_segmented.csv"
	ReportFile     = "validation_report.json"
	RunSummaryFile = "run_summary.json"
)

// StageInfo describes one runnable stage for discovery endpoints.
type StageInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Pipeline runs the contact processing stages in sequence: fill
// missing fields from auxiliary sources, merge duplicates, tag
// segments, validate. Stages run one at a time; each completes
// before the next begins.
type Pipeline struct {
	cfg    *config.Config
	logger *zap.Logger
}

// New creates a pipeline.
func New(cfg *config.Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, logger: logger}
}

// Stages lists the runnable stages in run order.
func (p *Pipeline) Stages() []StageInfo {
	return []StageInfo{
		{Name: StageFill, Description: "Fill missing contact fields from auxiliary sources"},
		{Name: StageMerge, Description: "Merge and deduplicate contact records"},
		{Name: StageSegment, Description: "Tag contacts with segments"},
		{Name: StageValidate, Description: "Validate contact fields and write the error report"},
	}
}

// Run executes every stage against the configured target file,
// fail-fast on fatal errors. The summary is returned even on failure
// so callers can report partial progress.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	summary := NewRunSummary()
	defer summary.Complete()

	p.logger.Info("pipeline run starting",
		zap.String("runID", summary.RunID),
		zap.String("target", p.cfg.TargetFile))

	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		stageErr := NewStageError(StageFill, CategoryInput,
			fmt.Errorf("creating output directory: %w", err))
		summary.AddStageResult(*NewStageResult(StageFill).Fail(stageErr))
		return summary, stageErr
	}

	ds, err := tabular.ReadFile(p.cfg.TargetFile)
	if err != nil {
		stageErr := NewStageError(StageFill, CategoryInput, err)
		summary.AddStageResult(*NewStageResult(StageFill).Fail(stageErr))
		return summary, stageErr
	}

	for _, stage := range []string{StageFill, StageMerge, StageSegment, StageValidate} {
		next, result, err := p.runStage(ctx, stage, ds)
		if err != nil {
			summary.AddStageResult(*NewStageResult(stage).Fail(err))
			return summary, err
		}
		summary.AddStageResult(*result)
		ds = next
	}

	if err := tabular.WriteJSON(filepath.Join(p.cfg.OutputDir, RunSummaryFile), summary); err != nil {
		p.logger.Warn("writing run summary failed", zap.Error(err))
	}

	p.logger.Info("pipeline run finished",
		zap.String("runID", summary.RunID),
		zap.Bool("failed", summary.Failed()),
		zap.Int("rowsOut", summary.RowsOut),
		zap.Int("changes", summary.Changes))
	return summary, nil
}

// RunStage executes a single named stage against the target file and
// writes that stage's outputs.
func (p *Pipeline) RunStage(ctx context.Context, name string) (*StageResult, error) {
	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return nil, NewStageError(name, CategoryInput,
			fmt.Errorf("creating output directory: %w", err))
	}
	ds, err := tabular.ReadFile(p.cfg.TargetFile)
	if err != nil {
		return nil, NewStageError(name, CategoryInput, err)
	}
	_, result, err := p.runStage(ctx, name, ds)
	return result, err
}

func (p *Pipeline) runStage(ctx context.Context, name string, ds *model.Dataset) (*model.Dataset, *StageResult, error) {
	switch name {
	case StageFill:
		return p.fillStage(ctx, ds)
	case StageMerge:
		return p.mergeStage(ds)
	case StageSegment:
		return p.segmentStage(ds)
	case StageValidate:
		return p.validateStage(ds)
	default:
		return nil, nil, NewStageError(name, CategoryInput, fmt.Errorf("unknown stage %q", name))
	}
}

func (p *Pipeline) phoneMode() normalize.PhoneMode {
	if p.cfg.PhoneMatchMode == "last_10" {
		return normalize.PhoneModeLast10
	}
	return normalize.PhoneModeAllDigits
}

func (p *Pipeline) mappings() []fill.Mapping {
	out := make([]fill.Mapping, 0, len(p.cfg.Mappings))
	for _, m := range p.cfg.Mappings {
		out = append(out, fill.Mapping{TargetField: m.Target, SourceField: m.Source})
	}
	return out
}

// auxiliaries fetches every configured auxiliary dataset, file
// sources first (in name order), then the mailing list when
// configured. An unreadable auxiliary is reported as a warning and
// skipped; it never aborts the run.
func (p *Pipeline) auxiliaries(ctx context.Context, result *StageResult) []*model.Dataset {
	factory := sources.NewFactory(p.logger)

	var srcs []sources.Source
	if p.cfg.SourcesDir != "" {
		discovered, err := factory.DiscoverFileSources(p.cfg.SourcesDir)
		if err != nil {
			result.AddWarning(fmt.Sprintf("auxiliary source discovery: %v", err))
		} else {
			srcs = discovered
		}
	}
	if p.cfg.Mailchimp.Enabled() {
		mc, err := factory.CreateMailchimpSource(p.cfg.Mailchimp.APIKey, p.cfg.Mailchimp.ListID)
		if err != nil {
			result.AddWarning(fmt.Sprintf("mailing list source: %v", err))
		} else {
			srcs = append(srcs, mc)
		}
	}

	var out []*model.Dataset
	for _, src := range srcs {
		ds, err := src.Fetch(ctx)
		if err != nil {
			result.AddWarning(fmt.Sprintf("auxiliary source %s: %v", src.Name(), err))
			continue
		}
		out = append(out, ds)
	}
	return out
}

func (p *Pipeline) fillStage(ctx context.Context, ds *model.Dataset) (*model.Dataset, *StageResult, error) {
	result := NewStageResult(StageFill)
	result.RowsIn = ds.Len()

	auxes := p.auxiliaries(ctx, result)
	filler := fill.NewFiller(p.phoneMode(), p.logger).
		WithFuzzyThreshold(p.cfg.FuzzyThreshold).
		WithAliases(p.cfg.RoleAliases())

	var (
		updated *model.Dataset
		log     model.ChangeLog
		err     error
	)
	if p.cfg.LargeMode {
		updated, log, err = p.fillLarge(filler, ds, auxes)
	} else {
		updated, log, err = filler.Fill(ds, auxes, p.mappings())
	}
	if err != nil {
		return nil, nil, NewStageError(StageFill, CategoryInput, err)
	}

	filledPath := filepath.Join(p.cfg.OutputDir, FilledFile)
	if err := tabular.WriteFile(filledPath, updated); err != nil {
		return nil, nil, NewStageError(StageFill, CategoryInput, err)
	}
	result.AddOutput(filledPath)

	logPath := filepath.Join(p.cfg.OutputDir, ChangeLogFile)
	if err := tabular.WriteJSON(logPath, log); err != nil {
		return nil, nil, NewStageError(StageFill, CategoryInput, err)
	}
	result.AddOutput(logPath)

	result.RowsOut = updated.Len()
	result.Changes = len(log)
	return updated, result.Complete(true), nil
}

// fillLarge runs the fill through the disk-backed store so peak
// memory stays bounded by the chunk size.
func (p *Pipeline) fillLarge(filler *fill.Filler, ds *model.Dataset, auxes []*model.Dataset) (*model.Dataset, model.ChangeLog, error) {
	storePath := p.cfg.StorePath
	if storePath == "" {
		storePath = filepath.Join(p.cfg.OutputDir, ".fill_store.db")
		defer os.Remove(storePath)
	}

	store, err := fill.OpenStore(storePath, filler, p.logger)
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()
	store.WithChunkSize(p.cfg.ChunkSize)

	if err := store.LoadTarget(ds, p.mappings()); err != nil {
		return nil, nil, err
	}

	var log model.ChangeLog
	for _, aux := range auxes {
		entries, err := store.FillFrom(aux)
		if err != nil {
			return nil, nil, err
		}
		log = append(log, entries...)
	}

	updated, err := store.Export(ds.Name)
	if err != nil {
		return nil, nil, err
	}
	return updated, log, nil
}

func (p *Pipeline) mergeStage(ds *model.Dataset) (*model.Dataset, *StageResult, error) {
	result := NewStageResult(StageMerge)
	result.RowsIn = ds.Len()

	policy, err := merge.ParsePolicy(p.cfg.ReconcilePolicy)
	if err != nil {
		return nil, nil, NewStageError(StageMerge, CategoryInput, err)
	}

	merged := merge.NewEngine(policy, p.phoneMode(), p.logger).
		WithAliases(p.cfg.RoleAliases()).
		Merge(ds)

	cleanedPath := filepath.Join(p.cfg.OutputDir, CleanedFile)
	if err := tabular.WriteFile(cleanedPath, merged); err != nil {
		return nil, nil, NewStageError(StageMerge, CategoryInput, err)
	}
	result.AddOutput(cleanedPath)

	result.RowsOut = merged.Len()
	result.Changes = ds.Len() - merged.Len()
	return merged, result.Complete(true), nil
}

func (p *Pipeline) segmentStage(ds *model.Dataset) (*model.Dataset, *StageResult, error) {
	result := NewStageResult(StageSegment)
	result.RowsIn = ds.Len()

	tagged := segment.NewSegmenter(p.cfg.SegmentRules, p.logger).Apply(ds)

	segmentedPath := filepath.Join(p.cfg.OutputDir, SegmentedFile)
	if err := tabular.WriteFile(segmentedPath, tagged); err != nil {
		return nil, nil, NewStageError(StageSegment, CategoryInput, err)
	}
	result.AddOutput(segmentedPath)

	result.RowsOut = tagged.Len()
	return tagged, result.Complete(true), nil
}

func (p *Pipeline) validateStage(ds *model.Dataset) (*model.Dataset, *StageResult, error) {
	result := NewStageResult(StageValidate)
	result.RowsIn = ds.Len()
	result.RowsOut = ds.Len()

	report := validate.NewValidator(p.logger).
		WithAliases(p.cfg.RoleAliases()).
		Validate(ds)

	reportPath := filepath.Join(p.cfg.OutputDir, ReportFile)
	if err := tabular.WriteJSON(reportPath, report); err != nil {
		return nil, nil, NewStageError(StageValidate, CategoryInput, err)
	}
	result.AddOutput(reportPath)

	result.Critical = report.Critical
	result.DataQuality = report.DataQuality
	// Critical findings fail the stage, but only after the report is
	// on disk.
	if report.Failed() {
		result.Category = CategoryValidationCritical.String()
	}
	return ds, result.Complete(!report.Failed()), nil
}
