// cmd/contacts/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/config"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/pipeline"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/server"
)

var (
	flagConfig     string
	flagTarget     string
	flagSourcesDir string
	flagOutputDir  string
	flagPolicy     string
	flagPhoneMode  string
	flagLargeMode  bool
)

func main() {
	root := &cobra.Command{
		Use:          "contacts",
		Short:        "Contact record cleaning, merging, filling and validation",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "pipeline config file (YAML)")
	root.PersistentFlags().StringVarP(&flagTarget, "target", "t", "", "target contacts file")
	root.PersistentFlags().StringVar(&flagSourcesDir, "sources-dir", "", "directory of auxiliary source files")
	root.PersistentFlags().StringVarP(&flagOutputDir, "output-dir", "o", "", "output directory")
	root.PersistentFlags().StringVar(&flagPolicy, "policy", "", "reconcile policy: first_match or most_complete")
	root.PersistentFlags().StringVar(&flagPhoneMode, "phone-mode", "", "phone match mode: all_digits or last_10")
	root.PersistentFlags().BoolVar(&flagLargeMode, "large", false, "use the disk-backed store for large inputs")

	root.AddCommand(
		runCommand(),
		stageCommand("fill", "Fill missing fields from auxiliary sources", pipeline.StageFill),
		stageCommand("merge", "Merge and deduplicate records", pipeline.StageMerge),
		stageCommand("segment", "Tag records with segments", pipeline.StageSegment),
		stageCommand("validate", "Validate records and write the report", pipeline.StageValidate),
		serveCommand(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig builds the effective configuration: environment, then
// the optional pipeline file, then command-line flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagTarget != "" {
		cfg.TargetFile = flagTarget
	}
	if flagSourcesDir != "" {
		cfg.SourcesDir = flagSourcesDir
	}
	if flagOutputDir != "" {
		cfg.OutputDir = flagOutputDir
	}
	if flagPolicy != "" {
		cfg.ReconcilePolicy = flagPolicy
	}
	if flagPhoneMode != "" {
		cfg.PhoneMatchMode = flagPhoneMode
	}
	if flagLargeMode {
		cfg.LargeMode = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.TargetFile == "" {
		return nil, fmt.Errorf("no target file: set --target, TARGET_FILE or target_file in the config")
	}
	return cfg, nil
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: fill, merge, segment, validate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			summary, err := pipeline.New(cfg, logger).Run(cmd.Context())
			if err != nil {
				return err
			}
			if summary.Failed() {
				return fmt.Errorf("run %s finished with critical errors", summary.RunID)
			}
			return nil
		},
	}
}

func stageCommand(use, short, stage string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			result, err := pipeline.New(cfg, logger).RunStage(cmd.Context(), stage)
			if err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("stage %s finished with critical errors", stage)
			}
			return nil
		},
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP control API",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			srv := server.New(pipeline.New(cfg, logger), cfg.OutputDir, cfg.Server.AllowedOrigins, logger)
			return srv.ListenAndServe(cfg.Server.Port)
		},
	}
}
