// pkg/config/pipeline.go
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/model"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/segment"
)

// pipelineFile is the YAML shape of a run configuration file. Every
// section is optional; absent sections keep the environment values.
type pipelineFile struct {
	TargetFile string `mapstructure:"target_file"`
	SourcesDir string `mapstructure:"sources_dir"`
	OutputDir  string `mapstructure:"output_dir"`

	LargeMode *bool `mapstructure:"large_mode"`
	ChunkSize int   `mapstructure:"chunk_size"`

	ReconcilePolicy string `mapstructure:"reconcile_policy"`
	PhoneMatchMode  string `mapstructure:"phone_match_mode"`
	FuzzyThreshold  *int   `mapstructure:"fuzzy_threshold"`

	Aliases  map[string][]string `mapstructure:"aliases"`
	Mappings []FieldMapping      `mapstructure:"mappings"`
	Segments []segment.Rule      `mapstructure:"segments"`
}

// ApplyPipelineFile overlays a YAML run configuration onto the
// environment-derived config.
func (c *Config) ApplyPipelineFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading pipeline config %s: %w", path, err)
	}

	var pf pipelineFile
	if err := v.Unmarshal(&pf); err != nil {
		return fmt.Errorf("parsing pipeline config %s: %w", path, err)
	}

	if pf.TargetFile != "" {
		c.TargetFile = pf.TargetFile
	}
	if pf.SourcesDir != "" {
		c.SourcesDir = pf.SourcesDir
	}
	if pf.OutputDir != "" {
		c.OutputDir = pf.OutputDir
	}
	if pf.LargeMode != nil {
		c.LargeMode = *pf.LargeMode
	}
	if pf.ChunkSize > 0 {
		c.ChunkSize = pf.ChunkSize
	}
	if pf.ReconcilePolicy != "" {
		c.ReconcilePolicy = pf.ReconcilePolicy
	}
	if pf.PhoneMatchMode != "" {
		c.PhoneMatchMode = pf.PhoneMatchMode
	}
	if pf.FuzzyThreshold != nil {
		c.FuzzyThreshold = *pf.FuzzyThreshold
	}
	if pf.Aliases != nil {
		c.Aliases = pf.Aliases
	}
	if pf.Mappings != nil {
		c.Mappings = pf.Mappings
	}
	if pf.Segments != nil {
		c.SegmentRules = pf.Segments
	}
	return nil
}

// RoleAliases converts the configured alias table into the model's
// role-keyed form, falling back to the defaults when unset.
func (c *Config) RoleAliases() model.Aliases {
	if len(c.Aliases) == 0 {
		return model.DefaultAliases()
	}
	aliases := model.DefaultAliases()
	for role, names := range c.Aliases {
		aliases[model.Role(role)] = names
	}
	return aliases
}
