// pkg/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/segment"
)

// FieldMapping pairs a target column with the auxiliary column that
// may fill it during a fill pass.
type FieldMapping struct {
	Target string `mapstructure:"target"`
	Source string `mapstructure:"source"`
}

// MailchimpConfig holds mailing-list API credentials.
type MailchimpConfig struct {
	APIKey string
	ListID string
}

// Enabled reports whether the mailing-list source is configured.
func (c *MailchimpConfig) Enabled() bool {
	return c.APIKey != "" && c.ListID != ""
}

// ServerConfig holds HTTP wrapper settings.
type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

// Config represents the application configuration
type Config struct {
	// Input and output locations
	TargetFile string
	SourcesDir string
	OutputDir  string

	// Large-input mode
	LargeMode bool
	StorePath string
	ChunkSize int

	// Matching behavior
	ReconcilePolicy string
	PhoneMatchMode  string
	FuzzyThreshold  int

	// Column aliases per logical role, overriding the defaults
	Aliases map[string][]string

	// Fill mappings (target column <- source column)
	Mappings []FieldMapping

	// Segmentation rules
	SegmentRules []segment.Rule

	// Mailing list source
	Mailchimp *MailchimpConfig

	// HTTP wrapper
	Server ServerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from the environment, with an
// optional pipeline file on top (see LoadPipelineFile). A .env file
// in the working directory is honored when present.
func LoadConfig(pipelineFile string) (*Config, error) {
	// Missing .env is fine; explicit environment still applies.
	_ = godotenv.Load()

	cfg := &Config{
		TargetFile: getEnv("TARGET_FILE", ""),
		SourcesDir: getEnv("SOURCES_DIR", "data_sources"),
		OutputDir:  getEnv("OUTPUT_DIR", "output"),

		LargeMode: getEnvAsBool("LARGE_MODE", false),
		StorePath: getEnv("STORE_PATH", ""),
		ChunkSize: getEnvAsInt("CHUNK_SIZE", 5000),

		ReconcilePolicy: getEnv("RECONCILE_POLICY", "first_match"),
		PhoneMatchMode:  getEnv("PHONE_MATCH_MODE", "all_digits"),
		FuzzyThreshold:  getEnvAsInt("FUZZY_THRESHOLD", 90),

		Mailchimp: &MailchimpConfig{
			APIKey: getEnv("MAILCHIMP_API_KEY", ""),
			ListID: getEnv("MAILCHIMP_LIST_ID", ""),
		},

		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 5000),
			AllowedOrigins: getEnvAsStringSlice("ALLOWED_ORIGINS", []string{"*"}),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if pipelineFile != "" {
		if err := cfg.ApplyPipelineFile(pipelineFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return errors.New("chunk size must be positive")
	}

	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 100 {
		return errors.New("fuzzy threshold must be between 0 and 100")
	}

	switch c.PhoneMatchMode {
	case "all_digits", "last_10":
	default:
		return errors.New("phone match mode must be all_digits or last_10")
	}

	switch c.ReconcilePolicy {
	case "first_match", "most_complete":
	default:
		return errors.New("reconcile policy must be first_match or most_complete")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("server port out of range")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}
	return result
}
