// Package config provides configuration management for Prebrief.
// It loads settings from environment variables with the PREBRIEF_ prefix
// and provides sensible defaults for all configuration options.
//
// Scoring policy (facet weights and sufficiency thresholds) can additionally
// be loaded from a YAML file via LoadScoringFile; file values override the
// built-in defaults field by field only when the file sets them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/prebriefhq/prebrief/internal/scoring"
)

// Config holds all configuration settings for the Prebrief resolver.
type Config struct {
	Storage    StorageConfig
	Resolution ResolutionConfig
	Scoring    ScoringConfig
	Batch      BatchConfig
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	StorageEngine string // Storage engine type: sqlite, postgres, memory (default: sqlite)
	DataPath      string // Path to data directory for SQLite (default: ./data)
	PostgresDSN   string // Postgres connection string, required when engine is postgres
	Failover      bool   // Degrade to an in-memory store when the database is unavailable (default: true)
}

// ResolutionConfig contains the resolver's matching policy.
type ResolutionConfig struct {
	PersonThreshold      float64  // Minimum fuzzy score to resolve an attendee to a person (default: 0.7)
	InternalDomainMarker string   // Substring marking an email domain as internal (default: unset)
	PersonalDomains      []string // Extra consumer email domains that block company inference
}

// ScoringConfig contains confidence scoring policy.
type ScoringConfig struct {
	WeightsFile string // Optional path to a YAML scoring policy file
	Weights     scoring.Weights
	Thresholds  scoring.SufficiencyThresholds
}

// BatchConfig contains batch resolution tuning.
type BatchConfig struct {
	Concurrency int     // Concurrent resolutions per batch (default: 4)
	RateLimit   float64 // Maximum resolutions per second, 0 disables limiting (default: 0)
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the PREBRIEF_ prefix. When
// PREBRIEF_SCORING_FILE is set, the scoring policy file is read as well.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Storage: StorageConfig{
			StorageEngine: getEnv("PREBRIEF_STORAGE_ENGINE", "sqlite"),
			DataPath:      getEnv("PREBRIEF_DATA_PATH", "./data"),
			PostgresDSN:   getEnv("PREBRIEF_POSTGRES_DSN", ""),
			Failover:      getEnvBool("PREBRIEF_STORAGE_FAILOVER", true),
		},
		Resolution: ResolutionConfig{
			PersonThreshold:      getEnvFloat("PREBRIEF_PERSON_THRESHOLD", 0.7),
			InternalDomainMarker: strings.ToLower(getEnv("PREBRIEF_INTERNAL_DOMAIN", "")),
			PersonalDomains:      getEnvList("PREBRIEF_PERSONAL_DOMAINS"),
		},
		Scoring: ScoringConfig{
			WeightsFile: getEnv("PREBRIEF_SCORING_FILE", ""),
			Weights:     scoring.DefaultWeights(),
			Thresholds:  scoring.DefaultThresholds(),
		},
		Batch: BatchConfig{
			Concurrency: getEnvInt("PREBRIEF_BATCH_CONCURRENCY", 4),
			RateLimit:   getEnvFloat("PREBRIEF_RATE_LIMIT", 0),
		},
	}

	if cfg.Scoring.WeightsFile != "" {
		if err := cfg.Scoring.loadFile(cfg.Scoring.WeightsFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that would break resolution.
func (c *Config) Validate() error {
	switch c.Storage.StorageEngine {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown storage engine %q", c.Storage.StorageEngine)
	}
	if c.Storage.StorageEngine == "postgres" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("config: PREBRIEF_POSTGRES_DSN is required for the postgres engine")
	}
	if c.Resolution.PersonThreshold <= 0 || c.Resolution.PersonThreshold > 1 {
		return fmt.Errorf("config: person threshold %v out of range (0, 1]", c.Resolution.PersonThreshold)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("config: batch concurrency must be at least 1")
	}
	return nil
}

// scoringFile is the YAML shape of a scoring policy file. Pointer fields
// distinguish "not set" from an explicit zero, so a partial file overrides
// only what it names.
type scoringFile struct {
	Weights *struct {
		Identity     *float64 `yaml:"identity"`
		Reliability  *float64 `yaml:"reliability"`
		Completeness *float64 `yaml:"completeness"`
		Freshness    *float64 `yaml:"freshness"`
	} `yaml:"weights"`
	Thresholds *struct {
		BriefGeneration *float64 `yaml:"brief_generation"`
		AIAnalysis      *float64 `yaml:"ai_analysis"`
		ContactMerge    *float64 `yaml:"contact_merge"`
		DisplayOnly     *float64 `yaml:"display_only"`
	} `yaml:"thresholds"`
}

// LoadScoringFile reads a YAML scoring policy file into the scoring config,
// overriding defaults field by field.
func (s *ScoringConfig) LoadScoringFile(path string) error {
	return s.loadFile(path)
}

func (s *ScoringConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read scoring file: %w", err)
	}

	var file scoringFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("config: failed to parse scoring file %s: %w", path, err)
	}

	if file.Weights != nil {
		setFloat(&s.Weights.Identity, file.Weights.Identity)
		setFloat(&s.Weights.Reliability, file.Weights.Reliability)
		setFloat(&s.Weights.Completeness, file.Weights.Completeness)
		setFloat(&s.Weights.Freshness, file.Weights.Freshness)
	}
	if file.Thresholds != nil {
		setFloat(&s.Thresholds.BriefGeneration, file.Thresholds.BriefGeneration)
		setFloat(&s.Thresholds.AIAnalysis, file.Thresholds.AIAnalysis)
		setFloat(&s.Thresholds.ContactMerge, file.Thresholds.ContactMerge)
		setFloat(&s.Thresholds.DisplayOnly, file.Thresholds.DisplayOnly)
	}
	return nil
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as a float,
// it returns the default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false (case-insensitive).
// If the environment variable exists but cannot be parsed as a boolean,
// it returns the default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}

// getEnvList retrieves a comma-separated environment variable as a slice.
// Entries are trimmed and lowercased; empty entries are dropped.
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
