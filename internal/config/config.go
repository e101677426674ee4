// Package config layers service settings: compiled defaults, then an
// optional YAML file named by ESGDIGEST_CONFIG, then environment
// variables. Later layers win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "90s" or "2h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

type Config struct {
	Port string `yaml:"port"`

	// Storage
	DBPath string `yaml:"db_path"`

	// Auth
	APIKey string `yaml:"api_key"`

	// Claude summarization
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`
	SummaryLanguage string `yaml:"summary_language"`
	SummaryMaxChars int    `yaml:"summary_max_chars"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL Duration `yaml:"job_ttl"`

	// LLM latency stats retention
	StatsWindow Duration `yaml:"stats_window"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`
}

// Load builds the effective configuration. A missing or unreadable
// config file is an error only when ESGDIGEST_CONFIG names one.
func Load() (Config, error) {
	cfg := Config{
		Port:                 "8085",
		DBPath:               "esgdigest.db",
		AnthropicModel:       "claude-sonnet-4-5-20250929",
		SummaryLanguage:      "繁體中文",
		SummaryMaxChars:      200,
		WorkerCount:          4,
		MaxQueueSize:         100,
		MaxUploadBytes:       52428800, // 50MB
		JobTTL:               Duration(1 * time.Hour),
		StatsWindow:          Duration(1 * time.Hour),
		PDFFallbackPdftotext: true,
	}

	if path := os.Getenv("ESGDIGEST_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.DBPath = envOr("ESGDIGEST_DB", cfg.DBPath)
	cfg.APIKey = envOr("ESGDIGEST_API_KEY", cfg.APIKey)

	cfg.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.AnthropicModel = envOr("ANTHROPIC_MODEL", cfg.AnthropicModel)
	cfg.SummaryLanguage = envOr("SUMMARY_LANGUAGE", cfg.SummaryLanguage)
	cfg.SummaryMaxChars = envInt("SUMMARY_MAX_CHARS", cfg.SummaryMaxChars)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.JobTTL = Duration(envDuration("JOB_TTL", time.Duration(cfg.JobTTL)))
	cfg.StatsWindow = Duration(envDuration("STATS_WINDOW", time.Duration(cfg.StatsWindow)))
	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.SummaryMaxChars <= 0 {
		cfg.SummaryMaxChars = 200
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = Duration(1 * time.Hour)
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = Duration(1 * time.Hour)
	}

	return cfg, nil
}

// Validate checks settings the service cannot run without. The
// Anthropic key is deliberately not required: without it summaries
// fall back to content excerpts.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("ESGDIGEST_API_KEY is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
