// Package config provides YAML-based configuration for promptlab.
// Load returns an explicit Config value with layered precedence:
// built-in defaults → YAML file → environment variables. Nothing is stored
// in package-level state, so concurrent tests and callers can hold
// different configurations without interference.
//
// File search order:
//  1. --config CLI flag (explicit path)
//  2. PROMPTLAB_CONFIG environment variable
//  3. ~/.promptlab/config.yaml
//  4. ./promptlab.yaml
//
// If no file is found, defaults plus env vars apply. API keys are never
// read from YAML; they come from the environment only.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure.
// Field names use yaml tags that mirror the env var naming (lowercase, underscored).
type Config struct {
	// Provider selects the default backend: openai, google, groq.
	Provider string `yaml:"provider"`

	// Model overrides catalog-based routing when set.
	Model string `yaml:"model"`

	// ModelsPath is the path to the models.yaml routing catalog.
	ModelsPath string `yaml:"models_path"`

	// Retry configures the retry/backoff policy.
	Retry RetryConfig `yaml:"retry"`

	// Tokens configures pre-flight token budgeting.
	Tokens TokenConfig `yaml:"tokens"`

	// Defaults configures sampling defaults applied when a call sets none.
	Defaults DefaultsConfig `yaml:"defaults"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// RunLog configures call-record persistence.
	RunLog RunLogConfig `yaml:"runlog"`
}

// RetryConfig holds retry/backoff settings.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int `yaml:"max_retries"`
	// BackoffBaseMS is the base backoff delay in milliseconds.
	BackoffBaseMS int `yaml:"backoff_base_ms"`
	// JitterFactor is the proportional random jitter added to each delay.
	JitterFactor float64 `yaml:"jitter_factor"`
}

// BackoffBase returns the base backoff delay as a duration.
func (r RetryConfig) BackoffBase() time.Duration {
	return time.Duration(r.BackoffBaseMS) * time.Millisecond
}

// TokenConfig holds token budgeting settings.
type TokenConfig struct {
	// HardPromptCap is a hard pre-flight token budget; 0 disables it.
	HardPromptCap int `yaml:"hard_prompt_cap"`
}

// DefaultsConfig holds sampling defaults.
type DefaultsConfig struct {
	// Temperature is the default sampling temperature (0.0–1.0).
	Temperature float32 `yaml:"temperature"`
	// MaxTokens is the default completion token cap.
	MaxTokens int `yaml:"max_tokens"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is the log output format: json, text.
	Format string `yaml:"format"`
}

// RunLogConfig holds run-log persistence settings.
type RunLogConfig struct {
	// Enabled toggles call-record persistence.
	Enabled bool `yaml:"enabled"`
	// DBPath is the SQLite database path. Empty uses ~/.promptlab/runs.db.
	DBPath string `yaml:"db_path"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Provider:   "openai",
		ModelsPath: "config/models.yaml",
		Retry: RetryConfig{
			MaxRetries:    3,
			BackoffBaseMS: 500,
			JitterFactor:  0.25,
		},
		Defaults: DefaultsConfig{
			Temperature: 0.2,
			MaxTokens:   1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		RunLog: RunLogConfig{
			Enabled: true,
		},
	}
}

// Load builds a Config from defaults, an optional YAML file, and env vars
// (highest precedence). It returns the config and the path of the file
// that was loaded, or empty string if no file was found.
func Load(explicitPath string) (*Config, string, error) {
	cfg := Default()

	path := resolveConfigPath(explicitPath)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, "", fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, path, nil
}

// applyEnv overlays environment variables onto cfg. Env always wins.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PROMPTLAB_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("PROMPTLAB_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("PROMPTLAB_MODELS_PATH"); v != "" {
		cfg.ModelsPath = v
	}
	if v, ok := envInt("PROMPTLAB_MAX_RETRIES"); ok {
		cfg.Retry.MaxRetries = v
	}
	if v, ok := envInt("PROMPTLAB_BACKOFF_BASE_MS"); ok {
		cfg.Retry.BackoffBaseMS = v
	}
	if v, ok := envFloat("PROMPTLAB_JITTER_FACTOR"); ok {
		cfg.Retry.JitterFactor = v
	}
	if v, ok := envInt("PROMPTLAB_HARD_PROMPT_CAP"); ok {
		cfg.Tokens.HardPromptCap = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("PROMPTLAB_RUNLOG_DB"); v != "" {
		cfg.RunLog.DBPath = v
	}
}

// APIKeyEnv returns the environment variable name holding the credential
// for a backend, or empty string for an unknown backend.
func APIKeyEnv(backend string) string {
	switch backend {
	case "openai":
		return "OPENAI_API_KEY"
	case "google":
		return "GEMINI_API_KEY"
	case "groq":
		return "GROQ_API_KEY"
	default:
		return ""
	}
}

// APIKey reads the credential for a backend from the environment.
func APIKey(backend string) (string, error) {
	env := APIKeyEnv(backend)
	if env == "" {
		return "", fmt.Errorf("config: unknown backend %q", backend)
	}
	key := os.Getenv(env)
	if key == "" {
		return "", fmt.Errorf("config: %s not set in environment", env)
	}
	return key, nil
}

// resolveConfigPath returns the first config file path that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("PROMPTLAB_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, ".promptlab", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("promptlab.yaml"); err == nil {
		return "promptlab.yaml"
	}

	return ""
}

func envInt(key string) (int, bool) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i, true
		}
	}
	return 0, false
}

func envFloat(key string) (float64, bool) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
