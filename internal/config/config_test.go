package config

import (
	"os"
	"path/filepath"
	"testing"
)

// clearEnv unsets every env var the loader reads so tests see only what
// they set themselves. t.Setenv registers the restore.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PROMPTLAB_CONFIG", "PROMPTLAB_PROVIDER", "PROMPTLAB_MODEL",
		"PROMPTLAB_MODELS_PATH", "PROMPTLAB_MAX_RETRIES",
		"PROMPTLAB_BACKOFF_BASE_MS", "PROMPTLAB_JITTER_FACTOR",
		"PROMPTLAB_HARD_PROMPT_CAP", "PROMPTLAB_RUNLOG_DB",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_NoFile(t *testing.T) {
	clearEnv(t)

	cfg, path, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path, got %q", path)
	}

	// Defaults apply.
	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", cfg.Provider)
	}
	if cfg.Retry.MaxRetries != 3 || cfg.Retry.BackoffBaseMS != 500 || cfg.Retry.JitterFactor != 0.25 {
		t.Errorf("retry defaults = %+v", cfg.Retry)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}
	if !cfg.RunLog.Enabled {
		t.Error("run log should be enabled by default")
	}
}

func TestLoad_ValidFile(t *testing.T) {
	clearEnv(t)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
provider: groq
model: llama-3.1-8b-instant
retry:
  max_retries: 5
  backoff_base_ms: 200
  jitter_factor: 0.5
tokens:
  hard_prompt_cap: 4000
defaults:
  temperature: 0.7
  max_tokens: 2048
logging:
  level: debug
  format: text
runlog:
  enabled: false
`)
	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, path, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != cfgPath {
		t.Errorf("path = %q, want %q", path, cfgPath)
	}
	if cfg.Provider != "groq" || cfg.Model != "llama-3.1-8b-instant" {
		t.Errorf("provider/model = %q/%q", cfg.Provider, cfg.Model)
	}
	if cfg.Retry.MaxRetries != 5 || cfg.Retry.BackoffBaseMS != 200 || cfg.Retry.JitterFactor != 0.5 {
		t.Errorf("retry = %+v", cfg.Retry)
	}
	if cfg.Tokens.HardPromptCap != 4000 {
		t.Errorf("HardPromptCap = %d, want 4000", cfg.Tokens.HardPromptCap)
	}
	if cfg.Defaults.Temperature != 0.7 || cfg.Defaults.MaxTokens != 2048 {
		t.Errorf("defaults = %+v", cfg.Defaults)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.RunLog.Enabled {
		t.Error("run log should be disabled by the file")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("provider: groq\nretry:\n  max_retries: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PROMPTLAB_PROVIDER", "google")
	t.Setenv("PROMPTLAB_MAX_RETRIES", "1")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, _, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != "google" {
		t.Errorf("Provider = %q, want env override google", cfg.Provider)
	}
	if cfg.Retry.MaxRetries != 1 {
		t.Errorf("MaxRetries = %d, want env override 1", cfg.Retry.MaxRetries)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	clearEnv(t)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("provider: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(cfgPath); err == nil {
		t.Error("expected parse error for malformed YAML")
	}
}

func TestLoad_PromptlabConfigEnv(t *testing.T) {
	clearEnv(t)

	cfgPath := filepath.Join(t.TempDir(), "elsewhere.yaml")
	if err := os.WriteFile(cfgPath, []byte("provider: groq\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PROMPTLAB_CONFIG", cfgPath)

	cfg, path, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != cfgPath {
		t.Errorf("path = %q, want %q", path, cfgPath)
	}
	if cfg.Provider != "groq" {
		t.Errorf("Provider = %q, want groq", cfg.Provider)
	}
}

func TestAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-test")
	key, err := APIKey("groq")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "gsk-test" {
		t.Errorf("key = %q, want gsk-test", key)
	}

	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")
	if _, err := APIKey("google"); err == nil {
		t.Error("expected error for unset GEMINI_API_KEY")
	}
	if _, err := APIKey("azure"); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestAPIKeyEnv(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"openai": "OPENAI_API_KEY",
		"google": "GEMINI_API_KEY",
		"groq":   "GROQ_API_KEY",
		"other":  "",
	}
	for backend, want := range cases {
		if got := APIKeyEnv(backend); got != want {
			t.Errorf("APIKeyEnv(%q) = %q, want %q", backend, got, want)
		}
	}
}
