package commands

import (
	"context"
	"fmt"

	"github.com/piyumiimasha/promptlab-go/internal/client"
	"github.com/piyumiimasha/promptlab-go/internal/config"
	"github.com/piyumiimasha/promptlab-go/internal/logging"
	"github.com/piyumiimasha/promptlab-go/internal/provider"
	"github.com/piyumiimasha/promptlab-go/internal/router"
	"github.com/piyumiimasha/promptlab-go/internal/runlog"
)

// runLogPath resolves the run-log database path from config, or empty
// string when persistence is disabled.
func runLogPath() (string, error) {
	if !cfg.RunLog.Enabled {
		return "", nil
	}
	if cfg.RunLog.DBPath != "" {
		return cfg.RunLog.DBPath, nil
	}
	return runlog.DefaultDBPath()
}

// resolveModel picks the model for a call: an explicit flag wins, then the
// configured override, then the routing catalog keyed by technique/tier.
func resolveModel(backend, flagModel, technique, tier string) (string, error) {
	if flagModel != "" {
		return flagModel, nil
	}
	if cfg.Model != "" {
		return cfg.Model, nil
	}
	if cfg.ModelsPath == "" {
		return "", fmt.Errorf("no model specified: set --model or configure models_path")
	}

	catalog, err := router.Load(cfg.ModelsPath)
	if err != nil {
		return "", fmt.Errorf("failed to load model catalog: %w", err)
	}
	return catalog.PickModel(backend, technique, tier)
}

// newClient wires a provider backend and a retry-aware client from the
// resolved configuration. API keys are read from the environment.
func newClient(ctx context.Context, backend, model string) (*client.Client, error) {
	key, err := config.APIKey(backend)
	if err != nil {
		return nil, err
	}

	chat, err := provider.New(ctx, &provider.Config{
		Backend: provider.Backend(backend),
		Model:   model,
		APIKey:  key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialise provider: %w", err)
	}

	// In the config file 0 means "no retries"; the client reserves 0 for
	// its own default and uses negative to disable.
	maxRetries := cfg.Retry.MaxRetries
	if maxRetries == 0 {
		maxRetries = -1
	}

	return client.New(chat, model, client.Config{
		MaxRetries:    maxRetries,
		BackoffBase:   cfg.Retry.BackoffBase(),
		BackoffJitter: cfg.Retry.JitterFactor,
		HardPromptCap: cfg.Tokens.HardPromptCap,
		Logger:        logging.FromContext(ctx),
	})
}
