// Package commands defines all Cobra CLI commands for the promptlab binary.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/piyumiimasha/promptlab-go/internal/audit"
	"github.com/piyumiimasha/promptlab-go/internal/config"
	"github.com/piyumiimasha/promptlab-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// cfg is the resolved configuration, populated in PersistentPreRunE before
// any subcommand runs.
var cfg *config.Config

// rootLog is the process logger, built from the resolved config.
var rootLog *slog.Logger

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "promptlab",
		Short: "promptlab — provider-agnostic LLM calls with budgeting and retry",
		Long: `promptlab sends chat completions to OpenAI, Google Gemini, or Groq
through one uniform interface.

Every call gets a pre-flight token estimate, optional truncation to a hard
prompt budget, automatic retry with jittered exponential backoff, and a
reconciled usage record persisted to a local SQLite run log.

Provider is selected via --provider, the PROMPTLAB_PROVIDER environment
variable, or a YAML config file (~/.promptlab/config.yaml). API keys come
from the environment only (OPENAI_API_KEY, GEMINI_API_KEY, GROQ_API_KEY).
See 'promptlab --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Load config (defaults → YAML → env vars).
			loaded, path, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			rootLog = logging.New(cfg.Logging.Level, cfg.Logging.Format)
			cmd.SetContext(logging.WithLogger(cmd.Context(), rootLog))

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(rootLog, cmd.Name(), path)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.promptlab/config.yaml)")

	root.AddCommand(
		NewAskCmd(),
		NewModelsCmd(),
		NewRunsCmd(),
		NewVersionCmd(),
	)

	return root
}
