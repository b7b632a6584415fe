package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"

	"github.com/piyumiimasha/promptlab-go/internal/client"
	"github.com/piyumiimasha/promptlab-go/internal/router"
	"github.com/piyumiimasha/promptlab-go/internal/runlog"
)

// NewAskCmd constructs the `promptlab ask` command, which sends a single
// prompt through the budgeting/retry pipeline and prints the completion.
func NewAskCmd() *cobra.Command {
	var (
		providerFlag string
		modelFlag    string
		technique    string
		tier         string
		system       string
		contextStrs  []string
		temperature  float32
		maxTokens    int
		jsonMode     bool
		notes        string
	)

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Send a prompt to the configured LLM provider",
		Long: `Send a single prompt through the full call pipeline: pre-flight token
estimate, hard-cap truncation if configured, retry with jittered backoff,
and usage reconciliation. The completed call is appended to the run log.

Model selection: --model wins, otherwise the routing catalog picks one
from the technique (--technique) or an explicit tier (--tier).

Examples:
  promptlab ask "summarise the CAP theorem"
  promptlab ask --provider groq --technique cot "why is the sky blue?"
  promptlab ask --json --system "reply as JSON" "list three prime numbers"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			backend := providerFlag
			if backend == "" {
				backend = cfg.Provider
			}

			model, err := resolveModel(backend, modelFlag, technique, tier)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			cli, err := newClient(ctx, backend, model)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			var msgs []*schema.Message
			if system != "" {
				msgs = append(msgs, schema.SystemMessage(system))
			}
			msgs = append(msgs, schema.UserMessage(args[0]))

			req := &client.ChatRequest{
				Messages:    msgs,
				ContextStrs: contextStrs,
			}
			if cmd.Flags().Changed("temperature") {
				req.Temperature = &temperature
			} else if cfg.Defaults.Temperature != 0 {
				t := cfg.Defaults.Temperature
				req.Temperature = &t
			}
			if cmd.Flags().Changed("max-tokens") {
				req.MaxTokens = &maxTokens
			} else if cfg.Defaults.MaxTokens != 0 {
				mt := cfg.Defaults.MaxTokens
				req.MaxTokens = &mt
			}

			var out *client.CallOutcome
			if jsonMode {
				out, err = cli.JSONChat(ctx, req)
			} else {
				out, err = cli.Chat(ctx, req)
			}
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			fmt.Println(out.Text)

			rootLog.Info("ask: call complete",
				slog.String("backend", backend),
				slog.String("model", model),
				slog.Duration("latency", out.Latency),
				slog.Int("retries", out.Meta.RetryCount),
				slog.Int("estimated_tokens", out.Usage.TotalEst),
			)

			appendRun(ctx, backend, model, technique, out, notes)
			return nil
		},
	}

	cmd.Flags().StringVarP(&providerFlag, "provider", "p", "", "Backend to call: openai, google, groq (default from config)")
	cmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Model name (overrides catalog routing)")
	cmd.Flags().StringVarP(&technique, "technique", "t", "", "Prompt technique label used for model routing (e.g. cot, tot)")
	cmd.Flags().StringVar(&tier, "tier", "", "Explicit model tier: "+router.TierGeneral+", "+router.TierStrong+", "+router.TierReason)
	cmd.Flags().StringVarP(&system, "system", "s", "", "System prompt prepended to the conversation")
	cmd.Flags().StringArrayVarP(&contextStrs, "context", "c", nil, "Auxiliary context string (repeatable)")
	cmd.Flags().Float32Var(&temperature, "temperature", 0, "Sampling temperature (default from config)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Completion token cap (default from config)")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Request a JSON-formatted response")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form note stored with the run record")

	return cmd
}

// appendRun persists the call record when the run log is enabled. Failures
// are logged, not fatal: the completion already succeeded.
func appendRun(ctx context.Context, backend, model, technique string, out *client.CallOutcome, notes string) {
	path, err := runLogPath()
	if err != nil {
		rootLog.Warn("ask: could not resolve run log path", slog.String("error", err.Error()))
		return
	}
	if path == "" {
		return
	}

	store, err := runlog.Open(path)
	if err != nil {
		rootLog.Warn("ask: failed to open run log", slog.String("error", err.Error()))
		return
	}
	defer store.Close()

	if err := store.Append(ctx, runlog.FromOutcome(backend, model, technique, out, notes)); err != nil {
		rootLog.Warn("ask: failed to append run record", slog.String("error", err.Error()))
	}
}
