package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/piyumiimasha/promptlab-go/internal/router"
)

// NewModelsCmd constructs the `promptlab models` subcommand, which prints
// the routing catalog: which model each backend uses per tier.
func NewModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the model routing catalog per backend and tier",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.ModelsPath == "" {
				return fmt.Errorf("models: no catalog configured (set models_path)")
			}

			catalog, err := router.Load(cfg.ModelsPath)
			if err != nil {
				return fmt.Errorf("models: failed to load catalog: %w", err)
			}

			models := catalog.Models()
			backends := make([]string, 0, len(models))
			for b := range models {
				backends = append(backends, b)
			}
			sort.Strings(backends)

			for _, b := range backends {
				fmt.Printf("%s:\n", b)
				for _, tier := range []string{router.TierGeneral, router.TierStrong, router.TierReason} {
					if m, ok := models[b][tier]; ok {
						fmt.Printf("  %-8s %s (context window: %d)\n", tier, m, router.ContextWindow(m))
					}
				}
			}
			return nil
		},
	}
}
