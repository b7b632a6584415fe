// Package router selects a model for a prompt technique from a YAML model
// catalog and reports approximate context-window sizes. The catalog maps
// each backend to model tiers:
//
//	openai:
//	  general: gpt-4o-mini
//	  strong:  gpt-4o
//	  reason:  o3-mini
//
// Reasoning techniques (chain-of-thought and friends) route to the reason
// tier, complex ones to strong, everything else to general.
package router

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Model tiers.
const (
	// TierGeneral is the default tier for everyday prompts.
	TierGeneral = "general"
	// TierStrong is for complex prompts that benefit from a larger model.
	TierStrong = "strong"
	// TierReason is for techniques that need a reasoning-tier model.
	TierReason = "reason"
)

// reasonKeywords route a technique to the reason tier on substring match.
var reasonKeywords = []string{"cot", "tot", "reason", "think"}

// strongKeywords route a technique to the strong tier on substring match.
var strongKeywords = []string{"strong", "complex", "advanced"}

// Catalog is a loaded model catalog: backend → tier → model identifier.
type Catalog struct {
	models map[string]map[string]string
}

// Load reads a model catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("router: read model catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a model catalog from YAML bytes.
func Parse(data []byte) (*Catalog, error) {
	var models map[string]map[string]string
	if err := yaml.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("router: parse model catalog: %w", err)
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("router: model catalog is empty")
	}
	return &Catalog{models: models}, nil
}

// PickModel selects a model for the backend and technique. An explicit tier
// overrides technique-based routing; a tier missing from the catalog falls
// back to general.
func (c *Catalog) PickModel(backend, technique, tier string) (string, error) {
	tiers, ok := c.models[backend]
	if !ok {
		return "", fmt.Errorf("router: backend %q not in model catalog", backend)
	}

	if tier == "" {
		tier = RouteTier(technique)
	}
	if _, ok := tiers[tier]; !ok {
		tier = TierGeneral
	}

	model, ok := tiers[tier]
	if !ok {
		return "", fmt.Errorf("router: backend %q has no %s tier in model catalog", backend, TierGeneral)
	}
	return model, nil
}

// RouteTier maps a technique label to a model tier.
func RouteTier(technique string) string {
	t := strings.ToLower(technique)
	for _, kw := range reasonKeywords {
		if strings.Contains(t, kw) {
			return TierReason
		}
	}
	for _, kw := range strongKeywords {
		if strings.Contains(t, kw) {
			return TierStrong
		}
	}
	return TierGeneral
}

// Models returns a copy of the catalog for listing.
func (c *Catalog) Models() map[string]map[string]string {
	out := make(map[string]map[string]string, len(c.models))
	for backend, tiers := range c.models {
		m := make(map[string]string, len(tiers))
		for tier, model := range tiers {
			m[tier] = model
		}
		out[backend] = m
	}
	return out
}

// contextWindows maps model-name fragments to approximate context-window
// sizes, checked in order (first match wins). Values are approximate —
// provider documentation is authoritative.
var contextWindows = []struct {
	fragment string
	tokens   int
}{
	{"gpt-4o", 128_000},
	{"o3", 128_000},
	{"o1", 128_000},
	{"gpt-4", 128_000},
	{"gpt-3.5", 16_385},
	{"gemini-2.0", 1_000_000},
	{"gemini-1.5", 1_000_000},
	{"llama-3.1", 131_072},
	{"llama-3.2", 131_072},
	{"deepseek-r1", 65_536},
}

// DefaultContextWindow is the conservative fallback for unknown models.
const DefaultContextWindow = 8_000

// ContextWindow returns the approximate context-window size for a model.
func ContextWindow(model string) int {
	for _, w := range contextWindows {
		if strings.Contains(model, w.fragment) {
			return w.tokens
		}
	}
	return DefaultContextWindow
}
