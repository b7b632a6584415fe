package runlog

import "strings"

// modelPricing is the USD cost per 1M tokens for a model.
type modelPricing struct {
	input  float64
	output float64
}

// pricing maps backend → model → cost per 1M tokens. Prices change often;
// these are indicative figures for run-log estimates only, and unknown
// models simply get no cost recorded.
var pricing = map[string]map[string]modelPricing{
	"openai": {
		"gpt-4o-mini": {input: 0.15, output: 0.60},
		"gpt-4o":      {input: 2.50, output: 10.00},
		"o3-mini":     {input: 1.00, output: 4.00},
		"o3":          {input: 10.00, output: 40.00},
	},
	"google": {
		"gemini-2.0-flash-exp":          {input: 0, output: 0}, // free tier
		"gemini-2.0-flash-thinking-exp": {input: 0, output: 0}, // free tier
	},
	"groq": {
		"llama-3.1-8b-instant":          {input: 0.05, output: 0.08},
		"llama-3.1-70b-versatile":       {input: 0.59, output: 0.79},
		"deepseek-r1-distill-llama-70b": {input: 0.40, output: 1.00},
	},
}

// EstimateCost estimates the USD cost of a call from actual token counts.
// Model lookup tries an exact match first, then a fragment match so dated
// variants (e.g. "gpt-4o-mini-2024-07-18") resolve to their base pricing.
// Returns false when pricing is unavailable or either count is zero.
func EstimateCost(backend, model string, promptTokens, completionTokens int) (float64, bool) {
	if promptTokens == 0 || completionTokens == 0 {
		return 0, false
	}

	models, ok := pricing[backend]
	if !ok {
		return 0, false
	}

	p, ok := models[model]
	if !ok {
		// Longest fragment wins so "gpt-4o-mini-2024-07-18" resolves to
		// gpt-4o-mini, not gpt-4o.
		best := ""
		for name, candidate := range models {
			if strings.Contains(model, name) && len(name) > len(best) {
				best, p, ok = name, candidate, true
			}
		}
	}
	if !ok {
		return 0, false
	}

	cost := float64(promptTokens)/1_000_000*p.input + float64(completionTokens)/1_000_000*p.output
	return cost, true
}
