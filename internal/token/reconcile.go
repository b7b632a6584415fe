package token

// ProviderUsage is the provider-reported token usage in its native shape.
// It is a closed sum over the shapes the dispatch layer can produce; the
// reconciler switches over it exhaustively instead of probing map keys.
type ProviderUsage interface {
	providerUsage()
}

// OpenAIUsage is the usage block of OpenAI-compatible chat completions
// (OpenAI and Groq). Field names mirror the wire format.
type OpenAIUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

func (OpenAIUsage) providerUsage() {}

// GeminiUsage is the usageMetadata block of Gemini responses. Gemini does
// not report a total; it is derived at reconciliation time.
type GeminiUsage struct {
	PromptTokenCount     int
	CandidatesTokenCount int
}

func (GeminiUsage) providerUsage() {}

// ActualUsage holds provider-reported counts after normalization.
type ActualUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// UsageRecord merges the pre-call estimate with the provider's post-call
// report. The estimate fields are always populated; Actual stays nil when
// the provider reported nothing (callers must not assume actual counts).
type UsageRecord struct {
	InputTokensEst   int
	ContextTokensEst int
	TotalEst         int
	Actual           *ActualUsage
}

// Reconcile normalizes provider usage against the pre-call estimate.
// A nil usage leaves Actual unset; once set, actual counts are taken
// verbatim from the provider and never re-estimated.
func Reconcile(est Estimate, usage ProviderUsage) UsageRecord {
	rec := UsageRecord{
		InputTokensEst:   est.InputTokens,
		ContextTokensEst: est.ContextTokens,
		TotalEst:         est.EstimatedTotal,
	}

	switch u := usage.(type) {
	case OpenAIUsage:
		rec.Actual = &ActualUsage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	case GeminiUsage:
		rec.Actual = &ActualUsage{
			PromptTokens:     u.PromptTokenCount,
			CompletionTokens: u.CandidatesTokenCount,
			TotalTokens:      u.PromptTokenCount + u.CandidatesTokenCount,
		}
	}

	return rec
}
