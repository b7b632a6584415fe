package token

import "testing"

func Test_Reconcile_OpenAIUsage(t *testing.T) {
	t.Parallel()
	est := Estimate{InputTokens: 10, ContextTokens: 5, EstimatedTotal: 18}
	rec := Reconcile(est, OpenAIUsage{PromptTokens: 12, CompletionTokens: 30, TotalTokens: 42})

	if rec.InputTokensEst != 10 || rec.ContextTokensEst != 5 || rec.TotalEst != 18 {
		t.Errorf("estimate fields not carried through: %+v", rec)
	}
	if rec.Actual == nil {
		t.Fatal("expected Actual to be set")
	}
	if rec.Actual.PromptTokens != 12 || rec.Actual.CompletionTokens != 30 || rec.Actual.TotalTokens != 42 {
		t.Errorf("Actual = %+v, want 12/30/42", rec.Actual)
	}
}

func Test_Reconcile_GeminiUsage_DerivesTotal(t *testing.T) {
	t.Parallel()
	rec := Reconcile(Estimate{EstimatedTotal: 7}, GeminiUsage{PromptTokenCount: 8, CandidatesTokenCount: 4})

	if rec.Actual == nil {
		t.Fatal("expected Actual to be set")
	}
	if rec.Actual.PromptTokens != 8 || rec.Actual.CompletionTokens != 4 {
		t.Errorf("Actual = %+v, want prompt 8, completion 4", rec.Actual)
	}
	if rec.Actual.TotalTokens != 12 {
		t.Errorf("TotalTokens = %d, want derived 12", rec.Actual.TotalTokens)
	}
}

func Test_Reconcile_NilUsage(t *testing.T) {
	t.Parallel()
	est := Estimate{InputTokens: 3, ContextTokens: 1, EstimatedTotal: 7}
	rec := Reconcile(est, nil)

	if rec.Actual != nil {
		t.Errorf("Actual = %+v, want nil when provider reported nothing", rec.Actual)
	}
	if rec.TotalEst != 7 {
		t.Errorf("TotalEst = %d, want 7", rec.TotalEst)
	}
}
