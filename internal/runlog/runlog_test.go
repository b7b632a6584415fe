package runlog

import (
	"context"
	"testing"
	"time"

	"github.com/piyumiimasha/promptlab-go/internal/client"
	"github.com/piyumiimasha/promptlab-go/internal/token"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func Test_Store_AppendAndRecent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	prompt, completion, total := 100, 50, 150
	cost := 0.00123
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	runs := []Run{
		{
			Timestamp: base, Backend: "openai", Model: "gpt-4o-mini",
			Technique: "few-shot", LatencyMS: 420,
			InputTokensEst: 90, ContextTokensEst: 10, TotalEst: 103,
			PromptTokensActual: &prompt, CompletionTokensActual: &completion,
			TotalTokensActual: &total, CostUSD: &cost,
			RetryCount: 1, BackoffMSTotal: 500, Notes: "first",
		},
		{
			Timestamp: base.Add(time.Minute), Backend: "groq",
			Model: "llama-3.1-8b-instant", LatencyMS: 90,
			InputTokensEst: 20, TotalEst: 23,
			OverflowHandled: true, Notes: "second",
		},
	}
	for _, r := range runs {
		if err := s.Append(ctx, r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d runs, want 2", len(got))
	}

	// Newest first.
	if got[0].Notes != "second" || got[1].Notes != "first" {
		t.Errorf("order = %q, %q; want second, first", got[0].Notes, got[1].Notes)
	}
	if !got[0].OverflowHandled {
		t.Error("OverflowHandled not round-tripped")
	}
	if got[0].PromptTokensActual != nil {
		t.Error("expected nil actuals for a run without provider usage")
	}

	first := got[1]
	if first.Backend != "openai" || first.Model != "gpt-4o-mini" || first.Technique != "few-shot" {
		t.Errorf("identity fields = %s/%s/%s", first.Backend, first.Model, first.Technique)
	}
	if first.PromptTokensActual == nil || *first.PromptTokensActual != 100 {
		t.Errorf("PromptTokensActual = %v, want 100", first.PromptTokensActual)
	}
	if first.TotalTokensActual == nil || *first.TotalTokensActual != 150 {
		t.Errorf("TotalTokensActual = %v, want 150", first.TotalTokensActual)
	}
	if first.CostUSD == nil || *first.CostUSD != cost {
		t.Errorf("CostUSD = %v, want %v", first.CostUSD, cost)
	}
	if first.RetryCount != 1 || first.BackoffMSTotal != 500 {
		t.Errorf("retry fields = %d/%d, want 1/500", first.RetryCount, first.BackoffMSTotal)
	}
	if !first.Timestamp.Equal(base) {
		t.Errorf("Timestamp = %v, want %v", first.Timestamp, base)
	}
}

func Test_Store_RecentLimit(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		r := Run{Backend: "openai", Model: "gpt-4o-mini", Timestamp: time.Now().Add(time.Duration(i) * time.Second)}
		if err := s.Append(ctx, r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	got, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d runs, want 3", len(got))
	}
}

func Test_FromOutcome(t *testing.T) {
	t.Parallel()
	out := &client.CallOutcome{
		Text:    "hi",
		Latency: 750 * time.Millisecond,
		Usage: token.UsageRecord{
			InputTokensEst:   40,
			ContextTokensEst: 5,
			TotalEst:         48,
			Actual:           &token.ActualUsage{PromptTokens: 44, CompletionTokens: 10, TotalTokens: 54},
		},
		Meta: client.CallMeta{RetryCount: 2, BackoffTotal: 1500 * time.Millisecond, OverflowHandled: true},
	}

	r := FromOutcome("openai", "gpt-4o-mini", "cot", out, "note")
	if r.Backend != "openai" || r.Model != "gpt-4o-mini" || r.Technique != "cot" {
		t.Errorf("identity fields = %s/%s/%s", r.Backend, r.Model, r.Technique)
	}
	if r.LatencyMS != 750 {
		t.Errorf("LatencyMS = %d, want 750", r.LatencyMS)
	}
	if r.TotalEst != 48 || r.InputTokensEst != 40 || r.ContextTokensEst != 5 {
		t.Errorf("estimate fields = %d/%d/%d", r.InputTokensEst, r.ContextTokensEst, r.TotalEst)
	}
	if r.PromptTokensActual == nil || *r.PromptTokensActual != 44 {
		t.Errorf("PromptTokensActual = %v, want 44", r.PromptTokensActual)
	}
	if r.RetryCount != 2 || r.BackoffMSTotal != 1500 || !r.OverflowHandled {
		t.Errorf("meta fields = %d/%d/%v", r.RetryCount, r.BackoffMSTotal, r.OverflowHandled)
	}
	if r.CostUSD == nil {
		t.Fatal("expected a cost estimate for a priced model")
	}
	want := 44.0/1_000_000*0.15 + 10.0/1_000_000*0.60
	if *r.CostUSD != want {
		t.Errorf("CostUSD = %v, want %v", *r.CostUSD, want)
	}
}

func Test_FromOutcome_NoActualUsage(t *testing.T) {
	t.Parallel()
	out := &client.CallOutcome{Usage: token.UsageRecord{TotalEst: 10}}
	r := FromOutcome("openai", "gpt-4o-mini", "", out, "")
	if r.PromptTokensActual != nil || r.CostUSD != nil {
		t.Error("expected nil actuals and cost when the provider reported no usage")
	}
}
