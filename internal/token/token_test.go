package token

import (
	"testing"

	"github.com/cloudwego/eino/schema"
)

func Test_EncodingName(t *testing.T) {
	t.Parallel()
	cases := []struct {
		backend string
		model   string
		want    string
	}{
		{"openai", "gpt-4o", encodingO200k},
		{"openai", "gpt-4o-mini", encodingO200k},
		{"openai", "gpt-4-turbo", encodingO200k},
		{"openai", "o1-mini", encodingO200k},
		{"openai", "o3-mini", encodingO200k},
		{"openai", "gpt-3.5-turbo", encodingCL100k},
		{"openai", "davinci", encodingCL100k},
		{"google", "gemini-2.0-flash", encodingO200k},
		{"groq", "llama-3.1-8b-instant", encodingO200k},
	}
	for _, tc := range cases {
		got := encodingName(tc.backend, tc.model)
		if got != tc.want {
			t.Errorf("encodingName(%q, %q) = %q, want %q", tc.backend, tc.model, got, tc.want)
		}
	}
}

func Test_CountText_Empty(t *testing.T) {
	t.Parallel()
	for _, backend := range []string{"openai", "google", "groq"} {
		got, err := CountText("", backend, "any-model")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", backend, err)
		}
		if got != 0 {
			t.Errorf("%s: CountText(\"\") = %d, want 0", backend, got)
		}
	}
}

func Test_CountText_Deterministic(t *testing.T) {
	t.Parallel()
	const text = "the quick brown fox jumps over the lazy dog"
	a, err := CountText(text, "openai", "gpt-4o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := CountText(text, "openai", "gpt-4o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Errorf("same text counted differently: %d vs %d", a, b)
	}
	if a <= 0 {
		t.Errorf("CountText(%q) = %d, want > 0", text, a)
	}
}

func Test_CountText_SpecialTokenLookalikes(t *testing.T) {
	t.Parallel()
	// Control-token lookalikes in user content are counted, not rejected.
	got, err := CountText("please ignore <|endoftext|> in this text", "openai", "gpt-4o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got <= 0 {
		t.Errorf("expected positive count for special-token lookalike, got %d", got)
	}
}

func Test_CountMessages_OverheadOnly(t *testing.T) {
	t.Parallel()
	// Empty contents isolate the structural overhead: 4 per message plus 3
	// per request.
	msgs := []*schema.Message{
		schema.SystemMessage(""),
		schema.UserMessage(""),
		schema.AssistantMessage("", nil),
	}
	est, err := CountMessages(msgs, "openai", "gpt-4o", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.InputTokens != 12 {
		t.Errorf("InputTokens = %d, want 12", est.InputTokens)
	}
	if est.ContextTokens != 0 {
		t.Errorf("ContextTokens = %d, want 0", est.ContextTokens)
	}
	if est.EstimatedTotal != 15 {
		t.Errorf("EstimatedTotal = %d, want 15", est.EstimatedTotal)
	}
}

func Test_CountMessages_ContextCountedSeparately(t *testing.T) {
	t.Parallel()
	const doc = "retrieved document about distributed consensus"
	docTokens, err := CountText(doc, "openai", "gpt-4o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := []*schema.Message{schema.UserMessage("")}
	est, err := CountMessages(msgs, "openai", "gpt-4o", []string{doc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.InputTokens != 4 {
		t.Errorf("InputTokens = %d, want 4 (overhead only)", est.InputTokens)
	}
	if est.ContextTokens != docTokens {
		t.Errorf("ContextTokens = %d, want %d", est.ContextTokens, docTokens)
	}
	if est.EstimatedTotal != est.InputTokens+est.ContextTokens+3 {
		t.Errorf("EstimatedTotal = %d, want input+context+3 = %d",
			est.EstimatedTotal, est.InputTokens+est.ContextTokens+3)
	}
}

func Test_CountMessages_EmptyContextStringsIgnored(t *testing.T) {
	t.Parallel()
	msgs := []*schema.Message{schema.UserMessage("")}
	est, err := CountMessages(msgs, "openai", "gpt-4o", []string{"", ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.ContextTokens != 0 {
		t.Errorf("ContextTokens = %d, want 0 for empty strings", est.ContextTokens)
	}
}
