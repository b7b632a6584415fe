// Package token implements token accounting for LLM requests: encoding
// selection per (backend, model), pre-call estimation for messages and
// auxiliary context strings, budget enforcement (see fit.go), and
// reconciliation of estimates against provider-reported usage (see
// reconcile.go).
//
// Counts are estimates. Non-OpenAI backends are measured with the nearest
// OpenAI-compatible encoding, which is close enough for budgeting but not
// exact for their native vocabularies.
package token

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"
	"github.com/pkoukk/tiktoken-go"
)

const (
	// perMessageOverhead is the fixed structural cost of message framing
	// (~4 tokens per message in OpenAI chat format).
	perMessageOverhead = 4

	// requestOverhead is the flat cost of the message array structure,
	// added once per request.
	requestOverhead = 3

	// encodingO200k is the encoding used by GPT-4o/o-series models and
	// as the approximation for non-OpenAI backends.
	encodingO200k = "o200k_base"

	// encodingCL100k is the fallback encoding for older OpenAI models.
	encodingCL100k = "cl100k_base"
)

// o200kModels are the OpenAI model-name fragments that select o200k_base.
var o200kModels = []string{"gpt-4o", "gpt-4", "o3", "o1"}

// Estimate is the pre-call token estimate for one request.
type Estimate struct {
	// InputTokens counts the message contents plus per-message overhead.
	InputTokens int
	// ContextTokens counts the auxiliary context strings (e.g. RAG
	// documents) supplied alongside the messages.
	ContextTokens int
	// EstimatedTotal is InputTokens + ContextTokens + requestOverhead.
	EstimatedTotal int
}

// encodingName returns the tiktoken encoding name for a backend/model pair.
// Pure function of its inputs so estimation is deterministic.
func encodingName(backend, model string) string {
	if backend != "openai" {
		return encodingO200k
	}
	m := strings.ToLower(model)
	for _, frag := range o200kModels {
		if strings.Contains(m, frag) {
			return encodingO200k
		}
	}
	return encodingCL100k
}

// encoder cache — tiktoken initialisation loads a BPE table, so each
// encoding is constructed once and reused across calls.
var (
	encMu    sync.Mutex
	encCache = map[string]*tiktoken.Tiktoken{}
)

// encoderFor returns the (cached) tiktoken encoder for a backend/model pair.
func encoderFor(backend, model string) (*tiktoken.Tiktoken, error) {
	name := encodingName(backend, model)

	encMu.Lock()
	defer encMu.Unlock()
	if enc, ok := encCache[name]; ok {
		return enc, nil
	}
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("token: load encoding %s: %w", name, err)
	}
	encCache[name] = enc
	return enc, nil
}

// encode segments text with enc. Special-token lookalikes in user content
// (e.g. "<|endoftext|>") are allowed and counted as tokens rather than
// rejected — input text is never treated as control tokens.
func encode(enc *tiktoken.Tiktoken, text string) []int {
	return enc.Encode(text, []string{"all"}, nil)
}

// CountText returns the estimated token count of a single string.
// Empty text counts as 0 without touching the encoder.
func CountText(text, backend, model string) (int, error) {
	if text == "" {
		return 0, nil
	}
	enc, err := encoderFor(backend, model)
	if err != nil {
		return 0, err
	}
	return len(encode(enc, text)), nil
}

// CountMessages estimates token usage for a message list plus optional
// context strings. Message contents contribute to InputTokens along with a
// fixed per-message overhead; context strings are counted separately.
func CountMessages(msgs []*schema.Message, backend, model string, contextStrs []string) (Estimate, error) {
	enc, err := encoderFor(backend, model)
	if err != nil {
		return Estimate{}, err
	}

	input := 0
	for _, m := range msgs {
		input += perMessageOverhead
		if m.Content != "" {
			input += len(encode(enc, m.Content))
		}
	}

	contextTokens := 0
	for _, s := range contextStrs {
		if s != "" {
			contextTokens += len(encode(enc, s))
		}
	}

	return Estimate{
		InputTokens:    input,
		ContextTokens:  contextTokens,
		EstimatedTotal: input + contextTokens + requestOverhead,
	}, nil
}
