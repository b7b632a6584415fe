package token

import (
	"fmt"

	"github.com/cloudwego/eino/schema"
)

// Strategy selects how Fit handles a request that exceeds its budget.
type Strategy string

const (
	// StrategyTruncate drops the oldest non-system messages, then truncates
	// the tail message content if the request still does not fit.
	StrategyTruncate Strategy = "truncate"

	// StrategySummarize does not mutate the request; Fit reports overflow
	// and the caller is expected to run a summarization pass before
	// retrying.
	StrategySummarize Strategy = "summarize"
)

// TruncationMarker is appended to message content that was cut mid-way, so
// both the model and downstream consumers can see the truncation happened.
const TruncationMarker = "... [truncated]"

// SummarizeAction is the follow-up FitResult.ActionRequired carries when the
// summarize strategy detects overflow.
const SummarizeAction = "run a summarization pass over the conversation, then retry"

// FitResult reports the outcome of a budget check.
type FitResult struct {
	// Messages is the (possibly truncated) message list: system messages
	// first in their original order, then the surviving others.
	Messages []*schema.Message
	// ContextStrs is passed through unchanged.
	ContextStrs []string
	// Overflow is true when the original request exceeded the budget.
	Overflow bool
	// Strategy records which strategy handled the overflow. Empty when
	// Overflow is false.
	Strategy Strategy
	// OriginalTokens is the estimated total before any adjustment.
	OriginalTokens int
	// MessagesRemoved counts non-system messages dropped by the truncate
	// strategy.
	MessagesRemoved int
	// ActionRequired describes the caller's next step (summarize only).
	ActionRequired string
}

// Fit checks messages + context strings against a token budget, applying
// the given strategy when they do not fit. The input slices are never
// mutated; adjusted results are fresh slices.
//
// The truncate strategy keeps every system message and guarantees at least
// one non-system message survives — assumed to be the current user turn.
// This is a deliberate policy: it can discard assistant turns a caller
// might have wanted for conversational coherence, trading that for
// guaranteed progress. Callers who need older turns intact should use a
// larger budget or the summarize strategy.
//
// An unrecognized strategy is a configuration error, not a silent no-op.
func Fit(msgs []*schema.Message, backend, model string, maxTokens int, strategy Strategy, contextStrs []string) (FitResult, error) {
	est, err := CountMessages(msgs, backend, model, contextStrs)
	if err != nil {
		return FitResult{}, err
	}
	if est.EstimatedTotal <= maxTokens {
		return FitResult{
			Messages:       msgs,
			ContextStrs:    contextStrs,
			OriginalTokens: est.EstimatedTotal,
		}, nil
	}

	switch strategy {
	case StrategyTruncate:
		return truncateToFit(msgs, backend, model, maxTokens, contextStrs, est.EstimatedTotal)
	case StrategySummarize:
		return FitResult{
			Messages:       msgs,
			ContextStrs:    contextStrs,
			Overflow:       true,
			Strategy:       StrategySummarize,
			OriginalTokens: est.EstimatedTotal,
			ActionRequired: SummarizeAction,
		}, nil
	default:
		return FitResult{}, fmt.Errorf("token: unknown fit strategy %q — valid values: truncate, summarize", strategy)
	}
}

// truncateToFit implements the truncate strategy. originalTokens is the
// pre-adjustment estimate, carried into the result.
func truncateToFit(msgs []*schema.Message, backend, model string, maxTokens int, contextStrs []string, originalTokens int) (FitResult, error) {
	var system, others []*schema.Message
	for _, m := range msgs {
		if m.Role == schema.System {
			system = append(system, m)
		} else {
			others = append(others, m)
		}
	}

	// Drop oldest non-system messages first. The last one is never dropped
	// here — it carries the current user turn.
	removed := 0
	for len(others) > 1 {
		est, err := CountMessages(combine(system, others), backend, model, contextStrs)
		if err != nil {
			return FitResult{}, err
		}
		if est.EstimatedTotal <= maxTokens {
			break
		}
		others = others[1:]
		removed++
	}

	// Still over budget: truncate the tail message's content to what the
	// budget leaves after framing overhead.
	est, err := CountMessages(combine(system, others), backend, model, contextStrs)
	if err != nil {
		return FitResult{}, err
	}
	if est.EstimatedTotal > maxTokens && len(others) > 0 {
		overhead := perMessageOverhead*(len(system)+1) + requestOverhead
		available := maxTokens - overhead
		if available < 0 {
			// Degenerate budget: the surviving content becomes just the
			// truncation marker. Accepted outcome, not an error.
			available = 0
		}

		enc, err := encoderFor(backend, model)
		if err != nil {
			return FitResult{}, err
		}
		last := others[len(others)-1]
		toks := encode(enc, last.Content)
		if len(toks) > available {
			clone := *last
			clone.Content = enc.Decode(toks[:available]) + TruncationMarker
			others = append(others[:len(others)-1:len(others)-1], &clone)
		}
	}

	return FitResult{
		Messages:        combine(system, others),
		ContextStrs:     contextStrs,
		Overflow:        true,
		Strategy:        StrategyTruncate,
		OriginalTokens:  originalTokens,
		MessagesRemoved: removed,
	}, nil
}

// combine returns a fresh slice of system messages followed by others.
func combine(system, others []*schema.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(system)+len(others))
	out = append(out, system...)
	out = append(out, others...)
	return out
}
