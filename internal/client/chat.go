package client

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/piyumiimasha/promptlab-go/internal/provider"
	"github.com/piyumiimasha/promptlab-go/internal/token"
)

// ChatRequest is one chat call. Messages are required; everything else is
// optional and falls back to provider defaults.
type ChatRequest struct {
	// Messages is the conversation, in order.
	Messages []*schema.Message

	// ContextStrs are auxiliary context strings (e.g. retrieved documents)
	// counted separately from the messages.
	ContextStrs []string

	// Temperature is the sampling temperature. Nil omits it.
	Temperature *float32

	// MaxTokens caps the completion length. Nil omits it.
	MaxTokens *int

	// JSONMode requests a JSON response format where supported. Prefer
	// JSONChat over setting this directly.
	JSONMode bool
}

// CallMeta carries retry metadata for one completed call.
type CallMeta struct {
	// RetryCount is how many retries were performed (0 = first attempt
	// succeeded).
	RetryCount int
	// BackoffTotal is the cumulative time spent sleeping between attempts.
	BackoffTotal time.Duration
	// OverflowHandled is true when the pre-flight budget check truncated
	// the request to fit the hard prompt cap.
	OverflowHandled bool
}

// CallOutcome is the result of a successful call. The usage record is the
// only part intended to outlive the call (for logging).
type CallOutcome struct {
	// Text is the completion text (may be empty).
	Text string
	// Usage merges the pre-call estimate with provider-reported counts.
	Usage token.UsageRecord
	// Latency is the wall-clock duration of the successful attempt only,
	// not cumulative across retries.
	Latency time.Duration
	// Raw is the decoded provider response.
	Raw any
	// Meta carries retry accounting.
	Meta CallMeta
}

// Chat sends one chat completion with token budgeting and automatic retry.
//
// Flow: estimate tokens; if a hard prompt cap is configured and exceeded,
// truncate to fit and re-estimate; then attempt the call up to
// MaxRetries+1 times, sleeping an exponentially growing jittered delay
// between retryable failures. On success the provider's usage report is
// reconciled against the estimate.
//
// Terminal failures are returned as *CallError, except a provider-side
// context overflow that pre-flight fitting did not already handle, which
// is returned as *ContextOverflowError so the caller can re-enter through
// a summarization pass.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*CallOutcome, error) {
	backend := string(c.backend.Backend())

	est, err := token.CountMessages(req.Messages, backend, c.model, req.ContextStrs)
	if err != nil {
		return nil, fmt.Errorf("client: estimate tokens: %w", err)
	}

	msgs := req.Messages
	contextStrs := req.ContextStrs
	overflowHandled := false

	if c.hardPromptCap > 0 && est.EstimatedTotal > c.hardPromptCap {
		fit, err := token.Fit(msgs, backend, c.model, c.hardPromptCap, token.StrategyTruncate, contextStrs)
		if err != nil {
			return nil, fmt.Errorf("client: fit within prompt cap: %w", err)
		}
		msgs, contextStrs = fit.Messages, fit.ContextStrs
		overflowHandled = fit.Overflow
		c.log.Debug("client: truncated request to hard prompt cap",
			"backend", backend,
			"original_tokens", fit.OriginalTokens,
			"cap", c.hardPromptCap,
			"messages_removed", fit.MessagesRemoved,
		)

		est, err = token.CountMessages(msgs, backend, c.model, contextStrs)
		if err != nil {
			return nil, fmt.Errorf("client: re-estimate tokens: %w", err)
		}
	}

	preq := &provider.Request{
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		JSONMode:    req.JSONMode,
	}

	// Retry state is scoped to this call and never shared.
	retryCount := 0
	var backoffTotal time.Duration
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, &CallError{RetryCount: retryCount, BackoffTotal: backoffTotal, Err: err}
			}
		}

		start := time.Now()
		res, err := c.backend.Complete(ctx, preq)
		if err == nil {
			latency := time.Since(start)
			usage := token.Reconcile(est, res.Usage)

			c.metrics.ObserveCall(backend, "ok", latency)
			c.metrics.ObserveUsage(backend, usage)

			return &CallOutcome{
				Text:    res.Text,
				Usage:   usage,
				Latency: latency,
				Raw:     res.Raw,
				Meta: CallMeta{
					RetryCount:      retryCount,
					BackoffTotal:    backoffTotal,
					OverflowHandled: overflowHandled,
				},
			}, nil
		}
		lastErr = err

		if attempt < c.maxRetries && provider.Retryable(err) {
			retryCount++
			delay := c.backoffDelay(attempt)
			backoffTotal += delay

			c.metrics.ObserveRetry(backend, delay)
			c.log.Warn("client: retrying after transient provider error",
				"backend", backend,
				"attempt", attempt+1,
				"max_attempts", c.maxRetries+1,
				"backoff", delay,
				"error", err,
			)

			if err := sleepCtx(ctx, delay); err != nil {
				// Cancelled mid-backoff: abort without touching the
				// provider again or fabricating a usage record.
				return nil, &CallError{
					RetryCount:   retryCount,
					BackoffTotal: backoffTotal,
					Err:          fmt.Errorf("cancelled during backoff: %w", err),
				}
			}
			continue
		}

		break
	}

	// A provider-side overflow the pre-flight fit did not handle is a
	// distinct signal: the caller should summarize and re-enter. If the
	// fit already truncated, propagating is the only option left.
	if provider.KindOf(lastErr) == provider.KindContextOverflow && !overflowHandled {
		c.metrics.ObserveCall(backend, "overflow", 0)
		return nil, &ContextOverflowError{Err: lastErr}
	}

	c.metrics.ObserveCall(backend, "error", 0)
	return nil, &CallError{RetryCount: retryCount, BackoffTotal: backoffTotal, Err: lastErr}
}

// JSONChat is Chat with a JSON response format requested where the backend
// supports it (OpenAI response_format; other backends rely on prompt
// instructions). Temperature defaults to 0 for deterministic extraction.
func (c *Client) JSONChat(ctx context.Context, req *ChatRequest) (*CallOutcome, error) {
	jreq := *req
	jreq.JSONMode = true
	if jreq.Temperature == nil {
		zero := float32(0)
		jreq.Temperature = &zero
	}
	return c.Chat(ctx, &jreq)
}

// sleepCtx blocks for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
