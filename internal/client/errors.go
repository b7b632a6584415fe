package client

import (
	"fmt"
	"time"
)

// CallError is a terminal call failure: either a non-retryable error or
// retries exhausted. It carries the retry accounting so callers can log
// how much effort the call consumed before failing.
type CallError struct {
	// RetryCount is how many retries were performed before giving up.
	RetryCount int
	// BackoffTotal is the cumulative time spent in backoff sleeps.
	BackoffTotal time.Duration
	// Err is the last underlying error.
	Err error
}

func (e *CallError) Error() string {
	if e.RetryCount > 0 {
		return fmt.Sprintf("client: call failed after %d retries (%s backoff): %v",
			e.RetryCount, e.BackoffTotal, e.Err)
	}
	return fmt.Sprintf("client: call failed: %v", e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// ContextOverflowError signals that the provider rejected the prompt for
// exceeding the model's context window and pre-flight fitting had not
// already truncated it. The caller should run a summarization pass over
// the conversation and retry through the summarize path.
type ContextOverflowError struct {
	// Err is the provider's overflow error.
	Err error
}

func (e *ContextOverflowError) Error() string {
	return fmt.Sprintf("client: context window exceeded, apply summarization before retrying: %v", e.Err)
}

func (e *ContextOverflowError) Unwrap() error { return e.Err }
