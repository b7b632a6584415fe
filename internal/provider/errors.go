package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorKind is a closed classification of provider failures. Each backend
// maps its native errors into a Kind at the dispatch boundary, so retry
// policy never needs to inspect provider-specific messages.
type ErrorKind int

const (
	// KindUnknown is an unclassified failure. Not retryable.
	KindUnknown ErrorKind = iota
	// KindRateLimited is an HTTP 429 or equivalent throttle response.
	KindRateLimited
	// KindServerError is a 5xx-class provider failure.
	KindServerError
	// KindTimeout is a request timeout or deadline expiry.
	KindTimeout
	// KindContextOverflow is the provider rejecting the prompt for
	// exceeding the model's context window.
	KindContextOverflow
	// KindInvalidRequest is a malformed or unsupported request (4xx other
	// than auth/rate-limit).
	KindInvalidRequest
	// KindAuth is a credential failure (401/403).
	KindAuth
)

// String returns a stable label for metrics and logs.
func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	case KindTimeout:
		return "timeout"
	case KindContextOverflow:
		return "context_overflow"
	case KindInvalidRequest:
		return "invalid_request"
	case KindAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// retryable reports whether a failure of this kind is transient enough to
// retry: throttles, server-side failures, timeouts, and context overflow
// (the caller decides how many overflow retries it tolerates).
func (k ErrorKind) retryable() bool {
	switch k {
	case KindRateLimited, KindServerError, KindTimeout, KindContextOverflow:
		return true
	default:
		return false
	}
}

// Error is a classified provider failure.
type Error struct {
	// Backend is the provider that produced the failure.
	Backend Backend
	// Kind is the classification assigned at the dispatch boundary.
	Kind ErrorKind
	// Status is the HTTP status code, 0 when not applicable.
	Status int
	// Message is the provider's error text (possibly truncated).
	Message string
	// Err is the underlying error, nil for pure API failures.
	Err error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %s", e.Backend, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Backend, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf classifies any error. A *Error carries its Kind directly; other
// errors fall back to transport-level checks and, last, to message text —
// the same signals the upstream APIs put in free-form errors.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return classifyMessage(err.Error())
}

// Retryable reports whether err represents a transient failure.
func Retryable(err error) bool {
	return KindOf(err).retryable()
}

// classifyStatus maps an HTTP status code to an ErrorKind.
func classifyStatus(status int) ErrorKind {
	switch {
	case status == 429:
		return KindRateLimited
	case status >= 500:
		return KindServerError
	case status == 408:
		return KindTimeout
	case status == 401 || status == 403:
		return KindAuth
	case status >= 400:
		return KindInvalidRequest
	default:
		return KindUnknown
	}
}

// classifyMessage is the free-text fallback for errors that arrive without
// a status code (SDK and transport errors).
func classifyMessage(msg string) ErrorKind {
	m := strings.ToLower(msg)
	switch {
	case overflowMessage(m):
		return KindContextOverflow
	case strings.Contains(m, "429") || strings.Contains(m, "rate limit"):
		return KindRateLimited
	case strings.Contains(m, "500") || strings.Contains(m, "502") ||
		strings.Contains(m, "503") || strings.Contains(m, "504") ||
		strings.Contains(m, "server error"):
		return KindServerError
	case strings.Contains(m, "timeout") || strings.Contains(m, "timed out"):
		return KindTimeout
	default:
		return KindUnknown
	}
}

// overflowMessage detects a provider-side context-window rejection in error
// text. Matches what OpenAI-compatible APIs and Gemini actually emit.
func overflowMessage(msg string) bool {
	m := strings.ToLower(msg)
	if strings.Contains(m, "context_length_exceeded") {
		return true
	}
	return strings.Contains(m, "context") &&
		(strings.Contains(m, "length") || strings.Contains(m, "too long"))
}
