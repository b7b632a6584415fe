// Package provider defines the ChatBackend interface and factory for
// dispatching normalized chat requests to LLM providers.
// Supported backends: OpenAI, Google Gemini, Groq.
//
// Backends are pure translation layers: they convert messages and sampling
// parameters into each provider's wire shape, surface the provider's native
// usage report untouched, and map native failures into a closed ErrorKind
// taxonomy at the boundary. They never retry, estimate tokens, or enforce
// budgets — that policy lives with the caller.
package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino/schema"

	"github.com/piyumiimasha/promptlab-go/internal/token"
)

// Backend enumerates the supported LLM providers.
type Backend string

const (
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendGoogle selects Google Gemini via AI Studio.
	BackendGoogle Backend = "google"
	// BackendGroq selects the Groq API (OpenAI-compatible).
	BackendGroq Backend = "groq"
)

// Config holds backend-level configuration. Credentials are read once at
// construction and held for the backend's lifetime.
type Config struct {
	// Backend identifies which provider to use.
	Backend Backend

	// Model is the model identifier (e.g. "gpt-4o-mini", "gemini-2.0-flash").
	Model string

	// APIKey is the authentication credential for the selected provider.
	APIKey string

	// BaseURL overrides the default API endpoint (Gemini ignores it).
	// Mainly useful for tests and proxies.
	BaseURL string

	// HTTPClient overrides the default HTTP client for the OpenAI and Groq
	// backends. Nil uses http.DefaultClient semantics.
	HTTPClient *http.Client
}

// Validate reports configuration errors up front so callers fail at
// construction rather than on the first request.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("provider: model is required")
	}
	switch c.Backend {
	case BackendOpenAI, BackendGoogle, BackendGroq:
	default:
		return fmt.Errorf("provider: unknown backend %q — valid values: openai, google, groq", c.Backend)
	}
	if c.APIKey == "" {
		return fmt.Errorf("provider: API key is required for %s backend", c.Backend)
	}
	return nil
}

// Request is a normalized chat request. Nil sampling fields are omitted
// from the wire request so providers apply their own defaults.
type Request struct {
	// Messages is the conversation, in order.
	Messages []*schema.Message

	// Temperature is the sampling temperature. Ignored for reasoning-tier
	// models, which do not accept it.
	Temperature *float32

	// MaxTokens caps the completion length.
	MaxTokens *int

	// JSONMode requests a JSON response format where the backend supports
	// it (OpenAI only); other backends rely on prompt instructions.
	JSONMode bool
}

// Result is a normalized chat response.
type Result struct {
	// Text is the completion text. Always present — empty string when the
	// provider returned no content.
	Text string

	// Usage is the provider's native usage report, nil when none was
	// returned. The shape (OpenAI vs Gemini field names) is preserved for
	// the reconciler.
	Usage token.ProviderUsage

	// Raw is the decoded provider response for callers that need
	// provider-specific fields.
	Raw any
}

// ChatBackend is a single provider's chat entry point.
// Implementations must be safe for concurrent use.
type ChatBackend interface {
	// Backend identifies the provider.
	Backend() Backend

	// Complete performs one chat completion round-trip. Failures are
	// returned as *Error with the Kind already classified.
	Complete(ctx context.Context, req *Request) (*Result, error)
}

// New constructs a ChatBackend from an explicit Config, delegating to the
// appropriate backend constructor. The context is used only for client
// construction (Gemini), never stored.
func New(ctx context.Context, cfg *Config) (ChatBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendOpenAI:
		return newOpenAI(cfg), nil
	case BackendGroq:
		return newGroq(cfg), nil
	case BackendGoogle:
		return newGemini(ctx, cfg)
	default:
		// Unreachable after Validate, kept for exhaustiveness.
		return nil, fmt.Errorf("provider: unknown backend %q", cfg.Backend)
	}
}
