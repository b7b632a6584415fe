// Package client implements the request orchestrator for LLM calls: pre-call
// token estimation, hard-cap budget enforcement, the retry/backoff loop, and
// reconciliation of estimated vs provider-reported usage.
//
// One Chat call is one sequential flow — estimate, optional fit, then a
// bounded retry loop of blocking provider round-trips. Clients are safe for
// concurrent use: per-call retry state lives on the stack and configuration
// is read-only after construction.
package client

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/piyumiimasha/promptlab-go/internal/metrics"
	"github.com/piyumiimasha/promptlab-go/internal/provider"
)

const (
	// DefaultMaxRetries is the retry budget when the config leaves it unset
	// (initial attempt plus this many retries).
	DefaultMaxRetries = 3

	// DefaultBackoffBase is the base backoff delay for attempt 0.
	DefaultBackoffBase = 500 * time.Millisecond

	// DefaultBackoffJitter is the proportional jitter factor: the random
	// component added on top of the exponential term is uniform in
	// [0, jitter × exponential term].
	DefaultBackoffJitter = 0.25
)

// Config holds per-client call policy. New fills unset fields with the
// defaults above. A Config is read-only after construction and may be
// shared by many concurrent calls.
type Config struct {
	// MaxRetries bounds retries per call: at most MaxRetries+1 attempts.
	// Zero means DefaultMaxRetries; negative disables retries entirely.
	MaxRetries int

	// BackoffBase is the delay for attempt 0; attempt n waits
	// base×2^n plus jitter. Zero means DefaultBackoffBase.
	BackoffBase time.Duration

	// BackoffJitter is the proportional jitter factor. Zero means
	// DefaultBackoffJitter; negative disables jitter.
	BackoffJitter float64

	// HardPromptCap, when positive, is a hard token budget applied before
	// dispatch: over-budget requests are truncated to fit.
	HardPromptCap int

	// RequestsPerSecond, when positive, rate-limits provider attempts
	// (including retries) with a token bucket.
	RequestsPerSecond float64

	// Burst is the rate limiter burst size. Defaults to 1 when
	// RequestsPerSecond is set.
	Burst int

	// Logger receives per-attempt debug/warn logs. Nil uses slog.Default.
	Logger *slog.Logger

	// Metrics receives call/retry/usage observations. Nil disables
	// instrumentation.
	Metrics *metrics.Metrics
}

// Client dispatches chat requests to a single backend with retry, budget,
// and usage accounting. Construct with New; safe for concurrent use.
type Client struct {
	backend provider.ChatBackend
	model   string

	maxRetries    int
	backoffBase   time.Duration
	backoffJitter float64
	hardPromptCap int

	limiter *rate.Limiter
	log     *slog.Logger
	metrics *metrics.Metrics
}

// New constructs a Client over an already-constructed backend. The model
// identifier is used for token estimation and must match the backend's
// configured model.
func New(backend provider.ChatBackend, model string, cfg Config) (*Client, error) {
	if backend == nil {
		return nil, fmt.Errorf("client: backend is required")
	}
	if model == "" {
		return nil, fmt.Errorf("client: model is required")
	}

	c := &Client{
		backend:       backend,
		model:         model,
		maxRetries:    cfg.MaxRetries,
		backoffBase:   cfg.BackoffBase,
		backoffJitter: cfg.BackoffJitter,
		hardPromptCap: cfg.HardPromptCap,
		log:           cfg.Logger,
		metrics:       cfg.Metrics,
	}
	if c.maxRetries == 0 {
		c.maxRetries = DefaultMaxRetries
	} else if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.backoffBase <= 0 {
		c.backoffBase = DefaultBackoffBase
	}
	if c.backoffJitter == 0 {
		c.backoffJitter = DefaultBackoffJitter
	} else if c.backoffJitter < 0 {
		c.backoffJitter = 0
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c, nil
}

// Backend returns the backend identifier this client dispatches to.
func (c *Client) Backend() provider.Backend { return c.backend.Backend() }

// Model returns the model identifier this client estimates and calls with.
func (c *Client) Model() string { return c.model }
