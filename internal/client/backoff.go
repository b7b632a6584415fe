package client

import (
	"math"
	"math/rand/v2"
	"time"
)

// backoffDelay computes the sleep before the retry that follows attempt n
// (0-indexed): base×2^n plus a uniform random jitter in [0, jitter×base×2^n].
// Jitter is only ever added, so the delay is always at least the
// deterministic exponential term.
func (c *Client) backoffDelay(attempt int) time.Duration {
	exp := float64(c.backoffBase) * math.Pow(2, float64(attempt))
	jitter := rand.Float64() * c.backoffJitter * exp
	return time.Duration(exp + jitter)
}
