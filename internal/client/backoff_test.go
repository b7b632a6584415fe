package client

import (
	"testing"
	"time"
)

func Test_BackoffDelay_Bounds(t *testing.T) {
	t.Parallel()
	fake := &fakeBackend{}
	c, err := New(fake, "gpt-4o", Config{
		BackoffBase:   100 * time.Millisecond,
		BackoffJitter: 0.25,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for attempt := 0; attempt < 4; attempt++ {
		exp := 100 * time.Millisecond << attempt
		max := exp + time.Duration(float64(exp)*0.25)
		for i := 0; i < 200; i++ {
			d := c.backoffDelay(attempt)
			if d < exp {
				t.Fatalf("attempt %d: delay %v below exponential floor %v", attempt, d, exp)
			}
			if d > max {
				t.Fatalf("attempt %d: delay %v above jitter ceiling %v", attempt, d, max)
			}
		}
	}
}

func Test_BackoffDelay_NoJitterIsDeterministic(t *testing.T) {
	t.Parallel()
	fake := &fakeBackend{}
	c, err := New(fake, "gpt-4o", Config{
		BackoffBase:   50 * time.Millisecond,
		BackoffJitter: -1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for attempt, want := range []time.Duration{
		50 * time.Millisecond,
		100 * time.Millisecond,
		200 * time.Millisecond,
	} {
		if d := c.backoffDelay(attempt); d != want {
			t.Errorf("attempt %d: delay = %v, want %v", attempt, d, want)
		}
	}
}

func Test_New_Defaults(t *testing.T) {
	t.Parallel()
	c, err := New(&fakeBackend{}, "gpt-4o", Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.maxRetries != DefaultMaxRetries {
		t.Errorf("maxRetries = %d, want %d", c.maxRetries, DefaultMaxRetries)
	}
	if c.backoffBase != DefaultBackoffBase {
		t.Errorf("backoffBase = %v, want %v", c.backoffBase, DefaultBackoffBase)
	}
	if c.backoffJitter != DefaultBackoffJitter {
		t.Errorf("backoffJitter = %v, want %v", c.backoffJitter, DefaultBackoffJitter)
	}
	if c.limiter != nil {
		t.Error("limiter should be nil when RequestsPerSecond is unset")
	}
}
