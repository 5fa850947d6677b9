// internal/fetch/backoff.go
package fetch

import (
	"math"
	"math/rand"
	"time"

	"trendscout/internal/common/config"
)

// backoff computes capped exponential retry delays. attempt is zero-based:
// attempt 0 waits the base delay, each subsequent attempt multiplies it,
// and every delay is capped at the configured maximum.
type backoff struct {
	base       time.Duration
	multiplier float64
	max        time.Duration
	jitter     float64 // fraction of the delay, 0 disables
	rng        *rand.Rand
}

func newBackoff(cfg config.RetryConfig) *backoff {
	return &backoff{
		base:       cfg.BaseDelay(),
		multiplier: cfg.Multiplier,
		max:        cfg.MaxDelay(),
		jitter:     cfg.JitterFraction,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// delay returns the wait before retry number attempt (zero-based). With
// jitter disabled the sequence is deterministic and non-decreasing.
func (b *backoff) delay(attempt int) time.Duration {
	d := float64(b.base) * math.Pow(b.multiplier, float64(attempt))
	if d > float64(b.max) {
		d = float64(b.max)
	}
	if b.jitter > 0 {
		// uniform in [d*(1-jitter), d*(1+jitter)]
		d += d * b.jitter * (2*b.rng.Float64() - 1)
		if d > float64(b.max) {
			d = float64(b.max)
		}
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
