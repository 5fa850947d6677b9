// internal/fetch/breaker.go
package fetch

import (
	"sync"
	"time"

	"trendscout/internal/common/config"
	"trendscout/internal/common/metrics"
)

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// breaker is a per-source circuit breaker. It opens after a run of
// consecutive failures, rejects calls during the cooldown, then lets a
// single probe through; the probe's outcome decides the next state.
type breaker struct {
	mu        sync.Mutex
	source    string
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	state    breakerState
	failures int
	openedAt time.Time
	probing  bool
}

func newBreaker(source string, cfg config.BreakerConfig) *breaker {
	return &breaker{
		source:    source,
		threshold: cfg.FailureThreshold,
		cooldown:  cfg.Cooldown(),
		now:       time.Now,
		state:     breakerClosed,
	}
}

// allow reports whether a call may proceed. In the open state it flips to
// half-open once the cooldown has elapsed and admits exactly one probe.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerClosed:
		return true
	case breakerOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.state = breakerHalfOpen
		b.probing = true
		return true
	case breakerHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
	return false
}

func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = breakerClosed
	b.failures = 0
	b.probing = false
}

func (b *breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerHalfOpen {
		b.trip()
		return
	}
	b.failures++
	if b.failures >= b.threshold {
		b.trip()
	}
}

// trip must be called with the mutex held.
func (b *breaker) trip() {
	b.state = breakerOpen
	b.failures = 0
	b.probing = false
	b.openedAt = b.now()
	metrics.CircuitOpened.WithLabelValues(b.source).Inc()
}
