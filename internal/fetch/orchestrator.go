// internal/fetch/orchestrator.go
package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"trendscout/internal/cache"
	"trendscout/internal/common/config"
	apperrors "trendscout/internal/common/errors"
	"trendscout/internal/common/logger"
	"trendscout/internal/common/metrics"
	"trendscout/internal/models"
	"trendscout/internal/sources"
)

// Result is one (candidate, source) fetch outcome. Exactly one of Records
// and Err is meaningful.
type Result struct {
	Records []models.SignalRecord
	Err     *apperrors.FetchError
	Cached  bool
}

// BatchResult maps candidate ID -> source name -> Result.
type BatchResult map[string]map[string]Result

// DurationRecorder receives per-source fetch timings. Satisfied by
// observability.Observability; nil disables recording.
type DurationRecorder interface {
	RecordFetch(ctx context.Context, source string, duration time.Duration, status string)
}

type sourceState struct {
	limiter *rate.Limiter
	breaker *breaker
}

// Orchestrator fans fetches out across candidates and sources with a global
// in-flight cap, per-source rate limiting, retry with capped exponential
// backoff, and a per-source circuit breaker. Failures are recorded per
// (candidate, source); they never abort the batch. Only a cache backend
// failure is fatal.
type Orchestrator struct {
	cfg      config.FetchConfig
	ttl      time.Duration
	cache    *cache.Cache
	adapters map[string]sources.Adapter
	recorder DurationRecorder
	log      logger.Logger

	mu    sync.Mutex
	state map[string]*sourceState

	// sleep is swapped out in tests to avoid real waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewOrchestrator(cfg config.FetchConfig, ttl time.Duration, c *cache.Cache, adapters map[string]sources.Adapter, recorder DurationRecorder, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		ttl:      ttl,
		cache:    c,
		adapters: adapters,
		recorder: recorder,
		log:      log.WithFields(map[string]interface{}{"component": "fetch"}),
		state:    make(map[string]*sourceState),
		sleep:    sleepContext,
	}
}

func (o *Orchestrator) recordFetch(ctx context.Context, source string, d time.Duration, status string) {
	if o.recorder != nil {
		o.recorder.RecordFetch(ctx, source, d, status)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (o *Orchestrator) sourceState(name string) *sourceState {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, ok := o.state[name]
	if !ok {
		st = &sourceState{
			limiter: rate.NewLimiter(rate.Limit(o.cfg.RatePerSecond), o.cfg.Burst),
			breaker: newBreaker(name, o.cfg.Breaker),
		}
		o.state[name] = st
	}
	return st
}

// Fetch gathers signals for every (candidate, source) pair. The returned
// BatchResult always covers every pair; a non-nil error means the cache
// backend failed and the batch result is incomplete.
func (o *Orchestrator) Fetch(ctx context.Context, candidates []models.Candidate) (BatchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(BatchResult, len(candidates))
	for _, c := range candidates {
		results[c.ID()] = make(map[string]Result, len(o.adapters))
	}

	var (
		wg       sync.WaitGroup
		resMu    sync.Mutex
		fatalMu  sync.Mutex
		fatalErr error
	)
	sem := make(chan struct{}, o.cfg.MaxInFlight)

	for _, cand := range candidates {
		for name, adapter := range o.adapters {
			wg.Add(1)
			go func(cand models.Candidate, name string, adapter sources.Adapter) {
				defer wg.Done()

				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					// The pair never started; it still gets an explicit entry.
					resMu.Lock()
					results[cand.ID()][name] = Result{Err: apperrors.NewFetchTimeoutError(
						name, "batch deadline reached before fetch started")}
					resMu.Unlock()
					return
				}

				res, err := o.fetchOne(ctx, cand, name, adapter)
				if err != nil {
					fatalMu.Lock()
					if fatalErr == nil {
						fatalErr = err
						cancel()
					}
					fatalMu.Unlock()
					return
				}

				resMu.Lock()
				results[cand.ID()][name] = res
				resMu.Unlock()
			}(cand, name, adapter)
		}
	}
	wg.Wait()

	fatalMu.Lock()
	defer fatalMu.Unlock()
	return results, fatalErr
}

// fetchOne serves one pair from cache or network. The returned error is
// reserved for cache backend failures; source failures come back inside the
// Result.
func (o *Orchestrator) fetchOne(ctx context.Context, cand models.Candidate, name string, adapter sources.Adapter) (Result, error) {
	key := cache.Key{Source: name, Query: cand.Keyword, Category: cand.Category}

	records, hit, err := o.cache.Get(ctx, key)
	if err != nil {
		return Result{}, err
	}
	if hit {
		return Result{Records: records, Cached: true}, nil
	}

	st := o.sourceState(name)
	bo := newBackoff(o.cfg.Retry)

	var lastErr *apperrors.FetchError
	for attempt := 0; attempt < o.cfg.Retry.MaxAttempts; attempt++ {
		if !st.breaker.allow() {
			metrics.FetchRequests.WithLabelValues(name, "short_circuited").Inc()
			return Result{Err: apperrors.NewUnavailableError(name, "circuit open")}, nil
		}

		if err := st.limiter.Wait(ctx); err != nil {
			return Result{Err: apperrors.NewFetchTimeoutError(name, "deadline reached waiting for rate limiter")}, nil
		}

		start := time.Now()
		recs, err := adapter.Fetch(ctx, cand.Keyword, cand.Category)
		elapsed := time.Since(start)
		if err == nil {
			st.breaker.recordSuccess()
			metrics.FetchRequests.WithLabelValues(name, "success").Inc()
			o.recordFetch(ctx, name, elapsed, "success")
			if err := o.cache.Put(ctx, key, recs, o.ttl); err != nil {
				return Result{}, err
			}
			return Result{Records: recs}, nil
		}

		fe, ok := err.(*apperrors.FetchError)
		if !ok {
			fe = apperrors.NewUnavailableError(name, err.Error())
		}
		st.breaker.recordFailure()
		metrics.FetchRequests.WithLabelValues(name, string(fe.Kind)).Inc()
		o.recordFetch(ctx, name, elapsed, string(fe.Kind))
		lastErr = fe

		if !fe.Retryable || attempt == o.cfg.Retry.MaxAttempts-1 {
			break
		}

		metrics.FetchRetries.WithLabelValues(name).Inc()
		delay := bo.delay(attempt)
		o.log.Debug("retrying source fetch", map[string]interface{}{
			"source":   name,
			"query":    cand.Keyword,
			"attempt":  attempt + 1,
			"delay_ms": delay.Milliseconds(),
			"kind":     string(fe.Kind),
		})
		if err := o.sleep(ctx, delay); err != nil {
			return Result{Err: apperrors.NewFetchTimeoutError(name, "deadline reached during retry backoff")}, nil
		}
	}

	o.log.Warn("source fetch failed", map[string]interface{}{
		"source": name,
		"query":  cand.Keyword,
		"kind":   string(lastErr.Kind),
		"error":  lastErr.Message,
	})
	return Result{Err: lastErr}, nil
}
