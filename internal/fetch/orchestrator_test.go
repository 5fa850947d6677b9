// internal/fetch/orchestrator_test.go
package fetch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendscout/internal/cache"
	"trendscout/internal/common/config"
	apperrors "trendscout/internal/common/errors"
	"trendscout/internal/common/logger"
	"trendscout/internal/models"
	"trendscout/internal/sources"
)

// stubAdapter scripts fetch outcomes call by call.
type stubAdapter struct {
	name string
	fn   func(call int) ([]models.SignalRecord, error)

	mu    sync.Mutex
	calls int
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Fetch(_ context.Context, query, category string) ([]models.SignalRecord, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	return s.fn(call)
}

func (s *stubAdapter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func okRecords(source, query string) []models.SignalRecord {
	return []models.SignalRecord{{
		Source:    source,
		Query:     query,
		RawVolume: 42,
		Timestamp: time.Now().UTC(),
	}}
}

func testFetchConfig() config.FetchConfig {
	return config.FetchConfig{
		MaxInFlight:   4,
		RatePerSecond: 10000,
		Burst:         1000,
		Retry: config.RetryConfig{
			MaxAttempts:    3,
			BaseDelayMS:    1,
			Multiplier:     2.0,
			MaxDelayMS:     10,
			JitterFraction: 0,
		},
		Breaker: config.BreakerConfig{
			FailureThreshold: 5,
			CooldownSec:      60,
		},
	}
}

func newTestOrchestrator(t *testing.T, adapters map[string]sources.Adapter, cfg config.FetchConfig) *Orchestrator {
	t.Helper()
	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	c := cache.New(16, store, logger.NewTestLogger(t))
	o := NewOrchestrator(cfg, time.Hour, c, adapters, nil, logger.NewTestLogger(t))
	o.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return o
}

// blockingAdapter parks until the context expires.
type blockingAdapter struct {
	name string
}

func (b *blockingAdapter) Name() string { return b.name }

func (b *blockingAdapter) Fetch(ctx context.Context, _, _ string) ([]models.SignalRecord, error) {
	<-ctx.Done()
	return nil, apperrors.NewFetchTimeoutError(b.name, "deadline exceeded")
}

// recordingObserver captures per-source timing calls.
type recordingObserver struct {
	mu    sync.Mutex
	calls []string // "source/status"
}

func (r *recordingObserver) RecordFetch(_ context.Context, source string, _ time.Duration, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, source+"/"+status)
}

func TestFetchPartialFailureKeepsGoodSources(t *testing.T) {
	good := &stubAdapter{name: "reddit", fn: func(int) ([]models.SignalRecord, error) {
		return okRecords("reddit", "ergonomic chair"), nil
	}}
	bad := &stubAdapter{name: "youtube", fn: func(int) ([]models.SignalRecord, error) {
		return nil, apperrors.NewAuthFailedError("youtube", "invalid key")
	}}

	o := newTestOrchestrator(t, map[string]sources.Adapter{"reddit": good, "youtube": bad}, testFetchConfig())

	cand := models.Candidate{Keyword: "ergonomic chair", Category: "home-office"}
	results, err := o.Fetch(context.Background(), []models.Candidate{cand})
	require.NoError(t, err)

	perSource := results[cand.ID()]
	require.Len(t, perSource, 2)

	assert.Nil(t, perSource["reddit"].Err)
	assert.Len(t, perSource["reddit"].Records, 1)

	require.NotNil(t, perSource["youtube"].Err)
	assert.Equal(t, apperrors.FetchAuthFailed, perSource["youtube"].Err.Kind)
	assert.Equal(t, 1, bad.callCount(), "auth failures must not be retried")
}

func TestFetchRetriesRetryableFailures(t *testing.T) {
	flaky := &stubAdapter{name: "google_trends", fn: func(call int) ([]models.SignalRecord, error) {
		if call < 3 {
			return nil, apperrors.NewRateLimitedError("google_trends", "429")
		}
		return okRecords("google_trends", "ergonomic chair"), nil
	}}

	o := newTestOrchestrator(t, map[string]sources.Adapter{"google_trends": flaky}, testFetchConfig())

	cand := models.Candidate{Keyword: "ergonomic chair"}
	results, err := o.Fetch(context.Background(), []models.Candidate{cand})
	require.NoError(t, err)

	res := results[cand.ID()]["google_trends"]
	assert.Nil(t, res.Err)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, 3, flaky.callCount())
}

func TestFetchExhaustsRetriesAndReportsLastError(t *testing.T) {
	down := &stubAdapter{name: "rss", fn: func(int) ([]models.SignalRecord, error) {
		return nil, apperrors.NewUnavailableError("rss", "503")
	}}

	cfg := testFetchConfig()
	o := newTestOrchestrator(t, map[string]sources.Adapter{"rss": down}, cfg)

	cand := models.Candidate{Keyword: "standing desk"}
	results, err := o.Fetch(context.Background(), []models.Candidate{cand})
	require.NoError(t, err)

	res := results[cand.ID()]["rss"]
	require.NotNil(t, res.Err)
	assert.Equal(t, apperrors.FetchUnavailable, res.Err.Kind)
	assert.Equal(t, cfg.Retry.MaxAttempts, down.callCount())
}

func TestFetchServesFromCacheWithoutCallingAdapter(t *testing.T) {
	adapter := &stubAdapter{name: "amazon", fn: func(int) ([]models.SignalRecord, error) {
		return okRecords("amazon", "ergonomic chair"), nil
	}}

	o := newTestOrchestrator(t, map[string]sources.Adapter{"amazon": adapter}, testFetchConfig())

	cand := models.Candidate{Keyword: "ergonomic chair", Category: "home-office"}
	_, err := o.Fetch(context.Background(), []models.Candidate{cand})
	require.NoError(t, err)
	require.Equal(t, 1, adapter.callCount())

	// Second batch hits the cache; the adapter is not consulted again.
	results, err := o.Fetch(context.Background(), []models.Candidate{cand})
	require.NoError(t, err)

	res := results[cand.ID()]["amazon"]
	assert.True(t, res.Cached)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, 1, adapter.callCount())
}

func TestFetchCircuitShortCircuitsAfterThreshold(t *testing.T) {
	down := &stubAdapter{name: "youtube", fn: func(int) ([]models.SignalRecord, error) {
		return nil, apperrors.NewUnavailableError("youtube", "503")
	}}

	cfg := testFetchConfig()
	cfg.Breaker.FailureThreshold = 2
	cfg.Retry.MaxAttempts = 2
	o := newTestOrchestrator(t, map[string]sources.Adapter{"youtube": down}, cfg)

	// First candidate burns through the threshold.
	first := models.Candidate{Keyword: "walking pad"}
	_, err := o.Fetch(context.Background(), []models.Candidate{first})
	require.NoError(t, err)
	require.Equal(t, 2, down.callCount())

	// Second candidate is rejected without touching the adapter.
	second := models.Candidate{Keyword: "balance board"}
	results, err := o.Fetch(context.Background(), []models.Candidate{second})
	require.NoError(t, err)

	res := results[second.ID()]["youtube"]
	require.NotNil(t, res.Err)
	assert.Equal(t, apperrors.FetchUnavailable, res.Err.Kind)
	assert.Equal(t, 2, down.callCount(), "open circuit must not reach the adapter")
}

func TestFetchDeadlineStillRecordsEveryPair(t *testing.T) {
	cfg := testFetchConfig()
	cfg.MaxInFlight = 1
	cfg.Retry.MaxAttempts = 1

	o := newTestOrchestrator(t, map[string]sources.Adapter{
		"youtube": &blockingAdapter{name: "youtube"},
		"reddit":  &blockingAdapter{name: "reddit"},
	}, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	cand := models.Candidate{Keyword: "ergonomic chair"}
	results, err := o.Fetch(ctx, []models.Candidate{cand})
	require.NoError(t, err)

	// One pair holds the in-flight slot until the deadline; the queued pair
	// never starts. Both must still appear with explicit timeout entries.
	perSource := results[cand.ID()]
	require.Len(t, perSource, 2, "every pair gets an entry even past the deadline")
	for source, res := range perSource {
		require.NotNil(t, res.Err, source)
		assert.Equal(t, apperrors.FetchTimeout, res.Err.Kind, source)
	}
}

func TestFetchRecordsPerSourceDurations(t *testing.T) {
	flaky := &stubAdapter{name: "reddit", fn: func(call int) ([]models.SignalRecord, error) {
		if call == 1 {
			return nil, apperrors.NewRateLimitedError("reddit", "429")
		}
		return okRecords("reddit", "ergonomic chair"), nil
	}}

	obs := &recordingObserver{}
	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	c := cache.New(16, store, logger.NewTestLogger(t))
	o := NewOrchestrator(testFetchConfig(), time.Hour, c, map[string]sources.Adapter{"reddit": flaky}, obs, logger.NewTestLogger(t))
	o.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	cand := models.Candidate{Keyword: "ergonomic chair"}
	_, err = o.Fetch(context.Background(), []models.Candidate{cand})
	require.NoError(t, err)

	assert.Equal(t, []string{"reddit/RATE_LIMITED", "reddit/success"}, obs.calls)
}

func TestFetchCoversEveryPair(t *testing.T) {
	a := &stubAdapter{name: "reddit", fn: func(int) ([]models.SignalRecord, error) {
		return okRecords("reddit", "x"), nil
	}}
	b := &stubAdapter{name: "rss", fn: func(int) ([]models.SignalRecord, error) {
		return okRecords("rss", "x"), nil
	}}

	o := newTestOrchestrator(t, map[string]sources.Adapter{"reddit": a, "rss": b}, testFetchConfig())

	cands := []models.Candidate{
		{Keyword: "air fryer"},
		{Keyword: "sous vide"},
		{Keyword: "rice cooker"},
	}
	results, err := o.Fetch(context.Background(), cands)
	require.NoError(t, err)

	require.Len(t, results, 3)
	for _, c := range cands {
		assert.Len(t, results[c.ID()], 2, "candidate %q missing a source result", c.Keyword)
	}
}
