// internal/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendscout/internal/common/config"
	apperrors "trendscout/internal/common/errors"
	"trendscout/internal/common/logger"
	"trendscout/internal/fetch"
	"trendscout/internal/models"
)

// stubFetcher returns a canned batch result.
type stubFetcher struct {
	batch fetch.BatchResult
	err   error
}

func (s *stubFetcher) Fetch(_ context.Context, _ []models.Candidate) (fetch.BatchResult, error) {
	return s.batch, s.err
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg
}

func newTestPipeline(t *testing.T, cfg *config.Config, f Fetcher) *Pipeline {
	t.Helper()
	p, err := New(cfg, f, logger.NewTestLogger(t))
	require.NoError(t, err)
	return p
}

func risingRecords(source string, now time.Time) []models.SignalRecord {
	return []models.SignalRecord{
		{Source: source, RawVolume: 500, Timestamp: now.Add(-9 * 24 * time.Hour)},
		{Source: source, RawVolume: 1500, Timestamp: now.Add(-5 * 24 * time.Hour)},
		{Source: source, RawVolume: 6000, Timestamp: now.Add(-24 * time.Hour)},
		{Source: source, RawVolume: 7000, Timestamp: now.Add(-6 * time.Hour)},
	}
}

func TestRunProducesReportForHealthyCandidate(t *testing.T) {
	now := time.Now().UTC()
	cand := models.Candidate{Keyword: "buy ergonomic chair", Category: "home-office"}

	fetcher := &stubFetcher{batch: fetch.BatchResult{
		cand.ID(): {
			"reddit":        {Records: risingRecords("reddit", now)},
			"google_trends": {Records: risingRecords("google_trends", now)},
		},
	}}

	p := newTestPipeline(t, testConfig(), fetcher)
	summary, err := p.Run(context.Background(), []models.Candidate{cand})
	require.NoError(t, err)

	require.Len(t, summary.Reports, 1)
	r := summary.Reports[0]
	assert.Equal(t, cand.ID(), r.CandidateID)
	assert.Greater(t, r.Score.Opportunity, 60.0, "rising commercial keyword should score well")
	assert.NotEmpty(t, r.Classification.Tier)
	assert.Len(t, r.Values, 3, "all three revenue models configured by default")
	assert.Greater(t, r.BestValueUSD, 0.0)
	assert.NotEmpty(t, summary.BatchID)
	assert.Equal(t, 1, summary.Analyzed)
	assert.Equal(t, 0, summary.Failed)
}

func TestRunPartialSourceFailureStillReports(t *testing.T) {
	now := time.Now().UTC()
	cand := models.Candidate{Keyword: "best standing desk"}

	fetcher := &stubFetcher{batch: fetch.BatchResult{
		cand.ID(): {
			"reddit":  {Records: risingRecords("reddit", now)},
			"youtube": {Err: apperrors.NewFetchTimeoutError("youtube", "deadline exceeded")},
		},
	}}

	p := newTestPipeline(t, testConfig(), fetcher)
	summary, err := p.Run(context.Background(), []models.Candidate{cand})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Analyzed, "partial data still yields a report")
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "youtube", summary.Failures[0].Source)
	assert.Equal(t, "TIMEOUT", summary.Failures[0].Kind)
}

func TestRunAllSourcesFailedMeansFailedCandidate(t *testing.T) {
	cand := models.Candidate{Keyword: "walking pad"}

	fetcher := &stubFetcher{batch: fetch.BatchResult{
		cand.ID(): {
			"reddit":  {Err: apperrors.NewUnavailableError("reddit", "503")},
			"youtube": {Err: apperrors.NewRateLimitedError("youtube", "429")},
		},
	}}

	p := newTestPipeline(t, testConfig(), fetcher)
	summary, err := p.Run(context.Background(), []models.Candidate{cand})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Analyzed)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, summary.Failures, 2)
}

func TestRunNoFetchEntriesMeansFailedCandidate(t *testing.T) {
	cand := models.Candidate{Keyword: "ergonomic chair"}

	// The fetch stage returned nothing at all for this candidate.
	fetcher := &stubFetcher{batch: fetch.BatchResult{}}

	p := newTestPipeline(t, testConfig(), fetcher)
	summary, err := p.Run(context.Background(), []models.Candidate{cand})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Analyzed, "no data must not produce a report")
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "NO_DATA", summary.Failures[0].Kind)
	assert.Equal(t, cand.ID(), summary.Failures[0].Candidate)
}

func TestRunPrefilterExcludesBeforeScoring(t *testing.T) {
	now := time.Now().UTC()
	cfg := testConfig()
	cfg.Rules.Prefilter = []config.RuleConfig{
		{Name: "branded", Action: "exclude", Pattern: `\bnike\b`},
	}

	cand := models.Candidate{Keyword: "nike running shoes"}
	fetcher := &stubFetcher{batch: fetch.BatchResult{
		cand.ID(): {"reddit": {Records: risingRecords("reddit", now)}},
	}}

	p := newTestPipeline(t, cfg, fetcher)
	summary, err := p.Run(context.Background(), []models.Candidate{cand})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Analyzed)
	assert.Equal(t, 1, summary.Excluded)
	assert.Empty(t, summary.Reports)
}

func TestRunBrokenValueModelDoesNotBlockOthers(t *testing.T) {
	now := time.Now().UTC()
	cfg := testConfig()
	cfg.Value.AdSense.RPMUSD = -1 // broken assumption set

	cand := models.Candidate{Keyword: "buy mechanical keyboard"}
	fetcher := &stubFetcher{batch: fetch.BatchResult{
		cand.ID(): {"reddit": {Records: risingRecords("reddit", now)}},
	}}

	p := newTestPipeline(t, cfg, fetcher)
	summary, err := p.Run(context.Background(), []models.Candidate{cand})
	require.NoError(t, err)

	require.Len(t, summary.Reports, 1)
	assert.Len(t, summary.Reports[0].Values, 2, "affiliate and leadgen survive")

	require.NotEmpty(t, summary.Failures)
	assert.Equal(t, "VALUE_ESTIMATION", summary.Failures[0].Kind)
	assert.Equal(t, "adsense", summary.Failures[0].Source)
}

func TestRunCandidateIsolation(t *testing.T) {
	now := time.Now().UTC()
	good := models.Candidate{Keyword: "buy ergonomic chair"}
	bad := models.Candidate{Keyword: "walking pad"}

	fetcher := &stubFetcher{batch: fetch.BatchResult{
		good.ID(): {"reddit": {Records: risingRecords("reddit", now)}},
		bad.ID():  {"reddit": {Err: apperrors.NewUnavailableError("reddit", "503")}},
	}}

	p := newTestPipeline(t, testConfig(), fetcher)
	summary, err := p.Run(context.Background(), []models.Candidate{good, bad})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Analyzed)
	assert.Equal(t, 1, summary.Failed)
}

func TestRunPropagatesFatalFetchError(t *testing.T) {
	fatal := apperrors.NewCacheUnavailableError("file", assert.AnError)
	fetcher := &stubFetcher{err: fatal}

	p := newTestPipeline(t, testConfig(), fetcher)
	_, err := p.Run(context.Background(), []models.Candidate{{Keyword: "x"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, fatal)
}

func TestNewRejectsInvalidStageConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Intent.Patterns = []config.IntentPattern{{Pattern: `(unclosed`, Weight: 0.5}}

	_, err := New(cfg, &stubFetcher{}, logger.NewNoOpLogger())
	require.Error(t, err)
	var cfgErr *apperrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
