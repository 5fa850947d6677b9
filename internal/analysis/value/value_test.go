// internal/analysis/value/value_test.go
package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendscout/internal/common/config"
	apperrors "trendscout/internal/common/errors"
)

func testValueConfig() config.ValueConfig {
	return config.ValueConfig{
		Models: []string{ModelAdSense, ModelAffiliate, ModelLeadGen},
		AdSense: config.AdSenseConfig{
			CTRSerp:    0.25,
			ClickShare: 0.35,
			RPMUSD:     10,
		},
		Affiliate: config.AffiliateConfig{
			CTR:            0.12,
			ConversionRate: 0.04,
			AOVUSD:         80,
			Commission:     0.03,
		},
		LeadGen: config.LeadGenConfig{
			CTR:            0.15,
			ConversionRate: 0.05,
			LeadValueUSD:   25,
		},
		RangeLowFactor:  0.75,
		RangeHighFactor: 1.25,
	}
}

func TestBuildInstantiatesConfiguredModels(t *testing.T) {
	estimators, err := Build(testValueConfig())
	require.NoError(t, err)
	require.Len(t, estimators, 3)
	assert.Equal(t, ModelAdSense, estimators[0].Model())
	assert.Equal(t, ModelAffiliate, estimators[1].Model())
	assert.Equal(t, ModelLeadGen, estimators[2].Model())
}

func TestBuildRejectsUnknownModel(t *testing.T) {
	cfg := testValueConfig()
	cfg.Models = []string{"dropshipping"}

	_, err := Build(cfg)
	require.Error(t, err)
	var cfgErr *apperrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestAdSenseEstimate(t *testing.T) {
	estimators, err := Build(testValueConfig())
	require.NoError(t, err)

	// 15000 searches -> 1312.5 pageviews -> $13.125/month at $10 RPM.
	est, err := estimators[0].Estimate("ergonomic chair", 15000)
	require.NoError(t, err)
	assert.InDelta(t, 13.125, est.MonthlyUSD, 1e-9)
	assert.InDelta(t, 9.84375, est.LowUSD, 1e-9)
	assert.InDelta(t, 16.40625, est.HighUSD, 1e-9)
	assert.Greater(t, est.LowUSD, 0.0)
	assert.Equal(t, 0.25, est.Assumptions["ctr_serp"])
}

func TestAffiliateEstimate(t *testing.T) {
	estimators, err := Build(testValueConfig())
	require.NoError(t, err)

	// 15000 * 0.12 * 0.04 = 72 sales * $80 * 3% = $172.80/month.
	est, err := estimators[1].Estimate("ergonomic chair", 15000)
	require.NoError(t, err)
	assert.InDelta(t, 172.8, est.MonthlyUSD, 1e-9)
	assert.InDelta(t, 129.6, est.LowUSD, 1e-9)
	assert.InDelta(t, 216.0, est.HighUSD, 1e-9)
}

func TestLeadGenEstimate(t *testing.T) {
	estimators, err := Build(testValueConfig())
	require.NoError(t, err)

	// 15000 * 0.15 * 0.05 = 112.5 leads * $25 = $2812.50/month.
	est, err := estimators[2].Estimate("personal injury lawyer", 15000)
	require.NoError(t, err)
	assert.InDelta(t, 2812.5, est.MonthlyUSD, 1e-9)
}

func TestEstimateLowNeverExceedsHigh(t *testing.T) {
	estimators, err := Build(testValueConfig())
	require.NoError(t, err)

	for _, est := range estimators {
		for _, volume := range []int64{0, 1, 100, 15000, 1000000} {
			v, err := est.Estimate("k", volume)
			require.NoError(t, err)
			assert.LessOrEqual(t, v.LowUSD, v.HighUSD, "%s at volume %d", est.Model(), volume)
			assert.GreaterOrEqual(t, v.LowUSD, 0.0)
		}
	}
}

func TestEstimateZeroVolumeIsZeroDollars(t *testing.T) {
	estimators, err := Build(testValueConfig())
	require.NoError(t, err)

	for _, est := range estimators {
		v, err := est.Estimate("k", 0)
		require.NoError(t, err)
		assert.Equal(t, 0.0, v.MonthlyUSD, est.Model())
	}
}

func TestEstimateRejectsNonPositiveAssumption(t *testing.T) {
	cfg := testValueConfig()
	cfg.AdSense.RPMUSD = 0

	estimators, err := Build(cfg)
	require.NoError(t, err)

	_, err = estimators[0].Estimate("k", 1000)
	require.Error(t, err)
	var valErr *apperrors.ValueEstimationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, ModelAdSense, valErr.Model)
	assert.Equal(t, "k", valErr.Candidate)
}
