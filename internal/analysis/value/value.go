// internal/analysis/value/value.go
package value

import (
	"fmt"

	"trendscout/internal/common/config"
	apperrors "trendscout/internal/common/errors"
	"trendscout/internal/models"
)

// Model names accepted in configuration.
const (
	ModelAdSense   = "adsense"
	ModelAffiliate = "affiliate"
	ModelLeadGen   = "leadgen"
)

// Estimator turns a candidate's monthly search volume into a monetary range
// under one revenue model. Estimates are reported per model, never averaged.
type Estimator interface {
	Model() string
	Estimate(candidateID string, volume int64) (models.ValueEstimate, error)
}

// Build instantiates the configured estimators in declared order.
func Build(cfg config.ValueConfig) ([]Estimator, error) {
	estimators := make([]Estimator, 0, len(cfg.Models))
	for _, name := range cfg.Models {
		switch name {
		case ModelAdSense:
			estimators = append(estimators, &adsense{cfg: cfg.AdSense, rangeCfg: rangeFactors(cfg)})
		case ModelAffiliate:
			estimators = append(estimators, &affiliate{cfg: cfg.Affiliate, rangeCfg: rangeFactors(cfg)})
		case ModelLeadGen:
			estimators = append(estimators, &leadgen{cfg: cfg.LeadGen, rangeCfg: rangeFactors(cfg)})
		default:
			return nil, apperrors.NewConfigError("value.models", fmt.Sprintf("unknown revenue model %q", name))
		}
	}
	return estimators, nil
}

type factors struct {
	low, high float64
}

func rangeFactors(cfg config.ValueConfig) factors {
	return factors{low: cfg.RangeLowFactor, high: cfg.RangeHighFactor}
}

func (f factors) estimate(model string, monthly float64, assumptions map[string]float64) models.ValueEstimate {
	return models.ValueEstimate{
		Model:       model,
		LowUSD:      monthly * f.low,
		HighUSD:     monthly * f.high,
		MonthlyUSD:  monthly,
		Assumptions: assumptions,
	}
}

// requirePositive rejects a zero or negative assumption the model divides or
// multiplies into the estimate. A silent zero would masquerade as "worthless
// keyword" instead of "broken configuration".
func requirePositive(candidateID, model string, values map[string]float64) error {
	for name, v := range values {
		if v <= 0 {
			return apperrors.NewValueEstimationError(candidateID, model,
				fmt.Sprintf("assumption %s must be positive, got %v", name, v))
		}
	}
	return nil
}

// --- AdSense: display ads on ranking content ---

type adsense struct {
	cfg      config.AdSenseConfig
	rangeCfg factors
}

func (a *adsense) Model() string { return ModelAdSense }

func (a *adsense) Estimate(candidateID string, volume int64) (models.ValueEstimate, error) {
	assumptions := map[string]float64{
		"ctr_serp":    a.cfg.CTRSerp,
		"click_share": a.cfg.ClickShare,
		"rpm_usd":     a.cfg.RPMUSD,
	}
	if err := requirePositive(candidateID, ModelAdSense, assumptions); err != nil {
		return models.ValueEstimate{}, err
	}

	pageviews := float64(volume) * a.cfg.CTRSerp * a.cfg.ClickShare
	monthly := pageviews / 1000 * a.cfg.RPMUSD
	return a.rangeCfg.estimate(ModelAdSense, monthly, assumptions), nil
}

// --- Affiliate: commission on referred marketplace sales ---

type affiliate struct {
	cfg      config.AffiliateConfig
	rangeCfg factors
}

func (a *affiliate) Model() string { return ModelAffiliate }

func (a *affiliate) Estimate(candidateID string, volume int64) (models.ValueEstimate, error) {
	assumptions := map[string]float64{
		"ctr":             a.cfg.CTR,
		"conversion_rate": a.cfg.ConversionRate,
		"aov_usd":         a.cfg.AOVUSD,
		"commission":      a.cfg.Commission,
	}
	if err := requirePositive(candidateID, ModelAffiliate, assumptions); err != nil {
		return models.ValueEstimate{}, err
	}

	sales := float64(volume) * a.cfg.CTR * a.cfg.ConversionRate
	monthly := sales * a.cfg.AOVUSD * a.cfg.Commission
	return a.rangeCfg.estimate(ModelAffiliate, monthly, assumptions), nil
}

// --- Lead generation: selling qualified leads ---

type leadgen struct {
	cfg      config.LeadGenConfig
	rangeCfg factors
}

func (l *leadgen) Model() string { return ModelLeadGen }

func (l *leadgen) Estimate(candidateID string, volume int64) (models.ValueEstimate, error) {
	assumptions := map[string]float64{
		"ctr":             l.cfg.CTR,
		"conversion_rate": l.cfg.ConversionRate,
		"lead_value_usd":  l.cfg.LeadValueUSD,
	}
	if err := requirePositive(candidateID, ModelLeadGen, assumptions); err != nil {
		return models.ValueEstimate{}, err
	}

	leads := float64(volume) * l.cfg.CTR * l.cfg.ConversionRate
	monthly := leads * l.cfg.LeadValueUSD
	return l.rangeCfg.estimate(ModelLeadGen, monthly, assumptions), nil
}
