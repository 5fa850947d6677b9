// internal/analysis/scoring/scoring.go
package scoring

import (
	"fmt"
	"math"

	"trendscout/internal/common/config"
	apperrors "trendscout/internal/common/errors"
	"trendscout/internal/models"
)

// Engine turns a feature vector into the 0-100 opportunity score:
//
//	base    = w_t*trend + w_i*intent + w_v*norm(volume) + w_f*freshness
//	score   = 100 * base * (1 - penalty*difficulty)
//
// where norm is log-scaled against the configured volume ceiling. The result
// is clamped to [0,100] and is a pure function of its inputs.
type Engine struct {
	cfg config.ScoringConfig
}

func NewEngine(cfg config.ScoringConfig) (*Engine, error) {
	w := cfg.Weights
	for field, v := range map[string]float64{
		"scoring.weights.trend":     w.Trend,
		"scoring.weights.intent":    w.Intent,
		"scoring.weights.volume":    w.Volume,
		"scoring.weights.freshness": w.Freshness,
	} {
		if v < 0 {
			return nil, apperrors.NewConfigError(field, fmt.Sprintf("weight must be non-negative, got %v", v))
		}
	}
	if cfg.VolumeCeiling <= 0 {
		return nil, apperrors.NewConfigError("scoring.volume_ceiling", "must be positive")
	}
	if cfg.DifficultyPenalty < 0 || cfg.DifficultyPenalty > 1 {
		return nil, apperrors.NewConfigError("scoring.difficulty_penalty", "must be in [0,1]")
	}
	return &Engine{cfg: cfg}, nil
}

// Score computes the opportunity score for one candidate. A negative volume
// marks the candidate unscorable; fractional inputs outside [0,1] are clamped
// rather than rejected.
func (e *Engine) Score(candidateID string, f models.FeatureVector) (models.ScoreResult, error) {
	if f.Volume < 0 {
		return models.ScoreResult{}, apperrors.NewScoringError(candidateID,
			fmt.Sprintf("negative volume %d", f.Volume))
	}

	f.TrendScore = clamp01(f.TrendScore)
	f.IntentScore = clamp01(f.IntentScore)
	f.Freshness = clamp01(f.Freshness)
	f.Difficulty = clamp01(f.Difficulty)

	w := e.cfg.Weights
	base := w.Trend*f.TrendScore +
		w.Intent*f.IntentScore +
		w.Volume*normalizeVolume(f.Volume, e.cfg.VolumeCeiling) +
		w.Freshness*f.Freshness

	score := 100 * base * (1 - e.cfg.DifficultyPenalty*f.Difficulty)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return models.ScoreResult{
		Opportunity: score,
		Components:  f,
		Weights: models.WeightSnapshot{
			Trend:             w.Trend,
			Intent:            w.Intent,
			Volume:            w.Volume,
			Freshness:         w.Freshness,
			DifficultyPenalty: e.cfg.DifficultyPenalty,
			VolumeCeiling:     e.cfg.VolumeCeiling,
		},
	}, nil
}

// normalizeVolume maps a raw volume into [0,1] on a log scale so the model
// rewards order-of-magnitude differences, not linear ones. Volumes at or
// above the ceiling saturate at 1.
func normalizeVolume(volume, ceiling int64) float64 {
	if volume <= 0 {
		return 0
	}
	if volume >= ceiling {
		return 1
	}
	return math.Log10(1+float64(volume)) / math.Log10(1+float64(ceiling))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
