// internal/common/config/validate.go
package config

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	apperrors "trendscout/internal/common/errors"
)

// Validate fails fast on missing or out-of-range fields. Any violation is a
// ConfigError and aborts the run before fetch begins.
func Validate(cfg *Config) error {
	if err := validation.ValidateStruct(&cfg.Scoring.Weights,
		validation.Field(&cfg.Scoring.Weights.Trend, validation.Min(0.0)),
		validation.Field(&cfg.Scoring.Weights.Intent, validation.Min(0.0)),
		validation.Field(&cfg.Scoring.Weights.Volume, validation.Min(0.0)),
		validation.Field(&cfg.Scoring.Weights.Freshness, validation.Min(0.0)),
	); err != nil {
		return apperrors.NewConfigError("scoring.weights", err.Error())
	}

	if err := validation.ValidateStruct(&cfg.Scoring,
		validation.Field(&cfg.Scoring.DifficultyPenalty, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&cfg.Scoring.VolumeCeiling, validation.Min(1)),
		validation.Field(&cfg.Scoring.DefaultDifficulty, validation.Min(0.0), validation.Max(1.0)),
	); err != nil {
		return apperrors.NewConfigError("scoring", err.Error())
	}

	if cfg.Cache.TTLSeconds <= 0 {
		return apperrors.NewConfigError("cache.ttl_seconds", "must be positive")
	}
	if cfg.Cache.Backend != "file" && cfg.Cache.Backend != "redis" {
		return apperrors.NewConfigError("cache.backend", fmt.Sprintf("unknown backend %q", cfg.Cache.Backend))
	}
	if cfg.Cache.MemoryMaxEntries < 1 {
		return apperrors.NewConfigError("cache.memory_max_entries", "must be at least 1")
	}

	if err := validation.ValidateStruct(&cfg.Fetch.Retry,
		validation.Field(&cfg.Fetch.Retry.MaxAttempts, validation.Min(1)),
		validation.Field(&cfg.Fetch.Retry.BaseDelayMS, validation.Min(1)),
		validation.Field(&cfg.Fetch.Retry.Multiplier, validation.Min(1.0)),
		validation.Field(&cfg.Fetch.Retry.MaxDelayMS, validation.Min(1)),
		validation.Field(&cfg.Fetch.Retry.JitterFraction, validation.Min(0.0), validation.Max(1.0)),
	); err != nil {
		return apperrors.NewConfigError("fetch.retry", err.Error())
	}
	if err := validation.ValidateStruct(&cfg.Fetch.Breaker,
		validation.Field(&cfg.Fetch.Breaker.FailureThreshold, validation.Min(1)),
		validation.Field(&cfg.Fetch.Breaker.CooldownSec, validation.Min(1)),
	); err != nil {
		return apperrors.NewConfigError("fetch.breaker", err.Error())
	}
	if cfg.Fetch.MaxInFlight < 1 {
		return apperrors.NewConfigError("fetch.max_in_flight", "must be at least 1")
	}
	if cfg.Fetch.RatePerSecond <= 0 {
		return apperrors.NewConfigError("fetch.rate_per_second", "must be positive")
	}

	if err := validation.ValidateStruct(&cfg.Trend,
		validation.Field(&cfg.Trend.RecentFraction, validation.Min(0.01), validation.Max(0.99)),
		validation.Field(&cfg.Trend.CurveGain, validation.Min(0.0)),
		validation.Field(&cfg.Trend.MaxAgeDays, validation.Min(1)),
	); err != nil {
		return apperrors.NewConfigError("trend", err.Error())
	}

	for i, p := range cfg.Intent.Patterns {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			return apperrors.NewConfigError(
				fmt.Sprintf("intent.patterns[%d]", i),
				fmt.Sprintf("invalid pattern %q: %v", p.Pattern, err))
		}
		if p.Weight < 0 || p.Weight > 1 {
			return apperrors.NewConfigError(
				fmt.Sprintf("intent.patterns[%d]", i), "weight must be within [0,1]")
		}
	}
	if cfg.Intent.FallbackWeight < 0 || cfg.Intent.FallbackWeight > 1 {
		return apperrors.NewConfigError("intent.fallback_weight", "must be within [0,1]")
	}

	if cfg.Value.RangeLowFactor < 0 || cfg.Value.RangeHighFactor < cfg.Value.RangeLowFactor {
		return apperrors.NewConfigError("value", "range factors must satisfy 0 <= low <= high")
	}
	for _, m := range cfg.Value.Models {
		switch m {
		case "adsense", "affiliate", "leadgen":
		default:
			return apperrors.NewConfigError("value.models", fmt.Sprintf("unknown model %q", m))
		}
	}

	enabled := 0
	for _, sc := range cfg.Sources {
		if sc.Enabled {
			enabled++
		}
	}
	if len(cfg.Sources) > 0 && enabled == 0 {
		return apperrors.NewConfigError("sources", "at least one source must be enabled")
	}

	return nil
}
