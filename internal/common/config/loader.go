// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// Enable ENV override like CACHE_REDIS_ADDRESS
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, e.g. config.production.yaml
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// ApplyDefaults fills every unset field with the stock parameter set. The
// defaults mirror the tuned production values: scoring weights
// 0.35/0.30/0.15/0.20 with a 0.6 difficulty penalty, and the standard
// AdSense/affiliate/lead-gen assumption sets.
func ApplyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "trendscout"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.App.MetricsAddr == "" {
		cfg.App.MetricsAddr = ":9102"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Run.IntervalMin == 0 {
		cfg.Run.IntervalMin = 360
	}
	if cfg.Run.DeadlineSec == 0 {
		cfg.Run.DeadlineSec = 120
	}
	if cfg.Run.MaxParallel == 0 {
		cfg.Run.MaxParallel = 8
	}
	if cfg.Run.TopN == 0 {
		cfg.Run.TopN = 10
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "file"
	}
	if cfg.Cache.MemoryMaxEntries == 0 {
		cfg.Cache.MemoryMaxEntries = 512
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 3600
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "data/cache"
	}

	if cfg.Fetch.MaxInFlight == 0 {
		cfg.Fetch.MaxInFlight = 8
	}
	if cfg.Fetch.RatePerSecond == 0 {
		cfg.Fetch.RatePerSecond = 2
	}
	if cfg.Fetch.Burst == 0 {
		cfg.Fetch.Burst = 2
	}
	if cfg.Fetch.Retry.MaxAttempts == 0 {
		cfg.Fetch.Retry.MaxAttempts = 3
	}
	if cfg.Fetch.Retry.BaseDelayMS == 0 {
		cfg.Fetch.Retry.BaseDelayMS = 1000
	}
	if cfg.Fetch.Retry.Multiplier == 0 {
		cfg.Fetch.Retry.Multiplier = 2.0
	}
	if cfg.Fetch.Retry.MaxDelayMS == 0 {
		cfg.Fetch.Retry.MaxDelayMS = 30000
	}
	if cfg.Fetch.Breaker.FailureThreshold == 0 {
		cfg.Fetch.Breaker.FailureThreshold = 5
	}
	if cfg.Fetch.Breaker.CooldownSec == 0 {
		cfg.Fetch.Breaker.CooldownSec = 60
	}

	if cfg.Scoring.Weights == (WeightsConfig{}) {
		cfg.Scoring.Weights = WeightsConfig{
			Trend:     0.35,
			Intent:    0.30,
			Volume:    0.15,
			Freshness: 0.20,
		}
	}
	if cfg.Scoring.DifficultyPenalty == 0 {
		cfg.Scoring.DifficultyPenalty = 0.6
	}
	if cfg.Scoring.VolumeCeiling == 0 {
		cfg.Scoring.VolumeCeiling = 100000
	}
	if cfg.Scoring.DefaultDifficulty == 0 {
		cfg.Scoring.DefaultDifficulty = 0.2
	}

	if cfg.Trend.RecentFraction == 0 {
		cfg.Trend.RecentFraction = 0.30
	}
	if cfg.Trend.CurveGain == 0 {
		cfg.Trend.CurveGain = 2.0
	}
	if cfg.Trend.MaxAgeDays == 0 {
		cfg.Trend.MaxAgeDays = 30
	}

	if len(cfg.Intent.Patterns) == 0 {
		cfg.Intent.Patterns = DefaultIntentPatterns()
	}
	if cfg.Intent.FallbackWeight == 0 {
		cfg.Intent.FallbackWeight = 0.2
	}

	if len(cfg.Value.Models) == 0 {
		cfg.Value.Models = []string{"adsense", "affiliate", "leadgen"}
	}
	if cfg.Value.AdSense == (AdSenseConfig{}) {
		cfg.Value.AdSense = AdSenseConfig{CTRSerp: 0.25, ClickShare: 0.35, RPMUSD: 10.0}
	}
	if cfg.Value.Affiliate == (AffiliateConfig{}) {
		cfg.Value.Affiliate = AffiliateConfig{CTR: 0.12, ConversionRate: 0.04, AOVUSD: 80.0, Commission: 0.03}
	}
	if cfg.Value.LeadGen == (LeadGenConfig{}) {
		cfg.Value.LeadGen = LeadGenConfig{CTR: 0.15, ConversionRate: 0.05, LeadValueUSD: 25.0}
	}
	if cfg.Value.RangeLowFactor == 0 {
		cfg.Value.RangeLowFactor = 0.75
	}
	if cfg.Value.RangeHighFactor == 0 {
		cfg.Value.RangeHighFactor = 1.25
	}

	if len(cfg.Rules.Classify) == 0 {
		cfg.Rules.Classify = DefaultClassifyRules()
	}
}

// DefaultIntentPatterns is the stock commercial-intent pattern list, ordered
// from strongest to weakest signal.
func DefaultIntentPatterns() []IntentPattern {
	return []IntentPattern{
		{Pattern: `\b(buy|purchase|order)\b`, Weight: 1.0},
		{Pattern: `\bbest\b`, Weight: 0.85},
		{Pattern: `\b(review|reviews)\b`, Weight: 0.85},
		{Pattern: `\b(price|cost|deal|discount|coupon)\b`, Weight: 0.8},
		{Pattern: `\b(vs|versus|compare|comparison)\b`, Weight: 0.75},
		{Pattern: `\btop\b`, Weight: 0.7},
		{Pattern: `\b(cheap|budget|affordable)\b`, Weight: 0.7},
		{Pattern: `\bnear me\b`, Weight: 0.7},
		{Pattern: `\b(how to|what is|why|tutorial|guide)\b`, Weight: 0.4},
	}
}

// DefaultClassifyRules assigns quality tiers from score thresholds.
func DefaultClassifyRules() []RuleConfig {
	min := func(f float64) *float64 { return &f }
	return []RuleConfig{
		{Name: "excellent", Action: "classify", MinScore: min(75), Tier: "excellent"},
		{Name: "good", Action: "classify", MinScore: min(60), Tier: "good"},
		{Name: "average", Action: "classify", MinScore: min(40), Tier: "average"},
		{Name: "poor", Action: "classify", Tier: "poor", Default: true},
	}
}
