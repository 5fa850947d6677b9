// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct. It is loaded once at
// startup, validated, and passed by reference into component constructors.
type Config struct {
	App     AppConfig               `mapstructure:"app"`
	Logging LoggingConfig           `mapstructure:"logging"`
	Run     RunConfig               `mapstructure:"run"`
	Cache   CacheConfig             `mapstructure:"cache"`
	Fetch   FetchConfig             `mapstructure:"fetch"`
	Sources map[string]SourceConfig `mapstructure:"sources"`
	Scoring ScoringConfig           `mapstructure:"scoring"`
	Trend   TrendConfig             `mapstructure:"trend"`
	Intent  IntentConfig            `mapstructure:"intent"`
	Value   ValueConfig             `mapstructure:"value"`
	Rules   RulesConfig             `mapstructure:"rules"`
}

// --- Core App Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RunConfig drives the periodic batch loop.
type RunConfig struct {
	Candidates  []CandidateConfig `mapstructure:"candidates"`
	IntervalMin int               `mapstructure:"interval_minutes"`
	DeadlineSec int               `mapstructure:"deadline_seconds"`
	MaxParallel int               `mapstructure:"max_parallel"` // CPU-stage fan-out across candidates
	TopN        int               `mapstructure:"top_n"`
}

func (r RunConfig) Interval() time.Duration { return time.Duration(r.IntervalMin) * time.Minute }
func (r RunConfig) Deadline() time.Duration { return time.Duration(r.DeadlineSec) * time.Second }

type CandidateConfig struct {
	Keyword  string `mapstructure:"keyword"`
	Category string `mapstructure:"category"`
}

// --- Cache ---

type CacheConfig struct {
	Backend          string      `mapstructure:"backend"` // file | redis
	MemoryMaxEntries int         `mapstructure:"memory_max_entries"`
	TTLSeconds       int         `mapstructure:"ttl_seconds"`
	Dir              string      `mapstructure:"dir"`
	Redis            RedisConfig `mapstructure:"redis"`
}

func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSeconds) * time.Second }

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Fetch orchestration ---

type FetchConfig struct {
	MaxInFlight   int           `mapstructure:"max_in_flight"`
	RatePerSecond float64       `mapstructure:"rate_per_second"` // per-source token refill
	Burst         int           `mapstructure:"burst"`
	Retry         RetryConfig   `mapstructure:"retry"`
	Breaker       BreakerConfig `mapstructure:"breaker"`
}

type RetryConfig struct {
	MaxAttempts    int     `mapstructure:"max_attempts"`
	BaseDelayMS    int     `mapstructure:"base_delay_ms"`
	Multiplier     float64 `mapstructure:"multiplier"`
	MaxDelayMS     int     `mapstructure:"max_delay_ms"`
	JitterFraction float64 `mapstructure:"jitter_fraction"` // 0 disables jitter
}

func (r RetryConfig) BaseDelay() time.Duration { return time.Duration(r.BaseDelayMS) * time.Millisecond }
func (r RetryConfig) MaxDelay() time.Duration  { return time.Duration(r.MaxDelayMS) * time.Millisecond }

type BreakerConfig struct {
	FailureThreshold int `mapstructure:"failure_threshold"`
	CooldownSec      int `mapstructure:"cooldown_seconds"`
}

func (b BreakerConfig) Cooldown() time.Duration { return time.Duration(b.CooldownSec) * time.Second }

// SourceConfig holds the per-adapter settings.
type SourceConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	APIKey    string `mapstructure:"api_key"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

func (s SourceConfig) Timeout() time.Duration { return time.Duration(s.TimeoutMS) * time.Millisecond }

// --- Scoring ---

type ScoringConfig struct {
	Weights           WeightsConfig `mapstructure:"weights"`
	DifficultyPenalty float64       `mapstructure:"difficulty_penalty"`
	VolumeCeiling     int64         `mapstructure:"volume_ceiling"`
	DefaultDifficulty float64       `mapstructure:"default_difficulty"`
}

type WeightsConfig struct {
	Trend     float64 `mapstructure:"trend"`
	Intent    float64 `mapstructure:"intent"`
	Volume    float64 `mapstructure:"volume"`
	Freshness float64 `mapstructure:"freshness"`
}

// --- Feature extraction ---

type TrendConfig struct {
	RecentFraction float64 `mapstructure:"recent_fraction"` // share of the span counted as "recent"
	CurveGain      float64 `mapstructure:"curve_gain"`      // slope of the ratio-to-score curve
	MaxAgeDays     int     `mapstructure:"max_age_days"`    // freshness horizon
}

type IntentConfig struct {
	Patterns       []IntentPattern `mapstructure:"patterns"`
	FallbackWeight float64         `mapstructure:"fallback_weight"`
}

type IntentPattern struct {
	Pattern string  `mapstructure:"pattern"`
	Weight  float64 `mapstructure:"weight"`
}

// --- Value estimation ---

type ValueConfig struct {
	Models          []string        `mapstructure:"models"`
	AdSense         AdSenseConfig   `mapstructure:"adsense"`
	Affiliate       AffiliateConfig `mapstructure:"affiliate"`
	LeadGen         LeadGenConfig   `mapstructure:"leadgen"`
	RangeLowFactor  float64         `mapstructure:"range_low_factor"`
	RangeHighFactor float64         `mapstructure:"range_high_factor"`
}

type AdSenseConfig struct {
	CTRSerp    float64 `mapstructure:"ctr_serp"`
	ClickShare float64 `mapstructure:"click_share"`
	RPMUSD     float64 `mapstructure:"rpm_usd"`
}

type AffiliateConfig struct {
	CTR            float64 `mapstructure:"ctr"`
	ConversionRate float64 `mapstructure:"conversion_rate"`
	AOVUSD         float64 `mapstructure:"aov_usd"`
	Commission     float64 `mapstructure:"commission"`
}

type LeadGenConfig struct {
	CTR            float64 `mapstructure:"ctr"`
	ConversionRate float64 `mapstructure:"conversion_rate"`
	LeadValueUSD   float64 `mapstructure:"lead_value_usd"`
}

// --- Rules ---

// RuleConfig is one data-driven rule. Rules are evaluated in declared order;
// the first matching rule in a group wins.
type RuleConfig struct {
	Name       string   `mapstructure:"name" json:"name"`
	Pattern    string   `mapstructure:"pattern,omitempty" json:"pattern,omitempty"`
	Category   string   `mapstructure:"category,omitempty" json:"category,omitempty"`
	MinVolume  *int64   `mapstructure:"min_volume,omitempty" json:"min_volume,omitempty"`
	MinScore   *float64 `mapstructure:"min_score,omitempty" json:"min_score,omitempty"`
	MaxScore   *float64 `mapstructure:"max_score,omitempty" json:"max_score,omitempty"`
	Action     string   `mapstructure:"action" json:"action"` // exclude | classify
	Tier       string   `mapstructure:"tier,omitempty" json:"tier,omitempty"`
	Difficulty *float64 `mapstructure:"difficulty,omitempty" json:"difficulty,omitempty"`
	Default    bool     `mapstructure:"default,omitempty" json:"default,omitempty"`
}

type RulesConfig struct {
	Prefilter []RuleConfig `mapstructure:"prefilter" json:"prefilter"`
	Classify  []RuleConfig `mapstructure:"classify" json:"classify"`
}
