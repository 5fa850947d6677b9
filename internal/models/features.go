// internal/models/features.go
package models

// FeatureVector holds the per-candidate inputs to the scoring model.
// Derived fresh every run; never persisted.
type FeatureVector struct {
	TrendScore  float64 `json:"trendScore"`  // 0-1, relative momentum
	IntentScore float64 `json:"intentScore"` // 0-1, commercial intent
	Freshness   float64 `json:"freshness"`   // 0-1, how current the interest is
	Volume      int64   `json:"volume"`      // raw combined volume
	Difficulty  float64 `json:"difficulty"`  // 0-1, higher is harder
}

// WeightSnapshot records the weights a score was computed with, so a report
// stays reproducible even if global weights change between runs.
type WeightSnapshot struct {
	Trend             float64 `json:"trend"`
	Intent            float64 `json:"intent"`
	Volume            float64 `json:"volume"`
	Freshness         float64 `json:"freshness"`
	DifficultyPenalty float64 `json:"difficultyPenalty"`
	VolumeCeiling     int64   `json:"volumeCeiling"`
}

// ScoreResult is the outcome of scoring one candidate.
type ScoreResult struct {
	Opportunity float64        `json:"opportunity"` // 0-100
	Components  FeatureVector  `json:"components"`
	Weights     WeightSnapshot `json:"weights"`
}
