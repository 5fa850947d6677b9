// internal/analysis/trend/trend.go
package trend

import (
	"sort"
	"time"

	"trendscout/internal/common/config"
	"trendscout/internal/models"
)

// Analyzer derives momentum and freshness from a candidate's signal records.
//
// Momentum compares the volume mass inside the recent slice of the observed
// span against the share a flat series would put there: a series whose recent
// mass share equals the slice width scores the neutral 0.5, heavier recent
// mass pushes above it, lighter below.
type Analyzer struct {
	recentFraction float64
	curveGain      float64
	maxAge         time.Duration
	now            func() time.Time
}

func NewAnalyzer(cfg config.TrendConfig) *Analyzer {
	return &Analyzer{
		recentFraction: cfg.RecentFraction,
		curveGain:      cfg.CurveGain,
		maxAge:         time.Duration(cfg.MaxAgeDays) * 24 * time.Hour,
		now:            time.Now,
	}
}

// Analyze returns (trendScore, freshness), both in [0,1]. Fewer than two
// samples carry no directional information and score the neutral midpoint;
// with no samples at all freshness is neutral too.
func (a *Analyzer) Analyze(records []models.SignalRecord) (float64, float64) {
	if len(records) == 0 {
		return 0.5, 0.5
	}

	sorted := make([]models.SignalRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	newest := sorted[len(sorted)-1].Timestamp
	freshness := a.freshness(newest)

	if len(sorted) < 2 {
		return 0.5, freshness
	}

	oldest := sorted[0].Timestamp
	span := newest.Sub(oldest)
	if span <= 0 {
		return 0.5, freshness
	}

	cutoff := newest.Add(-time.Duration(float64(span) * a.recentFraction))

	var total, recent float64
	for _, r := range sorted {
		w := float64(r.RawVolume)
		if w <= 0 {
			w = 1 // an observation with no volume still counts as presence
		}
		total += w
		if !r.Timestamp.Before(cutoff) {
			recent += w
		}
	}

	share := recent / total
	score := 0.5 + a.curveGain*(share-a.recentFraction)
	return clamp01(score), freshness
}

func (a *Analyzer) freshness(newest time.Time) float64 {
	age := a.now().Sub(newest)
	if age < 0 {
		age = 0
	}
	return clamp01(1 - float64(age)/float64(a.maxAge))
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
