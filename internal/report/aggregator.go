// internal/report/aggregator.go
package report

import (
	"fmt"
	"sort"
	"time"

	"trendscout/internal/models"
)

// Insight thresholds. Scores are 0-1 component values from the feature
// vector; volume is raw monthly searches.
const (
	risingTrend     = 0.70
	fadingTrend     = 0.35
	strongIntent    = 0.80
	weakIntent      = 0.45
	freshInterest   = 0.80
	staleInterest   = 0.30
	lowCompetition  = 0.30
	highCompetition = 0.70
	longTailVolume  = 1000
)

// Aggregator assembles per-candidate reports and the run-level summary.
// Insights and recommendations come from a fixed template set keyed on the
// tier and the feature profile, so output stays stable and greppable.
type Aggregator struct {
	topN int
	now  func() time.Time
}

func New(topN int) *Aggregator {
	return &Aggregator{topN: topN, now: time.Now}
}

// Report builds the per-candidate unit from the pipeline's stage outputs.
func (a *Aggregator) Report(cand models.Candidate, score models.ScoreResult, values []models.ValueEstimate, class models.Classification) models.AnalysisReport {
	return models.AnalysisReport{
		CandidateID:     cand.ID(),
		Keyword:         cand.Keyword,
		Category:        cand.Category,
		Score:           score,
		Values:          values,
		BestValueUSD:    bestValue(values),
		Classification:  class,
		Insights:        insights(score),
		Recommendations: recommendations(score, class),
		GeneratedAt:     a.now().UTC(),
	}
}

func bestValue(values []models.ValueEstimate) float64 {
	best := 0.0
	for _, v := range values {
		if v.MonthlyUSD > best {
			best = v.MonthlyUSD
		}
	}
	return best
}

func insights(score models.ScoreResult) []string {
	c := score.Components
	var out []string

	switch {
	case c.TrendScore >= risingTrend:
		out = append(out, "search interest is accelerating")
	case c.TrendScore <= fadingTrend:
		out = append(out, "search interest is fading")
	}

	switch {
	case c.IntentScore >= strongIntent:
		out = append(out, "strong commercial intent")
	case c.IntentScore <= weakIntent:
		out = append(out, "mostly informational intent")
	}

	switch {
	case c.Freshness >= freshInterest:
		out = append(out, "interest is current")
	case c.Freshness <= staleInterest:
		out = append(out, "signals are stale")
	}

	switch {
	case c.Difficulty <= lowCompetition:
		out = append(out, "low competition")
	case c.Difficulty >= highCompetition:
		out = append(out, "highly competitive")
	}

	return out
}

func recommendations(score models.ScoreResult, class models.Classification) []string {
	c := score.Components
	var out []string

	switch class.Tier {
	case "excellent":
		out = append(out, "prioritize this keyword for immediate content production")
	case "good":
		out = append(out, "add this keyword to the near-term content plan")
	case "average":
		out = append(out, "monitor this keyword and revisit next cycle")
	default:
		out = append(out, "deprioritize unless supporting a broader topic cluster")
	}

	if c.Volume < longTailVolume && c.IntentScore >= strongIntent {
		out = append(out, "target long-tail variations to capture high-intent traffic cheaply")
	}
	if c.Difficulty >= highCompetition && c.IntentScore >= strongIntent {
		out = append(out, "consider paid placement instead of organic ranking")
	}
	if c.TrendScore >= risingTrend && c.Freshness >= freshInterest {
		out = append(out, fmt.Sprintf("publish within the next cycle to ride the current wave (trend %.2f)", c.TrendScore))
	}

	return out
}

// Summarize builds the run-level result. Reports are left in input order;
// TopOpportunities holds the N best by score.
func (a *Aggregator) Summarize(batchID string, startedAt time.Time, reports []models.AnalysisReport, excluded int, failures []models.FailureRecord) models.BatchSummary {
	top := make([]models.AnalysisReport, len(reports))
	copy(top, reports)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Score.Opportunity > top[j].Score.Opportunity
	})
	if len(top) > a.topN {
		top = top[:a.topN]
	}

	failedCandidates := make(map[string]struct{}, len(failures))
	for _, f := range failures {
		failedCandidates[f.Candidate] = struct{}{}
	}

	return models.BatchSummary{
		BatchID:          batchID,
		StartedAt:        startedAt.UTC(),
		Duration:         a.now().Sub(startedAt),
		Analyzed:         len(reports),
		Excluded:         excluded,
		Failed:           len(failedCandidates),
		Reports:          reports,
		Failures:         failures,
		TopOpportunities: top,
	}
}
