// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"trendscout/internal/analysis/intent"
	"trendscout/internal/analysis/scoring"
	"trendscout/internal/analysis/trend"
	"trendscout/internal/analysis/value"
	"trendscout/internal/common/config"
	apperrors "trendscout/internal/common/errors"
	"trendscout/internal/common/logger"
	"trendscout/internal/common/metrics"
	"trendscout/internal/fetch"
	"trendscout/internal/models"
	"trendscout/internal/report"
	"trendscout/internal/rules"
)

// Fetcher is the signal-gathering stage. Satisfied by fetch.Orchestrator.
type Fetcher interface {
	Fetch(ctx context.Context, candidates []models.Candidate) (fetch.BatchResult, error)
}

// Pipeline runs one batch end to end: fetch, feature extraction, prefilter,
// score, value estimation, classification, aggregation. Candidates are
// isolated from each other: one candidate failing any stage never affects
// the rest of the batch.
type Pipeline struct {
	cfg        *config.Config
	fetcher    Fetcher
	trend      *trend.Analyzer
	intent     *intent.Detector
	scorer     *scoring.Engine
	estimators []value.Estimator
	rules      *rules.Engine
	aggregator *report.Aggregator
	log        logger.Logger
	now        func() time.Time
}

func New(cfg *config.Config, fetcher Fetcher, log logger.Logger) (*Pipeline, error) {
	detector, err := intent.NewDetector(cfg.Intent)
	if err != nil {
		return nil, err
	}
	scorer, err := scoring.NewEngine(cfg.Scoring)
	if err != nil {
		return nil, err
	}
	estimators, err := value.Build(cfg.Value)
	if err != nil {
		return nil, err
	}
	ruleEngine, err := rules.NewEngine(cfg.Rules)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:        cfg,
		fetcher:    fetcher,
		trend:      trend.NewAnalyzer(cfg.Trend),
		intent:     detector,
		scorer:     scorer,
		estimators: estimators,
		rules:      ruleEngine,
		aggregator: report.New(cfg.Run.TopN),
		log:        log.WithFields(map[string]interface{}{"component": "pipeline"}),
		now:        time.Now,
	}, nil
}

// candidateOutcome is what one candidate's CPU stages produce.
type candidateOutcome struct {
	report   *models.AnalysisReport
	excluded bool
	failures []models.FailureRecord
}

// Run executes one batch. The returned error is reserved for batch-fatal
// conditions (cache backend loss, context cancellation before completion);
// per-candidate and per-source trouble lands in the summary's failure list.
func (p *Pipeline) Run(ctx context.Context, candidates []models.Candidate) (models.BatchSummary, error) {
	batchID := uuid.NewString()
	startedAt := p.now()

	p.log.Info("batch started", map[string]interface{}{
		"batch_id":   batchID,
		"candidates": len(candidates),
	})

	batch, err := p.fetcher.Fetch(ctx, candidates)
	if err != nil {
		return models.BatchSummary{}, err
	}

	outcomes := make([]candidateOutcome, len(candidates))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.Run.MaxParallel)

	for i, cand := range candidates {
		wg.Add(1)
		go func(i int, cand models.Candidate) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcomes[i] = p.analyze(cand, batch[cand.ID()])
		}(i, cand)
	}
	wg.Wait()

	var (
		reports  []models.AnalysisReport
		failures []models.FailureRecord
		excluded int
	)
	for _, o := range outcomes {
		failures = append(failures, o.failures...)
		switch {
		case o.excluded:
			excluded++
			metrics.CandidatesAnalyzed.WithLabelValues("excluded").Inc()
		case o.report != nil:
			reports = append(reports, *o.report)
			metrics.CandidatesAnalyzed.WithLabelValues("analyzed").Inc()
		default:
			metrics.CandidatesAnalyzed.WithLabelValues("failed").Inc()
		}
	}

	summary := p.aggregator.Summarize(batchID, startedAt, reports, excluded, failures)
	metrics.BatchDuration.Observe(summary.Duration.Seconds())

	p.log.Info("batch finished", map[string]interface{}{
		"batch_id": batchID,
		"analyzed": summary.Analyzed,
		"excluded": summary.Excluded,
		"failed":   summary.Failed,
		"duration": summary.Duration.String(),
	})
	return summary, nil
}

// analyze runs the CPU stages for one candidate against its fetch results.
func (p *Pipeline) analyze(cand models.Candidate, perSource map[string]fetch.Result) candidateOutcome {
	var out candidateOutcome

	// A candidate with no fetch entries at all has nothing to score; a report
	// built from zero observations would be fabrication.
	if len(perSource) == 0 {
		out.failures = append(out.failures, models.FailureRecord{
			Candidate: cand.ID(),
			Kind:      "NO_DATA",
			Message:   "no fetch results recorded for candidate",
			Timestamp: time.Now().UTC(),
		})
		return out
	}

	var records []models.SignalRecord
	for source, res := range perSource {
		if res.Err != nil {
			out.failures = append(out.failures, models.FailureRecord{
				Candidate: cand.ID(),
				Source:    source,
				Kind:      string(res.Err.Kind),
				Message:   res.Err.Message,
				Timestamp: res.Err.Timestamp,
			})
			continue
		}
		records = append(records, res.Records...)
	}

	// Every source failed: nothing to analyze.
	if len(records) == 0 && len(out.failures) > 0 {
		return out
	}

	var volume int64
	for _, r := range records {
		volume += r.RawVolume
	}

	if rule, ok := p.rules.Prefilter(cand, volume); !ok {
		p.log.Debug("candidate excluded by prefilter", map[string]interface{}{
			"candidate": cand.ID(),
			"rule":      rule,
		})
		out.excluded = true
		return out
	}

	trendScore, freshness := p.trend.Analyze(records)

	difficulty := p.cfg.Scoring.DefaultDifficulty
	if d, ok := p.rules.Difficulty(cand); ok {
		difficulty = d
	}

	features := models.FeatureVector{
		TrendScore:  trendScore,
		IntentScore: p.intent.Score(cand.Keyword),
		Freshness:   freshness,
		Volume:      volume,
		Difficulty:  difficulty,
	}

	score, err := p.scorer.Score(cand.ID(), features)
	if err != nil {
		out.failures = append(out.failures, scoringFailure(cand.ID(), err))
		return out
	}

	var estimates []models.ValueEstimate
	for _, est := range p.estimators {
		v, err := est.Estimate(cand.ID(), volume)
		if err != nil {
			// One broken revenue model does not block the others.
			out.failures = append(out.failures, valueFailure(cand.ID(), err))
			continue
		}
		estimates = append(estimates, v)
	}

	class := p.rules.Classify(cand, score.Opportunity)
	rep := p.aggregator.Report(cand, score, estimates, class)
	out.report = &rep
	return out
}

func scoringFailure(candidateID string, err error) models.FailureRecord {
	rec := models.FailureRecord{
		Candidate: candidateID,
		Kind:      "SCORING",
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
	if se, ok := err.(*apperrors.ScoringError); ok {
		rec.Message = se.Message
		rec.Timestamp = se.Timestamp
	}
	return rec
}

func valueFailure(candidateID string, err error) models.FailureRecord {
	rec := models.FailureRecord{
		Candidate: candidateID,
		Kind:      "VALUE_ESTIMATION",
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
	if ve, ok := err.(*apperrors.ValueEstimationError); ok {
		rec.Source = ve.Model
		rec.Message = ve.Message
		rec.Timestamp = ve.Timestamp
	}
	return rec
}
