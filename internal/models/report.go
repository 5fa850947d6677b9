// internal/models/report.go
package models

import "time"

// ValueEstimate is one revenue model's monetary range for a candidate.
// Several estimates may attach to one candidate; they are reported as a set,
// never averaged.
type ValueEstimate struct {
	Model       string             `json:"model"`
	LowUSD      float64            `json:"lowUsd"`
	HighUSD     float64            `json:"highUsd"`
	MonthlyUSD  float64            `json:"monthlyUsd"` // point estimate the range derives from
	Assumptions map[string]float64 `json:"assumptions"`
}

// Classification is the rule engine's post-score verdict.
type Classification struct {
	Tier     string `json:"tier"`
	Category string `json:"category,omitempty"`
	Rule     string `json:"rule,omitempty"`
}

// AnalysisReport is the per-candidate unit returned to the caller.
type AnalysisReport struct {
	CandidateID     string          `json:"candidateId"`
	Keyword         string          `json:"keyword"`
	Category        string          `json:"category"`
	Score           ScoreResult     `json:"score"`
	Values          []ValueEstimate `json:"values"`
	BestValueUSD    float64         `json:"bestValueUsd"` // best-effort max across models
	Classification  Classification  `json:"classification"`
	Insights        []string        `json:"insights"`
	Recommendations []string        `json:"recommendations"`
	GeneratedAt     time.Time       `json:"generatedAt"`
}

// FailureRecord captures one per-source or per-candidate failure for triage.
type FailureRecord struct {
	Candidate string    `json:"candidate"`
	Source    string    `json:"source,omitempty"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// BatchSummary is the run-level result: every report plus everything that
// went wrong, with enough detail to drive retries or operator triage.
type BatchSummary struct {
	BatchID          string           `json:"batchId"`
	StartedAt        time.Time        `json:"startedAt"`
	Duration         time.Duration    `json:"duration"`
	Analyzed         int              `json:"analyzed"`
	Excluded         int              `json:"excluded"`
	Failed           int              `json:"failed"`
	Reports          []AnalysisReport `json:"reports"`
	Failures         []FailureRecord  `json:"failures"`
	TopOpportunities []AnalysisReport `json:"topOpportunities"`
}
