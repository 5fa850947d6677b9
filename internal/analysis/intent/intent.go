// internal/analysis/intent/intent.go
package intent

import (
	"fmt"
	"regexp"

	"trendscout/internal/common/config"
	apperrors "trendscout/internal/common/errors"
	"trendscout/internal/models"
)

type compiledPattern struct {
	re     *regexp.Regexp
	weight float64
}

// Detector maps a keyword to a commercial-intent weight by matching it
// against configured patterns and taking the strongest match. A keyword that
// matches nothing gets the fallback weight, not zero.
type Detector struct {
	patterns []compiledPattern
	fallback float64
}

func NewDetector(cfg config.IntentConfig) (*Detector, error) {
	patterns := make([]compiledPattern, 0, len(cfg.Patterns))
	for i, p := range cfg.Patterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, apperrors.NewConfigError(
				fmt.Sprintf("intent.patterns[%d]", i), err.Error())
		}
		patterns = append(patterns, compiledPattern{re: re, weight: p.Weight})
	}
	return &Detector{patterns: patterns, fallback: cfg.FallbackWeight}, nil
}

// Score returns the maximum weight across all matching patterns, in [0,1].
func (d *Detector) Score(keyword string) float64 {
	normalized := models.NormalizeKeyword(keyword)

	best := -1.0
	for _, p := range d.patterns {
		if p.re.MatchString(normalized) && p.weight > best {
			best = p.weight
		}
	}
	if best < 0 {
		return d.fallback
	}
	return best
}
