// internal/rules/engine.go
package rules

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"trendscout/internal/common/config"
	apperrors "trendscout/internal/common/errors"
	"trendscout/internal/models"
)

// rulesSchema is the structural contract for the rule set. Validation runs
// once at construction, so a malformed rule file fails the run before any
// fetch starts.
const rulesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "prefilter": {"type": "array", "items": {"$ref": "#/definitions/rule"}},
    "classify":  {"type": "array", "items": {"$ref": "#/definitions/rule"}}
  },
  "definitions": {
    "rule": {
      "type": "object",
      "required": ["name", "action"],
      "properties": {
        "name":       {"type": "string", "minLength": 1},
        "pattern":    {"type": "string"},
        "category":   {"type": "string"},
        "min_volume": {"type": "integer", "minimum": 0},
        "min_score":  {"type": "number", "minimum": 0, "maximum": 100},
        "max_score":  {"type": "number", "minimum": 0, "maximum": 100},
        "action":     {"type": "string", "enum": ["exclude", "classify"]},
        "tier":       {"type": "string"},
        "difficulty": {"type": "number", "minimum": 0, "maximum": 1},
        "default":    {"type": "boolean"}
      }
    }
  }
}`

type compiledRule struct {
	cfg config.RuleConfig
	re  *regexp.Regexp // nil when the rule has no pattern
}

// matches reports whether every declared condition of the rule holds for the
// candidate. A rule with no conditions matches everything.
func (r *compiledRule) matches(keyword, category string) bool {
	if r.re != nil && !r.re.MatchString(keyword) {
		return false
	}
	if r.cfg.Category != "" && r.cfg.Category != category {
		return false
	}
	return true
}

// Engine evaluates the data-driven rule set. Rules run in declared order and
// the first match wins; changing behavior means editing configuration, not
// code.
type Engine struct {
	prefilter []compiledRule
	classify  []compiledRule
}

func NewEngine(cfg config.RulesConfig) (*Engine, error) {
	if err := validateSchema(cfg); err != nil {
		return nil, err
	}

	e := &Engine{}
	var err error
	if e.prefilter, err = compileGroup("rules.prefilter", cfg.Prefilter); err != nil {
		return nil, err
	}
	if e.classify, err = compileGroup("rules.classify", cfg.Classify); err != nil {
		return nil, err
	}

	for _, r := range e.prefilter {
		if r.cfg.Action != "exclude" {
			return nil, apperrors.NewConfigError("rules.prefilter",
				fmt.Sprintf("rule %q: prefilter rules must have action \"exclude\"", r.cfg.Name))
		}
	}
	for _, r := range e.classify {
		if r.cfg.Action != "classify" {
			return nil, apperrors.NewConfigError("rules.classify",
				fmt.Sprintf("rule %q: classify rules must have action \"classify\"", r.cfg.Name))
		}
		if r.cfg.Tier == "" {
			return nil, apperrors.NewConfigError("rules.classify",
				fmt.Sprintf("rule %q: classify rules need a tier", r.cfg.Name))
		}
	}
	return e, nil
}

func validateSchema(cfg config.RulesConfig) error {
	// An absent group is valid input; marshal it as [] rather than null so
	// the schema's array type check passes.
	if cfg.Prefilter == nil {
		cfg.Prefilter = []config.RuleConfig{}
	}
	if cfg.Classify == nil {
		cfg.Classify = []config.RuleConfig{}
	}
	doc, err := json.Marshal(cfg)
	if err != nil {
		return apperrors.NewConfigError("rules", err.Error())
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(rulesSchema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return apperrors.NewConfigError("rules", err.Error())
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return apperrors.NewConfigError("rules", strings.Join(msgs, "; "))
	}
	return nil
}

func compileGroup(field string, group []config.RuleConfig) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(group))
	for i, rc := range group {
		var re *regexp.Regexp
		if rc.Pattern != "" {
			var err error
			re, err = regexp.Compile(rc.Pattern)
			if err != nil {
				return nil, apperrors.NewConfigError(
					fmt.Sprintf("%s[%d]", field, i), err.Error())
			}
		}
		compiled = append(compiled, compiledRule{cfg: rc, re: re})
	}
	return compiled, nil
}

// Prefilter decides before scoring whether a candidate is worth analyzing.
// It returns the name of the excluding rule, or ok=true to proceed.
func (e *Engine) Prefilter(cand models.Candidate, volume int64) (string, bool) {
	keyword := models.NormalizeKeyword(cand.Keyword)
	for _, r := range e.prefilter {
		if !r.matches(keyword, cand.Category) {
			continue
		}
		// A min_volume condition excludes only candidates below it.
		if r.cfg.MinVolume != nil && volume >= *r.cfg.MinVolume {
			continue
		}
		return r.cfg.Name, false
	}
	return "", true
}

// Classify assigns the quality tier after scoring. Falls through to the
// default rule; a rule set with no applicable rule yields an empty tier.
func (e *Engine) Classify(cand models.Candidate, score float64) models.Classification {
	keyword := models.NormalizeKeyword(cand.Keyword)

	var fallback *compiledRule
	for i := range e.classify {
		r := &e.classify[i]
		if r.cfg.Default {
			if fallback == nil {
				fallback = r
			}
			continue
		}
		if !r.matches(keyword, cand.Category) {
			continue
		}
		if r.cfg.MinScore != nil && score < *r.cfg.MinScore {
			continue
		}
		if r.cfg.MaxScore != nil && score > *r.cfg.MaxScore {
			continue
		}
		return models.Classification{Tier: r.cfg.Tier, Category: cand.Category, Rule: r.cfg.Name}
	}
	if fallback != nil {
		return models.Classification{Tier: fallback.cfg.Tier, Category: cand.Category, Rule: fallback.cfg.Name}
	}
	return models.Classification{Category: cand.Category}
}

// Difficulty returns the first rule-supplied difficulty override matching the
// candidate, scanning prefilter then classify groups.
func (e *Engine) Difficulty(cand models.Candidate) (float64, bool) {
	keyword := models.NormalizeKeyword(cand.Keyword)
	for _, group := range [][]compiledRule{e.prefilter, e.classify} {
		for _, r := range group {
			if r.cfg.Difficulty == nil || r.cfg.Default {
				continue
			}
			if r.matches(keyword, cand.Category) {
				return *r.cfg.Difficulty, true
			}
		}
	}
	return 0, false
}
