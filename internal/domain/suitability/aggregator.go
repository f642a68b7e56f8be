package suitability

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Decision is the three-way recommendation derived from a final score.
type Decision string

const (
	DecisionYes    Decision = "Yes"
	DecisionReview Decision = "Review"
	DecisionNo     Decision = "No"
)

// Decision band lower bounds.
const (
	YesThreshold        = 7.0
	ReviewThreshold     = 5.0
	SuggestionThreshold = 5.0
)

// DecisionFor maps a final score to its band.
func DecisionFor(score float64) Decision {
	switch {
	case score >= YesThreshold:
		return DecisionYes
	case score >= ReviewThreshold:
		return DecisionReview
	}
	return DecisionNo
}

// ScoredParameter is the per-parameter outcome of scoring.
type ScoredParameter struct {
	Key           ParameterKey `json:"key"`
	Name          string       `json:"name"`
	Unit          string       `json:"unit,omitempty"`
	RawValue      *float64     `json:"rawValue"`
	Score         float64      `json:"score"`
	Weight        float64      `json:"weight"`
	WeightedScore float64      `json:"weightedScore"`
}

// Assessment is the aggregated result for one raw-data record.
type Assessment struct {
	FinalScore  float64           `json:"finalScore"`
	Decision    Decision          `json:"decision"`
	Suggestions []string          `json:"suggestions"`
	Parameters  []ScoredParameter `json:"parameters"`
}

// ScoreVector returns the per-parameter scores in declaration order.
func (a Assessment) ScoreVector() []float64 {
	v := make([]float64, len(a.Parameters))
	for i, p := range a.Parameters {
		v[i] = p.Score
	}
	return v
}

// Parameter returns the scored entry for key.
func (a Assessment) Parameter(key ParameterKey) (ScoredParameter, bool) {
	for _, p := range a.Parameters {
		if p.Key == key {
			return p, true
		}
	}
	return ScoredParameter{}, false
}

// Aggregator combines per-parameter scores into an Assessment. It holds no
// mutable state and is safe for concurrent use.
type Aggregator struct {
	scorer *Scorer
}

// NewAggregator returns an Aggregator over scorer; nil selects the defaults.
func NewAggregator(scorer *Scorer) *Aggregator {
	if scorer == nil {
		scorer = NewScorer(nil, nil)
	}
	return &Aggregator{scorer: scorer}
}

// Scorer returns the underlying scorer.
func (a *Aggregator) Scorer() *Scorer { return a.scorer }

// Aggregate scores every parameter of the set. The ownership selection
// replaces any landOwnership value in raw; an unspecified selection leaves raw
// untouched.
func (a *Aggregator) Aggregate(raw RawParameterData, ownership LandOwnership) Assessment {
	if code, ok := ownership.Code(); ok {
		raw = raw.With(KeyLandOwnership, code)
	}

	specs := a.scorer.params.specs
	out := Assessment{
		Parameters:  make([]ScoredParameter, 0, len(specs)),
		Suggestions: []string{},
	}
	weighted := make([]float64, 0, len(specs))
	for _, spec := range specs {
		sp := a.scorer.Score(spec, raw)
		out.Parameters = append(out.Parameters, sp)
		weighted = append(weighted, sp.WeightedScore)
		if sp.Score < SuggestionThreshold && spec.SuggestionText != "" {
			out.Suggestions = append(out.Suggestions, spec.SuggestionText)
		}
	}
	out.FinalScore = clampScore(floats.Sum(weighted))
	out.Decision = DecisionFor(out.FinalScore)
	return out
}

// RoundScore rounds to two decimals for display.
func RoundScore(v float64) float64 {
	return math.Round(v*100) / 100
}

//Personal.AI order the ending
