package suitability

import "math"

// Score bounds.
const (
	MinScore     = 0.0
	MaxScore     = 10.0
	NeutralScore = 5.0
	MissingScore = 0.0
)

// ElevationMin and ElevationMax bound the elevation band, in metres, that
// scores as fully suitable.
const (
	ElevationMin = 50.0
	ElevationMax = 1500.0
)

const (
	elevationInBand    = 10.0
	elevationOutBand   = 2.0
	ownershipPublic    = 10.0
	ownershipNonPublic = 5.0
)

// ThresholdScore interpolates value linearly between worst (1) and best (10),
// saturating outside the interval.
func ThresholdScore(value float64, t Thresholds, higherIsBetter bool) float64 {
	if higherIsBetter {
		switch {
		case value >= t.Best:
			return 10
		case value <= t.Worst:
			return 1
		}
		return 1 + 9*(value-t.Worst)/(t.Best-t.Worst)
	}
	switch {
	case value <= t.Best:
		return 10
	case value >= t.Worst:
		return 1
	}
	return 1 + 9*(t.Worst-value)/(t.Worst-t.Best)
}

// ScoreValue applies the generic contract: a missing value scores 0, a spec
// without thresholds scores 5, otherwise ThresholdScore.
func ScoreValue(value *float64, spec ParameterSpec) float64 {
	if value == nil || math.IsNaN(*value) {
		return MissingScore
	}
	if !spec.HasThresholds() {
		return NeutralScore
	}
	return ThresholdScore(*value, *spec.Thresholds, spec.HigherIsBetter)
}

// Scorer maps raw values to 0..10 scores. Special parameters (elevation,
// landCover, landOwnership) bypass the threshold rule.
type Scorer struct {
	params    *ParameterSet
	landCover *LandCoverModel
}

// NewScorer builds a Scorer; nil arguments select the built-in tables.
func NewScorer(params *ParameterSet, landCover *LandCoverModel) *Scorer {
	if params == nil {
		params = DefaultParameterSet()
	}
	if landCover == nil {
		landCover = DefaultLandCoverModel()
	}
	return &Scorer{params: params, landCover: landCover}
}

// Parameters returns the parameter set in use.
func (s *Scorer) Parameters() *ParameterSet { return s.params }

// LandCover returns the land-cover model in use.
func (s *Scorer) LandCover() *LandCoverModel { return s.landCover }

// EffectiveValue returns the raw value of spec after categorical rounding.
func EffectiveValue(spec ParameterSpec, raw RawParameterData) *float64 {
	v, ok := raw.Value(spec.Key)
	if !ok || math.IsNaN(v) {
		return nil
	}
	if spec.IsCategorical() {
		v = math.Round(v)
	}
	return &v
}

// Score scores one spec against raw.
func (s *Scorer) Score(spec ParameterSpec, raw RawParameterData) ScoredParameter {
	value := EffectiveValue(spec, raw)

	var score float64
	switch spec.Key {
	case KeyLandOwnership:
		score = ownershipNonPublic
		if value != nil && *value == ownershipCodePublic {
			score = ownershipPublic
		}
	case KeyElevation:
		score = elevationOutBand
		if value != nil && *value >= ElevationMin && *value <= ElevationMax {
			score = elevationInBand
		}
	case KeyLandCover:
		var class *LandCoverClass
		if value != nil {
			c := LandCoverClass(int(*value))
			class = &c
		}
		score = s.landCover.Score(class, raw.NDVI)
	default:
		score = ScoreValue(value, spec)
	}
	score = clampScore(score)

	return ScoredParameter{
		Key:           spec.Key,
		Name:          spec.Name,
		Unit:          spec.Unit,
		RawValue:      value,
		Score:         score,
		Weight:        spec.Weight,
		WeightedScore: score * spec.Weight,
	}
}

// ScoreKey scores the spec registered under key.
func (s *Scorer) ScoreKey(key ParameterKey, raw RawParameterData) (ScoredParameter, bool) {
	spec, ok := s.params.Spec(key)
	if !ok {
		return ScoredParameter{}, false
	}
	return s.Score(spec, raw), true
}

func clampScore(v float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, v))
}

//Personal.AI order the ending
