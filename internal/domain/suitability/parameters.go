// Package suitability implements the site suitability scoring engine: the
// fixed parameter table, per-parameter scoring, the land-cover vegetation
// correction and the weighted aggregation into a Yes / Review / No decision.
//
// Everything in this package is pure. A ParameterSet and a LandCoverModel are
// built once and shared read-only by any number of concurrent callers.
package suitability

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// ParameterKey identifies one scoring dimension.
type ParameterKey string

const (
	KeySlope             ParameterKey = "slope"
	KeyGHI               ParameterKey = "ghi"
	KeyTemperature       ParameterKey = "temperature"
	KeyElevation         ParameterKey = "elevation"
	KeyLandCover         ParameterKey = "landCover"
	KeyProximityToLines  ParameterKey = "proximityToLines"
	KeyProximityToRoads  ParameterKey = "proximityToRoads"
	KeyWaterAvailability ParameterKey = "waterAvailability"
	KeySoilStability     ParameterKey = "soilStability"
	KeyShading           ParameterKey = "shading"
	KeyDust              ParameterKey = "dust"
	KeyWindSpeed         ParameterKey = "windSpeed"
	KeySeismicRisk       ParameterKey = "seismicRisk"
	KeyFloodRisk         ParameterKey = "floodRisk"
	KeyLandOwnership     ParameterKey = "landOwnership"
)

// WeightTolerance is the allowed deviation of the weight sum from 1.0.
const WeightTolerance = 1e-6

// Thresholds is the raw-value interval mapped linearly onto scores 1..10.
type Thresholds struct {
	Best  float64 `json:"best" yaml:"best"`
	Worst float64 `json:"worst" yaml:"worst"`
}

// ParameterSpec is the static configuration of one scoring dimension.
type ParameterSpec struct {
	Key            ParameterKey `json:"key" yaml:"key"`
	Name           string       `json:"name" yaml:"name"`
	Weight         float64      `json:"weight" yaml:"weight"`
	Unit           string       `json:"unit,omitempty" yaml:"unit,omitempty"`
	HigherIsBetter bool         `json:"higherIsBetter,omitempty" yaml:"higherIsBetter,omitempty"`
	Thresholds     *Thresholds  `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
	SuggestionText string       `json:"suggestionText" yaml:"suggestionText"`
}

// HasThresholds reports whether the spec uses linear threshold scoring.
func (s ParameterSpec) HasThresholds() bool { return s.Thresholds != nil }

// IsCategorical reports whether raw values of this key are enum codes that
// are rounded to the nearest integer before scoring.
func (s ParameterSpec) IsCategorical() bool {
	return s.Key == KeyLandCover || s.Key == KeyLandOwnership
}

func (s ParameterSpec) clone() ParameterSpec {
	if s.Thresholds != nil {
		t := *s.Thresholds
		s.Thresholds = &t
	}
	return s
}

func (s ParameterSpec) validate() error {
	if s.Key == "" {
		return fmt.Errorf("parameter key is empty")
	}
	if s.Weight < 0 || math.IsNaN(s.Weight) || math.IsInf(s.Weight, 0) {
		return fmt.Errorf("parameter %s: invalid weight %v", s.Key, s.Weight)
	}
	if t := s.Thresholds; t != nil {
		if t.Best == t.Worst {
			return fmt.Errorf("parameter %s: best and worst thresholds are equal", s.Key)
		}
		if s.HigherIsBetter && t.Best < t.Worst {
			return fmt.Errorf("parameter %s: higherIsBetter requires best > worst", s.Key)
		}
		if !s.HigherIsBetter && t.Best > t.Worst {
			return fmt.Errorf("parameter %s: lower-is-better requires best < worst", s.Key)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// ParameterSet
// ─────────────────────────────────────────────────────────────────────────────

// ParameterSet is an immutable, ordered collection of ParameterSpecs whose
// weights sum to 1.0. Declaration order drives suggestion order.
type ParameterSet struct {
	specs []ParameterSpec
	index map[ParameterKey]int
}

// NewParameterSet validates specs and returns an immutable set. The input
// slice is copied.
func NewParameterSet(specs []ParameterSpec) (*ParameterSet, error) {
	if len(specs) == 0 {
		return nil, errors.New(errors.ErrCodeScoringProfileInvalid, "parameter set is empty")
	}
	set := &ParameterSet{
		specs: make([]ParameterSpec, 0, len(specs)),
		index: make(map[ParameterKey]int, len(specs)),
	}
	weights := make([]float64, 0, len(specs))
	for _, s := range specs {
		if err := s.validate(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeScoringProfileInvalid, "invalid parameter spec")
		}
		if _, dup := set.index[s.Key]; dup {
			return nil, errors.New(errors.ErrCodeScoringProfileInvalid, "duplicate parameter key").
				WithDetail(string(s.Key))
		}
		set.index[s.Key] = len(set.specs)
		set.specs = append(set.specs, s.clone())
		weights = append(weights, s.Weight)
	}
	if total := floats.Sum(weights); math.Abs(total-1) > WeightTolerance {
		return nil, errors.New(errors.ErrCodeScoringProfileInvalid, "parameter weights must sum to 1").
			WithDetail(fmt.Sprintf("sum=%.6f", total))
	}
	return set, nil
}

// MustParameterSet is NewParameterSet that panics on error.
func MustParameterSet(specs []ParameterSpec) *ParameterSet {
	set, err := NewParameterSet(specs)
	if err != nil {
		panic(err)
	}
	return set
}

// Len returns the number of specs.
func (p *ParameterSet) Len() int { return len(p.specs) }

// Specs returns a copy of the specs in declaration order.
func (p *ParameterSet) Specs() []ParameterSpec {
	out := make([]ParameterSpec, len(p.specs))
	for i, s := range p.specs {
		out[i] = s.clone()
	}
	return out
}

// Spec looks up a spec by key.
func (p *ParameterSet) Spec(key ParameterKey) (ParameterSpec, bool) {
	i, ok := p.index[key]
	if !ok {
		return ParameterSpec{}, false
	}
	return p.specs[i].clone(), true
}

// Keys returns the keys in declaration order.
func (p *ParameterSet) Keys() []ParameterKey {
	keys := make([]ParameterKey, len(p.specs))
	for i, s := range p.specs {
		keys[i] = s.Key
	}
	return keys
}

// TotalWeight returns the sum of all weights.
func (p *ParameterSet) TotalWeight() float64 {
	w := make([]float64, len(p.specs))
	for i, s := range p.specs {
		w[i] = s.Weight
	}
	return floats.Sum(w)
}

// ─────────────────────────────────────────────────────────────────────────────
// Default table
// ─────────────────────────────────────────────────────────────────────────────

var defaultParameterSet = MustParameterSet(DefaultParameterSpecs())

// DefaultParameterSet returns the built-in fifteen-parameter table.
func DefaultParameterSet() *ParameterSet { return defaultParameterSet }

// DefaultParameterSpecs returns a fresh copy of the built-in specs.
func DefaultParameterSpecs() []ParameterSpec {
	return []ParameterSpec{
		{
			Key: KeySlope, Name: "Slope", Weight: 0.20, Unit: "°",
			Thresholds:     &Thresholds{Best: 5.7, Worst: 15},
			SuggestionText: "Terrain is steep; budget for grading or pick a flatter part of the parcel.",
		},
		{
			Key: KeyGHI, Name: "Sunlight (GHI)", Weight: 0.15, Unit: "kWh/m²/day", HigherIsBetter: true,
			Thresholds:     &Thresholds{Best: 5.5, Worst: 4.5},
			SuggestionText: "Irradiance is low; consider bifacial modules or single-axis trackers to raise yield.",
		},
		{
			Key: KeyTemperature, Name: "Avg. Temperature", Weight: 0.07, Unit: "°C",
			Thresholds:     &Thresholds{Best: 25, Worst: 40},
			SuggestionText: "High ambient temperature reduces module efficiency; use modules with a low temperature coefficient and allow airflow under the arrays.",
		},
		{
			Key: KeyElevation, Name: "Elevation", Weight: 0.03, Unit: "m",
			SuggestionText: "Elevation is outside the 50-1500 m band; check access logistics and exposure to extreme weather.",
		},
		{
			Key: KeyLandCover, Name: "Land Cover", Weight: 0.10,
			SuggestionText: "Land cover is unfavourable (built-up, water, wetland or forest); look for open, bare or grassland terrain.",
		},
		{
			Key: KeyProximityToLines, Name: "Proximity to Power Lines", Weight: 0.10, Unit: "km",
			Thresholds:     &Thresholds{Best: 1, Worst: 15},
			SuggestionText: "The grid is far away; include the cost of a transmission line and substation in the budget.",
		},
		{
			Key: KeyProximityToRoads, Name: "Proximity to Roads", Weight: 0.05, Unit: "km",
			Thresholds:     &Thresholds{Best: 1, Worst: 10},
			SuggestionText: "Road access is poor; plan an access road for construction and maintenance.",
		},
		{
			Key: KeyWaterAvailability, Name: "Water Availability", Weight: 0.05, Unit: "km",
			Thresholds:     &Thresholds{Best: 2, Worst: 15},
			SuggestionText: "Water is scarce for panel cleaning; plan storage tanks or waterless robotic cleaning.",
		},
		{
			Key: KeySoilStability, Name: "Soil Stability (Depth)", Weight: 0.05, Unit: "cm", HigherIsBetter: true,
			Thresholds:     &Thresholds{Best: 100, Worst: 20},
			SuggestionText: "Soil is shallow or unstable; commission a geotechnical survey and consider ballasted or screw-pile foundations.",
		},
		{
			Key: KeyShading, Name: "Shading (Hillshade)", Weight: 0.05, HigherIsBetter: true,
			Thresholds:     &Thresholds{Best: 200, Worst: 100},
			SuggestionText: "Terrain shading is significant; run a shading study and adjust row spacing and layout.",
		},
		{
			Key: KeyDust, Name: "Dust (Aerosol Index)", Weight: 0.03,
			Thresholds:     &Thresholds{Best: 0.1, Worst: 0.5},
			SuggestionText: "Dust levels are high; schedule frequent cleaning and use anti-soiling coatings.",
		},
		{
			Key: KeyWindSpeed, Name: "Wind Speed", Weight: 0.02, Unit: "km/h",
			Thresholds:     &Thresholds{Best: 20, Worst: 90},
			SuggestionText: "Strong winds are expected; design mounting structures for higher wind loads.",
		},
		{
			Key: KeySeismicRisk, Name: "Seismic Risk (PGA)", Weight: 0.02, Unit: "g",
			Thresholds:     &Thresholds{Best: 0.1, Worst: 0.4},
			SuggestionText: "The site lies in an active seismic zone; follow seismic design codes for foundations and racking.",
		},
		{
			Key: KeyFloodRisk, Name: "Flood Risk", Weight: 0.02, Unit: "ha",
			Thresholds:     &Thresholds{Best: 0, Worst: 5},
			SuggestionText: "Part of the site is flood-prone; raise equipment pads and add drainage.",
		},
		{
			Key: KeyLandOwnership, Name: "Land Ownership", Weight: 0.06,
			SuggestionText: "The land is privately owned; expect longer acquisition or lease negotiations.",
		},
	}
}

//Personal.AI order the ending
