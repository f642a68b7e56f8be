package suitability

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// Profile is an alternate scoring configuration loaded from YAML. Omitted
// sections fall back to the built-in tables; a landCover section is applied
// on top of the default land-cover configuration.
//
//	name: arid-region
//	parameters:
//	  - key: slope
//	    weight: 0.25
//	    thresholds: {best: 5, worst: 12}
//	    suggestionText: ...
//	landCover:
//	  bonusScale: 0.3
type Profile struct {
	Name       string          `yaml:"name"`
	Parameters []ParameterSpec `yaml:"parameters"`
	LandCover  yaml.Node       `yaml:"landCover"`
}

// ParseProfile builds a Scorer from YAML profile bytes.
func ParseProfile(data []byte) (*Scorer, string, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, "", errors.Wrap(err, errors.ErrCodeScoringProfileInvalid, "scoring profile is not valid YAML")
	}

	params := DefaultParameterSet()
	if len(p.Parameters) > 0 {
		set, err := NewParameterSet(p.Parameters)
		if err != nil {
			return nil, "", err
		}
		params = set
	}

	lc := DefaultLandCoverModel()
	if !p.LandCover.IsZero() {
		cfg := DefaultLandCoverConfig()
		if err := p.LandCover.Decode(&cfg); err != nil {
			return nil, "", errors.Wrap(err, errors.ErrCodeScoringProfileInvalid, "invalid landCover section")
		}
		lc = NewLandCoverModel(cfg)
	}
	return NewScorer(params, lc), p.Name, nil
}

// LoadProfile reads a YAML profile file. An empty path returns the built-in
// scorer.
func LoadProfile(path string) (*Scorer, string, error) {
	if path == "" {
		return NewScorer(nil, nil), "default", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.ErrCodeScoringProfileInvalid, "cannot read scoring profile").
			WithDetail(path)
	}
	return ParseProfile(data)
}

//Personal.AI order the ending
