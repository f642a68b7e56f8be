package suitability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func class(c LandCoverClass) *LandCoverClass { return &c }

func TestLandCoverModel_Score(t *testing.T) {
	m := DefaultLandCoverModel()
	cases := []struct {
		name  string
		class *LandCoverClass
		ndvi  *float64
		want  float64
	}{
		{"water override beats grassland", class(ClassGrassland), fp(-0.15), 0},
		{"built-up", class(ClassBuiltUp), fp(0.2), 1},
		{"tree cover", class(ClassTreeCover), fp(0.2), 3},
		{"dense tree cover gets no bonus", class(ClassTreeCover), fp(0.8), 3},
		{"shrubland", class(ClassShrubland), fp(0.2), 8},
		{"shrubland bonus", class(ClassShrubland), fp(0.5), 8.08},
		{"shrubland at bonus cutoff", class(ClassShrubland), fp(0.3), 8},
		{"grassland capped", class(ClassGrassland), fp(0.5), 10},
		{"cropland", class(ClassCropland), fp(0.0), 10},
		{"bare", class(ClassBareSparse), fp(0.31), 10},
		{"water low ndvi", class(ClassPermanentWater), fp(0.05), 0},
		{"water", class(ClassPermanentWater), fp(0.2), 2},
		{"water dense vegetation no bonus", class(ClassPermanentWater), fp(0.6), 2},
		{"wetland without ndvi", class(ClassHerbaceousWetland), nil, 2},
		{"mangroves low ndvi", class(ClassMangroves), fp(0.0), 0},
		{"unknown code", class(LandCoverClass(999)), fp(0.5), 5},
		{"moss default score", class(ClassMossLichen), fp(0.5), 5},
		{"snow", class(ClassSnowIce), fp(0.2), 5},
		{"missing class and ndvi", nil, nil, 5},
		{"missing class with water ndvi", nil, fp(-0.5), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, m.Score(tc.class, tc.ndvi), 1e-12)
		})
	}
}

func TestLandCoverModel_UsabilityFactor(t *testing.T) {
	m := DefaultLandCoverModel()
	assert.Equal(t, 0.8, m.UsabilityFactor(ClassShrubland))
	assert.Equal(t, 0.5, m.UsabilityFactor(LandCoverClass(7)))
}

func TestLandCoverModel_CopiesConfig(t *testing.T) {
	cfg := DefaultLandCoverConfig()
	m := NewLandCoverModel(cfg)
	cfg.BaseScores[ClassBuiltUp] = 9
	assert.Equal(t, 1.0, m.Score(class(ClassBuiltUp), nil))
}

func TestLandCoverClass_String(t *testing.T) {
	assert.Equal(t, "grassland", ClassGrassland.String())
	assert.Equal(t, "unknown", LandCoverClass(1).String())
}

//Personal.AI order the ending
