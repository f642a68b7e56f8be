package suitability

import "math"

// LandCoverClass is an ESA WorldCover class code.
type LandCoverClass int

const (
	ClassTreeCover         LandCoverClass = 10
	ClassShrubland         LandCoverClass = 20
	ClassGrassland         LandCoverClass = 30
	ClassCropland          LandCoverClass = 40
	ClassBuiltUp           LandCoverClass = 50
	ClassBareSparse        LandCoverClass = 60
	ClassSnowIce           LandCoverClass = 70
	ClassPermanentWater    LandCoverClass = 80
	ClassHerbaceousWetland LandCoverClass = 90
	ClassMangroves         LandCoverClass = 95
	ClassMossLichen        LandCoverClass = 100
)

var classNames = map[LandCoverClass]string{
	ClassTreeCover:         "tree cover",
	ClassShrubland:         "shrubland",
	ClassGrassland:         "grassland",
	ClassCropland:          "cropland",
	ClassBuiltUp:           "built-up",
	ClassBareSparse:        "bare / sparse vegetation",
	ClassSnowIce:           "snow and ice",
	ClassPermanentWater:    "permanent water bodies",
	ClassHerbaceousWetland: "herbaceous wetland",
	ClassMangroves:         "mangroves",
	ClassMossLichen:        "moss and lichen",
}

func (c LandCoverClass) String() string {
	if n, ok := classNames[c]; ok {
		return n
	}
	return "unknown"
}

// LandCoverConfig holds the tables and cut-offs of the land-cover model.
type LandCoverConfig struct {
	// BaseScores maps a class to its categorical score.
	BaseScores map[LandCoverClass]float64 `yaml:"baseScores"`
	// WaterClasses score WaterClassScore, or 0 when NDVI < WaterClassNDVI.
	WaterClasses    []LandCoverClass `yaml:"waterClasses"`
	WaterClassScore float64          `yaml:"waterClassScore"`
	WaterClassNDVI  float64          `yaml:"waterClassNdvi"`
	// UnknownScore applies to codes missing from BaseScores and WaterClasses.
	UnknownScore float64 `yaml:"unknownScore"`
	// WaterOverrideNDVI: any class with NDVI below it scores 0.
	WaterOverrideNDVI float64 `yaml:"waterOverrideNdvi"`
	// The vegetation bonus applies when NDVI > BonusNDVI and the class
	// usability factor is at least MinBonusUsability.
	UsabilityFactors  map[LandCoverClass]float64 `yaml:"usabilityFactors"`
	DefaultUsability  float64                    `yaml:"defaultUsability"`
	BonusNDVI         float64                    `yaml:"bonusNdvi"`
	MinBonusUsability float64                    `yaml:"minBonusUsability"`
	BonusScale        float64                    `yaml:"bonusScale"`
}

// DefaultLandCoverConfig returns the built-in WorldCover tables.
func DefaultLandCoverConfig() LandCoverConfig {
	return LandCoverConfig{
		BaseScores: map[LandCoverClass]float64{
			ClassBuiltUp:    1,
			ClassTreeCover:  3,
			ClassShrubland:  8,
			ClassGrassland:  10,
			ClassCropland:   10,
			ClassBareSparse: 10,
		},
		WaterClasses:      []LandCoverClass{ClassPermanentWater, ClassHerbaceousWetland, ClassMangroves},
		WaterClassScore:   2,
		WaterClassNDVI:    0.1,
		UnknownScore:      5,
		WaterOverrideNDVI: -0.1,
		UsabilityFactors: map[LandCoverClass]float64{
			ClassTreeCover:         0.3,
			ClassShrubland:         0.8,
			ClassGrassland:         1.0,
			ClassCropland:          0.6,
			ClassBuiltUp:           0.1,
			ClassBareSparse:        1.0,
			ClassSnowIce:           0.0,
			ClassPermanentWater:    0.0,
			ClassHerbaceousWetland: 0.2,
			ClassMangroves:         0.2,
			ClassMossLichen:        0.5,
		},
		DefaultUsability:  0.5,
		BonusNDVI:         0.3,
		MinBonusUsability: 0.6,
		BonusScale:        0.2,
	}
}

// LandCoverModel scores a land-cover class with the NDVI water override and
// vegetation correction. It is immutable once built.
type LandCoverModel struct {
	cfg   LandCoverConfig
	water map[LandCoverClass]bool
}

// NewLandCoverModel copies cfg into a model.
func NewLandCoverModel(cfg LandCoverConfig) *LandCoverModel {
	m := &LandCoverModel{cfg: cfg, water: make(map[LandCoverClass]bool, len(cfg.WaterClasses))}
	m.cfg.BaseScores = make(map[LandCoverClass]float64, len(cfg.BaseScores))
	for k, v := range cfg.BaseScores {
		m.cfg.BaseScores[k] = v
	}
	m.cfg.UsabilityFactors = make(map[LandCoverClass]float64, len(cfg.UsabilityFactors))
	for k, v := range cfg.UsabilityFactors {
		m.cfg.UsabilityFactors[k] = v
	}
	m.cfg.WaterClasses = append([]LandCoverClass(nil), cfg.WaterClasses...)
	for _, c := range cfg.WaterClasses {
		m.water[c] = true
	}
	return m
}

var defaultLandCoverModel = NewLandCoverModel(DefaultLandCoverConfig())

// DefaultLandCoverModel returns the shared built-in model.
func DefaultLandCoverModel() *LandCoverModel { return defaultLandCoverModel }

// BaseScore returns the categorical score before the vegetation correction.
func (m *LandCoverModel) BaseScore(class LandCoverClass, ndvi *float64) float64 {
	if m.water[class] {
		if ndvi != nil && *ndvi < m.cfg.WaterClassNDVI {
			return 0
		}
		return m.cfg.WaterClassScore
	}
	if s, ok := m.cfg.BaseScores[class]; ok {
		return s
	}
	return m.cfg.UnknownScore
}

// UsabilityFactor returns how usable a class is for solar despite vegetation.
func (m *LandCoverModel) UsabilityFactor(class LandCoverClass) float64 {
	if f, ok := m.cfg.UsabilityFactors[class]; ok {
		return f
	}
	return m.cfg.DefaultUsability
}

// Score returns the land-cover score in [0, 10]. A nil class is scored as an
// unrecognized code; a nil ndvi disables the override and the correction.
func (m *LandCoverModel) Score(class *LandCoverClass, ndvi *float64) float64 {
	if ndvi != nil && *ndvi < m.cfg.WaterOverrideNDVI {
		return 0
	}

	base := m.cfg.UnknownScore
	factor := m.cfg.DefaultUsability
	if class != nil {
		base = m.BaseScore(*class, ndvi)
		factor = m.UsabilityFactor(*class)
	}

	if ndvi != nil && *ndvi > m.cfg.BonusNDVI && base > 0 && factor >= m.cfg.MinBonusUsability {
		base = math.Min(10, base+*ndvi*m.cfg.BonusScale*factor)
	}
	return clampScore(base)
}

//Personal.AI order the ending
