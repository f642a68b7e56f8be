package analysis

import (
	"context"

	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// Search limits.
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 200
)

// HistoryFilter narrows a search over past analyses. Zero fields match
// everything.
type HistoryFilter struct {
	Decision  suitability.Decision `json:"decision,omitempty"`
	SessionID string               `json:"sessionId,omitempty"`
	MinScore  *float64             `json:"minScore,omitempty"`
	MaxScore  *float64             `json:"maxScore,omitempty"`
	Limit     int                  `json:"limit,omitempty"`
	Offset    int                  `json:"offset,omitempty"`
}

// Normalize validates the filter and applies the limit defaults.
func (f HistoryFilter) Normalize() (HistoryFilter, error) {
	switch f.Decision {
	case "", suitability.DecisionYes, suitability.DecisionReview, suitability.DecisionNo:
	default:
		return f, errors.InvalidParam("decision must be Yes, Review or No")
	}
	if f.MinScore != nil && f.MaxScore != nil && *f.MinScore > *f.MaxScore {
		return f, errors.InvalidParam("minScore must not exceed maxScore")
	}
	if f.Offset < 0 {
		return f, errors.InvalidParam("offset must not be negative")
	}
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultSearchLimit
	case f.Limit > MaxSearchLimit:
		f.Limit = MaxSearchLimit
	}
	return f, nil
}

// HistoryStore reads recorded analyses back.
type HistoryStore interface {
	Get(ctx context.Context, id string) (*AreaAnalysisResult, error)
	Search(ctx context.Context, filter HistoryFilter) ([]*AreaAnalysisResult, error)
}

// SimilarSite is a past analysis ranked by score-vector similarity.
type SimilarSite struct {
	AnalysisID string               `json:"analysisId"`
	Name       string               `json:"name"`
	FinalScore float64              `json:"finalScore"`
	Decision   suitability.Decision `json:"decision"`
	Distance   float32              `json:"distance"`
}

// SimilarityIndex finds analyses with comparable parameter scores.
type SimilarityIndex interface {
	Similar(ctx context.Context, vector []float64, k int) ([]SimilarSite, error)
}

// ReportStore hands out download links for stored analysis reports.
type ReportStore interface {
	ReportURL(ctx context.Context, analysisID string) (string, error)
}

//Personal.AI order the ending
