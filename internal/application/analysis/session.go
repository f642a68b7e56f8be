package analysis

import (
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
)

// Options are the caller's choices applied to every site of a session.
type Options struct {
	LandOwnership   suitability.LandOwnership `json:"landOwnership,omitempty"`
	SplitLargeAreas bool                      `json:"splitLargeAreas"`
	// MaxArea in squared degrees; zero selects the orchestrator default.
	MaxArea float64 `json:"maxArea,omitempty"`
}

// AnalysisSession carries the state of one analysis request. It is a value:
// the orchestrator returns an updated copy and never shares it between
// callers.
type AnalysisSession struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"createdAt"`
	Options   Options               `json:"options"`
	Results   []*AreaAnalysisResult `json:"results"`
	Failures  []SiteFailure         `json:"failures,omitempty"`
}

// NewSession starts an empty session.
func NewSession(opts Options) AnalysisSession {
	return AnalysisSession{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Options:   opts,
	}
}

// WithResult returns a copy of s with r appended.
func (s AnalysisSession) WithResult(r *AreaAnalysisResult) AnalysisSession {
	out := s
	out.Results = append(append(make([]*AreaAnalysisResult, 0, len(s.Results)+1), s.Results...), r)
	return out
}

// WithFailure returns a copy of s with f appended.
func (s AnalysisSession) WithFailure(f SiteFailure) AnalysisSession {
	out := s
	out.Failures = append(append(make([]SiteFailure, 0, len(s.Failures)+1), s.Failures...), f)
	return out
}

// Summary aggregates the session's results.
func (s AnalysisSession) Summary() BatchSummary {
	sum := Summarize(s.Results)
	sum.Failed = len(s.Failures)
	return sum
}

// BatchSummary describes a multi-site analysis.
type BatchSummary struct {
	Count     int                          `json:"count"`
	Failed    int                          `json:"failed"`
	MinScore  float64                      `json:"minScore"`
	MaxScore  float64                      `json:"maxScore"`
	MeanScore float64                      `json:"meanScore"`
	Decisions map[suitability.Decision]int `json:"decisions"`
}

// Summarize computes count and min/max/mean final score over results.
func Summarize(results []*AreaAnalysisResult) BatchSummary {
	sum := BatchSummary{Decisions: map[suitability.Decision]int{}}
	scores := make([]float64, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		scores = append(scores, r.FinalScore)
		sum.Decisions[r.Decision]++
	}
	sum.Count = len(scores)
	if len(scores) == 0 {
		return sum
	}
	sum.MinScore = floats.Min(scores)
	sum.MaxScore = floats.Max(scores)
	sum.MeanScore = stat.Mean(scores, nil)
	return sum
}

//Personal.AI order the ending
