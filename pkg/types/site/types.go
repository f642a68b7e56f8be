// Package site holds the public request and response types of the site
// analysis API. They mirror the JSON of the HTTP endpoints and carry no
// behaviour beyond decoding.
package site

import (
	"encoding/json"
	"time"
)

type Decision string

const (
	DecisionYes    Decision = "Yes"
	DecisionReview Decision = "Review"
	DecisionNo     Decision = "No"
)

type LandOwnership string

const (
	OwnershipGovernment LandOwnership = "government"
	OwnershipBarren     LandOwnership = "barren"
	OwnershipPrivate    LandOwnership = "private"
)

// Ring is a closed polygon ring of [lon, lat] positions.
type Ring [][2]float64

// AnalyzeRequest is the body of POST /api/analyze and of queued requests.
// Geometry holds any GeoJSON Polygon, MultiPolygon, Feature or
// FeatureCollection.
type AnalyzeRequest struct {
	Geometry        json.RawMessage `json:"geometry"`
	Name            string          `json:"name,omitempty"`
	LandOwnership   LandOwnership   `json:"landOwnership,omitempty"`
	SplitLargeAreas *bool           `json:"splitLargeAreas,omitempty"`
	MaxArea         float64         `json:"maxArea,omitempty"`
}

// BatchRequest is the body of POST /api/analyze/batch.
type BatchRequest struct {
	Geometries      []json.RawMessage `json:"geometries"`
	LandOwnership   LandOwnership     `json:"landOwnership,omitempty"`
	SplitLargeAreas *bool             `json:"splitLargeAreas,omitempty"`
	MaxArea         float64           `json:"maxArea,omitempty"`
}

// ScoredParameter is one row of a result's score breakdown. RawValue is nil
// when the measurement was unavailable.
type ScoredParameter struct {
	Key           string   `json:"key"`
	Name          string   `json:"name"`
	Unit          string   `json:"unit,omitempty"`
	RawValue      *float64 `json:"rawValue"`
	Score         float64  `json:"score"`
	Weight        float64  `json:"weight"`
	WeightedScore float64  `json:"weightedScore"`
}

// AnalysisResult is the outcome of analyzing one site.
type AnalysisResult struct {
	ID            string                     `json:"id"`
	SessionID     string                     `json:"sessionId"`
	Name          string                     `json:"name"`
	Polygon       Ring                       `json:"polygon"`
	AreaHectares  float64                    `json:"areaHectares"`
	RawData       map[string]json.RawMessage `json:"rawData,omitempty"`
	FinalScore    float64                    `json:"finalScore"`
	Decision      Decision                   `json:"decision"`
	Suggestions   []string                   `json:"suggestions"`
	Parameters    []ScoredParameter          `json:"parameters"`
	SubAreas      []Ring                     `json:"subAreas"`
	LandOwnership LandOwnership              `json:"landOwnership,omitempty"`
	AnalyzedAt    time.Time                  `json:"analyzedAt"`
}

// Parameter looks up a score row by key.
func (r *AnalysisResult) Parameter(key string) (ScoredParameter, bool) {
	for _, p := range r.Parameters {
		if p.Key == key {
			return p, true
		}
	}
	return ScoredParameter{}, false
}

// BatchError stands in for a result when one input could not be analyzed.
type BatchError struct {
	Error    string          `json:"error"`
	Code     string          `json:"code,omitempty"`
	Name     string          `json:"name,omitempty"`
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

// BatchResult holds exactly one of Result or Failure.
type BatchResult struct {
	Result  *AnalysisResult
	Failure *BatchError
}

func (b *BatchResult) UnmarshalJSON(data []byte) error {
	var probe struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Error != nil {
		b.Failure = new(BatchError)
		return json.Unmarshal(data, b.Failure)
	}
	b.Result = new(AnalysisResult)
	return json.Unmarshal(data, b.Result)
}

func (b BatchResult) MarshalJSON() ([]byte, error) {
	if b.Failure != nil {
		return json.Marshal(b.Failure)
	}
	return json.Marshal(b.Result)
}

// BatchSummary aggregates the successful results of a batch.
type BatchSummary struct {
	Count     int              `json:"count"`
	Failed    int              `json:"failed"`
	MinScore  float64          `json:"minScore"`
	MaxScore  float64          `json:"maxScore"`
	MeanScore float64          `json:"meanScore"`
	Decisions map[Decision]int `json:"decisions"`
}

// BatchResponse answers the batch and upload endpoints; Results follow
// input order.
type BatchResponse struct {
	SessionID  string        `json:"sessionId"`
	Results    []BatchResult `json:"results"`
	Summary    BatchSummary  `json:"summary"`
	ArchiveKey string        `json:"archiveKey,omitempty"`
}

// Thresholds bound a linear parameter score.
type Thresholds struct {
	Best  float64 `json:"best"`
	Worst float64 `json:"worst"`
}

type ParameterSpec struct {
	Key            string      `json:"key"`
	Name           string      `json:"name"`
	Weight         float64     `json:"weight"`
	Unit           string      `json:"unit,omitempty"`
	HigherIsBetter bool        `json:"higherIsBetter,omitempty"`
	Thresholds     *Thresholds `json:"thresholds,omitempty"`
	SuggestionText string      `json:"suggestionText"`
}

type ParametersResponse struct {
	Parameters  []ParameterSpec `json:"parameters"`
	TotalWeight float64         `json:"totalWeight"`
}

// SearchParams filter GET /api/v1/analyses.
type SearchParams struct {
	Decision  Decision
	SessionID string
	MinScore  *float64
	MaxScore  *float64
	Limit     int
	Offset    int
}

type SearchResponse struct {
	Items  []AnalysisResult `json:"items"`
	Count  int              `json:"count"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type SimilarSite struct {
	AnalysisID string   `json:"analysisId"`
	Name       string   `json:"name"`
	FinalScore float64  `json:"finalScore"`
	Decision   Decision `json:"decision"`
	Distance   float32  `json:"distance"`
}

type SimilarResponse struct {
	AnalysisID string        `json:"analysisId"`
	Similar    []SimilarSite `json:"similar"`
}

type ReportResponse struct {
	AnalysisID string `json:"analysisId"`
	URL        string `json:"url"`
}

type EnqueueResponse struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
}

//Personal.AI order the ending
